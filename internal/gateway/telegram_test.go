package gateway

import (
	"strings"
	"testing"
)

func TestSplitTextShortPassthrough(t *testing.T) {
	t.Parallel()
	got := splitText("hello", 100)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("splitText = %q", got)
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	t.Parallel()
	lines := make([]string, 40)
	for i := range lines {
		lines[i] = strings.Repeat("x", 20)
	}
	s := strings.Join(lines, "\n")

	chunks := splitText(s, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Fatalf("chunk %d over limit: %d runes", i, len([]rune(c)))
		}
		if strings.HasPrefix(c, "\n") || strings.HasSuffix(c, "\n") {
			t.Fatalf("chunk %d has dangling newline: %q", i, c)
		}
	}
	if joined := strings.Join(chunks, "\n"); joined != s {
		t.Fatal("chunks do not reassemble to the original text")
	}
}

func TestSplitTextAvoidsDanglingTag(t *testing.T) {
	t.Parallel()
	s := strings.Repeat("a", 95) + "<b>bold</b>"
	for _, c := range splitText(s, 100) {
		if n := strings.Count(c, "<"); n != strings.Count(c, ">") {
			t.Fatalf("unbalanced tag brackets in chunk %q", c)
		}
	}
}
