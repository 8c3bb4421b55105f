package event

import "testing"

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		h, m int
		ok   bool
	}{
		{"00:00", 0, 0, true},
		{"12:00", 12, 0, true},
		{"23:59", 23, 59, true},
		{" 16:00 ", 16, 0, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"12", 0, 0, false},
		{"12:00:00", 0, 0, false},
		{"ab:cd", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		h, m, err := ParseHHMM(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParseHHMM(%q) err = %v, want ok=%v", tc.in, err, tc.ok)
			continue
		}
		if tc.ok && (h != tc.h || m != tc.m) {
			t.Errorf("ParseHHMM(%q) = %d:%d, want %d:%d", tc.in, h, m, tc.h, tc.m)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if err := Validate(nil); err == nil {
		t.Error("empty set accepted")
	}
	if err := Validate([]Event{{Time: "12:00", Name: " "}}); err == nil {
		t.Error("blank name accepted")
	}
	if err := Validate([]Event{{Time: "25:00", Name: "X"}}); err == nil {
		t.Error("bad time accepted")
	}
}
