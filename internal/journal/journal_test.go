package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "turfbot/pkg/logx"
)

func drivers(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "journal.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite journal: %v", err)
	}
	mem, err := Open(Config{}, logx.Nop())
	if err != nil {
		t.Fatalf("open memory journal: %v", err)
	}
	return map[string]Store{"memory": mem, "sqlite": sq}
}

func TestMarkAndWasSent(t *testing.T) {
	for name, st := range drivers(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			defer st.Close()
			ctx := context.Background()
			key := "2025-03-10@12:00"

			if ok, err := st.WasSent(ctx, key, 90*time.Minute); err != nil || ok {
				t.Fatalf("WasSent before mark = %v, %v", ok, err)
			}
			if err := st.MarkSent(ctx, key, 90*time.Minute); err != nil {
				t.Fatalf("MarkSent: %v", err)
			}
			// Marking twice is a harmless upsert.
			if err := st.MarkSent(ctx, key, 90*time.Minute); err != nil {
				t.Fatalf("second MarkSent: %v", err)
			}
			if ok, err := st.WasSent(ctx, key, 90*time.Minute); err != nil || !ok {
				t.Fatalf("WasSent after mark = %v, %v", ok, err)
			}

			// Stages and cycles are independent keys.
			if ok, _ := st.WasSent(ctx, key, 30*time.Minute); ok {
				t.Fatal("30m stage marked by 90m mark")
			}
			if ok, _ := st.WasSent(ctx, "2025-03-11@12:00", 90*time.Minute); ok {
				t.Fatal("next day's cycle marked by today's mark")
			}
		})
	}
}

func TestPrune(t *testing.T) {
	for name, st := range drivers(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			defer st.Close()
			ctx := context.Background()
			if err := st.MarkSent(ctx, "2025-03-10@12:00", 0); err != nil {
				t.Fatalf("MarkSent: %v", err)
			}

			if n, err := st.Prune(ctx, time.Now().Add(-time.Hour)); err != nil || n != 0 {
				t.Fatalf("Prune(old cutoff) = %d, %v; want 0, nil", n, err)
			}
			if n, err := st.Prune(ctx, time.Now().Add(time.Hour)); err != nil || n != 1 {
				t.Fatalf("Prune(future cutoff) = %d, %v; want 1, nil", n, err)
			}
			if ok, _ := st.WasSent(ctx, "2025-03-10@12:00", 0); ok {
				t.Fatal("marker survived prune")
			}
		})
	}
}

func TestSqliteSurvivesReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	st, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.MarkSent(ctx, "2025-03-10@20:00", 10*time.Minute); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st2, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	if ok, err := st2.WasSent(ctx, "2025-03-10@20:00", 10*time.Minute); err != nil || !ok {
		t.Fatalf("marker lost across reopen: %v, %v", ok, err)
	}
}

func TestUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
