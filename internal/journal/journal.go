// Package journal records which (cycle, stage) pairs were already
// delivered, so a stage never fires twice.
//
// The "memory" driver gives the baseline at-most-once-per-process
// guarantee; the "sqlite" driver extends the duplicate guard across
// restarts. Confirmations are never persisted in either driver.
package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"turfbot/pkg/logx"
)

var ErrClosed = errors.New("journal closed")

// Config configures the journal backend.
//
// Driver values:
//   - "" or "memory": in-process map, markers lost on restart
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the sent-stage marker set. Keys are write-once: MarkSent on an
// existing key is a harmless upsert.
type Store interface {
	MarkSent(ctx context.Context, cycleKey string, offset time.Duration) error
	WasSent(ctx context.Context, cycleKey string, offset time.Duration) (bool, error)

	// Prune discards markers recorded before cutoff. Cycle keys are never
	// reused on realistic timeframes, so pruning only bounds growth.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return newMemory(), nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown journal driver: " + cfg.Driver)
	}
}

// markerKey flattens a (cycle, stage) pair into one storage key, e.g.
// "2025-03-10@12:00/90m0s".
func markerKey(cycleKey string, offset time.Duration) string {
	return cycleKey + "/" + offset.String()
}
