package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"turfbot/pkg/logx"
)

const sampleYAML = `telegram:
  token: "123:abc"
  chat_id: 0
  owner_user_ids: [111]
  poll_timeout: 15s
timezone: America/Sao_Paulo
reminders:
  offsets: [90m, 30m, 10m, 0s]
  cleanup_after: 2h
journal:
  driver: memory
health:
  enabled: true
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
`

func writeConfig(t *testing.T, content string) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return NewManager(path, logx.Nop())
}

func TestLoadSample(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, sampleYAML)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if got := cfg.PollTimeout(); got != 15*time.Second {
		t.Errorf("poll timeout = %s", got)
	}
	if got := cfg.CleanupAfter(); got != 2*time.Hour {
		t.Errorf("cleanup after = %s", got)
	}
	offs, err := cfg.Offsets()
	if err != nil || len(offs) != 4 || offs[0] != 90*time.Minute || offs[3] != 0 {
		t.Errorf("offsets = %v, %v", offs, err)
	}
	if got := cfg.HealthAddr(); got != ":3000" {
		t.Errorf("health addr = %q", got)
	}
	if cfg.Destination().ChatID != 0 || !cfg.Destination().IsZero() {
		t.Error("destination should be unset")
	}
	if !cfg.IsOwner(111) || cfg.IsOwner(222) {
		t.Error("owner check wrong")
	}
}

func TestDefaultsWhenSectionsOmitted(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, "telegram:\n  token: \"t\"\n  owner_user_ids: []\nlogging:\n  level: info\n  console: true\n  file:\n    enabled: false\n    path: \"\"\n")
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	events := cfg.EventSet()
	if len(events) != 4 || events[1].Name != "Cidade de Deus" {
		t.Fatalf("default events = %+v", events)
	}
	offs, _ := cfg.Offsets()
	if len(offs) != 4 || offs[0] != 90*time.Minute {
		t.Fatalf("default offsets = %v", offs)
	}
	if got := cfg.CleanupAfter(); got != 120*time.Minute {
		t.Errorf("default cleanup = %s", got)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "America/Sao_Paulo" {
		t.Errorf("default location = %v, %v", loc, err)
	}
	if got := cfg.PruneSchedule(); got != "0 4 * * *" {
		t.Errorf("default prune schedule = %q", got)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, sampleYAML+"surprise: true\n")
	if _, err := m.Load(); err == nil {
		t.Fatal("unknown key accepted")
	}
}

func TestValidateRejectsBadEvent(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, strings.Replace(sampleYAML, "reminders:", "events:\n  - {time: \"25:00\", name: X}\nreminders:", 1))
	if _, err := m.Load(); err == nil {
		t.Fatal("invalid event time accepted")
	}
}

func TestSetDestinationPersistsAndPublishes(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, sampleYAML)
	if _, err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	if err := m.SetDestination(-100123, 0); err != nil {
		t.Fatalf("set destination: %v", err)
	}
	if got := m.Get().Telegram.ChatID; got != -100123 {
		t.Fatalf("committed chat_id = %d", got)
	}
	select {
	case cfg := <-sub:
		if cfg.Telegram.ChatID != -100123 {
			t.Fatalf("published chat_id = %d", cfg.Telegram.ChatID)
		}
	default:
		t.Fatal("no config published")
	}

	// Survives a fresh parse of the rewritten file.
	cfg, err := m.Parse()
	if err != nil || cfg.Telegram.ChatID != -100123 {
		t.Fatalf("reparse: %+v, %v", cfg, err)
	}
}
