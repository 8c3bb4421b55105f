package config

import (
	"fmt"
	"time"

	"turfbot/internal/event"
	"turfbot/internal/gateway"
	"turfbot/internal/journal"
)

type Config struct {
	Telegram    TelegramConfig    `json:"telegram"`
	Timezone    string            `json:"timezone,omitempty"` // default America/Sao_Paulo
	Events      []EventConfig     `json:"events,omitempty"`
	Reminders   RemindersConfig   `json:"reminders,omitempty"`
	Journal     JournalConfig     `json:"journal,omitempty"`
	Health      HealthConfig      `json:"health,omitempty"`
	Maintenance MaintenanceConfig `json:"maintenance,omitempty"`
	Logging     LoggingConfig     `json:"logging"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChatID is the destination chat for reminders; 0 until /here is used.
	ChatID   int64 `json:"chat_id,omitempty"`
	ThreadID int   `json:"thread_id,omitempty"`
	// OwnerUserIDs may use administrative commands.
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string  `json:"poll_timeout,omitempty"`
	RatePerSec  float64 `json:"rate_per_sec,omitempty"`
}

type EventConfig struct {
	Time string `json:"time"`
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// RemindersConfig uses Go duration strings throughout.
type RemindersConfig struct {
	// Offsets are reminder stages before the occurrence; "0s" is the
	// open-now callout. Default: 90m, 30m, 10m, 0s.
	Offsets []string `json:"offsets,omitempty"`
	// CleanupAfter bounds how long confirmations outlive the occurrence.
	CleanupAfter string `json:"cleanup_after,omitempty"`
}

type JournalConfig struct {
	Driver      string `json:"driver,omitempty"` // "memory" (default) or "sqlite"
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type HealthConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default ":3000"
}

type MaintenanceConfig struct {
	// PruneSchedule is a cron expression in the configured timezone.
	PruneSchedule string `json:"prune_schedule,omitempty"` // default "0 4 * * *"
	// PruneOlderThan discards journal markers older than this.
	PruneOlderThan string `json:"prune_older_than,omitempty"` // default "48h"
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Validate rejects configs the services would choke on later. Called before
// every commit, including hot reloads.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if err := event.Validate(c.EventSet()); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if _, err := c.Offsets(); err != nil {
		return err
	}
	if _, err := ParseDurationField("reminders.cleanup_after", c.Reminders.CleanupAfter); err != nil {
		return err
	}
	if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("journal.busy_timeout", c.Journal.BusyTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("maintenance.prune_older_than", c.Maintenance.PruneOlderThan); err != nil {
		return err
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = "America/Sao_Paulo"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// EventSet maps the configured events onto the domain type, falling back to
// the reference deployment's set when none are configured.
func (c *Config) EventSet() []event.Event {
	if len(c.Events) == 0 {
		return event.Defaults()
	}
	out := make([]event.Event, 0, len(c.Events))
	for _, e := range c.Events {
		out = append(out, event.Event{Time: e.Time, Name: e.Name, ExternalID: e.ID})
	}
	return out
}

func (c *Config) Offsets() ([]time.Duration, error) {
	raw := c.Reminders.Offsets
	if len(raw) == 0 {
		return []time.Duration{90 * time.Minute, 30 * time.Minute, 10 * time.Minute, 0}, nil
	}
	out := make([]time.Duration, 0, len(raw))
	for i, s := range raw {
		d, err := ParseDurationField(fmt.Sprintf("reminders.offsets[%d]", i), s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Config) CleanupAfter() time.Duration {
	d, _ := ParseDurationOrDefault("reminders.cleanup_after", c.Reminders.CleanupAfter, 120*time.Minute)
	return d
}

func (c *Config) PollTimeout() time.Duration {
	d, _ := ParseDurationOrDefault("telegram.poll_timeout", c.Telegram.PollTimeout, 10*time.Second)
	return d
}

func (c *Config) PruneOlderThan() time.Duration {
	d, _ := ParseDurationOrDefault("maintenance.prune_older_than", c.Maintenance.PruneOlderThan, 48*time.Hour)
	return d
}

func (c *Config) PruneSchedule() string {
	if c.Maintenance.PruneSchedule == "" {
		return "0 4 * * *"
	}
	return c.Maintenance.PruneSchedule
}

func (c *Config) HealthAddr() string {
	if !c.Health.Enabled {
		return ""
	}
	if c.Health.Addr == "" {
		return ":3000"
	}
	return c.Health.Addr
}

func (c *Config) JournalConfig() journal.Config {
	busy, _ := ParseDurationField("journal.busy_timeout", c.Journal.BusyTimeout)
	return journal.Config{Driver: c.Journal.Driver, Path: c.Journal.Path, BusyTimeout: busy}
}

// Destination is the scheduler's delivery target; zero until configured.
func (c *Config) Destination() gateway.Destination {
	return gateway.Destination{ChatID: c.Telegram.ChatID, ThreadID: c.Telegram.ThreadID}
}

// IsOwner reports whether id may run administrative commands. An empty
// owner list means nobody can, which fails safe.
func (c *Config) IsOwner(id int64) bool {
	for _, o := range c.Telegram.OwnerUserIDs {
		if o == id {
			return true
		}
	}
	return false
}
