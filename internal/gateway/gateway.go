// Package gateway abstracts the chat platform behind a small delivery and
// update surface so the scheduler and command layer never touch platform
// types directly.
package gateway

import (
	"context"

	"turfbot/pkg/tgui"
)

// Destination identifies a chat (plus optional forum topic) messages go to.
type Destination struct {
	ChatID   int64
	ThreadID int
}

// IsZero reports whether no destination has been configured yet.
func (d Destination) IsZero() bool { return d.ChatID == 0 }

// MessageRef identifies a delivered message for later edits and watches.
type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

// Toggle describes one tap on a reminder's confirmation button.
type Toggle struct {
	UserID int64
	Name   string
}

// Incoming is a plain text message received from the platform. Button taps
// are consumed by confirmation watches and never surface here.
type Incoming struct {
	MessageID    int
	ChatID       int64
	ThreadID     int
	FromID       int64
	FromUsername string
	Text         string
}

// DeliverOptions tunes a single delivery.
type DeliverOptions struct {
	// ConfirmButton attaches the confirmation toggle button.
	ConfirmButton bool
	// DisablePreview suppresses link previews.
	DisablePreview bool
}

// Gateway is the platform seam. Implementations must be safe for
// concurrent use.
type Gateway interface {
	// Deliver sends an HTML message and returns a reference to it.
	Deliver(ctx context.Context, to Destination, body tgui.H, opt DeliverOptions) (MessageRef, error)

	// WatchConfirmations routes confirmation-button taps on ref to onToggle
	// until the returned stop func is called. onToggle returns the short
	// acknowledgement shown to the tapping user. At most one watch per
	// message; a second registration replaces the first.
	WatchConfirmations(ref MessageRef, onToggle func(Toggle) string) (stop func())

	// Updates yields incoming text messages. The channel is closed on Stop.
	Updates() <-chan Incoming
}
