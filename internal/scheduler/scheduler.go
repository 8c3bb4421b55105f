// Package scheduler arms the staged reminder timers for every tracked
// event, collects confirmations during the opening stage, and re-arms
// itself daily.
//
// One Service owns the tracker, the journal and every outstanding timer.
// Stage firings and confirmation toggles race on the same cycle key, so all
// shared state behind the Service is mutex-guarded.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"turfbot/internal/clock"
	"turfbot/internal/event"
	"turfbot/internal/gateway"
	"turfbot/internal/health"
	"turfbot/internal/journal"
	"turfbot/internal/occurrence"
	"turfbot/internal/render"
	"turfbot/internal/tracker"
	"turfbot/pkg/logx"
	"turfbot/pkg/tgui"
)

const (
	ackConfirmed = "Presença confirmada 🔥"
	ackRetracted = "Confirmação removida"
)

type Config struct {
	Events []event.Event
	// Offsets are the reminder stages as time-before-occurrence. A zero
	// offset is the "open now" callout.
	Offsets []time.Duration
	// CleanupAfter is how long after the zero stage a cycle's
	// confirmations are kept before being retired.
	CleanupAfter time.Duration
}

// Destination resolves the configured delivery target. A zero value means
// "not configured yet": stages log, mark and continue without delivering.
type Destination func() gateway.Destination

// Upcoming is one event's next occurrence, for status queries.
type Upcoming struct {
	Event     event.Event
	At        time.Time
	Remaining time.Duration
}

type Service struct {
	cfg     Config
	log     logx.Logger
	clk     clock.Clock
	calc    *occurrence.Calculator
	track   *tracker.Tracker
	journal journal.Store
	gw      gateway.Gateway
	dest    Destination
	metrics *health.Metrics

	offsets []time.Duration // descending, deduplicated
	minPos  time.Duration   // smallest positive offset; 0 if none
	maxOff  time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	nextID  int64
	timers  map[int64]clock.Timer
	watches map[int64]func()
}

func New(cfg Config, clk clock.Clock, store journal.Store, gw gateway.Gateway, dest Destination, metrics *health.Metrics, log logx.Logger) (*Service, error) {
	if err := event.Validate(cfg.Events); err != nil {
		return nil, err
	}
	if len(cfg.Offsets) == 0 {
		return nil, fmt.Errorf("no reminder offsets configured")
	}
	offsets := append([]time.Duration(nil), cfg.Offsets...)
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] > offsets[j] })
	dedup := offsets[:1]
	for _, off := range offsets[1:] {
		if off != dedup[len(dedup)-1] {
			dedup = append(dedup, off)
		}
	}
	offsets = dedup
	if offsets[len(offsets)-1] < 0 {
		return nil, fmt.Errorf("negative reminder offset %s", offsets[len(offsets)-1])
	}
	var minPos time.Duration
	for _, off := range offsets {
		if off > 0 {
			minPos = off
		}
	}
	if cfg.CleanupAfter <= 0 {
		cfg.CleanupAfter = 120 * time.Minute
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	return &Service{
		cfg:     cfg,
		log:     log,
		clk:     clk,
		calc:    occurrence.NewCalculator(clk),
		track:   tracker.New(),
		journal: store,
		gw:      gw,
		dest:    dest,
		metrics: metrics,
		offsets: offsets,
		minPos:  minPos,
		maxOff:  offsets[0],
		timers:  map[int64]clock.Timer{},
		watches: map[int64]func(){},
	}, nil
}

// Tracker exposes the confirmation store for read-only collaborators
// (metrics gauges, manual callouts are internal).
func (s *Service) Tracker() *tracker.Tracker { return s.track }

// Start arms the first cycle for every event. It returns immediately; all
// further work happens on timer callbacks.
func (s *Service) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	for _, ev := range s.cfg.Events {
		s.armCycle(ev)
	}
}

// Stop cancels every outstanding timer and confirmation watch. Stages that
// already fired are unaffected.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	timers := s.timers
	watches := s.watches
	s.timers = map[int64]clock.Timer{}
	s.watches = map[int64]func(){}
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	for _, t := range timers {
		t.Stop()
	}
	for _, stop := range watches {
		stop()
	}
	s.log.Info("scheduler stopped",
		logx.Int("timers_cancelled", len(timers)),
		logx.Int("watches_closed", len(watches)))
}

// after arms fn on the service clock and tracks the timer so Stop can
// cancel it. Fired or cancelled timers deregister themselves.
func (s *Service) after(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	id := s.nextID
	s.nextID++
	s.timers[id] = s.clk.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, id)
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			fn()
		}
	})
}

// armCycle computes the event's next occurrence, arms one timer per stage
// offset, and schedules its own next invocation. It is the recurring task
// that keeps the daily cycle alive with no external trigger.
func (s *Service) armCycle(ev event.Event) {
	start := s.calc.Next(ev.Time)
	key := occurrence.CycleKey(start, ev.Time)
	log := s.log.With(logx.String("event", ev.Name), logx.String("cycle", key))
	log.Info("cycle armed", logx.Time("occurrence", start))

	for _, off := range s.offsets {
		off := off
		sent, err := s.journal.WasSent(s.ctx, key, off)
		if err != nil {
			log.Warn("journal read failed", logx.Duration("offset", off), logx.Err(err))
		}
		if sent {
			log.Debug("stage already sent, not arming", logx.Duration("offset", off))
			continue
		}
		s.after(s.calc.Until(start.Add(-off)), func() {
			s.fireStage(ev, start, key, off)
		})
	}

	// Re-arm when the next day's first stage is due. The occurrence
	// calculator still returns tomorrow's instant at that moment, so every
	// stage of the new cycle is armed on time.
	s.after(s.calc.Until(start.Add(24*time.Hour-s.maxOff)), func() {
		s.armCycle(ev)
	})
}

// fireStage runs one stage of one cycle. Nothing here may panic the timer
// goroutine or prevent later stages: failures are logged and the cycle
// proceeds.
func (s *Service) fireStage(ev event.Event, start time.Time, key string, off time.Duration) {
	log := s.log.With(
		logx.String("event", ev.Name),
		logx.String("cycle", key),
		logx.Duration("offset", off),
	)

	sent, err := s.journal.WasSent(s.ctx, key, off)
	if err != nil {
		log.Warn("journal read failed", logx.Err(err))
	}
	if sent {
		log.Debug("stage already sent, skipping")
		return
	}

	s.track.Ensure(key)

	opening := off == s.maxOff && off > 0
	var body tgui.H
	switch {
	case opening:
		body = render.Opening(ev, start, off)
	case off == 0:
		body = render.Callout(ev, s.track.Confirmed(key))
	default:
		body = render.Progress(ev, off, s.track.Confirmed(key), off == s.minPos)
	}

	dest := s.dest()
	if dest.IsZero() {
		log.Warn("no destination configured, stage not delivered")
		if s.metrics != nil {
			s.metrics.StagesSkipped.Inc()
		}
	} else {
		ref, err := s.gw.Deliver(s.ctx, dest, body, gateway.DeliverOptions{ConfirmButton: opening})
		switch {
		case err != nil:
			log.Error("stage delivery failed", logx.Err(err))
			if s.metrics != nil {
				s.metrics.DeliveryFailures.Inc()
			}
		default:
			log.Info("stage delivered", logx.Int("message_id", ref.MessageID))
			if s.metrics != nil {
				s.metrics.StagesDelivered.WithLabelValues(ev.Name).Inc()
			}
			if opening {
				s.openWatch(key, ref, start)
			}
		}
	}

	// The marker is recorded after the delivery attempt either way; a
	// skipped or failed stage is not re-fired later.
	if err := s.journal.MarkSent(s.ctx, key, off); err != nil {
		log.Warn("journal write failed", logx.Err(err))
	}

	if off == 0 {
		s.after(s.cfg.CleanupAfter, func() { s.retire(key) })
	}
}

// openWatch routes confirmation taps on ref into the tracker until the
// window closes at occurrence minus the smallest positive offset.
func (s *Service) openWatch(key string, ref gateway.MessageRef, start time.Time) {
	stop := s.gw.WatchConfirmations(ref, func(t gateway.Toggle) string {
		return s.toggle(key, t)
	})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		stop()
		return
	}
	id := s.nextID
	s.nextID++
	s.watches[id] = stop
	s.mu.Unlock()

	s.after(s.calc.Until(start.Add(-s.minPos)), func() {
		s.mu.Lock()
		delete(s.watches, id)
		s.mu.Unlock()
		stop()
		s.log.Debug("confirmation window closed", logx.String("cycle", key))
	})
}

// toggle flips one participant's confirmation and returns the short
// acknowledgement shown to them.
func (s *Service) toggle(key string, t gateway.Toggle) string {
	if s.metrics != nil {
		s.metrics.TogglesSeen.Inc()
	}
	p := tracker.Participant{ID: t.UserID, Name: t.Name}
	if s.track.Has(key, p) {
		s.track.Retract(key, p)
		s.log.Info("confirmation retracted", logx.String("cycle", key), logx.Int64("user", p.ID))
		return ackRetracted
	}
	s.track.Confirm(key, p)
	s.log.Info("confirmation recorded", logx.String("cycle", key), logx.Int64("user", p.ID))
	return ackConfirmed
}

func (s *Service) retire(key string) {
	s.track.Retire(key)
	if s.metrics != nil {
		s.metrics.CyclesRetired.Inc()
	}
	s.log.Info("cycle retired", logx.String("cycle", key))
}

// Status returns every event's next occurrence, soonest first.
func (s *Service) Status() []Upcoming {
	out := make([]Upcoming, 0, len(s.cfg.Events))
	for _, ev := range s.cfg.Events {
		at := s.calc.Next(ev.Time)
		out = append(out, Upcoming{Event: ev, At: at, Remaining: s.calc.Until(at)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// NextOccurrence returns the soonest upcoming occurrence across all events.
func (s *Service) NextOccurrence() (Upcoming, bool) {
	all := s.Status()
	if len(all) == 0 {
		return Upcoming{}, false
	}
	return all[0], true
}

// ManualRemind delivers an out-of-band call-for-confirmation for the
// 1-based event index to dest, with a confirmation watch if the regular
// window is still open. It never touches the journal.
func (s *Service) ManualRemind(ctx context.Context, idx int, dest gateway.Destination) error {
	ev, err := s.eventAt(idx)
	if err != nil {
		return err
	}
	start := s.calc.Next(ev.Time)
	key := occurrence.CycleKey(start, ev.Time)
	s.track.Ensure(key)

	ref, err := s.gw.Deliver(ctx, dest, render.ManualOpening(ev, start, s.calc.Until(start)), gateway.DeliverOptions{ConfirmButton: true})
	if err != nil {
		return err
	}
	if windowEnd := start.Add(-s.minPos); windowEnd.After(s.clk.Now()) {
		s.openWatch(key, ref, start)
	}
	return nil
}

// ManualCallout delivers the "open now" message for the 1-based event
// index, mentioning the open cycle's confirmed participants. The previous
// occurrence's cycle is used while it still holds confirmations (the event
// just opened); otherwise the upcoming one.
func (s *Service) ManualCallout(ctx context.Context, idx int, dest gateway.Destination) error {
	ev, err := s.eventAt(idx)
	if err != nil {
		return err
	}
	key := occurrence.CycleKey(s.calc.Next(ev.Time), ev.Time)
	prevKey := occurrence.CycleKey(s.calc.Previous(ev.Time), ev.Time)
	confirmed := s.track.Confirmed(prevKey)
	if len(confirmed) == 0 {
		confirmed = s.track.Confirmed(key)
	}

	_, err = s.gw.Deliver(ctx, dest, render.Callout(ev, confirmed), gateway.DeliverOptions{})
	return err
}

// EventCount is the number of configured events (command layer bounds
// manual indices with it).
func (s *Service) EventCount() int { return len(s.cfg.Events) }

func (s *Service) eventAt(idx int) (event.Event, error) {
	if idx < 1 || idx > len(s.cfg.Events) {
		return event.Event{}, fmt.Errorf("event index %d out of range 1..%d", idx, len(s.cfg.Events))
	}
	return s.cfg.Events[idx-1], nil
}
