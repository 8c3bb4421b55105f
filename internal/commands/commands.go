// Package commands dispatches the chat command surface: public queries and
// owner-only administration. It sits outside the scheduler core; malformed
// input is rejected here and never reaches it.
package commands

import (
	"context"
	"strconv"
	"strings"

	"turfbot/internal/config"
	"turfbot/internal/gateway"
	"turfbot/internal/render"
	"turfbot/internal/scheduler"
	"turfbot/pkg/logx"
	"turfbot/pkg/tgui"
)

type Router struct {
	gw    gateway.Gateway
	sched *scheduler.Service
	cfgm  *config.Manager
	log   logx.Logger
}

func NewRouter(gw gateway.Gateway, sched *scheduler.Service, cfgm *config.Manager, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{gw: gw, sched: sched, cfgm: cfgm, log: log}
}

// Run consumes gateway updates until ctx is done or the stream closes.
func (r *Router) Run(ctx context.Context) error {
	updates := r.gw.Updates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-updates:
			if !ok {
				return nil
			}
			r.handle(ctx, in)
		}
	}
}

// parseCommand splits "/remind@botname 2" into ("/remind", "2"). Non-command
// text yields ok=false.
func parseCommand(text string) (cmd, arg string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	cmd, arg, _ = strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(arg), true
}

func (r *Router) handle(ctx context.Context, in gateway.Incoming) {
	cmd, arg, ok := parseCommand(in.Text)
	if !ok {
		return
	}
	from := gateway.Destination{ChatID: in.ChatID, ThreadID: in.ThreadID}
	log := r.log.With(
		logx.String("cmd", cmd),
		logx.Int64("from", in.FromID),
		logx.Int64("chat", in.ChatID),
	)

	switch cmd {
	case "/help", "/start":
		r.reply(ctx, from, render.Help(r.sched.EventCount()), log)

	case "/next":
		next, ok := r.sched.NextOccurrence()
		if !ok {
			return
		}
		r.reply(ctx, from, render.Next(next.Event, next.At, next.Remaining), log)

	case "/status":
		rows := make([]render.StatusRow, 0, r.sched.EventCount())
		for _, up := range r.sched.Status() {
			rows = append(rows, render.StatusRow{Event: up.Event, Next: up.At, Remaining: up.Remaining})
		}
		r.reply(ctx, from, render.Status(rows), log)

	case "/here":
		if !r.requireOwner(ctx, in, from, log) {
			return
		}
		if err := r.cfgm.SetDestination(in.ChatID, in.ThreadID); err != nil {
			log.Error("persist destination failed", logx.Err(err))
			r.reply(ctx, from, tgui.Esc("❌ Não consegui salvar a configuração."), log)
			return
		}
		r.reply(ctx, from, tgui.Esc("✅ Avisos automáticos serão enviados neste chat."), log)

	case "/remind":
		if !r.requireOwner(ctx, in, from, log) {
			return
		}
		idx, ok := r.eventIndex(arg)
		if !ok {
			r.reply(ctx, from, render.Usage("/remind", r.sched.EventCount()), log)
			return
		}
		if err := r.sched.ManualRemind(ctx, idx, from); err != nil {
			log.Error("manual remind failed", logx.Err(err))
		}

	case "/callout":
		if !r.requireOwner(ctx, in, from, log) {
			return
		}
		idx, ok := r.eventIndex(arg)
		if !ok {
			r.reply(ctx, from, render.Usage("/callout", r.sched.EventCount()), log)
			return
		}
		if err := r.sched.ManualCallout(ctx, idx, from); err != nil {
			log.Error("manual callout failed", logx.Err(err))
		}
	}
}

func (r *Router) eventIndex(arg string) (int, bool) {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 1 || idx > r.sched.EventCount() {
		return 0, false
	}
	return idx, true
}

func (r *Router) requireOwner(ctx context.Context, in gateway.Incoming, from gateway.Destination, log logx.Logger) bool {
	if cfg := r.cfgm.Get(); cfg != nil && cfg.IsOwner(in.FromID) {
		return true
	}
	log.Warn("command denied")
	r.reply(ctx, from, tgui.Esc("⛔ Sem permissão."), log)
	return false
}

func (r *Router) reply(ctx context.Context, to gateway.Destination, body tgui.H, log logx.Logger) {
	if _, err := r.gw.Deliver(ctx, to, body, gateway.DeliverOptions{DisablePreview: true}); err != nil {
		log.Warn("reply failed", logx.Err(err))
	}
}
