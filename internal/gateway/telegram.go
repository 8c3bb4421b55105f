package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"turfbot/internal/runtime/supervisor"
	"turfbot/pkg/logx"
	"turfbot/pkg/tgui"
)

// confirmAction is the callback data action of the confirmation button.
const confirmAction = "rsvp"

// telegramTextLimit keeps a margin under Telegram's 4096-char message cap.
const telegramTextLimit = 4000

type Config struct {
	Token       string
	PollTimeout time.Duration
	// RatePerSec limits outgoing sends; 0 means 1/s.
	RatePerSec float64
	// UpdateBuffer is the incoming text queue size; 0 means 64.
	UpdateBuffer int
}

type watchKey struct {
	chatID    int64
	messageID int
}

// Telegram implements Gateway over a telebot long-poll bot.
type Telegram struct {
	cfg Config
	log logx.Logger

	bot     *tele.Bot
	limiter *rate.Limiter

	updates chan Incoming
	dropped uint64

	mu      sync.Mutex
	running bool
	sup     *supervisor.Supervisor
	watches map[watchKey]func(Toggle) string
}

func NewTelegram(cfg Config, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	buf := cfg.UpdateBuffer
	if buf <= 0 {
		buf = 64
	}
	g := &Telegram{
		cfg:     cfg,
		log:     log,
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(perSec), 3),
		updates: make(chan Incoming, buf),
		watches: map[watchKey]func(Toggle) string{},
	}
	g.registerHandlers()
	return g, nil
}

func (g *Telegram) registerHandlers() {
	g.bot.Handle(tele.OnText, func(c tele.Context) error {
		m := c.Message()
		if m == nil || m.Sender == nil {
			return nil
		}
		in := Incoming{
			MessageID:    m.ID,
			ChatID:       m.Chat.ID,
			ThreadID:     m.ThreadID,
			FromID:       m.Sender.ID,
			FromUsername: m.Sender.Username,
			Text:         m.Text,
		}
		select {
		case g.updates <- in:
		default:
			atomic.AddUint64(&g.dropped, 1)
		}
		return nil
	})

	g.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		m := c.Message()
		if cb == nil || m == nil || cb.Sender == nil {
			return nil
		}
		action, _ := tgui.SplitData(cb.Data)
		if action != confirmAction {
			return g.bot.Respond(cb, &tele.CallbackResponse{})
		}

		g.mu.Lock()
		onToggle := g.watches[watchKey{chatID: m.Chat.ID, messageID: m.ID}]
		g.mu.Unlock()

		// Taps after the watch closed are acknowledged silently.
		if onToggle == nil {
			return g.bot.Respond(cb, &tele.CallbackResponse{})
		}

		name := strings.TrimSpace(cb.Sender.FirstName + " " + cb.Sender.LastName)
		if name == "" {
			name = cb.Sender.Username
		}
		ack := onToggle(Toggle{UserID: cb.Sender.ID, Name: name})
		return g.bot.Respond(cb, &tele.CallbackResponse{Text: ack})
	})
}

// Start launches the long-poll loop under a supervisor. The loop restarts
// with backoff if telebot's poller exits while the context is alive.
func (g *Telegram) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil
	}
	g.running = true
	g.sup = supervisor.New(ctx,
		supervisor.WithLogger(g.log.With(logx.String("comp", "gateway.telegram"))),
		supervisor.WithCancelOnError(false),
	)
	sup := g.sup
	g.mu.Unlock()

	sup.Go0("telebot.stop_on_cancel", func(c context.Context) {
		<-c.Done()
		g.bot.Stop()
	})

	sup.GoRestart("telebot.poll", func(c context.Context) error {
		g.log.Info("polling started")
		g.bot.Start()
		g.log.Info("polling stopped")
		return nil
	},
		supervisor.WithRestartBackoff(500*time.Millisecond, 10*time.Second),
		supervisor.WithStopOnCleanExit(false),
	)

	sup.Go0("updates.drop_report", func(c context.Context) {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-c.Done():
				return
			case <-ticker.C:
				if n := atomic.SwapUint64(&g.dropped, 0); n > 0 {
					g.log.Warn("incoming messages dropped", logx.Int64("count", int64(n)))
				}
			}
		}
	})

	return nil
}

// Stop cancels polling and waits for internal goroutines, bounded by ctx.
func (g *Telegram) Stop(ctx context.Context) error {
	g.mu.Lock()
	sup := g.sup
	g.sup = nil
	wasRunning := g.running
	g.running = false
	g.mu.Unlock()

	if !wasRunning {
		return nil
	}
	sup.Cancel()
	go g.bot.Stop()

	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	wctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	if err := sup.Wait(wctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		g.log.Warn("gateway stop error", logx.Err(err))
	}
	close(g.updates)
	return nil
}

func (g *Telegram) Updates() <-chan Incoming { return g.updates }

func (g *Telegram) Deliver(ctx context.Context, to Destination, body tgui.H, opt DeliverOptions) (MessageRef, error) {
	if to.IsZero() {
		return MessageRef{}, errors.New("gateway: no destination")
	}

	chunks := splitText(body.String(), telegramTextLimit)
	chat := &tele.Chat{ID: to.ChatID}

	var first MessageRef
	for i, chunk := range chunks {
		if err := g.limiter.Wait(ctx); err != nil {
			return first, err
		}

		sendOpt := &tele.SendOptions{
			ParseMode:             tele.ModeHTML,
			DisableWebPagePreview: opt.DisablePreview,
			ThreadID:              to.ThreadID,
		}
		if i == 0 && opt.ConfirmButton {
			// Raw callback_data; markup.Data would encode a unique prefix
			// and bypass the OnCallback handler.
			markup := &tele.ReplyMarkup{}
			btn := tele.Btn{Text: "🔥", Data: tgui.Data(confirmAction, "")}
			markup.Inline(markup.Row(btn))
			sendOpt.ReplyMarkup = markup
		}

		msg, err := g.bot.Send(chat, chunk, sendOpt)
		if err != nil {
			if first.MessageID != 0 {
				return first, err
			}
			return MessageRef{}, err
		}
		if i == 0 {
			first = MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: msg.ID}
		}
	}
	return first, nil
}

func (g *Telegram) WatchConfirmations(ref MessageRef, onToggle func(Toggle) string) (stop func()) {
	key := watchKey{chatID: ref.ChatID, messageID: ref.MessageID}
	g.mu.Lock()
	g.watches[key] = onToggle
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.watches, key)
			g.mu.Unlock()
		})
	}
}

// splitText splits a long HTML message on newline boundaries, keeping each
// chunk under limit runes. Best-effort: it avoids cutting inside a tag.
func splitText(s string, limit int) []string {
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}
	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}
		if end < len(rs) {
			for i := end - 1; i > start+limit/3; i-- {
				if rs[i] == '\n' {
					end = i + 1
					break
				}
			}
			lastOpen, lastClose := -1, -1
			for i := start; i < end; i++ {
				switch rs[i] {
				case '<':
					lastOpen = i
				case '>':
					lastClose = i
				}
			}
			if lastOpen > lastClose && lastOpen > start+1 {
				end = lastOpen
			}
		}
		chunk := strings.TrimRight(string(rs[start:end]), "\n")
		if chunk != "" {
			out = append(out, chunk)
		}
		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}
