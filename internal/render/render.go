// Package render builds the Telegram HTML bodies for reminder stages and
// command replies. All user-facing copy lives here.
package render

import (
	"fmt"
	"time"

	"turfbot/internal/event"
	"turfbot/internal/tracker"
	"turfbot/pkg/tgui"
)

const (
	emojiCity  = "🏙️"
	emojiBell  = "🔔"
	emojiWarn  = "⚠️"
	emojiAlert = "🚨"
	emojiSword = "⚔️"
	emojiClock = "🕒"
	emojiHour  = "⏳"
	emojiFire  = "🔥"
)

// Remaining formats a duration as "1h 30m 00s".
func Remaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

func fmtDateTime(at time.Time) string { return at.Format("02/01/2006 15:04") }

func header(ev event.Event) tgui.H {
	return tgui.JoinH(" ",
		tgui.Raw(emojiCity),
		tgui.B(ev.Name),
		tgui.Raw("("+tgui.Esc(ev.Time).String()+", ID "+tgui.Code(ev.ExternalID).String()+")"),
	)
}

func mentionList(confirmed []tracker.Participant, empty string) tgui.H {
	if len(confirmed) == 0 {
		return tgui.I(empty)
	}
	parts := make([]tgui.H, 0, len(confirmed))
	for _, p := range confirmed {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("user %d", p.ID)
		}
		parts = append(parts, tgui.Mention(tgui.TruncRunes(name, 32), p.ID))
	}
	return tgui.JoinH(" ", parts...)
}

// Opening is the first reminder of a cycle; it asks for confirmations.
func Opening(ev event.Event, start time.Time, remaining time.Duration) tgui.H {
	return tgui.JoinH("\n",
		header(ev),
		tgui.JoinH(" ", tgui.Raw(emojiBell), tgui.B("Abre em "+Remaining(remaining)), tgui.Esc("("+fmtDateTime(start)+")")),
		tgui.Esc("Se você vai participar, toque no "+emojiFire+" pra gente se organizar."),
	)
}

// Progress is an intermediate reminder listing who confirmed so far.
func Progress(ev event.Event, remaining time.Duration, confirmed []tracker.Participant, urgent bool) tgui.H {
	lead := tgui.JoinH(" ", tgui.Raw(emojiWarn), tgui.B("Faltam "+Remaining(remaining)))
	if urgent {
		lead = tgui.JoinH(" ", tgui.Raw(emojiAlert), tgui.B("Últimos "+Remaining(remaining)), tgui.Esc("- já vai entrando!"))
	}
	return tgui.JoinH("\n",
		header(ev),
		lead,
		mentionList(confirmed, "(ninguém confirmou ainda)"),
	)
}

// Callout is the zero-offset message sent when the event opens.
func Callout(ev event.Event, confirmed []tracker.Participant) tgui.H {
	return tgui.JoinH("\n",
		tgui.JoinH(" ", tgui.Raw(emojiSword), tgui.B(ev.Name+" - DISPONÍVEL AGORA")),
		mentionList(confirmed, "(ninguém com "+emojiFire+" no aviso)"),
	)
}

// ManualOpening is the on-demand variant of Opening.
func ManualOpening(ev event.Event, start time.Time, remaining time.Duration) tgui.H {
	return tgui.JoinH("\n",
		header(ev),
		tgui.JoinH(" ", tgui.Raw(emojiBell), tgui.B("Abre em "+Remaining(remaining)), tgui.Esc("("+fmtDateTime(start)+")")),
		tgui.Esc("Se for, toque no "+emojiFire+" pra contar você."),
		tgui.I("Aviso manual"),
	)
}

// StatusRow is one event's line in the status overview.
type StatusRow struct {
	Event     event.Event
	Next      time.Time
	Remaining time.Duration
}

func Status(rows []StatusRow) tgui.H {
	parts := make([]tgui.H, 0, len(rows)+1)
	parts = append(parts, tgui.B("📊 Status dos territórios"))
	for _, r := range rows {
		parts = append(parts, tgui.JoinH("\n",
			tgui.JoinH(" ", tgui.Raw(emojiClock), tgui.B(r.Event.Time), tgui.Esc("- "+r.Event.Name), tgui.Code("["+r.Event.ExternalID+"]")),
			tgui.JoinH(" ", tgui.Raw(emojiHour), tgui.Esc("Próximo:"), tgui.B(Remaining(r.Remaining)), tgui.Esc("("+fmtDateTime(r.Next)+")")),
		))
	}
	return tgui.JoinH("\n\n", parts...)
}

func Next(ev event.Event, start time.Time, remaining time.Duration) tgui.H {
	return tgui.JoinH("\n",
		tgui.B("⏭️ Próximo território"),
		tgui.JoinH(" ", tgui.Raw(emojiCity), tgui.B(ev.Name)),
		tgui.JoinH(" ", tgui.Raw(emojiClock), tgui.B(ev.Time), tgui.Esc("- "+fmtDateTime(start))),
		tgui.JoinH(" ", tgui.Raw(emojiHour), tgui.Esc("Abre em"), tgui.B(Remaining(remaining))),
	)
}

func Help(total int) tgui.H {
	rng := fmt.Sprintf("<1-%d>", total)
	return tgui.JoinH("\n",
		tgui.B("🧭 Ajuda de comandos"),
		tgui.Esc("Tudo que você pode usar com o bot:"),
		tgui.Raw(""),
		tgui.JoinH(" ", tgui.Code("/here"), tgui.Esc("- define este chat para os avisos automáticos (somente admins).")),
		tgui.JoinH(" ", tgui.Code("/help"), tgui.Esc("- mostra este painel de ajuda.")),
		tgui.JoinH(" ", tgui.Code("/next"), tgui.Esc("- mostra o próximo território e quanto falta.")),
		tgui.JoinH(" ", tgui.Code("/status"), tgui.Esc("- lista todos com tempo restante e horário exato.")),
		tgui.JoinH(" ", tgui.Code("/remind "+rng), tgui.Esc("- envia aviso manual (com "+emojiFire+" pra confirmar presença).")),
		tgui.JoinH(" ", tgui.Code("/callout "+rng), tgui.Esc("- envia ENTREM AGORA mencionando quem confirmou.")),
	)
}

// Started is the boot notice posted to the configured destination.
func Started(zone string) tgui.H {
	return tgui.Esc("🔔 Bot iniciado. Os lembretes de territórios estão ativos em " + zone + ".")
}

// Usage is the reply for a malformed manual command.
func Usage(cmd string, total int) tgui.H {
	return tgui.JoinH(" ",
		tgui.Esc("Uso:"),
		tgui.Code(fmt.Sprintf("%s <1-%d>", cmd, total)),
	)
}
