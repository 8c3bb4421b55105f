// Package tgui provides small Telegram UI helpers:
//   - Callback data helpers (action:payload)
//   - Safe-by-default HTML fragments for ParseMode="HTML"
package tgui
