package tgui

import (
	"errors"
	"strings"
)

// MaxCallbackDataLen is Telegram's callback_data size limit in bytes.
const MaxCallbackDataLen = 64

var ErrCallbackDataTooLong = errors.New("tgui: callback_data too long")

// Data formats inline callback data as "action" or "action:payload".
func Data(action, payload string) string {
	action = strings.TrimSpace(action)
	if payload == "" {
		return action
	}
	return action + ":" + payload
}

// SplitData splits callback data produced by Data back into its parts.
func SplitData(data string) (action, payload string) {
	action, payload, _ = strings.Cut(strings.TrimSpace(data), ":")
	return action, payload
}
