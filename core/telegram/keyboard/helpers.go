// Package keyboard converts transport-neutral replies into telebot markup.
package keyboard

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/delofix/core/telegram/router"
)

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a resized reply keyboard from rows of labels.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// InlineRows builds an inline keyboard. Callback data is sent verbatim, without
// telebot's unique-endpoint prefix, so the router sees the raw token.
func InlineRows(rows [][]router.Button) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			btn := tele.InlineButton{Text: b.Text}
			if b.URL != "" {
				btn.URL = b.URL
			} else {
				btn.Data = b.Data
			}
			r = append(r, btn)
		}
		if len(r) > 0 {
			inline = append(inline, r)
		}
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// Markup picks the markup for r; nil leaves the current keyboard untouched.
// Inline buttons take precedence over a reply keyboard.
func Markup(r router.Reply) *tele.ReplyMarkup {
	switch {
	case len(r.Inline) > 0:
		return InlineRows(r.Inline)
	case len(r.Keyboard) > 0:
		return ReplyButtons(r.Keyboard...)
	case r.RemoveKeyboard:
		return RemoveKeyboard()
	}
	return nil
}
