package router

import (
	"context"

	"github.com/m3rciful/delofix/core/telegram/state"
)

// Button is an inline button: either a URL link or a callback token.
type Button struct {
	Text string
	URL  string
	Data string
}

// Reply is an outbound render.
type Reply struct {
	Text string
	// PhotoID sends a photo with Text as caption.
	PhotoID string
	// Inline attaches inline buttons, one slice per row.
	Inline [][]Button
	// Keyboard replaces the reply keyboard, one slice per row.
	Keyboard [][]string
	// RemoveKeyboard hides the current reply keyboard.
	RemoveKeyboard bool
}

// Text builds a plain text reply.
func Text(s string) Reply { return Reply{Text: s} }

// Responder renders replies back to the chat an update came from.
type Responder interface {
	Send(ctx context.Context, r Reply) error
	// Answer acknowledges a callback query, optionally as an alert popup.
	Answer(ctx context.Context, text string, alert bool) error
	// DeleteSource removes the message a callback button belongs to.
	DeleteSource(ctx context.Context) error
}

// Request is what a handler sees: the update, the user's mutable session and
// the responder. Session changes are persisted after the handler returns.
type Request struct {
	Update  Update
	Session *state.Session
	Out     Responder
}

// Reply sends r to the originating chat.
func (r *Request) Reply(ctx context.Context, reply Reply) error {
	return r.Out.Send(ctx, reply)
}

// Handler processes a routed update.
type Handler func(ctx context.Context, req *Request) error
