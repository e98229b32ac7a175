package telegram

import (
	"context"
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/delofix/core/metrics"
	"github.com/m3rciful/delofix/core/telegram/keyboard"
	"github.com/m3rciful/delofix/core/telegram/router"
)

// API is the part of *tele.Bot the responder needs.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// ToUpdate converts a telebot context into a router update. Updates the
// router has no use for (stickers, edits, joins) report false.
func ToUpdate(c tele.Context) (router.Update, bool) {
	u := router.Update{ID: c.Update().ID}
	if user := c.Sender(); user != nil {
		u.UserID = user.ID
		u.Username = user.Username
		u.FirstName = user.FirstName
	}
	if chat := c.Chat(); chat != nil {
		u.ChatID = chat.ID
	}
	if u.UserID == 0 {
		return u, false
	}

	if cb := c.Callback(); cb != nil {
		u.Kind = router.KindCallback
		u.Data = cb.Data
		return u, true
	}
	msg := c.Message()
	if msg == nil {
		return u, false
	}
	switch {
	case msg.Photo != nil && msg.Photo.FileID != "":
		u.Kind = router.KindPhoto
		u.PhotoID = msg.Photo.FileID
		u.Text = msg.Caption
	case msg.Text != "":
		u.Kind = router.KindText
		u.Text = msg.Text
	default:
		return u, false
	}
	if u.ChatID == 0 {
		u.ChatID = u.UserID
	}
	return u, true
}

// Responder renders router replies into the chat of one update.
type Responder struct {
	api    API
	chat   tele.ChatID
	source *tele.Message
	cb     *tele.Callback

	mu       sync.Mutex
	answered bool
}

// NewResponder binds a responder to the chat of c.
func NewResponder(api API, c tele.Context) *Responder {
	r := &Responder{api: api, cb: c.Callback()}
	if chat := c.Chat(); chat != nil {
		r.chat = tele.ChatID(chat.ID)
	} else if user := c.Sender(); user != nil {
		r.chat = tele.ChatID(user.ID)
	}
	if r.cb != nil {
		r.source = r.cb.Message
	}
	return r
}

// Send renders rep as an HTML message, or as a photo with caption.
func (r *Responder) Send(_ context.Context, rep router.Reply) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if m := keyboard.Markup(rep); m != nil {
		opts.ReplyMarkup = m
	}
	var what interface{} = rep.Text
	kind := "text"
	if rep.PhotoID != "" {
		what = &tele.Photo{File: tele.File{FileID: rep.PhotoID}, Caption: rep.Text}
		kind = "photo"
	}
	if _, err := r.api.Send(r.chat, what, opts); err != nil {
		metrics.MessagesSentTotal.WithLabelValues(kind, "fail").Inc()
		return fmt.Errorf("send %s: %w", kind, err)
	}
	metrics.MessagesSentTotal.WithLabelValues(kind, "ok").Inc()
	return nil
}

// Answer acknowledges the callback. It is a no-op for message updates.
func (r *Responder) Answer(_ context.Context, text string, alert bool) error {
	if r.cb == nil {
		return nil
	}
	r.mu.Lock()
	r.answered = true
	r.mu.Unlock()
	if err := r.api.Respond(r.cb, &tele.CallbackResponse{Text: text, ShowAlert: alert}); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// DeleteSource deletes the message the pressed button belongs to.
func (r *Responder) DeleteSource(context.Context) error {
	if r.source == nil {
		return nil
	}
	if err := r.api.Delete(r.source); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// finish stops the client-side spinner of callbacks nobody answered.
func (r *Responder) finish() {
	if r.cb == nil {
		return
	}
	r.mu.Lock()
	done := r.answered
	r.answered = true
	r.mu.Unlock()
	if !done {
		_ = r.api.Respond(r.cb, &tele.CallbackResponse{})
	}
}
