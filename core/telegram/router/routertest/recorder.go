// Package routertest provides a recording Responder for handler tests.
package routertest

import (
	"context"
	"sync"

	"github.com/m3rciful/delofix/core/telegram/router"
)

// Answer is a recorded callback acknowledgement.
type Answer struct {
	Text  string
	Alert bool
}

// Recorder captures everything a handler renders.
type Recorder struct {
	mu      sync.Mutex
	replies []router.Reply
	answers []Answer
	deletes int

	// SendErr, when set, is returned by Send after recording.
	SendErr error
}

// New returns an empty Recorder.
func New() *Recorder { return &Recorder{} }

func (r *Recorder) Send(_ context.Context, reply router.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
	return r.SendErr
}

func (r *Recorder) Answer(_ context.Context, text string, alert bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, Answer{Text: text, Alert: alert})
	return nil
}

func (r *Recorder) DeleteSource(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	return nil
}

// Replies returns a copy of the sent replies.
func (r *Recorder) Replies() []router.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]router.Reply(nil), r.replies...)
}

// Texts returns the text of every sent reply.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.replies))
	for i, rep := range r.replies {
		out[i] = rep.Text
	}
	return out
}

// Last returns the most recent reply.
func (r *Recorder) Last() (router.Reply, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return router.Reply{}, false
	}
	return r.replies[len(r.replies)-1], true
}

// Answers returns recorded callback acknowledgements.
func (r *Recorder) Answers() []Answer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Answer(nil), r.answers...)
}

// Deletes returns how many source messages were deleted.
func (r *Recorder) Deletes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deletes
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies, r.answers, r.deletes = nil, nil, 0
}

// Text builds a text update.
func Text(userID int64, text string) router.Update {
	return router.Update{UserID: userID, ChatID: userID, Kind: router.KindText, Text: text}
}

// Photo builds a photo update.
func Photo(userID int64, fileID string) router.Update {
	return router.Update{UserID: userID, ChatID: userID, Kind: router.KindPhoto, PhotoID: fileID}
}

// Callback builds a button press update.
func Callback(userID int64, data string) router.Update {
	return router.Update{UserID: userID, ChatID: userID, Kind: router.KindCallback, Data: data}
}
