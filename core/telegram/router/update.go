package router

import "strings"

// Kind classifies inbound updates.
type Kind string

// Update kinds.
const (
	KindText     Kind = "text"
	KindPhoto    Kind = "photo"
	KindCallback Kind = "callback"
)

// Update is a transport-neutral inbound event.
type Update struct {
	ID        int
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
	Kind      Kind
	// Text holds the message text or the photo caption.
	Text string
	// PhotoID references the largest photo size of a photo message.
	PhotoID string
	// Data is the opaque callback token of a button press.
	Data string
}

// Command returns the leading "/command" of a text update without the bot
// mention and arguments, or "" when the text is not a command.
func (u Update) Command() string {
	if u.Kind != KindText || !strings.HasPrefix(u.Text, "/") {
		return ""
	}
	head, _, _ := strings.Cut(strings.TrimSpace(u.Text), " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head)
}

// CallbackArg returns the part of the callback data after prefix.
func (u Update) CallbackArg(prefix string) (string, bool) {
	if u.Kind != KindCallback || !strings.HasPrefix(u.Data, prefix) {
		return "", false
	}
	return strings.TrimPrefix(u.Data, prefix), true
}
