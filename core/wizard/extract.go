package wizard

import (
	"strconv"

	"github.com/m3rciful/delofix/core/telegram/router"
)

// Extractor pulls a field value out of an update.
type Extractor func(router.Update) (any, bool)

// Text extracts non-empty message text.
func Text(u router.Update) (any, bool) {
	if u.Kind != router.KindText || u.Text == "" {
		return nil, false
	}
	return u.Text, true
}

// Photo extracts the photo file reference.
func Photo(u router.Update) (any, bool) {
	if u.Kind != router.KindPhoto || u.PhotoID == "" {
		return nil, false
	}
	return u.PhotoID, true
}

// Absent stores an explicit nil, e.g. for a skipped optional step.
func Absent(router.Update) (any, bool) { return nil, true }

// Number coerces an all-digits text to int64. Values that overflow do not match.
func Number(u router.Update) (any, bool) {
	if !router.Digits(u) {
		return nil, false
	}
	n, err := strconv.ParseInt(u.Text, 10, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}
