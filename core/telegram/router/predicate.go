package router

import "strings"

// Predicate inspects an update's content.
type Predicate func(Update) bool

// IsText matches any text message.
func IsText(u Update) bool { return u.Kind == KindText }

// PlainText matches non-empty text that is not a slash command.
func PlainText(u Update) bool {
	return u.Kind == KindText && strings.TrimSpace(u.Text) != "" && !strings.HasPrefix(u.Text, "/")
}

// HasPhoto matches photo messages.
func HasPhoto(u Update) bool { return u.Kind == KindPhoto && u.PhotoID != "" }

// IsCallback matches any button press.
func IsCallback(u Update) bool { return u.Kind == KindCallback }

// Command matches "/name", with or without a bot mention or arguments.
func Command(name string) Predicate {
	want := "/" + strings.ToLower(strings.TrimPrefix(name, "/"))
	return func(u Update) bool { return u.Command() == want }
}

// TextEquals matches text equal to s.
func TextEquals(s string) Predicate {
	return func(u Update) bool { return u.Kind == KindText && u.Text == s }
}

// TextIn matches text equal to any of values.
func TextIn(values ...string) Predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(u Update) bool {
		if u.Kind != KindText {
			return false
		}
		_, ok := set[u.Text]
		return ok
	}
}

// TextPrefix matches text starting with prefix.
func TextPrefix(prefix string) Predicate {
	return func(u Update) bool { return u.Kind == KindText && strings.HasPrefix(u.Text, prefix) }
}

// Digits matches text made only of ASCII decimal digits.
func Digits(u Update) bool {
	if u.Kind != KindText || u.Text == "" {
		return false
	}
	for i := 0; i < len(u.Text); i++ {
		if u.Text[i] < '0' || u.Text[i] > '9' {
			return false
		}
	}
	return true
}

// CallbackEquals matches callback data equal to data.
func CallbackEquals(data string) Predicate {
	return func(u Update) bool { return u.Kind == KindCallback && u.Data == data }
}

// CallbackPrefix matches callback data starting with prefix.
func CallbackPrefix(prefix string) Predicate {
	return func(u Update) bool { return u.Kind == KindCallback && strings.HasPrefix(u.Data, prefix) }
}

// FromUser matches updates sent by id. A zero id never matches.
func FromUser(id int64) Predicate {
	return func(u Update) bool { return id != 0 && u.UserID == id }
}

// All matches when every predicate matches.
func All(ps ...Predicate) Predicate {
	return func(u Update) bool {
		for _, p := range ps {
			if p != nil && !p(u) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one predicate matches.
func Any(ps ...Predicate) Predicate {
	return func(u Update) bool {
		for _, p := range ps {
			if p != nil && p(u) {
				return true
			}
		}
		return false
	}
}
