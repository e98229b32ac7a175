package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/delofix/bot/model"
)

func ptr(s string) *string { return &s }

func TestValidateNewAd(t *testing.T) {
	cases := []struct {
		name string
		dto  NewAd
		ok   bool
	}{
		{"no button", NewAd{Text: "sale", TargetViews: 100}, true},
		{"full button", NewAd{Text: "sale", ButtonText: ptr("Book now"), ButtonURL: ptr("https://example.com"), TargetViews: 100}, true},
		{"zero views", NewAd{Text: "sale"}, true},
		{"missing text", NewAd{TargetViews: 1}, false},
		{"url without text", NewAd{Text: "sale", ButtonURL: ptr("https://example.com")}, false},
		{"text without url", NewAd{Text: "sale", ButtonText: ptr("Go")}, false},
		{"bad url", NewAd{Text: "sale", ButtonText: ptr("Go"), ButtonURL: ptr("ftp://x")}, false},
		{"negative views", NewAd{Text: "sale", TargetViews: -1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.dto)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrInvalid)
		})
	}
}

func TestValidateNewTask(t *testing.T) {
	assert.NoError(t, Validate(NewTask{OwnerID: 1, Description: "leaky tap", Location: "Midtown"}))

	err := Validate(NewTask{OwnerID: 1, Location: "Midtown"})
	require.ErrorIs(t, err, model.ErrInvalid)
	assert.Contains(t, err.Error(), "description is required")
}
