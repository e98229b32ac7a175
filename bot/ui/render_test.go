package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/delofix/bot/model"
)

func TestTaskCard(t *testing.T) {
	photo := "AgAD"
	r := TaskCard(model.ClientTask{ID: 7, Description: "<script>", Location: "Midtown", PhotoID: &photo})

	assert.Equal(t, "<b>Задача #7</b>\n\n&lt;script&gt;\n\n📍 Midtown", r.Text)
	assert.Equal(t, "AgAD", r.PhotoID)
	require.Len(t, r.Inline, 2)
	assert.Equal(t, CbNextTask, r.Inline[0][0].Data)
	assert.Equal(t, "make_offer:7", r.Inline[1][0].Data)
}

func TestAdReplyButtonNeedsTextAndURL(t *testing.T) {
	text, url := "Book now", "https://example.com"
	withButton := AdReply(model.Advertisement{Text: "sale", ButtonText: &text, ButtonURL: &url})
	require.Len(t, withButton.Inline, 1)
	assert.Equal(t, url, withButton.Inline[0][0].URL)

	noURL := AdReply(model.Advertisement{Text: "sale", ButtonText: &text})
	assert.Empty(t, noURL.Inline)
	assert.Empty(t, noURL.PhotoID)
}

func TestTaskListAndWelcome(t *testing.T) {
	assert.Equal(t, MsgNoTasks, TaskList(nil))
	out := TaskList([]model.ClientTask{{ID: 3, Description: "a & b", Location: "x", Status: model.TaskOpen, CreatedAt: time.Now()}})
	assert.Contains(t, out, "<b>#3</b> [open] a &amp; b")

	assert.Contains(t, Welcome("<Ann>"), "Привет, &lt;Ann&gt;!")
}
