package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/delofix/core/telegram/router"
)

func TestMarkupInlineKeepsRawData(t *testing.T) {
	m := Markup(router.Reply{Inline: [][]router.Button{
		{{Text: "➡️ Следующая", Data: "next_task"}, {Text: "✉️ Откликнуться", Data: "make_offer:7"}},
		{},
		{{Text: "Open", URL: "https://example.com"}},
	}})
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "next_task", m.InlineKeyboard[0][0].Data)
	assert.Empty(t, m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "make_offer:7", m.InlineKeyboard[0][1].Data)
	assert.Equal(t, "https://example.com", m.InlineKeyboard[1][0].URL)
	assert.Empty(t, m.InlineKeyboard[1][0].Data)
}

func TestMarkupReplyKeyboard(t *testing.T) {
	m := Markup(router.Reply{Keyboard: [][]string{{"👤 Я Заказчик", "🛠️ Я Мастер"}}})
	require.NotNil(t, m)
	assert.True(t, m.ResizeKeyboard)
	require.Len(t, m.ReplyKeyboard, 1)
	assert.Equal(t, "🛠️ Я Мастер", m.ReplyKeyboard[0][1].Text)

	assert.True(t, Markup(router.Reply{RemoveKeyboard: true}).RemoveKeyboard)
	assert.Nil(t, Markup(router.Text("plain")))
}
