// Package ui holds the bot's Russian texts, keyboards and record renderers.
package ui

import "github.com/m3rciful/delofix/core/telegram/router"

// Reply keyboard labels. Handlers match on these exact strings.
const (
	BtnClient     = "👤 Я Заказчик"
	BtnMaster     = "🛠 Я Мастер"
	BtnSwitchRole = "🔄 Сменить роль"

	BtnCreateTask = "➕ Создать задачу"
	BtnMyTasks    = "📂 Мои задачи"
	BtnSearch     = "🔍 Поиск задач"
	BtnProfile    = "📝 Мой профиль"

	BtnCreateAd = "➕ Создать рекламу"
	BtnAdStatus = "📊 Статус рекламы"

	BtnSkip     = "Пропустить"
	BtnNoButton = "Без кнопки"
)

// Inline buttons and their callback tokens.
const (
	BtnNextTask  = "➡️ Следующая"
	BtnMakeOffer = "💬 Сделать предложение"

	CbNextTask        = "next_task"
	CbMakeOfferPrefix = "make_offer:"
)

var (
	RoleKeyboard   = [][]string{{BtnClient, BtnMaster}}
	ClientKeyboard = [][]string{{BtnCreateTask}, {BtnMyTasks, BtnSwitchRole}}
	MasterKeyboard = [][]string{{BtnSearch}, {BtnProfile, BtnSwitchRole}}
	AdminKeyboard  = [][]string{{BtnCreateAd, BtnAdStatus}}
)

// SkipKeyboard is a single-button keyboard for optional steps.
func SkipKeyboard(label string) [][]string {
	return [][]string{{label}}
}

// WithKeyboard attaches a reply keyboard to text.
func WithKeyboard(text string, kb [][]string) router.Reply {
	return router.Reply{Text: text, Keyboard: kb}
}

// WithoutKeyboard sends text and hides the reply keyboard.
func WithoutKeyboard(text string) router.Reply {
	return router.Reply{Text: text, RemoveKeyboard: true}
}
