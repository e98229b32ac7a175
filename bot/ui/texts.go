package ui

import (
	"fmt"

	"github.com/m3rciful/delofix/core/telegram/format"
)

const (
	MsgChooseRole = "Выберите роль:"
	MsgClientMenu = "Меню Заказчика:"
	MsgMasterMenu = "Меню Мастера:"
	MsgAsClient   = "Вы вошли как <b>Заказчик</b>."
	MsgAsMaster   = "Вы вошли как <b>Мастер</b>."
	MsgHelp       = "<b>ДелоФикс</b> - сервис для поиска мастеров и заказчиков.\n\n" +
		"<b>Как заказчик:</b> создавайте задачи, получайте отклики от мастеров и выбирайте лучшего.\n" +
		"<b>Как мастер:</b> заполните профиль и ищите релевантные задачи для отклика.\n\n" +
		"Для навигации используйте кнопки внизу или команду /menu."
	MsgAdminWelcome  = "Добро пожаловать в админ-панель!"
	MsgInDevelopment = "Раздел в разработке."
	MsgFailure       = "⚠️ Что-то пошло не так. Попробуйте еще раз или нажмите /menu."
	MsgRateLimited   = "Слишком много сообщений. Подождите немного."

	MsgTaskDescription = "Шаг 1/3. Опишите вашу задачу."
	MsgTaskPhoto       = "Шаг 2/3. Прикрепите фото проблемы (если нужно)."
	MsgTaskLocation    = "Шаг 3/3. Укажите район или город."
	MsgTaskPublished   = "✅ Заявка опубликована!"

	MsgProfileName   = "Заполним анкету. Как вас зовут?"
	MsgProfileSkills = "Опишите ваши навыки и услуги."
	MsgProfileArea   = "Укажите районы, где вы работаете."
	MsgProfileSaved  = "✅ Профиль сохранен!"

	MsgAdText        = "Шаг 1/5. Введите текст рекламного сообщения."
	MsgAdPhoto       = "Шаг 2/5. Прикрепите фото для рекламы."
	MsgAdButtonText  = "Шаг 3/5. Введите текст для кнопки-ссылки."
	MsgAdButtonURL   = "Шаг 4/5. Отправьте полную ссылку для кнопки (например, https://google.com)."
	MsgAdTargetViews = "Шаг 5/5. Введите желаемое количество показов (просто число)."
	MsgAdActivated   = "✅ Реклама создана и активирована! Старые кампании выключены."
	MsgNoAds         = "Рекламных кампаний еще не было."

	MsgSearchPrompt = "Введите поисковый запрос."
	MsgNothingFound = "Ничего не найдено."
	MsgLastTask     = "Это была последняя задача."
	MsgSearchDone   = "Поиск завершен."
	MsgTaskNotFound = "Задача не найдена."

	MsgNoTasks = "У вас пока нет задач."
)

// Welcome greets a user on /start.
func Welcome(firstName string) string {
	return fmt.Sprintf("Привет, %s! Добро пожаловать в <b>ДелоФикс</b>.\nКто вы?", format.EscapeHTML(firstName))
}

// FoundTasks reports the number of search results.
func FoundTasks(n int) string {
	return fmt.Sprintf("Найдено задач: %d.", n)
}
