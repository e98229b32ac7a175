package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/delofix/bot/model"
	"github.com/m3rciful/delofix/core/telegram/format"
	"github.com/m3rciful/delofix/core/telegram/router"
)

// TaskCard renders a search result with the browse buttons.
func TaskCard(t model.ClientTask) router.Reply {
	text := fmt.Sprintf("<b>Задача #%d</b>\n\n%s\n\n📍 %s",
		t.ID, format.EscapeHTML(t.Description), format.EscapeHTML(t.Location))
	return router.Reply{
		Text:    text,
		PhotoID: format.DerefString(t.PhotoID, ""),
		Inline: [][]router.Button{
			{{Text: BtnNextTask, Data: CbNextTask}},
			{{Text: BtnMakeOffer, Data: CbMakeOfferPrefix + strconv.FormatInt(t.ID, 10)}},
		},
	}
}

// AdReply renders a campaign: photo with caption when present, URL button
// only when both its text and link are set. Ad text is admin-authored HTML.
func AdReply(ad model.Advertisement) router.Reply {
	r := router.Reply{Text: ad.Text, PhotoID: format.DerefString(ad.PhotoID, "")}
	if ad.HasButton() {
		r.Inline = [][]router.Button{{{Text: *ad.ButtonText, URL: *ad.ButtonURL}}}
	}
	return r
}

// TaskList renders a client's own tasks.
func TaskList(tasks []model.ClientTask) string {
	if len(tasks) == 0 {
		return MsgNoTasks
	}
	var b strings.Builder
	b.WriteString("<b>Ваши задачи:</b>\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "\n<b>#%d</b> [%s] %s\n📍 %s\n",
			t.ID, format.EscapeHTML(string(t.Status)),
			format.EscapeHTML(format.Truncate(t.Description, 60)),
			format.EscapeHTML(t.Location))
	}
	return b.String()
}
