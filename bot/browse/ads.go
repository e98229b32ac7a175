package browse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/delofix/bot/model"
	"github.com/m3rciful/delofix/bot/repository"
	"github.com/m3rciful/delofix/bot/ui"
	"github.com/m3rciful/delofix/core/logger"
	"github.com/m3rciful/delofix/core/metrics"
	"github.com/m3rciful/delofix/core/telegram/format"
	"github.com/m3rciful/delofix/core/telegram/router"
)

// Injector renders the current ad campaign next to browse results.
type Injector struct {
	repo repository.Repository
}

func NewInjector(repo repository.Repository) *Injector {
	return &Injector{repo: repo}
}

// Show renders the newest eligible ad and counts the view. A view is counted
// only after the render succeeded; a failed count may let the ad run one view over.
func (i *Injector) Show(ctx context.Context, out router.Responder) (bool, error) {
	log := logger.Component(logger.CompAds)

	ad, ok, err := i.repo.SelectEligibleAd(ctx)
	if err != nil {
		metrics.AdImpressionsTotal.WithLabelValues("fail").Inc()
		return false, fmt.Errorf("select ad: %w", err)
	}
	if !ok {
		metrics.AdImpressionsTotal.WithLabelValues("none").Inc()
		return false, nil
	}
	if err := out.Send(ctx, ui.AdReply(ad)); err != nil {
		metrics.AdImpressionsTotal.WithLabelValues("fail").Inc()
		return false, fmt.Errorf("render ad %d: %w", ad.ID, err)
	}
	if err := i.repo.IncrementAdViews(ctx, ad.ID); err != nil {
		metrics.AdImpressionsTotal.WithLabelValues("fail").Inc()
		return true, fmt.Errorf("count ad %d: %w", ad.ID, err)
	}
	metrics.AdImpressionsTotal.WithLabelValues("shown").Inc()
	logger.LogEvent(ctx, log, slog.LevelDebug, "ad.shown",
		slog.Int64("ad_id", ad.ID),
		slog.Int("count", ad.CurrentViews+1),
	)
	return true, nil
}

// FormatAdStatus renders the admin campaign report, newest first.
func FormatAdStatus(ads []model.Advertisement) string {
	if len(ads) == 0 {
		return ui.MsgNoAds
	}
	var b strings.Builder
	b.WriteString("<b>Статистика рекламных кампаний:</b>\n\n")
	for _, ad := range ads {
		status := "🔴 Завершена"
		if ad.Eligible() {
			status = "🟢 Активна"
		}
		fmt.Fprintf(&b, "<b>ID: %d</b> | %s\nТекст: %s...\nПросмотры: %d / %d\n\n",
			ad.ID, status, format.EscapeHTML(format.Truncate(ad.Text, 30)), ad.CurrentViews, ad.TargetViews)
	}
	return b.String()
}
