package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/safefit-bot/internal/access"
	"github.com/xaenox/safefit-bot/internal/health"
	"github.com/xaenox/safefit-bot/internal/models"
	"go.uber.org/zap"
)

func (b *Bot) handleLogMetric(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionMetrics) {
		return
	}

	metricType, value, unit, err := health.ParseReading(message.CommandArguments())
	if err != nil {
		b.sendMessage(message.Chat.ID, "Usage: /log <type> <value> [unit], e.g. /log heart_rate 72 bpm")
		return
	}

	metric := &models.HealthMetric{
		UserID:     message.From.ID,
		Type:       metricType,
		Value:      value,
		Unit:       unit,
		RecordedAt: b.now(),
	}
	if err := b.storage.AddMetric(ctx, metric); err != nil {
		b.logger.Error("Failed to save metric",
			zap.Error(err),
			zap.Int64("user_id", metric.UserID),
			zap.String("metric_type", metric.Type))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't record that reading.")
		return
	}
	text := "📈 Recorded " + formatMetric(metric)
	if metric.Type == "water" {
		if summary := b.waterSummary(ctx, metric.UserID); summary != "" {
			text += "\n" + summary
		}
	}
	b.sendMessage(message.Chat.ID, text)
}

func (b *Bot) handleVitals(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionMetrics) {
		return
	}

	tf, err := health.ParseTimeframe(message.CommandArguments())
	if err != nil {
		b.sendMessage(message.Chat.ID, "Pick a timeframe: /vitals today, 7d, 15d or 30d")
		return
	}
	// Longer history is a premium feature.
	if tf == health.Timeframe15d || tf == health.Timeframe30d {
		if !b.allow(ctx, message, access.ActionMetricHistory) {
			return
		}
	}

	since := tf.Start(b.now())
	metrics, err := b.storage.ListMetrics(ctx, message.From.ID, since)
	if err != nil {
		b.logger.Error("Failed to list metrics",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
			zap.Time("since", since))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load your vitals.")
		return
	}

	if len(metrics) == 0 {
		b.sendMessage(message.Chat.ID, fmt.Sprintf("No readings for %s. Record one with /log heart_rate 72 bpm.", tf))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "❤️ Vitals (%s, %d readings)\n", tf, len(metrics))
	for _, m := range health.Summary(metrics) {
		fmt.Fprintf(&sb, "%s, %s\n", formatMetric(m), m.RecordedAt.Format("2 Jan 15:04"))
	}
	b.sendMessage(message.Chat.ID, strings.TrimSpace(sb.String()))
}

func formatMetric(m *models.HealthMetric) string {
	s := m.Type + ": " + strconv.FormatFloat(m.Value, 'f', -1, 64)
	if m.Unit != "" {
		s += " " + m.Unit
	}
	return s
}
