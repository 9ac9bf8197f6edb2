package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/safefit-bot/internal/access"
	"github.com/xaenox/safefit-bot/internal/fitness"
	"github.com/xaenox/safefit-bot/internal/health"
	"github.com/xaenox/safefit-bot/internal/models"
	"github.com/xaenox/safefit-bot/internal/storage"
	"go.uber.org/zap"
)

func (b *Bot) handleWater(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionMetrics) {
		return
	}

	glasses := 1.0
	if arg := strings.TrimSpace(message.CommandArguments()); arg != "" {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			b.sendMessage(message.Chat.ID, "Usage: /water [glasses], e.g. /water 2")
			return
		}
		glasses = v
	}

	metric := &models.HealthMetric{
		UserID:     message.From.ID,
		Type:       "water",
		Value:      glasses,
		Unit:       "glasses",
		RecordedAt: b.now(),
	}
	if err := b.storage.AddMetric(ctx, metric); err != nil {
		b.logger.Error("Failed to save metric",
			zap.Error(err),
			zap.Int64("user_id", metric.UserID),
			zap.String("metric_type", metric.Type))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't record that.")
		return
	}

	text := "💧 Logged " + formatGlasses(glasses) + " glasses."
	if summary := b.waterSummary(ctx, metric.UserID); summary != "" {
		text += "\n" + summary
	}
	b.sendMessage(message.Chat.ID, text)
}

// waterSummary reports today's progress towards the daily goal. It returns
// "" when the readings cannot be loaded.
func (b *Bot) waterSummary(ctx context.Context, userID int64) string {
	since := health.TimeframeToday.Start(b.now())
	metrics, err := b.storage.ListMetrics(ctx, userID, since)
	if err != nil {
		b.logger.Error("Failed to list metrics",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.Time("since", since))
		return ""
	}
	glasses, pct := fitness.WaterProgress(metrics)
	text := fmt.Sprintf("💧 Today: %s of %d glasses (%.0f%%)", formatGlasses(glasses), fitness.DailyWaterGoal, pct)
	if pct >= 100 {
		text += " Goal reached! 🎉"
	}
	return text
}

func formatGlasses(g float64) string {
	return strconv.FormatFloat(math.Round(g*10)/10, 'f', -1, 64)
}

// handleRemind adds a daily medicine reminder: "/remind <medicine> [| dosage] <HH:MM>".
func (b *Bot) handleRemind(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionFitness) {
		return
	}

	reminder, err := parseReminder(message.CommandArguments())
	if err != nil {
		b.sendMessage(message.Chat.ID, "Usage: /remind <medicine> [| dosage] <HH:MM>, e.g. /remind Vitamin D | 1 tablet 09:00")
		return
	}
	reminder.UserID = message.From.ID
	reminder.ChatID = message.Chat.ID
	reminder.CreatedAt = b.now()

	if err := b.storage.AddReminder(ctx, reminder); err != nil {
		b.logger.Error("Failed to add reminder", zap.Error(err), zap.Int64("user_id", reminder.UserID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save the reminder.")
		return
	}

	b.logger.Info("Reminder added",
		zap.Int64("user_id", reminder.UserID),
		zap.String("reminder_id", reminder.ID),
		zap.String("clock", reminder.Clock))
	b.sendMessage(message.Chat.ID, fmt.Sprintf("⏰ I'll remind you to take %s every day at %s.", reminder.Medicine, reminder.Clock))
}

func parseReminder(args string) (*models.Reminder, error) {
	args = strings.TrimSpace(args)
	i := strings.LastIndexAny(args, " \t")
	if i < 0 {
		return nil, errors.New("expected medicine and time")
	}
	clock, err := fitness.ParseClock(args[i+1:])
	if err != nil {
		return nil, err
	}
	medicine, dosage, _ := strings.Cut(args[:i], "|")
	medicine = strings.TrimSpace(medicine)
	if medicine == "" {
		return nil, errors.New("expected medicine name")
	}
	return &models.Reminder{
		Medicine: medicine,
		Dosage:   strings.TrimSpace(dosage),
		Clock:    clock,
	}, nil
}

func (b *Bot) handleReminders(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionFitness) {
		return
	}

	reminders, err := b.storage.ListReminders(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to list reminders", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load your reminders.")
		return
	}
	if len(reminders) == 0 {
		b.sendMessage(message.Chat.ID, "No reminders yet. Add one with /remind <medicine> <HH:MM>.")
		return
	}

	var sb strings.Builder
	sb.WriteString("💊 Your reminders\n")
	for i, r := range reminders {
		fmt.Fprintf(&sb, "%d. %s %s", i+1, r.Clock, r.Medicine)
		if r.Dosage != "" {
			fmt.Fprintf(&sb, " (%s)", r.Dosage)
		}
		sb.WriteString("\n")
	}
	b.sendMessage(message.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleDeleteReminder(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionFitness) {
		return
	}

	n, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil || n < 1 {
		b.sendErrorMessage(message.Chat.ID, "Give the reminder number shown by /reminders.")
		return
	}
	reminders, err := b.storage.ListReminders(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to list reminders", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load your reminders.")
		return
	}
	if n > len(reminders) {
		b.sendErrorMessage(message.Chat.ID, fmt.Sprintf("You have %d reminders. See /reminders.", len(reminders)))
		return
	}

	r := reminders[n-1]
	err = b.storage.DeleteReminder(ctx, message.From.ID, r.ID)
	if errors.Is(err, storage.ErrNotFound) {
		b.sendErrorMessage(message.Chat.ID, "That reminder no longer exists. See /reminders.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to delete reminder",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
			zap.String("reminder_id", r.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't delete the reminder.")
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("🗑 Removed the %s reminder at %s.", r.Medicine, r.Clock))
}

func (b *Bot) handleWorkout(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionFitness) {
		return
	}

	var sb strings.Builder
	sb.WriteString("🏋️ Today's workout\n")
	for i, e := range fitness.Routine() {
		fmt.Fprintf(&sb, "%d. %s, %s\n", i+1, e.Name, e.Duration)
	}
	fmt.Fprintf(&sb, "\nTotal: %s. Rest 15s between exercises. Let's go bro! 💪", fitness.RoutineDuration())
	b.sendMessage(message.Chat.ID, sb.String())
}

// runReminders sends due reminders every ReminderInterval until ctx is done.
func (b *Bot) runReminders(ctx context.Context) {
	ticker := time.NewTicker(b.opts.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sendDueReminders(ctx)
		}
	}
}

func (b *Bot) sendDueReminders(ctx context.Context) {
	reminders, err := b.storage.AllReminders(ctx)
	if err != nil {
		b.logger.Error("Failed to list reminders", zap.Error(err))
		return
	}

	now := b.now()
	for _, r := range reminders {
		if !fitness.Due(r, now) {
			continue
		}
		// Reminders pause while the plan does not include them.
		sub, _, err := b.subscription(ctx, r.UserID)
		if err != nil {
			b.logger.Error("Failed to get user", zap.Error(err), zap.Int64("user_id", r.UserID))
			continue
		}
		if !sub.Allows(access.FeatureFitnessAdvanced, now) {
			continue
		}

		text := "💊 Time for your " + r.Medicine
		if r.Dosage != "" {
			text += fmt.Sprintf(" (%s)", r.Dosage)
		}
		b.sendMessage(r.ChatID, text)
		if err := b.storage.MarkReminderSent(ctx, r.ID, now); err != nil {
			b.logger.Error("Failed to mark reminder sent",
				zap.Error(err),
				zap.String("reminder_id", r.ID))
		}
	}
}
