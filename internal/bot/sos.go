package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/safefit-bot/internal/access"
	"github.com/xaenox/safefit-bot/internal/storage"
	"go.uber.org/zap"
)

type emergencyNumber struct {
	Service string
	Number  string
}

var emergencyNumbers = []emergencyNumber{
	{"Police", "911"},
	{"Fire Department", "911"},
	{"Medical Emergency", "911"},
	{"Poison Control", "1-800-222-1222"},
	{"National Suicide Prevention", "988"},
	{"Child Abuse Hotline", "1-800-4-A-CHILD"},
}

// handleSOS sends the national numbers, the user's own contacts when their
// plan includes them, and the medical profile for first responders.
func (b *Bot) handleSOS(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionSOS) {
		return
	}

	userID := message.From.ID
	var sb strings.Builder
	sb.WriteString("🚨 Emergency numbers\n")
	for _, n := range emergencyNumbers {
		fmt.Fprintf(&sb, "%s: %s\n", n.Service, n.Number)
	}

	sub, _, err := b.subscription(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to get user", zap.Error(err), zap.Int64("user_id", userID))
	}
	now := b.now()
	if err == nil && sub.Allows(access.FeatureEmergencyContacts, now) {
		contacts, err := b.storage.ListContacts(ctx, userID)
		if err != nil {
			b.logger.Error("Failed to list contacts", zap.Error(err), zap.Int64("user_id", userID))
		}
		if len(contacts) > 0 {
			sb.WriteString("\n📇 Your contacts\n")
			for _, c := range contacts {
				fmt.Fprintf(&sb, "%s: %s\n", c.Name, c.Number)
			}
		}
	}
	if err == nil && sub.Allows(access.FeatureSOSAdvanced, now) {
		sb.WriteString("\n📍 Share your location here to send it to your contacts.\n")
	}

	profile, err := b.storage.GetProfile(ctx, userID)
	switch {
	case err == nil:
		sb.WriteString("\n" + formatProfile(profile) + "\n")
	case !errors.Is(err, storage.ErrNotFound):
		b.logger.Error("Failed to get profile", zap.Error(err), zap.Int64("user_id", userID))
	}

	b.logger.Warn("SOS requested", zap.Int64("user_id", userID))
	b.sendMessage(message.Chat.ID, strings.TrimSpace(sb.String()))
}

// handleLocation forwards a shared location to every emergency contact with
// a Telegram chat and lists the others so the user can call them.
func (b *Bot) handleLocation(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionLocation) {
		return
	}

	userID := message.From.ID
	loc := message.Location
	contacts, err := b.storage.ListContacts(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to list contacts", zap.Error(err), zap.Int64("user_id", userID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't reach your contacts. Call 911 if you are in danger.")
		return
	}

	mapURL := fmt.Sprintf("https://maps.google.com/?q=%.6f,%.6f", loc.Latitude, loc.Longitude)
	if len(contacts) == 0 {
		b.sendMessage(message.Chat.ID, "📍 You have no emergency contacts yet. Add them with /addcontact.\n"+mapURL)
		return
	}

	sender := message.From.FirstName
	if sender == "" {
		sender = "Your contact"
	}
	var notified int
	var unreached []string
	for _, c := range contacts {
		if c.ChatID == 0 || !b.forwardLocation(c.ChatID, sender, loc, mapURL) {
			unreached = append(unreached, fmt.Sprintf("%s: %s", c.Name, c.Number))
			continue
		}
		notified++
	}

	b.logger.Warn("Location shared",
		zap.Int64("user_id", userID),
		zap.Int("notified", notified),
		zap.Int("contacts", len(contacts)))

	var sb strings.Builder
	fmt.Fprintf(&sb, "📍 Location sent to %d of %d contacts.\n%s\n", notified, len(contacts), mapURL)
	if len(unreached) > 0 {
		sb.WriteString("\nCall or text the others:\n")
		for _, line := range unreached {
			sb.WriteString(line + "\n")
		}
	}
	b.sendMessage(message.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) forwardLocation(chatID int64, sender string, loc *tgbotapi.Location, mapURL string) bool {
	alert := tgbotapi.NewMessage(chatID, fmt.Sprintf("🚨 %s shared their location with you as an emergency contact.\n%s", sender, mapURL))
	if _, err := b.api.Send(alert); err != nil {
		b.logger.Error("Failed to alert contact", zap.Error(err), zap.Int64("chat_id", chatID))
		return false
	}
	if _, err := b.api.Send(tgbotapi.NewLocation(chatID, loc.Latitude, loc.Longitude)); err != nil {
		b.logger.Error("Failed to forward location", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return true
}
