package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/safefit-bot/internal/access"
	"github.com/xaenox/safefit-bot/internal/models"
	"github.com/xaenox/safefit-bot/internal/passkey"
	"github.com/xaenox/safefit-bot/internal/storage"
	"go.uber.org/zap"
)

func (b *Bot) handlePlans(message *tgbotapi.Message) {
	var sb strings.Builder
	sb.WriteString("Choose your plan:\n\n")
	for _, p := range access.Plans() {
		fmt.Fprintf(&sb, "%s %s - %s\n", planIcon(p.Tier), p.Title, p.Price)
		for _, f := range access.Features(p.Tier) {
			fmt.Fprintf(&sb, "  • %s\n", f)
		}
		fmt.Fprintf(&sb, "Activate with /subscribe %s\n\n", p.ID)
	}
	b.sendMessage(message.Chat.ID, strings.TrimSpace(sb.String()))
}

func planIcon(t access.Tier) string {
	if t == access.TierPremium {
		return "👑"
	}
	return "🛡"
}

func (b *Bot) handleSubscribe(ctx context.Context, message *tgbotapi.Message) {
	planID := strings.ToLower(strings.TrimSpace(message.CommandArguments()))
	plan, err := access.PlanByID(planID)
	if err != nil {
		b.sendMessage(message.Chat.ID, "Which plan? Use /subscribe basic or /subscribe premium.")
		return
	}

	current, user, err := b.subscription(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to get user", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't activate your plan. Please try again.")
		return
	}

	// Payment is handled outside the bot; activation is immediate. Renewing
	// an active plan extends it.
	sub := current.Renew(plan, b.now())
	user.Tier = string(sub.Tier)
	user.Subscribed = sub.Active
	user.EndDate = sub.EndDate
	if err := b.storage.UpdateUser(ctx, user); err != nil {
		b.logger.Error("Failed to save subscription",
			zap.Error(err),
			zap.Int64("user_id", user.ID),
			zap.String("plan", plan.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't activate your plan. Please try again.")
		return
	}

	b.logger.Info("Subscription activated",
		zap.Int64("user_id", user.ID),
		zap.String("tier", user.Tier),
		zap.Time("end_date", user.EndDate))
	b.sendMessage(message.Chat.ID, fmt.Sprintf("✅ Your %s plan is now active until %s.", plan.ID, sub.EndDate.Format("2 Jan 2006")))
}

func (b *Bot) handleStatus(ctx context.Context, message *tgbotapi.Message) {
	sub, _, err := b.subscription(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to get user", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load your subscription.")
		return
	}

	now := b.now()
	if !sub.IsSubscribed(now) {
		text := "You're on the free tier. See /plans to unlock features."
		if sub.Active {
			text = fmt.Sprintf("Your %s plan expired on %s. See /plans to renew.", sub.Tier, sub.EndDate.Format("2 Jan 2006"))
		}
		b.sendMessage(message.Chat.ID, text)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Plan: %s\n", sub.Tier)
	if !sub.EndDate.IsZero() {
		fmt.Fprintf(&sb, "Active until: %s\n", sub.EndDate.Format("2 Jan 2006"))
	}
	sb.WriteString("Features:\n")
	for _, f := range access.AllFeatures() {
		mark := "✗"
		if sub.Allows(f, now) {
			mark = "✓"
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, f)
	}
	b.sendMessage(message.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleSetPasskey(ctx context.Context, message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		b.sendMessage(message.Chat.ID, "Usage: /passkey <passkey> <confirm passkey>")
		return
	}

	hash, err := passkey.Hash(args[0], args[1])
	if errors.Is(err, passkey.ErrTooShort) || errors.Is(err, passkey.ErrTooLong) || errors.Is(err, passkey.ErrMismatch) {
		b.sendErrorMessage(message.Chat.ID, err.Error())
		return
	}
	if err != nil {
		b.logger.Error("Failed to hash passkey", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your passkey.")
		return
	}

	user, err := b.storage.GetUser(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to get user", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your passkey.")
		return
	}

	user.Passkey = hash
	if err := b.storage.UpdateUser(ctx, user); err != nil {
		b.logger.Error("Failed to save passkey", zap.Error(err), zap.Int64("user_id", user.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your passkey.")
		return
	}
	b.sendMessage(message.Chat.ID, "🔐 Passkey set successfully. Delete your message so nobody else can read it.")
}

func (b *Bot) handleVerifyPasskey(ctx context.Context, message *tgbotapi.Message) {
	user, err := b.storage.GetUser(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to get user", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't check your passkey.")
		return
	}
	if user.Passkey == "" {
		b.sendMessage(message.Chat.ID, "You haven't set a passkey yet. Use /passkey <passkey> <confirm>.")
		return
	}

	if err := passkey.Verify(user.Passkey, strings.TrimSpace(message.CommandArguments())); err != nil {
		b.sendErrorMessage(message.Chat.ID, "Incorrect passkey.")
		return
	}
	b.sendMessage(message.Chat.ID, "✅ Passkey verified.")
}

func (b *Bot) handleProfile(ctx context.Context, message *tgbotapi.Message) {
	p, err := b.storage.GetProfile(ctx, message.From.ID)
	if errors.Is(err, storage.ErrNotFound) {
		b.sendMessage(message.Chat.ID, "No profile yet. Fill it in with /setprofile name=...; age=...; blood=...")
		return
	}
	if err != nil {
		b.logger.Error("Failed to get profile", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load your profile.")
		return
	}
	b.sendMessage(message.Chat.ID, formatProfile(p))
}

func formatProfile(p *models.Profile) string {
	var sb strings.Builder
	sb.WriteString("🩺 Medical profile\n")
	fields := []struct{ label, value string }{
		{"Name", p.Name},
		{"Age", ageString(p.Age)},
		{"Blood group", p.BloodGroup},
		{"Allergies", p.Allergies},
		{"Conditions", p.Conditions},
		{"Phone", p.Phone},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(&sb, "%s: %s\n", f.label, f.value)
		}
	}
	return strings.TrimSpace(sb.String())
}

func ageString(age int) string {
	if age <= 0 {
		return ""
	}
	return strconv.Itoa(age)
}

func (b *Bot) handleSetProfile(ctx context.Context, message *tgbotapi.Message) {
	p, err := b.storage.GetProfile(ctx, message.From.ID)
	if errors.Is(err, storage.ErrNotFound) {
		p, err = &models.Profile{UserID: message.From.ID}, nil
	}
	if err != nil {
		b.logger.Error("Failed to get profile", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't update your profile.")
		return
	}

	if err := applyProfileFields(p, message.CommandArguments()); err != nil {
		b.sendErrorMessage(message.Chat.ID, err.Error())
		return
	}

	if err := b.storage.SaveProfile(ctx, p); err != nil {
		b.logger.Error("Failed to save profile", zap.Error(err), zap.Int64("user_id", p.UserID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't update your profile.")
		return
	}
	b.sendMessage(message.Chat.ID, "Profile updated!\n\n"+formatProfile(p))
}

// applyProfileFields parses "key=value; key=value" into p.
func applyProfileFields(p *models.Profile, args string) error {
	if strings.TrimSpace(args) == "" {
		return errors.New("usage: /setprofile name=...; age=...; blood=...; allergies=...; conditions=...; phone=...")
	}
	for _, part := range strings.Split(args, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", part)
		}
		key, value = strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value)
		switch key {
		case "name":
			p.Name = value
		case "age":
			age, err := strconv.Atoi(value)
			if err != nil || age < 0 || age > 150 {
				return fmt.Errorf("invalid age %q", value)
			}
			p.Age = age
		case "blood", "blood_group":
			p.BloodGroup = strings.ToUpper(value)
		case "allergies":
			p.Allergies = value
		case "conditions":
			p.Conditions = value
		case "phone":
			p.Phone = value
		default:
			return fmt.Errorf("unknown profile field %q", key)
		}
	}
	return nil
}
