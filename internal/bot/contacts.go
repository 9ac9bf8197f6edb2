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
	"github.com/xaenox/safefit-bot/internal/storage"
	"go.uber.org/zap"
)

func (b *Bot) handleContacts(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionContacts) {
		return
	}

	contacts, err := b.storage.ListContacts(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to list contacts", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load your contacts.")
		return
	}

	if len(contacts) == 0 {
		b.sendMessage(message.Chat.ID, "No emergency contacts yet. Add one with /addcontact <name> | <number>.")
		return
	}

	response := "*Your emergency contacts:*\n\n"
	for i, c := range contacts {
		line := escapeMarkdown(fmt.Sprintf("%d. %s: %s", i+1, c.Name, c.Number))
		if c.ChatID != 0 {
			line += " 🔔"
		}
		response += line + "\n"
	}
	b.sendMarkdown(message.Chat.ID, response)
}

func (b *Bot) handleAddContact(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionContacts) {
		return
	}

	name, number, chatID, err := parseContact(message.CommandArguments())
	if err != nil {
		b.sendMessage(message.Chat.ID, "Usage: /addcontact <name> | <number> [| <telegram chat id>]")
		return
	}

	contact := &models.EmergencyContact{
		UserID: message.From.ID,
		Name:   name,
		Number: number,
		ChatID: chatID,
	}
	if err := b.storage.AddContact(ctx, contact); err != nil {
		b.logger.Error("Failed to add contact", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save the contact.")
		return
	}

	b.logger.Info("Contact added",
		zap.Int64("user_id", contact.UserID),
		zap.String("contact_id", contact.ID))
	b.sendMessage(message.Chat.ID, fmt.Sprintf("📇 Added %s (%s) to your emergency contacts.", contact.Name, contact.Number))
}

func (b *Bot) handleEditContact(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionContacts) {
		return
	}

	index, rest, _ := strings.Cut(strings.TrimSpace(message.CommandArguments()), " ")
	name, number, chatID, err := parseContact(rest)
	if err != nil {
		b.sendMessage(message.Chat.ID, "Usage: /editcontact <n> <name> | <number> [| <telegram chat id>]")
		return
	}

	contact, ok := b.contactAt(ctx, message, index)
	if !ok {
		return
	}
	contact.Name = name
	contact.Number = number
	contact.ChatID = chatID
	if err := b.storage.UpdateContact(ctx, contact); err != nil {
		b.logger.Error("Failed to update contact",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
			zap.String("contact_id", contact.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't update the contact.")
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("✏️ Contact %s updated: %s (%s).", index, contact.Name, contact.Number))
}

func (b *Bot) handleDeleteContact(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionContacts) {
		return
	}

	index := strings.TrimSpace(message.CommandArguments())
	contact, ok := b.contactAt(ctx, message, index)
	if !ok {
		return
	}
	err := b.storage.DeleteContact(ctx, message.From.ID, contact.ID)
	if errors.Is(err, storage.ErrNotFound) {
		b.sendErrorMessage(message.Chat.ID, "That contact no longer exists. See /contacts.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to delete contact",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
			zap.String("contact_id", contact.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't delete the contact.")
		return
	}
	b.sendMessage(message.Chat.ID, fmt.Sprintf("🗑 Removed %s from your emergency contacts.", contact.Name))
}

// contactAt resolves the 1-based position shown by /contacts.
func (b *Bot) contactAt(ctx context.Context, message *tgbotapi.Message, index string) (*models.EmergencyContact, bool) {
	n, err := strconv.Atoi(index)
	if err != nil || n < 1 {
		b.sendErrorMessage(message.Chat.ID, "Give the contact number shown by /contacts.")
		return nil, false
	}

	contacts, err := b.storage.ListContacts(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to list contacts", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load your contacts.")
		return nil, false
	}
	if n > len(contacts) {
		b.sendErrorMessage(message.Chat.ID, fmt.Sprintf("You have %d contacts. See /contacts.", len(contacts)))
		return nil, false
	}
	return contacts[n-1], true
}

// parseContact splits "name | number [| chat id]". Name and number are
// required; the Telegram chat id is optional.
func parseContact(args string) (name, number string, chatID int64, err error) {
	parts := strings.Split(args, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return "", "", 0, errors.New("expected name | number")
	}
	name, number = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if name == "" || number == "" {
		return "", "", 0, errors.New("expected name | number")
	}
	if len(parts) == 3 {
		chatID, err = strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil || chatID == 0 {
			return "", "", 0, errors.New("invalid telegram chat id")
		}
	}
	return name, number, chatID, nil
}
