package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/xaenox/safefit-bot/internal/access"
	"github.com/xaenox/safefit-bot/internal/companion"
	"github.com/xaenox/safefit-bot/internal/models"
	"github.com/xaenox/safefit-bot/internal/responder"
	"github.com/xaenox/safefit-bot/internal/storage"
	"go.uber.org/zap"
)

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

type Options struct {
	// EmotionThreshold is the minimum score for a mood sample to count.
	EmotionThreshold float64
	// HistoryLimit is how many messages /history shows.
	HistoryLimit   int
	UpdatesTimeout int
	// ReminderInterval is how often due medicine reminders are checked.
	ReminderInterval time.Duration
}

type Bot struct {
	api       telegramAPI
	storage   storage.Storage
	responder responder.Responder
	emotions  *companion.Tracker
	opts      Options
	logger    *zap.Logger
	now       func() time.Time

	// wg tracks the reminder loop and in-flight handlers.
	wg sync.WaitGroup
}

func New(token string, debug bool, store storage.Storage, resp responder.Responder, opts Options, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = debug
	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))

	return newBot(api, store, resp, opts, logger), nil
}

func newBot(api telegramAPI, store storage.Storage, resp responder.Responder, opts Options, logger *zap.Logger) *Bot {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	if opts.UpdatesTimeout <= 0 {
		opts.UpdatesTimeout = 60
	}
	if opts.ReminderInterval <= 0 {
		opts.ReminderInterval = time.Minute
	}
	return &Bot{
		api:       api,
		storage:   store,
		responder: resp,
		emotions:  companion.NewTracker(),
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Start consumes updates until ctx is cancelled. It returns once every
// handler it started has finished.
func (b *Bot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer b.wg.Wait()
	defer cancel()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.opts.UpdatesTimeout
	updates := b.api.GetUpdatesChan(u)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.runReminders(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			message := update.Message
			if message == nil || message.From == nil {
				continue
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleMessage(ctx, message)
			}()
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	// Handle commands
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	if message.Location != nil {
		b.handleLocation(ctx, message)
		return
	}

	if len(message.Photo) > 0 {
		b.handlePhoto(ctx, message)
		return
	}

	if strings.TrimSpace(message.Text) == "" {
		return
	}
	b.handleChat(ctx, message)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "plans":
		b.handlePlans(message)
	case "subscribe":
		b.handleSubscribe(ctx, message)
	case "status":
		b.handleStatus(ctx, message)
	case "passkey":
		b.handleSetPasskey(ctx, message)
	case "verify":
		b.handleVerifyPasskey(ctx, message)
	case "profile":
		b.handleProfile(ctx, message)
	case "setprofile":
		b.handleSetProfile(ctx, message)
	case "contacts":
		b.handleContacts(ctx, message)
	case "addcontact":
		b.handleAddContact(ctx, message)
	case "editcontact":
		b.handleEditContact(ctx, message)
	case "delcontact":
		b.handleDeleteContact(ctx, message)
	case "log":
		b.handleLogMetric(ctx, message)
	case "vitals":
		b.handleVitals(ctx, message)
	case "sos":
		b.handleSOS(ctx, message)
	case "water":
		b.handleWater(ctx, message)
	case "remind":
		b.handleRemind(ctx, message)
	case "reminders":
		b.handleReminders(ctx, message)
	case "delreminder":
		b.handleDeleteReminder(ctx, message)
	case "workout":
		b.handleWorkout(ctx, message)
	case "mood":
		b.handleMood(ctx, message)
	case "camera":
		b.handleCamera(ctx, message)
	case "reset":
		b.handleReset(ctx, message)
	case "history":
		b.handleHistory(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Hey bro, I'm your SafeFit buddy! 💪
I track your vitals, keep your emergency contacts handy and chat with you about fitness, food, sleep and stress.

Pick a plan with /plans to unlock features.
Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/plans - Show subscription plans
/subscribe <plan> - Activate a plan
/status - Show your subscription
/passkey <passkey> <confirm> - Set your security passkey
/verify <passkey> - Check your passkey
/profile - Show your medical profile
/setprofile name=..; age=..; blood=..; allergies=..; conditions=..; phone=..
/contacts - List emergency contacts
/addcontact <name> | <number> [| <telegram chat id>] - Add an emergency contact
/editcontact <n> <name> | <number> [| <telegram chat id>] - Change contact number n
/delcontact <n> - Remove contact number n
/log <type> <value> [unit] - Record a vital, e.g. /log heart_rate 72 bpm
/vitals [today|7d|15d|30d] - Show recorded vitals
/sos - Emergency numbers and your contacts
Share your location to send it to your emergency contacts
/water [glasses] - Log water, 1 glass by default
/remind <medicine> [| dosage] <HH:MM> - Daily medicine reminder
/reminders - List your reminders
/delreminder <n> - Remove reminder number n
/workout - Today's guided workout
/mood <emotion> or /mood happy=0.8 sad=0.1 - Share your expression
/camera off - Stop emotion tracking
/reset - Start a fresh conversation
/history - Show recent messages

Any other message goes to BroAI, your wellness companion.`

	b.sendMessage(message.Chat.ID, help)
}

// subscription loads the user's subscription state.
func (b *Bot) subscription(ctx context.Context, userID int64) (access.Subscription, *models.User, error) {
	user, err := b.storage.GetUser(ctx, userID)
	if err != nil {
		return access.Subscription{}, nil, err
	}
	return access.Subscription{
		UserID:  user.ID,
		Tier:    access.ParseTier(user.Tier),
		Active:  user.Subscribed,
		EndDate: user.EndDate,
	}, user, nil
}

// allow checks that the sender may perform action and tells them otherwise.
func (b *Bot) allow(ctx context.Context, message *tgbotapi.Message, action access.Action) bool {
	feature, ok := access.RequiredFeature(action)
	if !ok {
		return true
	}

	sub, _, err := b.subscription(ctx, message.From.ID)
	if err != nil {
		b.logger.Error("Failed to get user",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't check your subscription. Please try again later.")
		return false
	}

	if sub.Allows(feature, b.now()) {
		return true
	}

	text := fmt.Sprintf("🔒 This needs a plan that includes %s. See /plans to upgrade.", feature)
	if sub.Active && !sub.IsSubscribed(b.now()) {
		text = "⏰ Your subscription has expired. Renew it with /plans."
	}
	b.sendMessage(message.Chat.ID, text)
	return false
}

func (b *Bot) handleChat(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionChat) {
		return
	}

	userID := message.From.ID
	emotion := b.emotions.Current(userID)
	b.saveMessage(ctx, &models.Message{
		UserID:  userID,
		Text:    message.Text,
		IsUser:  true,
		Emotion: string(emotion),
	})

	reply := b.responder.Reply(ctx, responder.Request{
		UserID:  userID,
		Text:    message.Text,
		Emotion: emotion,
	})
	b.reply(ctx, message, reply, emotion)
}

func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionImage) {
		return
	}

	userID := message.From.ID
	largest := message.Photo[len(message.Photo)-1]
	url, err := b.api.GetFileDirectURL(largest.FileID)
	if err != nil {
		b.logger.Error("Failed to get photo URL",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("file_id", largest.FileID))
		b.sendErrorMessage(message.Chat.ID, "I'm having trouble looking at your image right now. Try sending it again!")
		return
	}

	text := message.Caption
	if text == "" {
		text = "What do you think of this?"
	}
	emotion := b.emotions.Current(userID)
	b.saveMessage(ctx, &models.Message{
		UserID:   userID,
		Text:     text,
		IsUser:   true,
		Emotion:  string(emotion),
		ImageRef: largest.FileID,
	})

	reply := b.responder.Reply(ctx, responder.Request{
		UserID:   userID,
		Text:     text,
		Emotion:  emotion,
		ImageURL: url,
	})
	b.reply(ctx, message, reply, emotion)
}

// handleMood takes a face-analysis sample, either a bare emotion name or a
// list of name=score pairs, and reacts only when the emotion changed.
func (b *Bot) handleMood(ctx context.Context, message *tgbotapi.Message) {
	if !b.allow(ctx, message, access.ActionEmotion) {
		return
	}

	emotion, ok := parseMoodSample(message.CommandArguments(), b.opts.EmotionThreshold)
	if !ok {
		b.sendMessage(message.Chat.ID, "I couldn't read your mood. Try /mood happy or /mood happy=0.8 sad=0.1")
		return
	}

	userID := message.From.ID
	if !b.emotions.Observe(userID, emotion) {
		return
	}

	b.logger.Debug("Emotion changed",
		zap.Int64("user_id", userID),
		zap.String("emotion", string(emotion)))
	b.reply(ctx, message, companion.ReactToEmotionChange(emotion), emotion)
}

func (b *Bot) handleCamera(ctx context.Context, message *tgbotapi.Message) {
	if strings.EqualFold(strings.TrimSpace(message.CommandArguments()), "off") {
		b.emotions.Reset(message.From.ID)
		b.sendMessage(message.Chat.ID, "📷 Camera off. I'll stop reading your mood.")
		return
	}
	b.sendMessage(message.Chat.ID, "Send /mood samples while your camera is on, or /camera off to stop.")
}

func (b *Bot) handleReset(ctx context.Context, message *tgbotapi.Message) {
	b.responder.Reset(message.From.ID)
	b.emotions.Reset(message.From.ID)
	b.sendMessage(message.Chat.ID, "Fresh start! What's on your mind? 🌱")
}

// reply stores the companion's answer in the history and sends it.
func (b *Bot) reply(ctx context.Context, message *tgbotapi.Message, text string, emotion companion.Emotion) {
	b.saveMessage(ctx, &models.Message{
		UserID:  message.From.ID,
		Text:    text,
		IsUser:  false,
		Emotion: string(emotion),
	})

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) saveMessage(ctx context.Context, msg *models.Message) {
	msg.ID = uuid.New().String()
	msg.CreatedAt = b.now()
	if err := b.storage.SaveMessage(ctx, msg); err != nil {
		b.logger.Error("Failed to save message",
			zap.Error(err),
			zap.String("message_id", msg.ID),
			zap.Int64("user_id", msg.UserID))
	}
}

func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) {
	messages, err := b.storage.GetUserMessages(ctx, message.From.ID, b.opts.HistoryLimit, 0)
	if err != nil {
		b.logger.Error("Failed to get user messages",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve your message history.")
		return
	}

	if len(messages) == 0 {
		b.sendMessage(message.Chat.ID, "You don't have any messages yet.")
		return
	}

	response := "*Your recent messages:*\n\n"
	// oldest first reads like a conversation
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		author := "BroAI"
		if m.IsUser {
			author = "You"
		}
		line := fmt.Sprintf("*%s*", escapeMarkdown(author))
		if m.Emotion != "" {
			line += " " + escapeMarkdown("("+m.Emotion+")")
		}
		response += line + "\n" + escapeMarkdown(m.Text) + "\n\n"
	}

	b.sendMarkdown(message.Chat.ID, response)
}

// Add this helper function to escape special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
