package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xaenox/safefit-bot/internal/models"
)

var ErrNotFound = errors.New("not found")

// DefaultMessageLimit is the page size GetUserMessages uses for limit <= 0.
const DefaultMessageLimit = 50

type Storage interface {
	UserStorage
	MessageStorage
	ProfileStorage
	ContactStorage
	MetricStorage
	ReminderStorage
	Close() error
}

// UserStorage keeps subscription state and the passkey hash. GetUser returns
// a fresh free user when none is stored yet.
type UserStorage interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// MessageStorage is the chat history. GetUserMessages returns newest first,
// at most limit messages, or DefaultMessageLimit when limit <= 0.
type MessageStorage interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetUserMessages(ctx context.Context, userID int64, limit, offset int) ([]*models.Message, error)
}

type ProfileStorage interface {
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
}

// ContactStorage lists contacts oldest first. Update and delete are scoped to
// the owning user and return ErrNotFound for someone else's contact.
type ContactStorage interface {
	AddContact(ctx context.Context, contact *models.EmergencyContact) error
	ListContacts(ctx context.Context, userID int64) ([]*models.EmergencyContact, error)
	UpdateContact(ctx context.Context, contact *models.EmergencyContact) error
	DeleteContact(ctx context.Context, userID int64, id string) error
}

// MetricStorage returns metrics recorded at or after since, newest first.
type MetricStorage interface {
	AddMetric(ctx context.Context, metric *models.HealthMetric) error
	ListMetrics(ctx context.Context, userID int64, since time.Time) ([]*models.HealthMetric, error)
}

// ReminderStorage keeps medicine reminders. ListReminders returns a user's
// reminders oldest first; AllReminders returns every user's for the
// scheduler.
type ReminderStorage interface {
	AddReminder(ctx context.Context, reminder *models.Reminder) error
	ListReminders(ctx context.Context, userID int64) ([]*models.Reminder, error)
	AllReminders(ctx context.Context) ([]*models.Reminder, error)
	DeleteReminder(ctx context.Context, userID int64, id string) error
	MarkReminderSent(ctx context.Context, id string, sentAt time.Time) error
}
