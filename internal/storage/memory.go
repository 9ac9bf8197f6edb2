package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/safefit-bot/internal/access"
	"github.com/xaenox/safefit-bot/internal/models"
)

type MemoryStorage struct {
	mu       sync.RWMutex
	users    map[int64]*models.User
	messages map[int64][]*models.Message
	profiles map[int64]*models.Profile
	contacts []*models.EmergencyContact // insertion order
	metrics  map[int64][]*models.HealthMetric
	// insertion order
	reminders []*models.Reminder
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:    make(map[int64]*models.User),
		messages: make(map[int64][]*models.Message),
		profiles: make(map[int64]*models.Profile),
		metrics:  make(map[int64][]*models.HealthMetric),
	}
}

// User methods
func (s *MemoryStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if user, exists := s.users[id]; exists {
		u := *user
		return &u, nil
	}
	return &models.User{
		ID:         id,
		Tier:       string(access.TierFree),
		LastUsedAt: time.Now(),
	}, nil
}

func (s *MemoryStorage) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.LastUsedAt = time.Now()
	u := *user
	s.users[user.ID] = &u
	return nil
}

// Message methods
func (s *MemoryStorage) SaveMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m := *msg
	s.messages[msg.UserID] = append(s.messages[msg.UserID], &m)
	return nil
}

func (s *MemoryStorage) GetUserMessages(ctx context.Context, userID int64, limit, offset int) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[userID]
	out := make([]*models.Message, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		m := *all[i]
		out = append(out, &m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	return page(out, limit, offset), nil
}

// Profile methods
func (s *MemoryStorage) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.profiles[userID]
	if !exists {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *MemoryStorage) SaveProfile(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.UpdatedAt = time.Now()
	p := *profile
	s.profiles[profile.UserID] = &p
	return nil
}

// Contact methods
func (s *MemoryStorage) AddContact(ctx context.Context, contact *models.EmergencyContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	c := *contact
	s.contacts = append(s.contacts, &c)
	return nil
}

func (s *MemoryStorage) ListContacts(ctx context.Context, userID int64) ([]*models.EmergencyContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.EmergencyContact{}
	for _, c := range s.contacts {
		if c.UserID == userID {
			cc := *c
			out = append(out, &cc)
		}
	}
	return out, nil
}

func (s *MemoryStorage) UpdateContact(ctx context.Context, contact *models.EmergencyContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findContact(contact.UserID, contact.ID)
	if i < 0 {
		return ErrNotFound
	}
	existing := s.contacts[i]
	existing.Name = contact.Name
	existing.Number = contact.Number
	existing.ChatID = contact.ChatID
	existing.UpdatedAt = time.Now()
	*contact = *existing
	return nil
}

func (s *MemoryStorage) DeleteContact(ctx context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findContact(userID, id)
	if i < 0 {
		return ErrNotFound
	}
	s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
	return nil
}

func (s *MemoryStorage) findContact(userID int64, id string) int {
	for i, c := range s.contacts {
		if c.ID == id && c.UserID == userID {
			return i
		}
	}
	return -1
}

// Metric methods
func (s *MemoryStorage) AddMetric(ctx context.Context, metric *models.HealthMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if metric.ID == "" {
		metric.ID = uuid.New().String()
	}
	if metric.RecordedAt.IsZero() {
		metric.RecordedAt = time.Now()
	}
	m := *metric
	s.metrics[metric.UserID] = append(s.metrics[metric.UserID], &m)
	return nil
}

func (s *MemoryStorage) ListMetrics(ctx context.Context, userID int64, since time.Time) ([]*models.HealthMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.HealthMetric{}
	for _, m := range s.metrics[userID] {
		if !m.RecordedAt.Before(since) {
			mm := *m
			out = append(out, &mm)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

// Reminder methods
func (s *MemoryStorage) AddReminder(ctx context.Context, reminder *models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reminder.ID == "" {
		reminder.ID = uuid.New().String()
	}
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now()
	}
	r := *reminder
	s.reminders = append(s.reminders, &r)
	return nil
}

func (s *MemoryStorage) ListReminders(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Reminder{}
	for _, r := range s.reminders {
		if r.UserID == userID {
			rr := *r
			out = append(out, &rr)
		}
	}
	return out, nil
}

func (s *MemoryStorage) AllReminders(ctx context.Context) ([]*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		rr := *r
		out = append(out, &rr)
	}
	return out, nil
}

func (s *MemoryStorage) DeleteReminder(ctx context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.reminders {
		if r.ID == id && r.UserID == userID {
			s.reminders = append(s.reminders[:i], s.reminders[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStorage) MarkReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.reminders {
		if r.ID == id {
			r.LastSentAt = sentAt
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
