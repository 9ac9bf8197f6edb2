package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/safefit-bot/internal/access"
	"github.com/xaenox/safefit-bot/internal/models"
	"go.uber.org/zap"
)

// sqlStore implements Storage over database/sql. Queries are written with
// '?' placeholders and rewritten for drivers that number them. Times are
// stored in UTC so that text timestamps in sqlite sort correctly.
type sqlStore struct {
	db       *sql.DB
	numbered bool
	logger   *zap.Logger
}

func (s *sqlStore) q(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{ID: id}
	var endDate sql.NullTime
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT tier, subscribed, end_date, passkey_hash, last_used_at
		FROM users WHERE id = ?`), id).
		Scan(&user.Tier, &user.Subscribed, &endDate, &user.Passkey, &user.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.User{
			ID:         id,
			Tier:       string(access.TierFree),
			LastUsedAt: time.Now(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if endDate.Valid {
		user.EndDate = endDate.Time
	}
	return user, nil
}

func (s *sqlStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.LastUsedAt = time.Now()
	var endDate sql.NullTime
	if !user.EndDate.IsZero() {
		endDate = sql.NullTime{Time: user.EndDate.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO users (id, tier, subscribed, end_date, passkey_hash, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			tier = excluded.tier,
			subscribed = excluded.subscribed,
			end_date = excluded.end_date,
			passkey_hash = excluded.passkey_hash,
			last_used_at = excluded.last_used_at`),
		user.ID, user.Tier, user.Subscribed, endDate, user.Passkey, user.LastUsedAt.UTC())
	if err != nil {
		s.logger.Error("Failed to update user", zap.Error(err), zap.Int64("user_id", user.ID))
		return fmt.Errorf("error updating user: %w", err)
	}
	return nil
}

func (s *sqlStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO messages (id, user_id, text, is_user, emotion, image_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		msg.ID, msg.UserID, msg.Text, msg.IsUser, msg.Emotion, msg.ImageRef, msg.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("error saving message: %w", err)
	}
	return nil
}

func (s *sqlStore) GetUserMessages(ctx context.Context, userID int64, limit, offset int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, user_id, text, is_user, emotion, image_ref, created_at
		FROM messages
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`), userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.Text, &m.IsUser, &m.Emotion, &m.ImageRef, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

func (s *sqlStore) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	p := &models.Profile{UserID: userID}
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT name, age, blood_group, allergies, conditions, phone, updated_at
		FROM profiles WHERE user_id = ?`), userID).
		Scan(&p.Name, &p.Age, &p.BloodGroup, &p.Allergies, &p.Conditions, &p.Phone, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting profile: %w", err)
	}
	return p, nil
}

func (s *sqlStore) SaveProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO profiles (user_id, name, age, blood_group, allergies, conditions, phone, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			age = excluded.age,
			blood_group = excluded.blood_group,
			allergies = excluded.allergies,
			conditions = excluded.conditions,
			phone = excluded.phone,
			updated_at = excluded.updated_at`),
		p.UserID, p.Name, p.Age, p.BloodGroup, p.Allergies, p.Conditions, p.Phone, p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("error saving profile: %w", err)
	}
	return nil
}

func (s *sqlStore) AddContact(ctx context.Context, c *models.EmergencyContact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO emergency_contacts (id, user_id, contact_name, contact_number, chat_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.UserID, c.Name, c.Number, c.ChatID, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("error adding contact: %w", err)
	}
	return nil
}

func (s *sqlStore) ListContacts(ctx context.Context, userID int64) ([]*models.EmergencyContact, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, user_id, contact_name, contact_number, chat_id, created_at, updated_at
		FROM emergency_contacts
		WHERE user_id = ?
		ORDER BY created_at ASC`), userID)
	if err != nil {
		return nil, fmt.Errorf("error querying contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*models.EmergencyContact{}
	for rows.Next() {
		c := &models.EmergencyContact{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Number, &c.ChatID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return contacts, nil
}

func (s *sqlStore) UpdateContact(ctx context.Context, c *models.EmergencyContact) error {
	c.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx, s.q(`
		UPDATE emergency_contacts
		SET contact_name = ?, contact_number = ?, chat_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		c.Name, c.Number, c.ChatID, c.UpdatedAt.UTC(), c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("error updating contact: %w", err)
	}
	return expectAffected(result)
}

func (s *sqlStore) DeleteContact(ctx context.Context, userID int64, id string) error {
	result, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM emergency_contacts WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("error deleting contact: %w", err)
	}
	return expectAffected(result)
}

func (s *sqlStore) AddMetric(ctx context.Context, m *models.HealthMetric) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO user_metrics (id, user_id, metric_type, value, unit, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		m.ID, m.UserID, m.Type, m.Value, m.Unit, m.RecordedAt.UTC())
	if err != nil {
		return fmt.Errorf("error adding metric: %w", err)
	}
	return nil
}

func (s *sqlStore) ListMetrics(ctx context.Context, userID int64, since time.Time) ([]*models.HealthMetric, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, user_id, metric_type, value, unit, recorded_at
		FROM user_metrics
		WHERE user_id = ? AND recorded_at >= ?
		ORDER BY recorded_at DESC`), userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("error querying metrics: %w", err)
	}
	defer rows.Close()

	metrics := []*models.HealthMetric{}
	for rows.Next() {
		m := &models.HealthMetric{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.Type, &m.Value, &m.Unit, &m.RecordedAt); err != nil {
			return nil, fmt.Errorf("error scanning metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metrics: %w", err)
	}
	return metrics, nil
}

func (s *sqlStore) AddReminder(ctx context.Context, r *models.Reminder) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO reminders (id, user_id, chat_id, medicine_name, dosage, clock, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.UserID, r.ChatID, r.Medicine, r.Dosage, r.Clock, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("error adding reminder: %w", err)
	}
	return nil
}

func (s *sqlStore) ListReminders(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	return s.queryReminders(ctx, `
		SELECT id, user_id, chat_id, medicine_name, dosage, clock, last_sent_at, created_at
		FROM reminders
		WHERE user_id = ?
		ORDER BY created_at ASC`, userID)
}

func (s *sqlStore) AllReminders(ctx context.Context) ([]*models.Reminder, error) {
	return s.queryReminders(ctx, `
		SELECT id, user_id, chat_id, medicine_name, dosage, clock, last_sent_at, created_at
		FROM reminders
		ORDER BY created_at ASC`)
}

func (s *sqlStore) queryReminders(ctx context.Context, query string, args ...any) ([]*models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying reminders: %w", err)
	}
	defer rows.Close()

	reminders := []*models.Reminder{}
	for rows.Next() {
		r := &models.Reminder{}
		var lastSent sql.NullTime
		if err := rows.Scan(&r.ID, &r.UserID, &r.ChatID, &r.Medicine, &r.Dosage, &r.Clock, &lastSent, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning reminder: %w", err)
		}
		if lastSent.Valid {
			r.LastSentAt = lastSent.Time
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}
	return reminders, nil
}

func (s *sqlStore) DeleteReminder(ctx context.Context, userID int64, id string) error {
	result, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM reminders WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("error deleting reminder: %w", err)
	}
	return expectAffected(result)
}

func (s *sqlStore) MarkReminderSent(ctx context.Context, id string, sentAt time.Time) error {
	result, err := s.db.ExecContext(ctx, s.q(`
		UPDATE reminders SET last_sent_at = ? WHERE id = ?`), sentAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("error marking reminder sent: %w", err)
	}
	return expectAffected(result)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
