package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/safefit-bot/internal/models"
	"go.uber.org/zap"
)

func newMockPostgres(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStorageFromDB(db, zap.NewNop()), mock
}

// utcTime matches a time.Time argument stored in UTC.
type utcTime struct{}

func (utcTime) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	return ok && t.Location() == time.UTC
}

func TestPlaceholderRewrite(t *testing.T) {
	s := &sqlStore{numbered: true}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", s.q("SELECT a FROM t WHERE x = ? AND y = ?"))

	s.numbered = false
	assert.Equal(t, "WHERE x = ?", s.q("WHERE x = ?"))
}

func TestPostgresStorage_GetUser(t *testing.T) {
	s, mock := newMockPostgres(t)
	ctx := context.Background()
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta("SELECT tier, subscribed, end_date, passkey_hash, last_used_at")

	mock.ExpectQuery(query).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"tier", "subscribed", "end_date", "passkey_hash", "last_used_at"}).
			AddRow("premium", true, end, "", time.Now()))

	u, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "premium", u.Tier)
	assert.True(t, u.Subscribed)
	assert.Equal(t, end, u.EndDate)

	mock.ExpectQuery(query).
		WithArgs(int64(2)).
		WillReturnError(sql.ErrNoRows)

	u, err = s.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "free", u.Tier)
	assert.False(t, u.Subscribed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_UpdateUser(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, tier, subscribed, end_date, passkey_hash, last_used_at)")).
		WithArgs(int64(3), "basic", true, sqlmock.AnyArg(), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.UpdateUser(context.Background(), &models.User{ID: 3, Tier: "basic", Subscribed: true, EndDate: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_Contacts(t *testing.T) {
	s, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO emergency_contacts")).
		WithArgs(sqlmock.AnyArg(), int64(4), "Mom", "+911", int64(0), utcTime{}, utcTime{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	c := &models.EmergencyContact{UserID: 4, Name: "Mom", Number: "+911"}
	require.NoError(t, s.AddContact(ctx, c))
	assert.NotEmpty(t, c.ID)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "contact_name", "contact_number", "chat_id", "created_at", "updated_at"}).
			AddRow(c.ID, int64(4), "Mom", "+911", int64(0), now, now))
	list, err := s.ListContacts(ctx, 4)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mom", list[0].Name)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2")).
		WithArgs("missing", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.DeleteContact(ctx, 4, "missing"), ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE emergency_contacts")).
		WithArgs("Mother", "+912", int64(777), utcTime{}, c.ID, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.UpdateContact(ctx, &models.EmergencyContact{ID: c.ID, UserID: 4, Name: "Mother", Number: "+912", ChatID: 777}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_ListMetrics(t *testing.T) {
	s, mock := newMockPostgres(t)
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND recorded_at >= $2")).
		WithArgs(int64(5), since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "metric_type", "value", "unit", "recorded_at"}).
			AddRow("m1", int64(5), "steps", 8000.0, "", since.Add(time.Hour)))

	list, err := s.ListMetrics(context.Background(), 5, since)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 8000.0, list[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_GetProfileNotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE user_id = $1")).
		WithArgs(int64(6)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetProfile(context.Background(), 6)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_StoresUTC(t *testing.T) {
	s, mock := newMockPostgres(t)
	ctx := context.Background()
	local := time.Date(2026, 11, 1, 1, 30, 0, 0, time.FixedZone("EDT", -4*3600))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).
		WithArgs(sqlmock.AnyArg(), int64(7), "hi", true, "", "", local.UTC()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.SaveMessage(ctx, &models.Message{UserID: 7, Text: "hi", IsUser: true, CreatedAt: local}))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(int64(7), "basic", true, utcTime{}, "", utcTime{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.UpdateUser(ctx, &models.User{ID: 7, Tier: "basic", Subscribed: true, EndDate: local}))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WithArgs(int64(7), "Sam", 0, "", "", "", "", utcTime{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.SaveProfile(ctx, &models.Profile{UserID: 7, Name: "Sam"}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_MessagesDefaultLimit(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
		WithArgs(int64(8), DefaultMessageLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "text", "is_user", "emotion", "image_ref", "created_at"}))

	msgs, err := s.GetUserMessages(context.Background(), 8, 0, -1)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_Reminders(t *testing.T) {
	s, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reminders (id, user_id, chat_id, medicine_name, dosage, clock, created_at)")).
		WithArgs(sqlmock.AnyArg(), int64(9), int64(9), "Vitamin D", "1 tablet", "09:00", utcTime{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	r := &models.Reminder{UserID: 9, ChatID: 9, Medicine: "Vitamin D", Dosage: "1 tablet", Clock: "09:00"}
	require.NoError(t, s.AddReminder(ctx, r))
	assert.NotEmpty(t, r.ID)

	sent := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	columns := []string{"id", "user_id", "chat_id", "medicine_name", "dosage", "clock", "last_sent_at", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM reminders")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(r.ID, int64(9), int64(9), "Vitamin D", "1 tablet", "09:00", nil, sent).
			AddRow("r2", int64(10), int64(10), "Iron", "", "21:00", sent, sent))
	all, err := s.AllReminders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].LastSentAt.IsZero())
	assert.Equal(t, sent, all[1].LastSentAt)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reminders SET last_sent_at = $1 WHERE id = $2")).
		WithArgs(utcTime{}, "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.MarkReminderSent(ctx, "gone", time.Now()), ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reminders WHERE id = $1 AND user_id = $2")).
		WithArgs(r.ID, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.DeleteReminder(ctx, 9, r.ID))

	assert.NoError(t, mock.ExpectationsWereMet())
}
