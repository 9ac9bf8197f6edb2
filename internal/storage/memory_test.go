package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/safefit-bot/internal/models"
)

// exerciseStorage runs the same behavioural checks against any backend.
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		u, err := s.GetUser(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "free", u.Tier)
		assert.False(t, u.Subscribed)

		end := time.Now().Add(90 * 24 * time.Hour).UTC().Truncate(time.Second)
		u.Tier, u.Subscribed, u.EndDate, u.Passkey = "basic", true, end, "hash"
		require.NoError(t, s.UpdateUser(ctx, u))

		got, err := s.GetUser(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "basic", got.Tier)
		assert.True(t, got.Subscribed)
		assert.True(t, end.Equal(got.EndDate))
		assert.Equal(t, "hash", got.Passkey)
	})

	t.Run("messages", func(t *testing.T) {
		base := time.Now().Add(-time.Hour)
		for i, text := range []string{"first", "second", "third"} {
			require.NoError(t, s.SaveMessage(ctx, &models.Message{
				UserID:    8,
				Text:      text,
				IsUser:    i%2 == 0,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}

		msgs, err := s.GetUserMessages(ctx, 8, 2, 0)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "third", msgs[0].Text)
		assert.Equal(t, "second", msgs[1].Text)

		msgs, err = s.GetUserMessages(ctx, 8, 5, 2)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "first", msgs[0].Text)
		assert.NotEmpty(t, msgs[0].ID)

		msgs, err = s.GetUserMessages(ctx, 99, 5, 0)
		require.NoError(t, err)
		assert.Empty(t, msgs)

		for i := 0; i < DefaultMessageLimit+3; i++ {
			require.NoError(t, s.SaveMessage(ctx, &models.Message{UserID: 13, Text: "x", CreatedAt: base.Add(time.Duration(i) * time.Second)}))
		}
		msgs, err = s.GetUserMessages(ctx, 13, 0, 0)
		require.NoError(t, err)
		assert.Len(t, msgs, DefaultMessageLimit)
	})

	t.Run("profiles", func(t *testing.T) {
		_, err := s.GetProfile(ctx, 9)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.SaveProfile(ctx, &models.Profile{UserID: 9, Name: "Asha", Age: 31, BloodGroup: "O+"}))
		require.NoError(t, s.SaveProfile(ctx, &models.Profile{UserID: 9, Name: "Asha", Age: 32, BloodGroup: "O+"}))

		p, err := s.GetProfile(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, 32, p.Age)
		assert.Equal(t, "O+", p.BloodGroup)
	})

	t.Run("contacts", func(t *testing.T) {
		mom := &models.EmergencyContact{UserID: 10, Name: "Mom", Number: "+911234"}
		require.NoError(t, s.AddContact(ctx, mom))
		time.Sleep(2 * time.Millisecond)
		dad := &models.EmergencyContact{UserID: 10, Name: "Dad", Number: "+915678"}
		require.NoError(t, s.AddContact(ctx, dad))
		require.NotEmpty(t, mom.ID)

		list, err := s.ListContacts(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Mom", list[0].Name)
		assert.Equal(t, "Dad", list[1].Name)

		require.NoError(t, s.UpdateContact(ctx, &models.EmergencyContact{ID: mom.ID, UserID: 10, Name: "Mother", Number: "+910000", ChatID: 555}))
		err = s.UpdateContact(ctx, &models.EmergencyContact{ID: mom.ID, UserID: 11, Name: "Hijack"})
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, s.DeleteContact(ctx, 11, dad.ID), ErrNotFound)
		require.NoError(t, s.DeleteContact(ctx, 10, dad.ID))
		assert.ErrorIs(t, s.DeleteContact(ctx, 10, dad.ID), ErrNotFound)

		list, err = s.ListContacts(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Mother", list[0].Name)
		assert.Equal(t, "+910000", list[0].Number)
		assert.Equal(t, int64(555), list[0].ChatID)
	})

	t.Run("metrics", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, s.AddMetric(ctx, &models.HealthMetric{UserID: 12, Type: "steps", Value: 100, RecordedAt: now.Add(-10 * 24 * time.Hour)}))
		require.NoError(t, s.AddMetric(ctx, &models.HealthMetric{UserID: 12, Type: "steps", Value: 200, RecordedAt: now.Add(-2 * time.Hour)}))
		require.NoError(t, s.AddMetric(ctx, &models.HealthMetric{UserID: 12, Type: "heart_rate", Value: 70, Unit: "bpm", RecordedAt: now.Add(-time.Hour)}))

		list, err := s.ListMetrics(ctx, 12, now.Add(-7*24*time.Hour))
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "heart_rate", list[0].Type)
		assert.Equal(t, 200.0, list[1].Value)
	})

	t.Run("reminders", func(t *testing.T) {
		created := time.Now().Add(-time.Hour)
		vitD := &models.Reminder{UserID: 14, ChatID: 14, Medicine: "Vitamin D", Dosage: "1 tablet", Clock: "09:00", CreatedAt: created}
		require.NoError(t, s.AddReminder(ctx, vitD))
		require.NotEmpty(t, vitD.ID)
		iron := &models.Reminder{UserID: 14, ChatID: 14, Medicine: "Iron", Clock: "21:00", CreatedAt: created.Add(time.Minute)}
		require.NoError(t, s.AddReminder(ctx, iron))
		require.NoError(t, s.AddReminder(ctx, &models.Reminder{UserID: 15, ChatID: 15, Medicine: "Statin", Clock: "22:00", CreatedAt: created}))

		list, err := s.ListReminders(ctx, 14)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Vitamin D", list[0].Medicine)
		assert.True(t, list[0].LastSentAt.IsZero())

		all, err := s.AllReminders(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		sent := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, s.MarkReminderSent(ctx, vitD.ID, sent))
		assert.ErrorIs(t, s.MarkReminderSent(ctx, "missing", sent), ErrNotFound)
		list, err = s.ListReminders(ctx, 14)
		require.NoError(t, err)
		assert.True(t, sent.Equal(list[0].LastSentAt))

		assert.ErrorIs(t, s.DeleteReminder(ctx, 15, iron.ID), ErrNotFound)
		require.NoError(t, s.DeleteReminder(ctx, 14, iron.ID))
		list, err = s.ListReminders(ctx, 14)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()
	exerciseStorage(t, s)
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.UpdateUser(ctx, &models.User{ID: 1, Tier: "premium", Subscribed: true}))
	u, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	u.Tier = "free"

	again, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "premium", again.Tier)
}
