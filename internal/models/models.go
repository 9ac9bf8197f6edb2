package models

import "time"

// Message is one entry of a user's conversation with the companion
type Message struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Emotion   string    `json:"emotion,omitempty"`
	ImageRef  string    `json:"image_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// User represents a bot user with their subscription state
type User struct {
	ID         int64     `json:"id"`
	Tier       string    `json:"tier"`
	Subscribed bool      `json:"subscribed"`
	EndDate    time.Time `json:"end_date"`
	Passkey    string    `json:"-"` // bcrypt hash, never exposed
	LastUsedAt time.Time `json:"last_used_at"`
}

// Profile holds the medical card shown to responders during an SOS
type Profile struct {
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	BloodGroup string    `json:"blood_group"`
	Allergies  string    `json:"allergies"`
	Conditions string    `json:"conditions"`
	Phone      string    `json:"phone"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type EmergencyContact struct {
	ID     string `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"contact_name"`
	Number string `json:"contact_number"`
	// ChatID is the contact's Telegram chat, 0 when they only have a phone
	// number. Shared locations are forwarded there.
	ChatID    int64     `json:"chat_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HealthMetric is a single recorded vital such as heart rate or steps
type HealthMetric struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Type       string    `json:"metric_type"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Reminder is a daily medicine reminder. Clock is "HH:MM" in the bot's
// local time.
type Reminder struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	ChatID     int64     `json:"chat_id"`
	Medicine   string    `json:"medicine_name"`
	Dosage     string    `json:"dosage,omitempty"`
	Clock      string    `json:"time"`
	LastSentAt time.Time `json:"last_sent_at"`
	CreatedAt  time.Time `json:"created_at"`
}
