package responder

import (
	"context"

	"github.com/xaenox/safefit-bot/internal/companion"
)

// Request is one user turn handed to a Responder.
type Request struct {
	UserID   int64
	Text     string
	Emotion  companion.Emotion
	ImageURL string
}

// Responder produces the companion's reply. Implementations never fail: when
// a backend is unavailable they answer from the keyword tables instead.
type Responder interface {
	Reply(ctx context.Context, req Request) string
	Reset(userID int64)
}

// KeywordResponder answers offline from the companion tables.
type KeywordResponder struct{}

func NewKeywordResponder() *KeywordResponder {
	return &KeywordResponder{}
}

func (KeywordResponder) Reply(_ context.Context, req Request) string {
	if req.Emotion == companion.EmotionNone {
		return companion.ReplyToText(req.Text)
	}
	return companion.ReplyToTextWithEmotion(req.Text, req.Emotion)
}

// Reset is a no-op, the keyword responder keeps no history.
func (KeywordResponder) Reset(int64) {}
