package responder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const systemPrompt = `You are BroAI, a friendly and supportive wellness companion. You help users with:
- Health and fitness advice
- Mental wellness and stress management
- Nutrition guidance
- Exercise recommendations
- Sleep hygiene tips
- General wellness questions

Keep your responses:
- Conversational and friendly (use "bro" occasionally but not excessively)
- Supportive and encouraging
- Practical and actionable
- Safe and responsible (always recommend consulting healthcare professionals for serious concerns)
- Concise but helpful (2-3 sentences usually)
- Remember previous parts of our conversation and build upon them

Remember: You are not a doctor. Always remind users to consult healthcare professionals for medical concerns.`

const imageInstruction = "[Please analyze this image from a wellness perspective. Focus on health, fitness, nutrition, or general wellness observations. Be supportive and encouraging.]"

type GPTConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	// HistoryTurns is how many previous user/assistant pairs are replayed.
	HistoryTurns int
	// RequestsPerSecond throttles calls to the API; 0 disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// GPTResponder answers through the OpenAI chat API and keeps a short
// conversation window per user. Every failure path falls back to the
// keyword responder.
type GPTResponder struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	turns       int
	limiter     *rate.Limiter
	fallback    Responder
	logger      *zap.Logger

	mu      sync.Mutex
	history map[int64][]openai.ChatCompletionMessage
}

func NewGPTResponder(cfg GPTConfig, fallback Responder, logger *zap.Logger) *GPTResponder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	if fallback == nil {
		fallback = NewKeywordResponder()
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		client = openai.NewClientWithConfig(clientCfg)
	}

	return &GPTResponder{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		turns:       cfg.HistoryTurns,
		limiter:     rate.NewLimiter(limit, burst),
		fallback:    fallback,
		logger:      logger,
		history:     make(map[int64][]openai.ChatCompletionMessage),
	}
}

func (r *GPTResponder) Reply(ctx context.Context, req Request) string {
	if r.client == nil {
		return r.fallback.Reply(ctx, req)
	}
	if !r.limiter.Allow() {
		r.logger.Warn("GPT request throttled, using keyword reply", zap.Int64("user_id", req.UserID))
		return r.fallback.Reply(ctx, req)
	}

	userMsg := buildUserMessage(req)
	messages := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: systemPrompt}}
	messages = append(messages, r.recent(req.UserID)...)
	messages = append(messages, userMsg)

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Messages:    messages,
		MaxTokens:   r.maxTokens,
		Temperature: float32(r.temperature),
	})
	if err != nil {
		r.handleError(req.UserID, err)
		return r.fallback.Reply(ctx, req)
	}
	if len(resp.Choices) == 0 {
		r.logger.Error("GPT returned no choices", zap.Int64("user_id", req.UserID))
		return r.fallback.Reply(ctx, req)
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		r.logger.Warn("GPT returned empty reply", zap.Int64("user_id", req.UserID))
		return r.fallback.Reply(ctx, req)
	}

	// images are not replayed, only the text of the turn
	r.remember(req.UserID,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: textWithContext(req)},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply})
	return reply
}

// Reset drops the conversation window for userID.
func (r *GPTResponder) Reset(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.history, userID)
}

func (r *GPTResponder) handleError(userID int64, err error) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			r.logger.Warn("GPT quota exceeded", zap.Int64("user_id", userID), zap.Error(err))
			return
		case http.StatusBadRequest:
			// a malformed history poisons every later request
			r.logger.Warn("GPT rejected request, resetting history", zap.Int64("user_id", userID), zap.Error(err))
			r.Reset(userID)
			return
		}
	}
	r.logger.Error("Failed to get GPT response", zap.Int64("user_id", userID), zap.Error(err))
}

func (r *GPTResponder) recent(userID int64) []openai.ChatCompletionMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.history[userID]
	out := make([]openai.ChatCompletionMessage, len(h))
	copy(out, h)
	return out
}

func (r *GPTResponder) remember(userID int64, msgs ...openai.ChatCompletionMessage) {
	if r.turns <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	h := append(r.history[userID], msgs...)
	if keep := r.turns * 2; len(h) > keep {
		h = append([]openai.ChatCompletionMessage(nil), h[len(h)-keep:]...)
	}
	r.history[userID] = h
}

func textWithContext(req Request) string {
	text := req.Text
	if req.Emotion != "" {
		text += fmt.Sprintf("\n[User's detected emotion: %s. Please respond with empathy and adjust your tone accordingly.]", req.Emotion)
	}
	return text
}

func buildUserMessage(req Request) openai.ChatCompletionMessage {
	text := textWithContext(req)
	if req.ImageURL == "" {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	}

	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: text + "\n" + imageInstruction},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    req.ImageURL,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}
}
