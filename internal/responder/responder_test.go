package responder

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/safefit-bot/internal/companion"
	"go.uber.org/zap"
)

func TestKeywordResponder(t *testing.T) {
	r := NewKeywordResponder()
	ctx := context.Background()

	assert.Equal(t, companion.ReplyToText("workout"), r.Reply(ctx, Request{Text: "workout"}))
	assert.Equal(t,
		companion.ReplyToTextWithEmotion("workout", companion.EmotionSad),
		r.Reply(ctx, Request{Text: "workout", Emotion: companion.EmotionSad}))
}

type fakeOpenAI struct {
	mu       sync.Mutex
	status   int
	reply    string
	requests []map[string]any
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req map[string]any
	_ = json.Unmarshal(body, &req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	status, reply := f.status, f.reply
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-test",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": reply},
		}},
	})
}

func (f *fakeOpenAI) last() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestGPT(t *testing.T, f *fakeOpenAI, cfg GPTConfig) *GPTResponder {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL + "/v1"
	if cfg.Model == "" {
		cfg.Model = "gpt-test"
	}
	return NewGPTResponder(cfg, nil, zap.NewNop())
}

func messagesOf(req map[string]any) []any {
	msgs, _ := req["messages"].([]any)
	return msgs
}

func TestGPTResponder_NoKeyFallsBack(t *testing.T) {
	r := NewGPTResponder(GPTConfig{}, nil, zap.NewNop())
	got := r.Reply(context.Background(), Request{Text: "I'm tired"})
	assert.Equal(t, companion.ReplyToText("I'm tired"), got)
}

func TestGPTResponder_ReplyAndHistory(t *testing.T) {
	f := &fakeOpenAI{reply: "  Drink some water, bro!  "}
	r := newTestGPT(t, f, GPTConfig{HistoryTurns: 1})
	ctx := context.Background()

	got := r.Reply(ctx, Request{UserID: 1, Text: "hello", Emotion: companion.EmotionHappy})
	assert.Equal(t, "Drink some water, bro!", got)

	first := messagesOf(f.last())
	require.Len(t, first, 2)
	assert.Equal(t, "system", first[0].(map[string]any)["role"])
	assert.Contains(t, first[1].(map[string]any)["content"], "User's detected emotion: happy")

	r.Reply(ctx, Request{UserID: 1, Text: "second"})
	assert.Len(t, messagesOf(f.last()), 4, "system + one remembered turn + new message")

	r.Reply(ctx, Request{UserID: 1, Text: "third"})
	assert.Len(t, messagesOf(f.last()), 4, "window keeps a single turn")

	r.Reply(ctx, Request{UserID: 2, Text: "other user"})
	assert.Len(t, messagesOf(f.last()), 2)

	r.Reset(1)
	r.Reply(ctx, Request{UserID: 1, Text: "fresh"})
	assert.Len(t, messagesOf(f.last()), 2)
}

func TestGPTResponder_ImagePart(t *testing.T) {
	f := &fakeOpenAI{reply: "Nice salad!"}
	r := newTestGPT(t, f, GPTConfig{})

	got := r.Reply(context.Background(), Request{UserID: 1, Text: "my lunch", ImageURL: "https://example.com/lunch.jpg"})
	assert.Equal(t, "Nice salad!", got)

	msgs := messagesOf(f.last())
	require.Len(t, msgs, 2)
	parts, ok := msgs[1].(map[string]any)["content"].([]any)
	require.True(t, ok, "image turns use multi-part content")
	require.Len(t, parts, 2)
	assert.Equal(t, "image_url", parts[1].(map[string]any)["type"])
}

func TestGPTResponder_ErrorsFallBack(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusTooManyRequests, http.StatusBadRequest} {
		f := &fakeOpenAI{status: status}
		r := newTestGPT(t, f, GPTConfig{HistoryTurns: 3})

		got := r.Reply(context.Background(), Request{UserID: 1, Text: "exercise", Emotion: companion.EmotionAngry})
		assert.Equal(t, companion.ReplyToTextWithEmotion("exercise", companion.EmotionAngry), got, "status %d", status)
	}
}

func TestGPTResponder_BadRequestResetsHistory(t *testing.T) {
	f := &fakeOpenAI{reply: "ok"}
	r := newTestGPT(t, f, GPTConfig{HistoryTurns: 3})
	ctx := context.Background()

	r.Reply(ctx, Request{UserID: 1, Text: "one"})
	assert.Len(t, r.recent(1), 2)

	f.mu.Lock()
	f.status = http.StatusBadRequest
	f.mu.Unlock()
	r.Reply(ctx, Request{UserID: 1, Text: "two"})
	assert.Empty(t, r.recent(1))
}

func TestGPTResponder_EmptyReplyFallsBack(t *testing.T) {
	f := &fakeOpenAI{reply: "   "}
	r := newTestGPT(t, f, GPTConfig{})

	got := r.Reply(context.Background(), Request{UserID: 1, Text: "diet"})
	assert.Equal(t, companion.ReplyToText("diet"), got)
}

func TestGPTResponder_Throttled(t *testing.T) {
	f := &fakeOpenAI{reply: "from gpt"}
	r := newTestGPT(t, f, GPTConfig{RequestsPerSecond: 0.001, Burst: 1})
	ctx := context.Background()

	assert.Equal(t, "from gpt", r.Reply(ctx, Request{UserID: 1, Text: "hi"}))
	got := r.Reply(ctx, Request{UserID: 1, Text: "motivation"})
	assert.True(t, strings.HasPrefix(got, "Everyone has those days!"))
}
