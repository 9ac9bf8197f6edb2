package companion

import "sync"

// Tracker remembers the last emotion observed per user so that a caller only
// reacts when it changes. The engine itself never sees previous values.
type Tracker struct {
	mu      sync.Mutex
	current map[int64]Emotion
}

func NewTracker() *Tracker {
	return &Tracker{current: make(map[int64]Emotion)}
}

// Observe records emotion for userID and reports whether it differs from the
// previous observation.
func (t *Tracker) Observe(userID int64, emotion Emotion) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current[userID] == emotion {
		return false
	}
	t.current[userID] = emotion
	return true
}

// Current returns the last observed emotion, EmotionNone if there is none.
func (t *Tracker) Current(userID int64) Emotion {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current[userID]
}

// Reset forgets the user's emotion, e.g. after the camera is switched off.
func (t *Tracker) Reset(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.current, userID)
}
