package companion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyToText_Fallback(t *testing.T) {
	assert.Equal(t, fallbackReply, ReplyToText(""))
	assert.Equal(t, fallbackReply, ReplyToText("what's the weather like?"))
	assert.Equal(t, TopicGeneral, Classify(""))
}

func TestReplyToText_Topics(t *testing.T) {
	tests := []struct {
		input string
		topic Topic
	}{
		{"I need a workout plan", TopicFitness},
		{"Any EXERCISE tips?", TopicFitness},
		{"what food should I eat", TopicNutrition},
		{"help with my diet", TopicNutrition},
		{"I can't sleep", TopicSleep},
		{"I feel anxious today", TopicStress},
		{"my anxiety is bad", TopicStress},
		{"I'm so lazy", TopicMotivation},
		{"need motivation", TopicMotivation},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.topic, Classify(tt.input))
			assert.NotEqual(t, fallbackReply, ReplyToText(tt.input))
		})
	}
}

func TestReplyToText_PriorityOrder(t *testing.T) {
	sleep := ReplyToText("sleep")
	assert.Equal(t, sleep, ReplyToText("I'm tired and stressed"))
	assert.Equal(t, TopicFitness, Classify("I'm tired after my workout"))
	assert.Equal(t, TopicNutrition, Classify("stress eating junk food"))
}

func TestReplyToTextWithEmotion(t *testing.T) {
	inputs := []string{"", "workout", "I'm tired and stressed", "hello"}
	for _, in := range inputs {
		base := ReplyToText(in)
		for _, e := range []Emotion{EmotionHappy, EmotionSad, EmotionAngry, EmotionSurprised} {
			got := ReplyToTextWithEmotion(in, e)
			assert.Contains(t, got, base)
			assert.Greater(t, len(got), len(base))
			assert.False(t, strings.HasPrefix(got, base), "wrapper should precede the reply")
			assert.False(t, strings.HasSuffix(got, base), "wrapper should follow the reply")
		}
		for _, e := range []Emotion{EmotionFearful, EmotionDisgusted, EmotionNeutral, EmotionNone, Emotion("bored")} {
			assert.Equal(t, base, ReplyToTextWithEmotion(in, e))
		}
	}

	assert.Contains(t, ReplyToTextWithEmotion("workout", EmotionHappy), "Keep that smile going!")
}

func TestReactToEmotionChange(t *testing.T) {
	seen := make(map[string]Emotion)
	for _, e := range Emotions() {
		r := ReactToEmotionChange(e)
		assert.NotEmpty(t, r, e)
		if prev, dup := seen[r]; dup {
			t.Errorf("%s and %s share a reaction", prev, e)
		}
		seen[r] = e
	}
	assert.NotEqual(t, ReactToEmotionChange(EmotionHappy), ReactToEmotionChange(EmotionSad))
	assert.Equal(t, ReactToEmotionChange(EmotionNeutral), ReactToEmotionChange(EmotionNone))
	assert.Equal(t, ReactToEmotionChange(EmotionNeutral), ReactToEmotionChange(Emotion("confused")))
}

func TestIdempotent(t *testing.T) {
	in := "diet and sleep"
	assert.Equal(t, ReplyToText(in), ReplyToText(in))
	assert.Equal(t, ReplyToTextWithEmotion(in, EmotionAngry), ReplyToTextWithEmotion(in, EmotionAngry))
	assert.Equal(t, ReactToEmotionChange(EmotionFearful), ReactToEmotionChange(EmotionFearful))
}
