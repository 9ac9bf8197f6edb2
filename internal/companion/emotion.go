package companion

import (
	"math"
	"strings"
)

// Emotion is a facial-expression category reported by a face-analysis
// capability. The zero value means no emotion has been detected.
type Emotion string

const (
	EmotionNone      Emotion = ""
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionSurprised Emotion = "surprised"
	EmotionFearful   Emotion = "fearful"
	EmotionDisgusted Emotion = "disgusted"
	EmotionNeutral   Emotion = "neutral"
)

// Emotions lists the defined emotions in canonical order.
func Emotions() []Emotion {
	return []Emotion{
		EmotionHappy,
		EmotionSad,
		EmotionAngry,
		EmotionSurprised,
		EmotionFearful,
		EmotionDisgusted,
		EmotionNeutral,
	}
}

// ParseEmotion is case-insensitive. Unknown names map to EmotionNone.
func ParseEmotion(s string) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Emotions() {
		if e == known {
			return e
		}
	}
	return EmotionNone
}

// DominantEmotion picks the highest scoring expression in a face-analysis
// sample. The result is accepted only when its score is strictly above
// threshold. Equal scores resolve to the emotion that comes first in
// Emotions(). NaN scores are ignored.
func DominantEmotion(scores map[string]float64, threshold float64) (Emotion, bool) {
	best := EmotionNone
	bestScore := 0.0
	for _, e := range Emotions() {
		score, ok := scores[string(e)]
		if !ok || math.IsNaN(score) {
			continue
		}
		if best == EmotionNone || score > bestScore {
			best, bestScore = e, score
		}
	}
	if best == EmotionNone || bestScore <= threshold {
		return EmotionNone, false
	}
	return best, true
}
