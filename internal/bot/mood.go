package bot

import (
	"math"
	"strconv"
	"strings"

	"github.com/xaenox/safefit-bot/internal/companion"
)

// parseMoodSample reads "/mood" arguments. A single emotion name is taken as
// is; "name=score" pairs go through the dominance threshold.
func parseMoodSample(args string, threshold float64) (companion.Emotion, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return companion.EmotionNone, false
	}

	if len(fields) == 1 && !strings.Contains(fields[0], "=") {
		e := companion.ParseEmotion(fields[0])
		return e, e != companion.EmotionNone
	}

	scores := make(map[string]float64, len(fields))
	for _, f := range fields {
		name, raw, ok := strings.Cut(f, "=")
		if !ok {
			return companion.EmotionNone, false
		}
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
			return companion.EmotionNone, false
		}
		scores[strings.ToLower(name)] = score
	}
	return companion.DominantEmotion(scores, threshold)
}
