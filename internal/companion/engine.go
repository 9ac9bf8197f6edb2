// Package companion is the offline reply engine of the wellness companion.
// Every function here is a pure lookup over static tables, usable from any
// goroutine, and always produces a non-empty reply.
package companion

import "strings"

// Topic identifies which canned answer a message matched.
type Topic string

const (
	TopicFitness    Topic = "fitness"
	TopicNutrition  Topic = "nutrition"
	TopicSleep      Topic = "sleep"
	TopicStress     Topic = "stress"
	TopicMotivation Topic = "motivation"
	TopicGeneral    Topic = "general"
)

type keywordGroup struct {
	topic    Topic
	keywords []string
	reply    string
}

// Checked in order; the first group with a matching keyword wins.
var keywordGroups = []keywordGroup{
	{
		topic:    TopicFitness,
		keywords: []string{"workout", "exercise"},
		reply:    "Let's get you moving, champ! 💪 I recommend starting with a balanced routine: 30 minutes of cardio 3x weekly plus 2 strength training sessions. Want me to create a personalized plan for you?",
	},
	{
		topic:    TopicNutrition,
		keywords: []string{"diet", "nutrition", "food"},
		reply:    "Nutrition is your superpower! 🥗 Focus on colorful whole foods, lean proteins, and plenty of water. Think of it as fueling your awesome body! Need some tasty meal ideas?",
	},
	{
		topic:    TopicSleep,
		keywords: []string{"sleep", "tired"},
		reply:    "Sleep is when the magic happens! 😴 Aim for 7-9 hours in a cool, dark room. Your body repairs and grows stronger while you dream. Want some bedtime routine tips?",
	},
	{
		topic:    TopicStress,
		keywords: []string{"stress", "anxious", "anxiety"},
		reply:    "Stress happens to the best of us! 🌱 Try the 4-7-8 breathing technique: inhale for 4, hold for 7, exhale for 8. You've got this, and I believe in you!",
	},
	{
		topic:    TopicMotivation,
		keywords: []string{"motivation", "lazy"},
		reply:    "Everyone has those days! 🚀 Remember why you started this journey. Start small - even 5 minutes counts! Progress, not perfection, is the goal!",
	},
}

const fallbackReply = "That's a fantastic question! 🌟 As your wellness buddy, I'm here to help you thrive! Whether it's fitness, nutrition, or mindset - we'll tackle it together! What aspect interests you most?"

// Classify returns the topic of input using the keyword priority order.
func Classify(input string) Topic {
	topic, _ := match(input)
	return topic
}

// ReplyToText returns the canned answer for the first keyword group found in
// input, or a general answer when nothing matches.
func ReplyToText(input string) string {
	_, reply := match(input)
	return reply
}

func match(input string) (Topic, string) {
	lower := strings.ToLower(input)
	for _, g := range keywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.topic, g.reply
			}
		}
	}
	return TopicGeneral, fallbackReply
}

// ReplyToTextWithEmotion wraps ReplyToText(input) in a sentence before and
// after it that fits the detected emotion. Emotions without a wrapper return
// the base reply unchanged.
func ReplyToTextWithEmotion(input string, emotion Emotion) string {
	base := ReplyToText(input)

	var prefix, suffix string
	switch emotion {
	case EmotionHappy:
		prefix, suffix = "Your positive energy is contagious! 😄", "Keep that smile going!"
	case EmotionSad:
		prefix, suffix = "I can see you're feeling down, but I'm here for you.", "Remember, every small step counts! 🌈"
	case EmotionAngry:
		prefix, suffix = "I sense some frustration. Let's channel that energy positively!", "Take a deep breath with me! 🧘‍♂️"
	case EmotionSurprised:
		prefix, suffix = "You look amazed!", "I love seeing that curiosity! ✨"
	case EmotionFearful, EmotionDisgusted, EmotionNeutral, EmotionNone:
		return base
	default:
		return base
	}

	return prefix + " " + base + " " + suffix
}

// ReactToEmotionChange returns a proactive message for a newly observed
// emotion. Callers decide when the emotion actually changed.
func ReactToEmotionChange(emotion Emotion) string {
	switch emotion {
	case EmotionHappy:
		return "I love seeing that smile! You're radiating positive energy! 😊"
	case EmotionSad:
		return "Hey, I notice you seem a bit down. Remember, I'm here for you. Want to talk about it? 🤗"
	case EmotionAngry:
		return "You look a bit frustrated, buddy. Let's take a deep breath together and work through this. 😌"
	case EmotionSurprised:
		return "Whoa! You look surprised! Did I say something amazing? 😲"
	case EmotionFearful:
		return "You seem worried. Don't worry, I'm here to help you feel better! 💪"
	case EmotionDisgusted:
		return "Not feeling great about something? Let's find a way to turn that around! 🌟"
	case EmotionNeutral, EmotionNone:
		return defaultReaction
	default:
		return defaultReaction
	}
}

const defaultReaction = "I can see your expression - thanks for letting me read your mood! 👁️"
