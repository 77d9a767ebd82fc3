// Package tone frames generated answers to fit the user's emotional state
// and personality profile. Framing only prepends and appends clauses; the
// candidate answer text is never edited.
package tone

import (
	"strings"

	"github.com/edgesoul/edgesoul/internal/types"
)

type clauseSet struct {
	formal string
	casual string
}

// Opening acknowledgments per emotion. Two registers; formality picks one.
var openings = map[types.Emotion]clauseSet{
	types.EmotionJoy: {
		formal: "It is wonderful to hear your enthusiasm.",
		casual: "I love your energy!",
	},
	types.EmotionSadness: {
		formal: "I understand this may be a difficult moment.",
		casual: "I hear you, and I'm here for you.",
	},
	types.EmotionAnger: {
		formal: "I recognize this situation is frustrating.",
		casual: "That sounds really frustrating.",
	},
	types.EmotionFear: {
		formal: "It is understandable to feel concerned about this.",
		casual: "It's okay to feel worried - let's take this step by step.",
	},
	types.EmotionLove: {
		formal: "Your warmth comes through clearly.",
		casual: "I can feel the passion in your words!",
	},
	types.EmotionSurprise: {
		formal: "That is certainly an unexpected development.",
		casual: "Ooh, that's surprising!",
	},
}

var followUps = map[types.Emotion]string{
	types.EmotionJoy:      "What else has been going well for you?",
	types.EmotionSadness:  "Is there anything else on your mind you'd like to talk about?",
	types.EmotionAnger:    "Would it help to talk through what happened?",
	types.EmotionFear:     "What part of this worries you the most?",
	types.EmotionLove:     "What makes this so meaningful to you?",
	types.EmotionSurprise: "How did that come about?",
	types.EmotionNeutral:  "Is there anything else I can help you with?",
}

// Shaper applies profile-driven framing around a candidate answer.
type Shaper struct{}

func NewShaper() *Shaper {
	return &Shaper{}
}

// Shape frames the candidate. An empathy dial above 50 with a non-neutral
// reading earns an opening acknowledgment; proactiveness above 70 earns a
// follow-up question. The candidate itself passes through unchanged.
func (s *Shaper) Shape(candidate string, reading types.EmotionReading, profile types.UserProfile) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return candidate
	}

	var parts []string

	if profile.EmpathyLevel > 50 && reading.Primary != types.EmotionNeutral {
		if clause, ok := openings[reading.Primary]; ok {
			parts = append(parts, s.register(clause, profile))
		}
	}

	parts = append(parts, candidate)

	if profile.ProactivenessLevel > 70 && profile.VerbosityLevel > 40 {
		if q, ok := followUps[reading.Primary]; ok {
			parts = append(parts, q)
		}
	}

	return strings.Join(parts, " ")
}

func (s *Shaper) register(clause clauseSet, profile types.UserProfile) string {
	if profile.FormalityLevel >= 60 {
		return clause.formal
	}
	return clause.casual
}

// EmotionIntro returns the short acknowledgment prepended to hybrid answers.
func EmotionIntro(emotion types.Emotion) string {
	switch emotion {
	case types.EmotionJoy:
		return "I love your enthusiasm! Let's dive in."
	case types.EmotionLove:
		return "I can feel your passion! This is great."
	case types.EmotionSurprise:
		return "Ooh, interesting question!"
	case types.EmotionSadness:
		return "I'm here to help you learn."
	case types.EmotionFear:
		return "No need to worry - we'll figure this out together."
	case types.EmotionAnger:
		return "Let's channel that energy into getting you an answer."
	default:
		return ""
	}
}
