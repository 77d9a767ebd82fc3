// Package empathy produces supportive replies from emotion-keyed templates.
package empathy

import (
	"math/rand"

	"github.com/edgesoul/edgesoul/internal/types"
)

// Intensity buckets an emotion confidence into a template tier.
type Intensity string

const (
	IntensityHigh   Intensity = "high"
	IntensityMedium Intensity = "medium"
	IntensityLow    Intensity = "low"
)

// IntensityFor maps a 0-100 confidence onto a tier.
func IntensityFor(confidence float64) Intensity {
	switch {
	case confidence > 75:
		return IntensityHigh
	case confidence > 40:
		return IntensityMedium
	default:
		return IntensityLow
	}
}

var supportTemplates = map[types.Emotion]map[Intensity][]string{
	types.EmotionSadness: {
		IntensityHigh: {
			"I can see you're really struggling right now. Your feelings are completely valid, and it's okay to feel this way. You're stronger than you think, and I'm here to support you through this. What would help you feel better right now?",
			"I hear you, and I want you to know that you're not alone in this. This is a difficult moment, but it doesn't define you. You have the strength to get through this, and I believe in you. Want to talk about what's going on?",
		},
		IntensityMedium: {
			"I can tell something's bothering you, and I'm here to listen. It's okay to feel down sometimes - it's part of being human. Let's work through this together. What's on your mind?",
			"You seem like you're going through a tough time. Remember that difficult moments help us grow. I'm here to support you. How can I help?",
		},
		IntensityLow: {
			"Something seems to be on your mind. I'm here if you want to talk about it. What's going on?",
			"I'm sensing you might be feeling a bit off. Want to share what's bothering you?",
		},
	},
	types.EmotionAnger: {
		IntensityHigh: {
			"I can feel your frustration, and it's completely understandable to feel this way. Let's take a moment together and think about how to handle this situation constructively. What happened?",
			"You're clearly upset, and that's okay. Your feelings matter. Let's talk through this and figure out the best way forward. I'm here to help.",
		},
		IntensityMedium: {
			"I can see you're frustrated. It's okay to feel annoyed sometimes. Let's work through this together. What's bothering you?",
			"Sounds like something really got to you. I'm here to listen and help you process this. What's going on?",
		},
		IntensityLow: {
			"Something seems to have irritated you. Want to talk about it?",
			"I'm picking up on some frustration. How can I help?",
		},
	},
	types.EmotionFear: {
		IntensityHigh: {
			"I can sense you're feeling really anxious right now. It's okay to be scared - it means you care. You're braver than you think, and I'm here with you. Let's break this down together. What's worrying you?",
			"I hear the worry in your words. Fear is natural, but you don't have to face it alone. You've got this, and I'm here to support you. Want to talk through what's making you anxious?",
		},
		IntensityMedium: {
			"It sounds like something's making you a bit anxious. That's completely normal. Let's work through this worry together. What's on your mind?",
			"I can sense some concern here. It's okay to feel uncertain sometimes. I'm here to help you feel more confident. What's bothering you?",
		},
		IntensityLow: {
			"Something seems to be causing a bit of worry. Want to talk it through?",
			"I'm sensing some mild concern. How can I help ease your mind?",
		},
	},
	types.EmotionJoy: {
		IntensityHigh: {
			"I can hear the excitement in your message! That's wonderful - tell me more about what's making you so happy!",
			"Your energy is contagious! I love seeing you this happy. What's got you feeling so great?",
		},
		IntensityMedium: {
			"You sound like you're in a good mood! What's going well for you?",
			"I'm glad things are looking up! Want to share what's making you smile?",
		},
		IntensityLow: {
			"Sounds like there's something positive going on. What's up?",
		},
	},
	types.EmotionLove: {
		IntensityHigh: {
			"I can feel the passion in your words. That kind of warmth is special - tell me more!",
			"That's so heartfelt! It's lovely to hear you care this deeply. What's on your mind?",
		},
		IntensityMedium: {
			"I can feel the warmth in your message. What's bringing out these feelings?",
		},
		IntensityLow: {
			"That sounds really sweet. Want to tell me more?",
		},
	},
	types.EmotionSurprise: {
		IntensityHigh: {
			"That does sound surprising! I'd love to hear the whole story - what happened?",
			"Wow, that must have caught you off guard! Tell me more!",
		},
		IntensityMedium: {
			"That sounds unexpected! What happened?",
		},
		IntensityLow: {
			"Sounds like something caught your attention. What's going on?",
		},
	},
}

var defaultTemplates = []string{
	"I'm here for you. Your feelings matter, and I want to understand what you're going through.",
	"I hear you, and I'm here to support you. Want to talk more about what's on your mind?",
}

// Generator picks supportive replies. The rand source is injected so tests
// can make selection deterministic.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator builds a Generator from the given source. A nil source falls
// back to a fixed-seed source, which is fine: variety across one process run
// matters more than unpredictability.
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewSource(1)
	}
	return &Generator{rng: rand.New(src)}
}

// Generate returns a supportive reply for the reading. Unknown emotions and
// neutral fall back to the generic templates.
func (g *Generator) Generate(reading types.EmotionReading) string {
	tiers, ok := supportTemplates[reading.Primary]
	if !ok {
		return g.pick(defaultTemplates)
	}
	candidates := tiers[IntensityFor(reading.Confidence)]
	if len(candidates) == 0 {
		return g.pick(defaultTemplates)
	}
	return g.pick(candidates)
}

func (g *Generator) pick(candidates []string) string {
	return candidates[g.rng.Intn(len(candidates))]
}
