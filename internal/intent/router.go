// Package intent classifies a message into a response strategy.
package intent

import (
	"strings"

	"github.com/edgesoul/edgesoul/internal/types"
)

// Router decides the response strategy for a message. Classification is a
// pure function of its inputs: the same (text, reading) pair always yields
// the same route.
type Router struct {
	// HighConfidence is the floor (0-100) a non-neutral emotion must exceed
	// to pull routing toward emotional support.
	HighConfidence float64
}

// NewRouter returns a Router with the given confidence threshold.
func NewRouter(highConfidence float64) *Router {
	return &Router{HighConfidence: highConfidence}
}

var questionPrefixes = []string{
	"what is", "what are", "who is", "who are", "where is", "where are",
	"when is", "when are", "why is", "why are", "how is", "how does",
	"how do", "how can", "can you explain", "can you tell",
}

var knowledgePhrases = []string{
	"explain", "tell me about", "define", "describe", "teach me",
	"show me", "help me with", "calculate", "solve", "write a",
	"steps to", "difference between", "meaning of", "example of",
	"how to",
}

var distressPhrases = []string{
	"depress", "hurt", "crying", "devastated", "hopeless", "helpless",
	"worthless", "lonely", "alone", "no one", "nobody", "isolated",
	"not my fault", "blamed", "scolded",
}

// Classify routes a message. Decision order: knowledge patterns first, then
// emotional strength; both present means hybrid; ambiguity defaults to
// emotional support since a flat answer is worse than over-empathizing.
func (r *Router) Classify(text string, reading types.EmotionReading) types.ResponseType {
	lower := strings.ToLower(strings.TrimSpace(text))

	knowledge := hasKnowledgePattern(lower)
	strong := reading.Primary != types.EmotionNeutral && reading.Confidence > r.HighConfidence

	// Distress wording forces support even at moderate confidence, unless
	// the user is clearly asking for something.
	if !knowledge && reading.Primary.IsNegative() && hasDistressPhrase(lower) {
		return types.ResponseEmotionalSupport
	}

	switch {
	case knowledge && strong:
		return types.ResponseHybrid
	case knowledge:
		return types.ResponseKnowledge
	case strong:
		return types.ResponseEmotionalSupport
	default:
		return types.ResponseEmotionalSupport
	}
}

func hasKnowledgePattern(lower string) bool {
	if strings.Contains(lower, "?") {
		return true
	}
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	for _, phrase := range knowledgePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func hasDistressPhrase(lower string) bool {
	for _, phrase := range distressPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
