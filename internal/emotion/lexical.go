package emotion

import (
	"context"
	"strings"

	"github.com/edgesoul/edgesoul/internal/types"
)

// LexicalClassifier scores text against emotion keyword lists. It serves as
// the offline classifier and as the degradation path when the external
// classifier cannot be reached.
type LexicalClassifier struct{}

// NewLexicalClassifier returns a keyword-based classifier.
func NewLexicalClassifier() *LexicalClassifier {
	return &LexicalClassifier{}
}

var emotionKeywords = map[types.Emotion][]string{
	types.EmotionJoy:      {"happy", "joy", "excited", "great", "wonderful", "awesome", "fantastic", "glad", "delighted"},
	types.EmotionSadness:  {"sad", "unhappy", "depress", "down", "disappointed", "hurt", "lonely", "alone", "hopeless", "crying", "miserable"},
	types.EmotionAnger:    {"angry", "mad", "furious", "annoyed", "frustrated", "hate", "irritated", "pissed"},
	types.EmotionFear:     {"afraid", "scared", "worried", "anxious", "nervous", "terrified", "panic", "fear", "frightened"},
	types.EmotionLove:     {"love", "adore", "cherish", "affection", "caring", "sweetheart"},
	types.EmotionSurprise: {"wow", "amazing", "surprised", "unexpected", "incredible", "unbelievable", "shocking"},
}

const neutralBaseline = 3.0

// Classify scores each emotion by keyword hits, with a neutral baseline so
// signal-free text stays neutral.
func (c *LexicalClassifier) Classify(_ context.Context, text string) (map[types.Emotion]float64, error) {
	lower := strings.ToLower(strings.TrimSpace(text))

	scores := map[types.Emotion]float64{types.EmotionNeutral: neutralBaseline}
	hits := false
	for emotion, keywords := range emotionKeywords {
		score := 0.0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score += 4
			}
		}
		scores[emotion] = score
		if score > 0 {
			hits = true
		}
	}
	if !hits {
		scores[types.EmotionNeutral] = 8
	}
	return scores, nil
}
