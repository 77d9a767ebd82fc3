package emotion

import (
	"context"
	"log/slog"
	"strings"

	"github.com/edgesoul/edgesoul/internal/types"
)

// Reader turns raw text into an EmotionReading. Classifier failure degrades
// to a neutral reading; it never blocks the response pipeline.
type Reader struct {
	classifier Classifier
	smoother   Smoother
}

// NewReader returns a Reader. A nil smoother disables temporal smoothing.
func NewReader(classifier Classifier, smoother Smoother) *Reader {
	return &Reader{classifier: classifier, smoother: smoother}
}

// Short conversational openers carry no usable emotional signal; the
// classifier tends to mislabel them, so they short-circuit to neutral.
var greetingPhrases = []string{
	"hi", "hello", "hey", "hiya", "howdy",
	"good morning", "good afternoon", "good evening",
	"what's up", "how are you", "how's it going",
	"thanks", "thank you", "ok", "okay", "bye", "goodbye",
}

// Read classifies the text and applies temporal smoothing against recent
// history. history may be nil for one-shot detection.
func (r *Reader) Read(ctx context.Context, text string, history *types.ConversationWindow) types.EmotionReading {
	if isGreeting(text) {
		return types.NeutralReading(90)
	}

	scores, err := r.classifier.Classify(ctx, text)
	if err != nil {
		slog.Warn("emotion classification failed, degrading to neutral", "error", err.Error())
		return types.NeutralReading(0)
	}

	reading := types.ReadingFromDistribution(scores)
	if r.smoother != nil && history != nil {
		reading = r.smoother.Smooth(reading, history.Turns())
	}
	return reading
}

func isGreeting(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if len(strings.Fields(lower)) > 5 {
		return false
	}
	trimmed := strings.TrimRight(lower, "!.? ")
	for _, phrase := range greetingPhrases {
		if trimmed == phrase || strings.HasPrefix(trimmed, phrase+" ") {
			return true
		}
	}
	return false
}
