package intent

import (
	"testing"

	"github.com/edgesoul/edgesoul/internal/types"
)

func reading(primary types.Emotion, confidence float64) types.EmotionReading {
	return types.EmotionReading{Primary: primary, Confidence: confidence}
}

func TestClassifyScenarios(t *testing.T) {
	router := NewRouter(60)

	cases := []struct {
		name    string
		text    string
		reading types.EmotionReading
		want    types.ResponseType
	}{
		{
			name:    "knowledge question with neutral emotion",
			text:    "What is backward chaining?",
			reading: reading(types.EmotionNeutral, 80),
			want:    types.ResponseKnowledge,
		},
		{
			name:    "happy message without knowledge pattern",
			text:    "I'm so happy today!",
			reading: reading(types.EmotionJoy, 70),
			want:    types.ResponseEmotionalSupport,
		},
		{
			name:    "question asked while strongly emotional",
			text:    "Why does everything keep going wrong?",
			reading: reading(types.EmotionSadness, 85),
			want:    types.ResponseHybrid,
		},
		{
			name:    "explain request with mild emotion",
			text:    "explain how neural networks learn",
			reading: reading(types.EmotionJoy, 30),
			want:    types.ResponseKnowledge,
		},
		{
			name:    "distress wording at moderate confidence",
			text:    "i feel so lonely and hopeless",
			reading: reading(types.EmotionSadness, 45),
			want:    types.ResponseEmotionalSupport,
		},
		{
			name:    "ambiguous statement defaults to support",
			text:    "rough day",
			reading: reading(types.EmotionNeutral, 20),
			want:    types.ResponseEmotionalSupport,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := router.Classify(tc.text, tc.reading); got != tc.want {
				t.Fatalf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	router := NewRouter(60)
	r := reading(types.EmotionFear, 75)

	first := router.Classify("how do I fix this?", r)
	for i := 0; i < 100; i++ {
		if got := router.Classify("how do I fix this?", r); got != first {
			t.Fatalf("classification changed between calls: %s then %s", first, got)
		}
	}
}
