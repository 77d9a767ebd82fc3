package empathy

import (
	"math/rand"
	"testing"

	"github.com/edgesoul/edgesoul/internal/types"
)

func TestIntensityFor(t *testing.T) {
	cases := []struct {
		confidence float64
		want       Intensity
	}{
		{90, IntensityHigh},
		{76, IntensityHigh},
		{75, IntensityMedium},
		{41, IntensityMedium},
		{40, IntensityLow},
		{0, IntensityLow},
	}
	for _, tc := range cases {
		if got := IntensityFor(tc.confidence); got != tc.want {
			t.Fatalf("IntensityFor(%f) = %s, want %s", tc.confidence, got, tc.want)
		}
	}
}

func TestGeneratePicksFromMatchingTier(t *testing.T) {
	gen := NewGenerator(rand.NewSource(1))

	reading := types.EmotionReading{Primary: types.EmotionSadness, Confidence: 90}
	got := gen.Generate(reading)

	found := false
	for _, want := range supportTemplates[types.EmotionSadness][IntensityHigh] {
		if got == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("response %q not in the high-intensity sadness tier", got)
	}
}

func TestGenerateCoversEveryEmotionAndTier(t *testing.T) {
	gen := NewGenerator(rand.NewSource(7))

	for _, emotion := range types.Emotions {
		for _, confidence := range []float64{20, 60, 95} {
			got := gen.Generate(types.EmotionReading{Primary: emotion, Confidence: confidence})
			if got == "" {
				t.Fatalf("empty response for %s at confidence %f", emotion, confidence)
			}
		}
	}
}

func TestGenerateNeutralUsesDefaults(t *testing.T) {
	gen := NewGenerator(rand.NewSource(3))

	got := gen.Generate(types.NeutralReading(50))
	found := false
	for _, want := range defaultTemplates {
		if got == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("neutral response %q not from the default templates", got)
	}
}
