package emotion

import "github.com/edgesoul/edgesoul/internal/types"

// Smoother adjusts a raw reading against the recent emotion trajectory.
// Implementations must be pure so reader behavior stays testable.
type Smoother interface {
	Smooth(raw types.EmotionReading, history []types.ConversationTurn) types.EmotionReading
}

// WeightedSmoother blends a low-confidence reading with a recent strong
// reading of a different emotion, to avoid flapping on short or ambiguous
// text. Weights and thresholds are tunables, not calibrated constants.
type WeightedSmoother struct {
	// LowConfidence is the ceiling (0-100) under which a raw reading is
	// considered ambiguous.
	LowConfidence float64
	// PriorStrong is the floor (0-100) a recent reading must exceed to pull
	// the raw reading toward it.
	PriorStrong float64
	// NewWeight is the share (0-1) of the raw distribution kept in the blend.
	NewWeight float64
	// Lookback is how many recent turns are considered; at most 2.
	Lookback int
}

// NewWeightedSmoother returns a smoother with the given tunables.
func NewWeightedSmoother(lowConfidence, priorStrong, newWeight float64) *WeightedSmoother {
	if newWeight <= 0 || newWeight > 1 {
		newWeight = 0.7
	}
	return &WeightedSmoother{
		LowConfidence: lowConfidence,
		PriorStrong:   priorStrong,
		NewWeight:     newWeight,
		Lookback:      2,
	}
}

// Smooth blends the raw distribution with the strongest qualifying prior.
func (s *WeightedSmoother) Smooth(raw types.EmotionReading, history []types.ConversationTurn) types.EmotionReading {
	if raw.Confidence >= s.LowConfidence {
		return raw
	}

	prior, ok := s.strongPrior(raw.Primary, history)
	if !ok {
		return raw
	}

	blended := make(map[types.Emotion]float64, len(types.Emotions))
	for _, e := range types.Emotions {
		blended[e] = raw.Distribution[e]*s.NewWeight + prior.Distribution[e]*(1-s.NewWeight)
	}
	return types.ReadingFromDistribution(blended)
}

// strongPrior returns the most recent reading above the strength floor whose
// primary differs from the raw primary.
func (s *WeightedSmoother) strongPrior(rawPrimary types.Emotion, history []types.ConversationTurn) (types.EmotionReading, bool) {
	lookback := s.Lookback
	if lookback <= 0 || lookback > 2 {
		lookback = 2
	}
	for i := len(history) - 1; i >= 0 && i >= len(history)-lookback; i-- {
		prior := history[i].Emotion
		if prior.Primary == types.EmotionNeutral || prior.Primary == rawPrimary {
			continue
		}
		if prior.Confidence > s.PriorStrong && len(prior.Distribution) > 0 {
			return prior, true
		}
	}
	return types.EmotionReading{}, false
}
