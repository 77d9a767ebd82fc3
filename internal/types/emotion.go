// Package types holds the domain model shared across the engine.
package types

import "time"

// Emotion is a closed label set matching the classifier head.
type Emotion string

const (
	EmotionNeutral  Emotion = "neutral"
	EmotionJoy      Emotion = "joy"
	EmotionSadness  Emotion = "sadness"
	EmotionAnger    Emotion = "anger"
	EmotionFear     Emotion = "fear"
	EmotionLove     Emotion = "love"
	EmotionSurprise Emotion = "surprise"
)

// Emotions lists every classifier label, neutral included.
var Emotions = []Emotion{
	EmotionNeutral,
	EmotionJoy,
	EmotionSadness,
	EmotionAnger,
	EmotionFear,
	EmotionLove,
	EmotionSurprise,
}

// ParseEmotion maps a label string onto the closed set, defaulting to neutral.
func ParseEmotion(label string) Emotion {
	for _, e := range Emotions {
		if string(e) == label {
			return e
		}
	}
	return EmotionNeutral
}

// IsNegative reports whether the emotion signals distress.
func (e Emotion) IsNegative() bool {
	switch e {
	case EmotionSadness, EmotionAnger, EmotionFear:
		return true
	default:
		return false
	}
}

// IsPositive reports whether the emotion signals an uplifted state.
func (e Emotion) IsPositive() bool {
	switch e {
	case EmotionJoy, EmotionLove, EmotionSurprise:
		return true
	default:
		return false
	}
}

// DistributionTotal is the constant every reading's distribution sums to.
const DistributionTotal = 100.0

// EmotionReading is one classification result on the 0-100 scale.
// Immutable once produced by the reader.
type EmotionReading struct {
	Primary      Emotion             `json:"primary"`
	Confidence   float64             `json:"confidence"`
	Distribution map[Emotion]float64 `json:"distribution"`
}

// NeutralReading returns a reading carrying no emotional signal.
func NeutralReading(confidence float64) EmotionReading {
	dist := make(map[Emotion]float64, len(Emotions))
	for _, e := range Emotions {
		dist[e] = 0
	}
	dist[EmotionNeutral] = DistributionTotal
	return EmotionReading{
		Primary:      EmotionNeutral,
		Confidence:   confidence,
		Distribution: dist,
	}
}

// ReadingFromDistribution normalizes scores to the 0-100 scale and picks the
// maximum-probability label as primary.
func ReadingFromDistribution(scores map[Emotion]float64) EmotionReading {
	total := 0.0
	for _, v := range scores {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return NeutralReading(0)
	}

	dist := make(map[Emotion]float64, len(Emotions))
	primary := EmotionNeutral
	best := -1.0
	for _, e := range Emotions {
		v := scores[e]
		if v < 0 {
			v = 0
		}
		scaled := v / total * DistributionTotal
		dist[e] = scaled
		if scaled > best {
			best = scaled
			primary = e
		}
	}
	return EmotionReading{
		Primary:      primary,
		Confidence:   best,
		Distribution: dist,
	}
}

// EmotionalPattern is the per-user, per-emotion longitudinal aggregate.
// Frequency never decreases; triggers and time buckets grow incrementally.
type EmotionalPattern struct {
	UserID         string
	Emotion        Emotion
	Frequency      int
	AvgIntensity   float64
	Triggers       []string
	TimePatterns   map[string]int
	LastOccurrence time.Time
}

// EmotionSummary aggregates a user's tracked patterns.
type EmotionSummary struct {
	UserID       string
	Dominant     Emotion
	Distribution map[Emotion]float64
	MoodTrend    string
	TotalTracked int
}
