package tone

import (
	"strings"
	"testing"

	"github.com/edgesoul/edgesoul/internal/types"
)

func profileWith(empathy, formality, verbosity, proactiveness int) types.UserProfile {
	p := types.DefaultProfile("u1")
	p.EmpathyLevel = empathy
	p.FormalityLevel = formality
	p.VerbosityLevel = verbosity
	p.ProactivenessLevel = proactiveness
	return p
}

func TestShapeAddsEmpathyClauseForSadMessage(t *testing.T) {
	shaper := NewShaper()
	reading := types.EmotionReading{Primary: types.EmotionSadness, Confidence: 80}
	profile := profileWith(90, 30, 50, 40)

	candidate := "Here is what you can do about it."
	shaped := shaper.Shape(candidate, reading, profile)

	if shaped == candidate {
		t.Fatalf("high-empathy sad message should be framed, got the raw candidate")
	}
	if !strings.Contains(shaped, candidate) {
		t.Fatalf("candidate text must pass through unchanged: %q", shaped)
	}
	if !strings.HasPrefix(shaped, openings[types.EmotionSadness].casual) {
		t.Fatalf("expected casual acknowledgment prefix, got %q", shaped)
	}
}

func TestShapeFormalRegister(t *testing.T) {
	shaper := NewShaper()
	reading := types.EmotionReading{Primary: types.EmotionAnger, Confidence: 80}
	profile := profileWith(80, 70, 50, 40)

	shaped := shaper.Shape("Try restarting the service.", reading, profile)
	if !strings.HasPrefix(shaped, openings[types.EmotionAnger].formal) {
		t.Fatalf("formality 70 should pick the formal clause, got %q", shaped)
	}
}

func TestShapeSkipsClauseForLowEmpathy(t *testing.T) {
	shaper := NewShaper()
	reading := types.EmotionReading{Primary: types.EmotionSadness, Confidence: 80}
	profile := profileWith(30, 50, 50, 40)

	candidate := "Here is the answer."
	if got := shaper.Shape(candidate, reading, profile); got != candidate {
		t.Fatalf("low empathy should leave the candidate bare, got %q", got)
	}
}

func TestShapeSkipsClauseForNeutralReading(t *testing.T) {
	shaper := NewShaper()
	profile := profileWith(90, 50, 50, 40)

	candidate := "Here is the answer."
	if got := shaper.Shape(candidate, types.NeutralReading(90), profile); got != candidate {
		t.Fatalf("neutral reading should leave the candidate bare, got %q", got)
	}
}

func TestShapeAppendsFollowUpForProactiveProfile(t *testing.T) {
	shaper := NewShaper()
	reading := types.EmotionReading{Primary: types.EmotionFear, Confidence: 60}
	profile := profileWith(30, 50, 60, 80)

	shaped := shaper.Shape("Take it one step at a time.", reading, profile)
	if !strings.HasSuffix(shaped, followUps[types.EmotionFear]) {
		t.Fatalf("proactiveness 80 should append a follow-up, got %q", shaped)
	}
}

func TestShapeSkipsFollowUpForTerseProfile(t *testing.T) {
	shaper := NewShaper()
	reading := types.EmotionReading{Primary: types.EmotionFear, Confidence: 60}
	profile := profileWith(30, 50, 30, 80)

	candidate := "Take it one step at a time."
	if got := shaper.Shape(candidate, reading, profile); got != candidate {
		t.Fatalf("low verbosity should suppress the follow-up, got %q", got)
	}
}
