// Package knowledge generates factual answers through an external model.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgesoul/edgesoul/internal/models"
	"github.com/edgesoul/edgesoul/internal/types"
)

// ErrTimeout reports that generation exceeded its per-call budget. Callers
// must not retry; the message deadline is likely already spent.
var ErrTimeout = errors.New("knowledge generation timed out")

// ErrGenerationFailed reports that generation failed even after the stripped
// retry prompt.
var ErrGenerationFailed = errors.New("knowledge generation failed")

// Cache is the optional response cache consulted before generation.
type Cache interface {
	Get(ctx context.Context, message, emotion string) (string, bool)
	Set(ctx context.Context, message, emotion, response string) error
}

// Responder answers knowledge queries. Tone and profile influence sampling
// bounds only; they never change the factual content of the prompt.
type Responder struct {
	completer models.Completer
	cache     Cache
	timeout   time.Duration
}

// NewResponder builds a Responder. cache may be nil.
func NewResponder(completer models.Completer, cache Cache, timeout time.Duration) *Responder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Responder{completer: completer, cache: cache, timeout: timeout}
}

// Available reports whether a generation engine is configured.
func (r *Responder) Available() bool {
	return r.completer != nil
}

// ModelName identifies the backing model for response metadata.
func (r *Responder) ModelName() string {
	if r.completer == nil {
		return "none"
	}
	return r.completer.Name()
}

// Respond generates an answer for the query. topics and memories are optional
// context lines; reading tints the prompt tone and the cache key.
func (r *Responder) Respond(ctx context.Context, query string, reading types.EmotionReading, profile types.UserProfile, topics, memories []string) (string, error) {
	if r.completer == nil {
		return "", ErrGenerationFailed
	}

	emotion := string(reading.Primary)
	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, query, emotion); ok {
			slog.Debug("knowledge cache hit", "emotion", emotion)
			return cached, nil
		}
	}

	tone := ""
	if reading.Primary != types.EmotionNeutral {
		tone = emotion
	}
	prompt, err := buildPrompt(promptData{
		Query:    query,
		Tone:     tone,
		Topics:   topics,
		Memories: memories,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	maxTokens := maxTokensFor(profile.VerbosityLevel)
	temperature := temperatureFor(profile.FormalityLevel)

	answer, err := r.complete(ctx, prompt, maxTokens, temperature)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return "", err
		}
		// One retry with the stripped prompt before giving up.
		slog.Warn("generation failed, retrying with minimal prompt", "error", err.Error())
		answer, err = r.complete(ctx, minimalPrompt(query), maxTokens, temperature)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				return "", err
			}
			return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, query, emotion, answer); err != nil {
			slog.Warn("failed to cache response", "error", err.Error())
		}
	}
	return answer, nil
}

func (r *Responder) complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	answer, err := r.completer.Complete(callCtx, prompt, maxTokens, temperature)
	if err != nil {
		if callCtx.Err() != nil {
			return "", ErrTimeout
		}
		return "", err
	}
	if answer == "" {
		return "", fmt.Errorf("empty answer")
	}
	return answer, nil
}

// maxTokensFor scales the answer length with the verbosity dial.
func maxTokensFor(verbosity int) int {
	switch {
	case verbosity > 75:
		return 600
	case verbosity > 40:
		return 350
	default:
		return 180
	}
}

// temperatureFor tightens sampling as the formality dial rises: formal users
// get steadier phrasing, casual ones more variety.
func temperatureFor(formality int) float64 {
	switch {
	case formality > 70:
		return 0.4
	case formality > 40:
		return 0.6
	default:
		return 0.8
	}
}
