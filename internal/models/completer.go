// Package models provides adapters for the external text-generation engines.
package models

import "context"

// Completer is the narrow generation contract the engine consumes.
// Streaming is not required; a single completion per call suffices.
type Completer interface {
	// Complete generates text for the prompt under the given bounds.
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
	// Name identifies the backing model for response metadata.
	Name() string
}
