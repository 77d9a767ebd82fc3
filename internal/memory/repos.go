// Package memory manages user profiles, conversation windows, emotional
// patterns and long-term memory records.
package memory

import (
	"context"

	"github.com/edgesoul/edgesoul/internal/types"
)

// ProfileRepo persists user profiles.
type ProfileRepo interface {
	// Get returns the profile and whether it exists.
	Get(ctx context.Context, userID string) (types.UserProfile, bool, error)
	Save(ctx context.Context, profile types.UserProfile) error
}

// PatternRepo persists per-user emotional pattern aggregates.
type PatternRepo interface {
	List(ctx context.Context, userID string) ([]types.EmotionalPattern, error)
	Upsert(ctx context.Context, pattern types.EmotionalPattern) error
}

// RecordRepo persists long-term memory records.
type RecordRepo interface {
	Add(ctx context.Context, record types.MemoryRecord, embedding []float32) error
	SearchText(ctx context.Context, userID, query string, memType types.MemoryType, limit int) ([]types.MemoryRecord, error)
	SearchSimilar(ctx context.Context, userID string, embedding []float32, memType types.MemoryType, limit int, threshold float64) ([]types.ScoredMemory, error)
	// TouchAccess bumps access counters on retrieved records.
	TouchAccess(ctx context.Context, ids []string) error
}

// TurnRepo persists completed conversation turns.
type TurnRepo interface {
	Add(ctx context.Context, userID, sessionID string, turn types.ConversationTurn) error
	Recent(ctx context.Context, userID, sessionID string, limit int) ([]types.ConversationTurn, error)
}
