package types

import "time"

// MemoryType classifies a stored note.
type MemoryType string

const (
	MemoryPreference   MemoryType = "preference"
	MemoryFact         MemoryType = "fact"
	MemoryPattern      MemoryType = "pattern"
	MemoryConversation MemoryType = "conversation"
	MemoryEmotional    MemoryType = "emotional"
)

// ParseMemoryType validates a memory type string; empty means no filter.
func ParseMemoryType(value string) (MemoryType, bool) {
	switch MemoryType(value) {
	case MemoryPreference, MemoryFact, MemoryPattern, MemoryConversation, MemoryEmotional:
		return MemoryType(value), true
	default:
		return "", false
	}
}

// MemoryRecord is a typed long-term note about a user. Records are never
// hard-deleted; retention is the storage backend's concern.
type MemoryRecord struct {
	ID           string
	UserID       string
	Type         MemoryType
	Content      string
	Context      string
	Confidence   float64
	Importance   float64
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int
}

// ScoredMemory is a search hit with its relevance score.
type ScoredMemory struct {
	Record MemoryRecord
	Score  float64
}
