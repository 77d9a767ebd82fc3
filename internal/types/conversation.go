package types

import "time"

// ResponseType is the selected response strategy for a message.
type ResponseType string

const (
	ResponseKnowledge        ResponseType = "knowledge"
	ResponseEmotionalSupport ResponseType = "emotional_support"
	ResponseHybrid           ResponseType = "hybrid"
)

// ConversationTurn is one completed exchange. Never mutated after creation.
type ConversationTurn struct {
	ID           string
	UserText     string
	Emotion      EmotionReading
	ResponseText string
	ResponseType ResponseType
	Timestamp    time.Time
}

// ConversationWindow keeps the most recent turns of a session in order,
// oldest first. Appending beyond capacity evicts the oldest turn.
type ConversationWindow struct {
	turns []ConversationTurn
	cap   int
}

// NewConversationWindow returns a window bounded to size turns.
func NewConversationWindow(size int) *ConversationWindow {
	if size <= 0 {
		size = 10
	}
	return &ConversationWindow{cap: size}
}

// Append adds a turn, evicting the oldest when the window is full.
func (w *ConversationWindow) Append(turn ConversationTurn) {
	w.turns = append(w.turns, turn)
	if len(w.turns) > w.cap {
		w.turns = w.turns[len(w.turns)-w.cap:]
	}
}

// Len returns the number of turns held.
func (w *ConversationWindow) Len() int {
	return len(w.turns)
}

// Turns returns a copy of the held turns, oldest first.
func (w *ConversationWindow) Turns() []ConversationTurn {
	out := make([]ConversationTurn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Recent returns up to n most recent turns, oldest first.
func (w *ConversationWindow) Recent(n int) []ConversationTurn {
	if n <= 0 || len(w.turns) == 0 {
		return nil
	}
	if n > len(w.turns) {
		n = len(w.turns)
	}
	out := make([]ConversationTurn, n)
	copy(out, w.turns[len(w.turns)-n:])
	return out
}
