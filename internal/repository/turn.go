package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edgesoul/edgesoul/internal/types"
)

// turnModel maps to the conversation_turns table.
type turnModel struct {
	ID           string `gorm:"primaryKey"`
	UserID       string
	SessionID    string
	UserText     string
	Emotion      string
	Confidence   float64
	Distribution json.RawMessage `gorm:"type:jsonb"`
	ResponseText string
	ResponseType string
	CreatedAt    time.Time
}

func (turnModel) TableName() string {
	return "conversation_turns"
}

// TurnRepo accesses persisted conversation turns.
type TurnRepo struct {
	db *gorm.DB
}

// NewTurnRepo returns a TurnRepo.
func NewTurnRepo(db *gorm.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

func (r *TurnRepo) Add(ctx context.Context, userID, sessionID string, turn types.ConversationTurn) error {
	dist, err := marshalJSON(turn.Emotion.Distribution)
	if err != nil {
		return fmt.Errorf("failed to encode distribution: %w", err)
	}
	id := turn.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := turnModel{
		ID:           id,
		UserID:       userID,
		SessionID:    sessionID,
		UserText:     turn.UserText,
		Emotion:      string(turn.Emotion.Primary),
		Confidence:   turn.Emotion.Confidence,
		Distribution: dist,
		ResponseText: turn.ResponseText,
		ResponseType: string(turn.ResponseType),
		CreatedAt:    turn.Timestamp,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert conversation turn: %w", err)
	}
	return nil
}

func (r *TurnRepo) Recent(ctx context.Context, userID, sessionID string, limit int) ([]types.ConversationTurn, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit)
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}

	var rows []turnModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query conversation turns: %w", err)
	}

	results := make([]types.ConversationTurn, 0, len(rows))
	for _, row := range rows {
		results = append(results, turnFromModel(row))
	}

	// Oldest -> newest
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

func turnFromModel(row turnModel) types.ConversationTurn {
	dist := map[types.Emotion]float64{}
	_ = unmarshalJSON(row.Distribution, &dist)
	return types.ConversationTurn{
		ID:       row.ID,
		UserText: row.UserText,
		Emotion: types.EmotionReading{
			Primary:      types.ParseEmotion(row.Emotion),
			Confidence:   row.Confidence,
			Distribution: dist,
		},
		ResponseText: row.ResponseText,
		ResponseType: types.ResponseType(row.ResponseType),
		Timestamp:    row.CreatedAt,
	}
}
