package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edgesoul/edgesoul/internal/types"
)

// patternModel maps to the emotional_patterns table. One row per user and
// emotion; aggregates only grow.
type patternModel struct {
	UserID         string `gorm:"primaryKey"`
	Emotion        string `gorm:"primaryKey"`
	Frequency      int
	AvgIntensity   float64
	Triggers       json.RawMessage `gorm:"type:jsonb"`
	TimePatterns   json.RawMessage `gorm:"type:jsonb"`
	LastOccurrence time.Time
}

func (patternModel) TableName() string {
	return "emotional_patterns"
}

// PatternRepo accesses emotional pattern aggregates.
type PatternRepo struct {
	db *gorm.DB
}

// NewPatternRepo returns a PatternRepo.
func NewPatternRepo(db *gorm.DB) *PatternRepo {
	return &PatternRepo{db: db}
}

func (r *PatternRepo) List(ctx context.Context, userID string) ([]types.EmotionalPattern, error) {
	var records []patternModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("frequency DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}

	results := make([]types.EmotionalPattern, 0, len(records))
	for _, record := range records {
		results = append(results, patternFromModel(record))
	}
	return results, nil
}

func (r *PatternRepo) Upsert(ctx context.Context, pattern types.EmotionalPattern) error {
	triggers, err := marshalJSON(pattern.Triggers)
	if err != nil {
		return fmt.Errorf("failed to encode triggers: %w", err)
	}
	timePatterns, err := marshalJSON(pattern.TimePatterns)
	if err != nil {
		return fmt.Errorf("failed to encode time patterns: %w", err)
	}
	record := patternModel{
		UserID:         pattern.UserID,
		Emotion:        string(pattern.Emotion),
		Frequency:      pattern.Frequency,
		AvgIntensity:   pattern.AvgIntensity,
		Triggers:       triggers,
		TimePatterns:   timePatterns,
		LastOccurrence: pattern.LastOccurrence,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "emotion"}},
			UpdateAll: true,
		}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}
	return nil
}

func patternFromModel(record patternModel) types.EmotionalPattern {
	var triggers []string
	timePatterns := map[string]int{}
	_ = unmarshalJSON(record.Triggers, &triggers)
	_ = unmarshalJSON(record.TimePatterns, &timePatterns)
	return types.EmotionalPattern{
		UserID:         record.UserID,
		Emotion:        types.ParseEmotion(record.Emotion),
		Frequency:      record.Frequency,
		AvgIntensity:   record.AvgIntensity,
		Triggers:       triggers,
		TimePatterns:   timePatterns,
		LastOccurrence: record.LastOccurrence,
	}
}
