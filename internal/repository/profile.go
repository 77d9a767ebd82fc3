package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edgesoul/edgesoul/internal/types"
)

// profileModel maps to the user_profiles table.
type profileModel struct {
	UserID             string `gorm:"primaryKey"`
	Gender             string
	EmpathyLevel       int
	HumorLevel         int
	FormalityLevel     int
	VerbosityLevel     int
	ProactivenessLevel int
	Preferences        json.RawMessage `gorm:"type:jsonb"`
	TotalMessages      int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (profileModel) TableName() string {
	return "user_profiles"
}

// ProfileRepo accesses user profile data.
type ProfileRepo struct {
	db *gorm.DB
}

// NewProfileRepo returns a ProfileRepo.
func NewProfileRepo(db *gorm.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (types.UserProfile, bool, error) {
	var record profileModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.UserProfile{}, false, nil
	}
	if err != nil {
		return types.UserProfile{}, false, fmt.Errorf("failed to query profile: %w", err)
	}
	return profileFromModel(record), true, nil
}

func (r *ProfileRepo) Save(ctx context.Context, profile types.UserProfile) error {
	prefs, err := marshalJSON(profile.Preferences)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	record := profileModel{
		UserID:             profile.UserID,
		Gender:             string(profile.Gender),
		EmpathyLevel:       profile.EmpathyLevel,
		HumorLevel:         profile.HumorLevel,
		FormalityLevel:     profile.FormalityLevel,
		VerbosityLevel:     profile.VerbosityLevel,
		ProactivenessLevel: profile.ProactivenessLevel,
		Preferences:        prefs,
		TotalMessages:      profile.TotalMessages,
		CreatedAt:          profile.CreatedAt,
		UpdatedAt:          time.Now(),
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func profileFromModel(record profileModel) types.UserProfile {
	prefs := map[string]string{}
	_ = unmarshalJSON(record.Preferences, &prefs)
	return types.UserProfile{
		UserID:             record.UserID,
		Gender:             types.ParseGender(record.Gender),
		EmpathyLevel:       record.EmpathyLevel,
		HumorLevel:         record.HumorLevel,
		FormalityLevel:     record.FormalityLevel,
		VerbosityLevel:     record.VerbosityLevel,
		ProactivenessLevel: record.ProactivenessLevel,
		Preferences:        prefs,
		TotalMessages:      record.TotalMessages,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
}

// marshalJSON encodes a value into JSONB, returning nil for empty values.
func marshalJSON(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// unmarshalJSON decodes JSONB into the provided target.
func unmarshalJSON(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
