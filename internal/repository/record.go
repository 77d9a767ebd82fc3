package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/edgesoul/edgesoul/internal/types"
)

// recordModel maps to the memory_records table.
type recordModel struct {
	ID           string `gorm:"primaryKey"`
	UserID       string
	Type         string
	Content      string
	Context      string
	Confidence   float64
	Importance   float64
	Embedding    *pgvector.Vector `gorm:"type:vector"`
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int
}

func (recordModel) TableName() string {
	return "memory_records"
}

// RecordRepo accesses long-term memory records.
type RecordRepo struct {
	db *gorm.DB
}

// NewRecordRepo returns a RecordRepo.
func NewRecordRepo(db *gorm.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

func (r *RecordRepo) Add(ctx context.Context, record types.MemoryRecord, embedding []float32) error {
	var vector *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vector = &v
	}
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := recordModel{
		ID:           id,
		UserID:       record.UserID,
		Type:         string(record.Type),
		Content:      record.Content,
		Context:      record.Context,
		Confidence:   record.Confidence,
		Importance:   record.Importance,
		Embedding:    vector,
		CreatedAt:    record.CreatedAt,
		LastAccessed: record.LastAccessed,
		AccessCount:  record.AccessCount,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert memory record: %w", err)
	}
	return nil
}

// SearchText matches record content case-insensitively. It backs search when
// no embedder is configured.
func (r *RecordRepo) SearchText(ctx context.Context, userID, query string, memType types.MemoryType, limit int) ([]types.MemoryRecord, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("content ILIKE ?", "%"+query+"%").
		Order("importance DESC, created_at DESC").
		Limit(limit)
	if memType != "" {
		q = q.Where("type = ?", string(memType))
	}

	var rows []recordModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to search memory records: %w", err)
	}

	results := make([]types.MemoryRecord, 0, len(rows))
	for _, row := range rows {
		results = append(results, recordFromModel(row))
	}
	return results, nil
}

// SearchSimilar ranks records by cosine similarity blended with importance.
func (r *RecordRepo) SearchSimilar(ctx context.Context, userID string, embedding []float32, memType types.MemoryType, limit int, threshold float64) ([]types.ScoredMemory, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	conditions := "embedding IS NOT NULL AND user_id = $2 AND 1 - (embedding <=> $1) > $3"
	args := []any{pgvector.NewVector(embedding), userID, threshold}
	argIndex := 4

	if memType != "" {
		conditions += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, string(memType))
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, type, content, context, confidence, importance,
		       created_at, last_accessed, access_count,
		       1 - (embedding <=> $1) AS similarity
		FROM memory_records
		WHERE %s
		ORDER BY ((0.7 * (1 - (embedding <=> $1))) + (0.3 * importance)) DESC
		LIMIT $%d`, conditions, argIndex)

	args = append(args, limit)

	var rows []struct {
		recordModel
		Similarity float64
	}
	if err := r.db.WithContext(ctx).
		Raw(query, args...).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar records: %w", err)
	}

	results := make([]types.ScoredMemory, 0, len(rows))
	for _, row := range rows {
		results = append(results, types.ScoredMemory{
			Record: recordFromModel(row.recordModel),
			Score:  row.Similarity,
		})
	}
	return results, nil
}

func (r *RecordRepo) TouchAccess(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&recordModel{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"access_count":  gorm.Expr("access_count + 1"),
			"last_accessed": time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to update record access: %w", err)
	}
	return nil
}

func recordFromModel(row recordModel) types.MemoryRecord {
	memType, _ := types.ParseMemoryType(row.Type)
	return types.MemoryRecord{
		ID:           row.ID,
		UserID:       row.UserID,
		Type:         memType,
		Content:      row.Content,
		Context:      row.Context,
		Confidence:   row.Confidence,
		Importance:   row.Importance,
		CreatedAt:    row.CreatedAt,
		LastAccessed: row.LastAccessed,
		AccessCount:  row.AccessCount,
	}
}
