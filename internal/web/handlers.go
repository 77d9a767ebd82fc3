// Package web exposes the engine over HTTP.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edgesoul/edgesoul/internal/emotion"
	"github.com/edgesoul/edgesoul/internal/memory"
	"github.com/edgesoul/edgesoul/internal/orchestrator"
	"github.com/edgesoul/edgesoul/internal/types"
)

// Handlers binds the engine and memory layer to HTTP endpoints.
type Handlers struct {
	engine *orchestrator.Engine
	reader *emotion.Reader
	mem    *memory.Service
}

// NewHandlers returns the HTTP handler set.
func NewHandlers(engine *orchestrator.Engine, reader *emotion.Reader, mem *memory.Service) *Handlers {
	return &Handlers{engine: engine, reader: reader, mem: mem}
}

type chatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Context   string `json:"context"`
}

type emotionPayload struct {
	Primary    string             `json:"primary"`
	Confidence float64            `json:"confidence"`
	All        map[string]float64 `json:"all"`
}

type chatMetadata struct {
	ProcessingTime      float64 `json:"processing_time"`
	TotalProcessingTime float64 `json:"total_processing_time"`
	Model               string  `json:"model"`
	KnowledgeUsed       bool    `json:"knowledge_used"`
	Timestamp           string  `json:"timestamp"`
}

type chatResponse struct {
	Response     string         `json:"response"`
	Emotion      emotionPayload `json:"emotion"`
	ResponseType string         `json:"response_type"`
	Tone         string         `json:"tone"`
	Metadata     chatMetadata   `json:"metadata"`
}

// Chat handles POST /api/v1/chat.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", false)
		return
	}
	if req.UserID == "" {
		req.UserID = "default"
	}
	if req.SessionID == "" {
		req.SessionID = req.UserID
	}

	result, err := h.engine.Handle(r.Context(), orchestrator.Request{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Text:      req.Message,
		Context:   req.Context,
	})
	if err != nil {
		if errors.Is(err, orchestrator.ErrSessionBusy) {
			writeError(w, http.StatusTooManyRequests, "session is processing another message", true)
			return
		}
		slog.Error("chat request failed", "error", err.Error(), "user_id", req.UserID)
		writeError(w, http.StatusInternalServerError, "internal error", false)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:     result.ResponseText,
		Emotion:      emotionToPayload(result.Emotion),
		ResponseType: string(result.ResponseType),
		Tone:         result.Tone,
		Metadata: chatMetadata{
			ProcessingTime:      result.GenerationTime.Seconds(),
			TotalProcessingTime: result.ProcessingTime.Seconds(),
			Model:               result.Model,
			KnowledgeUsed:       result.KnowledgeUsed,
			Timestamp:           result.Timestamp.UTC().Format(time.RFC3339),
		},
	})
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Emotion        string             `json:"emotion"`
	Confidence     float64            `json:"confidence"`
	AllEmotions    map[string]float64 `json:"all_emotions"`
	ProcessingTime float64            `json:"processing_time"`
}

// DetectEmotion handles POST /api/v1/emotion/detect. One-shot detection;
// no history, no smoothing.
func (h *Handlers) DetectEmotion(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", false)
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required", false)
		return
	}

	start := time.Now()
	reading := h.reader.Read(r.Context(), req.Text, nil)

	writeJSON(w, http.StatusOK, detectResponse{
		Emotion:        string(reading.Primary),
		Confidence:     reading.Confidence,
		AllEmotions:    distributionToMap(reading.Distribution),
		ProcessingTime: time.Since(start).Seconds(),
	})
}

type profileResponse struct {
	UserID             string            `json:"user_id"`
	Gender             string            `json:"gender"`
	EmpathyLevel       int               `json:"empathy_level"`
	HumorLevel         int               `json:"humor_level"`
	FormalityLevel     int               `json:"formality_level"`
	VerbosityLevel     int               `json:"verbosity_level"`
	ProactivenessLevel int               `json:"proactiveness_level"`
	Preferences        map[string]string `json:"preferences"`
	TotalMessages      int               `json:"total_messages"`
	CreatedAt          string            `json:"created_at"`
	UpdatedAt          string            `json:"updated_at"`
}

// GetProfile handles GET /api/v1/profile/{userID}.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	profile, err := h.mem.GetProfile(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load profile", "error", err.Error(), "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load profile", false)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(profile))
}

type profileUpdateRequest struct {
	Gender             *string `json:"gender"`
	EmpathyLevel       *int    `json:"empathy_level"`
	HumorLevel         *int    `json:"humor_level"`
	FormalityLevel     *int    `json:"formality_level"`
	VerbosityLevel     *int    `json:"verbosity_level"`
	ProactivenessLevel *int    `json:"proactiveness_level"`
}

// UpdateProfile handles PUT /api/v1/profile/{userID}. Absent fields keep
// their current values; dials are clamped to 0-100.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", false)
		return
	}

	profile, err := h.mem.UpdateProfile(r.Context(), userID, memory.ProfileUpdate{
		Gender:             req.Gender,
		EmpathyLevel:       req.EmpathyLevel,
		HumorLevel:         req.HumorLevel,
		FormalityLevel:     req.FormalityLevel,
		VerbosityLevel:     req.VerbosityLevel,
		ProactivenessLevel: req.ProactivenessLevel,
	})
	if err != nil {
		slog.Error("failed to update profile", "error", err.Error(), "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to update profile", false)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(profile))
}

type memoryHit struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Importance float64 `json:"importance"`
	Score      float64 `json:"score"`
	CreatedAt  string  `json:"created_at"`
}

// SearchMemories handles GET /api/v1/memory/search.
func (h *Handlers) SearchMemories(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	query := r.URL.Query().Get("q")
	if userID == "" || query == "" {
		writeError(w, http.StatusBadRequest, "user_id and q are required", false)
		return
	}

	var memType types.MemoryType
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, ok := types.ParseMemoryType(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown memory type", false)
			return
		}
		memType = parsed
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	hits, err := h.mem.SearchMemories(r.Context(), userID, query, memType, limit)
	if err != nil {
		slog.Error("memory search failed", "error", err.Error(), "user_id", userID)
		writeError(w, http.StatusInternalServerError, "memory search failed", false)
		return
	}

	results := make([]memoryHit, 0, len(hits))
	for _, hit := range hits {
		results = append(results, memoryHit{
			ID:         hit.Record.ID,
			Type:       string(hit.Record.Type),
			Content:    hit.Record.Content,
			Confidence: hit.Record.Confidence,
			Importance: hit.Record.Importance,
			Score:      hit.Score,
			CreatedAt:  hit.Record.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "edgesoul",
	})
}

func emotionToPayload(reading types.EmotionReading) emotionPayload {
	return emotionPayload{
		Primary:    string(reading.Primary),
		Confidence: reading.Confidence,
		All:        distributionToMap(reading.Distribution),
	}
}

func distributionToMap(dist map[types.Emotion]float64) map[string]float64 {
	out := make(map[string]float64, len(dist))
	for emotion, value := range dist {
		out[string(emotion)] = value
	}
	return out
}

func profileToResponse(profile types.UserProfile) profileResponse {
	return profileResponse{
		UserID:             profile.UserID,
		Gender:             string(profile.Gender),
		EmpathyLevel:       profile.EmpathyLevel,
		HumorLevel:         profile.HumorLevel,
		FormalityLevel:     profile.FormalityLevel,
		VerbosityLevel:     profile.VerbosityLevel,
		ProactivenessLevel: profile.ProactivenessLevel,
		Preferences:        profile.Preferences,
		TotalMessages:      profile.TotalMessages,
		CreatedAt:          profile.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          profile.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string, retryable bool) {
	writeJSON(w, status, map[string]any{
		"error":     message,
		"retryable": retryable,
	})
}
