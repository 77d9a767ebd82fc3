package web

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/edgesoul/edgesoul/internal/empathy"
	"github.com/edgesoul/edgesoul/internal/emotion"
	"github.com/edgesoul/edgesoul/internal/intent"
	"github.com/edgesoul/edgesoul/internal/knowledge"
	"github.com/edgesoul/edgesoul/internal/memory"
	"github.com/edgesoul/edgesoul/internal/orchestrator"
	"github.com/edgesoul/edgesoul/internal/tone"
	"github.com/edgesoul/edgesoul/internal/types"
)

type stubProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]types.UserProfile
}

func (r *stubProfileRepo) Get(ctx context.Context, userID string) (types.UserProfile, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	return p, ok, nil
}

func (r *stubProfileRepo) Save(ctx context.Context, profile types.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile
	return nil
}

type stubPatternRepo struct{}

func (stubPatternRepo) List(ctx context.Context, userID string) ([]types.EmotionalPattern, error) {
	return nil, nil
}
func (stubPatternRepo) Upsert(ctx context.Context, pattern types.EmotionalPattern) error {
	return nil
}

type stubRecordRepo struct {
	records []types.MemoryRecord
}

func (r *stubRecordRepo) Add(ctx context.Context, record types.MemoryRecord, embedding []float32) error {
	r.records = append(r.records, record)
	return nil
}

func (r *stubRecordRepo) SearchText(ctx context.Context, userID, query string, memType types.MemoryType, limit int) ([]types.MemoryRecord, error) {
	var out []types.MemoryRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stubRecordRepo) SearchSimilar(ctx context.Context, userID string, embedding []float32, memType types.MemoryType, limit int, threshold float64) ([]types.ScoredMemory, error) {
	return nil, nil
}

func (r *stubRecordRepo) TouchAccess(ctx context.Context, ids []string) error { return nil }

type stubTurnRepo struct{}

func (stubTurnRepo) Add(ctx context.Context, userID, sessionID string, turn types.ConversationTurn) error {
	return nil
}
func (stubTurnRepo) Recent(ctx context.Context, userID, sessionID string, limit int) ([]types.ConversationTurn, error) {
	return nil, nil
}

type blockingCompleter struct {
	block   chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (c *blockingCompleter) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	c.once.Do(func() { close(c.entered) })
	select {
	case <-c.block:
		return "done waiting", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *blockingCompleter) Name() string { return "blocking" }

func newTestServer(t *testing.T, responder *knowledge.Responder) (*httptest.Server, *memory.Service) {
	t.Helper()

	mem := memory.NewService(
		&stubProfileRepo{profiles: map[string]types.UserProfile{}},
		stubPatternRepo{}, &stubRecordRepo{}, stubTurnRepo{}, nil,
		memory.Options{WindowSize: 10},
	)
	reader := emotion.NewReader(emotion.NewLexicalClassifier(), nil)
	if responder == nil {
		responder = knowledge.NewResponder(nil, nil, time.Second)
	}
	engine := orchestrator.NewEngine(
		reader, intent.NewRouter(60), responder,
		empathy.NewGenerator(rand.NewSource(1)), tone.NewShaper(), mem,
		orchestrator.Options{MessageTimeout: 5 * time.Second},
	)

	server := httptest.NewServer(NewRouter(NewHandlers(engine, reader, mem)))
	t.Cleanup(server.Close)
	return server, mem
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestChatEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp := postJSON(t, server.URL+"/api/v1/chat", map[string]string{
		"message": "I'm so happy today!",
		"user_id": "alice",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body chatResponse
	decodeJSON(t, resp, &body)

	if body.Response == "" {
		t.Fatalf("empty response text")
	}
	if body.Emotion.Primary != "joy" {
		t.Fatalf("emotion = %s, want joy", body.Emotion.Primary)
	}
	if body.ResponseType != string(types.ResponseEmotionalSupport) {
		t.Fatalf("response_type = %s, want emotional_support", body.ResponseType)
	}
	if body.Metadata.Timestamp == "" {
		t.Fatalf("missing timestamp")
	}
}

func TestChatEndpointBadBody(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Post(server.URL+"/api/v1/chat", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatEndpointBusySession(t *testing.T) {
	completer := &blockingCompleter{block: make(chan struct{}), entered: make(chan struct{})}
	responder := knowledge.NewResponder(completer, nil, 5*time.Second)
	server, _ := newTestServer(t, responder)

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp := postJSON(t, server.URL+"/api/v1/chat", map[string]string{
			"message":    "What is entropy?",
			"user_id":    "alice",
			"session_id": "s1",
		})
		resp.Body.Close()
	}()

	select {
	case <-completer.entered:
	case <-time.After(time.Second):
		t.Fatalf("first request never reached generation")
	}

	resp := postJSON(t, server.URL+"/api/v1/chat", map[string]string{
		"message":    "What about enthalpy?",
		"user_id":    "alice",
		"session_id": "s1",
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}

	var body map[string]any
	decodeJSON(t, resp, &body)
	if retryable, _ := body["retryable"].(bool); !retryable {
		t.Fatalf("busy error should be retryable: %v", body)
	}

	close(completer.block)
	<-done
}

func TestDetectEmotionEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp := postJSON(t, server.URL+"/api/v1/emotion/detect", map[string]string{
		"text": "I'm so happy today!",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body detectResponse
	decodeJSON(t, resp, &body)
	if body.Emotion != "joy" {
		t.Fatalf("emotion = %s, want joy", body.Emotion)
	}
	if body.Confidence <= 50 {
		t.Fatalf("confidence = %f, want > 50", body.Confidence)
	}
	if len(body.AllEmotions) == 0 {
		t.Fatalf("missing distribution")
	}
}

func TestDetectEmotionRequiresText(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp := postJSON(t, server.URL+"/api/v1/emotion/detect", map[string]string{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestProfileGetAndUpdate(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/v1/profile/alice")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var created profileResponse
	decodeJSON(t, resp, &created)
	if created.EmpathyLevel != 75 {
		t.Fatalf("default empathy = %d, want 75", created.EmpathyLevel)
	}

	payload, _ := json.Marshal(map[string]any{"empathy_level": 150, "gender": "female"})
	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/v1/profile/alice", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var updated profileResponse
	decodeJSON(t, resp, &updated)
	if updated.EmpathyLevel != 100 {
		t.Fatalf("empathy should clamp to 100, got %d", updated.EmpathyLevel)
	}
	if updated.Gender != "female" {
		t.Fatalf("gender = %s, want female", updated.Gender)
	}
	if updated.HumorLevel != created.HumorLevel {
		t.Fatalf("absent fields must keep their values")
	}
}

func TestMemorySearchRequiresParams(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/v1/memory/search?user_id=alice")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected health payload: %v", body)
	}
}
