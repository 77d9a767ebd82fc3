// Package emotion derives per-message emotion readings from an external
// classifier, with temporal smoothing against recent conversation history.
package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/edgesoul/edgesoul/internal/types"
)

// Classifier produces a raw score distribution over the emotion set.
type Classifier interface {
	Classify(ctx context.Context, text string) (map[types.Emotion]float64, error)
}

// HTTPClassifier calls an external inference endpoint that returns
// per-label scores for the fixed emotion set.
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClassifier returns a classifier backed by the given endpoint.
func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClassifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// Classify posts the text and decodes the label scores.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (map[types.Emotion]float64, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier unreachable: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close classifier response body", "error", err.Error())
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var decoded classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if len(decoded.Scores) == 0 {
		return nil, fmt.Errorf("empty classifier response")
	}

	scores := make(map[types.Emotion]float64, len(decoded.Scores))
	for label, value := range decoded.Scores {
		scores[types.ParseEmotion(label)] += value
	}
	return scores, nil
}
