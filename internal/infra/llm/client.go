package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Annotator produces free-form annotations for a transcript. The analysis
// backend treats its output as opaque and stores it under extra.
type Annotator interface {
	AnalyzeTranscript(ctx context.Context, transcript string) (map[string]any, error)
}

// HTTPClient calls an LLM gateway that accepts {"transcript": "..."} and
// returns a JSON object of annotations.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

func NewHTTPClient(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type analyzeRequest struct {
	Transcript string `json:"transcript"`
}

func (c *HTTPClient) AnalyzeTranscript(ctx context.Context, transcript string) (map[string]any, error) {
	body, err := json.Marshal(analyzeRequest{Transcript: transcript})
	if err != nil {
		return nil, fmt.Errorf("marshal llm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("llm returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}

	c.logger.Debug("llm annotations received", zap.Int("keys", len(result)))
	return result, nil
}
