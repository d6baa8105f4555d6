package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the local inference sidecar that serves the promise
// classifier. The model itself (weights, architecture) lives entirely in the
// sidecar; this client only knows the predict contract.
type Client struct {
	baseURL string
	httpCli *http.Client
}

// NewClient creates a classifier client for the given sidecar base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCli: &http.Client{Timeout: 10 * time.Second},
	}
}

// Healthy checks the sidecar once. Called at startup: a failure disables the
// detection pipeline for the whole process lifetime.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("classifier health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classifier unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

type predictRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

// PredictResponse is the sidecar's verdict payload.
type PredictResponse struct {
	Label      int     `json:"label"`
	LabelName  string  `json:"label_name"`
	Confidence float64 `json:"confidence"`
}

// Predict classifies one message with optional recent context.
func (c *Client) Predict(ctx context.Context, text, recentContext string) (*PredictResponse, error) {
	body, err := json.Marshal(predictRequest{Text: text, Context: recentContext})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("predict status %d: %s", resp.StatusCode, string(data))
	}

	var out PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	return &out, nil
}
