package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mikeboe/osint-investigator/pkg/metrics"
	"github.com/mikeboe/osint-investigator/pkg/osint"
)

// NERClient talks to an external named-entity recognition service.
type NERClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ osint.Annotator = (*NERClient)(nil)

// NewNERClient creates a reusable HTTP client for the service at endpoint.
func NewNERClient(endpoint, apiKey string, timeout time.Duration) *NERClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &NERClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Annotate returns the entities found in text.
func (c *NERClient) Annotate(ctx context.Context, text string) ([]osint.EntityMention, error) {
	if strings.TrimSpace(text) == "" {
		return []osint.EntityMention{}, nil
	}

	var resp struct {
		Entities []osint.EntityMention `json:"entities"`
	}
	if err := c.post(ctx, "/ner", map[string]any{"text": text}, &resp); err != nil {
		metrics.RecordProvider("ner", metrics.OutcomeError)
		return nil, err
	}
	metrics.RecordProvider("ner", metrics.OutcomeOK)

	if resp.Entities == nil {
		return []osint.EntityMention{}, nil
	}
	return resp.Entities, nil
}

// Ping checks that the service answers its health route.
func (c *NERClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func (c *NERClient) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
