// Package suggest implements the client for the AI category-suggestion
// service. It is read-only and never sits on the mutation path.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/radup/fintable/internal/common"
	"github.com/radup/fintable/internal/model"
	"github.com/radup/fintable/internal/service"
)

// Client queries the suggestion service per record, with a token-bucket rate
// limit and a TTL cache in front of it. Implements service.Suggester.
type Client struct {
	httpClient *http.Client
	limiter    *rateLimiter
	cache      *suggestionCache
	baseURL    string
	token      string
}

// Config holds suggestion client options.
type Config struct {
	BaseURL           string
	Token             string
	RequestsPerMinute int
	CacheTTL          time.Duration
}

// NewClient creates a suggestion client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: suggestion service URL is required", common.ErrMissingConfig)
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		limiter:    newRateLimiter(cfg.RequestsPerMinute),
		cache:      newSuggestionCache(cfg.CacheTTL),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Close releases the limiter and cache goroutines.
func (c *Client) Close() {
	c.limiter.Close()
	c.cache.Close()
}

type suggestRequest struct {
	TransactionID string  `json:"transaction_id"`
	Description   string  `json:"description"`
	Vendor        string  `json:"vendor,omitempty"`
	Amount        float64 `json:"amount"`
	IsIncome      bool    `json:"is_income"`
}

type suggestResponse struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Confidence  float64 `json:"confidence"`
}

// Suggest returns an AI-proposed category for one record, served from cache
// when fresh.
func (c *Client) Suggest(ctx context.Context, txn model.Transaction) (*service.Suggestion, error) {
	if cached, ok := c.cache.get(txn.ID); ok {
		return &cached, nil
	}

	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(suggestRequest{
		TransactionID: txn.ID,
		Description:   txn.Description,
		Vendor:        txn.Vendor,
		Amount:        txn.Amount,
		IsIncome:      txn.IsIncome,
	})
	if err != nil {
		return nil, common.NewTransportError("encode suggestion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/suggest", bytes.NewReader(payload))
	if err != nil {
		return nil, common.NewTransportError("build suggestion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.NewTransportError("suggestion request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, common.NewTransportError("suggestion request",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var out suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, common.NewTransportError("suggestion request", fmt.Errorf("failed to decode response: %w", err))
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return nil, common.NewTransportError("suggestion request",
			fmt.Errorf("confidence %f out of range", out.Confidence))
	}

	suggestion := service.Suggestion{
		Category:    out.Category,
		Subcategory: out.Subcategory,
		Confidence:  out.Confidence,
	}
	c.cache.put(txn.ID, suggestion)
	return &suggestion, nil
}
