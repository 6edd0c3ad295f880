// Package api implements the HTTP client for the remote transaction store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/radup/fintable/internal/common"
	"github.com/radup/fintable/internal/model"
)

// Client talks to the remote transaction store's REST endpoints. It
// implements service.TransactionStore.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a client for the store at baseURL. token, when set, is
// sent as a bearer token.
func NewClient(baseURL, token string) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: store URL is required", common.ErrMissingConfig)
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("%w: invalid store URL %q", common.ErrInvalidConfig, baseURL)
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// ListTransactions fetches one ordered page of records.
func (c *Client) ListTransactions(ctx context.Context, query model.QueryState) ([]model.Transaction, error) {
	u, err := url.Parse(c.baseURL + "/transactions")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("skip", strconv.Itoa(query.Skip()))
	q.Set("limit", strconv.Itoa(query.PageSize))
	q.Set("sort_by", string(query.SortField))
	q.Set("sort_order", string(query.SortDirection))
	encodeFilter(q, query.Filter)
	u.RawQuery = q.Encode()

	slog.Debug("Requesting transaction page", "url_params", u.RawQuery)

	var out listResponse
	if err := c.get(ctx, u.String(), &out); err != nil {
		return nil, err
	}

	records := make([]model.Transaction, 0, len(out.Items))
	for _, item := range out.Items {
		records = append(records, item.toModel())
	}
	return records, nil
}

// CountTransactions fetches the total matching count for a filter,
// independent of pagination.
func (c *Client) CountTransactions(ctx context.Context, filter model.Filter) (int, error) {
	u, err := url.Parse(c.baseURL + "/transactions/count")
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	encodeFilter(q, filter)
	u.RawQuery = q.Encode()

	var out countResponse
	if err := c.get(ctx, u.String(), &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// ApplyBulk sends one batched mutation to the endpoint matching the command
// kind and decodes the per-item result.
func (c *Client) ApplyBulk(ctx context.Context, cmd model.BulkCommand) (*model.BulkResult, error) {
	var endpoint string
	switch cmd.Kind {
	case model.CommandCategorize:
		endpoint = "/transactions/bulk-categorize"
	case model.CommandUpdate:
		endpoint = "/transactions/bulk-update"
	case model.CommandDelete:
		endpoint = "/transactions/bulk-delete"
	case model.CommandCreate:
		endpoint = "/transactions/bulk-create"
	default:
		return nil, common.NewValidationError("kind", fmt.Errorf("unknown command kind %q", cmd.Kind))
	}

	req := bulkRequest{
		TransactionIDs: cmd.TargetIDs,
		Category:       cmd.Payload.Category,
		Subcategory:    cmd.Payload.Subcategory,
		Updates:        cmd.Payload.Fields,
	}
	for _, r := range cmd.Payload.Records {
		req.Records = append(req.Records, toWire(r))
	}
	if len(cmd.PerRecord) > 0 {
		req.Overrides = make(map[string]map[string]any, len(cmd.PerRecord))
		for id, payload := range cmd.PerRecord {
			req.Overrides[id] = payload.Fields
		}
	}

	var out bulkResponse
	if err := c.post(ctx, c.baseURL+endpoint, req, &out); err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

// Undo asks the store to reverse its own last recorded bulk operation. The
// client-held history is authoritative; this is the server-side fallback.
func (c *Client) Undo(ctx context.Context) (*model.BulkResult, error) {
	var out bulkResponse
	if err := c.post(ctx, c.baseURL+"/transactions/undo", struct{}{}, &out); err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

// Redo asks the store to re-apply its own last reversed bulk operation.
func (c *Client) Redo(ctx context.Context) (*model.BulkResult, error) {
	var out bulkResponse
	if err := c.post(ctx, c.baseURL+"/transactions/redo", struct{}{}, &out); err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return common.NewTransportError("build request", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, rawURL string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return common.NewTransportError("encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return common.NewTransportError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.NewTransportError(req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &common.RateLimitError{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return common.NewTransportError(req.URL.Path,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return common.NewTransportError(req.URL.Path, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// retryAfter extracts the advertised throttling delay, preferring the
// Retry-After header over the response body.
func retryAfter(resp *http.Response) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	var body rateLimitBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.RetryAfterSeconds > 0 {
		return time.Duration(body.RetryAfterSeconds * float64(time.Second))
	}
	return 0
}

// encodeFilter flattens normalized filter values into query parameters.
func encodeFilter(q url.Values, filter model.Filter) {
	for key, value := range filter {
		switch v := value.(type) {
		case bool:
			q.Set(key, strconv.FormatBool(v))
		case string:
			q.Set(key, v)
		default:
			q.Set(key, fmt.Sprint(v))
		}
	}
}
