package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a Go SDK for the project-explorer API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new project-explorer client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Ranking modes
const (
	OrderRelevance = "relevance"
	OrderAwards    = "awards"
)

// SearchRequest represents a search. A zero Limit asks for the server's
// default page size.
type SearchRequest struct {
	Query      string   `json:"query,omitempty"`
	Challenges []string `json:"challenges,omitempty"`
	Locations  []string `json:"locations,omitempty"`
	Projects   []string `json:"projects,omitempty"`
	HasAward   bool     `json:"hasAward,omitempty"`
	OrderBy    string   `json:"orderBy,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset"`
}

// Project represents one search result row
type Project struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Location  *string `json:"location"`
	Challenge *string `json:"challenge"`
	Badges    *string `json:"badges"`
	Link      string  `json:"link"`
}

// Page represents one page of results and the total for its filters
type Page struct {
	Rows  []Project `json:"rows"`
	Total int       `json:"total"`
}

// APIError is returned when the server answers with an error envelope
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s - %s", e.Status, e.Code, e.Message)
}

// envelope mirrors the server response wrapper
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Search runs one search
func (c *Client) Search(ctx context.Context, req SearchRequest) (*Page, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	page, err := do[Page](ctx, c, http.MethodPost, "/api/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Facet lists the values of a filter: "challenges", "locations" or "projects"
func (c *Client) Facet(ctx context.Context, name string) ([]string, error) {
	data, err := do[struct {
		Values []string `json:"values"`
	}](ctx, c, http.MethodGet, "/api/categorias/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	return data.Values, nil
}

// Columns lists the columns of a catalog table
func (c *Client) Columns(ctx context.Context, table string) ([]string, error) {
	data, err := do[struct {
		Columns []string `json:"columns"`
	}](ctx, c, http.MethodGet, "/api/categorias/"+url.PathEscape(table)+"/columns", nil)
	if err != nil {
		return nil, err
	}
	return data.Columns, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := do[json.RawMessage](ctx, c, http.MethodGet, "/health", nil)
	return err
}

// do performs a request and unwraps the response envelope
func do[T any](ctx context.Context, c *Client, method, path string, body io.Reader) (T, error) {
	var zero T

	respBody, status, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return zero, err
	}

	var result envelope[T]
	if err := json.Unmarshal(respBody, &result); err != nil {
		if status >= 400 {
			return zero, &APIError{Status: status, Code: "http_error", Message: string(respBody)}
		}
		return zero, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || status >= 400 {
		apiErr := &APIError{Status: status, Code: "unknown", Message: "request failed"}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return zero, apiErr
	}

	return result.Data, nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return respBody, resp.StatusCode, nil
}
