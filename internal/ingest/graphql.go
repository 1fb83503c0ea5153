// Package ingest imports the Space Apps team catalog into a catalog store.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Defaults for the public teams API
const (
	DefaultEndpoint  = "https://api.spaceappschallenge.org/graphql"
	DefaultEvent     = "2025 NASA Space Apps Challenge"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

const teamsQuery = `
query Teams($first: Int!, $after: String, $filtering: [Filter!]) {
  teams(first: $first, after: $after, filtering: $filtering) {
    edges {
      node {
        id
        title
        meta { relativeUrl }
        projectDetails { name }
        challengeDetails { id title excerpt }
        locationDetails { id title displayName country }
        nominationBadges
        awardBadges
      }
    }
  }
}`

const totalCountQuery = `
query Teams($filtering: [Filter!]) {
  teams(first: 1, filtering: $filtering) { totalCount }
}`

// Team is one node of the teams connection
type Team struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Meta             *TeamMeta         `json:"meta"`
	ProjectDetails   *ProjectDetails   `json:"projectDetails"`
	ChallengeDetails *ChallengeDetails `json:"challengeDetails"`
	LocationDetails  *LocationDetails  `json:"locationDetails"`
	NominationBadges []string          `json:"nominationBadges"`
	AwardBadges      []string          `json:"awardBadges"`
}

type TeamMeta struct {
	RelativeURL string `json:"relativeUrl"`
}

type ProjectDetails struct {
	Name string `json:"name"`
}

type ChallengeDetails struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

type LocationDetails struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	DisplayName string `json:"displayName"`
	Country     string `json:"country"`
}

type filter struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Compare string `json:"compare"`
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type teamsResponse struct {
	Data struct {
		Teams struct {
			TotalCount int `json:"totalCount"`
			Edges      []struct {
				Node Team `json:"node"`
			} `json:"edges"`
		} `json:"teams"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// Client queries the teams GraphQL API
type Client struct {
	endpoint   string
	event      string
	userAgent  string
	httpClient *http.Client
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithEndpoint overrides the GraphQL URL
func WithEndpoint(url string) ClientOption {
	return func(c *Client) { c.endpoint = url }
}

// WithEvent selects the event whose teams are listed
func WithEvent(event string) ClientOption {
	return func(c *Client) { c.event = event }
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a teams API client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		endpoint:  DefaultEndpoint,
		event:     DefaultEvent,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cursor builds the connection cursor that starts a page at offset.
// The API encodes cursors as base64("offset:N") where N is the last index
// already seen, so offset 0 has no cursor.
func Cursor(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte("offset:" + strconv.Itoa(offset-1)))
}

// TotalCount returns the number of teams of the event
func (c *Client) TotalCount(ctx context.Context) (int, error) {
	var resp teamsResponse
	err := c.do(ctx, graphqlRequest{
		Query:     totalCountQuery,
		Variables: map[string]any{"filtering": c.filters()},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("failed to query total count: %w", err)
	}
	return resp.Data.Teams.TotalCount, nil
}

// FetchPage returns up to first teams starting at offset
func (c *Client) FetchPage(ctx context.Context, offset, first int) ([]Team, error) {
	var resp teamsResponse
	err := c.do(ctx, graphqlRequest{
		Query: teamsQuery,
		Variables: map[string]any{
			"first":     first,
			"after":     Cursor(offset),
			"filtering": c.filters(),
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams at offset %d: %w", offset, err)
	}

	teams := make([]Team, 0, len(resp.Data.Teams.Edges))
	for _, e := range resp.Data.Teams.Edges {
		teams = append(teams, e.Node)
	}
	return teams, nil
}

func (c *Client) filters() []filter {
	return []filter{{Field: "event", Value: c.event, Compare: "in"}}
}

func (c *Client) do(ctx context.Context, gql graphqlRequest, out *teamsResponse) error {
	body, err := json.Marshal(gql)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", out.Errors[0].Message)
	}
	return nil
}
