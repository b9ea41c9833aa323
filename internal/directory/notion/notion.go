// Package notion provides the Notion side of the review tool: workspace
// people listings and persistence of selected incidents into the review
// database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/go-core/log"

	"github.com/oncallops/revu/internal/cache"
	"github.com/oncallops/revu/internal/identity"
	"github.com/oncallops/revu/internal/incident"
)

// DefaultBaseURL is the Notion REST API endpoint.
const DefaultBaseURL = "https://api.notion.com"

// apiVersion pins the Notion API revision.
const apiVersion = "2022-06-28"

const (
	httpTimeout    = 30 * time.Second
	pageLimit      = 100
	peopleCacheKey = "notion_people.json"
)

// Client talks to the Notion REST API with an integration token.
type Client struct {
	baseURL    string
	token      string
	databaseID string
	client     *http.Client
	cache      *cache.Cache
	logger     log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithCache attaches a listing cache.
func WithCache(fc *cache.Cache) Option {
	return func(c *Client) { c.cache = fc }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Notion client writing incident pages into databaseID.
func New(token, databaseID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		databaseID: databaseID,
		client: &http.Client{
			Timeout:   httpTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: log.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// People lists every user in the workspace, walking cursor pagination to
// exhaustion. Listings are served from the cache when fresh.
func (c *Client) People(ctx context.Context) ([]identity.NotionPerson, error) {
	var people []identity.NotionPerson
	if c.cached(ctx, peopleCacheKey, &people) {
		c.logger.Info(ctx, "notion people served from cache", "count", len(people))
		return people, nil
	}

	cursor := ""
	for {
		var page struct {
			Results    []identity.NotionPerson `json:"results"`
			HasMore    bool                    `json:"has_more"`
			NextCursor string                  `json:"next_cursor"`
		}
		params := url.Values{"page_size": {fmt.Sprint(pageLimit)}}
		if cursor != "" {
			params.Set("start_cursor", cursor)
		}
		if err := c.do(ctx, http.MethodGet, "/v1/users?"+params.Encode(), nil, &page); err != nil {
			return nil, err
		}
		people = append(people, page.Results...)
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	c.store(ctx, peopleCacheKey, people)
	c.logger.Info(ctx, "listed notion people", "count", len(people))
	return people, nil
}

// Persist creates a page for the incident in the review database. The POC
// people property only carries identities known to Notion; Slack-only POCs
// appear in the record store but cannot be assigned here.
func (c *Client) Persist(ctx context.Context, inc incident.Incident) error {
	var people []map[string]any
	for _, poc := range inc.POCs {
		if poc.Notion == nil {
			continue
		}
		people = append(people, map[string]any{
			"object": "user",
			"id":     poc.Notion.ID,
		})
	}

	payload := map[string]any{
		"parent": map[string]any{"database_id": c.databaseID},
		"properties": map[string]any{
			"Name": map[string]any{
				"title": []map[string]any{
					{"text": map[string]any{"content": fmt.Sprintf("%d: %s", inc.Number, inc.Title)}},
				},
			},
			"link": map[string]any{
				"url": inc.HTMLURL,
			},
			"PoC(s)": map[string]any{
				"people": people,
			},
		},
	}

	if err := c.do(ctx, http.MethodPost, "/v1/pages", payload, &struct{}{}); err != nil {
		return err
	}
	c.logger.Info(ctx, "created incident page", "incident", inc.Number, "pocs", len(people))
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("notion: marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("notion: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("notion: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notion: %s %s returned %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("notion: decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) cached(ctx context.Context, key string, out any) bool {
	if c.cache == nil {
		return false
	}
	hit, err := c.cache.Get(key, out)
	if err != nil {
		c.logger.Warn(ctx, "cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (c *Client) store(ctx context.Context, key string, v any) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(key, v); err != nil {
		c.logger.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
}
