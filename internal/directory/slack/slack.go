// Package slack provides the Slack side of the review tool: workspace user
// and channel listings plus the summary broadcast.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/go-core/log"

	"github.com/oncallops/revu/internal/cache"
	"github.com/oncallops/revu/internal/identity"
	"github.com/oncallops/revu/internal/review"
)

// DefaultBaseURL is the Slack Web API endpoint.
const DefaultBaseURL = "https://slack.com/api"

const (
	httpTimeout = 30 * time.Second
	pageLimit   = 200

	usersCacheKey    = "slack_users.json"
	channelsCacheKey = "slack_channels.json"
)

// Client talks to the Slack Web API with a bot token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	cache   *cache.Cache
	logger  log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithCache attaches a listing cache. Without one every call hits the API.
func WithCache(fc *cache.Cache) Option {
	return func(c *Client) { c.cache = fc }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Slack client.
func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
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

// apiEnvelope is the part of every Slack API response that signals success.
type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (e apiEnvelope) ok() (bool, string) { return e.OK, e.Error }

// apiResponse is implemented by every response struct via its embedded
// apiEnvelope.
type apiResponse interface {
	ok() (bool, string)
}

type responseMetadata struct {
	NextCursor string `json:"next_cursor"`
}

// Users lists every member of the workspace, walking cursor pagination to
// exhaustion. Listings are served from the cache when fresh.
func (c *Client) Users(ctx context.Context) ([]identity.SlackUser, error) {
	var users []identity.SlackUser
	if c.cached(ctx, usersCacheKey, &users) {
		c.logger.Info(ctx, "slack users served from cache", "count", len(users))
		return users, nil
	}

	cursor := ""
	for {
		var page struct {
			apiEnvelope
			Members  []identity.SlackUser `json:"members"`
			Metadata responseMetadata     `json:"response_metadata"`
		}
		params := url.Values{"limit": {strconv.Itoa(pageLimit)}}
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		if err := c.get(ctx, "users.list", params, &page); err != nil {
			return nil, err
		}
		users = append(users, page.Members...)
		cursor = page.Metadata.NextCursor
		if cursor == "" {
			break
		}
	}

	c.store(ctx, usersCacheKey, users)
	c.logger.Info(ctx, "listed slack users", "count", len(users))
	return users, nil
}

// Channels lists the workspace's public channels, excluding archived ones.
func (c *Client) Channels(ctx context.Context) ([]review.Channel, error) {
	var channels []review.Channel
	if c.cached(ctx, channelsCacheKey, &channels) {
		c.logger.Info(ctx, "slack channels served from cache", "count", len(channels))
		return channels, nil
	}

	cursor := ""
	for {
		var page struct {
			apiEnvelope
			Channels []review.Channel `json:"channels"`
			Metadata responseMetadata `json:"response_metadata"`
		}
		params := url.Values{
			"limit":            {strconv.Itoa(pageLimit)},
			"exclude_archived": {"true"},
			"types":            {"public_channel"},
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		if err := c.get(ctx, "conversations.list", params, &page); err != nil {
			return nil, err
		}
		channels = append(channels, page.Channels...)
		cursor = page.Metadata.NextCursor
		if cursor == "" {
			break
		}
	}

	c.store(ctx, channelsCacheKey, channels)
	c.logger.Info(ctx, "listed slack channels", "count", len(channels))
	return channels, nil
}

// Broadcast posts a mrkdwn message to a channel by name.
func (c *Client) Broadcast(ctx context.Context, channel, message string) error {
	payload := map[string]any{
		"channel": channel,
		"text":    message,
		"mrkdwn":  true,
	}
	var resp apiEnvelope
	if err := c.post(ctx, "chat.postMessage", payload, &resp); err != nil {
		return err
	}
	c.logger.Info(ctx, "posted message", "channel", channel)
	return nil
}

func (c *Client) get(ctx context.Context, method string, params url.Values, out apiResponse) error {
	endpoint := c.baseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	return c.do(req, method, out)
}

func (c *Client) post(ctx context.Context, method string, payload any, out apiResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slack: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.do(req, method, out)
}

func (c *Client) do(req *http.Request, method string, out apiResponse) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: %s returned %d: %s", method, resp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("slack: decode %s response: %w", method, err)
	}
	if ok, apiErr := out.ok(); !ok {
		return fmt.Errorf("slack: %s failed: %s", method, apiErr)
	}
	return nil
}

// cached loads a listing from the cache; a cache failure is logged and
// treated as a miss.
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

// store writes a listing to the cache; a cache failure only costs the next
// run a refetch.
func (c *Client) store(ctx context.Context, key string, v any) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(key, v); err != nil {
		c.logger.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
}
