// Package vapi is a small client for the Vapi.ai assistant API and the
// translation between local assistant records and the provider's shape.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultBaseURL = "https://api.vapi.ai"
	DefaultTimeout = 15 * time.Second

	contentTypeJSON = "application/json"
	maxResponseBody = 1 << 20
)

var providerCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "receptionist_vapi_calls_total",
		Help: "Calls to the voice provider by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

// RemoteAssistant is the part of the provider's assistant object we read back.
type RemoteAssistant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateAssistant registers a new assistant and returns the provider's record.
// A response without an id is treated as an upstream failure.
func (c *Client) CreateAssistant(ctx context.Context, payload AssistantPayload) (*RemoteAssistant, error) {
	var out RemoteAssistant
	if err := c.do(ctx, "create", http.MethodPost, "assistant", payload, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: create response carried no assistant id", ErrUpstream)
	}
	return &out, nil
}

func (c *Client) GetAssistant(ctx context.Context, id string) (*RemoteAssistant, error) {
	var out RemoteAssistant
	if err := c.do(ctx, "get", http.MethodGet, "assistant/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAssistant(ctx context.Context, id string, payload AssistantPayload) (*RemoteAssistant, error) {
	var out RemoteAssistant
	if err := c.do(ctx, "update", http.MethodPatch, "assistant/"+url.PathEscape(id), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAssistant(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, "assistant/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, result any) (err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		providerCallsTotal.WithLabelValues(op, outcome).Inc()
	}()

	reqURL, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("building provider url: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", op, err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: reading %s response: %w", ErrUpstream, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: decoding %s response: %w", ErrUpstream, op, err)
		}
	}
	return nil
}
