// Package mangaapi is the HTTP client for the remote manga catalog and
// collection service.
package mangaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 512

	headerAppToken = "App-Token"
)

// Config configures a Client. Zero values select the defaults.
type Config struct {
	BaseURL  string
	AppToken string
	Timeout  time.Duration

	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the manga service. It is safe for concurrent use.
type Client struct {
	baseURL    string
	appToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new manga API client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		appToken:   cfg.AppToken,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

// request describes one call to the service.
type request struct {
	method string
	path   string
	query  url.Values
	body   any

	bearer   string
	basic    *basicAuth
	appToken bool

	expect int
}

type basicAuth struct {
	user, password string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Err: err}
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}
	if r.basic != nil {
		req.SetBasicAuth(r.basic.user, r.basic.password)
	}
	if r.appToken && c.appToken != "" {
		req.Header.Set(headerAppToken, c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	expect := r.expect
	if expect == 0 {
		expect = http.StatusOK
	}
	if resp.StatusCode != expect {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

func pageQuery(page, per int) url.Values {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("per", fmt.Sprint(per))
	return q
}
