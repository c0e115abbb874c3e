package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"snpedia/pkg/logging"
	"snpedia/pkg/metrics"
)

const defaultUserAgent = "snpedia-scraper/1.0"

// Client issues GET requests against a single MediaWiki api.php endpoint.
// It performs exactly one attempt per call; there is no retry.
type Client struct {
	httpClient *http.Client
	endpoint   *url.URL
	userAgent  string
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout bounds every call, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for the api.php URL given as endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q must be an absolute URL", endpoint)
	}
	c := &Client{
		httpClient: &http.Client{},
		endpoint:   u,
		userAgent:  defaultUserAgent,
		logger:     logging.NewLogger("mediawiki"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the API URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Send performs one GET with the request's parameters (continuation included)
// and decodes the envelope with a query payload of type T.
func Send[T any](ctx context.Context, c *Client, req Request) (*Response[T], error) {
	started := time.Now()

	u := *c.endpoint
	u.RawQuery = req.Values().Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		metrics.ObserveRequest(metrics.OutcomeNetwork, started)
		return nil, networkError(0, err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.ObserveRequest(metrics.OutcomeNetwork, started)
		return nil, networkError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ObserveRequest(metrics.OutcomeNetwork, started)
		return nil, networkError(resp.StatusCode, fmt.Errorf("unexpected status: %s", resp.Status))
	}

	out, err := decodeEnvelope[T](json.NewDecoder(resp.Body))
	if err != nil {
		metrics.ObserveRequest(metrics.OutcomeDecode, started)
		return nil, err
	}
	metrics.ObserveRequest(metrics.OutcomeOK, started)

	c.logger.Debug().
		Str("query", u.RawQuery).
		Bool("continue", out.Continue != nil).
		Dur("duration", time.Since(started)).
		Msg("api request")
	return out, nil
}

func decodeEnvelope[T any](dec *json.Decoder) (*Response[T], error) {
	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil, decodeError(err)
	}
	if env.Error != nil {
		return nil, decodeError(env.Error)
	}
	if len(env.Query) == 0 {
		return nil, decodeError(errors.New(`envelope has no "query" member`))
	}

	var query T
	if err := json.Unmarshal(env.Query, &query); err != nil {
		return nil, decodeError(fmt.Errorf("query payload: %w", err))
	}

	out := &Response[T]{
		BatchComplete: batchComplete(env.BatchComplete),
		Query:         query,
	}
	if len(env.Continue) > 0 {
		out.Continue = env.Continue
	}
	return out, nil
}
