// HTTP client for the snapshot backend
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
)

const defaultBaseURL = "http://localhost:8080"

// Client performs requests against the snapshot backend (or any JSON API rooted at baseURL).
//
// A bearer token is attached when the token source yields one; requests without a
// token are still sent.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts oauth2.TokenSource) ClientOption {
	return func(c *Client) { c.tokens = ts }
}

// WithRateLimit caps outbound requests per second. Non-positive values disable the limit.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new [Client]. An empty baseURL defaults to the local backend and a
// nil client to [http.DefaultClient].
func NewClient(baseURL string, client *http.Client, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
		c.logger.SetLevel(log.WarnLevel)
	}
	return c
}

// BaseURL returns the root every relative path is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// TransportError is a failure with no usable response envelope: the request never
// completed, or the server answered with a non-2xx status and no error body.
type TransportError struct {
	StatusCode int
	Text       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %s", ErrTransport, e.Text)
	}
	return fmt.Sprintf("%v: status %d: %s", ErrTransport, e.StatusCode, e.Text)
}

func (e *TransportError) Unwrap() []error {
	if e.Err != nil {
		return []error{shared.ErrTransport, e.Err}
	}
	return []error{shared.ErrTransport}
}

// ErrTransport is re-exported so callers can match without importing shared.
var ErrTransport = shared.ErrTransport

// APIError is an error reported by the backend inside the response envelope.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Path, e.Status, e.Message)
}

// Unwrap classifies the error as an expired token or a generic request failure.
func (e *APIError) Unwrap() error {
	if (&models.APIError{Status: e.Status, Message: e.Message}).TokenExpired() {
		return shared.ErrTokenExpired
	}
	return shared.ErrAPIRequest
}

// EnvelopeError returns an [*APIError] for an envelope carrying an error, or nil.
func EnvelopeError(path string, env *models.Envelope) error {
	if env == nil || env.Error == nil {
		return nil
	}
	return &APIError{Status: env.Error.Status, Message: env.Error.Message, Path: path}
}

// Do performs one request and returns the raw response regardless of status.
//
// path is resolved against the base URL unless it is already absolute.
// Failures to send or read are returned as [*TransportError].
func (c *Client) Do(ctx context.Context, method, path string) (*APIResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Text: "rate limiter: " + err.Error(), Err: err}
		}
	}

	fullURL := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		fullURL = c.baseURL + path
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.tokens != nil {
		if tok, err := c.tokens.Token(); err == nil && tok.AccessToken != "" {
			tok.SetAuthHeader(req)
		}
	}

	c.logger.Debug("making a request call", "method", method, "url", fullURL, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Text: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Text: "failed to read response: " + err.Error(), Err: err}
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	c.logger.Debug("received from server", "status", resp.StatusCode, "bytes", len(body), "request_id", requestID)
	return apiResp, nil
}

// DecodeEnvelope parses a backend response body.
func DecodeEnvelope(body []byte) (*models.Envelope, error) {
	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidEnvelope, err)
	}
	return &env, nil
}

// call sends a request and decodes the envelope.
//
// A non-2xx response is returned as an envelope when its body carries an error,
// otherwise as a [*TransportError].
func (c *Client) call(ctx context.Context, method, path string) (*models.Envelope, error) {
	resp, err := c.Do(ctx, method, path)
	if err != nil {
		return nil, err
	}

	env, err := DecodeEnvelope(resp.Body)
	if !resp.OK() && (err != nil || env.Error == nil) {
		return nil, &TransportError{StatusCode: resp.StatusCode, Text: statusText(resp)}
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return env, nil
}

func statusText(resp *APIResponse) string {
	text := strings.TrimSpace(string(resp.Body))
	if text == "" || len(text) > 200 {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// IsTransportError reports whether err is (or wraps) a [*TransportError].
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
