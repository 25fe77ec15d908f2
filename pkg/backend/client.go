package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/kampyn/ordering-gateway/pkg/config"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/httptrack"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

var errBaseURLRequired = errors.New("backend base url is required")

type tokenCtxKey struct{}

// WithToken attaches the caller's bearer token to the context so every
// backend call made on its behalf carries it.
func WithToken(ctx context.Context, token string) context.Context {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if token, ok := ctx.Value(tokenCtxKey{}).(string); ok {
		return token
	}
	return ""
}

type requestIDCtxKey struct{}

// WithRequestID carries the inbound request id so backend calls can be
// correlated across both services.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDCtxKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// Client talks to the authoritative platform backend with centralized
// logging, error mapping, redaction, and read-only retries. All business
// state lives behind it; the gateway holds projections only.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *logger.Logger
	readRetries int
	retryBase   time.Duration
}

// NewClient initializes the backend client.
func NewClient(cfg config.BackendConfig, logg *logger.Logger, tracker *httptrack.Tracker) (*Client, error) {
	if logg == nil {
		return nil, errors.New("backend logger is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	httpClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: tracker.Wrap(nil),
	}

	return &Client{
		baseURL:     baseURL,
		httpClient:  httpClient,
		logger:      logg,
		readRetries: cfg.ReadRetries,
		retryBase:   cfg.ReadRetryBase,
	}, nil
}

// BaseURL reports the configured backend address.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// Ping verifies the backend answers at all.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.get(ctx, "/healthz", nil, &out)
}

// get performs an idempotent read with bounded exponential backoff.
// Mutations never retry: a duplicate POST against payment endpoints could
// mint a second provider order.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	backoff := retry.WithMaxRetries(uint64(maxRetries(c.readRetries)), retry.NewExponential(c.retryDelay()))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, query, nil, out)
		if err != nil && pkgerrors.Retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	c.log(ctx, "request", method, path, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", method, path, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("backend %s %s", method, path))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read backend response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapHTTPError(ctx, method, path, resp.StatusCode, payload)
	}

	if businessErr := c.checkEnvelope(payload); businessErr != nil {
		c.log(ctx, "error", method, path, map[string]any{"error": businessErr.Error()})
		return businessErr
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode backend response")
		}
	}

	c.log(ctx, "response", method, path, map[string]any{"status": resp.StatusCode})
	return nil
}

// doStream issues a request and hands the raw body to the caller, used for
// invoice zip downloads. The caller owns closing the body.
func (c *Client) doStream(ctx context.Context, method, path string, body any) (io.ReadCloser, string, error) {
	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return nil, "", err
	}

	c.log(ctx, "request", method, path, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", method, path, map[string]any{"error": err.Error()})
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("backend %s %s", method, path))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		return nil, "", c.mapHTTPError(ctx, method, path, resp.StatusCode, payload)
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode backend request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID := requestIDFromContext(ctx); requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	return req, nil
}

// checkEnvelope surfaces {success:false, message} business errors verbatim.
func (c *Client) checkEnvelope(payload []byte) error {
	var envelope struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil
	}
	if envelope.Success != nil && !*envelope.Success {
		message := envelope.Message
		if message == "" {
			message = "backend reported failure"
		}
		return pkgerrors.New(pkgerrors.CodeBackend, message)
	}
	return nil
}

func (c *Client) mapHTTPError(ctx context.Context, method, path string, status int, payload []byte) error {
	message := fmt.Sprintf("backend %s %s returned %d", method, path, status)
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Message != "" {
		message = envelope.Message
	}

	c.log(ctx, "error", method, path, map[string]any{"status": status, "error": message})
	return pkgerrors.New(codeForStatus(status), message)
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func (c *Client) log(ctx context.Context, phase, method, path string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"phase":  phase,
		"method": method,
		"path":   path,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, "backend request failed", errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("backend %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "signature", "otp", "password", "phone", "email"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func maxRetries(configured int) int {
	if configured < 0 {
		return 0
	}
	return configured
}

func (c *Client) retryDelay() time.Duration {
	if c.retryBase <= 0 {
		return 200 * time.Millisecond
	}
	return c.retryBase
}
