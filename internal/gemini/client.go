package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 120 * time.Second
)

type Client struct {
	httpClient Doer
	apiKey     string
	model      string
	baseURL    string
	profile    string
	timeout    time.Duration
	log        *zap.SugaredLogger
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the tls-client transport, mostly for tests.
func WithHTTPClient(d Doer) ClientOption {
	return func(c *Client) {
		c.httpClient = d
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithProfile(name string) ClientOption {
	return func(c *Client) {
		c.profile = name
	}
}

func WithLogger(log *zap.SugaredLogger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		apiKey:  apiKey,
		model:   DefaultModel,
		baseURL: DefaultBaseURL,
		profile: DefaultProfile,
		timeout: DefaultTimeout,
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("gemini")

	if c.httpClient == nil {
		transport, err := NewTransport(c.profile, c.timeout)
		if err != nil {
			return nil, err
		}
		c.httpClient = transport
	}

	return c, nil
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
}

// Generate sends one request and returns the first candidate's text.
// Failures are *TransportError, *APIError or *ShapeError. Nothing is retried.
func (c *Client) Generate(ctx context.Context, req *Request) (string, error) {
	body, err := req.Payload()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Err: c.redact(err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		err = c.redact(err)
		c.log.Warnw("generate request failed", "model", c.model, "error", err)
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("read response: %w", c.redact(err))}
	}

	text, err := InterpretResponse(resp.StatusCode, respBody)
	if err != nil {
		var shapeErr *ShapeError
		if errors.As(err, &shapeErr) {
			c.log.Warnw("unusable reply", "model", c.model, "status", resp.StatusCode, "detail", shapeErr.Detail())
		} else {
			c.log.Warnw("generate rejected", "model", c.model, "status", resp.StatusCode, "error", err)
		}
		return "", err
	}

	c.log.Debugw("generate ok", "model", c.model, "parts", len(req.Parts), "elapsed", time.Since(start))
	return text, nil
}

// redact strips the request URL, which carries the API key, from err.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	msg := err.Error()
	masked := strings.NewReplacer(c.apiKey, "****", url.QueryEscape(c.apiKey), "****").Replace(msg)
	if masked == msg {
		return err
	}
	return &redactedError{msg: masked, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string {
	return e.msg
}

func (e *redactedError) Unwrap() error {
	return e.err
}
