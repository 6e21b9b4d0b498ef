// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package api is the ConnectX REST gateway client.
//
// Every response from the backend is an envelope:
//
//	{"success": true, "message": "...", "error": "...", "data": {...}}
//
// Client unwraps the envelope, attaches the bearer token from a
// read-only TokenSource, and classifies failures into the three cases
// callers act on: the server could not be reached (ErrUnreachable),
// the server answered with an error status (*Error), or the server
// answered 2xx with a body that does not decode (ErrMalformed).
// List endpoints with a safe empty answer convert ErrMalformed into
// that answer and log a warning. The marketplace reads (coin bundles,
// coin history, premium status, colleges) return the empty answer
// together with the error. The verification status never defaults.
//
// A 401 from any endpoint is reported to the UnauthorizedHandler before
// the error is returned. The handler decides whether to end the
// session; Client never writes session state itself.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/connectx-campus/connectx/lib/netutil"
	"github.com/connectx-campus/connectx/lib/version"
)

// DefaultTimeout bounds each request when ClientConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// TokenSource supplies the current access token. An empty string means
// no session; the request is sent without Authorization.
type TokenSource interface {
	AccessToken() string
}

// UnauthorizedHandler is told about every 401 response.
type UnauthorizedHandler interface {
	HandleUnauthorized(method, path string)
}

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://api.connectx.example/api".
	BaseURL string
	// HTTPClient is used for all requests. If nil, a client with Timeout
	// is created.
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil. Zero means DefaultTimeout.
	Timeout time.Duration
	// Tokens supplies the bearer token. Nil sends unauthenticated
	// requests.
	Tokens TokenSource
	// Unauthorized receives 401 notifications. May be nil.
	Unauthorized UnauthorizedHandler
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client talks to the ConnectX REST API. Safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokens       TokenSource
	unauthorized UnauthorizedHandler
	logger       *slog.Logger
}

// NewClient validates config and returns a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("api: BaseURL is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api: BaseURL %q must be absolute", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		httpClient:   httpClient,
		tokens:       config.Tokens,
		unauthorized: config.Unauthorized,
		logger:       logger,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string { return c.baseURL }

// CloseIdleConnections drops pooled connections, forcing fresh dials
// after a network change.
func (c *Client) CloseIdleConnections() { c.httpClient.CloseIdleConnections() }

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// hasData reports whether the envelope carried a non-null data member.
func (e *envelope) hasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// FilePart is one file in a multipart upload.
type FilePart struct {
	// Field is the form field name, e.g. "idCard".
	Field string
	// Filename is reported to the server; it does not affect validation.
	Filename string
	// ContentType is the sniffed MIME type of Content.
	ContentType string
	Content     []byte
}

// call performs a JSON request and returns the decoded envelope.
// requestBody may be nil. query may be nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, requestBody any) (*envelope, error) {
	var (
		body        io.Reader
		contentType string
	)
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("api: encoding %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, query, contentType, body)
}

// upload posts files as multipart/form-data.
func (c *Client) upload(ctx context.Context, path string, parts ...FilePart) (*envelope, error) {
	return c.uploadForm(ctx, path, nil, parts...)
}

// uploadForm is upload with plain text fields written ahead of the
// files, in key order.
func (c *Client) uploadForm(ctx context.Context, path string, fields url.Values, parts ...FilePart) (*envelope, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		for _, value := range fields[name] {
			if err := writer.WriteField(name, value); err != nil {
				return nil, fmt.Errorf("api: building %s field: %w", name, err)
			}
		}
	}
	for _, part := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, part.Field, part.Filename))
		header.Set("Content-Type", part.ContentType)
		partWriter, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("api: building %s upload: %w", part.Field, err)
		}
		if _, err := partWriter.Write(part.Content); err != nil {
			return nil, fmt.Errorf("api: building %s upload: %w", part.Field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("api: finishing multipart body: %w", err)
	}
	return c.send(ctx, http.MethodPost, path, nil, writer.FormDataContentType(), &buffer)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (*envelope, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}
	requestID := uuid.NewString()
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())
	request.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			request.Header.Set("Authorization", "Bearer "+token)
		}
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("api: %s %s: %w", method, path, ctx.Err())
		}
		c.logger.Warn("api request got no response",
			"method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("api: %s %s: %w: %w", method, path, ErrUnreachable, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w: reading body: %w", method, path, ErrUnreachable, err)
	}

	var decoded envelope
	decodeErr := json.Unmarshal(responseBody, &decoded)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		apiErr := &Error{StatusCode: response.StatusCode, Method: method, Path: path}
		if decodeErr == nil {
			apiErr.Message = decoded.Error
			if apiErr.Message == "" {
				apiErr.Message = decoded.Message
			}
		}
		c.logger.Debug("api request failed",
			"method", method, "path", path, "status", response.StatusCode,
			"request_id", requestID, "message", apiErr.Message)
		if response.StatusCode == http.StatusUnauthorized && c.unauthorized != nil {
			c.unauthorized.HandleUnauthorized(method, path)
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		c.logger.Warn("api response body did not decode",
			"method", method, "path", path, "status", response.StatusCode,
			"request_id", requestID, "body", netutil.Snippet(responseBody))
		return nil, fmt.Errorf("api: %s %s: %w: %w", method, path, ErrMalformed, decodeErr)
	}
	if decoded.Success != nil && !*decoded.Success {
		message := decoded.Error
		if message == "" {
			message = decoded.Message
		}
		return nil, &Error{StatusCode: response.StatusCode, Method: method, Path: path, Message: message}
	}
	return &decoded, nil
}

// decodeData unmarshals the envelope's data member into target.
func (c *Client) decodeData(method, path string, decoded *envelope, target any) error {
	if !decoded.hasData() {
		return fmt.Errorf("api: %s %s: %w: no data", method, path, ErrMalformed)
	}
	if err := json.Unmarshal(decoded.Data, target); err != nil {
		c.logger.Warn("api data member did not decode",
			"method", method, "path", path, "error", err)
		return fmt.Errorf("api: %s %s: %w: %w", method, path, ErrMalformed, err)
	}
	return nil
}

// get is call+decodeData for the common GET case.
func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	decoded, err := c.call(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.decodeData(http.MethodGet, path, decoded, target)
}

// mutate performs a write whose response data is informational only.
// The envelope message is returned for display.
func (c *Client) mutate(ctx context.Context, method, path string, requestBody any) (string, error) {
	decoded, err := c.call(ctx, method, path, nil, requestBody)
	if err != nil {
		return "", err
	}
	return decoded.Message, nil
}

// orDefault converts ErrMalformed into the zero answer, logging once.
// Other errors pass through.
func (c *Client) orDefault(err error, what string) error {
	if errors.Is(err, ErrMalformed) {
		c.logger.Warn("using empty default for malformed response", "what", what, "error", err)
		return nil
	}
	return err
}
