// Package integration holds the HTTP clients the two services use to talk
// to each other. Both sides authenticate with the shared X-API-Key.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/belgrano/backend/internal/domain/shared"
)

const (
	// HeaderAPIKey carries the shared integration secret
	HeaderAPIKey = "X-API-Key"
	// HeaderIdempotencyKey carries the order numero on ticket creation
	HeaderIdempotencyKey = "Idempotency-Key"

	maxResponseSize = 1 << 20
)

var (
	// ErrRemoteUnavailable covers transport errors, 5xx, 401 and 429: worth retrying
	ErrRemoteUnavailable = errors.New("remote service unavailable")
	// ErrRemoteRejected is a 4xx the remote will keep returning
	ErrRemoteRejected = fmt.Errorf("remote service rejected the request: %w", shared.ErrPermanentDelivery)
	// ErrRemoteConflict is a 409; the remote already holds a final state
	ErrRemoteConflict = errors.New("remote service reported a conflict")
)

// baseClient does JSON requests against one service
type baseClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newBaseClient(baseURL, apiKey string, timeout time.Duration) baseClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return baseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// doJSON sends body as JSON and decodes a 2xx response into out (when non-nil)
func (c baseClient) doJSON(ctx context.Context, method, path string, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrRemoteUnavailable, err)
	}

	if err := statusError(method, path, resp.StatusCode, data); err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response from %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(method, path string, status int, body []byte) error {
	if status < 400 {
		return nil
	}
	msg := remoteMessage(body)
	switch {
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s %s: HTTP %d %s", ErrRemoteConflict, method, path, status, msg)
	case status >= 500, status == http.StatusUnauthorized, status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s %s: HTTP %d %s", ErrRemoteUnavailable, method, path, status, msg)
	default:
		return fmt.Errorf("%w: %s %s: HTTP %d %s", ErrRemoteRejected, method, path, status, msg)
	}
}

// remoteMessage pulls the error text out of either service's error shapes
func remoteMessage(body []byte) string {
	var shapes struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(body, &shapes) != nil {
		return ""
	}
	var s string
	if json.Unmarshal(shapes.Error, &s) == nil && s != "" {
		return s
	}
	var env struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(shapes.Error, &env) == nil && env.Message != "" {
		return env.Message
	}
	return shapes.Message
}
