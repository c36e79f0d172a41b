// Package api is the REST client for the bulk shipping backend. It owns
// transport concerns only: bearer token attachment, the single-shot
// refresh-and-retry protocol on 401, and translation of failures into the
// error taxonomy in errors.go. All validation, rating and payment logic
// lives server-side.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CredentialSource supplies tokens to the client and receives updates from
// the refresh protocol. Implementations must be safe for concurrent use.
type CredentialSource interface {
	// Access returns the current access token, or "" when logged out.
	Access() string
	// Refresh returns the current refresh token, or "" when logged out.
	Refresh() string
	// Update stores a new access token and, when non-empty, a rotated
	// refresh token.
	Update(access, refresh string) error
	// Clear wipes all persisted credential state. Called when the refresh
	// protocol is exhausted.
	Clear() error
}

// Client talks to the backend. A zero timeout falls back to 30 seconds.
type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
	log     *zap.Logger

	// refreshGroup serializes token refreshes: requests that 401 while a
	// refresh is in flight wait for it and retry once with its result.
	refreshGroup singleflight.Group
}

// New creates a client. creds may be nil for unauthenticated use.
func New(baseURL string, timeout time.Duration, creds CredentialSource, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
		log:     log.Named("api"),
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	// noAuth skips the Authorization header and the refresh protocol.
	// Used for login and refresh themselves.
	noAuth bool
}

// do executes a request, running the refresh-and-retry protocol on 401, and
// decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	resp, body, err := c.send(ctx, req, c.accessToken())
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.noAuth && c.creds != nil {
		access, refreshErr := c.refreshAccess(ctx)
		if refreshErr != nil {
			// Refresh exhausted: wipe local credential state exactly once
			// and force re-authentication.
			_ = c.creds.Clear()
			c.log.Warn("token refresh failed, credentials cleared", zap.Error(refreshErr))
			return &AuthenticationError{Message: "Session expired. Please log in again."}
		}
		resp, body, err = c.send(ctx, req, access)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// Second 401 after a successful refresh is terminal; never
			// retry again.
			_ = c.creds.Clear()
			return &AuthenticationError{Message: "Session expired. Please log in again."}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.remoteError(resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	return nil
}

// send issues one HTTP round trip. A transport-level failure becomes a
// NetworkError; any response at all is returned for the caller to interpret.
func (c *Client) send(ctx context.Context, req request, token string) (*http.Response, []byte, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var rd io.Reader
	if req.body != nil {
		rd = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, rd)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	} else if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" && !req.noAuth {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", req.method), zap.String("path", req.path), zap.Error(err))
		return nil, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}
	c.log.Debug("request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, body, nil
}

func (c *Client) accessToken() string {
	if c.creds == nil {
		return ""
	}
	return c.creds.Access()
}

// refreshAccess exchanges the refresh token for a new access token. Calls are
// coalesced so only one exchange is outstanding at a time; every waiter gets
// the same result.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		refresh := c.creds.Refresh()
		if refresh == "" {
			return "", fmt.Errorf("no refresh token")
		}
		payload, _ := json.Marshal(map[string]string{"refresh": refresh})
		resp, body, err := c.send(ctx, request{
			method:      http.MethodPost,
			path:        "/auth/refresh/",
			body:        payload,
			contentType: "application/json",
			noAuth:      true,
		}, "")
		if err != nil {
			return "", err
		}
		if resp.StatusCode != http.StatusOK {
			return "", c.remoteError(resp.StatusCode, body)
		}
		var rr refreshResponse
		if err := json.Unmarshal(body, &rr); err != nil {
			return "", fmt.Errorf("decode refresh response: %w", err)
		}
		if err := c.creds.Update(rr.Access, rr.Refresh); err != nil {
			return "", fmt.Errorf("store refreshed tokens: %w", err)
		}
		c.log.Debug("access token refreshed")
		return rr.Access, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) remoteError(status int, body []byte) error {
	var envelope map[string]any
	msg := ""
	if len(body) > 0 && json.Unmarshal(body, &envelope) == nil {
		msg = parseEnvelope(envelope)
	}
	return &RemoteError{StatusCode: status, Message: msg}
}

// getJSON and postJSON are the common request shapes.

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body}, out)
}

func (c *Client) patchJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, request{method: http.MethodPatch, path: path, body: body}, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}

// postMultipart uploads a single named file under the "file" form field.
func (c *Client) postMultipart(ctx context.Context, path, fileName string, content []byte, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(fileName))
	if err != nil {
		return fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("build multipart body: %w", err)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	}, out)
}
