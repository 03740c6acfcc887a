package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/domain/session"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"
)

// Client is a typed Go client for the feedback backend.
// It is safe for concurrent use.
type Client struct {
	base           string
	http           *http.Client
	retryCfg       retry.Config
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: want http(s)://host[:port]", baseURL)
	}

	hc := &http.Client{Timeout: o.timeout}
	if o.httpClient != nil {
		copied := *o.httpClient
		hc = &copied
	}
	if o.jar != nil {
		hc.Jar = o.jar
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	if o.maxAttempts < 1 {
		o.maxAttempts = 1
	}

	return &Client{
		base: base,
		http: hc,
		retryCfg: retry.Config{
			MaxAttempts:   o.maxAttempts,
			InitialDelay:  o.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
		logger:         logger,
		maxUploadBytes: o.maxUploadBytes,
	}, nil
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.base
}

// ResolveURL resolves a backend-relative path, such as a screenshot path,
// against the backend origin. Absolute URLs are returned unchanged.
func (c *Client) ResolveURL(path string) string {
	if path == "" {
		return ""
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return c.base + "/" + strings.TrimPrefix(path, "/")
}

// --- Feedback ---

// ListFeedback fetches the full, unfiltered feedback collection.
func (c *Client) ListFeedback(ctx context.Context) ([]feedback.Item, error) {
	items, err := getJSON[[]feedback.Item](ctx, c, "list feedback", "/feedback")
	if err != nil {
		return nil, err
	}
	if *items == nil {
		return []feedback.Item{}, nil
	}
	return *items, nil
}

// CreateFeedback submits a new item as multipart form data. The screenshot
// part is omitted entirely when the submission has none.
func (c *Client) CreateFeedback(ctx context.Context, s feedback.Submission) error {
	s, err := s.Normalize()
	if err != nil {
		return err
	}

	body, contentType, err := c.multipartBody(s)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, request{
		op:          "create feedback",
		method:      http.MethodPost,
		path:        "/feedback",
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	if !isSuccess(resp) {
		apiErr := readAPIError("create feedback", resp)
		apiErr.Err = ErrSubmitFailed
		return apiErr
	}
	drain(resp)
	return nil
}

func (c *Client) multipartBody(s feedback.Submission) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("text", s.Text); err != nil {
		return nil, "", fmt.Errorf("write text field: %w", err)
	}
	if err := mw.WriteField("category", s.Category.String()); err != nil {
		return nil, "", fmt.Errorf("write category field: %w", err)
	}

	if s.Screenshot != "" {
		// #nosec G304 -- the path is chosen by the local user submitting it
		f, err := os.Open(s.Screenshot)
		if err != nil {
			return nil, "", fmt.Errorf("open screenshot: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, "", fmt.Errorf("stat screenshot: %w", err)
		}
		if c.maxUploadBytes > 0 && info.Size() > c.maxUploadBytes {
			return nil, "", fmt.Errorf("%w: %s is %d bytes, limit is %d",
				feedback.ErrScreenshotTooLarge, filepath.Base(s.Screenshot), info.Size(), c.maxUploadBytes)
		}

		part, err := mw.CreateFormFile("screenshot", filepath.Base(s.Screenshot))
		if err != nil {
			return nil, "", fmt.Errorf("create screenshot part: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("copy screenshot: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// DeleteFeedback removes an item. Any non-2xx answer is reported as
// ErrAuthorizationDenied; the APIError keeps the real status code.
func (c *Client) DeleteFeedback(ctx context.Context, id int) error {
	op := "delete feedback"
	resp, err := c.send(ctx, request{
		op:     op,
		method: http.MethodDelete,
		path:   fmt.Sprintf("/feedback/%d", id),
	})
	if err != nil {
		return err
	}
	if !isSuccess(resp) {
		apiErr := readAPIError(op, resp)
		apiErr.Err = ErrAuthorizationDenied
		return apiErr
	}
	drain(resp)
	return nil
}

// --- Stats ---

// GetStats fetches the precomputed aggregates. Absent breakdowns come back
// as empty maps.
func (c *Client) GetStats(ctx context.Context) (*feedback.Stats, error) {
	stats, err := getJSON[feedback.Stats](ctx, c, "get stats", "/stats")
	if err != nil {
		return nil, err
	}
	normalized := stats.Normalize()
	return &normalized, nil
}

// --- Summaries ---

// Summarize asks the backend for a summary of one item. It is not retried:
// each call is a potentially expensive generation.
func (c *Client) Summarize(ctx context.Context, id int) (string, error) {
	op := "summarize"
	resp, err := c.send(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   fmt.Sprintf("/summarize/%d", id),
	})
	if err != nil {
		return "", err
	}
	if !isSuccess(resp) {
		apiErr := readAPIError(op, resp)
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			apiErr.Err = ErrAuthorizationDenied
		} else {
			apiErr.Err = ErrSummaryUnavailable
		}
		return "", apiErr
	}

	body, err := decodeJSON[summaryResponse](op, resp)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummaryUnavailable, err)
	}
	if strings.TrimSpace(body.Summary) == "" {
		return "", ErrSummaryUnavailable
	}
	return body.Summary, nil
}

// --- Session ---

// CheckAdmin reports whether the current session is an admin session.
func (c *Client) CheckAdmin(ctx context.Context) (bool, error) {
	res, err := getJSON[adminCheckResponse](ctx, c, "check admin", "/check-admin")
	if err != nil {
		return false, err
	}
	return res.Admin, nil
}

// CheckUser reports whether the current session belongs to a signed-in user.
func (c *Client) CheckUser(ctx context.Context) (bool, error) {
	res, err := getJSON[userCheckResponse](ctx, c, "check user", "/check-user")
	if err != nil {
		return false, err
	}
	return res.User, nil
}

// Signup registers a user and returns the backend's message verbatim.
// A rejection is an *APIError wrapping ErrSignupRejected whose Message is
// the backend's error text.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (string, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return "", fmt.Errorf("%w: name, email and password are required", ErrMissingField)
	}

	op := "signup"
	resp, err := c.sendJSON(ctx, op, "/user/signup", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body messageResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "" || !isSuccess(resp) {
		msg := body.Error
		if msg == "" {
			msg = body.Message
		}
		return "", &APIError{Op: op, StatusCode: resp.StatusCode, Message: msg, Err: ErrSignupRejected}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, decodeErr)
	}
	return body.Message, nil
}

// Login starts a user session. Every failure wraps ErrInvalidLogin.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.login(ctx, "login", "/user/login", LoginRequest{Email: email, Password: password})
}

// AdminLogin starts an admin session. Every failure wraps ErrInvalidLogin.
func (c *Client) AdminLogin(ctx context.Context, username, password string) error {
	return c.login(ctx, "admin login", "/admin/login", AdminLoginRequest{Username: username, Password: password})
}

func (c *Client) login(ctx context.Context, op, path string, payload any) error {
	resp, err := c.sendJSON(ctx, op, path, payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogin, err)
	}
	if !isSuccess(resp) {
		apiErr := readAPIError(op, resp)
		apiErr.Err = ErrInvalidLogin
		return apiErr
	}
	drain(resp)
	return nil
}

// Logout ends the session of the given role.
func (c *Client) Logout(ctx context.Context, role session.Role) error {
	var path string
	switch role {
	case session.RoleAdmin:
		path = "/admin/logout"
	case session.RoleUser:
		path = "/user/logout"
	default:
		return fmt.Errorf("logout: no %s session to end", role)
	}

	op := role.String() + " logout"
	resp, err := c.send(ctx, request{op: op, method: http.MethodPost, path: path})
	if err != nil {
		return err
	}
	if !isSuccess(resp) {
		return readAPIError(op, resp)
	}
	drain(resp)
	return nil
}

// --- Transport ---

type request struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
	// retry marks idempotent calls; only those are retried.
	retry bool
}

// send performs one request. Transport errors and, for retried calls, 5xx
// responses are retried per the client's retry policy. Other non-2xx
// responses are returned to the caller unread.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	attempt := func(ctx context.Context) (*http.Response, error) {
		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, c.base+r.path, body)
		if err != nil {
			return nil, fmt.Errorf("%s: create request: %w", r.op, err)
		}

		requestID := uuid.New().String()
		req.Header.Set("X-Request-Id", requestID)
		req.Header.Set("Accept", "application/json")
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Debug("request failed", "op", r.op, "method", r.method, "path", r.path,
				"request_id", requestID, "error", err)
			return nil, fmt.Errorf("%s: %w", r.op, err)
		}
		c.logger.Debug("request", "op", r.op, "method", r.method, "path", r.path,
			"status", resp.StatusCode, "duration", time.Since(start), "request_id", requestID)

		if r.retry && resp.StatusCode >= http.StatusInternalServerError {
			return nil, readAPIError(r.op, resp)
		}
		return resp, nil
	}

	if !r.retry || c.retryCfg.MaxAttempts <= 1 {
		return attempt(ctx)
	}
	rt := retry.New[*http.Response](c.retryCfg)
	return rt.Do(ctx, attempt)
}

func (c *Client) sendJSON(ctx context.Context, op, path string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}
	return c.send(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        data,
		contentType: "application/json",
	})
}

// getJSON performs a retried GET and decodes a 2xx body into T.
func getJSON[T any](ctx context.Context, c *Client, op, path string) (*T, error) {
	resp, err := c.send(ctx, request{op: op, method: http.MethodGet, path: path, retry: true})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp) {
		apiErr := readAPIError(op, resp)
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			apiErr.Err = ErrAuthorizationDenied
		}
		return nil, apiErr
	}
	return decodeJSON[T](op, resp)
}

func decodeJSON[T any](op string, resp *http.Response) (*T, error) {
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return &v, nil
}

// readAPIError consumes and closes the body of a failed response.
func readAPIError(op string, resp *http.Response) *APIError {
	defer resp.Body.Close()
	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body messageResponse
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
		return apiErr
	}

	text := strings.TrimSpace(string(data))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	apiErr.Message = text
	return apiErr
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
