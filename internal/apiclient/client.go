// Package apiclient talks to the remote product API.
package apiclient

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

	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/utils"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
	userHeader     = "X-User-ID"
)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBearerToken sets a service token sent on every call.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	token   string
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("apiclient: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("apiclient: invalid base url: %w", err)
	}
	c := &Client{
		baseURL: baseURL,
		http:    http.DefaultClient,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) InitUser(ctx context.Context, anonymousID string) (*models.User, error) {
	const op = "APIClient.InitUser"

	var out models.User
	err := c.do(ctx, op, http.MethodPost, "/api/v1/users/init", "", initUserRequest{AnonymousUserID: anonymousID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCurrentProfile(ctx context.Context, userID string, p models.CurrentProfile) (*models.CurrentProfileAck, error) {
	const op = "APIClient.CreateCurrentProfile"

	var out models.CurrentProfileAck
	path := "/api/v1/users/" + url.PathEscape(userID) + "/current-profile"
	if err := c.do(ctx, op, http.MethodPost, path, userID, toCurrentProfileDTO(p), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateFutureProfiles(ctx context.Context, userID string, items []models.FutureProfileItem) (*models.FutureProfileResult, error) {
	const op = "APIClient.CreateFutureProfiles"

	var out models.FutureProfileResult
	path := "/api/v1/users/" + url.PathEscape(userID) + "/future-profiles"
	if err := c.do(ctx, op, http.MethodPost, path, userID, futureProfilesRequest{Profiles: items}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetChatHistory(ctx context.Context, threadID, userID string) ([]models.ChatMessage, error) {
	const op = "APIClient.GetChatHistory"

	q := url.Values{"user_id": {userID}}
	path := "/api/v1/chat/" + url.PathEscape(threadID) + "/history?" + q.Encode()
	var out []models.ChatMessage
	if err := c.do(ctx, op, http.MethodGet, path, userID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendChatMessage(ctx context.Context, threadID string, req models.SendMessageRequest) (*models.ChatMessage, error) {
	const op = "APIClient.SendChatMessage"

	var out models.ChatMessage
	path := "/api/v1/chat/" + url.PathEscape(threadID) + "/messages"
	if err := c.do(ctx, op, http.MethodPost, path, req.UserID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateReport triggers report generation. Either id may be empty; the
// remote side scopes the report to whichever is given.
func (c *Client) GenerateReport(ctx context.Context, profileID, threadID string) (*models.ReportTicket, error) {
	const op = "APIClient.GenerateReport"

	var out models.ReportTicket
	body := generateReportRequest{FutureProfileID: profileID, ThreadID: threadID}
	if err := c.do(ctx, op, http.MethodPost, "/api/v1/reports/generate", userFrom(ctx), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReportStatus(ctx context.Context, userID, reportID string) (*models.ReportTicket, error) {
	const op = "APIClient.ReportStatus"

	var out models.ReportTicket
	path := "/api/v1/reports/" + url.PathEscape(reportID) + "/status"
	if err := c.do(ctx, op, http.MethodGet, path, userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LatestReport(ctx context.Context, userID string) (*models.Report, error) {
	const op = "APIClient.LatestReport"

	var out models.Report
	path := "/api/v1/users/" + url.PathEscape(userID) + "/reports/latest"
	if err := c.do(ctx, op, http.MethodGet, path, userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path, userID string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to encode request", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return utils.E(utils.CodeTimeout, op, "remote api timed out", err)
		}
		return utils.E(utils.CodeUnavailable, op, "remote api unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return remoteError(op, resp.StatusCode, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return utils.E(utils.CodeUnavailable, op, "invalid response from remote api", err)
	}
	return nil
}

// remoteError maps a non-2xx reply to an AppError. FastAPI puts the reason
// in "detail", either as a bare string or as an object carrying a code.
func remoteError(op string, status int, raw []byte) error {
	code := utils.CodeForStatus(status)
	msg := http.StatusText(status)

	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &env) == nil && len(env.Detail) > 0 {
		var s string
		var obj struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		switch {
		case json.Unmarshal(env.Detail, &s) == nil:
			msg = s
		case json.Unmarshal(env.Detail, &obj) == nil:
			if obj.Message != "" {
				msg = obj.Message
			}
			if obj.Code != "" {
				s = obj.Code
			}
		}
		if strings.Contains(s, string(utils.CodeLimitExceeded)) {
			code = utils.CodeLimitExceeded
		}
	}
	return utils.E(code, op, msg, fmt.Errorf("remote status %d", status))
}

type userKey struct{}

// WithUser attaches the acting user to ctx for calls whose signature does
// not carry it.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func userFrom(ctx context.Context) string {
	s, _ := ctx.Value(userKey{}).(string)
	return s
}
