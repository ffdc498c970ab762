package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"matchsync/internal/infrastructure/metrics"
)

// ErrUpstreamUnavailable wraps every failure talking to the matching
// service: transport errors, timeouts, non-2xx statuses and bodies that do
// not decode.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

const (
	pathUpdateUser      = "/update-user/"
	pathUpdateURLs      = "/update-urls/"
	pathUserDetail      = "/get-user-detail/"
	pathMatchResults    = "/get-match-results/"
	pathRecommended     = "/get-recommended-match-results/"
	pathMatchStatistics = "/get-match-statistics/"
	pathHealth          = "/health"
	maxErrorBodyBytes   = 4096
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// UserDetailPath is the matching service route behind GetUserDetail.
const UserDetailPath = pathUserDetail

// MatchRequest is the body of the match and recommendation endpoints.
type MatchRequest struct {
	UserID string `json:"user_id"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Domain string `json:"domain,omitempty"`
}

type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	HTTPClient   *http.Client
	Logger       *log.Logger
	Metrics      *metrics.Metrics
}

// Client talks to the matching service. Calls are detached from the
// caller's cancellation and bounded by their own timeout: ReadTimeout for
// match, recommendation, statistics and health; WriteTimeout for writes and
// user detail lookups.
type Client struct {
	baseURL      string
	http         *http.Client
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       *log.Logger
	metrics      *metrics.Metrics
}

func NewClient(baseURL string, opts Options) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:         opts.HTTPClient,
		readTimeout:  opts.ReadTimeout,
		writeTimeout: opts.WriteTimeout,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.readTimeout <= 0 {
		c.readTimeout = defaultReadTimeout
	}
	if c.writeTimeout <= 0 {
		c.writeTimeout = defaultWriteTimeout
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

func (c *Client) UpdateUser(ctx context.Context, payload SyncPayload) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, pathUpdateUser, payload, c.writeTimeout, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateURLs(ctx context.Context, links []string) error {
	body := struct {
		Link []string `json:"link"`
	}{Link: links}
	return c.do(ctx, http.MethodPost, pathUpdateURLs, body, c.writeTimeout, nil)
}

// GetUserDetail returns the decoded response object of /get-user-detail/.
func (c *Client) GetUserDetail(ctx context.Context, userID string) (map[string]any, error) {
	body := map[string]string{"user_id": userID}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, pathUserDetail, body, c.writeTimeout, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s: empty body", ErrUpstreamUnavailable, pathUserDetail)
	}
	return out, nil
}

// MatchResults returns the "message" field of /get-match-results/, or an
// empty array when the service omits it.
func (c *Client) MatchResults(ctx context.Context, req MatchRequest) (json.RawMessage, error) {
	return c.messageList(ctx, pathMatchResults, req)
}

func (c *Client) RecommendedResults(ctx context.Context, req MatchRequest) (json.RawMessage, error) {
	return c.messageList(ctx, pathRecommended, req)
}

// MatchStatistics returns the full decoded body of /get-match-statistics/.
func (c *Client) MatchStatistics(ctx context.Context, userID string) (map[string]any, error) {
	body := map[string]string{"user_id": userID}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, pathMatchStatistics, body, c.readTimeout, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s: empty body", ErrUpstreamUnavailable, pathMatchStatistics)
	}
	return out, nil
}

func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, pathHealth, nil, c.readTimeout, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) messageList(ctx context.Context, path string, req MatchRequest) (json.RawMessage, error) {
	var out struct {
		Message json.RawMessage `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, path, req, c.readTimeout, &out); err != nil {
		return nil, err
	}
	msg := bytes.TrimSpace(out.Message)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	return json.RawMessage(msg), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, timeout time.Duration, out any) (err error) {
	defer func() {
		c.metrics.ObserveUpstream(strings.Trim(path, "/"), err)
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("[Upstream] request failed method=%s endpoint=%s latency=%s err=%v", method, endpoint, time.Since(start), err)
		return fmt.Errorf("%w: %s %s: %v", ErrUpstreamUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		bodyStr := strings.TrimSpace(string(rb))
		c.logger.Printf("[Upstream] non-2xx method=%s endpoint=%s status=%d body=%q", method, endpoint, resp.StatusCode, bodyStr)
		return fmt.Errorf("%w: %s %s: status=%d", ErrUpstreamUnavailable, method, path, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if raw, ok := out.(*json.RawMessage); ok {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: %s %s: read body: %v", ErrUpstreamUnavailable, method, path, err)
		}
		if len(bytes.TrimSpace(b)) == 0 {
			*raw = json.RawMessage("null")
			return nil
		}
		if !json.Valid(b) {
			return fmt.Errorf("%w: %s %s: malformed body", ErrUpstreamUnavailable, method, path)
		}
		*raw = json.RawMessage(b)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Printf("[Upstream] malformed body method=%s endpoint=%s err=%v", method, endpoint, err)
		return fmt.Errorf("%w: %s %s: decode: %v", ErrUpstreamUnavailable, method, path, err)
	}
	return nil
}
