package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"matchsync/internal/domain/profile"
	"matchsync/internal/infrastructure/metrics"
	"matchsync/internal/infrastructure/upstream"
)

// Source marks whether a read response came from the matching service or
// from canned fallback data.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

type Upstream interface {
	UpdateUser(ctx context.Context, payload upstream.SyncPayload) (json.RawMessage, error)
	GetUserDetail(ctx context.Context, userID string) (map[string]any, error)
	MatchResults(ctx context.Context, req upstream.MatchRequest) (json.RawMessage, error)
	RecommendedResults(ctx context.Context, req upstream.MatchRequest) (json.RawMessage, error)
	MatchStatistics(ctx context.Context, userID string) (map[string]any, error)
	Health(ctx context.Context) (json.RawMessage, error)
}

type ListResult struct {
	Message any    `json:"message"`
	Source  Source `json:"source"`
}

// Service forwards match, recommendation, statistics and user detail reads
// to the matching service and substitutes canned data when it fails. Read
// methods only return validation errors.
type Service struct {
	upstream Upstream
	logger   *log.Logger
	metrics  *metrics.Metrics
}

func NewService(up Upstream, logger *log.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{upstream: up, logger: logger, metrics: m}
}

func (s *Service) MatchResults(ctx context.Context, body map[string]any) (ListResult, error) {
	req, err := BuildMatchRequest(body, DefaultMatchLimit)
	if err != nil {
		return ListResult{}, err
	}

	msg, err := s.upstream.MatchResults(ctx, req)
	if err == nil {
		return ListResult{Message: msg, Source: SourceLive}, nil
	}

	s.fallback("get-match-results", req.UserID, err)
	return ListResult{Message: FilterByDomain(fallbackMatches(), req.Domain), Source: SourceFallback}, nil
}

func (s *Service) RecommendedResults(ctx context.Context, body map[string]any) (ListResult, error) {
	req, err := BuildMatchRequest(body, DefaultRecommendedLimit)
	if err != nil {
		return ListResult{}, err
	}

	msg, err := s.upstream.RecommendedResults(ctx, req)
	if err == nil {
		return ListResult{Message: msg, Source: SourceLive}, nil
	}

	s.fallback("get-recommended-match-results", req.UserID, err)
	return ListResult{Message: FilterByDomain(fallbackRecommended(), req.Domain), Source: SourceFallback}, nil
}

// MatchStatistics passes the upstream body through with a source field
// added.
func (s *Service) MatchStatistics(ctx context.Context, body map[string]any) (map[string]any, error) {
	userID, err := RequireUserID(body["user_id"])
	if err != nil {
		return nil, err
	}

	out, err := s.upstream.MatchStatistics(ctx, userID)
	if err != nil {
		s.fallback("get-match-statistics", userID, err)
		out = fallbackStatistics()
		out["source"] = SourceFallback
		return out, nil
	}
	out["source"] = SourceLive
	return out, nil
}

// UserDetail looks up displayID upstream and guarantees message.domains is
// a string array. A response without a message object is treated as
// malformed.
func (s *Service) UserDetail(ctx context.Context, displayID string) (map[string]any, error) {
	displayID = strings.TrimSpace(displayID)
	if displayID == "" {
		return nil, fmt.Errorf("%w: display id is required", profile.ErrValidation)
	}

	out, err := s.upstream.GetUserDetail(ctx, displayID)
	if err == nil {
		msg, ok := out["message"].(map[string]any)
		if ok {
			msg["domains"] = NormalizeDomains(msg)
			out["source"] = SourceLive
			return out, nil
		}
		err = fmt.Errorf("%w: user detail without message object", upstream.ErrUpstreamUnavailable)
	}

	s.fallback("get-user-detail", displayID, err)
	out = fallbackUser(displayID)
	out["source"] = SourceFallback
	return out, nil
}

// DebugResult is the raw user detail exchange served by the debug route.
type DebugResult struct {
	Debug          bool              `json:"debug"`
	RequestPath    string            `json:"requestPath"`
	RequestMethod  string            `json:"requestMethod"`
	RequestPayload map[string]string `json:"requestPayload"`
	ResponseTimeMS int64             `json:"responseTime"`
	ResponseData   map[string]any    `json:"responseData,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// DebugUserDetail calls the user detail endpoint directly, without domain
// normalization or fallback. On upstream failure the returned result still
// describes the request and carries the error text.
func (s *Service) DebugUserDetail(ctx context.Context, displayID string) (DebugResult, error) {
	displayID = strings.TrimSpace(displayID)
	if displayID == "" {
		return DebugResult{}, fmt.Errorf("%w: display id is required", profile.ErrValidation)
	}

	res := DebugResult{
		Debug:          true,
		RequestPath:    upstream.UserDetailPath,
		RequestMethod:  "POST",
		RequestPayload: map[string]string{"user_id": displayID},
	}
	start := time.Now()
	out, err := s.upstream.GetUserDetail(ctx, displayID)
	res.ResponseTimeMS = time.Since(start).Milliseconds()
	if err != nil {
		s.logger.Printf("[Gateway] debug user detail failed display_id=%s err=%v", displayID, err)
		res.Error = err.Error()
		return res, err
	}
	res.ResponseData = out
	return res, nil
}

// UpdateUser coerces body into a sync payload and forwards it. There is no
// fallback for writes.
func (s *Service) UpdateUser(ctx context.Context, body map[string]any) (json.RawMessage, error) {
	userID, err := RequireUserID(body["user_id"])
	if err != nil {
		return nil, fmt.Errorf("%w: user_id is required and must be a string", profile.ErrValidation)
	}

	payload := upstream.CoercePayload(userID, body["industry"], body["domains"], body["details"], body["links"])
	out, err := s.upstream.UpdateUser(ctx, payload)
	if err != nil {
		s.logger.Printf("[Gateway] update-user failed user_id=%s err=%v", userID, err)
		return nil, err
	}
	return out, nil
}

func (s *Service) CheckUpstream(ctx context.Context) (json.RawMessage, error) {
	return s.upstream.Health(ctx)
}

func (s *Service) fallback(endpoint, userID string, err error) {
	s.metrics.IncFallback(endpoint)
	s.logger.Printf("[Gateway] serving fallback endpoint=%s user_id=%s err=%v", endpoint, userID, err)
}

// NormalizeDomains reads the domain list of a user detail message. A
// non-empty "domain" field wins over "domains"; bare strings are wrapped.
func NormalizeDomains(msg map[string]any) []string {
	return profile.DetailDomains(msg)
}
