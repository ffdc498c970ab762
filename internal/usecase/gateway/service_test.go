package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"matchsync/internal/domain/profile"
	"matchsync/internal/infrastructure/metrics"
	"matchsync/internal/infrastructure/upstream"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	err error

	matchReqs   []upstream.MatchRequest
	matchBody   json.RawMessage
	detail      map[string]any
	stats       map[string]any
	updated     []upstream.SyncPayload
	updateReply json.RawMessage
	calls       int
}

func (f *fakeUpstream) UpdateUser(_ context.Context, p upstream.SyncPayload) (json.RawMessage, error) {
	f.calls++
	f.updated = append(f.updated, p)
	return f.updateReply, f.err
}

func (f *fakeUpstream) GetUserDetail(context.Context, string) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakeUpstream) MatchResults(_ context.Context, req upstream.MatchRequest) (json.RawMessage, error) {
	f.calls++
	f.matchReqs = append(f.matchReqs, req)
	return f.matchBody, f.err
}

func (f *fakeUpstream) RecommendedResults(_ context.Context, req upstream.MatchRequest) (json.RawMessage, error) {
	f.calls++
	f.matchReqs = append(f.matchReqs, req)
	return f.matchBody, f.err
}

func (f *fakeUpstream) MatchStatistics(context.Context, string) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func (f *fakeUpstream) Health(context.Context) (json.RawMessage, error) {
	f.calls++
	return json.RawMessage(`{"ok":true}`), f.err
}

var errDown = errors.Join(upstream.ErrUpstreamUnavailable, context.DeadlineExceeded)

func newService(up *fakeUpstream) (*Service, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewService(up, log.New(io.Discard, "", 0), m), m
}

func titles(t *testing.T, v any) []string {
	t.Helper()
	jobs, ok := v.([]FallbackJob)
	require.True(t, ok, "expected fallback jobs, got %T", v)
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Title)
	}
	return out
}

func TestBuildMatchRequest(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want upstream.MatchRequest
	}{
		{
			name: "defaults",
			body: map[string]any{"user_id": "janedoe"},
			want: upstream.MatchRequest{UserID: "janedoe", Offset: 0, Limit: 10},
		},
		{
			name: "numeric strings and trimmed domain",
			body: map[string]any{"user_id": "janedoe", "offset": "20", "limit": "5", "domain": "  Technology "},
			want: upstream.MatchRequest{UserID: "janedoe", Offset: 20, Limit: 5, Domain: "Technology"},
		},
		{
			name: "json numbers truncate",
			body: map[string]any{"user_id": "janedoe", "offset": float64(3), "limit": 7.9},
			want: upstream.MatchRequest{UserID: "janedoe", Offset: 3, Limit: 7},
		},
		{
			name: "garbage falls back to defaults",
			body: map[string]any{"user_id": "janedoe", "offset": "abc", "limit": true, "domain": "   "},
			want: upstream.MatchRequest{UserID: "janedoe", Offset: 0, Limit: 10},
		},
		{
			name: "negative values clamp",
			body: map[string]any{"user_id": "janedoe", "offset": -4, "limit": 0},
			want: upstream.MatchRequest{UserID: "janedoe", Offset: 0, Limit: 10},
		},
		{
			name: "huge values are capped",
			body: map[string]any{"user_id": "janedoe", "offset": 1e30, "limit": "1e30"},
			want: upstream.MatchRequest{UserID: "janedoe", Offset: MaxPageValue, Limit: MaxPageValue},
		},
		{
			name: "huge negative values clamp",
			body: map[string]any{"user_id": "janedoe", "offset": -1e30, "limit": -1e30},
			want: upstream.MatchRequest{UserID: "janedoe", Offset: 0, Limit: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildMatchRequest(tt.body, DefaultMatchLimit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildMatchRequest_RequiresUserID(t *testing.T) {
	for _, body := range []map[string]any{
		{},
		{"user_id": ""},
		{"user_id": "   "},
		{"user_id": 42},
	} {
		_, err := BuildMatchRequest(body, DefaultMatchLimit)
		assert.ErrorIs(t, err, profile.ErrValidation, "body=%v", body)
	}
}

func TestMatchResults_Live(t *testing.T) {
	up := &fakeUpstream{matchBody: json.RawMessage(`[{"id":9}]`)}
	svc, _ := newService(up)

	res, err := svc.MatchResults(context.Background(), map[string]any{"user_id": "janedoe", "domain": "data"})
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.JSONEq(t, `[{"id":9}]`, string(res.Message.(json.RawMessage)))
	require.Len(t, up.matchReqs, 1)
	assert.Equal(t, "data", up.matchReqs[0].Domain)
}

func TestMatchResults_FallbackFiltersByDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   []string
	}{
		{domain: "", want: []string{"Software Engineer", "Frontend Developer", "Data Scientist"}},
		{domain: "all", want: []string{"Software Engineer", "Frontend Developer", "Data Scientist"}},
		{domain: "technology", want: []string{"Software Engineer", "Frontend Developer"}},
		{domain: "Software Development", want: []string{"Software Engineer", "Frontend Developer"}},
		{domain: "data", want: []string{"Data Scientist"}},
		{domain: "Healthcare", want: []string{"Software Engineer", "Frontend Developer", "Data Scientist"}},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			svc, m := newService(&fakeUpstream{err: errDown})

			res, err := svc.MatchResults(context.Background(), map[string]any{"user_id": "janedoe", "domain": tt.domain})
			require.NoError(t, err)
			assert.Equal(t, SourceFallback, res.Source)
			assert.Equal(t, tt.want, titles(t, res.Message))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayFallbacks.WithLabelValues("get-match-results")))
		})
	}
}

func TestMatchResults_ValidationMakesNoUpstreamCall(t *testing.T) {
	up := &fakeUpstream{}
	svc, _ := newService(up)

	_, err := svc.MatchResults(context.Background(), map[string]any{"offset": 0})
	require.ErrorIs(t, err, profile.ErrValidation)
	assert.Zero(t, up.calls)
}

func TestRecommendedResults(t *testing.T) {
	up := &fakeUpstream{err: errDown}
	svc, _ := newService(up)

	res, err := svc.RecommendedResults(context.Background(), map[string]any{"user_id": "janedoe"})
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, []string{"Senior Developer"}, titles(t, res.Message))
	require.Len(t, up.matchReqs, 1)
	assert.Equal(t, DefaultRecommendedLimit, up.matchReqs[0].Limit)

	res, err = svc.RecommendedResults(context.Background(), map[string]any{"user_id": "janedoe", "domain": "data"})
	require.NoError(t, err)
	assert.Empty(t, titles(t, res.Message))
}

func TestMatchStatistics(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		svc, _ := newService(&fakeUpstream{stats: map[string]any{"message": map[string]any{"matched_jobs_count": 2.0}}})
		out, err := svc.MatchStatistics(context.Background(), map[string]any{"user_id": "janedoe"})
		require.NoError(t, err)
		assert.Equal(t, SourceLive, out["source"])
		assert.Equal(t, map[string]any{"matched_jobs_count": 2.0}, out["message"])
	})

	t.Run("fallback", func(t *testing.T) {
		svc, _ := newService(&fakeUpstream{err: errDown})
		out, err := svc.MatchStatistics(context.Background(), map[string]any{"user_id": "janedoe"})
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, out["source"])

		b, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"message": {"matched_jobs_count":15,"recommended_jobs_count":8,"total_applications":3,"average_match_score":78.5},
			"source": "fallback"
		}`, string(b))
	})

	t.Run("missing user id", func(t *testing.T) {
		up := &fakeUpstream{}
		svc, _ := newService(up)
		_, err := svc.MatchStatistics(context.Background(), map[string]any{})
		require.ErrorIs(t, err, profile.ErrValidation)
		assert.Zero(t, up.calls)
	})
}

func TestUserDetail(t *testing.T) {
	t.Run("wraps bare domain string", func(t *testing.T) {
		svc, _ := newService(&fakeUpstream{detail: map[string]any{
			"message": map[string]any{"user_id": "janedoe", "domain": "Fintech"},
			"status":  "ok",
		}})
		out, err := svc.UserDetail(context.Background(), "janedoe")
		require.NoError(t, err)
		assert.Equal(t, SourceLive, out["source"])
		assert.Equal(t, "ok", out["status"])
		assert.Equal(t, []string{"Fintech"}, out["message"].(map[string]any)["domains"])
	})

	t.Run("keeps existing domains array", func(t *testing.T) {
		svc, _ := newService(&fakeUpstream{detail: map[string]any{
			"message": map[string]any{"domains": []any{"AI", "Cloud"}},
		}})
		out, err := svc.UserDetail(context.Background(), "janedoe")
		require.NoError(t, err)
		assert.Equal(t, []string{"AI", "Cloud"}, out["message"].(map[string]any)["domains"])
	})

	t.Run("defaults to empty array", func(t *testing.T) {
		svc, _ := newService(&fakeUpstream{detail: map[string]any{"message": map[string]any{}}})
		out, err := svc.UserDetail(context.Background(), "janedoe")
		require.NoError(t, err)
		assert.Equal(t, []string{}, out["message"].(map[string]any)["domains"])
	})

	t.Run("message that is not an object falls back", func(t *testing.T) {
		svc, _ := newService(&fakeUpstream{detail: map[string]any{"message": "nope"}})
		out, err := svc.UserDetail(context.Background(), "janedoe")
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, out["source"])
	})

	t.Run("upstream failure serves skeleton", func(t *testing.T) {
		svc, m := newService(&fakeUpstream{err: errDown})
		out, err := svc.UserDetail(context.Background(), "janedoe")
		require.NoError(t, err)
		assert.Equal(t, "fallback", out["status"])
		assert.Equal(t, SourceFallback, out["source"])
		msg := out["message"].(map[string]any)
		assert.Equal(t, "janedoe", msg["user_id"])
		assert.Equal(t, "janedoe@example.com", msg["email"])
		assert.Equal(t, []string{}, msg["domains"])
		assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayFallbacks.WithLabelValues("get-user-detail")))
	})

	t.Run("blank display id", func(t *testing.T) {
		up := &fakeUpstream{}
		svc, _ := newService(up)
		_, err := svc.UserDetail(context.Background(), " ")
		require.ErrorIs(t, err, profile.ErrValidation)
		assert.Zero(t, up.calls)
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("coerces payload", func(t *testing.T) {
		up := &fakeUpstream{updateReply: json.RawMessage(`{"message":"updated"}`)}
		svc, _ := newService(up)

		out, err := svc.UpdateUser(context.Background(), map[string]any{
			"user_id": "janedoe",
			"domains": "not-a-list",
			"details": []any{1},
			"links":   []any{"https://acme.com/jobs", 3},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"message":"updated"}`, string(out))

		require.Len(t, up.updated, 1)
		p := up.updated[0]
		assert.Equal(t, "Technology", p.Industry)
		assert.Equal(t, []string{}, p.Domains)
		assert.Equal(t, map[string]any{}, p.Details)
		assert.Equal(t, []string{"https://acme.com/jobs", "3"}, p.Links)
	})

	t.Run("surfaces upstream failure", func(t *testing.T) {
		svc, _ := newService(&fakeUpstream{err: errDown})
		_, err := svc.UpdateUser(context.Background(), map[string]any{"user_id": "janedoe"})
		require.ErrorIs(t, err, upstream.ErrUpstreamUnavailable)
	})

	t.Run("rejects non-string user id", func(t *testing.T) {
		up := &fakeUpstream{}
		svc, _ := newService(up)
		_, err := svc.UpdateUser(context.Background(), map[string]any{"user_id": 7})
		require.ErrorIs(t, err, profile.ErrValidation)
		assert.Zero(t, up.calls)
	})
}

func TestDebugUserDetail(t *testing.T) {
	t.Run("returns raw detail", func(t *testing.T) {
		up := &fakeUpstream{detail: map[string]any{"message": map[string]any{"domain": "Fintech"}}}
		svc, m := newService(up)

		res, err := svc.DebugUserDetail(context.Background(), " janedoe ")
		require.NoError(t, err)
		assert.True(t, res.Debug)
		assert.Equal(t, map[string]string{"user_id": "janedoe"}, res.RequestPayload)
		assert.Equal(t, up.detail, res.ResponseData)
		assert.NotContains(t, res.ResponseData["message"], "domains")
		assert.Zero(t, testutil.ToFloat64(m.GatewayFallbacks.WithLabelValues("get-user-detail")))
	})

	t.Run("reports upstream failure", func(t *testing.T) {
		up := &fakeUpstream{err: errDown}
		svc, _ := newService(up)

		res, err := svc.DebugUserDetail(context.Background(), "janedoe")
		require.ErrorIs(t, err, upstream.ErrUpstreamUnavailable)
		assert.True(t, res.Debug)
		assert.NotEmpty(t, res.Error)
		assert.Nil(t, res.ResponseData)
	})

	t.Run("requires display id", func(t *testing.T) {
		up := &fakeUpstream{}
		svc, _ := newService(up)

		_, err := svc.DebugUserDetail(context.Background(), "  ")
		require.ErrorIs(t, err, profile.ErrValidation)
		assert.Zero(t, up.calls)
	})
}
