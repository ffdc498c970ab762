package usecase

import (
	"context"
	"encoding/json"

	"matchsync/internal/usecase/gateway"
)

type GatewayUsecase interface {
	MatchResults(ctx context.Context, body map[string]any) (gateway.ListResult, error)
	RecommendedResults(ctx context.Context, body map[string]any) (gateway.ListResult, error)
	MatchStatistics(ctx context.Context, body map[string]any) (map[string]any, error)
	UserDetail(ctx context.Context, displayID string) (map[string]any, error)
	UpdateUser(ctx context.Context, body map[string]any) (json.RawMessage, error)
	CheckUpstream(ctx context.Context) (json.RawMessage, error)
	DebugUserDetail(ctx context.Context, displayID string) (gateway.DebugResult, error)
}

var _ GatewayUsecase = (*gateway.Service)(nil)
