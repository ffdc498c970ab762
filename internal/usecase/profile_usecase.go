package usecase

import (
	"context"

	"matchsync/internal/domain/profile"
	profileuc "matchsync/internal/usecase/profile"
)

type ProfileUsecase interface {
	CreateIfAbsent(ctx context.Context, id profile.Identity) (profileuc.CreateResult, error)
	Load(ctx context.Context, uid string) (profile.Profile, error)
	Update(ctx context.Context, uid string, patch map[string]any) error
	Sync(ctx context.Context, uid string) error
	RefreshFromUpstream(ctx context.Context, uid string) (profile.Profile, error)
}

var _ ProfileUsecase = (*profileuc.Service)(nil)
