package profile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"matchsync/internal/domain/interest"
	"matchsync/internal/domain/profile"
)

var ErrSyncPushFailed = errors.New("profile sync push failed")

// MaxCacheTTL bounds how long a cached document may outlive a concurrent
// Update: a Load that read the store before the write can still store the
// old document after the invalidation.
const MaxCacheTTL = time.Minute

type Allocator interface {
	Allocate(ctx context.Context, id profile.Identity, skeleton profile.Profile) (string, error)
	Repair(ctx context.Context, id profile.Identity) (string, error)
}

type Syncer interface {
	Push(ctx context.Context, p profile.Profile) error
	GetUserDetail(ctx context.Context, userID string) (map[string]any, error)
}

// Cache is an optional read-through cache of stored documents.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CreateResult reports what CreateIfAbsent did. SyncErr carries a failed
// initial push; it never fails the call itself.
type CreateResult struct {
	Profile  profile.Profile
	Created  bool
	Repaired bool
	SyncErr  error
}

type Service struct {
	store     profile.Store
	allocator Allocator
	syncer    Syncer
	cache     Cache
	cacheTTL  time.Duration
	logger    *log.Logger
}

func NewService(store profile.Store, allocator Allocator, syncer Syncer, cache Cache, cacheTTL time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if cacheTTL <= 0 || cacheTTL > MaxCacheTTL {
		cacheTTL = MaxCacheTTL
	}
	return &Service{
		store:     store,
		allocator: allocator,
		syncer:    syncer,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// CreateIfAbsent makes sure id has a stored profile with a display id.
// Calling it again for the same uid leaves the stored profile unchanged.
func (s *Service) CreateIfAbsent(ctx context.Context, id profile.Identity) (CreateResult, error) {
	if id.UID == "" {
		return CreateResult{}, fmt.Errorf("%w: uid is required", profile.ErrValidation)
	}

	existing, err := s.store.Get(ctx, id.UID)
	switch {
	case err == nil:
		if existing.DisplayID != "" {
			return CreateResult{Profile: existing}, nil
		}
		displayID, err := s.allocator.Repair(ctx, id)
		if err != nil {
			return CreateResult{}, err
		}
		s.invalidate(ctx, id.UID)
		existing.DisplayID = displayID
		return CreateResult{Profile: existing, Repaired: true}, nil
	case !errors.Is(err, profile.ErrNotFound):
		return CreateResult{}, err
	}

	skeleton := profile.NewSkeleton(id.Email)
	displayID, err := s.allocator.Allocate(ctx, id, skeleton)
	if err != nil {
		if errors.Is(err, profile.ErrProfileExists) {
			// Lost a race with a concurrent first session for the same uid.
			p, getErr := s.store.Get(ctx, id.UID)
			if getErr != nil {
				return CreateResult{}, getErr
			}
			return CreateResult{Profile: p}, nil
		}
		return CreateResult{}, err
	}
	skeleton.DisplayID = displayID

	res := CreateResult{Profile: skeleton, Created: true}
	if err := s.syncer.Push(ctx, skeleton); err != nil {
		res.SyncErr = fmt.Errorf("%w: %w", ErrSyncPushFailed, err)
		s.logger.Printf("[Profile] initial push failed uid=%s display_id=%s err=%v", id.UID, displayID, err)
	}
	return res, nil
}

// Load returns the stored profile. An empty domain set is filled in by
// interest.Infer on the returned copy only.
func (s *Service) Load(ctx context.Context, uid string) (profile.Profile, error) {
	p, err := s.get(ctx, uid)
	if err != nil {
		return profile.Profile{}, err
	}
	if len(p.Domain) == 0 {
		p.Domain = interest.Infer(p)
	}
	return p, nil
}

// Update merges patch into the stored profile. The display id cannot be
// changed through it, and values whose type does not match the profile
// document are rejected before anything is written.
func (s *Service) Update(ctx context.Context, uid string, patch map[string]any) error {
	clean := make(map[string]any, len(patch))
	for k, v := range patch {
		if k == "displayId" {
			continue
		}
		clean[k] = v
	}
	if len(clean) == 0 {
		return fmt.Errorf("%w: empty patch", profile.ErrValidation)
	}
	if err := profile.CheckPatch(clean); err != nil {
		return err
	}

	if err := s.store.Patch(ctx, uid, clean); err != nil {
		return err
	}
	s.invalidate(ctx, uid)
	return nil
}

// Sync pushes the stored profile to the matching service and reports any
// failure to the caller.
func (s *Service) Sync(ctx context.Context, uid string) error {
	p, err := s.get(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.syncer.Push(ctx, p); err != nil {
		return fmt.Errorf("%w: %w", ErrSyncPushFailed, err)
	}
	return nil
}

// RefreshFromUpstream adopts the matching service's domains for uid when it
// has any, persisting them as authoritative. When the service cannot be
// reached the locally stored profile is returned as Load would.
func (s *Service) RefreshFromUpstream(ctx context.Context, uid string) (profile.Profile, error) {
	p, err := s.get(ctx, uid)
	if err != nil {
		return profile.Profile{}, err
	}
	if p.DisplayID == "" {
		return s.Load(ctx, uid)
	}

	detail, err := s.syncer.GetUserDetail(ctx, p.DisplayID)
	if err != nil {
		s.logger.Printf("[Profile] upstream detail unavailable uid=%s display_id=%s err=%v", uid, p.DisplayID, err)
		return s.Load(ctx, uid)
	}

	domains := upstreamDomains(detail)
	if len(domains) == 0 {
		return s.Load(ctx, uid)
	}

	if err := s.store.Patch(ctx, uid, map[string]any{"domain": domains}); err != nil {
		return profile.Profile{}, err
	}
	s.invalidate(ctx, uid)
	p.Domain = domains
	return p, nil
}

func (s *Service) get(ctx context.Context, uid string) (profile.Profile, error) {
	if uid == "" {
		return profile.Profile{}, fmt.Errorf("%w: uid is required", profile.ErrValidation)
	}

	key := cacheKey(uid)
	if s.cache != nil {
		var cached profile.Profile
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}

	p, err := s.store.Get(ctx, uid)
	if err != nil {
		return profile.Profile{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, p, s.cacheTTL); err != nil {
			s.logger.Printf("[Profile] cache set failed uid=%s err=%v", uid, err)
		}
	}
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, uid string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(uid)); err != nil {
		s.logger.Printf("[Profile] cache delete failed uid=%s err=%v", uid, err)
	}
}

func cacheKey(uid string) string {
	return "profile:" + uid
}

// upstreamDomains reads the domain list from a user detail response.
func upstreamDomains(detail map[string]any) []string {
	msg, ok := detail["message"].(map[string]any)
	if !ok {
		return nil
	}
	return profile.DetailDomains(msg)
}
