package memory

import (
	"context"
	"encoding/json"
	"sync"

	"matchsync/internal/domain/profile"
)

// ProfileStore keeps profiles as JSON documents so Patch has the same
// top-level merge semantics as the Postgres store.
type ProfileStore struct {
	mu        sync.Mutex
	docs      map[string]map[string]any
	usernames map[string]string
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		docs:      map[string]map[string]any{},
		usernames: map[string]string{},
	}
}

func (s *ProfileStore) Get(_ context.Context, uid string) (profile.Profile, error) {
	s.mu.Lock()
	doc, ok := s.docs[uid]
	var b []byte
	var err error
	if ok {
		b, err = json.Marshal(doc)
	}
	s.mu.Unlock()

	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, err
	}
	var p profile.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (s *ProfileStore) UsernameOwner(_ context.Context, displayID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.usernames[displayID]
	return uid, ok, nil
}

func (s *ProfileStore) CreateWithDisplayID(_ context.Context, uid, displayID string, p profile.Profile) error {
	p.DisplayID = displayID
	doc, err := toDocument(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usernames[displayID]; taken {
		return profile.ErrUsernameTaken
	}
	if _, exists := s.docs[uid]; exists {
		return profile.ErrProfileExists
	}
	s.usernames[displayID] = uid
	s.docs[uid] = doc
	return nil
}

func (s *ProfileStore) AssignDisplayID(_ context.Context, uid, displayID string, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[uid]
	if !ok {
		return profile.ErrNotFound
	}
	if owner, taken := s.usernames[displayID]; taken && owner != uid && !overwrite {
		return profile.ErrUsernameTaken
	}
	s.usernames[displayID] = uid
	doc["displayId"] = displayID
	return nil
}

func (s *ProfileStore) Patch(_ context.Context, uid string, patch map[string]any) error {
	// Round-trip through JSON so stored values never alias caller memory.
	b, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	var clean map[string]any
	if err := json.Unmarshal(b, &clean); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uid]
	if !ok {
		return profile.ErrNotFound
	}
	for k, v := range clean {
		doc[k] = v
	}
	return nil
}

// Len reports the number of stored profiles.
func (s *ProfileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func toDocument(p profile.Profile) (map[string]any, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

var _ profile.Store = (*ProfileStore)(nil)
