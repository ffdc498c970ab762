package profile

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrUsernameTaken = errors.New("display id already claimed")
	ErrProfileExists = errors.New("profile already exists")
	ErrValidation    = errors.New("validation error")
)

// Store is the document store holding profiles and the username index.
//
// CreateWithDisplayID and AssignDisplayID write the profile and its
// username index entry in a single batch; implementations must not leave
// one written without the other.
type Store interface {
	Get(ctx context.Context, uid string) (Profile, error)
	UsernameOwner(ctx context.Context, displayID string) (uid string, found bool, err error)

	// CreateWithDisplayID claims displayID for uid if unclaimed and creates
	// the profile if absent. Returns ErrUsernameTaken or ErrProfileExists
	// without writing anything.
	CreateWithDisplayID(ctx context.Context, uid, displayID string, p Profile) error

	// AssignDisplayID sets displayID on an existing profile that has none.
	// With overwrite the username entry is replaced even if another uid
	// holds it; otherwise ErrUsernameTaken is returned when it does.
	AssignDisplayID(ctx context.Context, uid, displayID string, overwrite bool) error

	// Patch merges the top-level keys of patch into the stored document.
	Patch(ctx context.Context, uid string, patch map[string]any) error
}
