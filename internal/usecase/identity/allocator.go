package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"matchsync/internal/domain/profile"
	"matchsync/internal/infrastructure/metrics"
)

var ErrAllocationExhausted = errors.New("display id allocation exhausted")

const (
	MaxAttempts = 10

	fallbackBaseName = "user"
)

type RepairPolicy int

const (
	// RepairClaimIfFree claims the base name only when it is unclaimed or
	// already owned by the same uid, and otherwise runs the suffix loop.
	RepairClaimIfFree RepairPolicy = iota
	// RepairOverwrite repoints the username entry at the repaired profile
	// even if another uid holds it.
	RepairOverwrite
)

func ParseRepairPolicy(s string) (RepairPolicy, error) {
	switch strings.TrimSpace(s) {
	case "", "claim-if-free":
		return RepairClaimIfFree, nil
	case "overwrite":
		return RepairOverwrite, nil
	default:
		return 0, fmt.Errorf("unknown repair policy %q", s)
	}
}

type Allocator struct {
	store   profile.Store
	policy  RepairPolicy
	suffix  func() int
	logger  *log.Logger
	metrics *metrics.Metrics
}

type Option func(*Allocator)

func WithRepairPolicy(p RepairPolicy) Option {
	return func(a *Allocator) { a.policy = p }
}

// WithSuffixSource replaces the random 4-digit suffix generator.
func WithSuffixSource(fn func() int) Option {
	return func(a *Allocator) {
		if fn != nil {
			a.suffix = fn
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Allocator) { a.metrics = m }
}

func NewAllocator(store profile.Store, opts ...Option) *Allocator {
	a := &Allocator{
		store:  store,
		policy: RepairClaimIfFree,
		suffix: func() int { return 1000 + rand.IntN(9000) },
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseName strips every non-alphanumeric character from the local part of
// email.
func BaseName(email string) string {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	var b strings.Builder
	b.Grow(len(local))
	for _, r := range local {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Allocate picks a display id for a new identity and creates skeleton under
// it, claiming the username in the same store batch. Up to MaxAttempts
// candidates are tried: the base name, then base name plus a random 4-digit
// suffix. ErrProfileExists is returned unchanged when another request
// created the profile first.
func (a *Allocator) Allocate(ctx context.Context, id profile.Identity, skeleton profile.Profile) (string, error) {
	base := baseNameOrFallback(id.Email)

	displayID, err := a.claimLoop(ctx, base, func(candidate string) error {
		return a.store.CreateWithDisplayID(ctx, id.UID, candidate, skeleton)
	})
	if err != nil {
		return "", err
	}

	a.metrics.IncDisplayID("new")
	a.logger.Printf("[Identity] allocated display_id=%s uid=%s", displayID, id.UID)
	return displayID, nil
}

// Repair assigns a display id to a stored profile created without one.
func (a *Allocator) Repair(ctx context.Context, id profile.Identity) (string, error) {
	base := baseNameOrFallback(id.Email)

	var (
		displayID string
		err       error
	)
	switch a.policy {
	case RepairOverwrite:
		if owner, found, lookupErr := a.store.UsernameOwner(ctx, base); lookupErr == nil && found && owner != id.UID {
			a.logger.Printf("[Identity] repair overwriting username display_id=%s previous_uid=%s uid=%s", base, owner, id.UID)
		}
		err = a.store.AssignDisplayID(ctx, id.UID, base, true)
		displayID = base
	default:
		displayID, err = a.claimLoop(ctx, base, func(candidate string) error {
			return a.store.AssignDisplayID(ctx, id.UID, candidate, false)
		})
	}
	if err != nil {
		return "", err
	}

	a.metrics.IncDisplayID("repair")
	a.logger.Printf("[Identity] repaired display_id=%s uid=%s", displayID, id.UID)
	return displayID, nil
}

func (a *Allocator) claimLoop(ctx context.Context, base string, claim func(candidate string) error) (string, error) {
	candidate := base
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err := claim(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, profile.ErrUsernameTaken) {
			return "", err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		candidate = base + strconv.Itoa(a.suffix())
	}
	return "", fmt.Errorf("%w: base=%s attempts=%d", ErrAllocationExhausted, base, MaxAttempts)
}

func baseNameOrFallback(email string) string {
	if b := BaseName(email); b != "" {
		return b
	}
	return fallbackBaseName
}
