package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"matchsync/internal/database"
	"matchsync/internal/domain/profile"

	"github.com/jackc/pgx/v5"
)

// ProfileStore persists profiles as JSONB documents next to a usernames
// table acting as the display id reverse index.
type ProfileStore struct {
	db database.DB
}

func NewProfileStore(db database.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Get(ctx context.Context, uid string) (profile.Profile, error) {
	var raw []byte
	row := s.db.QueryRow(ctx, `SELECT data FROM profiles WHERE uid = $1`, uid)
	if err := row.Scan(&raw); err != nil {
		if isNoRows(err) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, err
	}

	var p profile.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return profile.Profile{}, fmt.Errorf("decode profile uid=%s: %w", uid, err)
	}
	return p, nil
}

func (s *ProfileStore) UsernameOwner(ctx context.Context, displayID string) (string, bool, error) {
	var uid string
	row := s.db.QueryRow(ctx, `SELECT uid FROM usernames WHERE display_id = $1`, displayID)
	if err := row.Scan(&uid); err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return uid, true, nil
}

func (s *ProfileStore) CreateWithDisplayID(ctx context.Context, uid, displayID string, p profile.Profile) (err error) {
	p.DisplayID = displayID
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	n, err := tx.Exec(ctx,
		`INSERT INTO usernames (display_id, uid) VALUES ($1, $2)
		 ON CONFLICT (display_id) DO NOTHING`,
		displayID, uid,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return profile.ErrUsernameTaken
	}

	n, err = tx.Exec(ctx,
		`INSERT INTO profiles (uid, display_id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (uid) DO NOTHING`,
		uid, displayID, string(doc),
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return profile.ErrProfileExists
	}

	return tx.Commit(ctx)
}

func (s *ProfileStore) AssignDisplayID(ctx context.Context, uid, displayID string, overwrite bool) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if overwrite {
		_, err = tx.Exec(ctx,
			`INSERT INTO usernames (display_id, uid) VALUES ($1, $2)
			 ON CONFLICT (display_id) DO UPDATE SET uid = EXCLUDED.uid, claimed_at = now()`,
			displayID, uid,
		)
		if err != nil {
			return err
		}
	} else {
		var owner string
		row := tx.QueryRow(ctx,
			`INSERT INTO usernames (display_id, uid) VALUES ($1, $2)
			 ON CONFLICT (display_id) DO UPDATE SET display_id = usernames.display_id
			 RETURNING uid`,
			displayID, uid,
		)
		if err = row.Scan(&owner); err != nil {
			return err
		}
		if owner != uid {
			return profile.ErrUsernameTaken
		}
	}

	n, err := tx.Exec(ctx,
		`UPDATE profiles
		 SET display_id = $2,
		     data = jsonb_set(data, '{displayId}', to_jsonb($2::text)),
		     updated_at = now()
		 WHERE uid = $1`,
		uid, displayID,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return profile.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (s *ProfileStore) Patch(ctx context.Context, uid string, patch map[string]any) error {
	b, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	n, err := s.db.Exec(ctx,
		`UPDATE profiles SET data = data || $2::jsonb, updated_at = now() WHERE uid = $1`,
		uid, string(b),
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

var _ profile.Store = (*ProfileStore)(nil)
