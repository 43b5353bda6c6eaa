package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Preferences are the panel and driver settings of a profile.
type Preferences struct {
	ProfileID      int64
	SafeMode       *bool // nil: derive from the client environment
	ConfirmTimeout time.Duration
	OptimizeTilt   bool
	PollInterval   time.Duration
}

// DefaultPreferences returns the settings used before anything is saved.
func DefaultPreferences(profileID int64) *Preferences {
	return &Preferences{
		ProfileID:      profileID,
		ConfirmTimeout: 3000 * time.Millisecond,
		OptimizeTilt:   true,
		PollInterval:   5 * time.Second,
	}
}

// PreferenceStore reads and writes preferences.
type PreferenceStore interface {
	// Get returns the saved preferences, or the defaults if none were saved.
	Get(ctx context.Context, profileID int64) (*Preferences, error)
	Save(ctx context.Context, p *Preferences) error
}

// Preferences returns a PreferenceStore for this database.
func (db *DB) Preferences() PreferenceStore {
	return &preferenceStore{db: db}
}

type preferenceStore struct {
	db *DB
}

func (s *preferenceStore) Get(ctx context.Context, profileID int64) (*Preferences, error) {
	var (
		safeMode          sql.NullBool
		timeoutMs, pollMs int64
		optimizeTilt      bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT safe_mode, confirm_timeout_ms, optimize_tilt, poll_interval_ms
		FROM preferences WHERE profile_id = ?
	`, profileID).Scan(&safeMode, &timeoutMs, &optimizeTilt, &pollMs)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultPreferences(profileID), nil
	}
	if err != nil {
		return nil, err
	}

	p := &Preferences{
		ProfileID:      profileID,
		ConfirmTimeout: time.Duration(timeoutMs) * time.Millisecond,
		OptimizeTilt:   optimizeTilt,
		PollInterval:   time.Duration(pollMs) * time.Millisecond,
	}
	if safeMode.Valid {
		v := safeMode.Bool
		p.SafeMode = &v
	}
	return p, nil
}

func (s *preferenceStore) Save(ctx context.Context, p *Preferences) error {
	var safeMode sql.NullBool
	if p.SafeMode != nil {
		safeMode = sql.NullBool{Bool: *p.SafeMode, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (profile_id, safe_mode, confirm_timeout_ms, optimize_tilt, poll_interval_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			safe_mode = excluded.safe_mode,
			confirm_timeout_ms = excluded.confirm_timeout_ms,
			optimize_tilt = excluded.optimize_tilt,
			poll_interval_ms = excluded.poll_interval_ms,
			updated_at = datetime('now')
	`, p.ProfileID, safeMode, p.ConfirmTimeout.Milliseconds(), p.OptimizeTilt, p.PollInterval.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
