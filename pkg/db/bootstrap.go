package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Bootstrap initializes the database with default data if it's empty.
// This is called after migrations and handles first-run setup.
func (db *DB) Bootstrap(ctx context.Context) error {
	needs, err := db.NeedsBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to check profiles: %w", err)
	}
	if !needs {
		return nil
	}

	return db.Tx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (name, is_active) VALUES ('default', 1)
		`)
		if err != nil {
			return fmt.Errorf("failed to create default profile: %w", err)
		}

		profileID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get profile ID: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO api_servers (profile_id, host, port) VALUES (?, '0.0.0.0', 3000)
		`, profileID); err != nil {
			return fmt.Errorf("failed to create default API server: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO preferences (profile_id) VALUES (?)
		`, profileID); err != nil {
			return fmt.Errorf("failed to create default preferences: %w", err)
		}
		return nil
	})
}

// NeedsBootstrap returns true if the database needs initial setup.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
