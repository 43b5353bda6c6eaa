package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
)

var ErrAPIServerNotFound = errors.New("api server config not found")

// APIServer is the listen address of the control service for a profile.
type APIServer struct {
	ProfileID int64
	Host      string
	Port      int
}

// Address returns host:port.
func (a *APIServer) Address() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// APIServerStore reads and writes listen addresses.
type APIServerStore interface {
	Get(ctx context.Context, profileID int64) (*APIServer, error)
	Save(ctx context.Context, a *APIServer) error
}

// APIServers returns an APIServerStore for this database.
func (db *DB) APIServers() APIServerStore {
	return &apiServerStore{db: db}
}

type apiServerStore struct {
	db *DB
}

func (s *apiServerStore) Get(ctx context.Context, profileID int64) (*APIServer, error) {
	a := &APIServer{ProfileID: profileID}
	err := s.db.QueryRowContext(ctx, `
		SELECT host, port FROM api_servers WHERE profile_id = ?
	`, profileID).Scan(&a.Host, &a.Port)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAPIServerNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Save inserts or replaces the profile's listen address.
func (s *apiServerStore) Save(ctx context.Context, a *APIServer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_servers (profile_id, host, port) VALUES (?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET host = excluded.host, port = excluded.port
	`, a.ProfileID, a.Host, a.Port)
	if err != nil {
		return fmt.Errorf("failed to save API server config: %w", err)
	}
	return nil
}
