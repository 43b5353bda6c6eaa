package db

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// DefaultAPIAddress is used when the active profile has no listen address.
const DefaultAPIAddress = "0.0.0.0:3000"

// Config represents the complete runtime configuration loaded from the database.
type Config struct {
	Profile     *Profile
	APIServer   *APIServer
	Preferences *Preferences
	Devices     []*Device
}

// APIAddress returns the API server listen address.
func (c *Config) APIAddress() string {
	if c.APIServer == nil {
		return DefaultAPIAddress
	}
	return c.APIServer.Address()
}

// ActiveConfig loads the complete configuration for the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	config := &Config{
		Profile: profile,
	}

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}
	config.APIServer = apiServer

	if config.Preferences, err = db.Preferences().Get(ctx, profile.ID); err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	if config.Devices, err = db.Devices().List(ctx, profile.ID); err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	return config, nil
}
