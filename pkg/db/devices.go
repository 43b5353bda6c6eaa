package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrDeviceNotFound = errors.New("device not found")

// Device is a configured shading actuator.
type Device struct {
	ProfileID      int64  `json:"-"`
	Name           string `json:"name"`
	DisplayName    string `json:"displayName,omitempty"`
	Address        string `json:"address"` // host[:port] of the Shelly, or "sim"
	Serial         string `json:"serial,omitempty"`
	DeviceType     string `json:"deviceType,omitempty"`
	TiltPercentage int    `json:"tiltPercentage,omitempty"`
	Rank           int    `json:"rank,omitempty"`
	GroupID        string `json:"groupId,omitempty"`
}

// DeviceStore provides device CRUD operations scoped to a profile.
type DeviceStore interface {
	List(ctx context.Context, profileID int64) ([]*Device, error)
	Get(ctx context.Context, profileID int64, name string) (*Device, error)
	Upsert(ctx context.Context, d *Device) error
	Delete(ctx context.Context, profileID int64, name string) error
}

// Devices returns a DeviceStore for this database.
func (db *DB) Devices() DeviceStore {
	return &deviceStore{db: db}
}

type deviceStore struct {
	db *DB
}

const deviceColumns = `profile_id, name, display_name, address, serial, device_type, tilt_percentage, rank, group_id`

func scanDevice(row rowScanner) (*Device, error) {
	d := &Device{}
	err := row.Scan(&d.ProfileID, &d.Name, &d.DisplayName, &d.Address, &d.Serial,
		&d.DeviceType, &d.TiltPercentage, &d.Rank, &d.GroupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *deviceStore) List(ctx context.Context, profileID int64) ([]*Device, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+deviceColumns+` FROM devices WHERE profile_id = ? ORDER BY rank, name
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var devices []*Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (s *deviceStore) Get(ctx context.Context, profileID int64, name string) (*Device, error) {
	return scanDevice(s.db.QueryRowContext(ctx, `
		SELECT `+deviceColumns+` FROM devices WHERE profile_id = ? AND name = ?
	`, profileID, name))
}

func (s *deviceStore) Upsert(ctx context.Context, d *Device) error {
	if d.Name == "" || d.Address == "" {
		return fmt.Errorf("device needs a name and an address")
	}
	if d.DeviceType == "" {
		d.DeviceType = "blinds"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id, name) DO UPDATE SET
			display_name = excluded.display_name,
			address = excluded.address,
			serial = excluded.serial,
			device_type = excluded.device_type,
			tilt_percentage = excluded.tilt_percentage,
			rank = excluded.rank,
			group_id = excluded.group_id,
			updated_at = datetime('now')
	`, d.ProfileID, d.Name, d.DisplayName, d.Address, d.Serial, d.DeviceType, d.TiltPercentage, d.Rank, d.GroupID)
	if err != nil {
		return fmt.Errorf("failed to save device %s: %w", d.Name, err)
	}
	return nil
}

func (s *deviceStore) Delete(ctx context.Context, profileID int64, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE profile_id = ? AND name = ?`, profileID, name)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}
