package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DeviceFile is the on-disk device list accepted by ImportDevices.
type DeviceFile struct {
	Devices []*Device `json:"devices"`
}

// ParseDeviceFile decodes a device list. ${VAR} references are expanded
// from the environment before decoding.
func ParseDeviceFile(data []byte) (*DeviceFile, error) {
	expanded := os.ExpandEnv(string(data))
	var f DeviceFile
	if err := json.Unmarshal([]byte(expanded), &f); err != nil {
		return nil, fmt.Errorf("failed to parse device file: %w", err)
	}
	seen := make(map[string]bool, len(f.Devices))
	for i, d := range f.Devices {
		if d == nil || d.Name == "" || d.Address == "" {
			return nil, fmt.Errorf("device %d: name and address are required", i)
		}
		key := strings.ToLower(d.Name)
		if seen[key] {
			return nil, fmt.Errorf("device %q listed twice", d.Name)
		}
		seen[key] = true
	}
	return &f, nil
}

// ImportDevices replaces the profile's devices with those in the file at path.
// It returns the number of devices stored.
func (db *DB) ImportDevices(ctx context.Context, profileID int64, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read device file: %w", err)
	}
	f, err := ParseDeviceFile(data)
	if err != nil {
		return 0, err
	}

	existing, err := db.Devices().List(ctx, profileID)
	if err != nil {
		return 0, err
	}
	keep := make(map[string]bool, len(f.Devices))
	for _, d := range f.Devices {
		d.ProfileID = profileID
		if err := db.Devices().Upsert(ctx, d); err != nil {
			return 0, err
		}
		keep[strings.ToLower(d.Name)] = true
	}
	for _, d := range existing {
		if !keep[strings.ToLower(d.Name)] {
			if err := db.Devices().Delete(ctx, profileID, d.Name); err != nil {
				return 0, err
			}
		}
	}
	return len(f.Devices), nil
}
