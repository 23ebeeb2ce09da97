package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	metaLastScan       = "last_scan"
	metaLastScanServer = "last_scan_server"
)

// GetMetadata retrieves a metadata value by key.
// Returns ErrNotFound if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return d.getMetadataNoLock(ctx, key)
}

func (d *Database) getMetadataNoLock(ctx context.Context, key string) (string, error) {
	var value sql.NullString
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value.String, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetLastScan returns when the cache was last refreshed and from which
// server. The time is zero if no scan has completed.
func (d *Database) GetLastScan(ctx context.Context) (time.Time, string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	last, err := d.lastScanNoLock(ctx)
	if err != nil {
		return time.Time{}, "", err
	}
	server, err := d.getMetadataNoLock(ctx, metaLastScanServer)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return time.Time{}, "", err
	}
	return last, server, nil
}

func (d *Database) lastScanNoLock(ctx context.Context) (time.Time, error) {
	value, err := d.getMetadataNoLock(ctx, metaLastScan)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// SetLastScan records a completed scan of server.
func (d *Database) SetLastScan(ctx context.Context, t time.Time, server string) error {
	if err := d.SetMetadata(ctx, metaLastScan, t.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return d.SetMetadata(ctx, metaLastScanServer, server)
}
