package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// CreatePlaylist stores a new playlist, preserving the order of FilePaths.
func (d *Database) CreatePlaylist(ctx context.Context, in PlaylistInput) (*Playlist, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_playlist", start, err) }()

	now := time.Now().Unix()
	var id int64
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"INSERT INTO playlists (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)",
			in.Name, in.Description, now, now,
		)
		if err != nil {
			return translateConstraint(err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return err
		}
		return insertItems(ctx, tx, id, in.FilePaths)
	})
	if err != nil {
		return nil, err
	}

	return &Playlist{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		FilePaths:   append([]string(nil), in.FilePaths...),
		CreatedAt:   time.Unix(now, 0),
		UpdatedAt:   time.Unix(now, 0),
	}, nil
}

// UpdatePlaylist replaces the name, description and items of a playlist.
func (d *Database) UpdatePlaylist(ctx context.Context, id int64, in PlaylistInput) (*Playlist, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_playlist", start, err) }()

	now := time.Now().Unix()
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE playlists SET name = ?, description = ?, updated_at = ? WHERE id = ?",
			in.Name, in.Description, now, id,
		)
		if err != nil {
			return translateConstraint(err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_items WHERE playlist_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear playlist items: %w", err)
		}
		return insertItems(ctx, tx, id, in.FilePaths)
	})
	if err != nil {
		return nil, err
	}

	return d.GetPlaylist(ctx, id)
}

func insertItems(ctx context.Context, tx *sql.Tx, playlistID int64, paths []string) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO playlist_items (playlist_id, position, path) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range paths {
		if _, err := stmt.ExecContext(ctx, playlistID, i, p); err != nil {
			return fmt.Errorf("failed to insert playlist item %d: %w", i, err)
		}
	}
	return nil
}

// GetPlaylist returns a playlist with its items in order.
func (d *Database) GetPlaylist(ctx context.Context, id int64) (*Playlist, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_playlist", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p Playlist
	var createdAt, updatedAt int64
	err = d.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at, updated_at FROM playlists WHERE id = ?", id,
	).Scan(&p.ID, &p.Name, &p.Description, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)

	items, err := d.playlistItemsNoLock(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	p.FilePaths = items[id]
	if p.FilePaths == nil {
		p.FilePaths = []string{}
	}
	return &p, nil
}

// GetPlaylists returns all playlists, newest first.
func (d *Database) GetPlaylists(ctx context.Context) ([]Playlist, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_playlists", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT id, name, description, created_at, updated_at FROM playlists ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}

	playlists := []Playlist{}
	var ids []int64
	for rows.Next() {
		var p Playlist
		var createdAt, updatedAt int64
		if err = rows.Scan(&p.ID, &p.Name, &p.Description, &createdAt, &updatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		p.UpdatedAt = time.Unix(updatedAt, 0)
		playlists = append(playlists, p)
		ids = append(ids, p.ID)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	items, err := d.playlistItemsNoLock(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		playlists[i].FilePaths = items[playlists[i].ID]
		if playlists[i].FilePaths == nil {
			playlists[i].FilePaths = []string{}
		}
	}
	return playlists, nil
}

// playlistItemsNoLock loads the ordered paths of each playlist. The caller
// holds d.mu.
func (d *Database) playlistItemsNoLock(ctx context.Context, ids []int64) (map[int64][]string, error) {
	items := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	query := "SELECT playlist_id, path FROM playlist_items ORDER BY playlist_id, position"
	var args []interface{}
	if len(ids) == 1 {
		query = "SELECT playlist_id, path FROM playlist_items WHERE playlist_id = ? ORDER BY position"
		args = append(args, ids[0])
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("playlist items query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, err
		}
		items[id] = append(items[id], path)
	}
	return items, rows.Err()
}

// DeletePlaylist removes a playlist and its items.
func (d *Database) DeletePlaylist(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_playlist", start, err) }()

	err = d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_items WHERE playlist_id = ?", id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrNotFound
		}
		return nil
	})
	return err
}

func translateConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrPlaylistExists
	}
	return err
}
