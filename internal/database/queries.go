package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/mediatypes"
	"nas-media-catalog/internal/metrics"
)

// maxQueryParams stays under SQLite's default host parameter limit.
const maxQueryParams = 500

const mediaColumns = `id, path, name, parent_path, size, duration_ms, mod_time, file_type,
	mime_type, share_name, album_art_url, smb_url, cached_at`

// ReplaceShareFiles replaces every cached file of share with files in a
// single transaction. Duplicate paths keep their first occurrence. A path
// cached under another share moves to this one. Returns the number of rows
// written.
func (d *Database) ReplaceShareFiles(ctx context.Context, share string, files []MediaFile) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("replace_share_files", start, err) }()

	seen := make(map[string]bool, len(files))
	unique := make([]MediaFile, 0, len(files))
	for _, f := range files {
		if f.Path == "" || seen[f.Path] {
			continue
		}
		seen[f.Path] = true
		unique = append(unique, f)
	}
	if dropped := len(files) - len(unique); dropped > 0 {
		logging.Debug("ReplaceShareFiles: dropped %d duplicate or empty paths for share %s", dropped, share)
	}

	cachedAt := time.Now().Unix()
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM media_files WHERE share_name = ?", share)
		if err != nil {
			return fmt.Errorf("failed to clear share %s: %w", share, err)
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			metrics.DBRowsAffected.WithLabelValues("delete_share_files").Observe(float64(rows))
		}

		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO media_files (path, name, parent_path, size, duration_ms, mod_time, file_type,
			mime_type, share_name, album_art_url, smb_url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			parent_path = excluded.parent_path,
			size = excluded.size,
			duration_ms = excluded.duration_ms,
			mod_time = excluded.mod_time,
			file_type = excluded.file_type,
			mime_type = excluded.mime_type,
			share_name = excluded.share_name,
			album_art_url = excluded.album_art_url,
			smb_url = excluded.smb_url,
			cached_at = excluded.cached_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range unique {
			f := &unique[i]
			if _, err := stmt.ExecContext(ctx,
				f.Path,
				f.Name,
				f.ParentPath,
				f.Size,
				f.Duration.Milliseconds(),
				unixOrZero(f.ModTime),
				string(f.Type),
				f.MimeType,
				share,
				f.AlbumArtURL,
				f.SMBURL,
				cachedAt,
			); err != nil {
				return fmt.Errorf("failed to cache %s: %w", f.Path, err)
			}
		}
		metrics.DBRowsAffected.WithLabelValues("insert_share_files").Observe(float64(len(unique)))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(unique), nil
}

// GetMediaFiles returns cached files matching filter.
func (d *Database) GetMediaFiles(ctx context.Context, filter MediaFilter) ([]MediaFile, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_media_files", start, err) }()

	var where []string
	var args []interface{}
	if filter.Share != "" {
		where = append(where, "share_name = ?")
		args = append(args, filter.Share)
	}
	if filter.Type != "" {
		where = append(where, "file_type = ?")
		args = append(args, string(filter.Type))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		where = append(where, `(name LIKE ? ESCAPE '\' OR parent_path LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := "SELECT " + mediaColumns + " FROM media_files"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(filter.SortField, filter.SortOrder)
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("media query failed: %w", err)
	}
	defer rows.Close()

	files := []MediaFile{}
	for rows.Next() {
		var f MediaFile
		if err = scanMediaFile(rows, &f); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	err = rows.Err()
	return files, err
}

// GetMediaFile returns a cached file by ID.
func (d *Database) GetMediaFile(ctx context.Context, id int64) (*MediaFile, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_media_file", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var f MediaFile
	row := d.db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM media_files WHERE id = ?", id)
	if err = scanMediaFile(row, &f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetMediaFilesByPaths returns the cached files for paths, keyed by path.
// Paths missing from the cache are absent from the map.
func (d *Database) GetMediaFilesByPaths(ctx context.Context, paths []string) (map[string]MediaFile, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_media_files_by_paths", start, err) }()

	unique := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	found := make(map[string]MediaFile, len(unique))
	for chunkStart := 0; chunkStart < len(unique); chunkStart += maxQueryParams {
		chunk := unique[chunkStart:min(chunkStart+maxQueryParams, len(unique))]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]interface{}, len(chunk))
		for i, p := range chunk {
			args[i] = p
		}

		var rows *sql.Rows
		rows, err = d.db.QueryContext(ctx,
			"SELECT "+mediaColumns+" FROM media_files WHERE path IN ("+placeholders+")", args...)
		if err != nil {
			return nil, fmt.Errorf("path lookup failed: %w", err)
		}
		for rows.Next() {
			var f MediaFile
			if err = scanMediaFile(rows, &f); err != nil {
				rows.Close()
				return nil, err
			}
			found[f.Path] = f
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

// GetCacheStats summarizes the cached files.
func (d *Database) GetCacheStats(ctx context.Context) (*CacheStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_cache_stats", start, err) }()

	stats := &CacheStats{
		ByShare: make(map[string]int),
		ByType:  make(map[string]int),
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(size), 0) FROM media_files",
	).Scan(&stats.TotalFiles, &stats.TotalSize)
	if err != nil {
		return nil, fmt.Errorf("count query failed: %w", err)
	}

	groups := []struct {
		column string
		into   map[string]int
	}{
		{"share_name", stats.ByShare},
		{"file_type", stats.ByType},
	}
	for _, g := range groups {
		if err = d.countBy(ctx, g.column, g.into); err != nil {
			return nil, err
		}
	}

	if last, lastErr := d.lastScanNoLock(ctx); lastErr == nil && !last.IsZero() {
		stats.LastScan = &last
	}

	return stats, nil
}

func (d *Database) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := d.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s, COUNT(*) FROM media_files GROUP BY %s", column, column))
	if err != nil {
		return fmt.Errorf("group by %s failed: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

// CatalogStats implements metrics.StatsProvider.
func (d *Database) CatalogStats(ctx context.Context) (metrics.Stats, error) {
	cache, err := d.GetCacheStats(ctx)
	if err != nil {
		return metrics.Stats{}, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var playlists, sessions int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM playlists").Scan(&playlists); err != nil {
		return metrics.Stats{}, err
	}
	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE expires_at >= ?", time.Now().Unix(),
	).Scan(&sessions); err != nil {
		return metrics.Stats{}, err
	}

	return metrics.Stats{
		FilesByType: cache.ByType,
		Shares:      len(cache.ByShare),
		Playlists:   playlists,
		Sessions:    sessions,
		DBConnsOpen: d.db.Stats().OpenConnections,
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMediaFile(row rowScanner, f *MediaFile) error {
	var durationMS, modTime, cachedAt int64
	var fileType string
	err := row.Scan(
		&f.ID, &f.Path, &f.Name, &f.ParentPath, &f.Size, &durationMS, &modTime, &fileType,
		&f.MimeType, &f.ShareName, &f.AlbumArtURL, &f.SMBURL, &cachedAt,
	)
	if err != nil {
		return err
	}
	f.Duration = time.Duration(durationMS) * time.Millisecond
	if modTime > 0 {
		f.ModTime = time.Unix(modTime, 0)
	}
	f.Type = mediatypes.FileType(fileType)
	f.CachedAt = time.Unix(cachedAt, 0)
	return nil
}

func orderClause(field mediatypes.SortField, order mediatypes.SortOrder) string {
	column := "name COLLATE NOCASE"
	switch field {
	case mediatypes.SortByDate:
		column = "mod_time"
	case mediatypes.SortBySize:
		column = "size"
	case mediatypes.SortByType:
		column = "file_type"
	}
	direction := "ASC"
	if order == mediatypes.SortDesc {
		direction = "DESC"
	}
	return column + " " + direction + ", id ASC"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
