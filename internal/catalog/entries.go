package catalog

import (
	"context"
	"errors"
	"path"
	"strings"

	"nas-media-catalog/internal/database"
	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/mediatypes"
	"nas-media-catalog/internal/metrics"
	"nas-media-catalog/internal/playlist"
)

// ErrNoResolvableFiles is returned when none of a playlist's paths are in the cache.
var ErrNoResolvableFiles = errors.New("no media files found for this playlist")

// Entries maps a playlist's stored paths to serializer entries in playlist
// order. Paths missing from files are skipped and counted; repeated paths
// produce repeated entries.
func Entries(p *database.Playlist, files map[string]database.MediaFile, resolver URLResolver) ([]playlist.Entry, int) {
	entries := make([]playlist.Entry, 0, len(p.FilePaths))
	missing := 0
	for _, fp := range p.FilePaths {
		f, ok := files[fp]
		if !ok {
			missing++
			continue
		}
		entries = append(entries, playlist.Entry{
			Title:    EntryTitle(f),
			URL:      resolver.Resolve(f),
			Duration: f.Duration,
		})
	}

	if missing > 0 {
		logging.Warn("Playlist %d: found %d files out of %d expected", p.ID, len(entries), len(p.FilePaths))
		metrics.PlaylistUnresolvedPaths.Add(float64(missing))
	}
	return entries, missing
}

// EntryTitle is the display title of f: its name without a known media
// file extension.
func EntryTitle(f database.MediaFile) string {
	name := f.Name
	ext := strings.ToLower(path.Ext(name))
	if _, ok := mediatypes.MimeTypes[ext]; ok && len(name) > len(ext) {
		name = name[:len(name)-len(ext)]
	}
	return name
}

// Store is the database surface the catalog service needs.
type Store interface {
	GetPlaylist(ctx context.Context, id int64) (*database.Playlist, error)
	GetMediaFilesByPaths(ctx context.Context, paths []string) (map[string]database.MediaFile, error)
	GetMediaFiles(ctx context.Context, filter database.MediaFilter) ([]database.MediaFile, error)
	CreatePlaylist(ctx context.Context, in database.PlaylistInput) (*database.Playlist, error)
}

// Document is a generated playlist file.
type Document struct {
	PlaylistID int64
	Name       string
	Filename   string
	Body       []byte
	Entries    int
	Missing    int
}

// Service generates playlist documents from stored playlists.
type Service struct {
	store    Store
	resolver URLResolver
}

// NewService returns a Service reading from store and resolving URLs with resolver.
func NewService(store Store, resolver URLResolver) *Service {
	return &Service{store: store, resolver: resolver}
}

// Document builds the M3U document for a stored playlist. target labels
// metrics ("download", "export"). It returns database.ErrNotFound for an
// unknown playlist and ErrNoResolvableFiles when no path resolves.
func (s *Service) Document(ctx context.Context, id int64, target string) (*Document, error) {
	doc, err := s.document(ctx, id)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.PlaylistDocumentsTotal.WithLabelValues(target, status).Inc()
	return doc, err
}

func (s *Service) document(ctx context.Context, id int64) (*Document, error) {
	p, err := s.store.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}

	files, err := s.store.GetMediaFilesByPaths(ctx, p.FilePaths)
	if err != nil {
		return nil, err
	}

	entries, missing := Entries(p, files, s.resolver)
	if len(entries) == 0 {
		return nil, ErrNoResolvableFiles
	}
	metrics.PlaylistEntries.Observe(float64(len(entries)))

	return &Document{
		PlaylistID: p.ID,
		Name:       p.Name,
		Filename:   playlist.SuggestedFilename(p.Name),
		Body:       []byte(playlist.Generate(p.Name, entries)),
		Entries:    len(entries),
		Missing:    missing,
	}, nil
}

// Import creates a playlist from parsed entries. Entries are matched to the
// cache by URL, either the UPnP path or the SMB URL; unmatched entries are
// dropped. It returns a ValidationError when nothing matches.
func (s *Service) Import(ctx context.Context, name, description string, entries []playlist.Entry) (*database.Playlist, int, error) {
	cached, err := s.store.GetMediaFiles(ctx, database.MediaFilter{})
	if err != nil {
		return nil, 0, err
	}

	bySMB := make(map[string]string, len(cached))
	byPath := make(map[string]bool, len(cached))
	for _, f := range cached {
		byPath[f.Path] = true
		if f.SMBURL != "" {
			bySMB[f.SMBURL] = f.Path
		}
	}

	paths := make([]string, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		switch {
		case byPath[e.URL]:
			paths = append(paths, e.URL)
		case bySMB[e.URL] != "":
			paths = append(paths, bySMB[e.URL])
		default:
			skipped++
		}
	}
	if len(paths) == 0 {
		return nil, skipped, &ValidationError{Field: "body", Message: "no playlist entries match cached media files"}
	}

	in, err := Validate(database.PlaylistInput{Name: name, Description: description, FilePaths: paths})
	if err != nil {
		return nil, skipped, err
	}

	p, err := s.store.CreatePlaylist(ctx, in)
	if err != nil {
		return nil, skipped, err
	}
	if skipped > 0 {
		logging.Warn("Imported playlist %q: skipped %d entries not in the cache", p.Name, skipped)
	}
	return p, skipped, nil
}
