package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"nas-media-catalog/internal/catalog"
	"nas-media-catalog/internal/database"
	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/playlist"
)

// AutoPlaylistsResponse lists generated playlist suggestions.
type AutoPlaylistsResponse struct {
	AutoPlaylists  []catalog.Suggestion `json:"autoPlaylists"`
	SmartPlaylists []catalog.Suggestion `json:"smartPlaylists"`
	Total          int                  `json:"total"`
}

// ImportResponse reports an imported playlist.
type ImportResponse struct {
	Playlist *database.Playlist `json:"playlist"`
	Skipped  int                `json:"skipped"`
}

// ExportResponse reports where a playlist was written.
type ExportResponse struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Missing int    `json:"missing"`
}

// CreatePlaylist stores a new playlist.
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var in database.PlaylistInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	in, err := catalog.Validate(in)
	if err != nil {
		h.writePlaylistError(w, err)
		return
	}

	p, err := h.db.CreatePlaylist(r.Context(), in)
	if err != nil {
		h.writePlaylistError(w, err)
		return
	}

	logging.Info("Created playlist %q with %d items", p.Name, len(p.FilePaths))
	writeJSONStatusCode(w, http.StatusCreated, p)
}

// ListPlaylists returns all stored playlists
func (h *Handlers) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.db.GetPlaylists(r.Context())
	if err != nil {
		logging.Error("Failed to list playlists: %v", err)
		http.Error(w, "Failed to get playlists", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, playlists)
}

// GetPlaylist returns a single playlist.
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.db.GetPlaylist(r.Context(), id)
	if err != nil {
		h.writePlaylistError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, p)
}

// UpdatePlaylist replaces a playlist's name, description and items.
func (h *Handlers) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var in database.PlaylistInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in, err = catalog.Validate(in); err != nil {
		h.writePlaylistError(w, err)
		return
	}

	p, err := h.db.UpdatePlaylist(r.Context(), id, in)
	if err != nil {
		h.writePlaylistError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, p)
}

// DeletePlaylist removes a playlist.
func (h *Handlers) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.DeletePlaylist(r.Context(), id); err != nil {
		h.writePlaylistError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"message": "Playlist deleted successfully"})
}

// ImportPlaylist creates a playlist from an uploaded M3U or WPL document.
// Entries are matched against the cache; the name comes from the name query
// parameter, falling back to the WPL title.
func (h *Handlers) ImportPlaylist(w http.ResponseWriter, r *http.Request) {
	body := bufio.NewReader(http.MaxBytesReader(w, r.Body, maxImportBytes))

	var (
		title   string
		entries []playlist.Entry
		err     error
	)
	if isWPL(r, body) {
		title, entries, err = playlist.ParseWPL(body)
	} else {
		entries, err = playlist.Parse(body)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, "Playlist document too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(w, "Could not parse playlist document", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		name = title
	}

	p, skipped, err := h.catalog.Import(r.Context(), name, q.Get("description"), entries)
	if err != nil {
		h.writePlaylistError(w, err)
		return
	}

	logging.Info("Imported playlist %q: %d items, %d skipped", p.Name, len(p.FilePaths), skipped)
	writeJSONStatusCode(w, http.StatusCreated, ImportResponse{Playlist: p, Skipped: skipped})
}

// isWPL reports whether the upload is a Windows Media playlist, by content
// type or by a leading '<'.
func isWPL(r *http.Request, body *bufio.Reader) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(ct, "wpl") || strings.Contains(ct, "xml") {
		return true
	}
	for {
		b, err := body.Peek(1)
		if err != nil {
			return false
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = body.ReadByte()
		default:
			return b[0] == '<'
		}
	}
}

// GenerateAutoPlaylists suggests playlists from the cached files.
func (h *Handlers) GenerateAutoPlaylists(w http.ResponseWriter, r *http.Request) {
	files, err := h.db.GetMediaFiles(r.Context(), database.MediaFilter{})
	if err != nil {
		logging.Error("Failed to load media files for suggestions: %v", err)
		http.Error(w, "Failed to generate playlists", http.StatusInternalServerError)
		return
	}

	auto := catalog.AutoPlaylists(files)
	smart := catalog.SmartPlaylists(files, h.now())
	if auto == nil {
		auto = []catalog.Suggestion{}
	}
	if smart == nil {
		smart = []catalog.Suggestion{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AutoPlaylistsResponse{
		AutoPlaylists:  auto,
		SmartPlaylists: smart,
		Total:          len(auto) + len(smart),
	})
}

// DownloadPlaylist serves the playlist as an M3U file for VLC. The body is
// the document itself, never wrapped in JSON.
func (h *Handlers) DownloadPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.catalog.Document(r.Context(), id, "download")
	if err != nil {
		h.writeDocumentError(w, err)
		return
	}
	if doc.Missing > 0 {
		logging.Warn("Playlist %q: %d of %d items are no longer cached", doc.Name, doc.Missing, doc.Entries+doc.Missing)
	}

	w.Header().Set("Content-Type", playlist.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(doc.Body); err != nil {
		logging.Debug("failed to write playlist download: %v", err)
	}
}

// ExportPlaylist writes the playlist document into the export directory.
func (h *Handlers) ExportPlaylist(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeJSONError(w, catalog.ErrExportDisabled.Error(), http.StatusServiceUnavailable)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.catalog.Document(r.Context(), id, "export")
	if err != nil {
		h.writeDocumentError(w, err)
		return
	}

	path, err := h.exporter.Export(doc)
	if err != nil {
		logging.Error("Failed to export playlist %d: %v", id, err)
		writeJSONError(w, "Failed to export playlist", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ExportResponse{Path: path, Entries: doc.Entries, Missing: doc.Missing})
}

func (h *Handlers) writeDocumentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, "Playlist not found", http.StatusNotFound)
	case errors.Is(err, catalog.ErrNoResolvableFiles):
		http.Error(w, "No media files found for this playlist", http.StatusNotFound)
	default:
		logging.Error("Failed to generate playlist document: %v", err)
		http.Error(w, "Failed to generate playlist", http.StatusInternalServerError)
	}
}

// writePlaylistError maps playlist management errors to JSON responses.
func (h *Handlers) writePlaylistError(w http.ResponseWriter, err error) {
	var validation *catalog.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSONStatusCode(w, http.StatusBadRequest, map[string]string{
			"error": validation.Message,
			"field": validation.Field,
		})
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, "Playlist not found", http.StatusNotFound)
	case errors.Is(err, database.ErrPlaylistExists):
		writeJSONError(w, "A playlist with this name already exists", http.StatusConflict)
	default:
		logging.Error("Playlist request failed: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}
