package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"nas-media-catalog/internal/artwork"
	"nas-media-catalog/internal/database"
	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/mediatypes"
	"nas-media-catalog/internal/streaming"
)

// ListMedia returns cached files filtered by share, type and search text.
func (h *Handlers) ListMedia(w http.ResponseWriter, r *http.Request) {
	filter, err := mediaFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	files, err := h.db.GetMediaFiles(r.Context(), filter)
	if err != nil {
		logging.Error("Failed to list media files: %v", err)
		http.Error(w, "Failed to get media files", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, files)
}

func mediaFilterFromQuery(r *http.Request) (database.MediaFilter, error) {
	q := r.URL.Query()
	filter := database.MediaFilter{
		Share:  q.Get("share"),
		Search: q.Get("search"),
	}

	if v := q.Get("type"); v != "" {
		ft, ok := mediatypes.ParseFileType(v)
		if !ok {
			return filter, errors.New("type must be audio, video or unknown")
		}
		filter.Type = ft
	}

	switch field := mediatypes.SortField(q.Get("sort")); field {
	case "", mediatypes.SortByName, mediatypes.SortByDate, mediatypes.SortBySize, mediatypes.SortByType:
		filter.SortField = field
	default:
		return filter, errors.New("sort must be name, date, size or type")
	}
	switch order := mediatypes.SortOrder(q.Get("order")); order {
	case "", mediatypes.SortAsc, mediatypes.SortDesc:
		filter.SortOrder = order
	default:
		return filter, errors.New("order must be asc or desc")
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New(p.name + " must be a non-negative integer")
		}
		*p.dst = n
	}
	return filter, nil
}

// GetStats returns cache statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetCacheStats(r.Context())
	if err != nil {
		logging.Error("Failed to get cache stats: %v", err)
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, stats)
}

// StreamMedia proxies a cached file from the media server. Range requests
// are forwarded so browsers and players can seek.
func (h *Handlers) StreamMedia(w http.ResponseWriter, r *http.Request) {
	file, ok := h.mediaFile(w, r)
	if !ok {
		return
	}

	err := streaming.Proxy(w, r, h.client, file.Path, h.stream)
	if err == nil {
		return
	}

	var upstreamErr *streaming.UpstreamError
	switch {
	case errors.As(err, &upstreamErr):
		logging.Warn("Stream of %q failed: %v", file.Name, err)
		http.Error(w, "Media server unavailable", upstreamErr.StatusCode)
	case errors.Is(err, streaming.ErrClientGone):
		logging.Debug("Client disconnected from stream of %q", file.Name)
	default:
		logging.Warn("Stream of %q interrupted: %v", file.Name, err)
	}
}

// GetArtwork serves the cached album-art thumbnail of a file.
func (h *Handlers) GetArtwork(w http.ResponseWriter, r *http.Request) {
	file, ok := h.mediaFile(w, r)
	if !ok {
		return
	}

	data, err := h.artwork.Get(r.Context(), file.AlbumArtURL)
	switch {
	case errors.Is(err, artwork.ErrNoArtwork), errors.Is(err, artwork.ErrDisabled):
		http.Error(w, "No artwork available", http.StatusNotFound)
		return
	case err != nil:
		logging.Warn("Artwork for %q failed: %v", file.Name, err)
		http.Error(w, "Failed to load artwork", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logging.Debug("failed to write artwork: %v", err)
	}
}

// mediaFile loads the file named by the {id} route variable, writing the
// error response itself when it cannot.
func (h *Handlers) mediaFile(w http.ResponseWriter, r *http.Request) (*database.MediaFile, bool) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	file, err := h.db.GetMediaFile(r.Context(), id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, "Media file not found", http.StatusNotFound)
		return nil, false
	case err != nil:
		logging.Error("Failed to get media file %d: %v", id, err)
		http.Error(w, "Failed to get media file", http.StatusInternalServerError)
		return nil, false
	}
	return file, true
}
