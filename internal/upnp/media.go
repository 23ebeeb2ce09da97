package upnp

import (
	"context"
	"strings"

	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/mediatypes"
	"nas-media-catalog/internal/metrics"
)

const (
	audioItemClass = "object.item.audioItem"
	videoItemClass = "object.item.videoItem"
	unknownTitle   = "Unknown"
)

// BrowseMedia walks the container tree below rootID and returns the playable
// audio and video items. Containers at depth maxDepth and deeper are not
// browsed; the root is depth 0, so maxDepth <= 0 returns nothing. A failure
// to browse the root is returned; failures below it are logged and the walk
// continues with the remaining containers.
func (c *Client) BrowseMedia(ctx context.Context, server Server, rootID string, maxDepth int) ([]MediaItem, error) {
	if rootID == "" {
		rootID = RootObjectID
	}
	logging.Info("Browsing media files from container '%s' (max depth: %d)", rootID, maxDepth)

	w := &walker{
		client:   c,
		server:   server,
		maxDepth: maxDepth,
		visited:  make(map[string]bool),
	}
	if err := w.walk(ctx, rootID, "", 0); err != nil {
		return nil, err
	}

	logging.Info("Found %d media files", len(w.items))
	return w.items, nil
}

type walker struct {
	client   *Client
	server   Server
	maxDepth int
	visited  map[string]bool
	items    []MediaItem
}

func (w *walker) walk(ctx context.Context, id, folder string, depth int) error {
	if depth >= w.maxDepth || w.visited[id] {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	w.visited[id] = true

	res, err := w.client.Browse(ctx, w.server, id)
	if err != nil {
		if ctx.Err() != nil || depth == 0 {
			return err
		}
		logging.Warn("Error browsing container %s: %v", id, err)
		metrics.ScanErrors.Inc()
		return nil
	}
	metrics.ScanContainersBrowsed.Inc()

	for _, item := range res.Items {
		if mi, ok := toMediaItem(item, folder); ok {
			w.items = append(w.items, mi)
		}
	}

	if depth+1 >= w.maxDepth {
		return nil
	}
	for _, ct := range res.Containers {
		if ct.ID == "" {
			continue
		}
		if err := w.walk(ctx, ct.ID, joinFolder(folder, ct.Title), depth+1); err != nil {
			return err
		}
	}
	return nil
}

// toMediaItem keeps audio and video items that have a resource with a
// supported MIME type. The first such resource wins.
func toMediaItem(item Item, folder string) (MediaItem, bool) {
	if !strings.HasPrefix(item.Class, audioItemClass) && !strings.HasPrefix(item.Class, videoItemClass) {
		return MediaItem{}, false
	}

	for _, res := range item.Resources {
		if res.URL == "" || !mediatypes.IsSupportedMIME(res.MIMEType) {
			continue
		}
		title := item.Title
		if title == "" {
			title = unknownTitle
		}
		return MediaItem{
			ID:          item.ID,
			Title:       title,
			Class:       item.Class,
			MIMEType:    res.MIMEType,
			URL:         res.URL,
			Path:        res.URL,
			Size:        res.Size,
			Duration:    res.Duration,
			Artist:      item.Artist,
			Album:       item.Album,
			AlbumArtURL: item.AlbumArtURL,
			Folder:      folder,
		}, true
	}
	return MediaItem{}, false
}

func joinFolder(parent, title string) string {
	title = strings.ReplaceAll(strings.TrimSpace(title), "/", "_")
	if title == "" {
		title = unknownTitle
	}
	if parent == "" {
		return title
	}
	return parent + "/" + title
}
