package artwork

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"nas-media-catalog/internal/filesystem"
	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/metrics"
)

const (
	// MaxThumbnailSize bounds both thumbnail dimensions.
	MaxThumbnailSize = 320

	// MaxImagePixels is the largest source image decoded (~20MP, ~80MB as RGBA).
	MaxImagePixels = 20_000_000

	// maxSourceBytes caps how much of an artwork response is read.
	maxSourceBytes = 20 << 20

	jpegQuality = 85
)

var (
	// ErrDisabled is returned when the cache directory is unusable.
	ErrDisabled = errors.New("artwork cache disabled")

	// ErrNoArtwork is returned for an empty artwork URL.
	ErrNoArtwork = errors.New("no artwork available")

	// ErrImageTooLarge is returned for source images above MaxImagePixels.
	ErrImageTooLarge = errors.New("artwork image too large")
)

// Fetcher retrieves a resource from the media server.
type Fetcher interface {
	Fetch(ctx context.Context, action, rawURL string, header http.Header) (*http.Response, error)
}

// Cache produces JPEG thumbnails of album art and keeps them on disk.
type Cache struct {
	dir     string
	enabled bool
	fetcher Fetcher
	group   singleflight.Group
}

// NewCache creates dir if needed. The cache is disabled when dir cannot be
// written to.
func NewCache(dir string, fetcher Fetcher) *Cache {
	c := &Cache{dir: dir, fetcher: fetcher}
	if err := checkWritable(dir); err != nil {
		logging.Warn("Artwork cache disabled: %v", err)
		return c
	}
	c.enabled = true
	logging.Debug("Artwork cache enabled, cache dir: %s", dir)
	return c
}

func checkWritable(dir string) error {
	if dir == "" {
		return errors.New("no cache directory configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("cache dir not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// IsEnabled reports whether thumbnails can be cached.
func (c *Cache) IsEnabled() bool {
	return c.enabled
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// CacheKey is the file name a thumbnail for artURL is stored under.
func CacheKey(artURL string) string {
	sum := sha256.Sum256([]byte(artURL))
	return hex.EncodeToString(sum[:]) + ".jpg"
}

// Get returns a JPEG thumbnail for artURL, fetching and resizing the image
// on a cache miss. Concurrent requests for the same URL share one fetch.
func (c *Cache) Get(ctx context.Context, artURL string) ([]byte, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}
	if artURL == "" {
		return nil, ErrNoArtwork
	}

	key := CacheKey(artURL)
	cachePath := filepath.Join(c.dir, key)

	if data, err := filesystem.ReadFile(cachePath, filesystem.DefaultRetryConfig()); err == nil {
		logging.Debug("Artwork cache hit: %s", artURL)
		metrics.ArtworkRequestsTotal.WithLabelValues("hit").Inc()
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have finished while this one waited.
		if data, err := filesystem.ReadFile(cachePath, filesystem.DefaultRetryConfig()); err == nil {
			return data, nil
		}
		return c.generate(ctx, artURL, cachePath)
	})
	if err != nil {
		metrics.ArtworkRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ArtworkRequestsTotal.WithLabelValues("miss").Inc()
	return v.([]byte), nil
}

func (c *Cache) generate(ctx context.Context, artURL, cachePath string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.ArtworkGenerationDuration.Observe(time.Since(start).Seconds())
	}()

	logging.Debug("Artwork generating: %s", artURL)

	resp, err := c.fetcher.Fetch(ctx, "artwork", artURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch artwork: unexpected status %d", resp.StatusCode)
	}

	src, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("read artwork: %w", err)
	}

	data, err := Thumbnail(src)
	if err != nil {
		return nil, err
	}

	if err := filesystem.WriteFile(cachePath, data, 0o644, filesystem.DefaultRetryConfig()); err != nil {
		logging.Warn("Failed to cache artwork %s: %v", cachePath, err)
	} else {
		logging.Debug("Artwork cached: %s", cachePath)
	}
	return data, nil
}

// Thumbnail decodes src (JPEG, PNG, GIF, BMP or WebP) and returns a JPEG
// that fits within MaxThumbnailSize on both sides. Smaller images are not
// enlarged.
func Thumbnail(src []byte) ([]byte, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode artwork header: %w", err)
	}
	if config.Width*config.Height > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, config.Width, config.Height)
	}
	logging.Debug("Decoding %s artwork (%dx%d)", format, config.Width, config.Height)

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode artwork: %w", err)
	}

	thumb := imaging.Fit(img, MaxThumbnailSize, MaxThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
