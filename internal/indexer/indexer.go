package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"nas-media-catalog/internal/catalog"
	"nas-media-catalog/internal/database"
	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/mediatypes"
	"nas-media-catalog/internal/metrics"
	"nas-media-catalog/internal/upnp"
)

const (
	// ShareName labels every row the scanner writes.
	ShareName = "UPnP"

	// DefaultMaxDepth is the container depth browsed when none is configured.
	DefaultMaxDepth = 5
)

var (
	// ErrScanInProgress is returned by Index while another scan is running.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrStopped is returned once Stop has been called.
	ErrStopped = errors.New("indexer stopped")
)

// Browser walks a media server's container tree.
type Browser interface {
	BrowseMedia(ctx context.Context, server upnp.Server, rootID string, maxDepth int) ([]upnp.MediaItem, error)
}

// ServerSource reports the currently connected media server.
type ServerSource interface {
	Current() (upnp.Server, bool)
}

// Store is the database surface the indexer writes to.
type Store interface {
	ReplaceShareFiles(ctx context.Context, share string, files []database.MediaFile) (int, error)
	GetMediaFilesByPaths(ctx context.Context, paths []string) (map[string]database.MediaFile, error)
	SetLastScan(ctx context.Context, t time.Time, server string) error
}

// Config controls scanning.
type Config struct {
	// MaxDepth limits how deep containers are browsed; zero means DefaultMaxDepth.
	MaxDepth int
	// Interval between periodic rescans; zero disables them.
	Interval time.Duration
	// ScanOnStart runs a scan as soon as Start is called.
	ScanOnStart bool
	// SMB derives SMB URLs for cached files when configured.
	SMB catalog.SMBConfig
}

// Result summarizes a completed scan.
type Result struct {
	ID        string        `json:"id"`
	Server    string        `json:"server"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"-"`
	Files     int           `json:"files"`
	Audio     int           `json:"audio"`
	Video     int           `json:"video"`
}

// ScanProgress tracks the running scan.
type ScanProgress struct {
	ID         string    `json:"id"`
	Server     string    `json:"server"`
	StartedAt  time.Time `json:"startedAt"`
	ItemsFound int64     `json:"itemsFound"`
}

// Indexer caches the connected media server's items in the database.
type Indexer struct {
	store   Store
	browser Browser
	servers ServerSource
	cfg     Config
	now     func() time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	scanMu          sync.Mutex
	scanning        bool
	stopped         bool
	initialScanDone bool
	lastResult      *Result
	lastError       error
	lastErrorAt     time.Time
	startTime       time.Time

	itemsFound atomic.Int64
	progress   atomic.Value

	onScanComplete func(Result, error)
}

// New creates an Indexer. Call Start to begin background scanning.
func New(store Store, browser Browser, servers ServerSource, cfg Config) *Indexer {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	ctx, cancel := context.WithCancel(context.Background())
	idx := &Indexer{
		store:     store,
		browser:   browser,
		servers:   servers,
		cfg:       cfg,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
	idx.progress.Store(ScanProgress{})
	return idx
}

// SetOnScanComplete sets a callback invoked after every scan, successful or not.
func (idx *Indexer) SetOnScanComplete(callback func(Result, error)) {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	idx.onScanComplete = callback
}

// Start begins the initial scan (when enabled) and periodic rescans.
func (idx *Indexer) Start() error {
	if idx.cfg.ScanOnStart {
		idx.wg.Add(1)
		go func() {
			defer idx.wg.Done()
			logging.Info("Starting initial scan in background...")
			if _, err := idx.Index(idx.ctx); err != nil {
				logging.Error("Initial scan error: %v", err)
			}
			idx.markInitialScanDone()
		}()
	} else {
		idx.markInitialScanDone()
	}

	if idx.cfg.Interval > 0 {
		idx.wg.Add(1)
		go func() {
			defer idx.wg.Done()
			idx.periodicScan()
		}()
	}
	return nil
}

// Stop cancels any running scan and waits for background work to finish.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() {
		idx.scanMu.Lock()
		idx.stopped = true
		idx.scanMu.Unlock()

		idx.cancel()
		idx.wg.Wait()
		logging.Info("Indexer stopped")
	})
}

func (idx *Indexer) periodicScan() {
	logging.Info("Periodic rescans enabled (interval: %v)", idx.cfg.Interval)

	ticker := time.NewTicker(idx.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, err := idx.Index(idx.ctx)
			switch {
			case err == nil:
			case errors.Is(err, ErrScanInProgress), errors.Is(err, upnp.ErrNotConnected):
				logging.Debug("Periodic scan skipped: %v", err)
			case errors.Is(err, context.Canceled), errors.Is(err, ErrStopped):
				return
			default:
				logging.Error("Periodic scan failed: %v", err)
			}
		case <-idx.ctx.Done():
			return
		}
	}
}

// Index scans the connected server and replaces the cached UPnP files. It
// returns upnp.ErrNotConnected without a server and ErrScanInProgress when
// another scan is running.
func (idx *Indexer) Index(ctx context.Context) (*Result, error) {
	server, ok := idx.servers.Current()
	if !ok {
		return nil, upnp.ErrNotConnected
	}

	id := uuid.NewString()
	if running, started := idx.tryStartScan(id, server, false); !started {
		if running == "" {
			return nil, ErrStopped
		}
		logging.Info("Scan already in progress, skipping...")
		return nil, ErrScanInProgress
	}
	return idx.run(ctx, id, server)
}

// Trigger starts a scan in the background and returns its id. When a scan
// is already running, its id is returned with started set to false.
func (idx *Indexer) Trigger() (id string, started bool, err error) {
	server, ok := idx.servers.Current()
	if !ok {
		return "", false, upnp.ErrNotConnected
	}

	id, started = idx.tryStartScan(uuid.NewString(), server, true)
	if !started {
		if id == "" {
			return "", false, ErrStopped
		}
		return id, false, nil
	}

	go func() {
		defer idx.wg.Done()
		if _, err := idx.run(idx.ctx, id, server); err != nil {
			logging.Error("Scan %s failed: %v", id, err)
		}
	}()
	return id, true, nil
}

// tryStartScan reserves the scanner for id. If a scan is running it returns
// that scan's id and false; after Stop it returns "" and false. Background
// scans are added to the wait group under the lock so Stop cannot miss them.
func (idx *Indexer) tryStartScan(id string, server upnp.Server, background bool) (string, bool) {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()

	if idx.scanning {
		return idx.getProgress().ID, false
	}
	if idx.stopped {
		return "", false
	}
	idx.scanning = true
	if background {
		idx.wg.Add(1)
	}
	idx.itemsFound.Store(0)
	idx.progress.Store(ScanProgress{ID: id, Server: server.Name, StartedAt: idx.now()})
	return id, true
}

func (idx *Indexer) finishScan(result *Result, err error) {
	idx.scanMu.Lock()
	idx.scanning = false
	if err != nil {
		idx.lastError = err
		idx.lastErrorAt = idx.now()
	} else {
		idx.lastResult = result
		idx.lastError = nil
	}
	callback := idx.onScanComplete
	idx.scanMu.Unlock()

	if callback != nil {
		var r Result
		if result != nil {
			r = *result
		}
		callback(r, err)
	}
}

func (idx *Indexer) markInitialScanDone() {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	idx.initialScanDone = true
}

func (idx *Indexer) getProgress() ScanProgress {
	if progress, ok := idx.progress.Load().(ScanProgress); ok {
		return progress
	}
	return ScanProgress{}
}

func (idx *Indexer) run(ctx context.Context, id string, server upnp.Server) (result *Result, err error) {
	defer func() { idx.finishScan(result, err) }()

	metrics.ScanIsRunning.Set(1)
	defer metrics.ScanIsRunning.Set(0)

	startTime := idx.now()
	logging.Info("Starting scan %s of %s...", id, server.Name)

	items, err := idx.browser.BrowseMedia(ctx, server, upnp.RootObjectID, idx.cfg.MaxDepth)
	if err != nil {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		metrics.ScanErrors.Inc()
		return nil, fmt.Errorf("browse %s: %w", server.Name, err)
	}
	idx.itemsFound.Store(int64(len(items)))

	files, err := idx.toMediaFiles(ctx, items, startTime)
	if err != nil {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		metrics.ScanErrors.Inc()
		return nil, err
	}

	written, err := idx.store.ReplaceShareFiles(ctx, ShareName, files)
	if err != nil {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		metrics.ScanErrors.Inc()
		return nil, fmt.Errorf("cache media files: %w", err)
	}

	if err := idx.store.SetLastScan(ctx, startTime, server.Name); err != nil {
		logging.Warn("Failed to record last scan time: %v", err)
	}

	result = &Result{
		ID:        id,
		Server:    server.Name,
		StartedAt: startTime,
		Duration:  idx.now().Sub(startTime),
		Files:     written,
	}
	for _, f := range files {
		switch f.Type {
		case mediatypes.FileTypeAudio:
			result.Audio++
		case mediatypes.FileTypeVideo:
			result.Video++
		}
		metrics.ScanItemsDiscovered.WithLabelValues(string(f.Type)).Inc()
	}

	metrics.ScanRunsTotal.WithLabelValues("success").Inc()
	metrics.ScanLastRunTimestamp.Set(float64(idx.now().Unix()))
	metrics.ScanLastRunDuration.Set(result.Duration.Seconds())

	logging.Info("Scan %s completed in %v: %d files (%d audio, %d video)",
		id, result.Duration, result.Files, result.Audio, result.Video)
	return result, nil
}

// toMediaFiles converts browsed items to cache rows, dropping repeated URLs.
// Files already cached keep their modification time so "recently added"
// reflects when a file was first seen.
func (idx *Indexer) toMediaFiles(ctx context.Context, items []upnp.MediaItem, scanTime time.Time) ([]database.MediaFile, error) {
	paths := make([]string, 0, len(items))
	for _, item := range items {
		paths = append(paths, item.Path)
	}
	cached, err := idx.store.GetMediaFilesByPaths(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("load cached files: %w", err)
	}

	seen := make(map[string]bool, len(items))
	files := make([]database.MediaFile, 0, len(items))
	for _, item := range items {
		if item.Path == "" || seen[item.Path] {
			continue
		}
		seen[item.Path] = true

		f := database.MediaFile{
			Path:        item.Path,
			Name:        item.Title,
			ParentPath:  item.Folder,
			Size:        item.Size,
			Duration:    item.Duration,
			ModTime:     scanTime,
			Type:        mediatypes.FileTypeFromMIME(item.MIMEType),
			MimeType:    item.MIMEType,
			ShareName:   ShareName,
			AlbumArtURL: item.AlbumArtURL,
		}
		if prev, ok := cached[item.Path]; ok && !prev.ModTime.IsZero() {
			f.ModTime = prev.ModTime
		}
		if idx.cfg.SMB.Configured() {
			if smbURL, ok := catalog.SMBURLFromUPnP(item.URL, idx.cfg.SMB); ok {
				f.SMBURL = smbURL
			}
		}
		files = append(files, f)
	}

	if dropped := len(items) - len(files); dropped > 0 {
		logging.Debug("Dropped %d duplicate media items", dropped)
	}
	return files, nil
}

// IsReady reports whether the initial scan has finished (or was disabled).
func (idx *Indexer) IsReady() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	return idx.initialScanDone
}

// IsScanning reports whether a scan is running.
func (idx *Indexer) IsScanning() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	return idx.scanning
}

// GetHealthStatus returns detailed scanner status.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()

	status := HealthStatus{
		Ready:     idx.initialScanDone,
		Scanning:  idx.scanning,
		StartTime: idx.startTime,
		Uptime:    time.Since(idx.startTime).String(),
	}

	if idx.scanning {
		progress := idx.getProgress()
		progress.ItemsFound = idx.itemsFound.Load()
		status.Progress = &progress
	}

	if idx.lastResult != nil {
		r := *idx.lastResult
		status.LastScan = &r
		status.LastScanDuration = r.Duration.String()
	}

	if idx.lastError != nil {
		status.LastError = idx.lastError.Error()
		status.LastErrorAt = idx.lastErrorAt
	}

	return status
}

// HealthStatus contains scanner health information.
type HealthStatus struct {
	Ready            bool          `json:"ready"`
	Scanning         bool          `json:"scanning"`
	StartTime        time.Time     `json:"startTime"`
	Uptime           string        `json:"uptime"`
	LastScan         *Result       `json:"lastScan,omitempty"`
	LastScanDuration string        `json:"lastScanDuration,omitempty"`
	LastError        string        `json:"lastError,omitempty"`
	LastErrorAt      time.Time     `json:"lastErrorAt,omitzero"`
	Progress         *ScanProgress `json:"progress,omitempty"`
}
