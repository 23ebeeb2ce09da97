package metrics

import (
	"context"
	"time"

	"nas-media-catalog/internal/logging"
)

// StatsProvider supplies catalog contents for the collector.
type StatsProvider interface {
	CatalogStats(ctx context.Context) (Stats, error)
}

// Stats holds the current catalog statistics
type Stats struct {
	FilesByType map[string]int
	Shares      int
	Playlists   int
	Sessions    int
	DBConnsOpen int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	doneChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection and waits for the loop to exit
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.doneChan
}

func (c *Collector) collectLoop() {
	defer close(c.doneChan)

	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.statsProvider.CatalogStats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	for _, ft := range []string{"audio", "video", "unknown"} {
		MediaFilesTotal.WithLabelValues(ft).Set(float64(stats.FilesByType[ft]))
	}
	SharesTotal.Set(float64(stats.Shares))
	PlaylistsTotal.Set(float64(stats.Playlists))
	ActiveSessions.Set(float64(stats.Sessions))
	DBConnectionsOpen.Set(float64(stats.DBConnsOpen))

	logging.Debug("Metrics collected: audio=%d, video=%d, playlists=%d, sessions=%d",
		stats.FilesByType["audio"], stats.FilesByType["video"], stats.Playlists, stats.Sessions)
}
