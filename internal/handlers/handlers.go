package handlers

import (
	"time"

	"nas-media-catalog/internal/artwork"
	"nas-media-catalog/internal/catalog"
	"nas-media-catalog/internal/database"
	"nas-media-catalog/internal/indexer"
	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/startup"
	"nas-media-catalog/internal/streaming"
	"nas-media-catalog/internal/upnp"
)

// maxImportBytes bounds uploaded playlist documents.
const maxImportBytes = 4 << 20

type Handlers struct {
	db       *database.Database
	indexer  *indexer.Indexer
	upnp     *upnp.Manager
	client   *upnp.Client
	catalog  *catalog.Service
	exporter *catalog.Exporter
	artwork  *artwork.Cache
	stream   streaming.Config
	now      func() time.Time
}

func New(db *database.Database, idx *indexer.Indexer, mgr *upnp.Manager, client *upnp.Client, config *startup.Config) *Handlers {
	var exporter *catalog.Exporter
	if config.ExportEnabled {
		var err error
		if exporter, err = catalog.NewExporter(config.ExportDir); err != nil {
			logging.Warn("Playlist export disabled: %v", err)
		}
	}

	artworkDir := ""
	if config.ArtworkEnabled {
		artworkDir = config.ArtworkDir
	}

	return &Handlers{
		db:       db,
		indexer:  idx,
		upnp:     mgr,
		client:   client,
		catalog:  catalog.NewService(db, catalog.Resolver{SMB: config.SMB}),
		exporter: exporter,
		artwork:  artwork.NewCache(artworkDir, client),
		stream:   streaming.DefaultConfig(),
		now:      time.Now,
	}
}
