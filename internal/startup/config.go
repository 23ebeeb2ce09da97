package startup

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"nas-media-catalog/internal/catalog"
	"nas-media-catalog/internal/logging"
)

const (
	// DatabaseFileName is the SQLite file inside DATABASE_DIR.
	DatabaseFileName = "media_catalog.db"

	artworkDirName = "artwork"
)

// Config holds all application configuration
type Config struct {
	Host           string
	Port           string
	MetricsPort    string
	MetricsEnabled bool
	DatabaseDir    string
	CacheDir       string
	ExportDir      string
	StaticDir      string

	DiscoveryTimeout time.Duration
	ServerName       string
	BrowseRate       int
	MaxScanDepth     int
	ScanOnStartup    bool
	ScanInterval     time.Duration

	SMB catalog.SMBConfig

	AuthEnabled     bool
	SessionDuration time.Duration
	LogStaticFiles  bool
	LogHealthChecks bool

	// Derived paths
	DatabasePath string
	ArtworkDir   string

	// Feature flags based on directory availability
	ArtworkEnabled bool
	ExportEnabled  bool
	StaticEnabled  bool
}

// Addr is the listen address of the application server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// MetricsAddr is the listen address of the metrics server.
func (c *Config) MetricsAddr() string {
	return net.JoinHostPort(c.Host, c.MetricsPort)
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	section("DIRECTORY SETUP")

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	logging.Info("  Database directory (absolute): %s", cfg.DatabaseDir)
	logging.Info("  Cache directory (absolute):    %s", cfg.CacheDir)

	if err := ensureDirectory(cfg.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	cfg.ArtworkEnabled = setupOptionalDir(cfg.ArtworkDir, "artwork")
	if cfg.ExportDir != "" {
		cfg.ExportEnabled = setupOptionalDir(cfg.ExportDir, "export")
	}
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		cfg.StaticEnabled = true
	} else {
		logging.Warn("  Static directory %s not found, web UI disabled", cfg.StaticDir)
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Artwork:     %s", enabledString(cfg.ArtworkEnabled))
	logging.Info("    Export:      %s", enabledString(cfg.ExportEnabled))
	logging.Info("    SMB URLs:    %s", enabledString(cfg.SMB.Configured()))
	logging.Info("    Auth:        %s", enabledString(cfg.AuthEnabled))
	logging.Info("    Metrics:     %s", enabledString(cfg.MetricsEnabled))

	return cfg, nil
}

// readConfig reads the environment without touching the filesystem.
func readConfig() (*Config, error) {
	logging.Info(rule)
	logging.Info("CONFIGURATION")
	logging.Info(rule)

	cfg := &Config{
		Host:             getEnv("HOST", "0.0.0.0"),
		Port:             getEnv("PORT", "8000"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		DatabaseDir:      getEnv("DATABASE_DIR", "./data"),
		CacheDir:         getEnv("CACHE_DIR", "./cache"),
		ExportDir:        getEnv("EXPORT_DIR", ""),
		StaticDir:        getEnv("STATIC_DIR", "./static"),
		DiscoveryTimeout: getEnvDuration("UPNP_DISCOVERY_TIMEOUT", 10*time.Second),
		ServerName:       getEnv("UPNP_SERVER_NAME", ""),
		BrowseRate:       getEnvInt("UPNP_BROWSE_RATE", 20),
		MaxScanDepth:     getEnvInt("MAX_SCAN_DEPTH", 5),
		ScanOnStartup:    getEnvBool("AUTO_SCAN_ON_STARTUP", true),
		ScanInterval:     getEnvDuration("SCAN_INTERVAL", 0),
		SMB:              SMBConfigFromEnv(),
		AuthEnabled:      getEnvBool("AUTH_ENABLED", false),
		SessionDuration:  getEnvDuration("SESSION_DURATION", 7*24*time.Hour),
		LogStaticFiles:   getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks:  getEnvBool("LOG_HEALTH_CHECKS", true),
	}

	if cfg.DiscoveryTimeout <= 0 {
		logging.Warn("  UPNP_DISCOVERY_TIMEOUT must be positive, using default: 10s")
		cfg.DiscoveryTimeout = 10 * time.Second
	}
	if cfg.BrowseRate <= 0 {
		logging.Warn("  UPNP_BROWSE_RATE must be positive, using default: 20")
		cfg.BrowseRate = 20
	}
	if cfg.MaxScanDepth < 0 {
		return nil, fmt.Errorf("MAX_SCAN_DEPTH must not be negative: %d", cfg.MaxScanDepth)
	}
	if cfg.ScanInterval < 0 {
		return nil, fmt.Errorf("SCAN_INTERVAL must not be negative: %v", cfg.ScanInterval)
	}
	if cfg.SessionDuration <= 0 {
		logging.Warn("  SESSION_DURATION must be positive, using default: 168h")
		cfg.SessionDuration = 7 * 24 * time.Hour
	}
	if cfg.SMB.Enabled && !cfg.SMB.Configured() {
		logging.Warn("  SMB_ENABLED is set but SMB_HOSTNAME or SMB_USERNAME is empty; UPnP URLs will be used")
	}

	logging.Info("  HOST:                   %s", cfg.Host)
	logging.Info("  PORT:                   %s", cfg.Port)
	logging.Info("  METRICS_PORT:           %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:        %v", cfg.MetricsEnabled)
	logging.Info("  DATABASE_DIR:           %s", cfg.DatabaseDir)
	logging.Info("  CACHE_DIR:              %s", cfg.CacheDir)
	logging.Info("  EXPORT_DIR:             %s", dashIfEmpty(cfg.ExportDir))
	logging.Info("  STATIC_DIR:             %s", cfg.StaticDir)
	logging.Info("  UPNP_DISCOVERY_TIMEOUT: %v", cfg.DiscoveryTimeout)
	logging.Info("  UPNP_SERVER_NAME:       %s", dashIfEmpty(cfg.ServerName))
	logging.Info("  UPNP_BROWSE_RATE:       %d/s", cfg.BrowseRate)
	logging.Info("  MAX_SCAN_DEPTH:         %d", cfg.MaxScanDepth)
	logging.Info("  AUTO_SCAN_ON_STARTUP:   %v", cfg.ScanOnStartup)
	logging.Info("  SCAN_INTERVAL:          %v", cfg.ScanInterval)
	logging.Info("  SMB_ENABLED:            %v", cfg.SMB.Enabled)
	logging.Info("  SMB_HOSTNAME:           %s", dashIfEmpty(cfg.SMB.Hostname))
	logging.Info("  SMB_USERNAME:           %s", dashIfEmpty(cfg.SMB.Username))
	logging.Info("  SMB_PASSWORD:           %s", maskSecret(cfg.SMB.Password))
	logging.Info("  SMB_SHARE:              %s", cfg.SMB.Share)
	logging.Info("  AUTH_ENABLED:           %v", cfg.AuthEnabled)
	logging.Info("  SESSION_DURATION:       %v", cfg.SessionDuration)
	logging.Info("  LOG_STATIC_FILES:       %v", cfg.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:      %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:              %s", logging.GetLevel())

	return cfg, nil
}

// SMBConfigFromEnv reads the SMB_* variables.
func SMBConfigFromEnv() catalog.SMBConfig {
	return catalog.SMBConfig{
		Enabled:  getEnvBool("SMB_ENABLED", false),
		Hostname: getEnv("SMB_HOSTNAME", ""),
		Username: getEnv("SMB_USERNAME", ""),
		Password: getEnv("SMB_PASSWORD", ""),
		Share:    getEnv("SMB_SHARE", catalog.DefaultSMBShare),
	}
}

func (c *Config) resolvePaths() error {
	var err error
	if c.DatabaseDir, err = filepath.Abs(c.DatabaseDir); err != nil {
		return fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	if c.CacheDir, err = filepath.Abs(c.CacheDir); err != nil {
		return fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	if c.StaticDir, err = filepath.Abs(c.StaticDir); err != nil {
		return fmt.Errorf("failed to resolve static directory path: %w", err)
	}
	if c.ExportDir != "" {
		if c.ExportDir, err = filepath.Abs(c.ExportDir); err != nil {
			return fmt.Errorf("failed to resolve export directory path: %w", err)
		}
	}
	c.DatabasePath = filepath.Join(c.DatabaseDir, DatabaseFileName)
	c.ArtworkDir = filepath.Join(c.CacheDir, artworkDirName)
	return nil
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func maskSecret(s string) string {
	if s == "" {
		return "-"
	}
	return "********"
}
