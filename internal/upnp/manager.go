package upnp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/metrics"
)

// SelectServer picks a server from servers. A non-empty name selects the
// first server whose name contains it, ignoring case. Without a name,
// servers that look like a FRITZ!Box (name containing "fritz" or "avm") are
// preferred, then the first server.
func SelectServer(servers []Server, name string) (Server, error) {
	if len(servers) == 0 {
		return Server{}, ErrNoServers
	}

	if name = strings.TrimSpace(name); name != "" {
		want := strings.ToLower(name)
		for _, s := range servers {
			if strings.Contains(strings.ToLower(s.Name), want) {
				return s, nil
			}
		}
		return Server{}, fmt.Errorf("%w: %q", ErrServerNotFound, name)
	}

	for _, s := range servers {
		lower := strings.ToLower(s.Name)
		if strings.Contains(lower, "fritz") || strings.Contains(lower, "avm") {
			logging.Info("Found Fritz Box media server: %s", s.Name)
			return s, nil
		}
	}

	logging.Info("No Fritz Box found, using first available server: %s", servers[0].Name)
	return servers[0], nil
}

// DiscoverFunc performs SSDP discovery. Discover is the default.
type DiscoverFunc func(ctx context.Context, cfg DiscoveryConfig) ([]Server, error)

// Manager owns the discovered servers and the connected server.
type Manager struct {
	cfg      DiscoveryConfig
	discover DiscoverFunc

	mu      sync.RWMutex
	servers []Server
	current *Server
}

// NewManager creates a Manager that discovers with cfg. A nil discover uses Discover.
func NewManager(cfg DiscoveryConfig, discover DiscoverFunc) *Manager {
	if discover == nil {
		discover = Discover
	}
	return &Manager{cfg: cfg, discover: discover}
}

// Discover runs a fresh discovery and remembers the result. The connected
// server is not changed.
func (m *Manager) Discover(ctx context.Context) ([]Server, error) {
	servers, err := m.discover(ctx, m.cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.servers = append([]Server(nil), servers...)
	m.mu.Unlock()

	return servers, nil
}

// Connect discovers servers and connects to the one SelectServer picks for
// name. On failure the previous connection is kept.
func (m *Manager) Connect(ctx context.Context, name string) (Server, error) {
	servers, err := m.Discover(ctx)
	if err != nil {
		return Server{}, fmt.Errorf("discover media servers: %w", err)
	}

	server, err := SelectServer(servers, name)
	if err != nil {
		logging.Error("Could not connect to media server: %v", err)
		return Server{}, err
	}

	m.SetCurrent(server)
	logging.Info("Connected to media server: %s (%s)", server.Name, server.ContentDirectoryURL)
	return server, nil
}

// SetCurrent makes server the connected server.
func (m *Manager) SetCurrent(server Server) {
	m.mu.Lock()
	m.current = &server
	m.mu.Unlock()
	metrics.UPnPConnected.Set(1)
}

// Disconnect forgets the connected server.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	metrics.UPnPConnected.Set(0)
}

// Current returns the connected server and whether there is one.
func (m *Manager) Current() (Server, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Server{}, false
	}
	return *m.current, true
}

// Connected reports whether a server is connected.
func (m *Manager) Connected() bool {
	_, ok := m.Current()
	return ok
}

// Servers returns the servers found by the last discovery.
func (m *Manager) Servers() []Server {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Server(nil), m.servers...)
}

// Info describes the connected server, or returns nil when there is none.
func (m *Manager) Info() *ServerInfo {
	server, ok := m.Current()
	if !ok {
		return nil
	}
	info := server.Info()
	return &info
}
