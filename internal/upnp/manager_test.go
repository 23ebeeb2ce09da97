package upnp

import (
	"context"
	"errors"
	"testing"
)

func servers(names ...string) []Server {
	out := make([]Server, 0, len(names))
	for _, n := range names {
		out = append(out, Server{Name: n, ContentDirectoryURL: "http://" + n + "/cd"})
	}
	return out
}

func TestSelectServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		servers []Server
		want    string
		query   string
		wantErr error
	}{
		{name: "no servers", wantErr: ErrNoServers},
		{name: "first by default", servers: servers("MiniDLNA", "Plex"), want: "MiniDLNA"},
		{name: "prefers fritz", servers: servers("MiniDLNA", "FRITZ!Box 7590 Mediaserver"), want: "FRITZ!Box 7590 Mediaserver"},
		{name: "prefers avm", servers: servers("Plex", "AVM Mediaserver"), want: "AVM Mediaserver"},
		{name: "name match ignores case", servers: servers("MiniDLNA", "Plex Media Server"), query: "plex", want: "Plex Media Server"},
		{name: "name match beats fritz", servers: servers("FRITZ!Box", "Plex"), query: "Plex", want: "Plex"},
		{name: "name not found", servers: servers("MiniDLNA"), query: "jellyfin", wantErr: ErrServerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectServer(tt.servers, tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SelectServer() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectServer() error = %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("SelectServer() = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func fakeDiscover(result []Server, err error) DiscoverFunc {
	return func(context.Context, DiscoveryConfig) ([]Server, error) {
		return result, err
	}
}

func TestManagerConnect(t *testing.T) {
	t.Parallel()

	m := NewManager(DiscoveryConfig{}, fakeDiscover(servers("MiniDLNA", "FRITZ!Box"), nil))

	if m.Connected() || m.Info() != nil {
		t.Fatal("new manager reports a connection")
	}

	got, err := m.Connect(context.Background(), "")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got.Name != "FRITZ!Box" {
		t.Errorf("Connect() = %q, want FRITZ!Box", got.Name)
	}

	current, ok := m.Current()
	if !ok || current.Name != "FRITZ!Box" {
		t.Errorf("Current() = %+v, %v", current, ok)
	}
	if len(m.Servers()) != 2 {
		t.Errorf("Servers() = %d, want 2", len(m.Servers()))
	}

	info := m.Info()
	if info == nil || info.Type != ServerType || info.ContentDirectoryURL != "http://FRITZ!Box/cd" {
		t.Errorf("Info() = %+v", info)
	}

	m.Disconnect()
	if m.Connected() {
		t.Error("Connected() = true after Disconnect")
	}
}

func TestManagerConnectFailureKeepsCurrent(t *testing.T) {
	t.Parallel()

	m := NewManager(DiscoveryConfig{}, fakeDiscover(servers("MiniDLNA"), nil))
	if _, err := m.Connect(context.Background(), ""); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if _, err := m.Connect(context.Background(), "jellyfin"); !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("Connect(jellyfin) error = %v, want ErrServerNotFound", err)
	}

	current, ok := m.Current()
	if !ok || current.Name != "MiniDLNA" {
		t.Errorf("Current() = %+v, %v; want previous server kept", current, ok)
	}
}

func TestManagerDiscoverError(t *testing.T) {
	t.Parallel()

	boom := errors.New("socket closed")
	m := NewManager(DiscoveryConfig{}, fakeDiscover(nil, boom))

	if _, err := m.Connect(context.Background(), ""); !errors.Is(err, boom) {
		t.Errorf("Connect() error = %v, want %v", err, boom)
	}
	if _, err := m.Connect(context.Background(), ""); errors.Is(err, ErrNoServers) {
		t.Errorf("Connect() error = %v, discovery error should surface", err)
	}
}

func TestManagerReturnsCopies(t *testing.T) {
	t.Parallel()

	m := NewManager(DiscoveryConfig{}, fakeDiscover(servers("A", "B"), nil))
	if _, err := m.Discover(context.Background()); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	list := m.Servers()
	list[0].Name = "mutated"
	if m.Servers()[0].Name != "A" {
		t.Error("Servers() exposes internal slice")
	}
}
