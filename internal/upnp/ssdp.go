package upnp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sync/errgroup"

	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/metrics"
	"nas-media-catalog/internal/workers"
)

const (
	// SSDPAddress is the IPv4 multicast group and port for SSDP.
	SSDPAddress = "239.255.255.250:1900"

	defaultDiscoveryTimeout = 10 * time.Second
	maxMX                   = 5
	multicastTTL            = 2
	maxDatagram             = 2048
	descriptionTimeout      = 5 * time.Second
	maxDescriptionFetches   = 8
)

// DiscoveryConfig controls a single SSDP search.
type DiscoveryConfig struct {
	// Timeout bounds how long responses are collected. Defaults to 10s.
	Timeout time.Duration
	// Address overrides the SSDP destination, mainly for tests.
	Address string
	// HTTPClient fetches device descriptions. A private client is used when nil.
	HTTPClient *http.Client
}

// ssdpResponse is the subset of M-SEARCH response headers discovery uses.
type ssdpResponse struct {
	Location string
	Server   string
	ST       string
	USN      string
}

// Discover finds media servers on the local network. Devices whose
// description cannot be fetched or parsed are logged and skipped; an empty
// result is not an error.
func Discover(ctx context.Context, cfg DiscoveryConfig) ([]Server, error) {
	start := time.Now()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDiscoveryTimeout
	}
	if cfg.Address == "" {
		cfg.Address = SSDPAddress
	}

	logging.Info("Discovering UPnP media servers via SSDP (timeout %v)...", cfg.Timeout)

	responses, err := search(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		transport := &http.Transport{ResponseHeaderTimeout: descriptionTimeout}
		defer transport.CloseIdleConnections()
		client = &http.Client{Timeout: descriptionTimeout, Transport: transport}
	}

	found := make([]bool, len(responses))
	results := make([]Server, len(responses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers.ForIO(maxDescriptionFetches))
	for i, resp := range responses {
		g.Go(func() error {
			server, err := fetchDescription(gctx, client, resp.Location)
			if err != nil {
				logging.Warn("Error processing device %s: %v", resp.Location, err)
				return nil
			}
			if server == nil {
				logging.Debug("Device at %s is not a media server with a ContentDirectory", resp.Location)
				return nil
			}
			results[i], found[i] = *server, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Keep SSDP response order.
	servers := make([]Server, 0, len(responses))
	for i := range results {
		if found[i] {
			servers = append(servers, results[i])
			logging.Info("Found media server: %s", results[i].Name)
		}
	}

	metrics.UPnPDiscoveryDuration.Observe(time.Since(start).Seconds())
	metrics.UPnPServersDiscovered.Set(float64(len(servers)))
	logging.Info("Discovered %d media servers in %v", len(servers), time.Since(start).Round(time.Millisecond))

	return servers, nil
}

// search sends one M-SEARCH and collects distinct responses until the
// timeout or the context ends.
func search(ctx context.Context, cfg DiscoveryConfig) ([]ssdpResponse, error) {
	dst, err := net.ResolveUDPAddr("udp4", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("resolve SSDP address: %w", err)
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("open SSDP socket: %w", err)
	}
	defer func() { _ = conn.Close() }()

	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastTTL(multicastTTL); err != nil {
		logging.Debug("Could not set SSDP multicast TTL: %v", err)
	}

	if _, err := pc.WriteTo(buildMSearch(cfg.Address, cfg.Timeout), nil, dst); err != nil {
		return nil, fmt.Errorf("send M-SEARCH: %w", err)
	}

	deadline := time.Now().Add(cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set SSDP deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	var (
		responses []ssdpResponse
		seen      = make(map[string]bool)
		buf       = make([]byte, maxDatagram)
	)
	for {
		n, _, src, err := pc.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			if ctx.Err() != nil {
				break
			}
			logging.Debug("Error receiving SSDP response: %v", err)
			continue
		}

		resp, ok := parseSSDPResponse(buf[:n])
		if !ok || seen[resp.Location] {
			continue
		}
		seen[resp.Location] = true
		responses = append(responses, resp)
		logging.Debug("Found UPnP device at %s (from %v)", resp.Location, src)
	}

	if err := ctx.Err(); err != nil && len(responses) == 0 {
		return nil, err
	}
	return responses, nil
}

// buildMSearch renders the M-SEARCH request. MX is the timeout in whole
// seconds, clamped to 1..5.
func buildMSearch(host string, timeout time.Duration) []byte {
	mx := int(timeout / time.Second)
	if mx > maxMX {
		mx = maxMX
	}
	if mx < 1 {
		mx = 1
	}

	var b bytes.Buffer
	b.WriteString("M-SEARCH * HTTP/1.1\r\n")
	fmt.Fprintf(&b, "HOST: %s\r\n", host)
	b.WriteString("MAN: \"ssdp:discover\"\r\n")
	fmt.Fprintf(&b, "MX: %d\r\n", mx)
	fmt.Fprintf(&b, "ST: %s\r\n", MediaServerType)
	b.WriteString("\r\n")
	return b.Bytes()
}

// parseSSDPResponse accepts only "HTTP/1.1 200" replies that carry a LOCATION.
func parseSSDPResponse(data []byte) (ssdpResponse, bool) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() || !strings.HasPrefix(sc.Text(), "HTTP/1.1 200") {
		return ssdpResponse{}, false
	}

	headers := make(map[string]string)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		headers[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	location := headers["LOCATION"]
	if location == "" {
		return ssdpResponse{}, false
	}
	return ssdpResponse{
		Location: location,
		Server:   headers["SERVER"],
		ST:       headers["ST"],
		USN:      headers["USN"],
	}, true
}
