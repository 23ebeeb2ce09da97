package upnp

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"nas-media-catalog/internal/metrics"
)

const (
	unknownDeviceName  = "Unknown Device"
	maxDescriptionSize = 1 << 20
)

type deviceDescription struct {
	XMLName xml.Name `xml:"root"`
	URLBase string   `xml:"URLBase"`
	Device  device   `xml:"device"`
}

type device struct {
	DeviceType   string    `xml:"deviceType"`
	FriendlyName string    `xml:"friendlyName"`
	Manufacturer string    `xml:"manufacturer"`
	ModelName    string    `xml:"modelName"`
	UDN          string    `xml:"UDN"`
	Services     []service `xml:"serviceList>service"`
	Devices      []device  `xml:"deviceList>device"`
}

type service struct {
	ServiceType string `xml:"serviceType"`
	ServiceID   string `xml:"serviceId"`
	ControlURL  string `xml:"controlURL"`
}

// fetchDescription downloads and parses the device description at location.
// It returns nil without error when the device is not a usable media server.
func fetchDescription(ctx context.Context, client *http.Client, location string) (*Server, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.UPnPRequestsTotal.WithLabelValues("description", status).Inc()
		metrics.UPnPRequestDuration.WithLabelValues("description").Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build description request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch description: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch description: status %d", resp.StatusCode)
	}

	server, err := parseDescription(io.LimitReader(resp.Body, maxDescriptionSize), location)
	if err != nil {
		return nil, err
	}
	status = "success"
	return server, nil
}

// parseDescription decodes a device description document. Embedded devices
// are searched depth-first for the first MediaServer with a ContentDirectory.
func parseDescription(r io.Reader, location string) (*Server, error) {
	var desc deviceDescription
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&desc); err != nil {
		return nil, fmt.Errorf("parse description: %w", err)
	}

	base := location
	if u := strings.TrimSpace(desc.URLBase); u != "" {
		base = u
	}

	return findMediaServer(desc.Device, base, location)
}

func findMediaServer(d device, base, location string) (*Server, error) {
	if strings.Contains(d.DeviceType, "MediaServer") {
		for _, svc := range d.Services {
			if !strings.Contains(svc.ServiceType, "ContentDirectory") {
				continue
			}
			control := strings.TrimSpace(svc.ControlURL)
			if control == "" {
				continue
			}
			controlURL, err := resolveURL(base, control)
			if err != nil {
				return nil, fmt.Errorf("resolve control URL %q: %w", control, err)
			}

			name := strings.TrimSpace(d.FriendlyName)
			if name == "" {
				name = unknownDeviceName
			}
			return &Server{
				Name:                name,
				UDN:                 strings.TrimSpace(d.UDN),
				DeviceType:          d.DeviceType,
				Manufacturer:        strings.TrimSpace(d.Manufacturer),
				ModelName:           strings.TrimSpace(d.ModelName),
				Location:            location,
				ContentDirectoryURL: controlURL,
			}, nil
		}
	}

	for _, child := range d.Devices {
		server, err := findMediaServer(child, base, location)
		if err != nil || server != nil {
			return server, err
		}
	}
	return nil, nil
}

func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
