package upnp

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"

	"nas-media-catalog/internal/mediatypes"
)

type didlLite struct {
	XMLName    xml.Name     `xml:"DIDL-Lite"`
	Containers []didlObject `xml:"container"`
	Items      []didlObject `xml:"item"`
}

// didlObject matches dc:, upnp: and default-namespace children by local name.
type didlObject struct {
	ID          string    `xml:"id,attr"`
	ParentID    string    `xml:"parentID,attr"`
	ChildCount  string    `xml:"childCount,attr"`
	Title       string    `xml:"title"`
	Class       string    `xml:"class"`
	Creator     string    `xml:"creator"`
	Artist      string    `xml:"artist"`
	Album       string    `xml:"album"`
	AlbumArtURI []string  `xml:"albumArtURI"`
	Res         []didlRes `xml:"res"`
}

type didlRes struct {
	ProtocolInfo string `xml:"protocolInfo,attr"`
	Size         string `xml:"size,attr"`
	Duration     string `xml:"duration,attr"`
	URL          string `xml:",chardata"`
}

// parseDIDL decodes a DIDL-Lite document into containers and items.
func parseDIDL(doc string) ([]Container, []Item, error) {
	var d didlLite
	dec := xml.NewDecoder(strings.NewReader(doc))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&d); err != nil {
		return nil, nil, fmt.Errorf("parse DIDL-Lite: %w", err)
	}

	containers := make([]Container, 0, len(d.Containers))
	for _, c := range d.Containers {
		count, _ := strconv.Atoi(strings.TrimSpace(c.ChildCount))
		containers = append(containers, Container{
			ID:         c.ID,
			ParentID:   c.ParentID,
			Title:      cleanText(c.Title),
			Class:      strings.TrimSpace(c.Class),
			ChildCount: count,
		})
	}

	items := make([]Item, 0, len(d.Items))
	for _, it := range d.Items {
		item := Item{
			ID:       it.ID,
			ParentID: it.ParentID,
			Title:    cleanText(it.Title),
			Class:    strings.TrimSpace(it.Class),
			Artist:   cleanText(it.Artist),
			Album:    cleanText(it.Album),
		}
		if item.Artist == "" {
			item.Artist = cleanText(it.Creator)
		}
		for _, art := range it.AlbumArtURI {
			if art = strings.TrimSpace(art); art != "" {
				item.AlbumArtURL = art
				break
			}
		}
		for _, r := range it.Res {
			item.Resources = append(item.Resources, parseRes(r))
		}
		items = append(items, item)
	}

	return containers, items, nil
}

func parseRes(r didlRes) Resource {
	res := Resource{
		URL:          strings.TrimSpace(r.URL),
		ProtocolInfo: r.ProtocolInfo,
		MIMEType:     mimeFromProtocolInfo(r.ProtocolInfo),
	}
	if size, err := strconv.ParseInt(strings.TrimSpace(r.Size), 10, 64); err == nil && size > 0 {
		res.Size = size
	}
	if d, err := ParseDuration(r.Duration); err == nil {
		res.Duration = d
	}
	return res
}

// mimeFromProtocolInfo returns the third field of a protocolInfo
// ("http-get:*:audio/mpeg:DLNA.ORG_PN=MP3").
func mimeFromProtocolInfo(info string) string {
	parts := strings.SplitN(info, ":", 4)
	if len(parts) < 3 {
		return ""
	}
	return mediatypes.NormalizeMIME(parts[2])
}

// cleanText trims and NFC-normalizes DIDL text so decomposed titles from
// some servers compare and sort like their composed forms.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ParseDuration parses a DIDL-Lite duration of the form H+:MM:SS[.F+] or
// H+:MM:SS[.F0/F1].
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	hours, err := strconv.Atoi(strings.TrimPrefix(fields[0], "+"))
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid hours in duration %q", s)
	}
	minutes, err := strconv.Atoi(fields[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minutes in duration %q", s)
	}

	secPart, fracPart, hasFrac := strings.Cut(fields[2], ".")
	seconds, err := strconv.Atoi(secPart)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid seconds in duration %q", s)
	}

	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if !hasFrac || fracPart == "" {
		return d, nil
	}

	if num, den, ok := strings.Cut(fracPart, "/"); ok {
		n, err1 := strconv.Atoi(num)
		m, err2 := strconv.Atoi(den)
		if err1 != nil || err2 != nil || m <= 0 || n < 0 || n >= m {
			return 0, fmt.Errorf("invalid fraction in duration %q", s)
		}
		return d + time.Duration(n)*time.Second/time.Duration(m), nil
	}

	if strings.Trim(fracPart, "0123456789") != "" {
		return 0, fmt.Errorf("invalid fraction in duration %q", s)
	}
	// Nanosecond precision; extra digits are dropped.
	if len(fracPart) > 9 {
		fracPart = fracPart[:9]
	}
	ns, _ := strconv.Atoi(fracPart + strings.Repeat("0", 9-len(fracPart)))
	return d + time.Duration(ns), nil
}

// FormatDuration renders d as H:MM:SS.fff, the DIDL-Lite form.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
}
