package playlist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// maxLineLength bounds a single playlist line. Long signed URLs from media
// servers exceed bufio's default of 64KiB only in pathological cases.
const maxLineLength = 1 << 20

// Parse reads an M3U or EXTM3U document. Each URL line becomes an Entry;
// a preceding #EXTINF line supplies its duration and title. Other comment
// and directive lines are ignored.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var entries []Entry
	var current Entry
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#EXTINF:"):
			current = parseExtInf(strings.TrimPrefix(line, "#EXTINF:"))
		case strings.HasPrefix(line, "#"):
			continue
		default:
			current.URL = line
			if current.Title == "" {
				current.Title = titleFromURL(line)
			}
			entries = append(entries, current)
			current = Entry{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	return entries, nil
}

// parseExtInf splits "<duration>[ attributes],<title>".
func parseExtInf(s string) Entry {
	var e Entry
	info, title, found := strings.Cut(s, ",")
	if found {
		e.Title = strings.TrimSpace(title)
	}
	// Attributes such as tvg-id="..." may follow the duration.
	durationField, _, _ := strings.Cut(strings.TrimSpace(info), " ")
	if secs, err := strconv.ParseFloat(durationField, 64); err == nil && secs > 0 {
		e.Duration = time.Duration(secs * float64(time.Second))
	}
	return e
}

func titleFromURL(u string) string {
	u, _, _ = strings.Cut(u, "?")
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndexAny(u, `/\`); i >= 0 {
		u = u[i+1:]
	}
	return u
}
