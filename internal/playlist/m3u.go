package playlist

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// MIMEType is the content type playlist downloads are served with.
	MIMEType = "audio/x-mpegurl"

	// FileExtension is appended to every suggested filename.
	FileExtension = ".vlc.m3u"

	// UnknownTitle replaces titles that are empty after sanitization.
	UnknownTitle = "Unknown Title"

	defaultFilename = "playlist"
)

// header follows the #PLAYLIST line of every generated document.
var header = []string{
	"# TO OPEN IN VLC:",
	"# • Right-click this file → Open With → VLC",
	"# • OR drag this file into VLC window",
	"# • OR use Terminal: open -a VLC filename.m3u",
	"# (Double-clicking opens Apple Music, not VLC!)",
}

// titleReplacer applies the substitutions in order. " - " is listed first so
// it wins over any later rule touching the same bytes.
var titleReplacer = strings.NewReplacer(
	" - ", " • ",
	",", ";",
	":", ".",
	"#", "No.",
)

// Entry is a single playable track in a playlist.
type Entry struct {
	Title string
	// URL is written exactly as given.
	URL string
	// Duration of zero or less is written as -1 (unknown).
	Duration time.Duration
}

// SanitizeTitle rewrites title so it can be placed after the comma of an
// #EXTINF line. Control characters become spaces, so a title never spans
// more than one line.
func SanitizeTitle(title string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, titleReplacer.Replace(title))
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownTitle
	}
	return s
}

// Generate returns the EXTM3U document for the named playlist.
func Generate(name string, entries []Entry) string {
	var buf bytes.Buffer
	writeDocument(&buf, name, entries)
	return buf.String()
}

// Write streams the EXTM3U document for the named playlist to w.
func Write(w io.Writer, name string, entries []Entry) error {
	buf := &bytes.Buffer{}
	writeDocument(buf, name, entries)
	_, err := io.Copy(w, buf)
	return err
}

func writeDocument(buf *bytes.Buffer, name string, entries []Entry) {
	buf.WriteString("#EXTM3U\n")
	buf.WriteString("#PLAYLIST:")
	buf.WriteString(singleLine(name))
	buf.WriteByte('\n')
	for _, line := range header {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	for _, e := range entries {
		buf.WriteString("#EXTINF:")
		buf.WriteString(formatDuration(e.Duration))
		buf.WriteByte(',')
		buf.WriteString(SanitizeTitle(e.Title))
		buf.WriteByte('\n')
		buf.WriteString(e.URL)
		buf.WriteByte('\n')
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-1"
	}
	// A known length never collapses to 0, which players read as a real value.
	return strconv.FormatInt(max(1, int64(math.Round(d.Seconds()))), 10)
}

// singleLine replaces line breaks so the name stays on the #PLAYLIST line.
func singleLine(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, s)
}

// SuggestedFilename returns a filesystem-safe download name for the
// playlist. Anything other than letters, digits, space, hyphen and
// underscore is replaced with an underscore.
func SuggestedFilename(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == ' ', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	safe = strings.TrimRight(safe, " ")
	if safe == "" {
		safe = defaultFilename
	}
	return safe + FileExtension
}
