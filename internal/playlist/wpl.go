package playlist

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// wpl is the Windows Media Player playlist format.
type wpl struct {
	XMLName xml.Name `xml:"smil"`
	Head    wplHead  `xml:"head"`
	Body    wplBody  `xml:"body"`
}

type wplHead struct {
	Title string `xml:"title"`
}

type wplBody struct {
	Seq wplSeq `xml:"seq"`
}

type wplSeq struct {
	Media []wplMedia `xml:"media"`
}

type wplMedia struct {
	Src string `xml:"src,attr"`
}

// ParseWPL reads a WPL document and returns its title and entries.
// Sources keep their original form; Windows separators are normalized to
// forward slashes.
func ParseWPL(r io.Reader) (string, []Entry, error) {
	var doc wpl
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return "", nil, fmt.Errorf("decoding wpl: %w", err)
	}

	entries := make([]Entry, 0, len(doc.Body.Seq.Media))
	for _, m := range doc.Body.Seq.Media {
		src := strings.TrimSpace(m.Src)
		if src == "" {
			continue
		}
		src = strings.ReplaceAll(src, `\`, "/")
		entries = append(entries, Entry{
			Title: titleFromURL(src),
			URL:   src,
		})
	}
	return strings.TrimSpace(doc.Head.Title), entries, nil
}
