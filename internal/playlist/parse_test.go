package playlist

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []Entry
	}{
		{
			name:  "empty document",
			input: "#EXTM3U\n",
			want:  nil,
		},
		{
			name:  "plain m3u",
			input: "/music/a.mp3\r\n\r\nhttp://nas/b.flac?token=1\n",
			want: []Entry{
				{Title: "a.mp3", URL: "/music/a.mp3"},
				{Title: "b.flac", URL: "http://nas/b.flac?token=1"},
			},
		},
		{
			name:  "extinf with attributes",
			input: "\ufeff#EXTM3U\n#EXTINF:-1 tvg-id=\"x\",Channel One\nhttp://tv/1\n#EXTINF:215.5,Track\nhttp://nas/t.mp3\n",
			want: []Entry{
				{Title: "Channel One", URL: "http://tv/1"},
				{Title: "Track", URL: "http://nas/t.mp3", Duration: 215500 * time.Millisecond},
			},
		},
		{
			name:  "extinf without title",
			input: "#EXTINF:10\nC:\\Music\\song.mp3\n",
			want: []Entry{
				{Title: "song.mp3", URL: "C:\\Music\\song.mp3", Duration: 10 * time.Second},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseWPL(t *testing.T) {
	t.Parallel()

	doc := `<?wpl version="1.0"?>
<smil>
  <head><title> Road Trip </title></head>
  <body>
    <seq>
      <media src="\\nas\Media\Music\first.mp3"/>
      <media src=""/>
      <media src="..\Music\second.flac"/>
    </seq>
  </body>
</smil>`

	title, entries, err := ParseWPL(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseWPL failed: %v", err)
	}
	if title != "Road Trip" {
		t.Errorf("expected title %q, got %q", "Road Trip", title)
	}

	want := []Entry{
		{Title: "first.mp3", URL: "//nas/Media/Music/first.mp3"},
		{Title: "second.flac", URL: "../Music/second.flac"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParseWPLInvalid(t *testing.T) {
	t.Parallel()

	if _, _, err := ParseWPL(strings.NewReader("<smil><head>")); err == nil {
		t.Error("expected error for truncated document")
	}
}
