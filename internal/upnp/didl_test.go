package upnp

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "0:03:25", want: 3*time.Minute + 25*time.Second},
		{in: "0:03:25.000", want: 3*time.Minute + 25*time.Second},
		{in: "1:02:03.5", want: time.Hour + 2*time.Minute + 3*time.Second + 500*time.Millisecond},
		{in: "12:00:00.250", want: 12*time.Hour + 250*time.Millisecond},
		{in: "0:00:01.1/4", want: time.Second + 250*time.Millisecond},
		{in: "+0:00:10", want: 10 * time.Second},
		{in: " 0:00:07 ", want: 7 * time.Second},
		{in: "", wantErr: true},
		{in: "3:25", wantErr: true},
		{in: "0:60:00", wantErr: true},
		{in: "0:00:60", wantErr: true},
		{in: "a:00:00", wantErr: true},
		{in: "0:00:01.5e3", wantErr: true},
		{in: "0:00:01.4/4", wantErr: true},
		{in: "0:00:01.1/0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00:00.000"},
		{3*time.Minute + 25*time.Second, "0:03:25.000"},
		{time.Hour + 2*time.Minute + 3*time.Second + 500*time.Millisecond, "1:02:03.500"},
		{-time.Second, "0:00:00.000"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
		if tt.in >= 0 {
			back, err := ParseDuration(tt.want)
			if err != nil || back != tt.in {
				t.Errorf("ParseDuration(FormatDuration(%v)) = %v, %v", tt.in, back, err)
			}
		}
	}
}

func TestMIMEFromProtocolInfo(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"http-get:*:audio/mpeg:DLNA.ORG_PN=MP3;DLNA.ORG_OP=01": "audio/mpeg",
		"http-get:*:Video/MP4:*":                               "video/mp4",
		"http-get:*:video/x-matroska":                          "video/x-matroska",
		"http-get:*":                                           "",
		"":                                                     "",
	}
	for in, want := range tests {
		if got := mimeFromProtocolInfo(in); got != want {
			t.Errorf("mimeFromProtocolInfo(%q) = %q, want %q", in, got, want)
		}
	}
}

const sampleDIDL = `<DIDL-Lite xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"
  xmlns:dc="http://purl.org/dc/elements/1.1/"
  xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/">
  <container id="1$4" parentID="1" childCount="12" restricted="1">
    <dc:title>Alben</dc:title>
    <upnp:class>object.container.storageFolder</upnp:class>
  </container>
  <item id="1$4$1" parentID="1$4" restricted="1">
    <dc:title>  Cafe` + "\u0301" + ` del Mar </dc:title>
    <dc:creator>Various</dc:creator>
    <upnp:album>Chillout</upnp:album>
    <upnp:albumArtURI>http://192.168.178.1:49200/art/1.jpg</upnp:albumArtURI>
    <upnp:class>object.item.audioItem.musicTrack</upnp:class>
    <res protocolInfo="http-get:*:audio/mpeg:DLNA.ORG_PN=MP3" size="4194304" duration="0:04:05.123">http://192.168.178.1:49200/MediaItems/17.mp3</res>
    <res protocolInfo="http-get:*:audio/L16;rate=44100:*">http://192.168.178.1:49200/MediaItems/17.pcm</res>
  </item>
</DIDL-Lite>`

func TestParseDIDL(t *testing.T) {
	t.Parallel()

	containers, items, err := parseDIDL(sampleDIDL)
	if err != nil {
		t.Fatalf("parseDIDL() error = %v", err)
	}

	wantContainers := []Container{{
		ID:         "1$4",
		ParentID:   "1",
		Title:      "Alben",
		Class:      "object.container.storageFolder",
		ChildCount: 12,
	}}
	if diff := cmp.Diff(wantContainers, containers); diff != "" {
		t.Errorf("containers mismatch (-want +got):\n%s", diff)
	}

	wantItems := []Item{{
		ID:          "1$4$1",
		ParentID:    "1$4",
		Title:       "Café del Mar",
		Class:       "object.item.audioItem.musicTrack",
		Artist:      "Various",
		Album:       "Chillout",
		AlbumArtURL: "http://192.168.178.1:49200/art/1.jpg",
		Resources: []Resource{
			{
				URL:          "http://192.168.178.1:49200/MediaItems/17.mp3",
				ProtocolInfo: "http-get:*:audio/mpeg:DLNA.ORG_PN=MP3",
				MIMEType:     "audio/mpeg",
				Size:         4194304,
				Duration:     4*time.Minute + 5*time.Second + 123*time.Millisecond,
			},
			{
				URL:          "http://192.168.178.1:49200/MediaItems/17.pcm",
				ProtocolInfo: "http-get:*:audio/L16;rate=44100:*",
				MIMEType:     "audio/l16",
			},
		},
	}}
	if diff := cmp.Diff(wantItems, items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDIDLInvalid(t *testing.T) {
	t.Parallel()

	if _, _, err := parseDIDL("<DIDL-Lite><item>"); err == nil {
		t.Error("parseDIDL() error = nil, want error for truncated document")
	}
}
