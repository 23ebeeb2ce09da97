package mediatypes

import (
	"testing"
)

func TestFileTypeFromMIME(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime string
		want FileType
	}{
		{"audio/mpeg", FileTypeAudio},
		{"AUDIO/FLAC", FileTypeAudio},
		{"video/mp4", FileTypeVideo},
		{"video/x-matroska; charset=binary", FileTypeVideo},
		{"image/jpeg", FileTypeUnknown},
		{"", FileTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			t.Parallel()
			if got := FileTypeFromMIME(tt.mime); got != tt.want {
				t.Errorf("FileTypeFromMIME(%q) = %v, want %v", tt.mime, got, tt.want)
			}
		})
	}
}

func TestIsSupportedMIME(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime string
		want bool
	}{
		{"audio/mpeg", true},
		{"audio/mp4", true},
		{"video/x-msvideo", true},
		{" Video/MP4 ", true},
		{"video/mpeg", false},
		{"image/png", false},
		{"application/octet-stream", false},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			t.Parallel()
			if got := IsSupportedMIME(tt.mime); got != tt.want {
				t.Errorf("IsSupportedMIME(%q) = %v, want %v", tt.mime, got, tt.want)
			}
		})
	}
}

func TestGetMimeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".mp3", "audio/mpeg"},
		{".mkv", "video/x-matroska"},
		{".m3u", "audio/x-mpegurl"},
		{".xyz", "application/octet-stream"},
		{"", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			if got := GetMimeType(tt.ext); got != tt.want {
				t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestKnownExtensionsAreSupported(t *testing.T) {
	t.Parallel()

	for ext, mime := range MimeTypes {
		if PlaylistExtensions[ext] {
			continue
		}
		if !IsSupportedMIME(mime) {
			t.Errorf("extension %s maps to unsupported MIME type %s", ext, mime)
		}
	}
}

func TestParseFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  FileType
		ok    bool
	}{
		{"audio", FileTypeAudio, true},
		{" Video ", FileTypeVideo, true},
		{"unknown", FileTypeUnknown, true},
		{"image", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseFileType(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFileType(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsPlaylistFile(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".m3u", ".M3U8", ".wpl"} {
		if !IsPlaylistFile(ext) {
			t.Errorf("expected %s to be a playlist", ext)
		}
	}
	if IsPlaylistFile(".mp3") {
		t.Error("expected .mp3 not to be a playlist")
	}
}
