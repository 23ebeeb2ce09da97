package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

func TestResponseWriterRecordsStatusAndBytes(t *testing.T) {
	t.Parallel()

	rw := newResponseWriter(httptest.NewRecorder())
	if rw.statusCode != http.StatusOK || rw.wroteHeader {
		t.Fatalf("new writer = %d, %v, want 200 and no header written", rw.statusCode, rw.wroteHeader)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want the first WriteHeader (404)", rw.statusCode)
	}

	if _, err := rw.Write([]byte("not found")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if rw.bytesWritten != int64(len("not found")) {
		t.Errorf("bytesWritten = %d, want %d", rw.bytesWritten, len("not found"))
	}
}

func TestSanitizeLogField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "/api/playlists", "/api/playlists"},
		{"newline forging", "/x\n127.0.0.1 GET /admin", "/x 127.0.0.1 GET /admin"},
		{"carriage return", "a\rb", "a b"},
		{"ansi escape", "\x1b[31mred", "[31mred"},
		{"null and delete", "a\x00b\x7fc", "abc"},
		{"tab kept", "a\tb", "a\tb"},
		{"unicode kept", "Café", "Café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := sanitizeLogField(tt.in); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatW3C(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/api/media?type=audio", nil)
	r.RemoteAddr = "192.168.178.20:51234"
	r.Header.Set("User-Agent", `VLC/3.0.20 LibVLC/3.0.20`)

	rw := newResponseWriter(httptest.NewRecorder())
	rw.Header().Set("Content-Encoding", "gzip")
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("12345"))

	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	got := formatW3C(now, r, rw, 42*time.Millisecond)
	want := `2025-02-03 04:05:06 192.168.178.20 GET /api/media type=audio 200 5 42 gzip - "VLC/3.0.20 LibVLC/3.0.20" -`
	if got != want {
		t.Errorf("formatW3C() =\n%s\nwant\n%s", got, want)
	}

	stream := httptest.NewRequest(http.MethodGet, "/api/media/7/stream", nil)
	stream.RemoteAddr = "192.168.178.20:51235"
	stream.Header.Set("Range", "bytes=0-1023")
	partial := newResponseWriter(httptest.NewRecorder())
	partial.WriteHeader(http.StatusPartialContent)

	got = formatW3C(now, stream, partial, time.Millisecond)
	want = `2025-02-03 04:05:06 192.168.178.20 GET /api/media/7/stream - 206 0 1 - bytes=0-1023 - -`
	if got != want {
		t.Errorf("formatW3C(range) =\n%s\nwant\n%s", got, want)
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "10.0.0.5:1234", nil, "10.0.0.5"},
		{"ipv6 remote addr", "[::1]:1234", nil, "::1"},
		{"forwarded for", "10.0.0.5:1234", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"real ip", "10.0.0.5:1234", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	t.Parallel()

	quiet := DefaultLoggingConfig()
	quiet.LogHealthChecks = false
	quiet.SkipPaths = []string{"/metrics"}

	tests := []struct {
		path   string
		config LoggingConfig
		want   bool
	}{
		{"/api/playlists", DefaultLoggingConfig(), false},
		{"/healthz", DefaultLoggingConfig(), false},
		{"/healthz", quiet, true},
		{"/health/detailed", quiet, true},
		{"/metrics", quiet, true},
		{"/static/app.JS", DefaultLoggingConfig(), true},
		{"/api/playlists/1/download", DefaultLoggingConfig(), false},
	}

	for _, tt := range tests {
		if got := shouldSkip(tt.path, tt.config); got != tt.want {
			t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoggerPassesResponseThrough(t *testing.T) {
	t.Parallel()

	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/playlists", nil))

	if w.Code != http.StatusCreated || w.Body.String() != "created" {
		t.Errorf("response = %d %q, want 201 created", w.Code, w.Body.String())
	}
}

func gunzip(t *testing.T, data []byte) string {
	t.Helper()

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("reading gzip body: %v", err)
	}
	return string(out)
}

func TestCompression(t *testing.T) {
	t.Parallel()

	large := strings.Repeat(`{"name":"Road Trip"},`, 200)
	m3u := "#EXTM3U\n" + strings.Repeat("#EXTINF:180,Song\nhttp://nas/1.mp3\n", 200)

	tests := []struct {
		name           string
		contentType    string
		body           string
		acceptEncoding string
		rangeHeader    string
		wantGzip       bool
	}{
		{"large json", "application/json", large, "gzip, deflate", "", true},
		{"json with charset", "application/json; charset=utf-8", large, "gzip", "", true},
		{"small json", "application/json", `{"ok":true}`, "gzip", "", false},
		{"client without gzip", "application/json", large, "", "", false},
		{"m3u playlist", "audio/x-mpegurl", m3u, "gzip", "", false},
		{"media stream", "audio/mpeg", strings.Repeat("x", 4096), "gzip", "", false},
		{"range request", "application/json", large, "gzip", "bytes=0-10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = io.WriteString(w, tt.body)
			}))

			r := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			if tt.acceptEncoding != "" {
				r.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			if tt.rangeHeader != "" {
				r.Header.Set("Range", tt.rangeHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			gotGzip := w.Header().Get("Content-Encoding") == "gzip"
			if gotGzip != tt.wantGzip {
				t.Fatalf("Content-Encoding gzip = %v, want %v", gotGzip, tt.wantGzip)
			}

			body := w.Body.String()
			if gotGzip {
				body = gunzip(t, w.Body.Bytes())
				if w.Header().Get("Vary") != "Accept-Encoding" {
					t.Errorf("Vary = %q, want Accept-Encoding", w.Header().Get("Vary"))
				}
			}
			if body != tt.body {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.body))
			}
		})
	}
}

func TestCompressionKeepsStatusAndMultipleWrites(t *testing.T) {
	t.Parallel()

	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusAccepted)
		for i := 0; i < 100; i++ {
			_, _ = io.WriteString(w, "scan started, please wait\n")
		}
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
	if got := gunzip(t, w.Body.Bytes()); got != strings.Repeat("scan started, please wait\n", 100) {
		t.Errorf("decompressed body has %d bytes, want %d", len(got), 100*len("scan started, please wait\n"))
	}
}

// deadlineRecorder records write deadlines set through a ResponseController.
type deadlineRecorder struct {
	*httptest.ResponseRecorder
	deadline time.Time
}

func (d *deadlineRecorder) SetWriteDeadline(t time.Time) error {
	d.deadline = t
	return nil
}

func TestCompressionPassesWriteDeadlines(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).SetWriteDeadline(want); err != nil {
			t.Errorf("SetWriteDeadline() error = %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3"))
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/media/7/stream", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	w := &deadlineRecorder{ResponseRecorder: httptest.NewRecorder()}
	handler.ServeHTTP(w, r)

	if !w.deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", w.deadline, want)
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/api", "/api"},
		{"/api/playlists", "/api/playlists"},
		{"/api/playlists/42", "/api/playlists/{id}"},
		{"/api/playlists/42/download", "/api/playlists/{id}/download"},
		{"/api/media/7/stream", "/api/media/{id}/stream"},
		{"/api/upnp/discover", "/api/upnp/discover"},
		{"/static/js/vendor/lib/app.js", "/static/js/vendor/lib/{path}"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	var called int
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusTeapot)
	}))

	for _, path := range []string{"/api/playlists/1", "/metrics", "/healthz"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusTeapot {
			t.Errorf("%s status = %d, want 418", path, w.Code)
		}
	}
	if called != 3 {
		t.Errorf("handler called %d times, want 3", called)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	handler := RateLimit(RateLimitConfig{RequestLimit: 2, WindowSize: time.Minute})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
		r.RemoteAddr = "192.168.178.20:40000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		codes = append(codes, w.Code)

		if w.Code == http.StatusTooManyRequests && w.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q, want 60", w.Header().Get("Retry-After"))
		}
	}

	want := []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d status = %d, want %d", i+1, codes[i], want[i])
		}
	}

	// Another client has its own budget.
	r := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	r.RemoteAddr = "192.168.178.21:40000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusAccepted {
		t.Errorf("other client status = %d, want 202", w.Code)
	}
}

func BenchmarkNormalizePath(b *testing.B) {
	for i := 0; i < b.N; i++ {
		normalizePath("/api/playlists/1234/download")
	}
}
