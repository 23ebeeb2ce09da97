package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/metrics"
)

// Upstream opens a resource on the media server.
type Upstream interface {
	Fetch(ctx context.Context, action, rawURL string, header http.Header) (*http.Response, error)
}

// forwardedRequestHeaders are passed to the media server so seeking works.
var forwardedRequestHeaders = []string{"Range", "If-Range"}

// copiedResponseHeaders are returned to the client unchanged.
var copiedResponseHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Last-Modified",
	"ETag",
	"transferMode.dlna.org",
	"contentFeatures.dlna.org",
}

// UpstreamError reports a media server that could not serve a stream.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("media server: %v", e.Err)
	}
	return fmt.Sprintf("media server returned status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Proxy streams rawURL from the media server to w. Range requests are
// forwarded so players can seek. When the media server fails before any
// byte is sent, an *UpstreamError is returned and nothing is written to w;
// the caller picks the response. Failures after the headers went out are
// returned as the streaming sentinels (ErrClientGone, ErrWriteTimeout).
func Proxy(w http.ResponseWriter, r *http.Request, up Upstream, rawURL string, config Config) error {
	header := make(http.Header)
	for _, name := range forwardedRequestHeaders {
		if v := r.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}

	resp, err := up.Fetch(r.Context(), "stream", rawURL, header)
	if err != nil {
		if r.Context().Err() != nil {
			metrics.StreamErrorsTotal.WithLabelValues("client_gone").Inc()
			return ErrClientGone
		}
		metrics.StreamErrorsTotal.WithLabelValues("upstream").Inc()
		return &UpstreamError{StatusCode: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent, http.StatusRequestedRangeNotSatisfiable:
	default:
		metrics.StreamErrorsTotal.WithLabelValues("upstream_status").Inc()
		return &UpstreamError{StatusCode: resp.StatusCode}
	}

	for _, name := range copiedResponseHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(resp.StatusCode)

	if r.Method == http.MethodHead || resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		return nil
	}

	metrics.StreamsActive.Inc()
	defer metrics.StreamsActive.Dec()

	tw := NewTimeoutWriter(r.Context(), w, config)
	defer tw.Close()

	_, err = io.Copy(tw, resp.Body)

	written, duration := tw.Stats()
	metrics.StreamBytesTotal.Add(float64(written))
	logging.Debug("Stream of %s ended: %d bytes in %v", rawURL, written, duration)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrClientGone):
		metrics.StreamErrorsTotal.WithLabelValues("client_gone").Inc()
	case errors.Is(err, ErrWriteTimeout):
		metrics.StreamErrorsTotal.WithLabelValues("timeout").Inc()
	default:
		metrics.StreamErrorsTotal.WithLabelValues("copy").Inc()
	}
	return err
}
