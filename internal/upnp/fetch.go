package upnp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"nas-media-catalog/internal/metrics"
)

// Fetch issues a GET for a resource served by a media server, copying the
// given request headers (Range, for example). Transport errors and 5xx
// responses are retried. The response body is not read; the caller closes it.
// action labels metrics, e.g. "stream" or "artwork".
func (c *Client) Fetch(ctx context.Context, action, rawURL string, header http.Header) (*http.Response, error) {
	var out *http.Response
	err := withRetry(ctx, action, c.retry, func(ctx context.Context) error {
		start := time.Now()
		status := "error"
		defer func() {
			metrics.UPnPRequestsTotal.WithLabelValues(action, status).Inc()
			metrics.UPnPRequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
		}()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("build %s request: %w", action, err)
		}
		for key, values := range header {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}

		resp, err := c.streamClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retryable(fmt.Errorf("%s request: %w", action, err))
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			_ = resp.Body.Close()
			return retryable(fmt.Errorf("%s request failed with status %d", action, resp.StatusCode))
		}

		status = "success"
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
