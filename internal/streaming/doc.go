/*
Package streaming proxies media streams from the media server to HTTP
clients.

Players such as VLC read a stream slowly and may stop reading without
closing the connection. TimeoutWriter wraps the response writer so each
write is bounded by WriteTimeout and a stream with no progress for
IdleTimeout is ended:

	tw := streaming.NewTimeoutWriter(r.Context(), w, streaming.DefaultConfig())
	defer tw.Close()
	_, err := io.Copy(tw, body)

Proxy does the whole job for a media item: it forwards Range headers to the
media server, copies the content headers back and streams the body through
a TimeoutWriter.

	err := streaming.Proxy(w, r, client, file.Path, streaming.DefaultConfig())
	var upstream *streaming.UpstreamError
	if errors.As(err, &upstream) {
		http.Error(w, "Media server unavailable", http.StatusBadGateway)
	}

Errors after the response started are one of ErrClientGone, ErrWriteTimeout
or ErrStreamCanceled and can be checked with errors.Is.
*/
package streaming
