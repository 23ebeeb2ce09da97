package streaming

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"nas-media-catalog/internal/logging"
)

var (
	// ErrWriteTimeout indicates a write, or the whole stream, took too long.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates the client went away before the stream ended.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates the writer was closed or went idle.
	ErrStreamCanceled = errors.New("stream canceled")
)

// Config controls a TimeoutWriter.
type Config struct {
	// WriteTimeout bounds a single write to the client.
	WriteTimeout time.Duration
	// IdleTimeout ends the stream when nothing was written for this long.
	IdleTimeout time.Duration
	// MaxDuration bounds the whole stream; zero means unlimited.
	MaxDuration time.Duration
	// ChunkSize splits large writes, flushing after each; zero disables it.
	ChunkSize int
}

// DefaultConfig suits audio and video proxied over a LAN.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ChunkSize:    64 * 1024,
	}
}

// TimeoutWriter wraps an http.ResponseWriter so that a stalled client
// cannot hold a proxied stream open forever.
type TimeoutWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	flusher http.Flusher
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	config  Config

	mu           sync.Mutex
	startTime    time.Time
	lastWrite    time.Time
	bytesWritten int64
	closed       bool
	idle         bool
	deadlines    bool
}

// NewTimeoutWriter returns a writer bound to ctx, usually the request context.
// Close must be called to release its idle watcher.
func NewTimeoutWriter(ctx context.Context, w http.ResponseWriter, config Config) *TimeoutWriter {
	var (
		writerCtx context.Context
		cancel    context.CancelFunc
	)
	if config.MaxDuration > 0 {
		writerCtx, cancel = context.WithTimeout(ctx, config.MaxDuration)
	} else {
		writerCtx, cancel = context.WithCancel(ctx)
	}

	now := time.Now()
	tw := &TimeoutWriter{
		w:         w,
		rc:        http.NewResponseController(w),
		parent:    ctx,
		ctx:       writerCtx,
		cancel:    cancel,
		config:    config,
		startTime: now,
		lastWrite: now,
	}
	if flusher, ok := w.(http.Flusher); ok {
		tw.flusher = flusher
	}

	if config.IdleTimeout > 0 {
		go tw.watchIdle()
	}
	return tw
}

// Write implements io.Writer.
func (tw *TimeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	closed := tw.closed
	tw.mu.Unlock()
	if closed {
		return 0, ErrStreamCanceled
	}

	if err := tw.ctx.Err(); err != nil {
		return 0, tw.contextError()
	}

	if tw.config.ChunkSize <= 0 || len(p) <= tw.config.ChunkSize {
		return tw.writeWithTimeout(p)
	}

	written := 0
	for len(p) > 0 {
		if tw.ctx.Err() != nil {
			return written, tw.contextError()
		}

		size := min(tw.config.ChunkSize, len(p))
		n, err := tw.writeWithTimeout(p[:size])
		written += n
		if err != nil {
			return written, err
		}
		p = p[size:]

		if tw.flusher != nil {
			tw.flusher.Flush()
		}
	}
	return written, nil
}

// writeWithTimeout never returns while the underlying Write still holds p,
// so callers such as io.Copy may reuse the buffer. When the connection
// supports deadlines the stalled write is unblocked by the deadline;
// otherwise the wait lasts until the underlying writer gives up.
func (tw *TimeoutWriter) writeWithTimeout(p []byte) (int, error) {
	type writeResult struct {
		n   int
		err error
	}

	if tw.config.WriteTimeout > 0 {
		if err := tw.rc.SetWriteDeadline(time.Now().Add(tw.config.WriteTimeout)); err == nil {
			tw.mu.Lock()
			tw.deadlines = true
			tw.mu.Unlock()
		}
	}

	done := make(chan writeResult, 1)
	go func() {
		n, err := tw.w.Write(p)
		done <- writeResult{n, err}
	}()

	var timeout <-chan time.Time
	if tw.config.WriteTimeout > 0 {
		timer := time.NewTimer(tw.config.WriteTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var abort error
	select {
	case res := <-done:
		if res.err == nil {
			tw.mu.Lock()
			tw.lastWrite = time.Now()
			tw.bytesWritten += int64(res.n)
			tw.mu.Unlock()
		}
		return res.n, res.err

	case <-timeout:
		abort = ErrWriteTimeout
	case <-tw.ctx.Done():
		abort = tw.contextError()
	}

	tw.cancel()
	<-done
	return 0, abort
}

func (tw *TimeoutWriter) watchIdle() {
	ticker := time.NewTicker(tw.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tw.mu.Lock()
			idle := time.Since(tw.lastWrite)
			closed := tw.closed
			if !closed && idle > tw.config.IdleTimeout {
				tw.idle = true
			}
			expired := tw.idle
			tw.mu.Unlock()

			if closed {
				return
			}
			if expired {
				logging.Warn("Stream idle timeout exceeded: %v", idle)
				tw.cancel()
				return
			}

		case <-tw.ctx.Done():
			return
		}
	}
}

// contextError maps the reason the writer's context ended to a sentinel.
func (tw *TimeoutWriter) contextError() error {
	switch {
	case tw.parent.Err() != nil:
		return ErrClientGone
	case errors.Is(tw.ctx.Err(), context.DeadlineExceeded):
		return ErrWriteTimeout
	default:
		return ErrStreamCanceled
	}
}

// Close stops the writer and clears any write deadline it set. It is safe
// to call more than once.
func (tw *TimeoutWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if !tw.closed {
		tw.closed = true
		tw.cancel()
		if tw.deadlines {
			_ = tw.rc.SetWriteDeadline(time.Time{})
		}
	}
	return nil
}

// Stats returns the bytes written so far and the time since creation.
func (tw *TimeoutWriter) Stats() (bytesWritten int64, duration time.Duration) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.bytesWritten, time.Since(tw.startTime)
}
