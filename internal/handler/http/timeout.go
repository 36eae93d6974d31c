package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"market-glance/internal/domain/entity"
	"market-glance/internal/handler/http/respond"
)

// timeoutMessage is shown when a request outlives the handler deadline.
const timeoutMessage = "Could not reach the data provider: request timed out"

// Timeout returns middleware that bounds a whole request. Provider calls carry
// their own deadline, so this only fires when something upstream of them hangs.
// The handler keeps running until it notices the cancelled context, but its
// writes are discarded once the 504 has been sent.
//
// Timeout replaces the request, so it must sit outside tracing.Middleware.
func Timeout(duration time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			r = r.WithContext(ctx)

			done := make(chan struct{})
			panicked := make(chan any, 1)
			tw := &timeoutWriter{w: w, h: make(http.Header)}

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case p := <-panicked:
				// Recover の外側で処理させるため再送出する
				panic(p)
			case <-done:
				return
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.timedOut = true
				if !tw.written {
					respond.JSON(w, http.StatusGatewayTimeout, respond.ErrorBody{
						State: "failure",
						Error: timeoutMessage,
						Kind:  entity.KindTransport,
					})
				}
			}
		})
	}
}

// timeoutWriter buffers headers in its own map and copies them to the real
// writer on the first write. After the deadline the handler goroutine only
// touches that private map, so the 504 path owns w.Header() alone.
type timeoutWriter struct {
	w http.ResponseWriter
	h http.Header

	mu       sync.Mutex
	timedOut bool
	written  bool
}

func (w *timeoutWriter) Header() http.Header { return w.h }

func (w *timeoutWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut || w.written {
		return
	}
	w.writeHeaderLocked(code)
}

func (w *timeoutWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !w.written {
		w.writeHeaderLocked(http.StatusOK)
	}
	return w.w.Write(b)
}

func (w *timeoutWriter) writeHeaderLocked(code int) {
	w.written = true
	dst := w.w.Header()
	for k, vv := range w.h {
		dst[k] = append([]string(nil), vv...)
	}
	w.w.WriteHeader(code)
}
