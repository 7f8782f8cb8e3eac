package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nikbrunner/xbm/internal/logger"
)

// recorder tracks what a handler sent back. Streamed answers flush many
// times, so flushes are counted to tell them apart from plain responses.
type recorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	flushes int
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *recorder) FlushError() error {
	w.flushes++
	return http.NewResponseController(w.ResponseWriter).Flush()
}

func (w *recorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Log returns a middleware that logs one line per request. Server errors
// log at error level, client errors at warn, and paths in quiet at debug.
func Log(loggerClient logger.Logger, quiet ...string) func(http.Handler) http.Handler {
	quietPaths := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &recorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			fields := []zap.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", rec.status),
				logger.Int("bytes", rec.bytes),
				logger.Duration("duration", time.Since(start)),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			}
			if rec.flushes > 0 {
				fields = append(fields, logger.Int("flushes", rec.flushes))
			}

			switch {
			case rec.status >= http.StatusInternalServerError:
				loggerClient.Error("http_request", fields...)
			case rec.status >= http.StatusBadRequest:
				loggerClient.Warn("http_request", fields...)
			case quietPaths[r.URL.Path]:
				loggerClient.Debug("http_request", fields...)
			default:
				loggerClient.Info("http_request", fields...)
			}
		})
	}
}
