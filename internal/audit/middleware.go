package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/assetflow/assetflow/internal/authz"
	"github.com/assetflow/assetflow/internal/platform/httpx"
)

// Recorder wraps handler chains and emits exactly one Record per request.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger}
}

// Middleware audits the inner chain. A panic below is recovered just long
// enough to emit the record and answer the caller with a generic 500, then
// re-raised unchanged so process-level reporting still sees it. Sink
// failures are logged and never change the request outcome.
func (rec *Recorder) Middleware(perm authz.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			var panicked any
			func() {
				defer func() {
					panicked = recover()
				}()
				next.ServeHTTP(ww, r)
			}()

			status := ww.Status()
			record := Record{
				ID:         uuid.NewString(),
				Timestamp:  start,
				RequestID:  chimw.GetReqID(r.Context()),
				Method:     r.Method,
				Path:       r.URL.Path,
				Action:     string(perm.Action),
				Resource:   string(perm.Resource),
				Status:     status,
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   clientIP(r),
				UserAgent:  r.UserAgent(),
			}
			if panicked != nil {
				record.Error = fmt.Sprint(panicked)
				if status == 0 {
					httpx.Error(ww, http.StatusInternalServerError, "Internal server error")
					record.Status = http.StatusInternalServerError
				}
			} else if status == 0 {
				record.Status = http.StatusOK
			}

			rec.emit(r, record)

			if panicked != nil {
				panic(panicked)
			}
		})
	}
}

func (rec *Recorder) emit(r *http.Request, record Record) {
	if rec.sink == nil {
		return
	}
	// The record must survive a client disconnect; detach from the request's
	// cancellation before writing.
	ctx := context.WithoutCancel(r.Context())
	if err := rec.sink.Write(ctx, record); err != nil && rec.logger != nil {
		rec.logger.Error("audit sink write failed", slog.Any("error", err))
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
