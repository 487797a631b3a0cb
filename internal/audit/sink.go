package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sink receives finished audit records. Write failures are reported to the
// recorder, which logs them; they never alter the request outcome.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// SlogSink emits records as structured log lines.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a sink writing to the given logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Write logs the record at info level, or warn when an error is attached.
func (s *SlogSink) Write(_ context.Context, rec Record) error {
	if s.logger == nil {
		return errors.New("audit: slog sink not initialised")
	}
	attrs := []any{
		slog.String("audit_id", rec.ID),
		slog.String("request_id", rec.RequestID),
		slog.String("method", rec.Method),
		slog.String("path", rec.Path),
		slog.String("action", rec.Action),
		slog.String("resource", rec.Resource),
		slog.Int("status", rec.Status),
		slog.Int64("duration_ms", rec.DurationMs),
		slog.String("client_ip", rec.ClientIP),
		slog.String("user_agent", rec.UserAgent),
	}
	if rec.Error != "" {
		attrs = append(attrs, slog.String("error", rec.Error))
		s.logger.Warn("audit", attrs...)
		return nil
	}
	s.logger.Info("audit", attrs...)
	return nil
}

// PostgresSink persists records into audit_records.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink returns a sink backed by the given pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Write inserts the record.
func (s *PostgresSink) Write(ctx context.Context, rec Record) error {
	if s == nil || s.pool == nil {
		return errors.New("audit: postgres sink not initialised")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_records
			(id, occurred_at, request_id, method, path, action, resource, status, duration_ms, client_ip, user_agent, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''))`,
		rec.ID, rec.Timestamp, rec.RequestID, rec.Method, rec.Path, rec.Action, rec.Resource,
		rec.Status, rec.DurationMs, rec.ClientIP, rec.UserAgent, rec.Error)
	return err
}

// MultiSink fans a record out to several sinks. Every sink is attempted;
// errors are joined.
type MultiSink []Sink

// Write delivers the record to each sink in order.
func (m MultiSink) Write(ctx context.Context, rec Record) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
