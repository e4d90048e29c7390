// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithSession returns a logger scoped to a booking session.
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("session_id", sessionID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// LookupEvent logs an address lookup outcome.
func (l *Logger) LookupEvent(sessionID, postcode, status string, findCalls int) {
	l.Info("address_lookup",
		slog.String("session_id", sessionID),
		slog.String("postcode", postcode),
		slog.String("status", status),
		slog.Int("find_calls", findCalls),
	)
}

// SubmissionEvent logs a booking submission attempt.
func (l *Logger) SubmissionEvent(sessionID string, delivered bool, via string, err error) {
	if err != nil {
		l.Error("booking_submission",
			slog.String("session_id", sessionID),
			slog.Bool("delivered", delivered),
			slog.String("via", via),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Info("booking_submission",
		slog.String("session_id", sessionID),
		slog.Bool("delivered", delivered),
		slog.String("via", via),
	)
}

// PaymentEvent logs payment intent creation and verification outcomes.
func (l *Logger) PaymentEvent(event, reference string, err error) {
	if err != nil {
		l.Warn("payment_event",
			slog.String("event", event),
			slog.String("reference", reference),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Info("payment_event",
		slog.String("event", event),
		slog.String("reference", reference),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
