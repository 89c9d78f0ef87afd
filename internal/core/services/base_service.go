package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/middleware"
	"github.com/SscSPs/escrow_ledger_app/internal/platform/metrics"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Monitor portssvc.SecurityMonitor
	Metrics *metrics.Metrics
	Clock   func() time.Time
}

// ServiceOption is a functional option for configuring the shared parts of a service
type ServiceOption func(*BaseService)

// WithMonitor sets the security monitor notified after each committed mutation
func WithMonitor(monitor portssvc.SecurityMonitor) ServiceOption {
	return func(s *BaseService) {
		s.Monitor = monitor
	}
}

// WithMetrics sets the Prometheus collectors
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *BaseService) {
		s.Metrics = m
	}
}

// WithClock overrides the wall clock
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *BaseService) {
		s.Clock = clock
	}
}

func (s *BaseService) apply(options []ServiceOption) {
	for _, option := range options {
		option(s)
	}
}

// Now returns the service time in UTC at storage precision.
func (s *BaseService) Now() time.Time {
	if s.Clock != nil {
		return domain.NormalizeTime(s.Clock())
	}
	return domain.Now()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// Notify hands event to the security monitor. It must only be called after commit.
func (s *BaseService) Notify(ctx context.Context, event domain.MonitorEvent) {
	if s.Monitor == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.Now()
	}
	s.Monitor.Notify(context.WithoutCancel(ctx), event)
}

// RiskInputs collects the caller's risk signals from ctx.
func (s *BaseService) RiskInputs(ctx context.Context) domain.RiskInputs {
	return domain.RiskInputs{
		HighRiskGeography: middleware.IsHighRiskGeography(ctx),
		OccurredAt:        s.Now(),
	}
}
