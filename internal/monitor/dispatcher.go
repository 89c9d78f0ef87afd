// Package monitor is the in-process security monitor. It receives
// notifications of committed mutations, applies a velocity rule and fans
// events out to sinks without ever blocking the caller.
package monitor

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/platform/metrics"
)

const defaultBufferSize = 1024

// Sink delivers monitor events to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event domain.MonitorEvent) error
}

// Dispatcher buffers events and delivers them from a single worker.
type Dispatcher struct {
	events   chan domain.MonitorEvent
	velocity *VelocityRule
	sinks    []Sink
	logger   *slog.Logger
	metrics  *metrics.Metrics
	dropped  atomic.Uint64
}

var _ portssvc.SecurityMonitor = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher. velocity may be nil to disable flagging.
func NewDispatcher(logger *slog.Logger, bufferSize int, velocity *VelocityRule, m *metrics.Metrics, sinks ...Sink) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		events:   make(chan domain.MonitorEvent, bufferSize),
		velocity: velocity,
		sinks:    sinks,
		logger:   logger.With(slog.String("component", "security_monitor")),
		metrics:  m,
	}
}

// Notify enqueues event, dropping it when the buffer is full.
func (d *Dispatcher) Notify(ctx context.Context, event domain.MonitorEvent) {
	select {
	case d.events <- event:
	default:
		d.dropped.Add(1)
		d.metrics.MonitorDropped()
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Run delivers events until ctx is cancelled, then drains what is already buffered.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Security monitor started", slog.Int("sinks", len(d.sinks)))
	for {
		select {
		case event := <-d.events:
			d.handle(ctx, event)
		case <-ctx.Done():
			d.drain()
			d.logger.Info("Security monitor stopped", slog.Uint64("dropped", d.Dropped()))
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	ctx := context.Background()
	for {
		select {
		case event := <-d.events:
			d.handle(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, event domain.MonitorEvent) {
	if d.velocity != nil {
		if flagged, reason := d.velocity.Evaluate(event); flagged {
			event.Flagged = true
			event.FlagReason = reason
			d.metrics.MonitorFlagged()
		}
	}
	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, event); err != nil {
			d.logger.Warn("Security monitor sink failed",
				slog.String("sink", sink.Name()),
				slog.String("action", string(event.Action)),
				slog.String("resource_id", event.ResourceID),
				slog.String("error", err.Error()))
		}
	}
}
