package monitor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/monitor"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type collectingSink struct {
	mu     sync.Mutex
	events []domain.MonitorEvent
	err    error
}

func (s *collectingSink) Name() string { return "collect" }

func (s *collectingSink) Deliver(ctx context.Context, event domain.MonitorEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *collectingSink) Events() []domain.MonitorEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.MonitorEvent(nil), s.events...)
}

func entryEvent(id string, accounts ...string) domain.MonitorEvent {
	return domain.MonitorEvent{
		Kind:         domain.MonitorLedgerEntry,
		Action:       domain.ActionEntryCreated,
		ResourceID:   id,
		ActorID:      "user-1",
		AccountIDs:   accounts,
		Amount:       100,
		CurrencyCode: "USD",
		OccurredAt:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifyDropsWhenBufferIsFull(t *testing.T) {
	d := monitor.NewDispatcher(discardLogger, 2, nil, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.Notify(context.Background(), entryEvent("e"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked with no worker running")
	}
	assert.Equal(t, uint64(3), d.Dropped())
}

func TestRunDeliversBufferedEventsOnShutdown(t *testing.T) {
	sink := &collectingSink{}
	d := monitor.NewDispatcher(discardLogger, 10, nil, nil, sink)
	for i := 0; i < 3; i++ {
		d.Notify(context.Background(), entryEvent("e"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))

	assert.Len(t, sink.Events(), 3)
	assert.Zero(t, d.Dropped())
}

func TestRunDeliversWhileRunning(t *testing.T) {
	sink := &collectingSink{}
	d := monitor.NewDispatcher(discardLogger, 10, nil, nil, sink)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- d.Run(ctx) }()

	d.Notify(context.Background(), entryEvent("e-1", "acc-1"))
	assert.Eventually(t, func() bool { return len(sink.Events()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-stopped)
}

func TestSinkFailureDoesNotStopDelivery(t *testing.T) {
	failing := &collectingSink{err: errors.New("broker unavailable")}
	healthy := &collectingSink{}
	d := monitor.NewDispatcher(discardLogger, 10, nil, nil, failing, healthy)
	d.Notify(context.Background(), entryEvent("e-1"))
	d.Notify(context.Background(), entryEvent("e-2"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))

	assert.Len(t, failing.Events(), 2)
	assert.Len(t, healthy.Events(), 2)
}

func TestDispatcherFlagsHighVelocity(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rule := monitor.NewVelocityRule(2, time.Minute).WithClock(func() time.Time { return now })
	sink := &collectingSink{}
	d := monitor.NewDispatcher(discardLogger, 10, rule, nil, sink)
	for i := 0; i < 3; i++ {
		d.Notify(context.Background(), entryEvent("e", "acc-1", "acc-2"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))

	events := sink.Events()
	require.Len(t, events, 3)
	assert.False(t, events[0].Flagged)
	assert.False(t, events[1].Flagged)
	assert.True(t, events[2].Flagged)
	assert.Contains(t, events[2].FlagReason, "acc-1")
}

func TestVelocityRuleWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rule := monitor.NewVelocityRule(1, time.Minute).WithClock(func() time.Time { return now })

	flagged, _ := rule.Evaluate(entryEvent("e", "acc-1"))
	assert.False(t, flagged)

	now = now.Add(30 * time.Second)
	flagged, reason := rule.Evaluate(entryEvent("e", "acc-1"))
	assert.True(t, flagged)
	assert.NotEmpty(t, reason)

	// both earlier events fall out of the window
	now = now.Add(2 * time.Minute)
	flagged, _ = rule.Evaluate(entryEvent("e", "acc-1"))
	assert.False(t, flagged)

	// other accounts are tracked separately
	flagged, _ = rule.Evaluate(entryEvent("e", "acc-2"))
	assert.False(t, flagged)
}

func TestVelocityRuleDisabled(t *testing.T) {
	rule := monitor.NewVelocityRule(0, time.Minute)
	for i := 0; i < 5; i++ {
		flagged, _ := rule.Evaluate(entryEvent("e", "acc-1"))
		assert.False(t, flagged)
	}
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) Enqueue(distinctID string, event string, properties map[string]any) {
	m.Called(distinctID, event, properties)
}

func TestPosthogSink(t *testing.T) {
	client := new(mockEnqueuer)
	client.On("Enqueue", "user-1", "escrow_ledger.LEDGER_ENTRY_CREATED", mock.MatchedBy(func(props map[string]any) bool {
		return props["resource_id"] == "e-1" && props["currency"] == "USD" && props["amount"] == int64(100)
	})).Once()

	err := monitor.NewPosthogSink(client).Deliver(context.Background(), entryEvent("e-1"))

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestPosthogSinkUsesSystemActorForJobs(t *testing.T) {
	client := new(mockEnqueuer)
	client.On("Enqueue", domain.SystemActorID, mock.Anything, mock.Anything).Once()

	event := entryEvent("e-1")
	event.ActorID = ""
	require.NoError(t, monitor.NewPosthogSink(client).Deliver(context.Background(), event))
	client.AssertExpectations(t)
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func TestKafkaSink(t *testing.T) {
	writer := new(mockWriter)
	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 && string(msgs[0].Key) == "e-1"
	})).Return(nil).Once()

	require.NoError(t, monitor.NewKafkaSink(writer).Deliver(context.Background(), entryEvent("e-1")))
	writer.AssertExpectations(t)
}

func TestKafkaSinkReturnsWriterError(t *testing.T) {
	writer := new(mockWriter)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available")).Once()

	err := monitor.NewKafkaSink(writer).Deliver(context.Background(), entryEvent("e-1"))
	assert.EqualError(t, err, "leader not available")
}

func TestLogSink(t *testing.T) {
	sink := monitor.NewLogSink(discardLogger)
	assert.Equal(t, "log", sink.Name())
	assert.NoError(t, sink.Deliver(context.Background(), entryEvent("e-1")))
}
