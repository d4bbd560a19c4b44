package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu     sync.Mutex
	keys   []string
	events []*eventbus.Envelope
	err    error
}

func (h *recordingHandler) RoutingKeys() []string { return h.keys }

func (h *recordingHandler) Handle(_ context.Context, event *eventbus.Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func envelopeJSON(t *testing.T, routingKey string, payload any) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	b, err := json.Marshal(eventbus.Envelope{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "Task",
		RoutingKey:    routingKey,
		OccurredAt:    time.Now().UTC(),
		Metadata:      domain.EventMetadata{CorrelationID: "corr-1", UserID: uuid.New()},
		Payload:       body,
	})
	require.NoError(t, err)
	return b
}

func TestRegistry_DispatchRunsAllHandlers(t *testing.T) {
	registry := eventbus.NewRegistry(nil)
	failing := &recordingHandler{keys: []string{"tasks.task.created"}, err: errors.New("boom")}
	ok := &recordingHandler{keys: []string{"tasks.task.created", "tasks.occurrence.completed"}}
	registry.Register(failing)
	registry.Register(ok)

	err := registry.Dispatch(context.Background(), &eventbus.Envelope{RoutingKey: "tasks.task.created"})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, ok.count())

	assert.Equal(t, []string{"tasks.occurrence.completed", "tasks.task.created"}, registry.RoutingKeys())
	assert.NoError(t, registry.Dispatch(context.Background(), &eventbus.Envelope{RoutingKey: "unknown"}))
}

func TestInProcessBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessBus(nil)
	handler := &recordingHandler{keys: []string{"tasks.occurrence.completed"}}
	bus.Register(handler)

	payload := envelopeJSON(t, "tasks.occurrence.completed", map[string]string{"task_id": "abc"})
	require.NoError(t, bus.Publish(context.Background(), "tasks.occurrence.completed", payload))
	require.Equal(t, 1, handler.count())

	var body map[string]string
	require.NoError(t, handler.events[0].DecodePayload(&body))
	assert.Equal(t, "abc", body["task_id"])
	assert.Equal(t, "corr-1", handler.events[0].Metadata.CorrelationID)
}

func TestInProcessBus_MalformedPayloadIsDropped(t *testing.T) {
	bus := eventbus.NewInProcessBus(nil)
	handler := &recordingHandler{keys: []string{"x"}}
	bus.Register(handler)

	assert.NoError(t, bus.Publish(context.Background(), "x", []byte("not json")))
	assert.Zero(t, handler.count())
}

func TestInProcessBus_HandlerErrorIsReturned(t *testing.T) {
	bus := eventbus.NewInProcessBus(nil)
	bus.Register(&recordingHandler{keys: []string{"x"}, err: errors.New("handler failed")})

	err := bus.Publish(context.Background(), "x", envelopeJSON(t, "x", struct{}{}))
	assert.EqualError(t, err, "handler failed")
}

type flakyPublisher struct {
	calls int
	err   error
}

func (p *flakyPublisher) Publish(context.Context, string, []byte) error {
	p.calls++
	return p.err
}

func (p *flakyPublisher) Close() error { return nil }

func TestBreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &flakyPublisher{err: errors.New("broker down")}
	pub := eventbus.NewBreakerPublisher(next, eventbus.BreakerConfig{
		FailureThreshold: 2,
		Timeout:          time.Hour,
		MaxRequests:      1,
	}, nil)

	ctx := context.Background()
	assert.EqualError(t, pub.Publish(ctx, "k", nil), "broker down")
	assert.EqualError(t, pub.Publish(ctx, "k", nil), "broker down")
	assert.Equal(t, "open", pub.State())

	err := pub.Publish(ctx, "k", nil)
	assert.ErrorIs(t, err, eventbus.ErrPublisherUnavailable)
	assert.Equal(t, 2, next.calls)
}

func TestBreakerPublisher_PassesThroughSuccess(t *testing.T) {
	next := &flakyPublisher{}
	pub := eventbus.NewBreakerPublisher(next, eventbus.DefaultBreakerConfig(), nil)

	require.NoError(t, pub.Publish(context.Background(), "k", []byte("{}")))
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "closed", pub.State())
	assert.NoError(t, pub.Close())
}

func TestNoopPublisher(t *testing.T) {
	pub := eventbus.NewNoopPublisher(nil)
	assert.NoError(t, pub.Publish(context.Background(), "k", []byte("{}")))
	assert.NoError(t, pub.Close())
}
