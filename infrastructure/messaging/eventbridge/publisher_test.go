package eventbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"mirage-engine/domain/events"
	pkgerrors "mirage-engine/pkg/errors"
)

// stubBus answers PutEvents from a queue of canned outputs
type stubBus struct {
	inputs  []*awseventbridge.PutEventsInput
	outputs []*awseventbridge.PutEventsOutput
	err     error
}

func (s *stubBus) PutEvents(_ context.Context, params *awseventbridge.PutEventsInput, _ ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	s.inputs = append(s.inputs, params)
	if s.err != nil {
		return nil, s.err
	}
	out := s.outputs[0]
	if len(s.outputs) > 1 {
		s.outputs = s.outputs[1:]
	}
	return out, nil
}

// unencodable refuses to marshal, standing in for a corrupt payload
type unencodable struct {
	events.BaseEvent
}

func (unencodable) MarshalJSON() ([]byte, error) {
	return nil, errors.New("no encoding")
}

func tickAt(n int) events.DomainEvent {
	return events.BaseEvent{
		AggregateID: "session-1",
		EventType:   "session.tick_completed",
		Timestamp:   time.Unix(int64(n), 0),
		Version:     1,
	}
}

func acceptedOutput(n int) *awseventbridge.PutEventsOutput {
	entries := make([]types.PutEventsResultEntry, n)
	for i := range entries {
		entries[i] = types.PutEventsResultEntry{EventId: aws.String("ok")}
	}
	return &awseventbridge.PutEventsOutput{Entries: entries}
}

func TestPublishBatch_SplitsAtBatchLimit(t *testing.T) {
	bus := &stubBus{outputs: []*awseventbridge.PutEventsOutput{acceptedOutput(10), acceptedOutput(2)}}
	publisher := NewEventBridgePublisher(bus, "bus", zap.NewNop())

	batch := make([]events.DomainEvent, 12)
	for i := range batch {
		batch[i] = tickAt(i)
	}
	require.NoError(t, publisher.PublishBatch(context.Background(), batch))

	require.Len(t, bus.inputs, 2)
	assert.Len(t, bus.inputs[0].Entries, 10)
	assert.Len(t, bus.inputs[1].Entries, 2)
}

func TestPublish_TransportFailureIsRetryable(t *testing.T) {
	bus := &stubBus{err: errors.New("throttled")}
	publisher := NewEventBridgePublisher(bus, "bus", zap.NewNop())

	err := publisher.Publish(context.Background(), tickAt(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrEventPublishFailed)
	assert.True(t, pkgerrors.IsRetryable(err))
}

func TestPublishBatch_FailureLogNamesTheRejectedEvent(t *testing.T) {
	// the middle event never reaches the bus, so the rejection at bus
	// index 1 belongs to the third domain event
	rejected := events.BaseEvent{
		AggregateID: "session-2",
		EventType:   "session.completed",
		Timestamp:   time.Unix(3, 0),
		Version:     1,
	}
	batch := []events.DomainEvent{
		tickAt(1),
		unencodable{},
		rejected,
	}

	out := acceptedOutput(2)
	out.FailedEntryCount = 1
	out.Entries[1] = types.PutEventsResultEntry{
		ErrorCode:    aws.String("InternalFailure"),
		ErrorMessage: aws.String("try again"),
	}
	bus := &stubBus{outputs: []*awseventbridge.PutEventsOutput{out}}

	core, logs := observer.New(zap.ErrorLevel)
	publisher := NewEventBridgePublisher(bus, "bus", zap.New(core))

	err := publisher.PublishBatch(context.Background(), batch)
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrEventPublishFailed)

	// only the marshalable events went out
	require.Len(t, bus.inputs, 1)
	assert.Len(t, bus.inputs[0].Entries, 2)

	entries := logs.FilterMessage("failed to publish event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "session.completed", entries[0].ContextMap()["event_type"])
}
