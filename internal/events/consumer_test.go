package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcknowledger struct {
	acks    int
	nacks   int
	rejects int
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acks++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.rejects++
	return nil
}

func newTestConsumer() *Consumer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Consumer{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

func delivery(ack amqp.Acknowledger, routingKey string, body []byte) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: ack,
		RoutingKey:   routingKey,
		Body:         body,
	}
}

func TestDispatchRoutesByKey(t *testing.T) {
	c := newTestConsumer()

	var got ContentCreatedEvent
	c.handlers[ContentCreated] = func(ctx context.Context, body []byte) error {
		return json.Unmarshal(body, &got)
	}

	payload, err := json.Marshal(ContentCreatedEvent{PostID: "p1", UserID: "u1", Content: "hello"})
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	c.dispatch(context.Background(), delivery(ack, ContentCreated, payload))

	assert.Equal(t, "p1", got.PostID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, 1, ack.acks)
}

func TestDispatchAcksOnHandlerError(t *testing.T) {
	// A permanently failing message must not be requeued forever by the
	// consumer itself; dead-lettering is the broker's job.
	c := newTestConsumer()
	c.handlers[ContentDeleted] = func(ctx context.Context, body []byte) error {
		return errors.New("boom")
	}

	ack := &fakeAcknowledger{}
	c.dispatch(context.Background(), delivery(ack, ContentDeleted, []byte(`{}`)))

	assert.Equal(t, 1, ack.acks)
	assert.Zero(t, ack.nacks)
	assert.Zero(t, ack.rejects)
}

func TestDispatchShieldsHandlerFromShutdownCancellation(t *testing.T) {
	// Stopping the consume loop must not fail the store calls of a message
	// already handed to its handler; that failure would be acked and the
	// message lost.
	c := newTestConsumer()

	var handlerCtxErr error
	c.handlers[ContentCreated] = func(ctx context.Context, body []byte) error {
		handlerCtxErr = ctx.Err()
		return handlerCtxErr
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ack := &fakeAcknowledger{}
	c.dispatch(ctx, delivery(ack, ContentCreated, []byte(`{"postId":"p1"}`)))

	assert.NoError(t, handlerCtxErr, "handler must run to completion during shutdown")
	assert.Equal(t, 1, ack.acks)
}

func TestDispatchDiscardsUnknownRoutingKey(t *testing.T) {
	c := newTestConsumer()

	ack := &fakeAcknowledger{}
	c.dispatch(context.Background(), delivery(ack, "content.liked", []byte(`{}`)))

	assert.Equal(t, 1, ack.acks)
}

func TestDispatchDuplicateDeliveryReachesHandlerTwice(t *testing.T) {
	// At-least-once semantics: the client redelivers duplicates verbatim and
	// relies on handler idempotence, it does not dedupe.
	c := newTestConsumer()

	calls := 0
	c.handlers[ContentCreated] = func(ctx context.Context, body []byte) error {
		calls++
		return nil
	}

	ack := &fakeAcknowledger{}
	msg := delivery(ack, ContentCreated, []byte(`{"postId":"p1"}`))
	c.dispatch(context.Background(), msg)
	c.dispatch(context.Background(), msg)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, ack.acks)
}
