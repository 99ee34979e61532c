package producer_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"leavedesk/internal/events"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/messaging/kafka/producer"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

type fakeOutboxRepo struct {
	listPendingFn func(ctx context.Context, limit int) ([]kafka.OutboxEvent, error)
	sent          []string
	failed        map[string]string
}

func (f *fakeOutboxRepo) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepo) Create(ctx context.Context, event kafka.OutboxEvent) error { return nil }

func (f *fakeOutboxRepo) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	if f.listPendingFn != nil {
		return f.listPendingFn(ctx, limit)
	}
	return nil, nil
}

func (f *fakeOutboxRepo) MarkSent(ctx context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[id] = reason
	return nil
}

type fakeWriter struct {
	writeFn  func(ctx context.Context, msgs ...kafkago.Message) error
	messages []kafkago.Message
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if f.writeFn != nil {
		if err := f.writeFn(ctx, msgs...); err != nil {
			return err
		}
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func pendingEvent(eventType string) kafka.OutboxEvent {
	return kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: "leave_request",
		AggregateID:   uuid.New().String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       []byte(`{"status":"APPROVED"}`),
		Status:        kafka.OutboxStatusPending,
	}
}

func TestRelay_DrainOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes pending rows and marks them sent", func(t *testing.T) {
		e1 := pendingEvent(events.LeaveRequestCreated)
		e2 := pendingEvent(events.LeaveRequestApproved)
		repo := &fakeOutboxRepo{
			listPendingFn: func(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
				return []kafka.OutboxEvent{e1, e2}, nil
			},
		}
		writer := &fakeWriter{}
		relay := producer.NewRelay(repo, writer)

		err := relay.DrainOnce(ctx)

		assert.NoError(t, err)
		assert.Equal(t, []string{e1.ID, e2.ID}, repo.sent)
		assert.Len(t, writer.messages, 2)

		msg := writer.messages[0]
		assert.Equal(t, events.LeaveLifecycleTopic, msg.Topic)
		// Keyed on the leave request id so one request's events stay ordered.
		assert.Equal(t, e1.AggregateID, string(msg.Key))
		assert.Equal(t, "event_type", msg.Headers[0].Key)
		assert.Equal(t, events.LeaveRequestCreated, string(msg.Headers[0].Value))
	})

	t.Run("publish failure marks the row failed and continues", func(t *testing.T) {
		bad := pendingEvent(events.LeaveRequestCreated)
		good := pendingEvent(events.LeaveRequestCancelled)
		repo := &fakeOutboxRepo{
			listPendingFn: func(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
				return []kafka.OutboxEvent{bad, good}, nil
			},
		}
		writer := &fakeWriter{
			writeFn: func(ctx context.Context, msgs ...kafkago.Message) error {
				if string(msgs[0].Key) == bad.AggregateID {
					return errors.New("broker unavailable")
				}
				return nil
			},
		}
		relay := producer.NewRelay(repo, writer)

		err := relay.DrainOnce(ctx)

		assert.NoError(t, err)
		assert.Equal(t, "broker unavailable", repo.failed[bad.ID])
		assert.Equal(t, []string{good.ID}, repo.sent)
	})

	t.Run("empty outbox writes nothing", func(t *testing.T) {
		repo := &fakeOutboxRepo{}
		writer := &fakeWriter{}
		relay := producer.NewRelay(repo, writer)

		assert.NoError(t, relay.DrainOnce(ctx))
		assert.Empty(t, writer.messages)
	})

	t.Run("negative list error surfaces", func(t *testing.T) {
		repo := &fakeOutboxRepo{
			listPendingFn: func(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
				return nil, errors.New("db down")
			},
		}
		relay := producer.NewRelay(repo, &fakeWriter{})

		assert.Error(t, relay.DrainOnce(ctx))
	})
}
