package producer

import (
	"context"
	"time"

	"leavedesk/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultBatchSize    = 50
)

// MessageWriter is the slice of kafka-go's Writer the relay needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Relay drains the transactional outbox into Kafka. Rows that fail to
// publish are marked for backoff retry, never dropped, so lifecycle events
// reach subscribers at least once.
type Relay struct {
	outbox    kafka.OutboxRepository
	writer    MessageWriter
	logger    *zap.Logger
	batchSize int
}

func NewRelay(outbox kafka.OutboxRepository, writer MessageWriter, logger ...*zap.Logger) *Relay {
	l := zap.L().Named("kafka.relay")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kafka.relay")
	}
	return &Relay{
		outbox:    outbox,
		writer:    writer,
		logger:    l,
		batchSize: defaultBatchSize,
	}
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context, pollInterval time.Duration) {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.DrainOnce(ctx); err != nil {
				r.logger.Error("drain outbox failed", zap.Error(err))
			}
		}
	}
}

// DrainOnce publishes one batch of pending rows. Per-row failures are
// recorded on the row and do not stop the batch.
func (r *Relay) DrainOnce(ctx context.Context) error {
	pending, err := r.outbox.ListPending(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	r.logger.Debug("draining pending outbox events", zap.Int("count", len(pending)))

	for _, event := range pending {
		if err := r.publish(ctx, event); err != nil {
			r.logger.Error("publish outbox event failed",
				zap.String("outbox_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.String("topic", event.Topic),
				zap.Error(err),
			)
			_ = r.outbox.MarkFailed(ctx, event.ID, err.Error())
			continue
		}

		if err := r.outbox.MarkSent(ctx, event.ID); err != nil {
			r.logger.Error("mark outbox sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		r.logger.Info("outbox event sent",
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("topic", event.Topic),
		)
	}

	return nil
}

// publish keys the message on the leave request id so per-request ordering
// survives partitioning.
func (r *Relay) publish(ctx context.Context, event kafka.OutboxEvent) error {
	return r.writer.WriteMessages(ctx, kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
		},
	})
}
