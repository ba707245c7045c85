// Package kafka publishes outbox events to Kafka.
package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/aexfood/orders/internal/domain/outbox"
)

// DefaultTopic receives order events when no topic is configured.
const DefaultTopic = "aex.orders.events"

var _ outbox.Publisher = (*Publisher)(nil)

// NewSyncProducer creates an idempotent sarama.SyncProducer that waits for
// all in-sync replicas.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return p, nil
}

// Publisher sends outbox events to a single topic, keyed by aggregate id so
// that events of one order stay ordered within a partition.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	lg       *zap.Logger
	now      func() time.Time
}

// NewPublisher creates a Publisher. An empty topic selects DefaultTopic.
func NewPublisher(producer sarama.SyncProducer, topic string, lg *zap.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Publisher{
		producer: producer,
		topic:    topic,
		lg:       lg.Named("kafka"),
		now:      time.Now,
	}
}

// Publish sends e wrapped in an envelope and waits for the broker ack.
func (p *Publisher) Publish(ctx context.Context, e outbox.Event) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka publisher is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := e.AggregateID
	if key == "" {
		key = e.ID.String()
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(p.envelope(e)),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(e.EventType)},
			{Key: []byte("event_id"), Value: []byte(e.ID.String())},
		},
		Timestamp: p.now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return errors.Wrapf(err, "send %s to %s", e.EventType, p.topic)
	}

	p.lg.Debug("Message sent",
		zap.String("topic", p.topic),
		zap.String("key", key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close closes the underlying producer.
func (p *Publisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return errors.Wrap(err, "close kafka producer")
	}
	return nil
}

func (p *Publisher) envelope(e outbox.Event) []byte {
	enc := jx.GetEncoder()
	defer jx.PutEncoder(enc)

	enc.ObjStart()
	enc.FieldStart("id")
	enc.Str(e.ID.String())
	enc.FieldStart("aggregate_type")
	enc.Str(e.AggregateType)
	enc.FieldStart("aggregate_id")
	enc.Str(e.AggregateID)
	enc.FieldStart("event_type")
	enc.Str(e.EventType)
	enc.FieldStart("payload")
	if len(e.Payload) == 0 {
		enc.Null()
	} else {
		enc.Raw(e.Payload)
	}
	enc.FieldStart("published_at")
	enc.Str(p.now().UTC().Format(time.RFC3339Nano))
	enc.ObjEnd()

	return append([]byte(nil), enc.Bytes()...)
}
