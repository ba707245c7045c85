package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aexfood/orders/internal/domain/outbox"
)

func testEvent() outbox.Event {
	return outbox.Event{
		ID:            uuid.MustParse("6f1c2a3e-4b5d-4e6f-8a9b-0c1d2e3f4a5b"),
		AggregateType: "order",
		AggregateID:   "42",
		EventType:     "order.created",
		Payload:       []byte(`{"orderId":42,"total":"54.00"}`),
	}
}

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		d := jx.DecodeBytes(val)
		fields := map[string]string{}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			if key == "payload" {
				raw, err := d.Raw()
				fields[key] = raw.String()
				return err
			}
			s, err := d.Str()
			fields[key] = s
			return err
		})
		if err != nil {
			return err
		}
		assert.Equal(t, "6f1c2a3e-4b5d-4e6f-8a9b-0c1d2e3f4a5b", fields["id"])
		assert.Equal(t, "order.created", fields["event_type"])
		assert.Equal(t, "42", fields["aggregate_id"])
		assert.JSONEq(t, `{"orderId":42,"total":"54.00"}`, fields["payload"])
		assert.Equal(t, "2024-05-01T12:00:00Z", fields["published_at"])
		return nil
	})

	p := NewPublisher(producer, "", zaptest.NewLogger(t))
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.NoError(t, p.Close())
}

func TestPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewPublisher(producer, "orders", zaptest.NewLogger(t))
	err := p.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	require.NoError(t, p.Close())
}

func TestPublisher_PublishCancelled(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, nil)
	p := NewPublisher(producer, "orders", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, testEvent()), context.Canceled)

	require.NoError(t, p.Close())
}

func TestPublisher_NilProducer(t *testing.T) {
	t.Parallel()

	var p *Publisher
	assert.Error(t, p.Publish(context.Background(), testEvent()))
}
