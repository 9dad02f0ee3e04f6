package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestDispatchBuildsMessage(t *testing.T) {
	p := &fakeProducer{}
	d := NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)), p, "checkout.events")

	err := d.Dispatch(context.Background(), Event{
		ID:          1,
		AggregateID: "receipt-1",
		Type:        "ReceiptIssued",
		Payload:     []byte(`{"receipt_id":"receipt-1"}`),
		Headers:     map[string]string{"source": "storefront-service"},
		Traceparent: "00-abc-def-01",
	})
	require.NoError(t, err)
	require.Len(t, p.msgs, 1)

	msg := p.msgs[0]
	assert.Equal(t, "checkout.events", msg.Topic)
	assert.Equal(t, []byte("receipt-1"), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "ReceiptIssued", headers["event_type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])
	assert.Equal(t, "storefront-service", headers["source"])
}

func TestDispatchPropagatesProducerError(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker down")}
	d := NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)), p, "checkout.events")

	err := d.Dispatch(context.Background(), Event{ID: 1})
	require.Error(t, err)
}
