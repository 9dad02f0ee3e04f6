package kafka

import (
	"github.com/segmentio/kafka-go"
)

// NewWriter builds the producer the outbox dispatcher writes receipt
// events through.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
}
