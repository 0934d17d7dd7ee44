package service

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessageIterator defines the contract for consuming messages from a Kafka topic.
// It is used by the service's Iterator to abstract away the details of the
// underlying Kafka consumer.
//
// Implementations are responsible for the lifecycle of the consumer connection.
type MessageIterator interface {
	// Messages returns a receive-only channel of Kafka messages. The channel
	// is closed by the implementation when the consumer is stopped or the
	// underlying source is exhausted.
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges that a message has been processed.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// DecodeFunc turns the value of a Kafka message into an item of type T.
type DecodeFunc[T any] func(value []byte) (T, error)

// FetchedObject pairs a decoded item with the message it came from. The
// message is needed to commit its offset once the item has been handled.
type FetchedObject[T any] struct {
	Data    T
	Message kafka.Message
}
