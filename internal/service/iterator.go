// Package service turns a stream of Kafka messages into decoded items. Offsets
// are left to the caller so a message is only acknowledged after its item has
// been handled.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"geotime/internal/models"
	"log"
)

// Iterator decodes messages from a MessageIterator with a DecodeFunc and
// yields the results on a channel. Messages that fail to decode are logged
// and committed so they are not redelivered.
type Iterator[T any] struct {
	msgIterator MessageIterator
	decode      DecodeFunc[T]
}

func NewIterator[T any](iterator MessageIterator, decode DecodeFunc[T]) *Iterator[T] {
	return &Iterator[T]{
		msgIterator: iterator,
		decode:      decode,
	}
}

// Objects streams decoded items until the underlying Messages() channel is
// closed or ctx is done. The returned channel is closed afterwards.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			data, err := it.decode(msg.Value)
			if err != nil {
				log.Printf("Skipping message at partition=%d offset=%d: %v", msg.Partition, msg.Offset, err)
				if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
					log.Printf("Failed to commit offset: %v", err)
				}
				continue
			}

			select {
			case out <- &FetchedObject[T]{Data: data, Message: msg}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Commit acknowledges the message obj was decoded from.
func (it *Iterator[T]) Commit(ctx context.Context, obj *FetchedObject[T]) error {
	return it.msgIterator.CommitOffset(ctx, obj.Message)
}

// DecodeRecord is the DecodeFunc for raw records on the input topic.
func DecodeRecord(value []byte) (*models.Record, error) {
	var r models.Record
	if err := json.Unmarshal(value, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	r.EnsureID()
	return &r, nil
}
