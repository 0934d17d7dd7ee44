package kafkaclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

// mockReader simulates the kafka-go Reader for unit testing.
type mockReader struct {
	messages chan kafka.Message
	closed   chan struct{}

	mu        sync.Mutex
	committed []kafka.Message
	isClosed  bool
}

func newMockReader() *mockReader {
	return &mockReader{
		messages: make(chan kafka.Message, 10),
		closed:   make(chan struct{}),
	}
}

// produce feeds count messages to the reader, then closes the stream.
func (mr *mockReader) produce(count int) {
	go func() {
		defer close(mr.messages)
		for i := 0; i < count; i++ {
			msg := kafka.Message{
				Topic:     "test-topic",
				Partition: 0,
				Offset:    int64(i),
				Value:     []byte(fmt.Sprintf("mock-message-%d", i)),
			}
			select {
			case mr.messages <- msg:
			case <-mr.closed:
				return
			}
		}
	}()
}

func (mr *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case <-mr.closed:
		return kafka.Message{}, io.EOF
	case msg, ok := <-mr.messages:
		if !ok {
			return kafka.Message{}, io.EOF
		}
		return msg, nil
	}
}

func (mr *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if mr.isClosed {
		return errors.New("kafka: reader closed")
	}
	mr.committed = append(mr.committed, msgs...)
	return nil
}

func (mr *mockReader) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if !mr.isClosed {
		mr.isClosed = true
		close(mr.closed)
	}
	return nil
}

func (mr *mockReader) commitCount() int {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return len(mr.committed)
}

func TestKafkaConsumer_ConsumeAndCommit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	consumer := newConsumer(reader)

	const expectedMessages = 3
	reader.produce(expectedMessages)
	consumer.StartConsuming(ctx)

	received := 0
	for msg := range consumer.Messages() {
		want := fmt.Sprintf("mock-message-%d", received)
		if string(msg.Value) != want {
			t.Errorf("message %d = %q; want %q", received, msg.Value, want)
		}
		if err := consumer.CommitOffset(ctx, msg); err != nil {
			t.Errorf("CommitOffset() failed: %v", err)
		}
		received++
	}

	if received != expectedMessages {
		t.Errorf("received %d messages; want %d", received, expectedMessages)
	}
	if got := reader.commitCount(); got != expectedMessages {
		t.Errorf("committed %d messages; want %d", got, expectedMessages)
	}

	consumer.Stop()
}

func TestKafkaConsumer_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	consumer := newConsumer(reader)
	reader.produce(100)
	consumer.StartConsuming(ctx)

	for i := 0; i < 5; i++ {
		select {
		case <-consumer.Messages():
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timed out while waiting for a message")
		}
	}

	consumer.Stop()
	// a second Stop must not panic on the closed channel
	consumer.Stop()

	remaining := 0
	for range consumer.Messages() {
		remaining++
	}
	if remaining != 0 {
		t.Errorf("found %d messages after Stop; want 0", remaining)
	}

	reader.mu.Lock()
	closed := reader.isClosed
	reader.mu.Unlock()
	if !closed {
		t.Error("reader was not closed by Stop")
	}
}

func TestKafkaConsumer_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	reader := newMockReader()
	consumer := newConsumer(reader)
	consumer.StartConsuming(ctx)
	cancel()

	select {
	case _, ok := <-consumer.Messages():
		if ok {
			t.Fatal("received a message from an empty reader")
		}
	case <-time.After(time.Second):
		t.Fatal("message channel was not closed after cancel")
	}
	consumer.Stop()
}

type flakyReader struct {
	*mockReader
	failures int
}

func (fr *flakyReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if fr.failures > 0 {
		fr.failures--
		return kafka.Message{}, errors.New("broker not available")
	}
	return fr.mockReader.FetchMessage(ctx)
}

func TestKafkaConsumer_RetriesAfterReadError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := &flakyReader{mockReader: newMockReader(), failures: 2}
	consumer := newConsumer(reader)
	consumer.backoff = 10 * time.Millisecond
	reader.produce(1)
	consumer.StartConsuming(ctx)

	received := 0
	for range consumer.Messages() {
		received++
	}
	if received != 1 {
		t.Fatalf("received %d messages; want 1", received)
	}
	consumer.Stop()
}

func TestKafkaConsumer_CommitsOnlyThroughCommitOffset(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	consumer := newConsumer(reader)
	reader.produce(3)
	consumer.StartConsuming(ctx)

	var delivered []kafka.Message
	for msg := range consumer.Messages() {
		delivered = append(delivered, msg)
	}
	if len(delivered) != 3 {
		t.Fatalf("received %d messages; want 3", len(delivered))
	}
	if got := reader.commitCount(); got != 0 {
		t.Fatalf("%d offsets committed before CommitOffset was called; want 0", got)
	}

	if err := consumer.CommitOffset(ctx, delivered[1]); err != nil {
		t.Fatalf("CommitOffset() failed: %v", err)
	}
	reader.mu.Lock()
	committed := append([]kafka.Message(nil), reader.committed...)
	reader.mu.Unlock()
	if len(committed) != 1 || committed[0].Offset != 1 {
		t.Fatalf("committed %v; want only offset 1", committed)
	}
	consumer.Stop()
}
