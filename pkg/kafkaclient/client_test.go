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
	messages   chan kafka.Message
	commitChan chan kafka.Message

	mu       sync.Mutex
	isClosed bool
	failNext int
}

func newMockReader() *mockReader {
	return &mockReader{
		messages:   make(chan kafka.Message, 10),
		commitChan: make(chan kafka.Message, 100),
	}
}

// produce simulates count messages being written to the topic, then closes it.
func (mr *mockReader) produce(count int) {
	go func() {
		defer close(mr.messages)
		for i := 0; i < count; i++ {
			mr.messages <- kafka.Message{
				Topic:     "test-topic",
				Partition: 0,
				Offset:    int64(i),
				Value:     []byte(fmt.Sprintf("mock-message-%d", i)),
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
}

func (mr *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	mr.mu.Lock()
	if mr.failNext > 0 {
		mr.failNext--
		mr.mu.Unlock()
		return kafka.Message{}, errors.New("broker not available")
	}
	mr.mu.Unlock()

	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
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
	for _, msg := range msgs {
		mr.commitChan <- msg
	}
	return nil
}

func (mr *mockReader) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if !mr.isClosed {
		mr.isClosed = true
		close(mr.commitChan)
	}
	return nil
}

func (mr *mockReader) closed() bool {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.isClosed
}

func TestConsumer_DeliversAndCommits(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	reader.failNext = 1
	consumer := newConsumer(reader)
	consumer.retryDelay = time.Millisecond

	const expected = 3
	reader.produce(expected)
	consumer.Start(ctx)

	received := 0
	for msg := range consumer.Messages() {
		if want := fmt.Sprintf("mock-message-%d", received); string(msg.Value) != want {
			t.Errorf("message %d = %q; want %q", received, msg.Value, want)
		}
		if err := consumer.CommitOffset(ctx, msg); err != nil {
			t.Errorf("CommitOffset: %v", err)
		}
		received++
	}
	if received != expected {
		t.Errorf("received %d messages; want %d", received, expected)
	}

	consumer.Stop()

	committed := 0
	for range reader.commitChan {
		committed++
	}
	if committed != expected {
		t.Errorf("committed %d messages; want %d", committed, expected)
	}
}

func TestConsumer_Stop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	consumer := newConsumer(reader)
	reader.produce(100)
	consumer.Start(ctx)

	for i := 0; i < 5; i++ {
		select {
		case <-consumer.Messages():
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timed out waiting for a message")
		}
	}

	done := make(chan struct{})
	go func() {
		consumer.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked")
	}

	for range consumer.Messages() {
		t.Error("message delivered after Stop")
	}
	if !reader.closed() {
		t.Error("reader not closed after Stop")
	}

	// second Stop is a no-op
	consumer.Stop()
}
