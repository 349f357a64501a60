// Package service turns a stream of Kafka messages into typed events.
// The Iterator decodes every message with a DecodeFunc, hands the event on and
// then commits the message offset.
package service

import (
	"context"
	"log"

	"github.com/segmentio/kafka-go"
)

// MessageIterator is the consumer side the Iterator reads from. The channel
// is closed by the implementation when the consumer stops.
type MessageIterator interface {
	Messages() <-chan kafka.Message
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// DecodeFunc parses one message payload into an event of type T.
type DecodeFunc[T any] func(value []byte) (T, error)

// Iterator is generic over the decoded event type T. It does not manage the
// lifecycle of the message source.
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

// Events streams decoded events until the message channel is closed or ctx
// is done. A message that cannot be decoded is logged, committed and skipped
// so it is not redelivered forever. A delivered message is committed after
// the receiver took it.
func (it *Iterator[T]) Events(ctx context.Context) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)

		for {
			var msg kafka.Message
			select {
			case <-ctx.Done():
				return
			case m, ok := <-it.msgIterator.Messages():
				if !ok {
					return
				}
				msg = m
			}

			event, err := it.decode(msg.Value)
			if err != nil {
				log.Printf("Skipping undecodable message at offset %d: %v", msg.Offset, err)
				it.commit(ctx, msg)
				continue
			}

			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
			it.commit(ctx, msg)
		}
	}()
	return out
}

func (it *Iterator[T]) commit(ctx context.Context, msg kafka.Message) {
	if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
		log.Printf("Failed to commit offset: %v", err)
	}
}
