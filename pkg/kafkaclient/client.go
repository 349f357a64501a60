// Package kafkaclient wraps a kafka-go reader in a consumer that streams
// messages over a channel and commits offsets only when asked to.
package kafkaclient

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader is the part of *kafka.Reader the consumer needs. Tests inject a mock.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config selects the topic and consumer group to read.
type Config struct {
	Broker  string
	Topic   string
	GroupID string
}

// Consumer runs a fetch loop and hands every message to Messages. Offsets are
// committed explicitly with CommitOffset after the message was handled.
type Consumer struct {
	reader   Reader
	messages chan kafka.Message
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	retryDelay time.Duration
}

func NewConsumer(cfg Config) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Broker},
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
		// Offsets are committed by CommitOffset only.
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
	})
	return newConsumer(reader)
}

func newConsumer(reader Reader) *Consumer {
	return &Consumer{
		reader:     reader,
		messages:   make(chan kafka.Message),
		retryDelay: time.Second,
	}
}

// Messages is closed when the consumer stops.
func (c *Consumer) Messages() <-chan kafka.Message {
	return c.messages
}

func (c *Consumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	log.Printf("Committing offset for topic=%s, partition=%d, offset=%d", msg.Topic, msg.Partition, msg.Offset)
	return c.reader.CommitMessages(ctx, msg)
}

// Start begins the fetch loop. It runs until ctx is done, Stop is called or
// the reader is closed.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.messages)

		log.Println("Starting Kafka consumer loop...")
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					log.Println("Context canceled, stopping consumer loop.")
					return
				}
				if errors.Is(err, io.EOF) {
					log.Println("Kafka reader closed, stopping consumer loop.")
					return
				}
				log.Printf("Error fetching message: %v", err)
				select {
				case <-time.After(c.retryDelay):
					continue
				case <-ctx.Done():
					return
				}
			}

			select {
			case c.messages <- msg:
				log.Printf("Message received: topic=%s, partition=%d, offset=%d", msg.Topic, msg.Partition, msg.Offset)
			case <-ctx.Done():
				log.Println("Context canceled, stopping consumer before sending message.")
				return
			}
		}
	}()
}

// Stop ends the fetch loop, waits for it and closes the reader.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		log.Println("Attempting to stop Kafka consumer...")
		if c.cancel != nil {
			c.cancel()
		}
		c.wg.Wait()
		if err := c.reader.Close(); err != nil {
			log.Printf("Failed to close Kafka reader: %v", err)
		}
		log.Println("Kafka consumer stopped gracefully.")
	})
}
