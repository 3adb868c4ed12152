package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	kafka_config "clubmanager/pkg/kafka/config"
)

// Consumer wraps a kafka-go reader within a consumer group. Failed
// messages are retried with a linear backoff and skipped once the retry
// budget is spent; offsets are committed only after the handler settles.
type Consumer struct {
	reader     *kafka.Reader
	topic      string
	groupID    string
	maxRetries int
	handler    MessageHandler
	closed     bool
	mu         sync.RWMutex
}

func NewConsumer(cfg *kafka_config.Config, topic string, groupID string, handler MessageHandler) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    cfg.ConsumerMinBytes,
		MaxBytes:    cfg.ConsumerMaxBytes,
		MaxWait:     cfg.ConsumerMaxWait,
		StartOffset: cfg.ConsumerStartOffset,
		Logger:      kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger: kafka.LoggerFunc(log.Printf),
	})

	return &Consumer{
		reader:     reader,
		topic:      topic,
		groupID:    groupID,
		maxRetries: cfg.ConsumerMaxRetries,
		handler:    handler,
	}, nil
}

// Start consumes until ctx is cancelled or the consumer is closed.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.mu.RUnlock()

	for {
		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.mu.RLock()
			closed := c.closed
			c.mu.RUnlock()
			if closed {
				return ErrConsumerClosed
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		msg := fromKafkaMessage(kafkaMsg)

		var handleErr error
		for attempt := 0; attempt <= c.maxRetries; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(attempt) * time.Second):
				}
			}
			if handleErr = c.handler(ctx, msg); handleErr == nil {
				break
			}
		}
		if handleErr != nil {
			log.Printf("dropping message after %d retries: topic=%s offset=%d err=%v",
				c.maxRetries, msg.Topic, msg.Offset, handleErr)
		}

		if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil {
			return fmt.Errorf("failed to commit message: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.reader.Close()
}

func fromKafkaMessage(m kafka.Message) Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Key:       string(m.Key),
		Value:     m.Value,
		Headers:   headers,
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Timestamp: m.Time,
	}
}
