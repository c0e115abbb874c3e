// Package kafkaclient consumes storage notifications from a Kafka topic with
// manually committed offsets.
package kafkaclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"snpedia/pkg/logging"
)

// Reader is the part of *kafka.Reader the consumer needs.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config selects the broker, topic and consumer group.
type Config struct {
	Broker  string
	Topic   string
	GroupID string
	// RetryBackoff is the pause after a failed read. Defaults to one second.
	RetryBackoff time.Duration
}

// Consumer pumps messages from a Reader into a channel until it is stopped.
type Consumer struct {
	reader   Reader
	messages chan kafka.Message
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
	backoff  time.Duration
	logger   zerolog.Logger
}

// NewConsumer returns a consumer reading cfg.Topic as member of cfg.GroupID.
func NewConsumer(cfg Config) (*Consumer, error) {
	if cfg.Broker == "" || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("kafka consumer needs broker, topic and group id")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Broker},
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
		// Offsets are committed explicitly after a message was handled.
		CommitInterval: 0,
		MinBytes:       10e3,
		MaxBytes:       10e6,
	})
	c := NewConsumerWithReader(reader, cfg.RetryBackoff)
	c.logger = c.logger.With().Str("topic", cfg.Topic).Str("group", cfg.GroupID).Logger()
	return c, nil
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(r Reader, backoff time.Duration) *Consumer {
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Consumer{
		reader:   r,
		messages: make(chan kafka.Message),
		cancel:   func() {},
		backoff:  backoff,
		logger:   logging.NewLogger("kafka"),
	}
}

// Messages is closed once the consume loop has exited.
func (c *Consumer) Messages() <-chan kafka.Message {
	return c.messages
}

// CommitOffset acknowledges msg.
func (c *Consumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	c.logger.Debug().Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("committing offset")
	return c.reader.CommitMessages(ctx, msg)
}

// Start runs the consume loop in a goroutine. The loop ends when ctx is
// canceled, Stop is called or the reader is closed.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.messages)

		c.logger.Info().Msg("consumer loop started")
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Info().Msg("consumer loop stopped")
					return
				}
				if isClosed(err) {
					c.logger.Info().Msg("reader closed, stopping consumer loop")
					return
				}
				c.logger.Warn().Err(err).Dur("backoff", c.backoff).Msg("read failed")
				select {
				case <-time.After(c.backoff):
				case <-ctx.Done():
					return
				}
				continue
			}

			select {
			case c.messages <- msg:
				c.logger.Debug().Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("message received")
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the consume loop, waits for it and closes the reader. It is safe
// to call more than once.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		c.wg.Wait()
		if err := c.reader.Close(); err != nil {
			c.logger.Error().Err(err).Msg("failed to close reader")
		}
		c.logger.Info().Msg("consumer stopped")
	})
}

// ErrReaderClosed is what a closed reader reports from ReadMessage.
var ErrReaderClosed = io.EOF

func isClosed(err error) bool {
	return errors.Is(err, ErrReaderClosed) || errors.Is(err, io.ErrClosedPipe)
}
