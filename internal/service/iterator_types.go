package service

import (
	"context"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

// MessageIterator is a source of Kafka messages with manual acknowledgement.
// The Messages channel is closed by the implementation when it stops.
type MessageIterator interface {
	Messages() <-chan kafka.Message
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads and decodes the object stored under bucket/key.
type LoaderFunc[T any] func(ctx context.Context, bucket, key string) (T, error)

// FetchedObject pairs a loaded object with the notification that announced it.
type FetchedObject[T any] struct {
	Data  T
	Event notification.Event
	// Key is the unescaped object key.
	Key string
}
