// Package service turns bucket notifications delivered over Kafka into the
// objects they refer to.
package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/rs/zerolog"

	"snpedia/pkg/logging"
)

// Iterator decodes every message as a MinIO notification, loads each object it
// names and streams the results. The message source is owned by the caller.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
	prefix      string
	logger      zerolog.Logger
}

// NewIterator returns an iterator over iterator's messages.
func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T]) *Iterator[T] {
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
		logger:      logging.NewLogger("iterator"),
	}
}

// WithPrefix ignores objects whose key does not start with prefix.
func (it *Iterator[T]) WithPrefix(prefix string) *Iterator[T] {
	it.prefix = prefix
	return it
}

// Objects streams loaded objects until the message channel is closed or ctx
// is canceled. Undecodable messages and failed loads are logged and skipped.
// A message is committed once all of its records were handled; a message
// with a failed load is left uncommitted.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			var info notification.Info
			if err := json.Unmarshal(msg.Value, &info); err != nil {
				it.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping message that is not a bucket notification")
				continue
			}

			handled := true
			for _, event := range info.Records {
				obj, ok := it.load(ctx, event)
				if !ok {
					if ctx.Err() != nil {
						return
					}
					handled = false
					continue
				}
				if obj == nil {
					continue
				}
				select {
				case out <- obj:
				case <-ctx.Done():
					return
				}
			}

			if !handled {
				continue
			}
			if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
				it.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("failed to commit offset")
			}
		}
	}()
	return out
}

// load returns a nil object for events that are filtered out.
func (it *Iterator[T]) load(ctx context.Context, event notification.Event) (*FetchedObject[T], bool) {
	bucket := event.S3.Bucket.Name
	key, err := url.QueryUnescape(event.S3.Object.Key)
	if err != nil {
		it.logger.Warn().Err(err).Str("key", event.S3.Object.Key).Msg("skipping malformed object key")
		return nil, true
	}
	if !strings.HasPrefix(key, it.prefix) {
		return nil, true
	}

	data, err := it.loader(ctx, bucket, key)
	if err != nil {
		it.logger.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("failed to load object")
		return nil, false
	}
	return &FetchedObject[T]{Data: data, Event: event, Key: key}, true
}
