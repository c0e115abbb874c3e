package storage

import (
	"context"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"snpedia/internal/models"
)

// LevelDBSink keeps page content in a local LevelDB keyed by record name.
type LevelDBSink struct {
	db *leveldb.DB
}

func NewLevelDBSink(path string) (*LevelDBSink, error) {
	const op = "storage.NewLevelDBSink"

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LevelDBSink{db: db}, nil
}

func (s *LevelDBSink) Name() string { return "leveldb" }

func (s *LevelDBSink) Store(_ context.Context, r models.Record) error {
	if r.Name == "" {
		return &WriteError{Sink: s.Name(), Name: r.Name, Err: ErrInvalidName}
	}
	if err := s.db.Put([]byte(r.Name), []byte(r.Content), nil); err != nil {
		return &WriteError{Sink: s.Name(), Name: r.Name, Err: err}
	}
	return nil
}

// Content returns the stored content of a page.
func (s *LevelDBSink) Content(name string) (string, error) {
	data, err := s.db.Get([]byte(name), nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *LevelDBSink) Close() error {
	return s.db.Close()
}
