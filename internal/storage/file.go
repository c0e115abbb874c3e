package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"snpedia/internal/models"
)

// FileSink writes each record's content as raw bytes to <dir>/<name>.
type FileSink struct {
	dir string
}

// NewFileSink returns a sink rooted at dir. The directory is created on first write.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Name() string { return "file" }

// Path returns the file a record of the given name is written to.
func (s *FileSink) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileSink) Store(_ context.Context, r models.Record) error {
	if !validFileName(r.Name) {
		return &WriteError{Sink: s.Name(), Name: r.Name, Err: ErrInvalidName}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &WriteError{Sink: s.Name(), Name: r.Name, Err: fmt.Errorf("create output dir: %w", err)}
	}
	if err := os.WriteFile(s.Path(r.Name), []byte(r.Content), 0o644); err != nil {
		return &WriteError{Sink: s.Name(), Name: r.Name, Err: err}
	}
	return nil
}

// validFileName rejects names that would escape or nest below the output directory.
func validFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}
