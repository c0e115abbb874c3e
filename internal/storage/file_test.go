package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snpedia/internal/models"
)

func TestFileSink_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snps")
	sink := NewFileSink(dir)

	rec := models.Record{Name: "Rs123", Content: "{{Rsnum|rsid=123}}\nünïcode"}
	require.NoError(t, sink.Store(context.Background(), rec))

	got, err := os.ReadFile(filepath.Join(dir, "Rs123"))
	require.NoError(t, err)
	assert.Equal(t, []byte(rec.Content), got)
}

func TestFileSink_ExistingDirAndOverwrite(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)
	ctx := context.Background()

	require.NoError(t, sink.Store(ctx, models.Record{Name: "Rs1", Content: "first version"}))
	require.NoError(t, sink.Store(ctx, models.Record{Name: "Rs1", Content: "second"}))

	got, err := os.ReadFile(sink.Path("Rs1"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestFileSink_InvalidNames(t *testing.T) {
	sink := NewFileSink(t.TempDir())

	for _, name := range []string{"", ".", "..", "APOE/E4", `a\b`, "../escape"} {
		t.Run(name, func(t *testing.T) {
			err := sink.Store(context.Background(), models.Record{Name: name, Content: "x"})
			var we *WriteError
			require.True(t, errors.As(err, &we), "want *WriteError, got %v", err)
			assert.Equal(t, name, we.Name)
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestFileSink_UnwritableDir(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	sink := NewFileSink(filepath.Join(blocker, "out"))
	err := sink.Store(context.Background(), models.Record{Name: "Rs1", Content: "x"})

	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, "Rs1", we.Name)
	assert.Equal(t, "file", we.Sink)
}
