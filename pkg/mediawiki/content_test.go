package mediawiki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchContent(t *testing.T) {
	wiki := newFakeWiki(t,
		`{"batchcomplete":"","query":{"pages":{"rs123":{"revisions":[{"slots":{"main":{"*":"SNP content"}}}]}}}}`,
	)

	set, err := FetchContent(context.Background(), wiki.client(t), []string{"rs123"})
	require.NoError(t, err)
	require.Contains(t, set, "rs123")

	rec, err := Extract("rs123", set["rs123"])
	require.NoError(t, err)
	assert.Equal(t, "rs123", rec.Name)
	assert.Equal(t, "SNP content", rec.Content)

	calls := wiki.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "rs123", calls[0].Get("titles"))
	assert.Equal(t, "revisions", calls[0].Get("prop"))
}

func TestFetchContent_BatchOfTitles(t *testing.T) {
	wiki := newFakeWiki(t, `{"query":{"pages":{}}}`)

	set, err := FetchContent(context.Background(), wiki.client(t), []string{"Rs1", "Rs2", "Rs3"})
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.Equal(t, "Rs1|Rs2|Rs3", wiki.Calls()[0].Get("titles"))
}

func TestFetchContent_EmptyBatch(t *testing.T) {
	wiki := newFakeWiki(t)
	_, err := FetchContent(context.Background(), wiki.client(t), nil)
	assert.ErrorIs(t, err, ErrNoTitles)
	assert.Empty(t, wiki.Calls())
}

func TestFetchContent_TransportError(t *testing.T) {
	wiki := newFakeWiki(t, `{"query":{"pages":[]}}`)
	_, err := FetchContent(context.Background(), wiki.client(t), []string{"Rs1"})
	assert.ErrorIs(t, err, ErrDecode)
}
