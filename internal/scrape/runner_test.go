package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snpedia/internal/models"
	"snpedia/internal/storage"
	"snpedia/pkg/mediawiki"
)

// fakeSNPedia serves a two page category listing and answers content batches.
type fakeSNPedia struct {
	mu           sync.Mutex
	listing      map[string]string // cmcontinue -> body
	missing      map[string]bool
	failBatches  map[string]bool // titles parameter -> 500
	listCalls    int
	contentCalls [][]string
}

func newFakeSNPedia() *fakeSNPedia {
	return &fakeSNPedia{
		listing: map[string]string{
			"":  `{"continue":{"cmcontinue":"x","continue":"-||"},"batchcomplete":"","query":{"categorymembers":[{"ns":0,"title":"rs123"},{"ns":0,"title":"rs124"}]}}`,
			"x": `{"batchcomplete":"","query":{"categorymembers":[{"ns":0,"title":"rs456"},{"ns":0,"title":"rs123"}]}}`,
		},
		missing:     map[string]bool{},
		failBatches: map[string]bool{},
	}
}

func (f *fakeSNPedia) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case q.Get("list") == "categorymembers":
		f.listCalls++
		body, ok := f.listing[q.Get("cmcontinue")]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	case q.Get("prop") == "revisions":
		titles := strings.Split(q.Get("titles"), "|")
		f.contentCalls = append(f.contentCalls, titles)
		if f.failBatches[q.Get("titles")] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		pages := map[string]any{}
		for _, t := range titles {
			if f.missing[t] {
				pages[t] = map[string]any{"title": t, "missing": ""}
				continue
			}
			pages[t] = map[string]any{
				"revisions": []any{map[string]any{
					"slots": map[string]any{"main": map[string]any{"*": "content of " + t}},
				}},
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"batchcomplete": "", "query": map[string]any{"pages": pages}})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

type memorySink struct {
	mu      sync.Mutex
	name    string
	records map[string]string
	fail    bool
}

func newMemorySink(name string) *memorySink {
	return &memorySink{name: name, records: map[string]string{}}
}

func (m *memorySink) Name() string { return m.name }

func (m *memorySink) Store(_ context.Context, r models.Record) error {
	if m.fail {
		return &storage.WriteError{Sink: m.name, Name: r.Name, Err: errors.New("read-only")}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.Name] = r.Content
	return nil
}

func setup(t *testing.T, fake *fakeSNPedia) *mediawiki.Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	client, err := mediawiki.NewClient(server.URL + "/api.php")
	require.NoError(t, err)
	return client
}

func TestRunner_Run(t *testing.T) {
	fake := newFakeSNPedia()
	sink := newMemorySink("memory")
	runner := NewRunner(setup(t, fake), Options{Category: "Category:Is_a_snp", BatchSize: 50}, sink)

	sum, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Pages: 2, Titles: 3, Duplicates: 1, Batches: 2, Records: 3}, sum)
	assert.Equal(t, map[string]string{
		"rs123": "content of rs123",
		"rs124": "content of rs124",
		"rs456": "content of rs456",
	}, sink.records)
	assert.Equal(t, 2, fake.listCalls)
	assert.Equal(t, [][]string{{"rs123", "rs124"}, {"rs456"}}, fake.contentCalls)
}

func TestRunner_BatchSize(t *testing.T) {
	fake := newFakeSNPedia()
	runner := NewRunner(setup(t, fake), Options{Category: "Category:Is_a_snp", BatchSize: 1}, newMemorySink("memory"))

	sum, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Batches)
	assert.Equal(t, [][]string{{"rs123"}, {"rs124"}, {"rs456"}}, fake.contentCalls)
}

func TestRunner_MaxPages(t *testing.T) {
	fake := newFakeSNPedia()
	sink := newMemorySink("memory")
	runner := NewRunner(setup(t, fake), Options{Category: "Category:Is_a_snp", MaxPages: 1}, sink)

	sum, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Pages)
	assert.Equal(t, 1, fake.listCalls)
	assert.Len(t, sink.records, 2)
}

func TestRunner_ExtractPolicies(t *testing.T) {
	t.Run("skip keeps going", func(t *testing.T) {
		fake := newFakeSNPedia()
		fake.missing["rs124"] = true
		sink := newMemorySink("memory")

		sum, err := NewRunner(setup(t, fake), Options{Category: "Category:Is_a_snp", Policy: mediawiki.SkipInvalid}, sink).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, sum.ExtractFailures)
		assert.Equal(t, 2, sum.Records)
		assert.NotContains(t, sink.records, "rs124")
	})

	t.Run("fail fast stops the run", func(t *testing.T) {
		fake := newFakeSNPedia()
		fake.missing["rs124"] = true
		sink := newMemorySink("memory")

		sum, err := NewRunner(setup(t, fake), Options{Category: "Category:Is_a_snp", Policy: mediawiki.FailFast}, sink).Run(context.Background())
		require.ErrorIs(t, err, mediawiki.ErrMissingField)
		assert.Equal(t, 1, sum.Pages)
		assert.Empty(t, sink.records)
		assert.Equal(t, 1, fake.listCalls, "no further listing after a fail-fast error")
	})
}

func TestRunner_ListingErrorEndsRun(t *testing.T) {
	fake := newFakeSNPedia()
	delete(fake.listing, "x")
	sink := newMemorySink("memory")

	sum, err := NewRunner(setup(t, fake), Options{Category: "Category:Is_a_snp"}, sink).Run(context.Background())
	require.ErrorIs(t, err, mediawiki.ErrNetwork)
	assert.Equal(t, 1, sum.Pages)
	assert.Len(t, sink.records, 2, "records of the first page are kept")
}

func TestRunner_FailedBatchIsSkipped(t *testing.T) {
	fake := newFakeSNPedia()
	fake.failBatches["rs123|rs124"] = true
	sink := newMemorySink("memory")

	sum, err := NewRunner(setup(t, fake), Options{Category: "Category:Is_a_snp"}, sink).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Pages: 2, Titles: 3, Duplicates: 1, Batches: 2, FailedBatches: 1, Records: 1}, sum)
	assert.Equal(t, map[string]string{"rs456": "content of rs456"}, sink.records)
	assert.Equal(t, 2, fake.listCalls, "listing goes on after a failed batch")
}

func TestRunner_StoreFailuresAreCounted(t *testing.T) {
	fake := newFakeSNPedia()
	good := newMemorySink("good")
	bad := newMemorySink("bad")
	bad.fail = true

	sum, err := NewRunner(setup(t, fake), Options{Category: "Category:Is_a_snp"}, good, bad).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.StoreFailures)
	assert.Len(t, good.records, 3, "a failing sink must not abort the other writes")
}

func TestRunner_WithFileSink(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeSNPedia()
	fs := storage.NewFileSink(dir)

	_, err := NewRunner(setup(t, fake), Options{Category: "Category:Is_a_snp"}, fs).Run(context.Background())
	require.NoError(t, err)

	for _, name := range []string{"rs123", "rs124", "rs456"} {
		assert.FileExists(t, fs.Path(name))
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
		size   int
		want   [][]string
	}{
		{name: "even", titles: []string{"a", "b", "c", "d"}, size: 2, want: [][]string{{"a", "b"}, {"c", "d"}}},
		{name: "remainder", titles: []string{"a", "b", "c"}, size: 2, want: [][]string{{"a", "b"}, {"c"}}},
		{name: "empty", titles: nil, size: 2, want: nil},
		{name: "non-positive size is one batch", titles: []string{"a", "b"}, size: 0, want: [][]string{{"a", "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.titles, tt.size))
		})
	}
}
