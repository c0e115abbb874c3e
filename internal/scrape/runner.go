// Package scrape drives a full category scrape: list the category, fetch page
// content in batches, extract records and hand each one to the sink pipeline.
package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"snpedia/internal/models"
	"snpedia/internal/pipeline"
	"snpedia/internal/storage"
	"snpedia/pkg/logging"
	"snpedia/pkg/mediawiki"
	"snpedia/pkg/metrics"
)

// Options control a single run.
type Options struct {
	Category string
	// CategoryLimit is the cmlimit sent with every listing request; 0 leaves it to the server.
	CategoryLimit int
	// BatchSize is the number of titles per content request.
	BatchSize int
	// MaxPages stops the listing after that many category pages; 0 means all.
	MaxPages int
	Policy   mediawiki.ExtractPolicy
}

// Summary counts what a run did.
type Summary struct {
	Pages           int
	Titles          int
	Duplicates      int
	Batches         int
	FailedBatches   int
	Records         int
	ExtractFailures int
	StoreFailures   int
}

// Runner scrapes one category per Run. It is not safe for concurrent use.
type Runner struct {
	client   *mediawiki.Client
	pipeline *pipeline.Pipeline[models.Record]
	opts     Options
	sinks    int
	visited  map[string]struct{}
	logger   zerolog.Logger
}

// NewRunner builds a runner that stores every record in all sinks concurrently.
func NewRunner(client *mediawiki.Client, opts Options, sinks ...storage.Sink) *Runner {
	steps := make([]pipeline.Step[models.Record], 0, len(sinks))
	for _, s := range sinks {
		steps = append(steps, StoreStep(s))
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	stage := pipeline.NewStage(steps...)
	return &Runner{
		client:   client,
		pipeline: pipeline.NewPipeline(stage),
		opts:     opts,
		sinks:    stage.Len(),
		logger:   logging.NewLogger("scrape"),
	}
}

// StoreStep adapts a sink to a pipeline step and records its outcome.
func StoreStep(s storage.Sink) pipeline.Step[models.Record] {
	return func(ctx context.Context, r *models.Record) error {
		err := s.Store(ctx, *r)
		metrics.ObserveStore(s.Name(), err)
		return err
	}
}

// Run scrapes the configured category. A transport error while listing the
// category ends the run and is returned with the summary so far. Under the
// FailFast policy the first extraction error ends the run as well. Failed
// content batches and failed writes are logged, counted and skipped.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	started := time.Now()
	r.visited = make(map[string]struct{})

	log := r.logger.With().Str("category", r.opts.Category).Logger()
	log.Info().Str("policy", r.opts.Policy.String()).Int("batch_size", r.opts.BatchSize).Int("sinks", r.sinks).Msg("starting scrape")

	for page, err := range mediawiki.ListCategory(ctx, r.client, r.opts.Category, r.opts.CategoryLimit) {
		if err != nil {
			return sum, fmt.Errorf("list %s: %w", r.opts.Category, err)
		}
		sum.Pages++
		metrics.CategoryPagesTotal.Inc()

		titles := r.unseen(page.Titles(), &sum)
		for _, batch := range Chunk(titles, r.opts.BatchSize) {
			if err := r.processBatch(ctx, batch, &sum); err != nil {
				return sum, err
			}
		}

		log.Info().
			Int("page", sum.Pages).
			Int("titles", sum.Titles).
			Int("records", sum.Records).
			Msg("category page done")

		if r.opts.MaxPages > 0 && sum.Pages >= r.opts.MaxPages {
			break
		}
	}

	log.Info().
		Int("pages", sum.Pages).
		Int("titles", sum.Titles).
		Int("duplicates", sum.Duplicates).
		Int("records", sum.Records).
		Int("failed_batches", sum.FailedBatches).
		Int("extract_failures", sum.ExtractFailures).
		Int("store_failures", sum.StoreFailures).
		Dur("took", time.Since(started)).
		Msg("finished scrape")
	return sum, nil
}

func (r *Runner) processBatch(ctx context.Context, titles []string, sum *Summary) error {
	sum.Batches++

	set, err := mediawiki.FetchContent(ctx, r.client, titles)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sum.FailedBatches++
		r.logger.Warn().Err(err).Strs("titles", titles).Msg("content batch failed")
		return nil
	}

	batch, err := mediawiki.ExtractAll(set, r.opts.Policy)
	if err != nil {
		sum.ExtractFailures++
		metrics.ExtractFailuresTotal.Inc()
		return fmt.Errorf("extract batch: %w", err)
	}
	for _, skipped := range batch.Skipped {
		sum.ExtractFailures++
		metrics.ExtractFailuresTotal.Inc()
		r.logger.Warn().Str("name", skipped.Title).Str("field", skipped.Field).Msg("skipping page without content")
	}

	for i := range batch.Records {
		rec := &batch.Records[i]
		sum.Records++
		metrics.RecordsExtractedTotal.Inc()
		if err := r.pipeline.Apply(ctx, rec); err != nil {
			sum.StoreFailures += countErrors(err)
			r.logger.Error().Err(err).Str("name", rec.Name).Msg("failed to store record")
		}
	}
	return nil
}

// unseen drops titles already handled in this run, keeping first occurrences in order.
func (r *Runner) unseen(titles []string, sum *Summary) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if _, seen := r.visited[t]; seen {
			sum.Duplicates++
			continue
		}
		r.visited[t] = struct{}{}
		out = append(out, t)
	}
	sum.Titles += len(out)
	return out
}

// Chunk splits titles into consecutive batches of at most size elements.
func Chunk(titles []string, size int) [][]string {
	if size <= 0 {
		size = len(titles)
	}
	var batches [][]string
	for start := 0; start < len(titles); start += size {
		end := min(start+size, len(titles))
		batches = append(batches, titles[start:end])
	}
	return batches
}

func countErrors(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	if err != nil {
		return 1
	}
	return 0
}
