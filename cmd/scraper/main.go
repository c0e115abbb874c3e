package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"snpedia/internal/config"
	"snpedia/internal/scrape"
	"snpedia/internal/storage"
	"snpedia/pkg/graceful"
	"snpedia/pkg/logging"
	"snpedia/pkg/mediawiki"
	"snpedia/pkg/metrics"
)

func main() {
	app := &cli.App{
		Name:  "scraper",
		Usage: "download every SNP page of SNPedia and store its wikitext",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"SNPEDIA_CONFIG"}},
			&cli.StringFlag{Name: "category", Usage: "category to scrape"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "directory of the file sink"},
			&cli.IntFlag{Name: "max-pages", Usage: "stop after this many category pages (0 = all)"},
			&cli.IntFlag{Name: "batch-size", Usage: "titles per content request"},
			&cli.StringFlag{Name: "policy", Usage: "what to do with pages without content: skip or fail-fast"},
			&cli.StringSliceFlag{Name: "sinks", Usage: "file, s3, postgres, leveldb, sqlite"},
			&cli.BoolFlag{Name: "list-only", Usage: "print the category members and exit without fetching content"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("scraper failed")
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyFlags(c, cfg)

	logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	policy, _ := cfg.ExtractPolicy()

	ctx, cancel := graceful.Context(c.Context)
	defer cancel()

	client, err := mediawiki.NewClient(cfg.API.URL,
		mediawiki.WithUserAgent(cfg.API.UserAgent),
		mediawiki.WithTimeout(cfg.API.Timeout),
	)
	if err != nil {
		return err
	}
	log.Info().Str("endpoint", client.Endpoint()).Str("category", cfg.Scrape.Category).Msg("using api")

	if c.Bool("list-only") {
		titles, err := mediawiki.AllTitles(ctx, client, cfg.Scrape.Category, cfg.Scrape.CategoryLimit)
		for _, t := range titles {
			fmt.Println(t)
		}
		return err
	}

	if cfg.Metrics.Addr != "" {
		serveMetrics(ctx, cfg.Metrics.Addr)
	}
	if cfg.HasSink(config.SinkFile) {
		log.Info().Str("dir", cfg.Storage.OutputDir).Msg("writing pages to files")
	}

	sinks, closers, err := openSinks(ctx, cfg)
	defer closeAll(closers)
	if err != nil {
		return err
	}

	runner := scrape.NewRunner(client, scrape.Options{
		Category:      cfg.Scrape.Category,
		CategoryLimit: cfg.Scrape.CategoryLimit,
		BatchSize:     cfg.Scrape.BatchSize,
		MaxPages:      cfg.Scrape.MaxPages,
		Policy:        policy,
	}, sinks...)

	start := time.Now()
	sum, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nFinished %s: %d records from %d pages, took %s\n", cfg.Scrape.Category, sum.Records, sum.Pages, time.Since(start))
	return nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("category") {
		cfg.Scrape.Category = c.String("category")
	}
	if c.IsSet("output-dir") {
		cfg.Storage.OutputDir = c.String("output-dir")
	}
	if c.IsSet("max-pages") {
		cfg.Scrape.MaxPages = c.Int("max-pages")
	}
	if c.IsSet("batch-size") {
		cfg.Scrape.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("policy") {
		cfg.Scrape.Policy = c.String("policy")
	}
	if c.IsSet("sinks") {
		cfg.Storage.Sinks = c.StringSlice("sinks")
	}
}

// openSinks returns the closers of every sink it opened, also on error.
func openSinks(ctx context.Context, cfg *config.Config) ([]storage.Sink, []io.Closer, error) {
	var (
		sinks   []storage.Sink
		closers []io.Closer
	)
	for _, name := range cfg.Storage.Sinks {
		switch name {
		case config.SinkFile:
			sinks = append(sinks, storage.NewFileSink(cfg.Storage.OutputDir))
		case config.SinkS3:
			s3cfg := cfg.Storage.S3
			s, err := storage.NewS3Sink(storage.S3Config{
				Endpoint:  s3cfg.Endpoint,
				AccessKey: s3cfg.AccessKey,
				SecretKey: s3cfg.SecretKey,
				UseSSL:    s3cfg.UseSSL,
				Bucket:    s3cfg.Bucket,
				Region:    s3cfg.Region,
			})
			if err != nil {
				return nil, closers, err
			}
			if err := s.EnsureBucket(ctx); err != nil {
				return nil, closers, err
			}
			sinks = append(sinks, s)
		case config.SinkPostgres:
			s, err := storage.NewPostgresSink(ctx, cfg.Storage.Postgres.DSN)
			if err != nil {
				return nil, closers, err
			}
			sinks, closers = append(sinks, s), append(closers, s)
		case config.SinkLevelDB:
			s, err := storage.NewLevelDBSink(cfg.Storage.LevelDB)
			if err != nil {
				return nil, closers, err
			}
			sinks, closers = append(sinks, s), append(closers, s)
		case config.SinkSQLite:
			s, err := storage.NewSQLiteSink(cfg.Storage.SQLite)
			if err != nil {
				return nil, closers, err
			}
			sinks, closers = append(sinks, s), append(closers, s)
		}
	}
	return sinks, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close sink")
		}
	}
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
