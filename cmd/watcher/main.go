package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"snpedia/internal/config"
	"snpedia/internal/models"
	"snpedia/internal/service"
	"snpedia/internal/storage"
	"snpedia/pkg/graceful"
	"snpedia/pkg/kafkaclient"
	"snpedia/pkg/logging"
)

func main() {
	app := &cli.App{
		Name:  "watcher",
		Usage: "follow bucket notifications and report every stored SNP page",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"SNPEDIA_CONFIG"}},
			&cli.StringFlag{Name: "prefix", Value: "raw_data/", Usage: "only report objects under this key prefix"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("watcher failed")
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err := cfg.ValidateWatcher(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := graceful.Context(c.Context)
	defer cancel()

	log.Info().
		Str("broker", cfg.Kafka.Broker).
		Str("topic", cfg.Kafka.Topic).
		Str("group", cfg.Kafka.GroupID).
		Msg("connecting to kafka")

	consumer, err := kafkaclient.NewConsumer(kafkaclient.Config{
		Broker:  cfg.Kafka.Broker,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	if err != nil {
		return err
	}

	s3cfg := cfg.Storage.S3
	store, err := storage.NewS3Sink(storage.S3Config{
		Endpoint:  s3cfg.Endpoint,
		AccessKey: s3cfg.AccessKey,
		SecretKey: s3cfg.SecretKey,
		UseSSL:    s3cfg.UseSSL,
		Bucket:    s3cfg.Bucket,
		Region:    s3cfg.Region,
	})
	if err != nil {
		return err
	}

	consumer.Start(ctx)
	defer consumer.Stop()

	iterator := service.NewIterator(consumer, func(ctx context.Context, bucket, key string) (*models.Record, error) {
		return store.GetRecord(ctx, bucket, key)
	}).WithPrefix(c.String("prefix"))

	seen := 0
	for obj := range iterator.Objects(ctx) {
		seen++
		ev := log.Info().Str("name", obj.Data.Name).Str("key", obj.Key).Int("bytes", len(obj.Data.Content))
		if !obj.Data.Timestamp.IsZero() {
			ev = ev.Str("revised", obj.Data.Timestamp.Format(time.RFC3339))
		}
		ev.Msg("snp page stored")
	}

	log.Info().Int("records", seen).Msg("watcher finished")
	return nil
}
