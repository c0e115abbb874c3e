package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"snpedia/internal/keys"
	"snpedia/internal/models"
	"snpedia/pkg/logging"
)

// S3Config holds the connection settings of an S3-compatible store.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

// S3Sink stores records as JSON objects in an S3-compatible bucket.
type S3Sink struct {
	client *minio.Client
	bucket string
	region string
	logger zerolog.Logger
}

// NewS3Sink connects to the MinIO/S3 endpoint described by cfg.
func NewS3Sink(cfg S3Config) (*S3Sink, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 sink needs endpoint, access key, secret key and bucket")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger := logging.NewLogger("s3")
	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("connected to object store")
	return &S3Sink{client: client, bucket: cfg.Bucket, region: cfg.Region, logger: logger}, nil
}

func (s *S3Sink) Name() string { return "s3" }

// Bucket returns the bucket records are written to.
func (s *S3Sink) Bucket() string { return s.bucket }

// EnsureBucket creates the bucket if it does not exist yet.
func (s *S3Sink) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	s.logger.Info().Str("bucket", s.bucket).Msg("created bucket")
	return nil
}

func (s *S3Sink) Store(ctx context.Context, r models.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return &WriteError{Sink: s.Name(), Name: r.Name, Err: fmt.Errorf("marshal record: %w", err)}
	}

	objectKey := keys.Record(r)
	_, err = s.client.PutObject(
		ctx,
		s.bucket,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return &WriteError{Sink: s.Name(), Name: r.Name, Err: err}
	}

	s.logger.Debug().Str("name", r.Name).Str("key", objectKey).Msg("stored record")
	return nil
}

// GetRecord loads a record previously written by Store.
func (s *S3Sink) GetRecord(ctx context.Context, bucketName, objectKey string) (*models.Record, error) {
	object, err := s.client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	var rec models.Record
	if err := json.NewDecoder(object).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s/%s: %w", bucketName, objectKey, err)
	}
	return &rec, nil
}
