// Package objectstore implements the ObjectStore adapter: a thin,
// S3-compatible multipart-upload interface. It is the only component in the
// system that talks to the object store, and the only component required to
// run against any S3-compatible endpoint including path-style addressing.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Part is a completed part returned by UploadPart, and the unit submitted
// back to CompleteMultipart.
type Part struct {
	PartNumber int32
	ETag       string
	Size       int64
}

// CompletedUpload is the result of a successful CompleteMultipart call.
type CompletedUpload struct {
	Location string
	ETag     string
}

// Metrics is the operation-level instrumentation hook. A nil Metrics is
// valid and results in zero overhead, mirroring the teacher's "pass nil for
// zero overhead" convention.
type Metrics interface {
	ObserveOperation(operation string, duration time.Duration, err error)
	RecordBytes(operation string, bytes int64)
}

// Config configures the S3-compatible client.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // non-empty enables path-style addressing against a custom endpoint
	AccessKeyID     string
	SecretAccessKey string
	Metrics         Metrics
}

// Store is the ObjectStore adapter.
type Store struct {
	client  *s3.Client
	bucket  string
	metrics Metrics
}

// New builds an S3-compatible client from cfg and verifies bucket access.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("objectstore: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("objectstore: access bucket %q: %w", cfg.Bucket, err)
	}

	return &Store{client: client, bucket: cfg.Bucket, metrics: cfg.Metrics}, nil
}

func (s *Store) observe(operation string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, time.Since(start), err)
	}
}

// CreateMultipart initiates a multipart upload for key and returns the
// object-store upload handle.
func (s *Store) CreateMultipart(ctx context.Context, key, contentType string) (uploadID string, err error) {
	start := time.Now()
	out, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	s.observe("CreateMultipartUpload", start, err)
	if err != nil {
		return "", fmt.Errorf("objectstore: create multipart upload: %w", err)
	}
	return aws.ToString(out.UploadId), nil
}

// UploadPart streams body (exactly contentLength bytes) to S3 as the given
// part number. body is never buffered in full: the AWS SDK streams directly
// from the provided io.Reader.
func (s *Store) UploadPart(ctx context.Context, key, uploadID string, partNumber int, body io.Reader, contentLength int64) (Part, error) {
	start := time.Now()
	out, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(int32(partNumber)),
		Body:          body,
		ContentLength: aws.Int64(contentLength),
	})
	s.observe("UploadPart", start, err)
	if err != nil {
		return Part{}, fmt.Errorf("objectstore: upload part %d: %w", partNumber, err)
	}
	if s.metrics != nil {
		s.metrics.RecordBytes("UploadPart", contentLength)
	}
	return Part{PartNumber: int32(partNumber), ETag: aws.ToString(out.ETag), Size: contentLength}, nil
}

// CompleteMultipart finalizes the upload. parts MUST already be sorted in
// ascending PartNumber order; the caller (SessionStore-backed state) owns
// ordering since no per-instance upload-session tracking is kept here.
func (s *Store) CompleteMultipart(ctx context.Context, key, uploadID string, parts []Part) (CompletedUpload, error) {
	completed := make([]types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = types.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.PartNumber),
		}
	}

	start := time.Now()
	out, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	s.observe("CompleteMultipartUpload", start, err)
	if err != nil {
		return CompletedUpload{}, fmt.Errorf("objectstore: complete multipart upload: %w", err)
	}
	return CompletedUpload{Location: aws.ToString(out.Location), ETag: aws.ToString(out.ETag)}, nil
}

// AbortMultipart cancels an in-progress upload. Idempotent: a NoSuchUpload
// response (the upload is already absent) is treated as success.
func (s *Store) AbortMultipart(ctx context.Context, key, uploadID string) error {
	start := time.Now()
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	s.observe("AbortMultipartUpload", start, err)
	if err != nil {
		var noSuchUpload *types.NoSuchUpload
		if isNoSuchUpload(err, &noSuchUpload) {
			return nil
		}
		return fmt.Errorf("objectstore: abort multipart upload: %w", err)
	}
	return nil
}

// HeadObject returns the size of a completed object. Used by downstream
// components (IPFS pin), not by the core write path.
func (s *Store) HeadObject(ctx context.Context, key string) (size int64, err error) {
	start := time.Now()
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	s.observe("HeadObject", start, err)
	if err != nil {
		return 0, fmt.Errorf("objectstore: head object: %w", err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

// GetObjectStream returns a streaming reader for a completed object. Used by
// downstream components (IPFS pin), not by the core write path.
func (s *Store) GetObjectStream(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	s.observe("GetObject", start, err)
	if err != nil {
		return nil, fmt.Errorf("objectstore: get object: %w", err)
	}
	return out.Body, nil
}

func isNoSuchUpload(err error, target **types.NoSuchUpload) bool {
	return errors.As(err, target)
}

// Healthcheck verifies the bucket is still reachable.
func (s *Store) Healthcheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("objectstore: healthcheck: %w", err)
	}
	return nil
}
