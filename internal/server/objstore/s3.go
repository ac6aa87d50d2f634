package objstore

import (
	"bytes"
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
	"github.com/sethvargo/go-retry"

	sc "github.com/croplabs/picstore/internal/server/config"
)

// S3Store talks to an S3-compatible backend (MinIO in development).
type S3Store struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	putRetries int
	baseDelay  time.Duration
}

// NewS3Store builds a client from static credentials and a base endpoint.
func NewS3Store(ctx context.Context, cfg *sc.Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,     // MINIO_ROOT_USER
			cfg.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		putRetries: cfg.PutRetries,
		baseDelay:  cfg.RetryBaseDelay,
	}, nil
}

func (s *S3Store) EnsureContainer(ctx context.Context, container string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &container})
	if err == nil {
		return nil
	}

	var nf *types.NotFound
	if !errors.As(err, &nf) {
		return fmt.Errorf("checking container %s: %w", container, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &container})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("creating container %s: %w", container, err)
	}
	return nil
}

func (s *S3Store) Put(ctx context.Context, container, key string, body io.Reader) error {
	backoff := retry.WithMaxRetries(uint64(s.putRetries), retry.NewExponential(s.baseDelay))

	// S3 needs a seekable body to retry a put, so buffer once up front.
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("reading payload for %s: %w", key, err)
	}

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, putErr := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        &container,
			Key:           &key,
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
		})
		if putErr != nil {
			return retry.RetryableError(putErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Exists(ctx context.Context, container, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &container, Key: &key})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, fmt.Errorf("checking object %s: %w", key, err)
}

func (s *S3Store) PresignGet(ctx context.Context, container, key string, expires time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &container,
		Key:    &key,
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", key, err)
	}
	return req.URL, nil
}
