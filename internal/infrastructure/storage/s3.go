package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	appconfig "github.com/baechuer/eprocure-portal/internal/config"
	"github.com/baechuer/eprocure-portal/internal/domain"
)

// S3Store holds proposal attachments in an S3-compatible bucket
// (MinIO, R2, AWS). Retrieval is only through presigned GET URLs.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient // signs against the browser-facing endpoint
	bucket    string
	log       zerolog.Logger
}

func NewS3Store(cfg *appconfig.Config, log zerolog.Logger) (*S3Store, error) {
	client, err := newClient(cfg, cfg.S3Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	external := cfg.S3ExternalEndpoint
	if external == "" {
		external = cfg.S3Endpoint
	}
	externalClient, err := newClient(cfg, external)
	if err != nil {
		return nil, fmt.Errorf("failed to load external AWS config: %w", err)
	}

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(externalClient),
		bucket:    cfg.AttachmentsBucket,
		log:       log.With().Str("component", "s3_store").Str("bucket", cfg.AttachmentsBucket).Logger(),
	}, nil
}

func newClient(cfg *appconfig.Config, endpoint string) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               endpoint,
			HostnameImmutable: true,
		}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.S3Region),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	}), nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("put object failed")
		return domain.ErrStorageUnavailable(err)
	}
	return nil
}

// Delete removes an object; deleting a missing key is not an error in S3.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("delete object failed")
		return domain.ErrStorageUnavailable(err)
	}
	return nil
}

func (s *S3Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", domain.ErrStorageUnavailable(fmt.Errorf("presign GET %s: %w", key, err))
	}
	return req.URL, nil
}

// Ping checks that the bucket is reachable; used by readiness.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
