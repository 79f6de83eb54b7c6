package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/config"
	"cinevault/services/upload-api/internal/domain/upload"
	"cinevault/services/upload-api/internal/infrastructure/metrics"
)

var errS3Disabled = errors.New("s3 storage backend is not configured; set UPLOAD_S3_* to enable uploads")

const presignTTL = 15 * time.Minute

// S3Storage stores small uploads in S3-compatible object storage.
type S3Storage struct {
	bucket   string
	client   *s3.Client
	presign  *s3.PresignClient
	log      zerolog.Logger
	disabled bool
}

func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	storage := &S3Storage{
		bucket: strings.TrimSpace(cfg.S3Bucket),
		log:    logger,
	}

	accessKey := strings.TrimSpace(cfg.S3AccessKeyID)
	secretKey := strings.TrimSpace(cfg.S3SecretKey)
	if storage.bucket == "" || accessKey == "" || secretKey == "" {
		logger.Warn().Msg("UPLOAD_S3_BUCKET or credentials are not set; s3 uploads will be disabled until configured")
		storage.disabled = true
		return storage, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.S3Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.S3Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.S3Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	storage.client = client
	storage.presign = s3.NewPresignClient(client)
	return storage, nil
}

func (s *S3Storage) ensureEnabled() error {
	if s.disabled {
		return errS3Disabled
	}
	return nil
}

// Put writes the object and returns a result whose content link is a
// short-lived presigned GET URL.
func (s *S3Storage) Put(ctx context.Context, key, name, contentType string, body io.Reader, size int64) (*upload.Result, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		metrics.StorageOperationsTotal.WithLabelValues("put", "error").Inc()
		return nil, fmt.Errorf("put object: %w", err)
	}
	metrics.StorageOperationsTotal.WithLabelValues("put", "success").Inc()

	contentLink := ""
	presigned, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("presign download url failed")
	} else {
		contentLink = presigned.URL
	}

	return &upload.Result{
		FileID:         key,
		FileName:       name,
		MimeType:       contentType,
		Size:           size,
		WebContentLink: contentLink,
	}, nil
}

func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, "", err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		metrics.StorageOperationsTotal.WithLabelValues("get", "error").Inc()
		return nil, "", err
	}
	metrics.StorageOperationsTotal.WithLabelValues("get", "success").Inc()
	mime := ""
	if out.ContentType != nil {
		mime = *out.ContentType
	}
	return out.Body, mime, nil
}

// Health performs a simple HeadBucket request.
func (s *S3Storage) Health(ctx context.Context) error {
	if s.disabled {
		return nil
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
