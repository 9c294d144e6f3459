package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"

	"github.com/dm/starsearch/internal/apperr"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config configures S3 access. Empty fields fall back to the AWS SDK's
// default chain (environment, shared config, instance role).
type S3Config struct {
	Region          string `env:"AWS_REGION"`
	Endpoint        string `env:"STARSEARCH_S3_ENDPOINT"`
	AccessKeyID     string `env:"STARSEARCH_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"STARSEARCH_S3_SECRET_ACCESS_KEY"`
	// ForcePathStyle is needed by most S3-compatible servers such as MinIO.
	ForcePathStyle bool `env:"STARSEARCH_S3_PATH_STYLE"`
}

// NewS3Client builds an S3 client from cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

// S3Store keeps artifacts under a bucket prefix.
type S3Store struct {
	c      S3API
	bucket string
	prefix string
	log    *logrus.Logger
}

// NewS3Store returns a store writing to s3://bucket/prefix.
func NewS3Store(c S3API, bucket, prefix string, log *logrus.Logger) *S3Store {
	return &S3Store{c: c, bucket: bucket, prefix: prefix, log: log}
}

// Put uploads data to <prefix>/<name> and returns its s3:// URI.
func (s *S3Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := joinKey(s.prefix, name)
	uri := Location{Scheme: SchemeS3, Bucket: s.bucket, Key: key}.String()
	_, err := s.c.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", classifyS3Error(err, "upload", uri)
	}
	s.log.WithFields(logrus.Fields{"uri": uri, "bytes": len(data)}).Debug("artifact uploaded")
	return uri, nil
}

// Get downloads <prefix>/<name>.
func (s *S3Store) Get(ctx context.Context, name string) ([]byte, error) {
	key := joinKey(s.prefix, name)
	uri := Location{Scheme: SchemeS3, Bucket: s.bucket, Key: key}.String()
	out, err := s.c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(err, "download", uri)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", uri, err)
	}
	return data, nil
}

// classifyS3Error maps missing keys and buckets to NotFound and keeps the
// service error code on everything else.
func classifyS3Error(err error, op, uri string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", op, uri, err)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return &apperr.NotFoundError{Kind: "object", Name: uri}
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return &apperr.NotFoundError{Kind: "bucket", Name: uri}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return &apperr.NotFoundError{Kind: "object", Name: uri}
		case "NoSuchBucket":
			return &apperr.NotFoundError{Kind: "bucket", Name: uri}
		}
		return fmt.Errorf("%s %s failed (code: %s): %w", op, uri, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%s %s failed: %w", op, uri, err)
}
