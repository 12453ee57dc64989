package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type s3Bucket struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewS3 creates a Bucket backed by an Amazon S3 bucket. Static keys are used
// unless UseDefaultCredentials is set. A custom Endpoint switches to path-style
// addressing for S3-compatible servers.
func NewS3(ctx context.Context, cfg *Config, logger *slog.Logger) (Bucket, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if !cfg.UseDefaultCredentials {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Bucket{
		client: client,
		bucket: cfg.Container,
		logger: logger.With("system", "storage", "provider", ProviderS3, "bucket", cfg.Container),
	}, nil
}

func (b *s3Bucket) Location() string {
	return "s3:" + b.bucket
}

func (b *s3Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	pager := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})

	keys := make([]string, 0)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %s*: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	b.logger.Debug("listed objects", "prefix", prefix, "count", len(keys))
	return keys, nil
}

func (b *s3Bucket) Read(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func (b *s3Bucket) Create(ctx context.Context, key string, data []byte, contentType string) error {
	return b.put(ctx, key, data, contentType, aws.String("*"))
}

func (b *s3Bucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return b.put(ctx, key, data, contentType, nil)
}

func (b *s3Bucket) put(ctx context.Context, key string, data []byte, contentType string, ifNoneMatch *string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		IfNoneMatch: ifNoneMatch,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return ErrExists
		}
		return fmt.Errorf("put object %s: %w", key, err)
	}

	b.logger.Info("object uploaded", "key", key, "bytes", len(data))
	return nil
}
