package snapshot

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the S3 client. Empty fields fall back to the default
// AWS credential and region chain.
type S3Options struct {
	Region    string
	Endpoint  string // e.g. a MinIO URL; enables path-style addressing
	AccessKey string
	SecretKey string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Client builds an S3 client from opts.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loaders []func(*config.LoadOptions) error
	if opts.Region != "" {
		loaders = append(loaders, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Open selects a backend for location: "s3://bucket/key" uses S3, ":memory:"
// keeps data in process, anything else is a file path.
func Open(ctx context.Context, location string, s3opts S3Options) (Backend, error) {
	switch {
	case location == ":memory:":
		return NewMemoryBackend(nil), nil
	case IsS3URL(location):
		bucket, key, err := ParseS3URL(location)
		if err != nil {
			return nil, err
		}
		client, err := NewS3Client(ctx, s3opts)
		if err != nil {
			return nil, err
		}
		return NewS3Backend(client, bucket, key)
	default:
		return NewFileBackend(location)
	}
}
