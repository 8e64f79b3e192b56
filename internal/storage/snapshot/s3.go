package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// s3API is the subset of the S3 client used by S3Backend.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backend stores the mapping as one object. PutObject replaces the object
// atomically, so readers never see a partial document.
type S3Backend struct {
	api    s3API
	bucket string
	key    string
}

func NewS3Backend(api s3API, bucket, key string) (*S3Backend, error) {
	if api == nil {
		return nil, errors.New("snapshot: s3 client must not be nil")
	}
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(key) == "" {
		return nil, errors.New("snapshot: s3 bucket and key must not be empty")
	}
	return &S3Backend{api: api, bucket: bucket, key: key}, nil
}

// ParseS3URL splits "s3://bucket/path/to/key" into bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("snapshot: parse %q: %w", raw, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("snapshot: %q is not an s3:// location", raw)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("snapshot: %q must name a bucket and key", raw)
	}
	return bucket, key, nil
}

// IsS3URL reports whether location selects the S3 backend.
func IsS3URL(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

func (b *S3Backend) Load(ctx context.Context) (Data, error) {
	out, err := b.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return Data{}, nil
		}
		return nil, fmt.Errorf("snapshot: s3 get %s/%s: %w", b.bucket, b.key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: s3 read body: %w", err)
	}
	return decode(raw)
}

func (b *S3Backend) Save(ctx context.Context, data Data) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	_, err = b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key),
		Body:          bytes.NewReader(raw),
		ContentLength: aws.Int64(int64(len(raw))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("snapshot: s3 put %s/%s: %w", b.bucket, b.key, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
