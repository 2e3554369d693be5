package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options selects the bucket and credentials. Empty keys fall back to the default chain.
type Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// StorageService stores report files in one S3 bucket.
type StorageService struct {
	client *s3.Client
	bucket string
}

// NewStorageService creates a new storage service
func NewStorageService(ctx context.Context, opts Options) (*StorageService, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("S3 bucket not configured")
	}

	loaders := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loaders = append(loaders, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &StorageService{client: s3.NewFromConfig(cfg), bucket: opts.Bucket}, nil
}

// Upload puts body under key.
func (s *StorageService) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(strings.TrimPrefix(key, "/")),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// URL is the public object URL of key.
func (s *StorageService) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, strings.TrimPrefix(key, "/"))
}
