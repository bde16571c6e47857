package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config contains S3 storage configuration
type S3Config struct {
	Endpoint        string // Optional: Custom endpoint for MinIO or DigitalOcean Spaces
	Region          string
	Bucket          string
	Prefix          string // Optional key prefix inside the bucket
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool // Required for MinIO
}

// S3Storage stores documents and reports in an S3-compatible bucket
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Storage creates a new S3Storage instance
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Storage{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (cfg S3Config) validate() error {
	if cfg.Bucket == "" {
		return fmt.Errorf("S3 bucket name is required")
	}
	if cfg.Region == "" {
		return fmt.Errorf("S3 region is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return fmt.Errorf("S3 credentials are required")
	}
	return nil
}

// objectKey builds prefix/kind/YYYY/MM/slug+ext with forward slashes
func (s *S3Storage) objectKey(kind, slug, ext string, now time.Time) string {
	return path.Join(s.prefix, kind, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), slug+ext)
}

func (s *S3Storage) put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}

// SaveContent uploads a linked HTML document and returns its key
func (s *S3Storage) SaveContent(ctx context.Context, content, slug string) (string, error) {
	key := s.objectKey(kindContent, slug, ".html", time.Now())
	if err := s.put(ctx, key, "text/html; charset=utf-8", []byte(content)); err != nil {
		return "", fmt.Errorf("failed to upload content to S3: %w", err)
	}
	return key, nil
}

// SaveReport uploads a JSON injection report and returns its key
func (s *S3Storage) SaveReport(ctx context.Context, report []byte, slug string) (string, error) {
	key := s.objectKey(kindReports, slug, ".json", time.Now())
	if err := s.put(ctx, key, "application/json", report); err != nil {
		return "", fmt.Errorf("failed to upload report to S3: %w", err)
	}
	return key, nil
}

// ReadContent downloads a stored object
func (s *S3Storage) ReadContent(ctx context.Context, key string) (string, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get content from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read content data from S3: %w", err)
	}
	return string(data), nil
}

// DeleteContent deletes a stored object
func (s *S3Storage) DeleteContent(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete content from S3: %w", err)
	}
	return nil
}

// GetFullPath returns the s3:// URL of a key
func (s *S3Storage) GetFullPath(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}
