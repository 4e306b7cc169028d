package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used here, so tests can swap it.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3FileStore keeps uploads as objects under prefix in bucket.
type S3FileStore struct {
	client S3API
	bucket string
	prefix string
}

// NewS3FileStore loads the default AWS credential chain for region.
func NewS3FileStore(ctx context.Context, region, bucket, prefix string) (*S3FileStore, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3FileStoreWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func NewS3FileStoreWithClient(client S3API, bucket, prefix string) *S3FileStore {
	return &S3FileStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3FileStore) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *S3FileStore) Save(ctx context.Context, name string, content io.Reader, contentType string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3: %w", name, err)
	}
	return nil
}

func (s *S3FileStore) Delete(ctx context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from s3: %w", name, err)
	}
	return nil
}
