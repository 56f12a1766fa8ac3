// Package archive uploads rendered documents to S3.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// S3 stores objects under prefix in one bucket.
type S3 struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
}

// NewS3 builds an uploader from the default AWS credential chain. endpoint
// may point at an S3-compatible service.
func NewS3(region, endpoint, bucket, prefix string) (*S3, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return New(s3manager.NewUploader(sess), bucket, prefix), nil
}

// New wraps an existing uploader.
func New(uploader s3manageriface.UploaderAPI, bucket, prefix string) *S3 {
	return &S3{uploader: uploader, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key for name.
func (s *S3) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put uploads body under name and returns the object URL.
func (s *S3) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	key := s.Key(name)
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to %s: %w", key, s.bucket, err)
	}
	if out != nil && out.Location != "" {
		return out.Location, nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key), nil
}
