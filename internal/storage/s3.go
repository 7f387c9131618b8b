// Package storage holds uploaded source documents in S3-compatible
// object storage (DigitalOcean Spaces).
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Client struct {
	client    *s3.Client
	bucket    string
	cdnDomain string // DigitalOcean CDN domain for faster downloads
}

type UploadResult struct {
	Key      string
	URL      string
	Size     int64
	Checksum string
}

// NewS3Client creates a new S3 client configured for DigitalOcean Spaces
func NewS3Client(endpoint, region, bucket, accessKeyID, secretAccessKey string) (*S3Client, error) {
	cdnDomain := fmt.Sprintf("https://%s.%s.cdn.digitaloceanspaces.com", bucket, region)

	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if service == s3.ServiceID {
			return aws.Endpoint{
				URL:           endpoint,
				SigningRegion: region,
			}, nil
		}
		return aws.Endpoint{}, fmt.Errorf("unknown endpoint requested")
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(customResolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, secretAccessKey, "",
		)),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true // Required for DigitalOcean Spaces
	})

	return &S3Client{
		client:    client,
		bucket:    bucket,
		cdnDomain: cdnDomain,
	}, nil
}

// MaterialKey builds the object key for an uploaded source document.
// Keys are namespaced per user so listing and cleanup stay scoped.
func MaterialKey(userID, materialID, filename string) string {
	return fmt.Sprintf("users/%s/materials/%s/%s", userID, materialID, filepath.Base(filename))
}

// UploadFile uploads a document and returns its key, CDN URL and size.
func (s *S3Client) UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (*UploadResult, error) {
	putInput := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate, // Private by default
	}

	result, err := s.client.PutObject(ctx, putInput)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	headInput := &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}

	headOutput, err := s.client.HeadObject(ctx, headInput)
	if err != nil {
		return nil, fmt.Errorf("failed to get object info: %w", err)
	}

	var size int64
	if headOutput.ContentLength != nil {
		size = *headOutput.ContentLength
	}

	return &UploadResult{
		Key:      key,
		URL:      fmt.Sprintf("%s/%s", s.cdnDomain, key),
		Size:     size,
		Checksum: aws.ToString(result.ETag),
	}, nil
}

// GeneratePresignedURL creates a presigned URL for downloading a file
func (s *S3Client) GeneratePresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	getInput := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}

	url, err := presignClient.PresignGetObject(ctx, getInput, func(opts *s3.PresignOptions) {
		opts.Expires = expiration
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.URL, nil
}

// ListMaterialFiles lists the stored source documents for one material.
func (s *S3Client) ListMaterialFiles(ctx context.Context, userID, materialID string) ([]string, error) {
	prefix := fmt.Sprintf("users/%s/materials/%s/", userID, materialID)

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}

	result, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	var keys []string
	for _, obj := range result.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}

	return keys, nil
}

// DeleteMaterialFiles removes every stored document for a material.
func (s *S3Client) DeleteMaterialFiles(ctx context.Context, userID, materialID string) error {
	keys, err := s.ListMaterialFiles(ctx, userID, materialID)
	if err != nil {
		return err
	}

	for _, key := range keys {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

// ContentTypeFor returns the content type for an uploaded document based
// on its file extension.
func ContentTypeFor(filename string) string {
	switch filepath.Ext(filename) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
