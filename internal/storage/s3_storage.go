package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadURLExpiry = 15 * time.Minute

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// S3Storage serves product images from a bucket. With a base URL (a CDN in
// front of the bucket) image URLs are plain joins; otherwise they are
// presigned GETs.
type S3Storage struct {
	client        *s3.Client
	presign       *s3.PresignClient
	bucket        string
	baseURL       string
	presignExpiry time.Duration
}

type S3Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string
	PresignExpiry   time.Duration
}

type PresignedUpload struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
}

func NewS3Storage(ctx context.Context, opts S3Options) *S3Storage {
	var cfg aws.Config
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg = aws.Config{
			Region: opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				"",
			),
		}
	} else {
		var err error
		cfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
		if err != nil {
			cfg = aws.Config{Region: opts.Region}
		}
	}

	expiry := opts.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	client := s3.NewFromConfig(cfg)
	return &S3Storage{
		client:        client,
		presign:       s3.NewPresignClient(client),
		bucket:        opts.Bucket,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		presignExpiry: expiry,
	}
}

// ResolveURL returns a fetchable URL for an image key.
func (s *S3Storage) ResolveURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty image key")
	}
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, strings.TrimLeft(key, "/")), nil
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign image URL: %w", err)
	}
	return req.URL, nil
}

// PresignUpload returns a short-lived PUT URL for a new image of productID.
func (s *S3Storage) PresignUpload(ctx context.Context, productID, filename, contentType string) (*PresignedUpload, error) {
	if err := ValidateContentType(contentType, allowedImageTypes); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("products/%s/%s%s", productID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadURLExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		Key:       key,
	}, nil
}

func ValidateContentType(contentType string, allowedTypes []string) error {
	for _, allowed := range allowedTypes {
		if contentType == allowed {
			return nil
		}
	}
	return fmt.Errorf("content type %q is not allowed", contentType)
}
