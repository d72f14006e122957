package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/basel-ax/gallery/internal/config"
	"github.com/basel-ax/gallery/internal/logging"
)

// ErrForeignObject is returned for image URLs that do not point into the configured bucket
var ErrForeignObject = errors.New("image is not stored in the configured bucket")

// S3API is the subset of the S3 client used to remove image objects
type S3API interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Remover deletes the object behind a history record's image URL from an S3 compatible bucket
type S3Remover struct {
	client  S3API
	bucket  string
	baseURL *url.URL
}

// NewS3Remover creates a remover with an S3 client built from the OSS configuration
func NewS3Remover(ctx context.Context, cfg config.OSSConfig) (*S3Remover, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !strings.Contains(endpoint, "://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3RemoverWithClient(client, cfg.Bucket, cfg.PublicBaseURL)
}

// NewS3RemoverWithClient creates a remover on top of an existing client.
// publicBaseURL is the prefix image URLs are served from; it may be empty when only s3:// URLs are stored.
func NewS3RemoverWithClient(client S3API, bucket, publicBaseURL string) (*S3Remover, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}

	r := &S3Remover{client: client, bucket: bucket}
	if publicBaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(publicBaseURL, "/"))
		if err != nil {
			return nil, fmt.Errorf("invalid public base URL: %w", err)
		}
		r.baseURL = u
	}
	return r, nil
}

// ObjectKey maps an image URL to its key in the bucket
func (r *S3Remover) ObjectKey(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrForeignObject, err)
	}

	var key string
	switch {
	case u.Scheme == "s3":
		if u.Host != r.bucket {
			return "", ErrForeignObject
		}
		key = u.Path
	case r.baseURL != nil && strings.EqualFold(u.Scheme, r.baseURL.Scheme) && strings.EqualFold(u.Host, r.baseURL.Host):
		prefix := r.baseURL.Path + "/"
		if !strings.HasPrefix(u.Path, prefix) {
			return "", ErrForeignObject
		}
		key = strings.TrimPrefix(u.Path, prefix)
	default:
		return "", ErrForeignObject
	}

	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrForeignObject
	}
	return key, nil
}

// RemoveObject deletes the object the image URL points to
func (r *S3Remover) RemoveObject(ctx context.Context, imageURL string) error {
	key, err := r.ObjectKey(imageURL)
	if err != nil {
		return err
	}

	if _, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete object %s/%s: %w", r.bucket, key, err)
	}

	logging.WithFields(map[string]interface{}{
		"bucket": r.bucket,
		"key":    key,
	}).Debug("Removed image object")
	return nil
}
