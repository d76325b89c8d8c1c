package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"storefront/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog/log"
)

// ImageStorage deletes image files referenced by product paths.
type ImageStorage interface {
	Delete(ctx context.Context, ref string) error
}

// NewImageStorage picks the driver named in configuration.
func NewImageStorage(cfg config.ImagesConfig) (ImageStorage, error) {
	switch cfg.Driver {
	case config.ImagesS3:
		return NewS3ImageStorage(cfg.S3)
	case config.ImagesLocal, "":
		return NewLocalImageStorage(cfg.Root), nil
	}
	return nil, fmt.Errorf("unknown image storage driver %q", cfg.Driver)
}

// LocalImageStorage keeps images under a directory served as static files.
type LocalImageStorage struct {
	root string
}

func NewLocalImageStorage(root string) *LocalImageStorage {
	return &LocalImageStorage{root: root}
}

// Delete removes the file ref points to. A missing file is not an error.
func (s *LocalImageStorage) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	log.Info().Str("path", path).Msg("Image file deleted")
	return nil
}

func (s *LocalImageStorage) resolve(ref string) (string, error) {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return "", fmt.Errorf("image %q is not a local path", ref)
	}

	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	path := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(ref, "/")))
	if path == root || !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", fmt.Errorf("image %q escapes storage root", ref)
	}
	return path, nil
}

// S3ImageStorage deletes objects from an S3-compatible bucket
type S3ImageStorage struct {
	s3Client  *s3.S3
	bucket    string
	publicURL string
}

// NewS3ImageStorage creates a new S3 storage client
func NewS3ImageStorage(cfg config.S3Config) (*S3ImageStorage, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 configuration missing")
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s", cfg.Bucket)
	}

	return &S3ImageStorage{
		s3Client:  s3.New(sess),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// ObjectKey maps an image reference to its key in the bucket.
func (s *S3ImageStorage) ObjectKey(ref string) string {
	key := strings.TrimPrefix(ref, s.publicURL)
	return strings.TrimPrefix(key, "/")
}

// Delete deletes a file from S3
func (s *S3ImageStorage) Delete(ctx context.Context, ref string) error {
	key := s.ObjectKey(ref)
	if key == "" {
		return fmt.Errorf("empty object key for image %q", ref)
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	log.Info().Str("key", key).Msg("File deleted from S3")
	return nil
}
