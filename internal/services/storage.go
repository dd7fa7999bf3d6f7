// services/storage.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/tradeyard/marketplace-backend/internal/config"
)

// ImageStore persists uploaded image files under a caller-chosen name.
// Names are deterministic (derived from user and listing IDs) so the same
// store can later remove or serve them.
type ImageStore interface {
	Save(file *multipart.FileHeader, name string) error
	Remove(name string) error
	URL(name string) string
}

// NewImageStores returns the listing-image store and the avatar store for
// the configured backend.
func NewImageStores(cfg *config.Config) (ImageStore, ImageStore, error) {
	if cfg.StorageBackend == "s3" {
		uploads := NewS3ImageStore(cfg, "uploads")
		avatars := NewS3ImageStore(cfg, "avatars")
		return uploads, avatars, nil
	}

	uploads, err := NewLocalImageStore(cfg.UploadDir, "/uploads")
	if err != nil {
		return nil, nil, err
	}
	avatars, err := NewLocalImageStore(cfg.AvatarDir, "/avatars")
	if err != nil {
		return nil, nil, err
	}
	return uploads, avatars, nil
}

type LocalImageStore struct {
	dir       string
	urlPrefix string
}

func NewLocalImageStore(dir, urlPrefix string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
	}
	return &LocalImageStore{dir: dir, urlPrefix: urlPrefix}, nil
}

func (s *LocalImageStore) Dir() string {
	return s.dir
}

func (s *LocalImageStore) Save(file *multipart.FileHeader, name string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *LocalImageStore) Remove(name string) error {
	return os.Remove(filepath.Join(s.dir, name))
}

func (s *LocalImageStore) URL(name string) string {
	return s.urlPrefix + "/" + name
}

type S3ImageStore struct {
	client *s3.S3
	bucket string
	region string
	prefix string
}

func NewS3ImageStore(cfg *config.Config, prefix string) *S3ImageStore {
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(cfg.S3Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		),
	}))

	return &S3ImageStore{
		client: s3.New(sess),
		bucket: cfg.S3BucketName,
		region: cfg.S3Region,
		prefix: prefix,
	}
}

func (s *S3ImageStore) key(name string) string {
	return s.prefix + "/" + name
}

func (s *S3ImageStore) Save(file *multipart.FileHeader, name string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	buffer := bytes.NewBuffer(nil)
	if _, err := io.Copy(buffer, src); err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	contentType := file.Header.Get("Content-Type")
	_, err = s.client.PutObject(&s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(s.key(name)),
		Body:         bytes.NewReader(buffer.Bytes()),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=31536000"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (s *S3ImageStore) Remove(name string) error {
	_, err := s.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

func (s *S3ImageStore) URL(name string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, s.key(name))
}
