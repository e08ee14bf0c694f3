package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"property_portal_backend/internal/listings/ports"
)

const (
	// PresignedURLTTL is the default expiration time for presigned URLs (15 minutes).
	PresignedURLTTL = 15 * time.Minute
)

// PhotoStore implements ports.PhotoStore on MinIO.
type PhotoStore struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
}

// NewPhotoStore creates a MinIO-backed photo store.
func NewPhotoStore(cfg Config) (*PhotoStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &PhotoStore{
		client:      client,
		bucket:      cfg.GetMinioBucketListingPhotos(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
	}, nil
}

// EnsureBucketExists creates the photo bucket if it doesn't exist.
func (s *PhotoStore) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	return nil
}

// GenerateDownloadURL creates a presigned URL for downloading a photo.
func (s *PhotoStore) GenerateDownloadURL(ctx context.Context, handle string) (*PresignedURL, error) {
	key, err := objectKey(handle)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(PresignedURLTTL)
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, key, PresignedURLTTL, make(url.Values))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURL{
		URL:       presignedURL.String(),
		FileKey:   key,
		ExpiresAt: expiresAt,
	}, nil
}

// PhotoURL returns a short-lived download URL for handle.
func (s *PhotoStore) PhotoURL(ctx context.Context, handle string) (string, error) {
	presigned, err := s.GenerateDownloadURL(ctx, handle)
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}

// FetchPhoto downloads the photo and reports its content type. Objects over the
// size limit or that are not images are rejected.
func (s *PhotoStore) FetchPhoto(ctx context.Context, handle string) (ports.PhotoObject, error) {
	key, err := objectKey(handle)
	if err != nil {
		return ports.PhotoObject{}, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return ports.PhotoObject{}, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return ports.PhotoObject{}, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	if err := ValidateFileSize(info.Size, s.maxFileSize); err != nil {
		return ports.PhotoObject{}, fmt.Errorf("object %s: %w", key, err)
	}

	data, err := io.ReadAll(io.LimitReader(obj, info.Size))
	if err != nil {
		return ports.PhotoObject{}, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	contentType := ResolveContentType(info.ContentType, data)
	if err := ValidateImageContentType(contentType); err != nil {
		return ports.PhotoObject{}, fmt.Errorf("object %s: %w", key, err)
	}

	return ports.PhotoObject{Data: data, ContentType: contentType}, nil
}

// objectKey accepts either a bare key or a key prefixed with "/".
func objectKey(handle string) (string, error) {
	key := strings.TrimPrefix(strings.TrimSpace(handle), "/")
	if key == "" {
		return "", fmt.Errorf("empty photo handle")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid photo handle %q", handle)
	}
	return key, nil
}

var _ ports.PhotoStore = (*PhotoStore)(nil)
