package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore keeps originals in a Google Cloud Storage bucket using
// application default credentials.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a GCS backend. GCS_BUCKET overrides bucket when set.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if b := os.Getenv("GCS_BUCKET"); b != "" {
		bucket = b
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	log.WithField("bucket", bucket).Info("GCS storage ready")
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Name() string { return "gcs" }

// Upload writes the object only if it does not exist yet
func (s *GCSStore) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	writer := s.client.Bucket(s.bucket).Object(objectName).
		If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			log.WithField("object", objectName).Warn("object already exists, keeping it")
			return joinBucket(s.bucket, objectName), nil
		}
		return "", fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return joinBucket(s.bucket, objectName), nil
}

// PresignedURL returns a V4 signed GET URL
func (s *GCSStore) PresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	u, err := s.client.Bucket(s.bucket).SignedURL(trimBucket(s.bucket, objectPath), &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL: %w", err)
	}
	return u, nil
}

// Delete removes the object, ignoring objects that are already gone
func (s *GCSStore) Delete(ctx context.Context, objectPath string) error {
	err := s.client.Bucket(s.bucket).Object(trimBucket(s.bucket, objectPath)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSStore) Ping(ctx context.Context) error {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	return err
}
