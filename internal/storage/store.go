package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "storage")

// ErrDisabled is returned by every operation of the "none" backend
var ErrDisabled = errors.New("object storage disabled")

// Store keeps uploaded originals
type Store interface {
	Name() string
	// Upload writes the object and returns its path as stored in the database
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, objectPath string) error
	Ping(ctx context.Context) error
}

// New creates the backend named in configuration. "none" returns a Store that
// refuses every call.
func New(ctx context.Context, backend, bucket string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", "minio":
		return NewMinioStore(ctx, bucket)
	case "gcs":
		return NewGCSStore(ctx, bucket)
	case "none":
		return noopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}

// ObjectName returns the key for a new upload: uploads/YYYY/MM/<uuid><ext>
func ObjectName(now time.Time, id uuid.UUID, ext string) string {
	return fmt.Sprintf("uploads/%d/%02d/%s%s", now.Year(), now.Month(), id, strings.ToLower(ext))
}

// ContentTypeFor maps a supported file extension to its MIME type
func ContentTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// trimBucket strips a leading "<bucket>/" from a stored path
func trimBucket(bucket, objectPath string) string {
	return strings.TrimPrefix(objectPath, bucket+"/")
}

func joinBucket(bucket, objectName string) string {
	return path.Join(bucket, objectName)
}

type noopStore struct{}

func (noopStore) Name() string { return "none" }

func (noopStore) Upload(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", ErrDisabled
}

func (noopStore) PresignedURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrDisabled
}

func (noopStore) Delete(context.Context, string) error { return ErrDisabled }

func (noopStore) Ping(context.Context) error { return ErrDisabled }
