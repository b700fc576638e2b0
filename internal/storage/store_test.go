package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestObjectName(t *testing.T) {
	id := uuid.MustParse("9b2d1c3e-8f1a-4c55-9e2b-1a2b3c4d5e6f")
	now := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	got := ObjectName(now, id, ".PDF")
	if want := "uploads/2026/03/9b2d1c3e-8f1a-4c55-9e2b-1a2b3c4d5e6f.pdf"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		".jpg":  "image/jpeg",
		".JPEG": "image/jpeg",
		".png":  "image/png",
		".bmp":  "image/bmp",
		".tif":  "image/tiff",
		".tiff": "image/tiff",
		".pdf":  "application/pdf",
		".exe":  "application/octet-stream",
	}
	for ext, want := range tests {
		if got := ContentTypeFor(ext); got != want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", ext, got, want)
		}
	}
}

func TestTrimBucket(t *testing.T) {
	if got := trimBucket("documents", "documents/uploads/a.png"); got != "uploads/a.png" {
		t.Fatalf("got %q", got)
	}
	if got := trimBucket("documents", "uploads/a.png"); got != "uploads/a.png" {
		t.Fatalf("got %q", got)
	}
	if got := joinBucket("documents", "uploads/a.png"); got != "documents/uploads/a.png" {
		t.Fatalf("got %q", got)
	}
}

func TestNewNoneBackend(t *testing.T) {
	s, err := New(context.Background(), "none", "documents")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Name() != "none" {
		t.Fatalf("name = %q", s.Name())
	}
	if _, err := s.Upload(context.Background(), "x", strings.NewReader("y"), 1, "text/plain"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), "dropbox", "b"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewMinioRequiresCredentials(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY", "")
	t.Setenv("MINIO_SECRET_KEY", "")
	if _, err := NewMinioStore(context.Background(), "documents"); err == nil {
		t.Fatal("expected error without credentials")
	}
}
