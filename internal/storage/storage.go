package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	cfg "github.com/studyshare/backend/internal/config"
)

var (
	ErrBlobNotFound   = errors.New("blob not found")
	ErrInvalidLocator = errors.New("invalid locator")
)

// Storage persists uploaded bytes under server-generated names.
// Locators are slash-separated keys relative to the backend root.
type Storage interface {
	// Put writes r under a fresh name and returns its locator and the exact byte count
	Put(ctx context.Context, r io.Reader, ext string) (locator string, size int64, err error)

	// Exists reports whether a blob is present at locator
	Exists(ctx context.Context, locator string) (bool, error)

	// Open returns a reader for the blob, ErrBlobNotFound if it is gone
	Open(ctx context.Context, locator string) (io.ReadCloser, error)

	// Remove deletes the blob; a missing blob is not an error
	Remove(ctx context.Context, locator string) error

	// List returns every stored blob
	List(ctx context.Context) ([]BlobInfo, error)
}

type BlobInfo struct {
	Locator    string
	Size       int64
	ModifiedAt time.Time
}

// prefix groups uploaded files under one folder in every backend
const prefix = "files"

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// newLocator builds "files/<uuid>-<unix millis><ext>". The extension is kept
// only for content-type inference and is dropped when it looks suspicious.
func newLocator(ext string) string {
	ext = strings.ToLower(ext)
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	name := fmt.Sprintf("%s-%d%s", uuid.New().String(), time.Now().UnixMilli(), ext)
	return path.Join(prefix, name)
}

// Name returns the stored file name portion of a locator.
func Name(locator string) string {
	return path.Base(locator)
}

func validateLocator(locator string) error {
	if locator == "" || strings.HasPrefix(locator, "/") || strings.Contains(locator, "\\") {
		return ErrInvalidLocator
	}
	clean := path.Clean(locator)
	if clean != locator || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return ErrInvalidLocator
	}
	return nil
}

// New creates the storage backend selected by STORAGE_DRIVER.
func New(ctx context.Context, c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "s3":
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(ctx, S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	case "local", "":
		slog.Info("initializing local storage", "dir", c.UploadDir)
		return NewLocalStorage(c.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
