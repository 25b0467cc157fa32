package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const tempPrefix = ".upload-"

// LocalStorage keeps blobs in a directory on the local filesystem.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload dir: %w", err)
	}

	err = os.MkdirAll(filepath.Join(abs, prefix), 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	return &LocalStorage{root: abs}, nil
}

// resolve maps a locator to an absolute path inside root
func (s *LocalStorage) resolve(locator string) (string, error) {
	err := validateLocator(locator)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(locator))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidLocator
	}
	return full, nil
}

// Put writes to a temp file in the target directory and renames it into place,
// so a reader never observes a partially written blob.
func (s *LocalStorage) Put(ctx context.Context, r io.Reader, ext string) (string, int64, error) {
	locator := newLocator(ext)
	dest, err := s.resolve(locator)
	if err != nil {
		return "", 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), tempPrefix+"*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	size, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	err = os.Rename(tmpPath, dest)
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", 0, fmt.Errorf("failed to move file into place: %w", err)
	}

	return locator, size, nil
}

func (s *LocalStorage) Exists(ctx context.Context, locator string) (bool, error) {
	p, err := s.resolve(locator)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (s *LocalStorage) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	p, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Remove(ctx context.Context, locator string) error {
	p, err := s.resolve(locator)
	if err != nil {
		return err
	}

	err = os.Remove(p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// List returns the blobs under the upload prefix. Other files in root are
// not blobs and are left out.
func (s *LocalStorage) List(ctx context.Context) ([]BlobInfo, error) {
	var blobs []BlobInfo

	err := filepath.WalkDir(filepath.Join(s.root, prefix), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}

		blobs = append(blobs, BlobInfo{
			Locator:    filepath.ToSlash(rel),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return blobs, nil
}

// ctxReader stops a copy once the request context is cancelled
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	err := c.ctx.Err()
	if err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
