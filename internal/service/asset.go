package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studyshare/backend/internal/model"
	"github.com/studyshare/backend/internal/repository"
	"github.com/studyshare/backend/internal/storage"
	"github.com/studyshare/backend/internal/validation"
)

var (
	ErrAssetNotFound = errors.New("file not found")
	ErrBlobMissing   = errors.New("file not found on server")
)

// Action is something a principal may attempt on an asset.
type Action string

const (
	ActionView     Action = "view"
	ActionDownload Action = "download"
	ActionDelete   Action = "delete"
)

// authorize is the single ownership policy: anyone may view or download,
// only the uploader may delete.
func authorize(action Action, asset *model.Asset, principal *model.Principal) bool {
	switch action {
	case ActionView, ActionDownload:
		return true
	case ActionDelete:
		return principal != nil && principal.ID != "" && principal.ID == asset.OwnerID
	default:
		return false
	}
}

type AssetService struct {
	assets      repository.AssetRepository
	storage     storage.Storage
	constraints validation.FileConstraints
	now         func() time.Time
}

func NewAssetService(assets repository.AssetRepository, storage storage.Storage, constraints validation.FileConstraints) *AssetService {
	return &AssetService{
		assets:      assets,
		storage:     storage,
		constraints: constraints,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// UploadInput is one file as received from the transport layer.
type UploadInput struct {
	Body        io.Reader
	Name        string
	ContentType string
	Size        int64 // Declared size, -1 when unknown
	OwnerID     string
}

// Download is an asset plus an open reader on its bytes. Callers must close Body.
type Download struct {
	Asset *model.Asset
	Body  io.ReadCloser
}

// MaxSize returns the upload cap in bytes
func (s *AssetService) MaxSize() int64 {
	return s.constraints.MaxSize
}

// Ingress validates an upload, writes the blob, then records its metadata.
// A failed metadata insert removes the blob before the error is returned.
func (s *AssetService) Ingress(ctx context.Context, in UploadInput) (*model.Asset, error) {
	if in.OwnerID == "" {
		return nil, newError(KindUnauthenticated, "Unauthorized", nil)
	}

	if in.Body == nil {
		return nil, validationError("No file uploaded", nil)
	}

	contentType := validation.NormalizeContentType(in.ContentType)
	err := s.constraints.ValidateContentType(contentType)
	if err != nil {
		return nil, validationError(err.Error(), err)
	}

	err = s.constraints.ValidateSize(in.Size)
	if err != nil {
		return nil, validationError(err.Error(), err)
	}

	// Read one byte past the cap so an oversized body is detected, not truncated
	limited := io.LimitReader(in.Body, s.constraints.MaxSize+1)

	locator, size, err := s.storage.Put(ctx, limited, filepath.Ext(in.Name))
	if err != nil {
		return nil, internal("Failed to upload file", err)
	}

	err = s.constraints.ValidateSize(size)
	if err != nil {
		s.removeBlob(ctx, locator, "oversized upload")
		return nil, validationError(err.Error(), err)
	}

	now := s.now()
	asset := &model.Asset{
		ID:          uuid.New().String(),
		StoredName:  storage.Name(locator),
		DisplayName: displayName(in.Name, locator),
		ContentType: contentType,
		Size:        size,
		Locator:     locator,
		OwnerID:     in.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.assets.Create(ctx, asset)
	if err != nil {
		s.removeBlob(ctx, locator, "metadata insert failed")
		return nil, internal("Failed to upload file", err)
	}

	slog.Info("file uploaded", "file_id", asset.ID, "owner_id", asset.OwnerID, "size", asset.Size, "mime_type", asset.ContentType)
	return asset, nil
}

// Retrieve returns the asset with the given id.
func (s *AssetService) Retrieve(ctx context.Context, id string) (*model.Asset, error) {
	asset, err := s.assets.ByID(ctx, id)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return nil, notFound("File not found", ErrAssetNotFound)
	}
	if err != nil {
		return nil, internal("Failed to fetch file", err)
	}
	return asset, nil
}

// Stream counts one download and opens the blob. The counter is bumped before
// any byte is sent and is not rolled back if the client goes away.
func (s *AssetService) Stream(ctx context.Context, id string) (*Download, error) {
	asset, err := s.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authorize(ActionDownload, asset, nil) {
		return nil, newError(KindForbidden, "You do not have permission to download this file", nil)
	}

	exists, err := s.storage.Exists(ctx, asset.Locator)
	if err != nil {
		return nil, internal("Failed to download file", err)
	}
	if !exists {
		slog.Error("file missing from storage", "file_id", asset.ID, "locator", asset.Locator)
		return nil, notFound("File not found on server", ErrBlobMissing)
	}

	now := s.now()
	err = s.assets.IncrementDownloads(ctx, id, now)
	if errors.Is(err, repository.ErrAssetNotFound) {
		// Deleted between lookup and increment
		return nil, notFound("File not found", ErrAssetNotFound)
	}
	if err != nil {
		return nil, internal("Failed to download file", err)
	}
	asset.Downloads++
	asset.UpdatedAt = now

	body, err := s.storage.Open(ctx, asset.Locator)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, notFound("File not found on server", ErrBlobMissing)
	}
	if err != nil {
		return nil, internal("Failed to read file", err)
	}

	return &Download{Asset: asset, Body: body}, nil
}

// Delete removes an asset owned by principal. The metadata row goes first and
// is authoritative; a blob that fails to delete is only logged.
func (s *AssetService) Delete(ctx context.Context, id string, principal *model.Principal) (*model.Asset, error) {
	if principal == nil || principal.ID == "" {
		return nil, newError(KindUnauthenticated, "Unauthorized", nil)
	}

	asset, err := s.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authorize(ActionDelete, asset, principal) {
		slog.Warn("file delete forbidden", "file_id", id, "owner_id", asset.OwnerID, "principal_id", principal.ID)
		return nil, newError(KindForbidden, "You do not have permission to delete this file", nil)
	}

	deleted, err := s.assets.Delete(ctx, id)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return nil, notFound("File not found", ErrAssetNotFound)
	}
	if err != nil {
		return nil, internal("Failed to delete file", err)
	}

	s.removeBlob(ctx, deleted.Locator, "file deleted")

	deleted.UploaderName = asset.UploaderName
	deleted.UploaderEmail = asset.UploaderEmail

	slog.Info("file deleted", "file_id", id, "owner_id", principal.ID)
	return deleted, nil
}

// List returns every asset, most recently created first.
func (s *AssetService) List(ctx context.Context) ([]*model.Asset, error) {
	assets, err := s.assets.All(ctx)
	if err != nil {
		return nil, internal("Failed to fetch files", err)
	}
	return assets, nil
}

// ListMine returns the assets uploaded by ownerID, most recently created first.
func (s *AssetService) ListMine(ctx context.Context, ownerID string) ([]*model.Asset, error) {
	if ownerID == "" {
		return nil, newError(KindUnauthenticated, "Unauthorized", nil)
	}

	assets, err := s.assets.ByOwner(ctx, ownerID)
	if err != nil {
		return nil, internal("Failed to fetch files", err)
	}
	return assets, nil
}

// SweepOrphans removes blobs that no record references and that are older than
// grace. The grace window leaves in-flight uploads alone.
func (s *AssetService) SweepOrphans(ctx context.Context, grace time.Duration) (int, error) {
	// Blobs are listed before locators so every listed blob that already has a
	// record shows up in the locator set.
	blobs, err := s.storage.List(ctx)
	if err != nil {
		return 0, internal("Failed to list stored files", err)
	}

	referenced, err := s.assets.Locators(ctx)
	if err != nil {
		return 0, internal("Failed to list file records", err)
	}

	cutoff := s.now().Add(-grace)
	removed := 0
	for _, blob := range blobs {
		if _, ok := referenced[blob.Locator]; ok {
			continue
		}
		if blob.ModifiedAt.After(cutoff) {
			continue
		}

		err = s.storage.Remove(ctx, blob.Locator)
		if err != nil {
			slog.Warn("failed to remove orphaned file", "locator", blob.Locator, "error", err)
			continue
		}
		removed++
		slog.Info("removed orphaned file", "locator", blob.Locator, "size", blob.Size)
	}

	return removed, nil
}

// removeBlob is best effort; it runs even if the request context is done
func (s *AssetService) removeBlob(ctx context.Context, locator, reason string) {
	err := s.storage.Remove(context.WithoutCancel(ctx), locator)
	if err != nil {
		slog.Error("failed to delete file from storage", "error", err, "locator", locator, "reason", reason)
	}
}

// displayName keeps only the last path element of a client supplied name
func displayName(name, locator string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return storage.Name(locator)
	}
	return name
}
