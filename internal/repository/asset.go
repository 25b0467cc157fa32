package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/studyshare/backend/internal/model"
)

var (
	ErrAssetNotFound = errors.New("file not found")
	ErrInvalidAsset  = errors.New("invalid file record")
)

type AssetRepository interface {
	Create(ctx context.Context, asset *model.Asset) error
	ByID(ctx context.Context, id string) (*model.Asset, error)
	All(ctx context.Context) ([]*model.Asset, error)
	ByOwner(ctx context.Context, ownerID string) ([]*model.Asset, error)
	IncrementDownloads(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (*model.Asset, error)
	Locators(ctx context.Context) (map[string]struct{}, error)
}

type assetRepository struct {
	db *sqlx.DB
}

func NewAssetRepository(db *sqlx.DB) AssetRepository {
	return &assetRepository{db: db}
}

// decorated selects files joined with the uploader's public fields
const decorated = `SELECT f.*, u.name AS uploader_name, u.email AS uploader_email
	FROM files f
	LEFT JOIN users u ON f.uploaded_by = u.id`

func (r *assetRepository) Create(ctx context.Context, asset *model.Asset) error {
	switch {
	case asset.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidAsset)
	case asset.StoredName == "":
		return fmt.Errorf("%w: stored name is required", ErrInvalidAsset)
	case asset.OwnerID == "":
		return fmt.Errorf("%w: owner is required", ErrInvalidAsset)
	case asset.ContentType == "":
		return fmt.Errorf("%w: content type is required", ErrInvalidAsset)
	case asset.Locator == "":
		return fmt.Errorf("%w: locator is required", ErrInvalidAsset)
	case asset.Size < 0:
		return fmt.Errorf("%w: size must not be negative", ErrInvalidAsset)
	}

	query := `INSERT INTO files (id, filename, original_name, mime_type, size, storage_path, uploaded_by, downloads, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		asset.ID,
		asset.StoredName,
		asset.DisplayName,
		asset.ContentType,
		asset.Size,
		asset.Locator,
		asset.OwnerID,
		asset.Downloads,
		asset.CreatedAt,
		asset.UpdatedAt,
	)

	return err
}

func (r *assetRepository) ByID(ctx context.Context, id string) (*model.Asset, error) {
	asset := &model.Asset{}
	query := decorated + ` WHERE f.id = $1`

	err := r.db.GetContext(ctx, asset, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}

	return asset, nil
}

func (r *assetRepository) All(ctx context.Context) ([]*model.Asset, error) {
	assets := []*model.Asset{}
	query := decorated + ` ORDER BY f.created_at DESC, f.id DESC`

	err := r.db.SelectContext(ctx, &assets, query)
	if err != nil {
		return nil, err
	}

	return assets, nil
}

func (r *assetRepository) ByOwner(ctx context.Context, ownerID string) ([]*model.Asset, error) {
	assets := []*model.Asset{}
	query := decorated + ` WHERE f.uploaded_by = $1 ORDER BY f.created_at DESC, f.id DESC`

	err := r.db.SelectContext(ctx, &assets, query, ownerID)
	if err != nil {
		return nil, err
	}

	return assets, nil
}

// IncrementDownloads bumps the counter in a single statement so concurrent
// downloads never lose an update.
func (r *assetRepository) IncrementDownloads(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE files SET downloads = downloads + 1, updated_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrAssetNotFound
	}

	return nil
}

// Delete removes the row and returns its prior state.
func (r *assetRepository) Delete(ctx context.Context, id string) (*model.Asset, error) {
	asset := &model.Asset{}
	query := `DELETE FROM files WHERE id = $1 RETURNING *`

	err := r.db.GetContext(ctx, asset, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}

	return asset, nil
}

func (r *assetRepository) Locators(ctx context.Context) (map[string]struct{}, error) {
	var locators []string
	query := `SELECT storage_path FROM files`

	err := r.db.SelectContext(ctx, &locators, query)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(locators))
	for _, l := range locators {
		set[l] = struct{}{}
	}
	return set, nil
}
