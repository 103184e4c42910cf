package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/helpers"
)

const catalogColumns = `id, disk, path, name, full_path, sizes, status, saved_at, deleted_at, updated_at`

type catalogRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewCatalogRepository(db *dbpg.DB, strategy retry.Strategy) domain.CatalogRepository {
	return &catalogRepository{
		db:       db,
		strategy: strategy,
	}
}

// Upsert stores a saved image; saving over an existing path revives it.
func (r *catalogRepository) Upsert(ctx context.Context, image *domain.CatalogImage) error {
	query := `
		INSERT INTO images (` + catalogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (disk, full_path) DO UPDATE
		SET path = EXCLUDED.path,
		    name = EXCLUDED.name,
		    sizes = EXCLUDED.sizes,
		    status = EXCLUDED.status,
		    saved_at = EXCLUDED.saved_at,
		    deleted_at = NULL,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		image.ID,
		image.Disk,
		image.Path,
		image.Name,
		image.FullPath,
		nullString(helpers.JoinList(image.Sizes)),
		image.Status,
		image.SavedAt,
		image.DeletedAt,
		image.UpdatedAt,
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("full_path", image.FullPath).Msg("failed to upsert catalog image")
		return fmt.Errorf("upsert catalog image: %w", err)
	}

	zlog.Logger.Info().Str("disk", image.Disk).Str("full_path", image.FullPath).Msg("catalog image stored")
	return nil
}

func (r *catalogRepository) MarkDeleted(ctx context.Context, disk, fullPath string, at time.Time) error {
	query := `
		UPDATE images
		SET status = $3, deleted_at = $4, updated_at = $4
		WHERE disk = $1 AND full_path = $2
	`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, disk, fullPath, domain.CatalogDeleted, at)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("full_path", fullPath).Msg("failed to mark catalog image deleted")
		return fmt.Errorf("mark catalog image deleted: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFound("catalog image %s:%s", disk, fullPath)
	}
	return nil
}

func (r *catalogRepository) FindByPath(ctx context.Context, disk, fullPath string) (*domain.CatalogImage, error) {
	query := `SELECT ` + catalogColumns + ` FROM images WHERE disk = $1 AND full_path = $2`

	row := r.db.Master.QueryRowContext(ctx, query, disk, fullPath)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("catalog image %s:%s", disk, fullPath)
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("full_path", fullPath).Msg("failed to find catalog image")
		return nil, fmt.Errorf("find catalog image: %w", err)
	}
	return img, nil
}

// List returns images newest first. An empty status lists every image.
func (r *catalogRepository) List(ctx context.Context, status domain.CatalogStatus, limit, offset int) ([]*domain.CatalogImage, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM images
		WHERE ($1 = '' OR status = $1)
		ORDER BY saved_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, string(status), limit, offset)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("status", string(status)).Msg("failed to list catalog images")
		return nil, fmt.Errorf("list catalog images: %w", err)
	}
	defer rows.Close()

	var images []*domain.CatalogImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return images, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImage(s scanner) (*domain.CatalogImage, error) {
	var img domain.CatalogImage
	var sizes sql.NullString
	var deletedAt sql.NullTime

	err := s.Scan(
		&img.ID,
		&img.Disk,
		&img.Path,
		&img.Name,
		&img.FullPath,
		&sizes,
		&img.Status,
		&img.SavedAt,
		&deletedAt,
		&img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sizes.Valid {
		img.Sizes = helpers.SplitList(sizes.String)
	}
	if deletedAt.Valid {
		img.DeletedAt = &deletedAt.Time
	}
	return &img, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
