package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/dto"
	"github.com/yokitheyo/imagekit/internal/metrics"
)

// CatalogWorker проецирует события изображений в каталог
type CatalogWorker struct {
	repo  domain.CatalogRepository
	now   func() time.Time
	newID func() string
}

func NewCatalogWorker(repo domain.CatalogRepository) *CatalogWorker {
	return &CatalogWorker{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (w *CatalogWorker) HandleEvent(ctx context.Context, msg *dto.ImageEventMessage) error {
	var err error
	switch msg.Type {
	case dto.EventSaved:
		err = w.saved(ctx, msg)
	case dto.EventDeleted:
		err = w.deleted(ctx, msg)
	default:
		err = fmt.Errorf("invalid image event type: %s", msg.Type)
	}

	status := "success"
	if err != nil {
		status = "error"
		zlog.Logger.Error().
			Err(err).
			Str("type", msg.Type).
			Str("disk", msg.Disk).
			Str("full_path", msg.FullPath).
			Msg("failed to project image event")
	}
	metrics.RecordCatalogEvent(msg.Type, status)
	return err
}

func (w *CatalogWorker) saved(ctx context.Context, msg *dto.ImageEventMessage) error {
	now := w.now()
	savedAt := msg.At
	if savedAt.IsZero() {
		savedAt = now
	}

	img := &domain.CatalogImage{
		ID:        w.newID(),
		Disk:      msg.Disk,
		Path:      msg.Path,
		Name:      msg.Name,
		FullPath:  msg.FullPath,
		Sizes:     msg.Sizes,
		Status:    domain.CatalogStored,
		SavedAt:   savedAt,
		UpdatedAt: now,
	}
	if err := w.repo.Upsert(ctx, img); err != nil {
		return fmt.Errorf("project saved image %s: %w", msg.FullPath, err)
	}

	zlog.Logger.Info().Str("disk", msg.Disk).Str("full_path", msg.FullPath).Msg("catalog image saved")
	return nil
}

// deleted marks the entry removed. Failed deletes and unknown paths leave the
// catalog unchanged.
func (w *CatalogWorker) deleted(ctx context.Context, msg *dto.ImageEventMessage) error {
	if !msg.Deleted {
		zlog.Logger.Debug().Str("full_path", msg.FullPath).Msg("delete attempt had no effect, catalog unchanged")
		return nil
	}

	at := msg.At
	if at.IsZero() {
		at = w.now()
	}
	err := w.repo.MarkDeleted(ctx, msg.Disk, msg.FullPath, at)
	if errors.Is(err, domain.ErrNotFound) {
		zlog.Logger.Warn().Str("disk", msg.Disk).Str("full_path", msg.FullPath).Msg("deleted image is not in catalog")
		return nil
	}
	if err != nil {
		return fmt.Errorf("project deleted image %s: %w", msg.FullPath, err)
	}

	zlog.Logger.Info().Str("disk", msg.Disk).Str("full_path", msg.FullPath).Msg("catalog image deleted")
	return nil
}
