package usecase

import (
	"context"
	"net/url"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/events"
	"github.com/yokitheyo/imagekit/internal/infrastructure/storage"
	"github.com/yokitheyo/imagekit/internal/metrics"
	"github.com/yokitheyo/imagekit/internal/pathutil"
)

// target resolves the disk and path for a read or delete. An empty disk
// selects the handler's current disk.
func (h *Handler) target(p, disk string) (string, string, error) {
	h.mu.Lock()
	if disk == "" {
		disk = h.disk
	}
	h.mu.Unlock()

	normalized, err := pathutil.Normalize(p)
	if err != nil {
		return "", "", err
	}
	return normalized, disk, nil
}

func (h *Handler) currentSizes(sizes []string) []string {
	if sizes != nil {
		return sizes
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.sizes...)
}

// DeleteImage removes {dir}/{name} and its derivatives for sizes (the current
// multi-size selection when nil). It reports whether the original was
// deleted; the error is set only for invalid arguments.
func (h *Handler) DeleteImage(ctx context.Context, name, dir string, sizes []string) (bool, error) {
	if err := h.kit.validator.FileName(name); err != nil {
		return false, err
	}
	dir, disk, err := h.target(dir, "")
	if err != nil {
		return false, err
	}
	sizes = h.currentSizes(sizes)
	for _, label := range sizes {
		if err := h.kit.validator.FileName(label); err != nil {
			return false, err
		}
	}

	start := time.Now()
	deleted := h.kit.storage.DeleteImage(ctx, disk, name, dir, sizes)
	metrics.ObserveStep("delete", start)
	if deleted {
		metrics.RecordImage("delete", nil)
	} else {
		metrics.RecordImage("delete", domain.ErrNotFound)
	}

	h.kit.bus.PublishDeleted(events.DeletedEvent{
		Disk:    disk,
		Name:    name,
		Path:    dir,
		Deleted: deleted,
		At:      h.kit.now(),
	})

	zlog.Logger.Info().Str("disk", disk).Str("name", name).Str("path", dir).Bool("deleted", deleted).Msg("delete image")
	return deleted, nil
}

// DeleteGallery deletes every name under dir and returns how many originals
// were removed. One deleted event fires per name.
func (h *Handler) DeleteGallery(ctx context.Context, names []string, dir string, sizes []string) (int, error) {
	for _, name := range names {
		if err := h.kit.validator.FileName(name); err != nil {
			return 0, err
		}
	}
	count := 0
	for _, name := range names {
		deleted, err := h.DeleteImage(ctx, name, dir, sizes)
		if err != nil {
			return count, err
		}
		if deleted {
			count++
		}
	}
	return count, nil
}

// GetImage returns the stored bytes; found is false when the object is absent.
func (h *Handler) GetImage(ctx context.Context, p, disk string) ([]byte, bool, error) {
	p, disk, err := h.target(p, disk)
	if err != nil {
		return nil, false, err
	}
	return h.kit.storage.GetImage(ctx, disk, p)
}

func (h *Handler) URL(p, disk string) (string, error) {
	p, disk, err := h.target(p, disk)
	if err != nil {
		return "", err
	}
	return h.kit.storage.URL(disk, p)
}

// AbsolutePath is only meaningful for filesystem disks.
func (h *Handler) AbsolutePath(p, disk string) (string, error) {
	p, disk, err := h.target(p, disk)
	if err != nil {
		return "", err
	}
	return h.kit.storage.AbsolutePath(disk, p)
}

func (h *Handler) Exists(ctx context.Context, p, disk string) (bool, error) {
	p, disk, err := h.target(p, disk)
	if err != nil {
		return false, err
	}
	return h.kit.storage.Exists(ctx, disk, p)
}

func (h *Handler) Response(ctx context.Context, p, disk string, opts storage.ResponseOptions) (*storage.Response, error) {
	p, disk, err := h.target(p, disk)
	if err != nil {
		return nil, err
	}
	return h.kit.storage.Response(ctx, disk, p, opts)
}

func (h *Handler) Download(ctx context.Context, p, name, disk string, headers map[string]string) (*storage.Response, error) {
	p, disk, err := h.target(p, disk)
	if err != nil {
		return nil, err
	}
	return h.kit.storage.Download(ctx, disk, p, name, headers)
}

func (h *Handler) TemporaryURL(ctx context.Context, p string, expiry time.Duration, disk string, params url.Values) (string, error) {
	p, disk, err := h.target(p, disk)
	if err != nil {
		return "", err
	}
	return h.kit.storage.TemporaryURL(ctx, disk, p, expiry, params)
}
