package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/events"
	"github.com/yokitheyo/imagekit/internal/infrastructure/processor"
	"github.com/yokitheyo/imagekit/internal/infrastructure/storage"
	"github.com/yokitheyo/imagekit/internal/metrics"
	"github.com/yokitheyo/imagekit/internal/pathutil"
	"github.com/yokitheyo/imagekit/internal/upload"
)

// GalleryOptions wraps each gallery result in a row when ImageColumn is set.
// FKColumn is added when FKID is non-zero. AltTexts, when non-nil, supplies a
// per-image alt text by index; otherwise AltText is shared.
type GalleryOptions struct {
	ImageColumn string
	FKColumn    string
	FKID        int64
	AltText     string
	AltTexts    []string
}

// Save runs the pipeline for the staged image. Per-image state is cleared
// whatever the outcome.
func (h *Handler) Save(ctx context.Context) (domain.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	defer h.resetSingle()

	if h.err != nil {
		metrics.RecordImage("save", h.err)
		return domain.Result{}, h.err
	}

	res, err := h.process(ctx, h.image)
	metrics.RecordImage("save", err)
	if err != nil {
		return domain.Result{}, err
	}
	return res, nil
}

// SaveGallery runs the pipeline for every staged image in order, sharing all
// options except the name. The staged list is cleared whatever the outcome.
func (h *Handler) SaveGallery(ctx context.Context, opts GalleryOptions) ([]domain.GalleryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	defer h.resetGallery()

	if h.err != nil {
		metrics.RecordImage("save_gallery", h.err)
		return nil, h.err
	}
	if len(h.images) == 0 {
		err := domain.InvalidInput("no images provided, use SetImages first")
		metrics.RecordImage("save_gallery", err)
		return nil, err
	}

	entries := make([]domain.GalleryEntry, 0, len(h.images))
	for i, f := range h.images {
		h.name = ""
		res, err := h.process(ctx, f)
		metrics.RecordImage("save", err)
		if err != nil {
			metrics.RecordImage("save_gallery", err)
			return nil, fmt.Errorf("gallery image %d: %w", i, err)
		}
		entries = append(entries, galleryEntry(res, i, opts))
	}

	metrics.RecordImage("save_gallery", nil)
	return entries, nil
}

func galleryEntry(res domain.Result, index int, opts GalleryOptions) domain.GalleryEntry {
	entry := domain.GalleryEntry{Result: res}
	if opts.ImageColumn == "" {
		return entry
	}

	row := map[string]any{opts.ImageColumn: res.Value()}
	if opts.FKColumn != "" && opts.FKID != 0 {
		row[opts.FKColumn] = opts.FKID
	}
	alt := opts.AltText
	if opts.AltTexts != nil {
		alt = ""
		if index < len(opts.AltTexts) {
			alt = opts.AltTexts[index]
		}
	}
	if alt != "" {
		row["alt"] = alt
	}
	entry.Row = row
	return entry
}

// process runs validate, persist, resize, watermark, compress and fan-out
// against one upload. Each step mutates the stored original in place, so
// derivatives are built from the processed original.
func (h *Handler) process(ctx context.Context, f *upload.File) (domain.Result, error) {
	if f == nil {
		return domain.Result{}, domain.InvalidInput("no image provided, use SetImage first")
	}

	start := time.Now()
	if err := h.kit.validator.Upload(f); err != nil {
		return domain.Result{}, err
	}
	metrics.ObserveStep("validate", start)

	h.kit.bus.PublishSaving(events.SavingEvent{
		Upload: f,
		Disk:   h.disk,
		Path:   h.savedPath,
		Options: events.SavingOptions{
			Dimensions: h.dimensions,
			Watermark:  copyWatermark(h.watermark),
			Compress:   h.compress,
			Sizes:      append([]string(nil), h.sizes...),
		},
	})

	name := h.name
	if name == "" {
		generated, err := h.kit.namer.Generate(f)
		if err != nil {
			return domain.Result{}, err
		}
		name = generated
	}
	ext := h.extension
	if ext == "" {
		ext = f.Extension()
	}

	start = time.Now()
	saved, err := h.kit.storage.SaveOriginal(ctx, h.disk, h.savedPath, name, ext, f.Bytes())
	if err != nil {
		return domain.Result{}, err
	}
	metrics.ObserveStep("save_original", start)

	log := zlog.Logger.With().Str("disk", h.disk).Str("path", saved.FullPath).Logger()

	if !h.dimensions.IsZero() {
		start = time.Now()
		if err := h.kit.resizer.FitSingle(ctx, h.disk, saved.FullPath, h.dimensions, h.aspectRatio); err != nil {
			log.Error().Err(err).Msg("resize failed")
			return domain.Result{}, err
		}
		metrics.ObserveStep("resize", start)
	}

	if !h.watermark.IsEmpty() {
		start = time.Now()
		if err := h.kit.watermarker.Apply(ctx, h.disk, saved.FullPath, h.watermark); err != nil {
			log.Error().Err(err).Msg("watermark failed")
			return domain.Result{}, err
		}
		metrics.ObserveStep("watermark", start)
	}

	if h.compress {
		start = time.Now()
		if _, err := h.kit.compressor.Compress(ctx, h.disk, saved.FullPath, h.quality); err != nil {
			log.Error().Err(err).Msg("compression failed")
			return domain.Result{}, err
		}
		metrics.ObserveStep("compress", start)
	}

	if len(h.sizes) > 0 {
		start = time.Now()
		if err := h.kit.resizer.FanOut(ctx, h.disk, h.savedPath, saved.Name, h.sizes, h.kit.catalog); err != nil {
			log.Error().Err(err).Msg("multi-size generation failed")
			return domain.Result{}, err
		}
		metrics.ObserveStep("multi_size", start)
	}

	now := h.kit.now()
	h.kit.bus.PublishSaved(events.SavedEvent{
		Disk:     h.disk,
		Name:     saved.Name,
		Path:     saved.Path,
		FullPath: saved.FullPath,
		Sizes:    append([]string(nil), h.sizes...),
		At:       now,
	})

	img, err := h.describe(ctx, saved, now)
	if err != nil {
		return domain.Result{}, err
	}

	log.Info().Str("name", img.Name).Int64("bytes", img.Size).Msg("image saved")
	return domain.Project(img, h.returnKeys), nil
}

// describe computes result metadata from the final stored bytes.
func (h *Handler) describe(ctx context.Context, saved storage.SavedFile, at time.Time) (domain.StoredImage, error) {
	data, found, err := h.kit.storage.GetImage(ctx, h.disk, saved.FullPath)
	if err != nil {
		return domain.StoredImage{}, err
	}
	if !found {
		return domain.StoredImage{}, domain.NotFound("stored image disappeared: %s", saved.FullPath)
	}

	url, err := h.kit.storage.URL(h.disk, saved.FullPath)
	if err != nil {
		return domain.StoredImage{}, err
	}

	sum := md5.Sum(data)
	_, ext := pathutil.SplitExt(saved.Name)
	img := domain.StoredImage{
		Name:         saved.Name,
		Path:         saved.Path,
		FullPath:     saved.FullPath,
		Size:         int64(len(data)),
		OriginalSize: saved.Size,
		URL:          url,
		Extension:    ext,
		MimeType:     domain.MimeTypeFor(ext),
		Disk:         h.disk,
		Hash:         hex.EncodeToString(sum[:]),
		CreatedAt:    at,
	}
	if w, hgt, ok := processor.Probe(data); ok {
		img.Width, img.Height = w, hgt
	}
	return img, nil
}
