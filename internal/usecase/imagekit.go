package usecase

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/config"
	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/events"
	"github.com/yokitheyo/imagekit/internal/infrastructure/processor"
	"github.com/yokitheyo/imagekit/internal/infrastructure/storage"
	"github.com/yokitheyo/imagekit/internal/naming"
	"github.com/yokitheyo/imagekit/internal/pathutil"
	"github.com/yokitheyo/imagekit/internal/validation"
)

// defaults is the option set a fresh or reset Handler starts from.
type defaults struct {
	disk        string
	savedPath   string
	dimensions  domain.Dimensions
	aspectRatio bool
	watermark   *domain.Watermark
	compress    bool
	sizes       []string
	returnKeys  []domain.ReturnKey
}

// ImageKit is the long-lived owner of configuration, storage and engines.
// Make returns a Handler for one logical operation.
type ImageKit struct {
	cfg           config.ImageKitConfig
	storage       *storage.Manager
	validator     *validation.Validator
	namer         *naming.Generator
	resizer       *processor.Resizer
	watermarker   *processor.Watermarker
	compressor    *processor.Compressor
	bus           *events.Bus
	catalog       domain.Catalog
	watermarkPath string
	defaults      defaults
	now           func() time.Time
}

type Option func(*ImageKit)

// WithNamingFunc overrides the configured naming strategy.
func WithNamingFunc(fn naming.Func) Option {
	return func(k *ImageKit) {
		k.namer = naming.NewGenerator(k.namer.Strategy(), fn)
	}
}

func WithEventBus(bus *events.Bus) Option {
	return func(k *ImageKit) { k.bus = bus }
}

func WithClock(now func() time.Time) Option {
	return func(k *ImageKit) { k.now = now }
}

func New(cfg config.ImageKitConfig, storageCfg config.StorageConfig, st *storage.Manager, opts ...Option) (*ImageKit, error) {
	strategy, err := naming.ParseStrategy(cfg.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("imagekit config: %w", err)
	}

	roots := resolveRoots(storageCfg, st, cfg.Disk)
	savedPath, err := pathutil.NormalizeConfigured(cfg.DefaultSavedPath, roots)
	if err != nil {
		return nil, fmt.Errorf("imagekit default_saved_path: %w", err)
	}
	watermarkPath, err := pathutil.NormalizeConfigured(cfg.WatermarkStoragePath, roots)
	if err != nil {
		return nil, fmt.Errorf("imagekit watermark_storage_path: %w", err)
	}

	returnKeys, err := domain.ParseReturnKeys(cfg.ReturnKeys)
	if err != nil {
		return nil, fmt.Errorf("imagekit return_keys: %w", err)
	}

	catalog := make(domain.Catalog, len(cfg.MultiSizeDimensions))
	for label, d := range cfg.MultiSizeDimensions {
		catalog[label] = domain.Dimensions{Width: d.Width, Height: d.Height}
	}

	if !st.Has(cfg.Disk) {
		return nil, fmt.Errorf("imagekit disk %q is not configured", cfg.Disk)
	}

	k := &ImageKit{
		cfg:     cfg,
		storage: st,
		validator: validation.New(validation.Rules{
			AllowedExtensions: cfg.AllowedExtensions,
			MaxFileSizeKB:     cfg.MaxFileSizeKB,
			MaxDimensions:     domain.Dimensions{Width: cfg.MaxDimensions.Width, Height: cfg.MaxDimensions.Height},
		}, st),
		namer:         naming.NewGenerator(strategy, nil),
		resizer:       processor.NewResizer(st),
		watermarker:   processor.NewWatermarker(st),
		compressor:    processor.NewCompressor(st, cfg.CompressionQuality),
		bus:           events.NewBus(),
		catalog:       catalog,
		watermarkPath: watermarkPath,
		now:           time.Now,
	}

	k.defaults = defaults{
		disk:        cfg.Disk,
		savedPath:   savedPath,
		dimensions:  domain.Dimensions{Width: cfg.Dimensions.Width, Height: cfg.Dimensions.Height},
		aspectRatio: boolOr(cfg.AspectRatio, true),
		compress:    boolOr(cfg.Compress, true),
		returnKeys:  returnKeys,
	}
	if cfg.EnableMultiSize {
		k.defaults.sizes = append([]string(nil), cfg.MultiSizeOptions...)
	}
	if cfg.EnableWatermark {
		k.defaults.watermark = configuredWatermark(cfg.Watermark)
	}

	for _, opt := range opts {
		opt(k)
	}

	zlog.Logger.Info().
		Str("disk", k.defaults.disk).
		Str("saved_path", k.defaults.savedPath).
		Str("naming_strategy", string(k.namer.Strategy())).
		Strs("sizes", k.defaults.sizes).
		Bool("watermark", k.defaults.watermark != nil).
		Msg("ImageKit initialized")

	return k, nil
}

// Make returns a Handler initialised from configuration defaults.
func (k *ImageKit) Make() *Handler {
	h := &Handler{kit: k}
	h.reset()
	return h
}

func (k *ImageKit) Events() *events.Bus {
	return k.bus
}

func (k *ImageKit) Storage() *storage.Manager {
	return k.storage
}

func (k *ImageKit) Catalog() domain.Catalog {
	out := make(domain.Catalog, len(k.catalog))
	for label, d := range k.catalog {
		out[label] = d
	}
	return out
}

func resolveRoots(cfg config.StorageConfig, st *storage.Manager, disk string) pathutil.Roots {
	var roots pathutil.Roots
	if abs, err := filepath.Abs(cfg.BasePath); err == nil && cfg.BasePath != "" {
		roots.Base = abs
	}
	if abs, err := filepath.Abs(cfg.PublicPath); err == nil && cfg.PublicPath != "" {
		roots.Public = abs
	}
	if p, err := st.AbsolutePath(disk, ""); err == nil {
		roots.Storage = p
	}
	return roots
}

func configuredWatermark(wc config.WatermarkConfig) *domain.Watermark {
	if wc.Image == "" {
		return nil
	}
	w := &domain.Watermark{
		Image:    wc.Image,
		Position: domain.Position(wc.Position),
		Opacity:  intOr(wc.Opacity, domain.DefaultWatermarkOpacity),
		X:        intOr(wc.X, domain.DefaultWatermarkOffset),
		Y:        intOr(wc.Y, domain.DefaultWatermarkOffset),
		Width:    wc.Width,
		Height:   wc.Height,
	}
	if w.Position == "" {
		w.Position = domain.PositionBottomRight
	}
	return w
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
