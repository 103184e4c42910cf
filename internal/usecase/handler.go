package usecase

import (
	"context"
	"sync"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/naming"
	"github.com/yokitheyo/imagekit/internal/pathutil"
	"github.com/yokitheyo/imagekit/internal/upload"
)

// Offset positions a watermark relative to its anchor.
type Offset struct {
	X int
	Y int
}

// WatermarkOptions configures the overlay for subsequent saves. Source names
// an existing asset (relative path, URL or absolute filesystem path) and
// Upload supplies a new overlay file; Upload wins when both are set.
// A zero value disables the watermark.
type WatermarkOptions struct {
	Source   string
	Upload   *upload.File
	Position domain.Position
	Opacity  *int
	Offset   *Offset
	X        *int
	Y        *int
	Width    int
	Height   int
}

func (o WatermarkOptions) isZero() bool {
	return o.Source == "" && o.Upload == nil && o.Position == "" && o.Opacity == nil &&
		o.Offset == nil && o.X == nil && o.Y == nil && o.Width == 0 && o.Height == 0
}

// State is a snapshot of the configuration a Handler would process with.
type State struct {
	Staged      int
	Name        string
	Extension   string
	SavedPath   string
	Dimensions  domain.Dimensions
	AspectRatio bool
	Watermark   *domain.Watermark
	Compress    bool
	Quality     int
	Sizes       []string
	Disk        string
	ReturnKeys  []domain.ReturnKey
}

// Handler accumulates options through fluent setters and runs the pipeline
// on Save or SaveGallery. A failing setter leaves the state untouched and
// records its error, which the next terminal operation returns.
type Handler struct {
	kit *ImageKit

	mu  sync.Mutex
	err error

	image       *upload.File
	images      []*upload.File
	name        string
	extension   string
	savedPath   string
	dimensions  domain.Dimensions
	aspectRatio bool
	watermark   *domain.Watermark
	compress    bool
	quality     int
	sizes       []string
	disk        string
	returnKeys  []domain.ReturnKey
}

// Err returns the first error recorded by a setter since the last reset.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handler) fail(err error) *Handler {
	if h.err == nil {
		h.err = err
	}
	zlog.Logger.Warn().Err(err).Msg("imagekit option rejected")
	return h
}

func (h *Handler) SetImage(f *upload.File) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !f.Valid() {
		return h.fail(domain.InvalidInput("invalid image file provided"))
	}
	h.image = f
	return h
}

func (h *Handler) Image(f *upload.File) *Handler { return h.SetImage(f) }

func (h *Handler) SetImages(files []*upload.File) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, f := range files {
		if !f.Valid() {
			return h.fail(domain.InvalidInput("invalid image file provided at index %d", i))
		}
	}
	h.images = append([]*upload.File(nil), files...)
	return h
}

func (h *Handler) Images(files []*upload.File) *Handler { return h.SetImages(files) }

// SetName sets the base name of the next saved image. The value is slugged.
func (h *Handler) SetName(name string) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.kit.validator.Name(name); err != nil {
		return h.fail(err)
	}
	slug := naming.Slug(name)
	if slug == "" {
		return h.fail(domain.InvalidInput("image name %q has no usable characters", name))
	}
	h.name = slug
	return h
}

func (h *Handler) Name(name string) *Handler { return h.SetName(name) }

func (h *Handler) SetExtension(ext string) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.kit.validator.Extension(ext); err != nil {
		return h.fail(err)
	}
	h.extension = ext
	return h
}

func (h *Handler) Extension(ext string) *Handler { return h.SetExtension(ext) }

func (h *Handler) SetPath(p string) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	normalized, err := pathutil.Normalize(p)
	if err != nil {
		return h.fail(err)
	}
	h.savedPath = normalized
	return h
}

func (h *Handler) Path(p string) *Handler   { return h.SetPath(p) }
func (h *Handler) SaveTo(p string) *Handler { return h.SetPath(p) }

// SetDimensions sets the single resize target. Zero leaves a side unset.
func (h *Handler) SetDimensions(width, height int) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.kit.validator.Dimensions(width, height); err != nil {
		return h.fail(err)
	}
	h.dimensions = domain.Dimensions{Width: width, Height: height}
	return h
}

func (h *Handler) Resize(width, height int) *Handler     { return h.SetDimensions(width, height) }
func (h *Handler) Dimensions(width, height int) *Handler { return h.SetDimensions(width, height) }

func (h *Handler) SetAspectRatio(keep bool) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.aspectRatio = keep
	return h
}

// SetWatermark resolves opts into an overlay spec. An uploaded overlay is
// validated and stored under the watermark path first; a requested size
// produces a resized copy of the overlay.
func (h *Handler) SetWatermark(ctx context.Context, opts WatermarkOptions) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()

	if opts.isZero() {
		h.watermark = nil
		return h
	}

	spec := &domain.Watermark{
		Position: opts.Position,
		Opacity:  domain.DefaultWatermarkOpacity,
		X:        domain.DefaultWatermarkOffset,
		Y:        domain.DefaultWatermarkOffset,
		Width:    opts.Width,
		Height:   opts.Height,
	}
	if opts.Opacity != nil {
		spec.Opacity = *opts.Opacity
	}
	switch {
	case opts.Offset != nil:
		spec.X, spec.Y = opts.Offset.X, opts.Offset.Y
	case opts.X != nil || opts.Y != nil:
		spec.X = intOr(opts.X, domain.DefaultWatermarkOffset)
		spec.Y = intOr(opts.Y, domain.DefaultWatermarkOffset)
	}
	if err := h.kit.validator.WatermarkSettings(spec); err != nil {
		return h.fail(err)
	}

	image, err := h.watermarkImage(ctx, opts)
	if err != nil {
		return h.fail(err)
	}
	spec.Image = image

	if err := h.kit.validator.Watermark(ctx, spec, h.disk); err != nil {
		return h.fail(err)
	}
	h.watermark = spec
	return h
}

func (h *Handler) Watermark(ctx context.Context, opts WatermarkOptions) *Handler {
	return h.SetWatermark(ctx, opts)
}

func (h *Handler) watermarkImage(ctx context.Context, opts WatermarkOptions) (string, error) {
	var image string
	switch {
	case opts.Upload != nil:
		if err := h.kit.validator.Upload(opts.Upload); err != nil {
			return "", err
		}
		stored, err := h.kit.storage.SaveWatermark(ctx, h.disk, h.kit.watermarkPath, "",
			opts.Upload.Extension(), opts.Upload.Bytes(), naming.RandomString)
		if err != nil {
			return "", err
		}
		image = stored
	case opts.Source != "":
		// absolute filesystem paths are kept as given; everything else must
		// stay relative to the disk or public assets
		if pathutil.StripURL(opts.Source) == opts.Source && domain.IsAbsolutePath(opts.Source) {
			image = opts.Source
			break
		}
		normalized, err := pathutil.Normalize(opts.Source)
		if err != nil {
			return "", err
		}
		image = normalized
	default:
		return "", domain.InvalidInput("watermark image file is required")
	}

	if opts.Width == 0 && opts.Height == 0 {
		return image, nil
	}
	return h.kit.watermarker.ResizeOverlay(ctx, h.disk, image, opts.Width, opts.Height)
}

// SetCompression toggles re-encoding. Quality 0 defers to configuration and
// then to the size heuristic.
func (h *Handler) SetCompression(enabled bool, quality int) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	if quality < 0 || quality > 100 {
		return h.fail(domain.InvalidInput("compression quality must be between 0 and 100, got %d", quality))
	}
	h.compress = enabled
	h.quality = quality
	return h
}

func (h *Handler) Compress(enabled bool, quality int) *Handler {
	return h.SetCompression(enabled, quality)
}

// SetMultiSize selects derivative labels. Nil restores the configured
// default selection.
func (h *Handler) SetMultiSize(labels []string) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	if labels == nil {
		h.sizes = append([]string(nil), h.kit.defaults.sizes...)
		return h
	}
	if err := h.kit.validator.ResizeOptions(labels, h.kit.catalog); err != nil {
		return h.fail(err)
	}
	h.sizes = append([]string(nil), labels...)
	return h
}

func (h *Handler) Sizes(labels []string) *Handler { return h.SetMultiSize(labels) }

func (h *Handler) SetDisk(name string) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.kit.storage.Has(name) {
		return h.fail(domain.InvalidInput("disk %q is not configured", name))
	}
	h.disk = name
	return h
}

func (h *Handler) SetReturnKeys(keys ...string) *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	parsed, err := domain.ParseReturnKeys(keys)
	if err != nil {
		return h.fail(err)
	}
	h.returnKeys = parsed
	return h
}

// Reset restores every option from configuration and clears staged images
// and the recorded error.
func (h *Handler) Reset() *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reset()
	return h
}

func (h *Handler) reset() {
	d := h.kit.defaults
	h.err = nil
	h.image = nil
	h.images = nil
	h.name = ""
	h.extension = ""
	h.savedPath = d.savedPath
	h.dimensions = d.dimensions
	h.aspectRatio = d.aspectRatio
	h.watermark = copyWatermark(d.watermark)
	h.compress = d.compress
	h.quality = 0
	h.sizes = append([]string(nil), d.sizes...)
	h.disk = d.disk
	h.returnKeys = append([]domain.ReturnKey(nil), d.returnKeys...)
}

func (h *Handler) resetSingle() {
	h.err = nil
	h.image = nil
	h.name = ""
	h.extension = ""
}

func (h *Handler) resetGallery() {
	h.resetSingle()
	h.images = nil
}

func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	staged := len(h.images)
	if h.image != nil {
		staged++
	}
	return State{
		Staged:      staged,
		Name:        h.name,
		Extension:   h.extension,
		SavedPath:   h.savedPath,
		Dimensions:  h.dimensions,
		AspectRatio: h.aspectRatio,
		Watermark:   copyWatermark(h.watermark),
		Compress:    h.compress,
		Quality:     h.quality,
		Sizes:       append([]string(nil), h.sizes...),
		Disk:        h.disk,
		ReturnKeys:  append([]domain.ReturnKey(nil), h.returnKeys...),
	}
}

func copyWatermark(w *domain.Watermark) *domain.Watermark {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}
