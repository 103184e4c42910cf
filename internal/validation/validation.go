// Package validation guards every pipeline mutation. Failures wrap
// domain.ErrInvalidInput.
package validation

import (
	"context"
	"strings"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/pathutil"
	"github.com/yokitheyo/imagekit/internal/upload"
)

// AssetChecker reports whether an overlay asset can be resolved.
type AssetChecker interface {
	AssetExists(ctx context.Context, disk, path string) bool
}

type Rules struct {
	AllowedExtensions []string
	// MaxFileSizeKB of zero disables the size check.
	MaxFileSizeKB int64
	// A zero side disables that dimension check.
	MaxDimensions domain.Dimensions
}

type Validator struct {
	rules  Rules
	assets AssetChecker
}

func New(rules Rules, assets AssetChecker) *Validator {
	allowed := make([]string, 0, len(rules.AllowedExtensions))
	for _, e := range rules.AllowedExtensions {
		allowed = append(allowed, strings.ToLower(strings.TrimPrefix(e, ".")))
	}
	rules.AllowedExtensions = allowed
	return &Validator{rules: rules, assets: assets}
}

func (v *Validator) AllowedExtensions() []string {
	return append([]string(nil), v.rules.AllowedExtensions...)
}

func (v *Validator) allowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, a := range v.rules.AllowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}

// Upload checks presence, extension, byte size and, when they can be probed,
// pixel dimensions.
func (v *Validator) Upload(f *upload.File) error {
	if !f.Valid() {
		return domain.InvalidInput("invalid image file provided")
	}
	if !v.allowed(f.Extension()) {
		return domain.InvalidInput("unsupported file extension %q, allowed extensions are: %s",
			f.Extension(), strings.Join(v.rules.AllowedExtensions, ", "))
	}
	if max := v.rules.MaxFileSizeKB; max > 0 && f.Size() > max*1024 {
		return domain.InvalidInput("file size exceeds maximum allowed size of %dKB", max)
	}

	maxW, maxH := v.rules.MaxDimensions.Width, v.rules.MaxDimensions.Height
	if maxW == 0 && maxH == 0 {
		return nil
	}
	w, h, ok := f.Dimensions()
	if !ok {
		return nil
	}
	if maxW > 0 && w > maxW {
		return domain.InvalidInput("image width (%dpx) exceeds maximum allowed width (%dpx)", w, maxW)
	}
	if maxH > 0 && h > maxH {
		return domain.InvalidInput("image height (%dpx) exceeds maximum allowed height (%dpx)", h, maxH)
	}
	return nil
}

func (v *Validator) Name(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.InvalidInput("image name cannot be empty")
	}
	return nil
}

// FileName accepts a single path segment: no separators and no "..".
func (v *Validator) FileName(name string) error {
	if err := v.Name(name); err != nil {
		return err
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return domain.InvalidInput("file name must not contain path separators or '..': %s", name)
	}
	return nil
}

func (v *Validator) Extension(ext string) error {
	if ext == "" {
		return domain.InvalidInput("extension cannot be empty")
	}
	if !v.allowed(ext) {
		return domain.InvalidInput("invalid file extension %q, allowed extensions are: %s",
			ext, strings.Join(v.rules.AllowedExtensions, ", "))
	}
	return nil
}

func (v *Validator) Path(p string) error {
	return pathutil.Check(p)
}

// Dimensions accepts zero as "unset"; both zero means no resize.
func (v *Validator) Dimensions(width, height int) error {
	if width < 0 {
		return domain.InvalidInput("width must be a positive number, got %d", width)
	}
	if height < 0 {
		return domain.InvalidInput("height must be a positive number, got %d", height)
	}
	return nil
}

func (v *Validator) ResizeOptions(labels []string, catalog domain.Catalog) error {
	if len(catalog) == 0 {
		return domain.InvalidInput("multi-size dimensions are not defined, check imagekit.multi_size_dimensions")
	}
	for _, label := range labels {
		if _, ok := catalog[label]; !ok {
			return domain.InvalidInput("size %q is not defined, check imagekit.multi_size_dimensions", label)
		}
	}
	return nil
}

// Watermark checks a resolved spec. A nil spec is valid and means no overlay.
func (v *Validator) Watermark(ctx context.Context, w *domain.Watermark, disk string) error {
	if w == nil {
		return nil
	}
	if w.Image == "" {
		return domain.InvalidInput("watermark image file is required")
	}
	if v.assets != nil && !v.assets.AssetExists(ctx, disk, w.Image) {
		return domain.InvalidInput("watermark image file does not exist: %s", w.Image)
	}
	return v.WatermarkSettings(w)
}

// WatermarkSettings checks position, opacity, offsets and size without
// touching storage.
func (v *Validator) WatermarkSettings(w *domain.Watermark) error {
	if w.Position != "" && !w.Position.Valid() {
		names := make([]string, len(domain.Positions))
		for i, p := range domain.Positions {
			names[i] = string(p)
		}
		return domain.InvalidInput("invalid watermark position %q, valid positions are: %s", w.Position, strings.Join(names, ", "))
	}
	if w.Opacity < 0 || w.Opacity > 100 {
		return domain.InvalidInput("watermark opacity must be between 0 and 100")
	}
	if w.X < 0 || w.Y < 0 {
		return domain.InvalidInput("watermark x and y coordinates cannot be negative")
	}
	if w.Width < 0 || w.Height < 0 {
		return domain.InvalidInput("watermark width and height cannot be negative")
	}
	return nil
}
