package processor

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/pathutil"
)

// TargetSize computes the output box for resizing a srcW x srcH image to
// width x height, where zero means "not given". With keepAspect both given
// sides bound the result and a single side derives the other; without it a
// missing side keeps its source length.
func TargetSize(srcW, srcH, width, height int, keepAspect bool) (int, int) {
	if width == 0 && height == 0 {
		return srcW, srcH
	}
	if !keepAspect {
		if width == 0 {
			width = srcW
		}
		if height == 0 {
			height = srcH
		}
		return width, height
	}

	ratio := float64(srcW) / float64(srcH)
	switch {
	case height == 0:
		return width, max(1, int(math.Round(float64(width)/ratio)))
	case width == 0:
		return max(1, int(math.Round(float64(height)*ratio))), height
	}

	scale := math.Min(float64(width)/float64(srcW), float64(height)/float64(srcH))
	return max(1, int(math.Round(float64(srcW)*scale))), max(1, int(math.Round(float64(srcH)*scale)))
}

func resizeImage(img image.Image, width, height int, keepAspect bool) image.Image {
	b := img.Bounds()
	w, h := TargetSize(b.Dx(), b.Dy(), width, height, keepAspect)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

type Resizer struct {
	storage Storage
}

func NewResizer(st Storage) *Resizer {
	return &Resizer{storage: st}
}

// FitSingle resizes the stored image at p in place. Zero dimensions are a no-op.
func (r *Resizer) FitSingle(ctx context.Context, disk, p string, dims domain.Dimensions, keepAspect bool) error {
	if dims.IsZero() {
		return nil
	}

	d, src, err := load(ctx, r.storage, disk, p)
	if err != nil {
		return err
	}

	out := resizeImage(src.img, dims.Width, dims.Height, keepAspect)
	data, err := encode(out, FormatFor(extOf(p), src.format), 0)
	if err != nil {
		return fmt.Errorf("resize %s: %w", p, err)
	}
	if err := d.Put(ctx, p, data); err != nil {
		return fmt.Errorf("resize %s: %w", p, err)
	}

	zlog.Logger.Debug().
		Str("disk", d.Name()).
		Str("path", p).
		Int("original_width", src.img.Bounds().Dx()).
		Int("original_height", src.img.Bounds().Dy()).
		Int("resized_width", out.Bounds().Dx()).
		Int("resized_height", out.Bounds().Dy()).
		Bool("aspect_ratio", keepAspect).
		Msg("image resized")
	return nil
}

// FanOut writes {dir}/{label}_{name} for every label, each fitted into its
// catalog box from the current contents of {dir}/{name}.
func (r *Resizer) FanOut(ctx context.Context, disk, dir, name string, labels []string, catalog domain.Catalog) error {
	for _, label := range labels {
		box, ok := catalog[label]
		if !ok {
			return domain.InvalidInput("size %q is not defined in multi-size dimensions", label)
		}
		if box.Width <= 0 || box.Height <= 0 {
			return domain.InvalidInput("width and height for size %q must be defined", label)
		}
	}

	if len(labels) == 0 {
		return nil
	}

	original := pathutil.Join(dir, name)
	d, src, err := load(ctx, r.storage, disk, original)
	if err != nil {
		return err
	}

	for _, label := range labels {
		box := catalog[label]
		out := resizeImage(src.img, box.Width, box.Height, true)
		data, err := encode(out, FormatFor(extOf(name), src.format), 0)
		if err != nil {
			return fmt.Errorf("resize %s to %s: %w", original, label, err)
		}

		target := pathutil.Derivative(dir, label, name)
		if err := d.Put(ctx, target, data); err != nil {
			return fmt.Errorf("store derivative %s: %w", target, err)
		}

		zlog.Logger.Debug().
			Str("disk", d.Name()).
			Str("path", target).
			Str("size", label).
			Int("width", out.Bounds().Dx()).
			Int("height", out.Bounds().Dy()).
			Msg("derivative stored")
	}
	return nil
}
