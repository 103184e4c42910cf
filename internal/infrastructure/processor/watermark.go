package processor

import (
	"context"
	"fmt"
	"image"
	"path"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
)

// Anchor returns the top-left point at which an overlay of size ow x oh is
// drawn on a canvas of size cw x ch, offset by (x, y) from the named anchor.
func Anchor(pos domain.Position, cw, ch, ow, oh, x, y int) image.Point {
	switch pos {
	case domain.PositionTopLeft:
		return image.Pt(x, y)
	case domain.PositionTopRight:
		return image.Pt(cw-x-ow, y)
	case domain.PositionBottomLeft:
		return image.Pt(x, ch-y-oh)
	case domain.PositionCenter:
		return image.Pt(cw/2+x-ow/2, ch/2+y-oh/2)
	default:
		return image.Pt(cw-x-ow, ch-y-oh)
	}
}

type Watermarker struct {
	storage Storage
}

func NewWatermarker(st Storage) *Watermarker {
	return &Watermarker{storage: st}
}

// Apply composites the overlay described by spec onto the stored image at p
// and overwrites it in the same container format.
func (w *Watermarker) Apply(ctx context.Context, disk, p string, spec *domain.Watermark) error {
	if spec.IsEmpty() {
		return domain.InvalidInput("watermark image path is required")
	}

	d, target, err := load(ctx, w.storage, disk, p)
	if err != nil {
		return err
	}

	overlayData, err := w.storage.ReadAsset(ctx, disk, spec.Image)
	if err != nil {
		return err
	}
	overlay, err := decode(overlayData)
	if err != nil {
		return fmt.Errorf("load watermark %s: %w", spec.Image, err)
	}

	mark := overlay.img
	if spec.Width > 0 || spec.Height > 0 {
		mark = resizeImage(mark, spec.Width, spec.Height, true)
	}

	pos := spec.Position
	if pos == "" {
		pos = domain.PositionBottomRight
	}
	opacity := 1.0
	if spec.Opacity < domain.DefaultWatermarkOpacity {
		opacity = float64(spec.Opacity) / 100
	}

	tb, mb := target.img.Bounds(), mark.Bounds()
	at := Anchor(pos, tb.Dx(), tb.Dy(), mb.Dx(), mb.Dy(), spec.X, spec.Y)
	out := imaging.Overlay(target.img, mark, at, opacity)

	data, err := encode(out, FormatFor(extOf(p), target.format), 0)
	if err != nil {
		return fmt.Errorf("watermark %s: %w", p, err)
	}
	if err := d.Put(ctx, p, data); err != nil {
		return fmt.Errorf("watermark %s: %w", p, err)
	}

	zlog.Logger.Debug().
		Str("disk", d.Name()).
		Str("path", p).
		Str("watermark", spec.Image).
		Str("position", string(pos)).
		Int("opacity", spec.Opacity).
		Int("x", at.X).
		Int("y", at.Y).
		Msg("watermark applied")
	return nil
}

// ResizedOverlayPath is where the {width}x{height} copy of an overlay lives,
// with "auto" standing in for a zero side.
func ResizedOverlayPath(p string, width, height int) string {
	dir, file := path.Split(p)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	if base == "" {
		base = "watermark"
	}
	if ext == "" {
		ext = ".png"
	}
	side := func(n int) string {
		if n == 0 {
			return "auto"
		}
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%s%s_%sx%s%s", dir, base, side(width), side(height), ext)
}

// ResizeOverlay stores an aspect-preserving resized copy of the overlay next
// to its source and returns the copy's path. The source is kept.
func (w *Watermarker) ResizeOverlay(ctx context.Context, disk, p string, width, height int) (string, error) {
	if width == 0 && height == 0 {
		return p, nil
	}
	if width < 0 || height < 0 {
		return "", domain.InvalidInput("watermark width and height cannot be negative")
	}

	data, err := w.storage.ReadAsset(ctx, disk, p)
	if err != nil {
		return "", err
	}
	src, err := decode(data)
	if err != nil {
		return "", fmt.Errorf("load watermark %s: %w", p, err)
	}

	out := resizeImage(src.img, width, height, true)
	target := ResizedOverlayPath(p, width, height)
	encoded, err := encode(out, FormatFor(extOf(target), "png"), 0)
	if err != nil {
		return "", fmt.Errorf("resize watermark %s: %w", p, err)
	}
	if err := w.storage.WriteAsset(ctx, disk, target, encoded); err != nil {
		return "", fmt.Errorf("store resized watermark %s: %w", target, err)
	}

	zlog.Logger.Debug().
		Str("source", p).
		Str("path", target).
		Int("width", out.Bounds().Dx()).
		Int("height", out.Bounds().Dy()).
		Msg("watermark resized")
	return target, nil
}
