package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/infrastructure/storage"
)

// Storage is the subset of the disk manager the engines need.
type Storage interface {
	Disk(name string) (storage.Disk, error)
	ReadAsset(ctx context.Context, disk, path string) ([]byte, error)
	WriteAsset(ctx context.Context, disk, path string, data []byte) error
}

// Format is the container an image is re-encoded to.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWEBP Format = "webp"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// FormatFor maps a file extension to its container. Unrecognised extensions
// keep the format the source was decoded from.
func FormatFor(ext, source string) Format {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "webp":
		return FormatWEBP
	}
	switch source {
	case "jpeg", "png", "webp", "gif", "bmp", "tiff":
		return Format(source)
	}
	return FormatPNG
}

type decoded struct {
	img    image.Image
	format string
}

func decode(data []byte) (*decoded, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode image")
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("decoded image is empty")
	}
	return &decoded{img: img, format: format}, nil
}

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// encode writes img in the given format. quality applies to JPEG only; zero
// keeps the codec default.
func encode(img image.Image, format Format, quality int) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	var err error
	switch format {
	case FormatJPEG:
		opts := []imaging.EncodeOption{}
		if quality > 0 {
			opts = append(opts, imaging.JPEGQuality(quality))
		}
		err = imaging.Encode(buf, img, imaging.JPEG, opts...)
	case FormatWEBP:
		err = nativewebp.Encode(buf, img, nil)
	case FormatGIF:
		err = imaging.Encode(buf, img, imaging.GIF)
	case FormatBMP:
		err = imaging.Encode(buf, img, imaging.BMP)
	case FormatTIFF:
		err = imaging.Encode(buf, img, imaging.TIFF)
	default:
		level := png.DefaultCompression
		if quality > 0 {
			level = png.BestCompression
		}
		err = imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(level))
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Probe returns the pixel size of encoded image data.
func Probe(data []byte) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

func load(ctx context.Context, st Storage, disk, p string) (storage.Disk, *decoded, error) {
	d, err := st.Disk(disk)
	if err != nil {
		return nil, nil, err
	}
	if !d.Exists(ctx, p) {
		return nil, nil, domain.InvalidInput("image file does not exist: %s", p)
	}
	data, err := d.Get(ctx, p)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", p, err)
	}
	img, err := decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", p, err)
	}
	return d, img, nil
}

func extOf(p string) string {
	i := strings.LastIndexByte(p, '.')
	if i < 0 || strings.ContainsRune(p[i:], '/') {
		return ""
	}
	return p[i+1:]
}
