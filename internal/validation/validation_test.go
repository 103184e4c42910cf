package validation

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/upload"
)

type fakeAssets map[string]bool

func (f fakeAssets) AssetExists(_ context.Context, _ string, p string) bool {
	return f[p]
}

func pngUpload(t *testing.T, w, h int) *upload.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.White), imaging.PNG))
	return upload.FromBytes("test.png", buf.Bytes())
}

func newValidator(rules Rules) *Validator {
	if rules.AllowedExtensions == nil {
		rules.AllowedExtensions = []string{"jpg", "jpeg", "png", "webp"}
	}
	return New(rules, fakeAssets{"watermark.png": true})
}

func TestUpload(t *testing.T) {
	v := newValidator(Rules{})
	assert.NoError(t, v.Upload(pngUpload(t, 10, 10)))

	var nilFile *upload.File
	assert.ErrorIs(t, v.Upload(nilFile), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.Upload(upload.FromBytes("empty.png", nil)), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.Upload(upload.FromBytes("notes.txt", []byte("plain text"))), domain.ErrInvalidInput)
}

func TestUploadSizeLimit(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	seed := uint32(1)
	for i := range img.Pix {
		seed = seed*1664525 + 1013904223
		img.Pix[i] = byte(seed >> 24)
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	f := upload.FromBytes("noise.png", buf.Bytes())
	require.Greater(t, f.Size(), int64(2048))

	assert.ErrorIs(t, newValidator(Rules{MaxFileSizeKB: 1}).Upload(f), domain.ErrInvalidInput)
	assert.NoError(t, newValidator(Rules{MaxFileSizeKB: 10240}).Upload(f))
}

func TestUploadDimensionLimit(t *testing.T) {
	f := pngUpload(t, 200, 100)

	assert.NoError(t, newValidator(Rules{MaxDimensions: domain.Dimensions{Width: 200, Height: 100}}).Upload(f))
	assert.ErrorIs(t, newValidator(Rules{MaxDimensions: domain.Dimensions{Width: 199}}).Upload(f), domain.ErrInvalidInput)
	assert.ErrorIs(t, newValidator(Rules{MaxDimensions: domain.Dimensions{Height: 99}}).Upload(f), domain.ErrInvalidInput)
}

func TestUploadUnreadableDimensionsAreSkipped(t *testing.T) {
	v := New(Rules{AllowedExtensions: []string{"png"}, MaxDimensions: domain.Dimensions{Width: 1}}, nil)
	// PNG signature with a truncated header: sniffed as png, not decodable.
	f := upload.FromBytes("broken.png", []byte("\x89PNG\r\n\x1a\n\x00\x00"))
	require.Equal(t, "png", f.Extension())
	assert.NoError(t, v.Upload(f))
}

func TestNameExtensionPath(t *testing.T) {
	v := newValidator(Rules{})

	assert.NoError(t, v.Name("photo"))
	assert.ErrorIs(t, v.Name(""), domain.ErrInvalidInput)

	assert.NoError(t, v.Extension("JPG"))
	assert.ErrorIs(t, v.Extension(""), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.Extension("gif"), domain.ErrInvalidInput)

	assert.NoError(t, v.Path("uploads/images"))
	assert.ErrorIs(t, v.Path(""), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.Path("/abs"), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.Path("a/../b"), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.Path("a//b"), domain.ErrInvalidInput)

	assert.NoError(t, v.FileName("photo.jpg"))
	for _, bad := range []string{"", "../secret.txt", "..", "a/b.jpg", `a\b.jpg`, "/etc/passwd"} {
		assert.ErrorIs(t, v.FileName(bad), domain.ErrInvalidInput, bad)
	}
}

func TestDimensions(t *testing.T) {
	v := newValidator(Rules{})
	assert.NoError(t, v.Dimensions(0, 0))
	assert.NoError(t, v.Dimensions(800, 0))
	assert.ErrorIs(t, v.Dimensions(-1, 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.Dimensions(0, -5), domain.ErrInvalidInput)
}

func TestResizeOptions(t *testing.T) {
	v := newValidator(Rules{})
	catalog := domain.Catalog{"small": {Width: 300, Height: 300}}

	assert.NoError(t, v.ResizeOptions([]string{"small"}, catalog))
	assert.ErrorIs(t, v.ResizeOptions([]string{"small", "huge"}, catalog), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.ResizeOptions([]string{"small"}, nil), domain.ErrInvalidInput)
}

func TestWatermark(t *testing.T) {
	ctx := context.Background()
	v := newValidator(Rules{})
	valid := func() *domain.Watermark {
		return &domain.Watermark{Image: "watermark.png", Position: domain.PositionCenter, Opacity: 50, X: 10, Y: 10}
	}

	assert.NoError(t, v.Watermark(ctx, nil, "public"))
	assert.NoError(t, v.Watermark(ctx, valid(), "public"))

	w := valid()
	w.Image = ""
	assert.ErrorIs(t, v.Watermark(ctx, w, "public"), domain.ErrInvalidInput)

	w = valid()
	w.Image = "missing.png"
	assert.ErrorIs(t, v.Watermark(ctx, w, "public"), domain.ErrInvalidInput)

	w = valid()
	w.Position = "middle"
	assert.ErrorIs(t, v.Watermark(ctx, w, "public"), domain.ErrInvalidInput)

	w = valid()
	w.Opacity = 101
	assert.ErrorIs(t, v.Watermark(ctx, w, "public"), domain.ErrInvalidInput)

	w = valid()
	w.X = -1
	assert.ErrorIs(t, v.Watermark(ctx, w, "public"), domain.ErrInvalidInput)
}

func TestWatermarkSettingsSkipAssetLookup(t *testing.T) {
	v := newValidator(Rules{})

	assert.NoError(t, v.WatermarkSettings(&domain.Watermark{Position: domain.PositionTopLeft, Opacity: 100}))
	assert.ErrorIs(t, v.WatermarkSettings(&domain.Watermark{Position: "middle"}), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.WatermarkSettings(&domain.Watermark{Opacity: 150}), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.WatermarkSettings(&domain.Watermark{X: -1}), domain.ErrInvalidInput)
	assert.ErrorIs(t, v.WatermarkSettings(&domain.Watermark{Width: -1}), domain.ErrInvalidInput)
}
