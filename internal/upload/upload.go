// Package upload holds images that have been received but not yet persisted.
package upload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// File is a pending upload. The extension is derived from the sniffed
// content type when it is an image, and from the client filename otherwise.
type File struct {
	name     string
	ext      string
	mimeType string
	data     []byte
}

func FromBytes(name string, data []byte) *File {
	f := &File{name: filepath.Base(name), data: data}
	f.sniff()
	return f
}

func FromReader(name string, r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", name, err)
	}
	return FromBytes(name, data), nil
}

func FromPath(p string) (*File, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", p, err)
	}
	return FromBytes(p, data), nil
}

func FromMultipart(fh *multipart.FileHeader) (*File, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open multipart file %s: %w", fh.Filename, err)
	}
	defer src.Close()
	return FromReader(fh.Filename, src)
}

func (f *File) sniff() {
	clientExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.name), "."))
	if len(f.data) == 0 {
		f.ext = clientExt
		return
	}
	mt := mimetype.Detect(f.data)
	f.mimeType = mt.String()
	if strings.HasPrefix(mt.String(), "image/") && mt.Extension() != "" {
		f.ext = strings.TrimPrefix(mt.Extension(), ".")
		return
	}
	f.ext = clientExt
}

// Name is the client supplied base filename.
func (f *File) Name() string { return f.name }

func (f *File) Extension() string { return f.ext }

func (f *File) MimeType() string { return f.mimeType }

func (f *File) Size() int64 { return int64(len(f.data)) }

func (f *File) Bytes() []byte { return f.data }

func (f *File) Valid() bool {
	return f != nil && len(f.data) > 0
}

// Dimensions probes the pixel size without decoding the whole image.
// ok is false when the format is not recognised.
func (f *File) Dimensions() (width, height int, ok bool) {
	if !f.Valid() {
		return 0, 0, false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
