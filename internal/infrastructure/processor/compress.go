package processor

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"
)

// QualityFor picks a re-encode quality from the current size in bytes.
func QualityFor(size int64) int {
	kb := float64(size) / 1024
	switch {
	case kb <= 100:
		return 95
	case kb <= 500:
		return 85
	case kb <= 1000:
		return 75
	case kb <= 2000:
		return 60
	default:
		return 50
	}
}

type Compressor struct {
	storage        Storage
	defaultQuality int
}

// NewCompressor takes the configured fixed quality; zero selects QualityFor.
func NewCompressor(st Storage, defaultQuality int) *Compressor {
	return &Compressor{storage: st, defaultQuality: defaultQuality}
}

// Compress re-encodes the stored image at p in place and returns the quality
// used. An explicit quality wins over the configured one.
func (c *Compressor) Compress(ctx context.Context, disk, p string, quality int) (int, error) {
	d, src, err := load(ctx, c.storage, disk, p)
	if err != nil {
		return 0, err
	}

	resolved := quality
	if resolved <= 0 {
		resolved = c.defaultQuality
	}
	if resolved <= 0 {
		size, err := d.Size(ctx, p)
		if err != nil {
			return 0, fmt.Errorf("compress %s: %w", p, err)
		}
		resolved = QualityFor(size)
	}

	data, err := encode(src.img, FormatFor(extOf(p), src.format), resolved)
	if err != nil {
		return 0, fmt.Errorf("compress %s: %w", p, err)
	}
	if err := d.Put(ctx, p, data); err != nil {
		return 0, fmt.Errorf("compress %s: %w", p, err)
	}

	zlog.Logger.Debug().
		Str("disk", d.Name()).
		Str("path", p).
		Int("quality", resolved).
		Int("bytes", len(data)).
		Msg("image compressed")
	return resolved, nil
}
