package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/pathutil"
)

// SavedFile describes a freshly persisted upload.
type SavedFile struct {
	Name     string
	Path     string
	FullPath string
	Size     int64
}

// SaveOriginal writes data to {dir}/{name}.{ext} on disk.
func (m *Manager) SaveOriginal(ctx context.Context, disk, dir, name, ext string, data []byte) (SavedFile, error) {
	d, err := m.Disk(disk)
	if err != nil {
		return SavedFile{}, err
	}

	imageName := name + "." + ext
	fullPath := pathutil.Join(dir, imageName)
	if err := d.Put(ctx, fullPath, data); err != nil {
		return SavedFile{}, fmt.Errorf("save original: %w", err)
	}

	size, err := d.Size(ctx, fullPath)
	if err != nil {
		return SavedFile{}, fmt.Errorf("stat original: %w", err)
	}

	zlog.Logger.Info().
		Str("disk", d.Name()).
		Str("path", fullPath).
		Int64("bytes", size).
		Msg("original image stored")

	return SavedFile{Name: imageName, Path: dir, FullPath: fullPath, Size: size}, nil
}

// SaveWatermark stores an uploaded overlay under dir and returns its path.
// An empty name yields watermark_{unix}_{10 random}.
func (m *Manager) SaveWatermark(ctx context.Context, disk, dir, name, ext string, data []byte, random func(int) (string, error)) (string, error) {
	d, err := m.Disk(disk)
	if err != nil {
		return "", err
	}
	if ext == "" {
		ext = "png"
	}
	if name == "" {
		suffix, err := random(10)
		if err != nil {
			return "", err
		}
		name = fmt.Sprintf("watermark_%d_%s", time.Now().Unix(), suffix)
	}

	fullPath := pathutil.Join(dir, name+"."+ext)
	if err := d.Put(ctx, fullPath, data); err != nil {
		return "", fmt.Errorf("save watermark: %w", err)
	}

	zlog.Logger.Info().Str("disk", d.Name()).Str("path", fullPath).Msg("watermark stored")
	return fullPath, nil
}

// DeleteImage removes {dir}/{label}_{name} for every label, then {dir}/{name}.
// Only the outcome of the original delete is reported.
func (m *Manager) DeleteImage(ctx context.Context, disk, name, dir string, sizes []string) bool {
	d, err := m.Disk(disk)
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("name", name).Msg("delete skipped")
		return false
	}

	for _, label := range sizes {
		derivative := pathutil.Derivative(dir, label, name)
		if !d.Exists(ctx, derivative) {
			continue
		}
		if err := d.Delete(ctx, derivative); err != nil {
			zlog.Logger.Warn().Err(err).Str("path", derivative).Msg("failed to delete derivative")
		}
	}

	original := pathutil.Join(dir, name)
	if !d.Exists(ctx, original) {
		return false
	}
	if err := d.Delete(ctx, original); err != nil {
		zlog.Logger.Error().Err(err).Str("path", original).Msg("failed to delete image")
		return false
	}
	return true
}

// GetImage returns the object bytes; found is false when it is absent.
func (m *Manager) GetImage(ctx context.Context, disk, p string) (data []byte, found bool, err error) {
	d, err := m.Disk(disk)
	if err != nil {
		return nil, false, err
	}
	data, err = d.Get(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) URL(disk, p string) (string, error) {
	d, err := m.Disk(disk)
	if err != nil {
		return "", err
	}
	return d.URL(p), nil
}

func (m *Manager) AbsolutePath(disk, p string) (string, error) {
	d, err := m.Disk(disk)
	if err != nil {
		return "", err
	}
	return d.AbsolutePath(p)
}

func (m *Manager) Exists(ctx context.Context, disk, p string) (bool, error) {
	d, err := m.Disk(disk)
	if err != nil {
		return false, err
	}
	return d.Exists(ctx, p), nil
}

func (m *Manager) TemporaryURL(ctx context.Context, disk, p string, expiry time.Duration, params url.Values) (string, error) {
	d, err := m.Disk(disk)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		return "", domain.InvalidInput("expiry must be positive")
	}
	if !d.Exists(ctx, p) {
		return "", domain.NotFound("image file does not exist: %s", p)
	}
	return d.TemporaryURL(ctx, p, expiry, params)
}

// ReadAsset loads an overlay by absolute filesystem path, from disk, or from
// the public assets directory as a fallback for relative paths.
func (m *Manager) ReadAsset(ctx context.Context, disk, p string) ([]byte, error) {
	if domain.IsAbsolutePath(p) {
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, domain.InvalidInput("watermark image file does not exist: %s", p)
			}
			return nil, fmt.Errorf("read asset %s: %w", p, err)
		}
		return data, nil
	}

	d, err := m.Disk(disk)
	if err != nil {
		return nil, err
	}
	if d.Exists(ctx, p) {
		return d.Get(ctx, p)
	}

	asset, err := m.publicAsset(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(asset)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.InvalidInput("watermark image file does not exist: %s", p)
		}
		return nil, fmt.Errorf("read asset %s: %w", p, err)
	}
	return data, nil
}

// AssetExists applies the ReadAsset lookup order without reading the bytes.
func (m *Manager) AssetExists(ctx context.Context, disk, p string) bool {
	if p == "" {
		return false
	}
	if domain.IsAbsolutePath(p) {
		return fileExists(p)
	}
	d, err := m.Disk(disk)
	if err != nil {
		return false
	}
	if d.Exists(ctx, p) {
		return true
	}
	asset, err := m.publicAsset(p)
	if err != nil {
		return false
	}
	return fileExists(asset)
}

// WriteAsset stores an overlay next to its source: on the filesystem for
// absolute paths and on disk otherwise.
func (m *Manager) WriteAsset(ctx context.Context, disk, p string, data []byte) error {
	if domain.IsAbsolutePath(p) {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create asset directory: %w", err)
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return fmt.Errorf("write asset %s: %w", p, err)
		}
		return nil
	}
	d, err := m.Disk(disk)
	if err != nil {
		return err
	}
	return d.Put(ctx, p, data)
}

func (m *Manager) publicAsset(p string) (string, error) {
	asset := filepath.Join(m.publicPath, filepath.FromSlash(strings.TrimLeft(p, "/")))
	if !within(m.publicPath, asset) {
		return "", domain.InvalidInput("asset path %q escapes the public directory", p)
	}
	return asset, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
