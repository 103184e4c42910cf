package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
)

// LocalDisk stores objects under a root directory on the host filesystem.
type LocalDisk struct {
	name    string
	root    string
	baseURL string
}

func NewLocalDisk(name, root, baseURL string) (*LocalDisk, error) {
	if root == "" {
		return nil, fmt.Errorf("root is empty, set storage.disks[].root in config or env")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &LocalDisk{
		name:    name,
		root:    abs,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (d *LocalDisk) Name() string { return d.name }

// resolve maps p under the root and refuses results that escape it.
func (d *LocalDisk) resolve(p string) (string, error) {
	fullPath := filepath.Join(d.root, filepath.FromSlash(strings.TrimLeft(p, "/")))
	if !within(d.root, fullPath) {
		return "", domain.InvalidInput("path %q escapes the root of disk %s", p, d.name)
	}
	return fullPath, nil
}

// within reports whether target is root itself or below it.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (d *LocalDisk) Put(ctx context.Context, p string, data []byte) error {
	fullPath, err := d.resolve(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to create directory")
		return fmt.Errorf("create directory for %s: %w", p, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".tmp-*")
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to create file")
		return fmt.Errorf("create file %s: %w", p, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to write file")
		return fmt.Errorf("write file %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close file %s: %w", p, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod file %s: %w", p, err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to move file into place")
		return fmt.Errorf("rename file %s: %w", p, err)
	}

	zlog.Logger.Debug().
		Str("disk", d.name).
		Str("path", p).
		Int("bytes", len(data)).
		Msg("file saved successfully")
	return nil
}

func (d *LocalDisk) Get(ctx context.Context, p string) ([]byte, error) {
	fullPath, err := d.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NotFound("file %s on disk %s", p, d.name)
		}
		zlog.Logger.Error().Err(err).Str("path", p).Msg("failed to open file")
		return nil, fmt.Errorf("read file %s: %w", p, err)
	}
	return data, nil
}

func (d *LocalDisk) Exists(ctx context.Context, p string) bool {
	fullPath, err := d.resolve(p)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && !info.IsDir()
}

func (d *LocalDisk) Delete(ctx context.Context, p string) error {
	fullPath, err := d.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NotFound("file %s on disk %s", p, d.name)
		}
		zlog.Logger.Error().Err(err).Str("path", p).Msg("failed to delete file")
		return fmt.Errorf("delete file %s: %w", p, err)
	}
	zlog.Logger.Debug().Str("disk", d.name).Str("path", p).Msg("file deleted successfully")
	return nil
}

func (d *LocalDisk) Size(ctx context.Context, p string) (int64, error) {
	fullPath, err := d.resolve(p)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, domain.NotFound("file %s on disk %s", p, d.name)
		}
		return 0, fmt.Errorf("stat file %s: %w", p, err)
	}
	return info.Size(), nil
}

func (d *LocalDisk) URL(p string) string {
	return d.baseURL + "/" + strings.TrimLeft(p, "/")
}

func (d *LocalDisk) AbsolutePath(p string) (string, error) {
	return d.resolve(p)
}

func (d *LocalDisk) TemporaryURL(ctx context.Context, p string, expiry time.Duration, params url.Values) (string, error) {
	return "", domain.Unsupported("disk %s does not support temporary URLs", d.name)
}
