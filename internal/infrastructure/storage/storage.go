package storage

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/config"
	"github.com/yokitheyo/imagekit/internal/domain"
)

// Disk is a named storage backend addressed by relative paths.
type Disk interface {
	Name() string
	Put(ctx context.Context, path string, data []byte) error
	// Get returns domain.ErrNotFound when the object is absent.
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	// Delete returns domain.ErrNotFound when the object is absent.
	Delete(ctx context.Context, path string) error
	Size(ctx context.Context, path string) (int64, error)
	URL(path string) string
	// AbsolutePath returns domain.ErrUnsupported for non-filesystem disks.
	AbsolutePath(path string) (string, error)
	// TemporaryURL returns domain.ErrUnsupported for disks that cannot sign URLs.
	TemporaryURL(ctx context.Context, path string, expiry time.Duration, params url.Values) (string, error)
}

// Manager resolves disks by name.
type Manager struct {
	disks       map[string]Disk
	defaultDisk string
	publicPath  string
}

func New(cfg *config.StorageConfig, defaultDisk string) (*Manager, error) {
	m := &Manager{
		disks:       make(map[string]Disk, len(cfg.Disks)),
		defaultDisk: defaultDisk,
		publicPath:  cfg.PublicPath,
	}

	for _, dc := range cfg.Disks {
		var (
			d   Disk
			err error
		)
		switch dc.Driver {
		case "local":
			zlog.Logger.Info().Str("disk", dc.Name).Str("root", dc.Root).Msg("Initializing local disk")
			d, err = NewLocalDisk(dc.Name, dc.Root, dc.URL)
		case "s3":
			zlog.Logger.Info().Str("disk", dc.Name).Str("bucket", dc.S3Bucket).Msg("Initializing S3 disk")
			d, err = NewS3Disk(dc)
		default:
			zlog.Logger.Error().Str("driver", dc.Driver).Msg("Unsupported disk driver, use 'local' or 's3'")
			return nil, fmt.Errorf("unsupported disk driver: %s", dc.Driver)
		}
		if err != nil {
			return nil, fmt.Errorf("init disk %s: %w", dc.Name, err)
		}
		m.disks[dc.Name] = d
	}

	if _, ok := m.disks[defaultDisk]; !ok {
		return nil, fmt.Errorf("default disk %q is not configured", defaultDisk)
	}
	return m, nil
}

// NewManager builds a Manager from already constructed disks.
func NewManager(defaultDisk, publicPath string, disks ...Disk) *Manager {
	m := &Manager{
		disks:       make(map[string]Disk, len(disks)),
		defaultDisk: defaultDisk,
		publicPath:  publicPath,
	}
	for _, d := range disks {
		m.disks[d.Name()] = d
	}
	return m
}

func (m *Manager) DefaultDisk() string {
	return m.defaultDisk
}

func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.disks))
	for n := range m.disks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) Has(name string) bool {
	_, ok := m.disks[name]
	return ok
}

// Disk returns the named disk, or the default disk when name is empty.
func (m *Manager) Disk(name string) (Disk, error) {
	if name == "" {
		name = m.defaultDisk
	}
	d, ok := m.disks[name]
	if !ok {
		return nil, domain.InvalidInput("disk %q is not configured", name)
	}
	return d, nil
}
