package storage

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/imagekit/internal/config"
	"github.com/yokitheyo/imagekit/internal/domain"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	public := t.TempDir()

	disk, err := NewLocalDisk("public", filepath.Join(root, "public"), "/storage")
	require.NoError(t, err)
	private, err := NewLocalDisk("local", filepath.Join(root, "private"), "")
	require.NoError(t, err)

	return NewManager("public", public, disk, private), public
}

func TestLocalDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	d, err := m.Disk("")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "uploads/images/a.jpg", []byte("abc")))
	assert.True(t, d.Exists(ctx, "uploads/images/a.jpg"))

	data, err := d.Get(ctx, "uploads/images/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	size, err := d.Size(ctx, "uploads/images/a.jpg")
	require.NoError(t, err)
	assert.EqualValues(t, 3, size)

	assert.Equal(t, "/storage/uploads/images/a.jpg", d.URL("uploads/images/a.jpg"))

	abs, err := d.AbsolutePath("uploads/images/a.jpg")
	require.NoError(t, err)
	assert.FileExists(t, abs)

	require.NoError(t, d.Delete(ctx, "uploads/images/a.jpg"))
	assert.False(t, d.Exists(ctx, "uploads/images/a.jpg"))

	_, err = d.Get(ctx, "uploads/images/a.jpg")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, d.Delete(ctx, "uploads/images/a.jpg"), domain.ErrNotFound)
}

func TestLocalDiskTemporaryURLUnsupported(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	d, _ := m.Disk("public")
	require.NoError(t, d.Put(ctx, "a.png", []byte("x")))

	_, err := m.TemporaryURL(ctx, "public", "a.png", time.Minute, nil)
	assert.ErrorIs(t, err, domain.ErrUnsupported)

	_, err = m.TemporaryURL(ctx, "public", "missing.png", time.Minute, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManagerUnknownDisk(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Disk("s3")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, []string{"local", "public"}, m.Names())
}

func TestNewFromConfig(t *testing.T) {
	root := t.TempDir()
	cfg := &config.StorageConfig{
		PublicPath: root,
		Disks: []config.DiskConfig{
			{Name: "public", Driver: "local", Root: filepath.Join(root, "public"), URL: "/storage"},
		},
	}
	m, err := New(cfg, "public")
	require.NoError(t, err)
	assert.True(t, m.Has("public"))

	_, err = New(cfg, "missing")
	assert.Error(t, err)

	cfg.Disks = append(cfg.Disks, config.DiskConfig{Name: "ftp", Driver: "ftp"})
	_, err = New(cfg, "public")
	assert.Error(t, err)
}

func TestDeleteImage(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	d, _ := m.Disk("public")

	require.NoError(t, d.Put(ctx, "uploads/images/test.jpg", []byte("o")))
	require.NoError(t, d.Put(ctx, "uploads/images/small_test.jpg", []byte("s")))

	ok := m.DeleteImage(ctx, "public", "test.jpg", "uploads/images", []string{"small", "medium"})
	assert.True(t, ok)
	assert.False(t, d.Exists(ctx, "uploads/images/test.jpg"))
	assert.False(t, d.Exists(ctx, "uploads/images/small_test.jpg"))

	assert.False(t, m.DeleteImage(ctx, "public", "test.jpg", "uploads/images", nil))
}

func TestGetImage(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	d, _ := m.Disk("public")
	require.NoError(t, d.Put(ctx, "a.png", []byte("png")))

	data, found, err := m.GetImage(ctx, "", "a.png")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("png"), data)

	data, found, err = m.GetImage(ctx, "", "b.png")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func TestSaveOriginalAndWatermark(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	saved, err := m.SaveOriginal(ctx, "public", "uploads/images", "photo", "jpg", []byte("12345"))
	require.NoError(t, err)
	assert.Equal(t, SavedFile{Name: "photo.jpg", Path: "uploads/images", FullPath: "uploads/images/photo.jpg", Size: 5}, saved)

	p, err := m.SaveWatermark(ctx, "public", "watermarks", "", "png", []byte("wm"), func(n int) (string, error) {
		return "abcdefghij"[:n], nil
	})
	require.NoError(t, err)
	assert.Regexp(t, `^watermarks/watermark_\d+_abcdefghij\.png$`, p)
	ok, err := m.Exists(ctx, "public", p)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAssetLookupOrder(t *testing.T) {
	ctx := context.Background()
	m, public := newTestManager(t)
	d, _ := m.Disk("public")

	require.NoError(t, d.Put(ctx, "watermarks/disk.png", []byte("disk")))
	require.NoError(t, os.MkdirAll(filepath.Join(public, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(public, "img", "public.png"), []byte("public"), 0o644))
	abs := filepath.Join(t.TempDir(), "abs.png")
	require.NoError(t, os.WriteFile(abs, []byte("abs"), 0o644))

	data, err := m.ReadAsset(ctx, "public", "watermarks/disk.png")
	require.NoError(t, err)
	assert.Equal(t, "disk", string(data))

	data, err = m.ReadAsset(ctx, "public", "img/public.png")
	require.NoError(t, err)
	assert.Equal(t, "public", string(data))

	data, err = m.ReadAsset(ctx, "public", abs)
	require.NoError(t, err)
	assert.Equal(t, "abs", string(data))

	assert.True(t, m.AssetExists(ctx, "public", "img/public.png"))
	assert.False(t, m.AssetExists(ctx, "public", "img/none.png"))

	_, err = m.ReadAsset(ctx, "public", "img/none.png")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	copyPath := filepath.Join(filepath.Dir(abs), "abs_10x10.png")
	require.NoError(t, m.WriteAsset(ctx, "public", copyPath, []byte("resized")))
	assert.FileExists(t, copyPath)
}

func TestResponse(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	d, _ := m.Disk("public")
	require.NoError(t, d.Put(ctx, "uploads/a.jpg", []byte("jpeg-bytes")))

	resp, err := m.Response(ctx, "", "uploads/a.jpg", ResponseOptions{})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", resp.Headers.Get("Content-Type"))
	assert.Equal(t, "10", resp.Headers.Get("Content-Length"))
	assert.Equal(t, `inline; filename="a.jpg"`, resp.Headers.Get("Content-Disposition"))
	assert.Empty(t, resp.Headers.Get("Cache-Control"))

	resp, err = m.Response(ctx, "", "uploads/a.jpg", ResponseOptions{Cache: NoCache(), ContentType: "image/x-custom"})
	require.NoError(t, err)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Headers.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Headers.Get("Pragma"))
	assert.Equal(t, "0", resp.Headers.Get("Expires"))
	assert.Equal(t, "image/x-custom", resp.Headers.Get("Content-Type"))

	resp, err = m.Response(ctx, "", "uploads/a.jpg", ResponseOptions{Cache: MaxAge(3600), Headers: map[string]string{"X-Test": "1"}})
	require.NoError(t, err)
	assert.Equal(t, "public, max-age=3600", resp.Headers.Get("Cache-Control"))
	assert.Equal(t, "1", resp.Headers.Get("X-Test"))

	resp, err = m.Download(ctx, "", "uploads/a.jpg", "photo.jpg", nil)
	require.NoError(t, err)
	assert.Equal(t, `attachment; filename="photo.jpg"`, resp.Headers.Get("Content-Disposition"))

	rec := httptest.NewRecorder()
	require.NoError(t, resp.Write(rec))
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "jpeg-bytes", rec.Body.String())

	_, err = m.Response(ctx, "", "uploads/missing.jpg", ResponseOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalDiskRefusesEscapingPaths(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewLocalDisk("public", filepath.Join(root, "public"), "/storage")
	require.NoError(t, err)

	outside := filepath.Join(root, "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	for _, p := range []string{"../outside.txt", "uploads/../../outside.txt", "/../outside.txt"} {
		assert.ErrorIs(t, d.Delete(ctx, p), domain.ErrInvalidInput, p)
		_, err = d.Get(ctx, p)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, p)
		assert.False(t, d.Exists(ctx, p), p)
		_, err = d.Size(ctx, p)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, p)
		_, err = d.AbsolutePath(p)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, p)
		assert.ErrorIs(t, d.Put(ctx, p, []byte("overwrite")), domain.ErrInvalidInput, p)
	}

	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	require.NoError(t, d.Put(ctx, "uploads/../a.txt", []byte("inside")))
	assert.FileExists(t, filepath.Join(root, "public", "a.txt"))
}

func TestAssetLookupStaysInsidePublicPath(t *testing.T) {
	ctx := context.Background()
	m, public := newTestManager(t)
	sibling := filepath.Join(filepath.Dir(public), "x.png")
	require.NoError(t, os.WriteFile(sibling, []byte("secret"), 0o644))

	_, err := m.ReadAsset(ctx, "public", "../x.png")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, m.AssetExists(ctx, "public", "../x.png"))
}
