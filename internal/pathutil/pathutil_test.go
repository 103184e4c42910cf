package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/imagekit/internal/domain"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"uploads/images", "uploads/images"},
		{"uploads/images/", "uploads/images"},
		{"uploads\\images\\avatars", "uploads/images/avatars"},
		{"uploads//images", "uploads/images"},
		{"https://cdn.example.com/media/posts/", "media/posts"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, in := range []string{"", "/var/www/uploads", "C:\\uploads", "C:/uploads", "../etc", "uploads/../../etc", "https://example.com/"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, in)
	}
}

func TestNormalizeConfigured(t *testing.T) {
	roots := Roots{
		Base:    "/srv/app",
		Storage: "/srv/app/storage/app/public",
		Public:  "/srv/app/public",
	}

	got, err := NormalizeConfigured("", roots)
	require.NoError(t, err)
	assert.Equal(t, DefaultSavedPath, got)

	got, err = NormalizeConfigured("/srv/app/storage/app/public/uploads/images", roots)
	require.NoError(t, err)
	assert.Equal(t, "uploads/images", got)

	got, err = NormalizeConfigured("/srv/app/public/media", roots)
	require.NoError(t, err)
	assert.Equal(t, "media", got)

	got, err = NormalizeConfigured("/srv/app/assets/images/", roots)
	require.NoError(t, err)
	assert.Equal(t, "assets/images", got)

	got, err = NormalizeConfigured("uploads/images", roots)
	require.NoError(t, err)
	assert.Equal(t, "uploads/images", got)

	_, err = NormalizeConfigured("/opt/elsewhere/images", roots)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJoinAndDerivative(t *testing.T) {
	assert.Equal(t, "uploads/images/a.jpg", Join("uploads/images/", "a.jpg"))
	assert.Equal(t, "a.jpg", Join("", "a.jpg"))
	assert.Equal(t, "uploads/images/small_a.jpg", Derivative("uploads/images", "small", "a.jpg"))
}

func TestSplitExt(t *testing.T) {
	base, ext := SplitExt("Photo.JPG")
	assert.Equal(t, "Photo", base)
	assert.Equal(t, "jpg", ext)

	base, ext = SplitExt("noext")
	assert.Equal(t, "noext", base)
	assert.Equal(t, "", ext)
}
