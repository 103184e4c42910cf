package naming

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/upload"
)

func fixedClock(g *Generator) {
	g.now = func() time.Time { return time.Unix(1700000000, 0) }
}

func TestGenerateDefault(t *testing.T) {
	g := NewGenerator(StrategyDefault, nil)
	fixedClock(g)

	name, err := g.Generate(upload.FromBytes("a.jpg", []byte("x")))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^image_1700000000_[0-9a-zA-Z]{20}$`), name)
}

func TestGenerateUUID(t *testing.T) {
	g := NewGenerator(StrategyUUID, nil)

	name, err := g.Generate(upload.FromBytes("a.jpg", []byte("x")))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`), name)
}

func TestGenerateHash(t *testing.T) {
	g := NewGenerator(StrategyHash, nil)
	fixedClock(g)

	f := upload.FromBytes("a.jpg", []byte("content"))
	first, err := g.Generate(f)
	require.NoError(t, err)
	second, err := g.Generate(f)
	require.NoError(t, err)

	assert.Len(t, first, 32)
	assert.Equal(t, first, second)

	other, err := g.Generate(upload.FromBytes("b.jpg", []byte("other")))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestGenerateTimestamp(t *testing.T) {
	g := NewGenerator(StrategyTimestamp, nil)
	fixedClock(g)

	name, err := g.Generate(upload.FromBytes("a.jpg", []byte("x")))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^1700000000_[0-9a-zA-Z]{16}$`), name)
}

func TestGenerateCustom(t *testing.T) {
	g := NewGenerator(StrategyUUID, func(f *upload.File) string {
		return "custom_" + f.Name()
	})
	assert.Equal(t, Strategy("custom"), g.Strategy())

	name, err := g.Generate(upload.FromBytes("photo.jpg", []byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "custom_photo.jpg", name)

	empty := NewGenerator(StrategyDefault, func(*upload.File) string { return "" })
	_, err = empty.Generate(upload.FromBytes("photo.jpg", []byte("x")))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyDefault, s)

	s, err = ParseStrategy("hash")
	require.NoError(t, err)
	assert.Equal(t, StrategyHash, s)

	_, err = ParseStrategy("sha256")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"My Photo":           "my-photo",
		"  Hello,  World!! ": "hello-world",
		"Crème Brûlée":       "creme-brulee",
		"snake_case_name":    "snake-case-name",
		"already-slugged":    "already-slugged",
		"!!!":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}
