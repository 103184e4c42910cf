package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectKeySets(t *testing.T) {
	img := StoredImage{Name: "a.jpg", Path: "uploads", FullPath: "uploads/a.jpg", Size: 2048}

	res := Project(img, nil)
	assert.True(t, res.IsScalar())
	assert.Equal(t, "a.jpg", res.Value())

	res = Project(img, []ReturnKey{})
	assert.False(t, res.IsScalar())
	assert.Equal(t, map[string]any{}, res.Value())
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	res = Project(img, []ReturnKey{KeySize})
	assert.Equal(t, 2.0, res.Value())

	// width is unknown, so the single key falls back to the name
	res = Project(img, []ReturnKey{KeyWidth})
	assert.Equal(t, "a.jpg", res.Value())

	res = Project(img, []ReturnKey{KeyName, KeyFullPath, KeyWidth})
	assert.Equal(t, map[string]any{"name": "a.jpg", "full_path": "uploads/a.jpg"}, res.Value())
}

func TestParseReturnKeys(t *testing.T) {
	keys, err := ParseReturnKeys([]string{"name", "hash"})
	require.NoError(t, err)
	assert.Equal(t, []ReturnKey{KeyName, KeyHash}, keys)

	keys, err = ParseReturnKeys(nil)
	require.NoError(t, err)
	assert.NotNil(t, keys)
	assert.Empty(t, keys)

	_, err = ParseReturnKeys([]string{"colour"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
