package postgres

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/imagekit/internal/domain"
)

type rowStub struct {
	values []any
	err    error
}

func (r rowStub) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *domain.CatalogStatus:
			*p = domain.CatalogStatus(r.values[i].(string))
		case *time.Time:
			*p = r.values[i].(time.Time)
		case *sql.NullString:
			*p = r.values[i].(sql.NullString)
		case *sql.NullTime:
			*p = r.values[i].(sql.NullTime)
		}
	}
	return nil
}

func TestScanImage(t *testing.T) {
	saved := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	deleted := saved.Add(time.Hour)

	img, err := scanImage(rowStub{values: []any{
		"id-1", "public", "uploads/images", "a.jpg", "uploads/images/a.jpg",
		sql.NullString{String: "small,medium", Valid: true},
		"deleted", saved, sql.NullTime{Time: deleted, Valid: true}, deleted,
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"small", "medium"}, img.Sizes)
	assert.Equal(t, domain.CatalogDeleted, img.Status)
	require.NotNil(t, img.DeletedAt)
	assert.True(t, img.DeletedAt.Equal(deleted))

	img, err = scanImage(rowStub{values: []any{
		"id-2", "public", "", "b.jpg", "b.jpg", sql.NullString{}, "stored", saved, sql.NullTime{}, saved,
	}})
	require.NoError(t, err)
	assert.Nil(t, img.Sizes)
	assert.Nil(t, img.DeletedAt)

	_, err = scanImage(rowStub{err: sql.ErrNoRows})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestNullString(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.Equal(t, sql.NullString{String: "x", Valid: true}, nullString("x"))
}
