package domain

import (
	"context"
	"time"
)

type CatalogStatus string

const (
	CatalogStored  CatalogStatus = "stored"
	CatalogDeleted CatalogStatus = "deleted"
)

// CatalogImage is the worker's projection of image events.
type CatalogImage struct {
	ID        string        `json:"id"`
	Disk      string        `json:"disk"`
	Path      string        `json:"path"`
	Name      string        `json:"name"`
	FullPath  string        `json:"full_path"`
	Sizes     []string      `json:"sizes,omitempty"`
	Status    CatalogStatus `json:"status"`
	SavedAt   time.Time     `json:"saved_at"`
	DeletedAt *time.Time    `json:"deleted_at,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (c *CatalogImage) MarkDeleted(at time.Time) {
	c.Status = CatalogDeleted
	c.DeletedAt = &at
	c.UpdatedAt = at
}

type CatalogRepository interface {
	Upsert(ctx context.Context, image *CatalogImage) error
	MarkDeleted(ctx context.Context, disk, fullPath string, at time.Time) error
	FindByPath(ctx context.Context, disk, fullPath string) (*CatalogImage, error)
	List(ctx context.Context, status CatalogStatus, limit, offset int) ([]*CatalogImage, error)
}
