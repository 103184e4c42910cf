package dto

import (
	"time"

	"github.com/yokitheyo/imagekit/internal/domain"
)

type SaveImageResponse struct {
	Image domain.Result `json:"image"`
}

type SaveGalleryResponse struct {
	Images []domain.GalleryEntry `json:"images"`
	Total  int                   `json:"total"`
}

type DeleteImageResponse struct {
	Deleted bool `json:"deleted"`
}

type DeleteGalleryResponse struct {
	Deleted int `json:"deleted"`
	Total   int `json:"total"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

type CatalogImageResponse struct {
	ID        string     `json:"id"`
	Disk      string     `json:"disk"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	FullPath  string     `json:"full_path"`
	Sizes     []string   `json:"sizes,omitempty"`
	Status    string     `json:"status"`
	SavedAt   time.Time  `json:"saved_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func MapCatalogImage(img *domain.CatalogImage) *CatalogImageResponse {
	if img == nil {
		return nil
	}
	return &CatalogImageResponse{
		ID:        img.ID,
		Disk:      img.Disk,
		Name:      img.Name,
		Path:      img.Path,
		FullPath:  img.FullPath,
		Sizes:     img.Sizes,
		Status:    string(img.Status),
		SavedAt:   img.SavedAt,
		DeletedAt: img.DeletedAt,
	}
}
