package dto

import (
	"mime/multipart"
	"time"
)

// SaveImageRequest is the multipart form of POST /images.
type SaveImageRequest struct {
	Image       *multipart.FileHeader `form:"image" binding:"required"`
	Name        string                `form:"name"`
	Extension   string                `form:"extension"`
	Path        string                `form:"path"`
	Disk        string                `form:"disk"`
	Width       int                   `form:"width"`
	Height      int                   `form:"height"`
	AspectRatio *bool                 `form:"aspect_ratio"`
	Compress    *bool                 `form:"compress"`
	Quality     int                   `form:"quality"`
	Sizes       string                `form:"sizes"`
	ReturnKeys  string                `form:"return_keys"`

	WatermarkRequest
}

// WatermarkRequest carries the optional overlay settings shared by the save
// endpoints. WatermarkFile takes precedence over WatermarkPath.
type WatermarkRequest struct {
	WatermarkFile     *multipart.FileHeader `form:"watermark"`
	WatermarkPath     string                `form:"watermark_path"`
	WatermarkPosition string                `form:"watermark_position"`
	WatermarkOpacity  *int                  `form:"watermark_opacity"`
	WatermarkX        *int                  `form:"watermark_x"`
	WatermarkY        *int                  `form:"watermark_y"`
	WatermarkWidth    int                   `form:"watermark_width"`
	WatermarkHeight   int                   `form:"watermark_height"`
}

func (w WatermarkRequest) HasWatermark() bool {
	return w.WatermarkFile != nil || w.WatermarkPath != ""
}

// SaveGalleryRequest is the multipart form of POST /galleries.
type SaveGalleryRequest struct {
	Images      []*multipart.FileHeader `form:"images" binding:"required"`
	Path        string                  `form:"path"`
	Disk        string                  `form:"disk"`
	Width       int                     `form:"width"`
	Height      int                     `form:"height"`
	AspectRatio *bool                   `form:"aspect_ratio"`
	Compress    *bool                   `form:"compress"`
	Quality     int                     `form:"quality"`
	Sizes       string                  `form:"sizes"`
	ReturnKeys  string                  `form:"return_keys"`
	ImageColumn string                  `form:"image_column"`
	FKColumn    string                  `form:"fk_column"`
	FKID        int64                   `form:"fk_id"`
	AltText     string                  `form:"alt_text"`
	AltTexts    []string                `form:"alt_texts"`

	WatermarkRequest
}

type DeleteImageRequest struct {
	Name  string   `json:"name" binding:"required"`
	Path  string   `json:"path" binding:"required"`
	Disk  string   `json:"disk"`
	Sizes []string `json:"sizes"`
}

type DeleteGalleryRequest struct {
	Names []string `json:"names" binding:"required,min=1"`
	Path  string   `json:"path" binding:"required"`
	Disk  string   `json:"disk"`
	Sizes []string `json:"sizes"`
}

// ObjectQuery addresses one stored object in GET requests.
type ObjectQuery struct {
	Path string `form:"path" binding:"required"`
	Disk string `form:"disk"`
}

// RawQuery selects caching and disposition for GET /images/raw.
type RawQuery struct {
	ObjectQuery
	MaxAge      int    `form:"max_age"`
	NoCache     bool   `form:"no_cache"`
	Disposition string `form:"disposition"`
	Filename    string `form:"filename"`
}

type DownloadQuery struct {
	ObjectQuery
	Name string `form:"name"`
}

type CatalogQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

type TemporaryURLQuery struct {
	ObjectQuery
	ExpirySec int `form:"expiry_sec" binding:"required,min=1"`
}

// ImageEventMessage is the Kafka payload for saved and deleted images.
type ImageEventMessage struct {
	Type     string    `json:"type"`
	Disk     string    `json:"disk"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	FullPath string    `json:"full_path,omitempty"`
	Sizes    []string  `json:"sizes,omitempty"`
	Deleted  bool      `json:"deleted,omitempty"`
	At       time.Time `json:"at"`
}

const (
	EventSaved   = "saved"
	EventDeleted = "deleted"
)
