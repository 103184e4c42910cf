package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/dto"
	"github.com/yokitheyo/imagekit/internal/helpers"
	"github.com/yokitheyo/imagekit/internal/infrastructure/storage"
	"github.com/yokitheyo/imagekit/internal/upload"
	"github.com/yokitheyo/imagekit/internal/usecase"
)

type ImageHandler struct {
	kit           *usecase.ImageKit
	maxUploadSize int64
}

func NewImageHandler(kit *usecase.ImageKit, maxUploadSizeMB int) *ImageHandler {
	return &ImageHandler{
		kit:           kit,
		maxUploadSize: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (h *ImageHandler) RegisterRoutes(engine *ginext.Engine) {
	engine.POST("/images", h.SaveImage)
	engine.POST("/galleries", h.SaveGallery)
	engine.DELETE("/images", h.DeleteImage)
	engine.DELETE("/galleries", h.DeleteGallery)
	engine.GET("/images/url", h.GetURL)
	engine.GET("/images/exists", h.Exists)
	engine.GET("/images/raw", h.Raw)
	engine.GET("/images/download", h.Download)
	engine.GET("/images/temporary-url", h.TemporaryURL)
}

// pipelineForm is the option set shared by the save endpoints.
type pipelineForm struct {
	path        string
	disk        string
	width       int
	height      int
	aspectRatio *bool
	compress    *bool
	quality     int
	sizes       string
	returnKeys  string
	watermark   dto.WatermarkRequest
}

func (h *ImageHandler) configure(ctx context.Context, hd *usecase.Handler, f pipelineForm) error {
	if f.disk != "" {
		hd.SetDisk(f.disk)
	}
	if f.path != "" {
		hd.SetPath(f.path)
	}
	if f.width != 0 || f.height != 0 {
		hd.SetDimensions(f.width, f.height)
	}
	if f.aspectRatio != nil {
		hd.SetAspectRatio(*f.aspectRatio)
	}
	if f.compress != nil || f.quality != 0 {
		enabled := true
		if f.compress != nil {
			enabled = *f.compress
		}
		hd.SetCompression(enabled, f.quality)
	}
	if sizes := helpers.SplitList(f.sizes); sizes != nil {
		hd.SetMultiSize(sizes)
	}
	if keys := helpers.SplitList(f.returnKeys); keys != nil {
		hd.SetReturnKeys(keys...)
	}

	if f.watermark.HasWatermark() {
		opts := usecase.WatermarkOptions{
			Source:   f.watermark.WatermarkPath,
			Position: domain.Position(f.watermark.WatermarkPosition),
			Opacity:  f.watermark.WatermarkOpacity,
			X:        f.watermark.WatermarkX,
			Y:        f.watermark.WatermarkY,
			Width:    f.watermark.WatermarkWidth,
			Height:   f.watermark.WatermarkHeight,
		}
		if f.watermark.WatermarkFile != nil {
			file, err := upload.FromMultipart(f.watermark.WatermarkFile)
			if err != nil {
				return domain.InvalidInput("read watermark file: %v", err)
			}
			opts.Upload = file
		}
		hd.SetWatermark(ctx, opts)
	}
	return hd.Err()
}

// SaveImage POST /images
func (h *ImageHandler) SaveImage(c *ginext.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	var req dto.SaveImageRequest
	if err := c.ShouldBind(&req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("invalid save image request")
		badRequest(c, "invalid_request", err.Error())
		return
	}

	file, err := upload.FromMultipart(req.Image)
	if err != nil {
		badRequest(c, "invalid_request", "No readable image file provided")
		return
	}

	ctx := c.Request.Context()
	hd := h.kit.Make()
	if req.Name != "" {
		hd.SetName(req.Name)
	}
	if req.Extension != "" {
		hd.SetExtension(req.Extension)
	}
	if err := h.configure(ctx, hd, pipelineForm{
		path:        req.Path,
		disk:        req.Disk,
		width:       req.Width,
		height:      req.Height,
		aspectRatio: req.AspectRatio,
		compress:    req.Compress,
		quality:     req.Quality,
		sizes:       req.Sizes,
		returnKeys:  req.ReturnKeys,
		watermark:   req.WatermarkRequest,
	}); err != nil {
		writeError(c, err)
		return
	}

	res, err := hd.Image(file).Save(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SaveImageResponse{Image: res})
}

// SaveGallery POST /galleries
func (h *ImageHandler) SaveGallery(c *ginext.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	var req dto.SaveGalleryRequest
	if err := c.ShouldBind(&req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("invalid save gallery request")
		badRequest(c, "invalid_request", err.Error())
		return
	}

	files := make([]*upload.File, 0, len(req.Images))
	for i, fh := range req.Images {
		file, err := upload.FromMultipart(fh)
		if err != nil {
			badRequest(c, "invalid_request", fmt.Sprintf("Image %d is not readable", i))
			return
		}
		files = append(files, file)
	}

	ctx := c.Request.Context()
	hd := h.kit.Make()
	if err := h.configure(ctx, hd, pipelineForm{
		path:        req.Path,
		disk:        req.Disk,
		width:       req.Width,
		height:      req.Height,
		aspectRatio: req.AspectRatio,
		compress:    req.Compress,
		quality:     req.Quality,
		sizes:       req.Sizes,
		returnKeys:  req.ReturnKeys,
		watermark:   req.WatermarkRequest,
	}); err != nil {
		writeError(c, err)
		return
	}

	entries, err := hd.Images(files).SaveGallery(ctx, usecase.GalleryOptions{
		ImageColumn: req.ImageColumn,
		FKColumn:    req.FKColumn,
		FKID:        req.FKID,
		AltText:     req.AltText,
		AltTexts:    req.AltTexts,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SaveGalleryResponse{Images: entries, Total: len(entries)})
}

// DeleteImage DELETE /images
func (h *ImageHandler) DeleteImage(c *ginext.Context) {
	var req dto.DeleteImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}

	hd := h.kit.Make()
	if req.Disk != "" {
		if err := hd.SetDisk(req.Disk).Err(); err != nil {
			writeError(c, err)
			return
		}
	}

	deleted, err := hd.DeleteImage(c.Request.Context(), req.Name, req.Path, req.Sizes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DeleteImageResponse{Deleted: deleted})
}

// DeleteGallery DELETE /galleries
func (h *ImageHandler) DeleteGallery(c *ginext.Context) {
	var req dto.DeleteGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}

	hd := h.kit.Make()
	if req.Disk != "" {
		if err := hd.SetDisk(req.Disk).Err(); err != nil {
			writeError(c, err)
			return
		}
	}

	count, err := hd.DeleteGallery(c.Request.Context(), req.Names, req.Path, req.Sizes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DeleteGalleryResponse{Deleted: count, Total: len(req.Names)})
}

// GetURL GET /images/url
func (h *ImageHandler) GetURL(c *ginext.Context) {
	var q dto.ObjectQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}

	u, err := h.kit.Make().URL(q.Path, q.Disk)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.URLResponse{URL: u})
}

// Exists GET /images/exists
func (h *ImageHandler) Exists(c *ginext.Context) {
	var q dto.ObjectQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}

	ok, err := h.kit.Make().Exists(c.Request.Context(), q.Path, q.Disk)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ExistsResponse{Exists: ok})
}

// Raw GET /images/raw
func (h *ImageHandler) Raw(c *ginext.Context) {
	var q dto.RawQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}

	opts := storage.ResponseOptions{
		Disposition: q.Disposition,
		Filename:    q.Filename,
	}
	switch {
	case q.NoCache:
		opts.Cache = storage.NoCache()
	case q.MaxAge > 0:
		opts.Cache = storage.MaxAge(q.MaxAge)
	}

	resp, err := h.kit.Make().Response(c.Request.Context(), q.Path, q.Disk, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	h.send(c, resp, q.Path)
}

// Download GET /images/download
func (h *ImageHandler) Download(c *ginext.Context) {
	var q dto.DownloadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}

	resp, err := h.kit.Make().Download(c.Request.Context(), q.Path, q.Name, q.Disk, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	h.send(c, resp, q.Path)
}

// TemporaryURL GET /images/temporary-url
func (h *ImageHandler) TemporaryURL(c *ginext.Context) {
	var q dto.TemporaryURLQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}

	u, err := h.kit.Make().TemporaryURL(c.Request.Context(), q.Path, time.Duration(q.ExpirySec)*time.Second, q.Disk, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.URLResponse{URL: u})
}

// Helper methods

func (h *ImageHandler) send(c *ginext.Context, resp *storage.Response, p string) {
	if err := resp.Write(c.Writer); err != nil {
		zlog.Logger.Error().Err(err).Str("path", p).Msg("failed to write image response")
		return
	}
	zlog.Logger.Debug().Str("path", p).Int("bytes", len(resp.Body)).Msg("image sent successfully")
}

func badRequest(c *ginext.Context, code, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    http.StatusBadRequest,
	})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *ginext.Context, err error) {
	status, code := http.StatusInternalServerError, "server_error"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrUnsupported):
		status, code = http.StatusNotImplemented, "unsupported"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		zlog.Logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		message = "Internal error while processing the image"
	}

	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}
