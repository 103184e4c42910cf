package http

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/dto"
	"github.com/yokitheyo/imagekit/internal/pathutil"
)

const (
	defaultCatalogLimit = 50
	maxCatalogLimit     = 500
)

// CatalogHandler exposes the images table maintained by the catalog worker.
type CatalogHandler struct {
	repo domain.CatalogRepository
}

func NewCatalogHandler(repo domain.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

func (h *CatalogHandler) RegisterRoutes(engine *ginext.Engine) {
	engine.GET("/catalog", h.List)
	engine.GET("/catalog/lookup", h.Lookup)
}

// List GET /catalog
func (h *CatalogHandler) List(c *ginext.Context) {
	var q dto.CatalogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}

	status := domain.CatalogStatus(q.Status)
	switch status {
	case "", domain.CatalogStored, domain.CatalogDeleted:
	default:
		badRequest(c, "invalid_request", "status must be stored or deleted")
		return
	}
	if q.Limit <= 0 {
		q.Limit = defaultCatalogLimit
	}
	if q.Limit > maxCatalogLimit {
		q.Limit = maxCatalogLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	images, err := h.repo.List(c.Request.Context(), status, q.Limit, q.Offset)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]*dto.CatalogImageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, dto.MapCatalogImage(img))
	}
	c.JSON(http.StatusOK, ginext.H{"images": out, "total": len(out)})
}

// Lookup GET /catalog/lookup
func (h *CatalogHandler) Lookup(c *ginext.Context) {
	var q dto.ObjectQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}
	if q.Disk == "" {
		badRequest(c, "invalid_request", "disk is required")
		return
	}

	fullPath, err := pathutil.Normalize(q.Path)
	if err != nil {
		writeError(c, err)
		return
	}

	img, err := h.repo.FindByPath(c.Request.Context(), q.Disk, fullPath)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapCatalogImage(img))
}
