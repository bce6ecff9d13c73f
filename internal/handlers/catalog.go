package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

// CatalogHandler serves the REST routes of one lookup table, e.g.
// /api/system-types or /api/owners.
type CatalogHandler[T any] struct {
	service *services.CatalogService[T]
}

func NewCatalogHandler[T any](service *services.CatalogService[T]) *CatalogHandler[T] {
	return &CatalogHandler[T]{service: service}
}

// Register mounts list, detail, create, update, delete and revision routes
// on group.
func (h *CatalogHandler[T]) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.GET("/:id/revisions", h.Revisions)
	group.POST("", h.Create)
	group.PUT("/:id", h.Update)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

func (h *CatalogHandler[T]) List(c *gin.Context) {
	items, err := h.service.List(c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, items)
}

func (h *CatalogHandler[T]) Get(c *gin.Context) {
	item, err := h.service.Get(lookupParam(c, "id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, item)
}

func (h *CatalogHandler[T]) Create(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	item, err := h.service.Create(body, actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusCreated, item)
}

func (h *CatalogHandler[T]) Update(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	item, err := h.service.Update(lookupParam(c, "id"), body, actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, item)
}

func (h *CatalogHandler[T]) Delete(c *gin.Context) {
	if err := h.service.Delete(lookupParam(c, "id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CatalogHandler[T]) Revisions(c *gin.Context) {
	revs, err := h.service.Revisions(lookupParam(c, "id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, revs)
}
