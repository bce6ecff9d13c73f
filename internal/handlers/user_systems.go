package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

// UnmanagedSystemHandler serves desktops and laptops tracked outside the
// data center inventory.
type UnmanagedSystemHandler struct {
	service *services.UnmanagedSystemService
}

func NewUnmanagedSystemHandler(service *services.UnmanagedSystemService) *UnmanagedSystemHandler {
	return &UnmanagedSystemHandler{service: service}
}

// GET /api/unmanaged-systems
func (h *UnmanagedSystemHandler) List(c *gin.Context) {
	systems, err := h.service.List(c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, systems)
}

// GET /api/unmanaged-systems/:id
func (h *UnmanagedSystemHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	sys, err := h.service.GetByID(id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, sys)
}

// POST /api/unmanaged-systems
func (h *UnmanagedSystemHandler) Create(c *gin.Context) {
	var req services.UnmanagedSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	sys, err := h.service.Create(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusCreated, sys)
}

// PUT/PATCH /api/unmanaged-systems/:id
func (h *UnmanagedSystemHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req services.UnmanagedSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	sys, err := h.service.Update(id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, sys)
}

// DELETE /api/unmanaged-systems/:id
func (h *UnmanagedSystemHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.service.Delete(id); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// GET /api/unmanaged-systems/:id/history
func (h *UnmanagedSystemHandler) History(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if _, err := h.service.GetByID(id); err != nil {
		fail(c, err)
		return
	}
	rows, err := h.service.History(id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, rows)
}

// Upgradeable lists an owner's systems due for replacement
// GET /api/owners/:id/upgradeable
func (h *UnmanagedSystemHandler) Upgradeable(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	systems, err := h.service.UpgradeableSystems(id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, systems)
}
