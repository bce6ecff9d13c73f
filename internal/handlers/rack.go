package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

type RackHandler struct {
	rackService *services.RackService
}

func NewRackHandler(racks *services.RackService) *RackHandler {
	return &RackHandler{rackService: racks}
}

// List returns racks, optionally of one site
// GET /api/racks
func (h *RackHandler) List(c *gin.Context) {
	var req services.RackListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	racks, err := h.rackService.List(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, racks)
}

// Get returns a rack by id or name
// GET /api/racks/:id
func (h *RackHandler) Get(c *gin.Context) {
	rack, err := h.rackService.Get(lookupParam(c, "id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, rack)
}

// POST /api/racks
func (h *RackHandler) Create(c *gin.Context) {
	var req services.RackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, bindError(err))
		return
	}
	rack, err := h.rackService.Create(&req, actorFrom(c))
	if err != nil {
		failValidation(c, err)
		return
	}
	response.Resource(c, http.StatusCreated, rack)
}

// PUT/PATCH /api/racks/:id
func (h *RackHandler) Update(c *gin.Context) {
	var req services.RackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, bindError(err))
		return
	}
	rack, err := h.rackService.Update(lookupParam(c, "id"), &req, actorFrom(c))
	if err != nil {
		failValidation(c, err)
		return
	}
	response.Resource(c, http.StatusOK, rack)
}

// Delete detaches the rack's systems and removes it
// DELETE /api/racks/:id
func (h *RackHandler) Delete(c *gin.Context) {
	if err := h.rackService.Delete(lookupParam(c, "id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// Systems returns the rack with its systems in elevation order
// GET /api/racks/:id/systems
func (h *RackHandler) Systems(c *gin.Context) {
	var filter services.RackSystemsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		fail(c, bindError(err))
		return
	}
	view, err := h.rackService.View(lookupParam(c, "id"), &filter)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, view)
}
