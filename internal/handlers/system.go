package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

type SystemHandler struct {
	systemService   *services.SystemService
	keyValueService *services.KeyValueService
}

func NewSystemHandler(systems *services.SystemService, keyValues *services.KeyValueService) *SystemHandler {
	return &SystemHandler{systemService: systems, keyValueService: keyValues}
}

// List returns paginated systems
// GET /api/systems
func (h *SystemHandler) List(c *gin.Context) {
	var req services.SystemListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	resp, err := h.systemService.List(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, resp)
}

// Get returns a system by id or hostname
// GET /api/systems/:id
func (h *SystemHandler) Get(c *gin.Context) {
	sys, err := h.systemService.Get(lookupParam(c, "id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, services.NewSystemView(*sys))
}

// Create adds a system
// POST /api/systems
func (h *SystemHandler) Create(c *gin.Context) {
	var req services.SystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, bindError(err))
		return
	}

	sys, err := h.systemService.Create(&req, actorFrom(c), services.APICreateOptions)
	if err != nil {
		failValidation(c, err)
		return
	}
	response.Resource(c, http.StatusCreated, services.NewSystemView(*sys))
}

// Update applies a full or partial update
// PUT/PATCH /api/systems/:id
func (h *SystemHandler) Update(c *gin.Context) {
	var req services.SystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, bindError(err))
		return
	}

	sys, err := h.systemService.Update(lookupParam(c, "id"), &req, actorFrom(c))
	if err != nil {
		failValidation(c, err)
		return
	}
	response.Resource(c, http.StatusOK, services.NewSystemView(*sys))
}

// Delete removes a system without key-values
// DELETE /api/systems/:id
func (h *SystemHandler) Delete(c *gin.Context) {
	if err := h.systemService.Delete(lookupParam(c, "id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// Revisions lists the saved versions of a system
// GET /api/systems/:id/revisions
func (h *SystemHandler) Revisions(c *gin.Context) {
	sys, err := h.systemService.Get(lookupParam(c, "id"))
	if err != nil {
		fail(c, err)
		return
	}
	revs, err := h.systemService.Revisions(sys.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, revs)
}

// ChangeLogs lists the human readable change history of a system
// GET /api/systems/:id/changelog
func (h *SystemHandler) ChangeLogs(c *gin.Context) {
	sys, err := h.systemService.Get(lookupParam(c, "id"))
	if err != nil {
		fail(c, err)
		return
	}
	logs, err := h.systemService.ChangeLogs(sys.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, logs)
}

// KeyValues lists the key-values of a system
// GET /api/systems/:id/key-values
func (h *SystemHandler) KeyValues(c *gin.Context) {
	sys, err := h.systemService.Get(lookupParam(c, "id"))
	if err != nil {
		fail(c, err)
		return
	}
	kvs, err := h.keyValueService.ForSystem(sys.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, kvs)
}
