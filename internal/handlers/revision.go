package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

type RevisionHandler struct {
	revisionService *services.RevisionService
	systemService   *services.SystemService
}

func NewRevisionHandler(revisions *services.RevisionService, systems *services.SystemService) *RevisionHandler {
	return &RevisionHandler{revisionService: revisions, systemService: systems}
}

// GET /api/revisions/:id
func (h *RevisionHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	rev, err := h.revisionService.GetByID(id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, rev)
}

// Compare diffs a revision against ?other= or the object's latest revision
// GET /api/revisions/:id/compare
func (h *RevisionHandler) Compare(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var other uint64
	if v := c.Query("other"); v != "" {
		if other, err = strconv.ParseUint(v, 10, 32); err != nil {
			response.BadRequest(c, "invalid other revision")
			return
		}
	}
	cmp, err := h.revisionService.Compare(id, uint(other))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, cmp)
}

// Revert restores a system to a saved revision
// POST /api/revisions/:id/revert
func (h *RevisionHandler) Revert(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	sys, err := h.systemService.Revert(id, actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, services.NewSystemView(*sys))
}
