package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

type SiteHandler struct {
	siteService *services.SiteService
}

func NewSiteHandler(sites *services.SiteService) *SiteHandler {
	return &SiteHandler{siteService: sites}
}

// GET /api/sites
func (h *SiteHandler) List(c *gin.Context) {
	sites, err := h.siteService.List(c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, sites)
}

// GET /api/sites/:id
func (h *SiteHandler) Get(c *gin.Context) {
	site, err := h.siteService.Get(lookupParam(c, "id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, site)
}

// Create adds a site, creating missing parents
// POST /api/sites
func (h *SiteHandler) Create(c *gin.Context) {
	var req services.SiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	site, err := h.siteService.Create(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusCreated, site)
}

// PUT /api/sites/:id
func (h *SiteHandler) Update(c *gin.Context) {
	var req services.SiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	site, err := h.siteService.Update(lookupParam(c, "id"), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, site)
}

// DELETE /api/sites/:id
func (h *SiteHandler) Delete(c *gin.Context) {
	if err := h.siteService.Delete(lookupParam(c, "id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// Systems lists the systems racked at a site
// GET /api/sites/:id/systems
func (h *SiteHandler) Systems(c *gin.Context) {
	systems, err := h.siteService.Systems(lookupParam(c, "id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, services.NewSystemViews(systems))
}
