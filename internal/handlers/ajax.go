package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/middleware"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

// AjaxHandler serves the JSON endpoints used by the system pages.
type AjaxHandler struct {
	systemService          *services.SystemService
	rackService            *services.RackService
	serverModelService     *services.CatalogService[models.ServerModel]
	operatingSystemService *services.CatalogService[models.OperatingSystem]
}

func NewAjaxHandler(
	systems *services.SystemService,
	racks *services.RackService,
	serverModels *services.CatalogService[models.ServerModel],
	operatingSystems *services.CatalogService[models.OperatingSystem],
) *AjaxHandler {
	return &AjaxHandler{
		systemService:          systems,
		rackService:            racks,
		serverModelService:     serverModels,
		operatingSystemService: operatingSystems,
	}
}

// option is one entry of a select box.
type option struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ListAllSystems is the server side datatables source of the system list
// GET /systems/list_all_systems_ajax
func (h *AjaxHandler) ListAllSystems(c *gin.Context) {
	req := services.DataTableRequest{SortCol: 0, SortDir: "asc"}
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	req.ReadOnly = !middleware.IsAuthenticated(c)

	resp, err := h.systemService.DataTable(&req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Autocomplete suggests hostnames
// GET /systems/system_auto_complete_ajax?query=web
func (h *AjaxHandler) Autocomplete(c *gin.Context) {
	query, ok := c.GetQuery("query")
	if !ok {
		response.BadRequest(c, "query is required")
		return
	}
	result, err := h.systemService.Autocomplete(query)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RacksBySite lists the racks of a site, or every rack for site 0
// GET /systems/racks/bysite/:site_pk
func (h *AjaxHandler) RacksBySite(c *gin.Context) {
	site := lookupParam(c, "site_pk")
	if site == "" || site == "0" {
		racks, err := h.rackService.List(&services.RackListRequest{})
		if err != nil {
			fail(c, err)
			return
		}
		opts := make([]option, 0, len(racks))
		for _, r := range racks {
			opts = append(opts, option{ID: r.ID, Name: r.SiteLabel()})
		}
		c.JSON(http.StatusOK, opts)
		return
	}

	racks, err := h.rackService.BySite(site)
	if err != nil {
		fail(c, err)
		return
	}
	opts := make([]option, 0, len(racks))
	for _, r := range racks {
		opts = append(opts, option{ID: r.ID, Name: r.Label})
	}
	c.JSON(http.StatusOK, opts)
}

// ServerModelList returns every server model as "vendor - model"
// GET /systems/server_models/list_ajax
func (h *AjaxHandler) ServerModelList(c *gin.Context) {
	items, err := h.serverModelService.List("")
	if err != nil {
		fail(c, err)
		return
	}
	opts := make([]option, 0, len(items))
	for _, m := range items {
		opts = append(opts, option{ID: m.ID, Name: m.String()})
	}
	c.JSON(http.StatusOK, opts)
}

type serverModelForm struct {
	Vendor string `form:"vendor" json:"vendor" binding:"required"`
	Model  string `form:"model" json:"model" binding:"required"`
}

// ServerModelCreate adds a server model and returns the refreshed list
// POST /systems/server_models/create_ajax
func (h *AjaxHandler) ServerModelCreate(c *gin.Context) {
	var form serverModelForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, bindError(err))
		return
	}
	body, _ := json.Marshal(form)
	if _, err := h.serverModelService.Create(body, actorFrom(c)); err != nil {
		fail(c, err)
		return
	}
	h.ServerModelList(c)
}

// OperatingSystemList returns every operating system as "name - version"
// GET /systems/operating_system/list_ajax
func (h *AjaxHandler) OperatingSystemList(c *gin.Context) {
	items, err := h.operatingSystemService.List("")
	if err != nil {
		fail(c, err)
		return
	}
	opts := make([]option, 0, len(items))
	for _, o := range items {
		opts = append(opts, option{ID: o.ID, Name: o.String()})
	}
	c.JSON(http.StatusOK, opts)
}

type operatingSystemForm struct {
	Name    string `form:"name" json:"name" binding:"required"`
	Version string `form:"version" json:"version"`
}

// OperatingSystemCreate adds an operating system and returns the refreshed list
// POST /systems/operating_system/create_ajax
func (h *AjaxHandler) OperatingSystemCreate(c *gin.Context) {
	var form operatingSystemForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, bindError(err))
		return
	}
	body, _ := json.Marshal(form)
	if _, err := h.operatingSystemService.Create(body, actorFrom(c)); err != nil {
		fail(c, err)
		return
	}
	h.OperatingSystemList(c)
}
