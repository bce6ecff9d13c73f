package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/middleware"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

// WebCatalogs groups the lookup tables used by the HTML forms.
type WebCatalogs struct {
	SystemTypes      *services.CatalogService[models.SystemType]
	SystemStatuses   *services.CatalogService[models.SystemStatus]
	ServerModels     *services.CatalogService[models.ServerModel]
	OperatingSystems *services.CatalogService[models.OperatingSystem]
	Locations        *services.CatalogService[models.Location]
}

// WebHandler renders the browsable inventory pages.
type WebHandler struct {
	systemService   *services.SystemService
	keyValueService *services.KeyValueService
	rackService     *services.RackService
	siteService     *services.SiteService
	revisionService *services.RevisionService
	csvService      *services.CSVService
	catalogs        WebCatalogs
	bugURL          string
}

func NewWebHandler(
	systems *services.SystemService,
	keyValues *services.KeyValueService,
	racks *services.RackService,
	sites *services.SiteService,
	revisions *services.RevisionService,
	csvService *services.CSVService,
	catalogs WebCatalogs,
	bugURL string,
) *WebHandler {
	return &WebHandler{
		systemService:   systems,
		keyValueService: keyValues,
		rackService:     racks,
		siteService:     sites,
		revisionService: revisions,
		csvService:      csvService,
		catalogs:        catalogs,
		bugURL:          bugURL,
	}
}

func (h *WebHandler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["read_only"] = !middleware.IsAuthenticated(c)
	data["bug_url"] = h.bugURL
	c.HTML(status, name, data)
}

// pageError shows validation and lookup failures as a page; anything else
// goes through the JSON error path.
func (h *WebHandler) pageError(c *gin.Context, err error) {
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		fail(c, err)
		return
	}
	h.render(c, appErr.HTTPStatus, "generic_output.html", gin.H{"content": appErr.Message})
}

// Home is the system list page
// GET / and /systems/
func (h *WebHandler) Home(c *gin.Context) {
	h.render(c, http.StatusOK, "index.html", gin.H{"title": "Systems"})
}

// Quicksearch renders the result table for the search box. Clients posting
// is_test get the matching systems as JSON.
// POST /systems/quicksearch/
func (h *WebHandler) Quicksearch(c *gin.Context) {
	term, ok := c.GetPostForm("quicksearch")
	if !ok {
		response.BadRequest(c, "quicksearch is required")
		return
	}
	systems, err := h.systemService.Quicksearch(term)
	if err != nil {
		fail(c, err)
		return
	}
	if _, test := c.GetPostForm("is_test"); test {
		c.JSON(http.StatusOK, services.NewSystemViews(systems))
		return
	}
	h.render(c, http.StatusOK, "quicksearch.html", gin.H{"systems": systems})
}

// Show displays one system. "a:<tag>" looks the system up by asset tag and
// renders the release view without key values or history.
// GET /systems/show/:id
func (h *WebHandler) Show(c *gin.Context) {
	ref := lookupParam(c, "id")
	if tag, ok := strings.CutPrefix(ref, "a:"); ok {
		sys, err := h.systemService.GetByAssetTag(tag)
		if err != nil {
			h.pageError(c, err)
			return
		}
		h.render(c, http.StatusOK, "system_show.html", gin.H{
			"title":         sys.Hostname,
			"system":        sys,
			"is_release":    true,
			"warranty_link": warrantyLink(sys),
		})
		return
	}

	id, err := parseID(c, "id")
	if err != nil {
		h.pageError(c, err)
		return
	}
	sys, err := h.systemService.GetByID(id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	keyValues, err := h.keyValueService.ForSystem(sys.ID)
	if err != nil {
		fail(c, err)
		return
	}
	visible := make([]models.KeyValue, 0, len(keyValues))
	for _, kv := range keyValues {
		if !strings.HasPrefix(strings.ToLower(kv.Key), "nic.") {
			visible = append(visible, kv)
		}
	}
	changeLogs, err := h.systemService.ChangeLogs(sys.ID)
	if err != nil {
		fail(c, err)
		return
	}
	revisions, err := h.systemService.Revisions(sys.ID)
	if err != nil {
		fail(c, err)
		return
	}

	h.render(c, http.StatusOK, "system_show.html", gin.H{
		"title":         sys.Hostname,
		"system":        sys,
		"key_values":    visible,
		"change_logs":   changeLogs,
		"revisions":     revisions,
		"warranty_link": warrantyLink(sys),
	})
}

// warrantyLink points HP hardware at the vendor's warranty lookup.
func warrantyLink(sys *models.System) string {
	if sys.Serial == "" || sys.ServerModel == nil || sys.ServerModel.PartNumber == "" || sys.ServerModel.Vendor != "HP" {
		return ""
	}
	return fmt.Sprintf("http://www11.itrc.hp.com/service/ewarranty/warrantyResults.do?productNumber=%s&serialNumber1=%s&country=US",
		sys.ServerModel.PartNumber, sys.Serial)
}

func (h *WebHandler) systemForm(c *gin.Context, status int, sys *models.System, formErr string) {
	data := gin.H{"title": "New System"}
	if sys != nil {
		data["title"] = "Edit " + sys.Hostname
		data["system"] = sys
		revisions, err := h.systemService.Revisions(sys.ID)
		if err != nil {
			fail(c, err)
			return
		}
		data["revisions"] = revisions
	}
	if formErr != "" {
		data["error"] = formErr
	}

	var err error
	if data["operating_systems"], err = h.catalogs.OperatingSystems.List(""); err != nil {
		fail(c, err)
		return
	}
	if data["server_models"], err = h.catalogs.ServerModels.List(""); err != nil {
		fail(c, err)
		return
	}
	if data["system_types"], err = h.catalogs.SystemTypes.List(""); err != nil {
		fail(c, err)
		return
	}
	if data["system_statuses"], err = h.catalogs.SystemStatuses.List(""); err != nil {
		fail(c, err)
		return
	}
	if data["racks"], err = h.rackService.List(&services.RackListRequest{}); err != nil {
		fail(c, err)
		return
	}
	h.render(c, status, "system_form.html", data)
}

// formErrorMessage returns the message shown above a rejected form, or ""
// when err is not a validation error.
func formErrorMessage(err error) string {
	var appErr *response.AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusBadRequest {
		if appErr.Field != "" {
			return appErr.Field + ": " + appErr.Message
		}
		return appErr.Message
	}
	return ""
}

// NewSystem shows and submits the system create form
// GET/POST /systems/new
func (h *WebHandler) NewSystem(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.systemForm(c, http.StatusOK, nil, "")
		return
	}
	var req services.SystemRequest
	if err := c.ShouldBind(&req); err != nil {
		h.systemForm(c, http.StatusBadRequest, nil, err.Error())
		return
	}
	sys, err := h.systemService.Create(&req, actorFrom(c), services.CreateOptions{})
	if err != nil {
		if msg := formErrorMessage(err); msg != "" {
			h.systemForm(c, http.StatusBadRequest, nil, msg)
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/systems/show/%d", sys.ID))
}

// EditSystem shows and submits the system edit form
// GET/POST /systems/edit/:id
func (h *WebHandler) EditSystem(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.pageError(c, err)
		return
	}
	sys, err := h.systemService.GetByID(id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	if c.Request.Method != http.MethodPost {
		h.systemForm(c, http.StatusOK, sys, "")
		return
	}

	var req services.SystemRequest
	if err := c.ShouldBind(&req); err != nil {
		h.systemForm(c, http.StatusBadRequest, sys, err.Error())
		return
	}
	updated, err := h.systemService.Update(strconv.FormatUint(uint64(id), 10), &req, actorFrom(c))
	if err != nil {
		if msg := formErrorMessage(err); msg != "" {
			h.systemForm(c, http.StatusBadRequest, sys, msg)
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/systems/show/%d", updated.ID))
}

// DeleteSystem confirms on GET and deletes on POST. Systems that still
// carry key values are refused.
// GET/POST /systems/delete/:id
func (h *WebHandler) DeleteSystem(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.pageError(c, err)
		return
	}
	sys, err := h.systemService.GetByID(id)
	if err != nil {
		h.pageError(c, err)
		return
	}
	if c.Request.Method != http.MethodPost {
		h.render(c, http.StatusOK, "confirm_delete.html", gin.H{
			"object":     sys.Hostname,
			"cancel_url": fmt.Sprintf("/systems/show/%d", sys.ID),
		})
		return
	}

	if err := h.systemService.Delete(strconv.FormatUint(uint64(id), 10)); err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusConflict {
			h.render(c, http.StatusConflict, "generic_output.html", gin.H{
				"system":    sys,
				"content":   appErr.Message,
				"link":      fmt.Sprintf("/api/systems/%d/key-values", sys.ID),
				"link_text": "Key/Value Entries",
			})
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

type rackPageFilter struct {
	Site               uint   `form:"site"`
	Rack               uint   `form:"rack"`
	Status             string `form:"status"`
	ShowDecommissioned bool   `form:"show_decommissioned"`
}

// Racks draws rack elevations. Nothing is drawn until a filter is chosen;
// decommissioned systems are hidden unless asked for.
// GET /systems/racks/
func (h *WebHandler) Racks(c *gin.Context) {
	var filter rackPageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.pageError(c, bindError(err))
		return
	}
	_, hasSite := c.GetQuery("site")
	hasQuery := hasSite || filter.Rack > 0 || filter.Status != ""

	sites, err := h.siteService.List("")
	if err != nil {
		fail(c, err)
		return
	}
	statuses, err := h.catalogs.SystemStatuses.List("")
	if err != nil {
		fail(c, err)
		return
	}
	listReq := &services.RackListRequest{}
	if filter.Site > 0 {
		listReq.Site = strconv.FormatUint(uint64(filter.Site), 10)
	}
	rackChoices, err := h.rackService.List(listReq)
	if err != nil {
		h.pageError(c, err)
		return
	}

	var views []*services.RackView
	if hasQuery {
		systemsFilter := &services.RackSystemsFilter{Status: filter.Status}
		for _, rack := range rackChoices {
			if filter.Rack > 0 && rack.ID != filter.Rack {
				continue
			}
			view, err := h.rackService.View(strconv.FormatUint(uint64(rack.ID), 10), systemsFilter)
			if err != nil {
				fail(c, err)
				return
			}
			if !filter.ShowDecommissioned {
				view.Systems = withoutDecommissioned(view.Systems)
			}
			views = append(views, view)
		}
	}

	h.render(c, http.StatusOK, "racks.html", gin.H{
		"title":        "Racks",
		"racks":        views,
		"sites":        sites,
		"rack_choices": rackChoices,
		"statuses":     statuses,
		"filter":       filter,
	})
}

func withoutDecommissioned(systems []services.SystemView) []services.SystemView {
	kept := systems[:0]
	for _, s := range systems {
		if s.SystemStatus == nil || *s.SystemStatus != models.StatusDecommissioned {
			kept = append(kept, s)
		}
	}
	return kept
}

func (h *WebHandler) rackForm(c *gin.Context, status int, rack *models.SystemRack, formErr string) {
	sites, err := h.siteService.List("")
	if err != nil {
		fail(c, err)
		return
	}
	locations, err := h.catalogs.Locations.List("")
	if err != nil {
		fail(c, err)
		return
	}
	data := gin.H{"title": "New Rack", "sites": sites, "locations": locations}
	if rack != nil {
		data["title"] = "Edit Rack " + rack.Name
		data["rack"] = rack
	}
	if formErr != "" {
		data["error"] = formErr
	}
	h.render(c, status, "rack_form.html", data)
}

// NewRack shows and submits the rack create form
// GET/POST /systems/racks/new
func (h *WebHandler) NewRack(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.rackForm(c, http.StatusOK, nil, "")
		return
	}
	var req services.RackRequest
	if err := c.ShouldBind(&req); err != nil {
		h.rackForm(c, http.StatusBadRequest, nil, err.Error())
		return
	}
	if _, err := h.rackService.Create(&req, actorFrom(c)); err != nil {
		if msg := formErrorMessage(err); msg != "" {
			h.rackForm(c, http.StatusBadRequest, nil, msg)
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/systems/racks/")
}

// EditRack shows and submits the rack edit form
// GET/POST /systems/racks/edit/:id
func (h *WebHandler) EditRack(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.pageError(c, err)
		return
	}
	lookup := strconv.FormatUint(uint64(id), 10)
	rack, err := h.rackService.Get(lookup)
	if err != nil {
		h.pageError(c, err)
		return
	}
	if c.Request.Method != http.MethodPost {
		h.rackForm(c, http.StatusOK, rack, "")
		return
	}
	var req services.RackRequest
	if err := c.ShouldBind(&req); err != nil {
		h.rackForm(c, http.StatusBadRequest, rack, err.Error())
		return
	}
	if _, err := h.rackService.Update(lookup, &req, actorFrom(c)); err != nil {
		if msg := formErrorMessage(err); msg != "" {
			h.rackForm(c, http.StatusBadRequest, rack, msg)
			return
		}
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/systems/racks/")
}

// DeleteRack confirms on GET and deletes on POST
// GET/POST /systems/racks/delete/:id
func (h *WebHandler) DeleteRack(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.pageError(c, err)
		return
	}
	lookup := strconv.FormatUint(uint64(id), 10)
	rack, err := h.rackService.Get(lookup)
	if err != nil {
		h.pageError(c, err)
		return
	}
	if c.Request.Method != http.MethodPost {
		h.render(c, http.StatusOK, "confirm_delete.html", gin.H{
			"object":     rack.SiteLabel(),
			"cancel_url": "/systems/racks/",
		})
		return
	}
	if err := h.rackService.Delete(lookup); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/systems/racks/")
}

// GET /systems/server_models/
func (h *WebHandler) ServerModels(c *gin.Context) {
	items, err := h.catalogs.ServerModels.List(c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "server_models.html", gin.H{"title": "Server Models", "server_models": items})
}

// GET /systems/operatingsystems/
func (h *WebHandler) OperatingSystems(c *gin.Context) {
	items, err := h.catalogs.OperatingSystems.List(c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "operating_systems.html", gin.H{"title": "Operating Systems", "operating_systems": items})
}

// Revision compares a saved system revision with the current one and
// restores it on POST.
// GET/POST /systems/revision/:id
func (h *WebHandler) Revision(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.pageError(c, err)
		return
	}
	if c.Request.Method == http.MethodPost {
		sys, err := h.systemService.Revert(id, actorFrom(c))
		if err != nil {
			h.pageError(c, err)
			return
		}
		c.Redirect(http.StatusFound, fmt.Sprintf("/systems/show/%d", sys.ID))
		return
	}

	cmp, err := h.revisionService.Compare(id, 0)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "revision.html", gin.H{"title": "Revision", "compare": cmp})
}

// CSVImport shows the upload form and imports a system sheet
// GET/POST /systems/csv/import/
func (h *WebHandler) CSVImport(c *gin.Context) {
	data := gin.H{"title": "CSV Import"}
	if c.Request.Method != http.MethodPost {
		h.render(c, http.StatusOK, "csv_import.html", data)
		return
	}
	file, err := openUpload(c)
	if err != nil {
		data["error"] = formErrorMessage(err)
		h.render(c, http.StatusBadRequest, "csv_import.html", data)
		return
	}
	defer file.Close()

	result, err := h.csvService.ImportSystems(file, actorFrom(c))
	if err != nil {
		if msg := formErrorMessage(err); msg != "" {
			data["error"] = msg
			h.render(c, http.StatusBadRequest, "csv_import.html", data)
			return
		}
		fail(c, err)
		return
	}
	data["result"] = result
	h.render(c, http.StatusOK, "csv_import.html", data)
}
