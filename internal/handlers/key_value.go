package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

type KeyValueHandler struct {
	keyValueService *services.KeyValueService
	systemService   *services.SystemService
}

func NewKeyValueHandler(keyValues *services.KeyValueService, systems *services.SystemService) *KeyValueHandler {
	return &KeyValueHandler{keyValueService: keyValues, systemService: systems}
}

// List returns key-values filtered by system, key, value or search
// GET /api/key-values
func (h *KeyValueHandler) List(c *gin.Context) {
	var req services.KeyValueListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	kvs, err := h.keyValueService.List(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, kvs)
}

// GET /api/key-values/:id
func (h *KeyValueHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	kv, err := h.keyValueService.GetByID(id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, kv)
}

// POST /api/key-values
func (h *KeyValueHandler) Create(c *gin.Context) {
	var req services.KeyValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	kv, err := h.keyValueService.Create(&req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusCreated, kv)
}

// PUT/PATCH /api/key-values/:id
func (h *KeyValueHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req services.KeyValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}
	kv, err := h.keyValueService.Update(id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Resource(c, http.StatusOK, kv)
}

// DELETE /api/key-values/:id
func (h *KeyValueHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if _, err := h.keyValueService.Delete(id); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// --- key value store used by the system page ---

type keyValueForm struct {
	Key   string `form:"key"`
	Value string `form:"value"`
}

// storeResult is the reply of the inline editor.
type storeResult struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage"`
}

func (h *KeyValueHandler) store(c *gin.Context, systemID uint) {
	kvs, err := h.keyValueService.ForSystem(systemID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, kvs)
}

// Store lists the key-values of a system
// GET /systems/get_key_value_store/:id
func (h *KeyValueHandler) Store(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if _, err := h.systemService.GetByID(id); err != nil {
		fail(c, err)
		return
	}
	h.store(c, id)
}

// StoreCreate adds a key-value from the inline form
// POST /systems/create_key_value/:id
func (h *KeyValueHandler) StoreCreate(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var form keyValueForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, bindError(err))
		return
	}
	key, value := strings.TrimSpace(form.Key), strings.TrimSpace(form.Value)
	ref := services.Ref(strconv.FormatUint(uint64(id), 10))
	if _, err := h.keyValueService.Create(&services.KeyValueRequest{System: &ref, Key: &key, Value: &value}); err != nil {
		fail(c, err)
		return
	}
	h.store(c, id)
}

// StoreSave updates a key-value from the inline editor. Failures are
// reported in the body with a 200 status.
// POST /systems/save_key_value/:id
func (h *KeyValueHandler) StoreSave(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var form keyValueForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusOK, storeResult{ErrorMessage: err.Error()})
		return
	}
	key, value := strings.TrimSpace(form.Key), strings.TrimSpace(form.Value)
	if _, err := h.keyValueService.Update(id, &services.KeyValueRequest{Key: &key, Value: &value}); err != nil {
		c.JSON(http.StatusOK, storeResult{ErrorMessage: err.Error()})
		return
	}
	c.JSON(http.StatusOK, storeResult{Success: true})
}

// StoreDelete removes a key-value and returns the remaining store
// POST /systems/delete_key_value/:id/:system_id
func (h *KeyValueHandler) StoreDelete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	systemID, err := parseID(c, "system_id")
	if err != nil {
		fail(c, err)
		return
	}
	if _, err := h.keyValueService.Delete(id); err != nil {
		fail(c, err)
		return
	}
	h.store(c, systemID)
}

// CheckDupeNIC reports whether adapter number n exists on the system
// GET /systems/ajax_check_dupe_nic/:id/:adapter_number
func (h *KeyValueHandler) CheckDupeNIC(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	n, err := strconv.Atoi(c.Param("adapter_number"))
	if err != nil {
		response.BadRequest(c, "invalid adapter_number")
		return
	}
	found, err := h.keyValueService.HasAdapter(id, n)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": found})
}

// CheckDupeNICName reports whether an adapter name exists on the system
// GET /systems/ajax_check_dupe_nic_name/:id/:adapter_name
func (h *KeyValueHandler) CheckDupeNICName(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	found, err := h.keyValueService.HasAdapterName(id, lookupParam(c, "adapter_name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": found})
}
