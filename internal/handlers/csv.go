package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/response"
)

const maxUploadSize = 10 << 20

type CSVHandler struct {
	csvService      *services.CSVService
	warrantyService *services.WarrantyImportService
}

func NewCSVHandler(csvService *services.CSVService, warranty *services.WarrantyImportService) *CSVHandler {
	return &CSVHandler{csvService: csvService, warrantyService: warranty}
}

// openUpload returns the uploaded "csv" file, or the raw request body when
// the request is not a multipart form.
func openUpload(c *gin.Context) (io.ReadCloser, error) {
	if file, err := c.FormFile("csv"); err == nil {
		if file.Size > maxUploadSize {
			return nil, response.NewBadRequest("file too large")
		}
		return file.Open()
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadSize+1))
	if err != nil {
		return nil, response.NewBadRequest("unable to read upload")
	}
	if len(body) == 0 {
		return nil, response.NewFieldError("csv", "This field is required.")
	}
	if len(body) > maxUploadSize {
		return nil, response.NewBadRequest("file too large")
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func writeCSV(c *gin.Context, filename string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportSystems downloads the system summary sheet
// GET /systems/csv
func (h *CSVHandler) ExportSystems(c *gin.Context) {
	writeCSV(c, "systems.csv", h.csvService.ExportSystems)
}

// ExportModel downloads every column of a model
// GET /csv/:model
func (h *CSVHandler) ExportModel(c *gin.Context) {
	model := lookupParam(c, "model")
	writeCSV(c, model+".csv", func(w io.Writer) error {
		return h.csvService.ExportModel(model, w)
	})
}

// ImportSystems creates systems from an uploaded sheet
// POST /api/csv/import
func (h *CSVHandler) ImportSystems(c *gin.Context) {
	file, err := openUpload(c)
	if err != nil {
		fail(c, err)
		return
	}
	defer file.Close()

	result, err := h.csvService.ImportSystems(file, actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

type warrantyImportForm struct {
	SerialColumn string `form:"serial_column"`
	StartColumn  string `form:"start_column"`
	EndColumn    string `form:"end_column"`
	DateLayout   string `form:"date_layout"`
}

// ImportWarranty sets warranty dates from a vendor sheet matched by serial
// POST /api/csv/warranty
func (h *CSVHandler) ImportWarranty(c *gin.Context) {
	var form warrantyImportForm
	if err := c.ShouldBindQuery(&form); err != nil {
		fail(c, bindError(err))
		return
	}
	if c.ContentType() == "multipart/form-data" {
		_ = c.ShouldBind(&form)
	}
	cols := services.WarrantyColumns{Serial: "serial", WarrantyStart: "warranty_start", WarrantyEnd: "warranty_end"}
	if form.SerialColumn != "" {
		cols.Serial = form.SerialColumn
	}
	if form.StartColumn != "" {
		cols.WarrantyStart = form.StartColumn
	}
	if form.EndColumn != "" {
		cols.WarrantyEnd = form.EndColumn
	}

	file, err := openUpload(c)
	if err != nil {
		fail(c, err)
		return
	}
	defer file.Close()

	result, err := h.warrantyService.Import(file, cols, form.DateLayout, actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}
