package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
)

// SystemCSVHeader is the header row of the system export.
var SystemCSVHeader = []string{"Host Name", "Serial", "Asset Tag", "Model", "Rack", "Switch Ports", "OOB IP"}

// importGetter turns a CSV cell into a request field value. An empty
// result leaves the field unset.
type importGetter func(db *gorm.DB, cell string) string

func genericGetter(_ *gorm.DB, cell string) string { return cell }

func uppercaseGetter(_ *gorm.DB, cell string) string { return strings.ToUpper(cell) }

func statusGetter(db *gorm.DB, cell string) string {
	var st models.SystemStatus
	if found, _ := firstWhere(db, &st, "status = ?", cell); found {
		return strconv.FormatUint(uint64(st.ID), 10)
	}
	return ""
}

func rackGetter(db *gorm.DB, cell string) string {
	var rack models.SystemRack
	if found, _ := firstWhere(db, &rack, "name = ?", cell); found {
		return strconv.FormatUint(uint64(rack.ID), 10)
	}
	return ""
}

func serverModelGetter(db *gorm.DB, cell string) string {
	id, ok := Ref(cell).ID()
	if !ok {
		return ""
	}
	var m models.ServerModel
	if found, _ := firstWhere(db, &m, "id = ?", id); found {
		return strconv.FormatUint(uint64(m.ID), 10)
	}
	return ""
}

// AllowedImportColumns lists the columns read by ImportSystems.
var AllowedImportColumns = map[string]importGetter{
	"hostname":       genericGetter,
	"asset_tag":      genericGetter,
	"serial":         uppercaseGetter,
	"notes":          genericGetter,
	"oob_ip":         genericGetter,
	"system_status":  statusGetter,
	"system_rack":    rackGetter,
	"rack_order":     genericGetter,
	"server_model":   serverModelGetter,
	"purchase_price": genericGetter,
	"warranty_start": genericGetter,
	"warranty_end":   genericGetter,
}

type CSVService struct {
	db      *gorm.DB
	systems *SystemService
}

func NewCSVService(db *gorm.DB, systems *SystemService) *CSVService {
	return &CSVService{db: db, systems: systems}
}

// ExportSystems writes every system ordered by hostname.
func (s *CSVService) ExportSystems(w io.Writer) error {
	var systems []models.System
	if err := withRelated(s.db).Order("hostname").Find(&systems).Error; err != nil {
		return err
	}

	out := csv.NewWriter(w)
	if err := out.Write(SystemCSVHeader); err != nil {
		return err
	}
	for _, sys := range systems {
		model, rack := "", ""
		if sys.ServerModel != nil {
			model = sys.ServerModel.String()
		}
		if sys.SystemRack != nil {
			rack = sys.SystemRack.String()
		}
		if err := out.Write([]string{sys.Hostname, sys.Serial, sys.AssetTag, model, rack, sys.SwitchPorts, sys.OOBIP}); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

// exportColumns are the generic export columns of each exportable model.
var exportColumns = map[string][]string{
	"System": {
		"id", "hostname", "serial", "asset_tag", "notes", "licenses", "pdu1", "pdu2",
		"oob_ip", "oob_switch_port", "switch_ports", "patch_panel_port", "purchase_date",
		"purchase_price", "ram", "rack_order", "warranty_start", "warranty_end",
		"operating_system", "server_model", "system_type", "system_status", "system_rack",
		"created_on", "updated_on",
	},
}

// ExportModel writes every column of an exportable model.
func (s *CSVService) ExportModel(name string, w io.Writer) error {
	columns, ok := exportColumns[name]
	if !ok {
		return response.NewNotFound(fmt.Sprintf("no export for %s", name))
	}

	var systems []models.System
	if err := withRelated(s.db).Order("id").Find(&systems).Error; err != nil {
		return err
	}

	out := csv.NewWriter(w)
	if err := out.Write(columns); err != nil {
		return err
	}
	for _, sys := range systems {
		if err := out.Write(systemRow(sys)); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

func systemRow(s models.System) []string {
	fmtDate := func(d *models.Date) string {
		if d == nil {
			return "None"
		}
		return d.String()
	}
	rackOrder := "None"
	if s.RackOrder != nil {
		rackOrder = strconv.FormatFloat(*s.RackOrder, 'f', 2, 64)
	}
	stringer := func(v fmt.Stringer, ok bool) string {
		if !ok {
			return "None"
		}
		return v.String()
	}
	return []string{
		strconv.FormatUint(uint64(s.ID), 10), s.Hostname, s.Serial, s.AssetTag, s.Notes,
		s.Licenses, s.PDU1, s.PDU2, s.OOBIP, s.OOBSwitchPort,
		s.SwitchPorts, s.PatchPanelPort, fmtDate(s.PurchaseDate), s.PurchasePrice, s.RAM, rackOrder,
		fmtDate(s.WarrantyStart), fmtDate(s.WarrantyEnd),
		stringer(s.OperatingSystem, s.OperatingSystem != nil),
		stringer(s.ServerModel, s.ServerModel != nil),
		stringer(s.SystemType, s.SystemType != nil),
		stringer(s.SystemStatus, s.SystemStatus != nil),
		stringer(s.SystemRack, s.SystemRack != nil),
		s.CreatedOn.Format("2006-01-02 15:04:05"), s.UpdatedOn.Format("2006-01-02 15:04:05"),
	}
}

// ImportRowError describes a skipped CSV row.
type ImportRowError struct {
	Line     int    `json:"line"`
	Hostname string `json:"hostname"`
	Error    string `json:"error"`
}

type ImportResult struct {
	Created int              `json:"created"`
	Skipped []ImportRowError `json:"skipped"`
}

// ImportSystems creates one system per CSV row. The first row names the
// columns; unknown columns are ignored. Rows failing validation are skipped.
func (s *CSVService) ImportSystems(r io.Reader, actor *Actor) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &ImportResult{}, nil
	}
	if err != nil {
		return nil, response.NewBadRequest(fmt.Sprintf("invalid csv: %v", err))
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Skipped = append(result.Skipped, ImportRowError{Line: line, Error: err.Error()})
			continue
		}

		req := s.rowRequest(headers, record)
		if _, err := s.systems.Create(req, actor, CreateOptions{}); err != nil {
			result.Skipped = append(result.Skipped, ImportRowError{Line: line, Hostname: deref(req.Hostname), Error: err.Error()})
			logger.Debug().Int("line", line).Err(err).Msg("csv import row skipped")
			continue
		}
		result.Created++
	}
	return result, nil
}

func (s *CSVService) rowRequest(headers, record []string) *SystemRequest {
	values := map[string]string{}
	for i, h := range headers {
		getter, ok := AllowedImportColumns[h]
		if !ok || i >= len(record) {
			continue
		}
		if v := getter(s.db, strings.TrimSpace(record[i])); v != "" {
			values[h] = v
		}
	}

	opt := func(name string) *string {
		if v, ok := values[name]; ok {
			return &v
		}
		return nil
	}
	return &SystemRequest{
		Hostname:      opt("hostname"),
		AssetTag:      opt("asset_tag"),
		Serial:        opt("serial"),
		Notes:         opt("notes"),
		OOBIP:         opt("oob_ip"),
		SystemStatus:  RefPtr(values["system_status"]),
		SystemRack:    RefPtr(values["system_rack"]),
		RackOrder:     RefPtr(values["rack_order"]),
		ServerModel:   RefPtr(values["server_model"]),
		PurchasePrice: opt("purchase_price"),
		WarrantyStart: opt("warranty_start"),
		WarrantyEnd:   opt("warranty_end"),
	}
}
