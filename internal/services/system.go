package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SystemService struct {
	db            *gorm.DB
	revisions     *RevisionService
	warrantyYears int
	now           func() time.Time
}

func NewSystemService(db *gorm.DB, revisions *RevisionService, warrantyYears int) *SystemService {
	if warrantyYears <= 0 {
		warrantyYears = 1
	}
	return &SystemService{db: db, revisions: revisions, warrantyYears: warrantyYears, now: time.Now}
}

// SystemRequest carries a create or partial update. Nil fields are left
// untouched; related objects accept an id or a natural key.
type SystemRequest struct {
	Hostname        *string `json:"hostname" form:"hostname"`
	OperatingSystem *Ref    `json:"operating_system" form:"operating_system"`
	ServerModel     *Ref    `json:"server_model" form:"server_model"`
	SystemType      *Ref    `json:"system_type" form:"system_type"`
	SystemStatus    *Ref    `json:"system_status" form:"system_status"`
	SystemRack      *Ref    `json:"system_rack" form:"system_rack"`
	RackOrder       *Ref    `json:"rack_order" form:"rack_order"`

	Serial         *string `json:"serial" form:"serial"`
	AssetTag       *string `json:"asset_tag" form:"asset_tag"`
	Notes          *string `json:"notes" form:"notes"`
	Licenses       *string `json:"licenses" form:"licenses"`
	PDU1           *string `json:"pdu1" form:"pdu1"`
	PDU2           *string `json:"pdu2" form:"pdu2"`
	OOBIP          *string `json:"oob_ip" form:"oob_ip"`
	OOBSwitchPort  *string `json:"oob_switch_port" form:"oob_switch_port"`
	SwitchPorts    *string `json:"switch_ports" form:"switch_ports"`
	PatchPanelPort *string `json:"patch_panel_port" form:"patch_panel_port"`
	PurchasePrice  *string `json:"purchase_price" form:"purchase_price"`
	RAM            *string `json:"ram" form:"ram"`
	PurchaseDate   *string `json:"purchase_date" form:"purchase_date"`
	WarrantyStart  *string `json:"warranty_start" form:"warranty_start"`
	WarrantyEnd    *string `json:"warranty_end" form:"warranty_end"`
	ChangePassword *string `json:"change_password" form:"change_password"`
}

// CreateOptions select the REST API create behaviour.
type CreateOptions struct {
	// DropEmptyRefs ignores operating_system, rack_order, system_rack and
	// system_type when sent as 0 or "".
	DropEmptyRefs bool
	// RequireTypeAndStatus rejects creates without system_type or system_status.
	RequireTypeAndStatus bool
	// DefaultWarranty fills a missing warranty with today plus the
	// configured number of years.
	DefaultWarranty bool
}

// APICreateOptions is the REST create behaviour.
var APICreateOptions = CreateOptions{DropEmptyRefs: true, RequireTypeAndStatus: true, DefaultWarranty: true}

type SystemListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=1000"`
	ID       uint   `form:"id"`
	Hostname string `form:"hostname"`
	Status   string `form:"system_status__status"`
	Search   string `form:"search"`
}

type SystemListResponse struct {
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Items    []SystemView `json:"items"`
}

// SystemView is the REST representation of a system. Related objects are
// rendered by their natural keys.
type SystemView struct {
	models.System
	OperatingSystem *string `json:"operating_system"`
	ServerModel     *string `json:"server_model"`
	SystemType      *string `json:"system_type"`
	SystemStatus    *string `json:"system_status"`
	SystemRack      *string `json:"system_rack"`
}

func strPtr(s string) *string { return &s }

func NewSystemView(s models.System) SystemView {
	v := SystemView{System: s}
	if s.OperatingSystem != nil {
		v.OperatingSystem = strPtr(s.OperatingSystem.NaturalKey())
	}
	if s.ServerModel != nil {
		v.ServerModel = strPtr(s.ServerModel.NaturalKey())
	}
	if s.SystemType != nil {
		v.SystemType = strPtr(s.SystemType.TypeName)
	}
	if s.SystemStatus != nil {
		v.SystemStatus = strPtr(s.SystemStatus.Status)
	}
	if s.SystemRack != nil {
		v.SystemRack = strPtr(s.SystemRack.Name)
	}
	return v
}

func NewSystemViews(systems []models.System) []SystemView {
	views := make([]SystemView, 0, len(systems))
	for _, s := range systems {
		views = append(views, NewSystemView(s))
	}
	return views
}

func withRelated(db *gorm.DB) *gorm.DB {
	return db.Preload("OperatingSystem").
		Preload("ServerModel").
		Preload("SystemType").
		Preload("SystemStatus").
		Preload("SystemRack").
		Preload("SystemRack.Site")
}

func (s *SystemService) List(req *SystemListRequest) (*SystemListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 100
	}

	query := s.db.Model(&models.System{})
	if req.ID != 0 {
		query = query.Where("systems.id = ?", req.ID)
	}
	if req.Hostname != "" {
		query = query.Where("systems.hostname = ?", req.Hostname)
	}
	if req.Status != "" {
		query = query.Joins("JOIN system_statuses ON system_statuses.id = systems.system_status_id").
			Where("system_statuses.status = ?", req.Status)
	}
	if req.Search != "" {
		like := LikeContains(req.Search)
		query = query.Where(likeExpr("systems.hostname")+" OR "+likeExpr("systems.serial")+" OR "+likeExpr("systems.asset_tag"), like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var systems []models.System
	offset := (req.Page - 1) * req.PageSize
	if err := withRelated(query).Offset(offset).Limit(req.PageSize).Order("systems.hostname").Find(&systems).Error; err != nil {
		return nil, err
	}

	return &SystemListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    NewSystemViews(systems),
	}, nil
}

// Get finds a system by id, then by hostname.
func (s *SystemService) Get(lookup string) (*models.System, error) {
	var sys models.System
	found, err := findByLookupFields(withRelated(s.db), &sys, lookup, "id", "hostname")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, response.NewNotFound("system not found")
	}
	return &sys, nil
}

func (s *SystemService) GetByID(id uint) (*models.System, error) {
	var sys models.System
	if err := withRelated(s.db).First(&sys, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("system not found")
		}
		return nil, err
	}
	return &sys, nil
}

func (s *SystemService) GetByAssetTag(tag string) (*models.System, error) {
	var sys models.System
	found, err := firstWhere(withRelated(s.db), &sys, "asset_tag = ?", tag)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, response.NewNotFound("system not found")
	}
	return &sys, nil
}

// Create validates and inserts a new system, recording its first revision.
func (s *SystemService) Create(req *SystemRequest, actor *Actor, opts CreateOptions) (*models.System, error) {
	if opts.DropEmptyRefs {
		dropEmpty(&req.OperatingSystem)
		dropEmpty(&req.RackOrder)
		dropEmpty(&req.SystemRack)
		dropEmpty(&req.SystemType)
	}
	if req.Hostname == nil || strings.TrimSpace(*req.Hostname) == "" {
		return nil, requiredField("hostname")
	}
	if opts.RequireTypeAndStatus {
		if req.SystemStatus == nil || req.SystemStatus.Empty() {
			return nil, requiredField("system_status")
		}
		if req.SystemType == nil || req.SystemType.Empty() {
			return nil, requiredField("system_type")
		}
	}

	sys := &models.System{}
	if err := s.apply(s.db, sys, req); err != nil {
		return nil, err
	}
	if opts.DefaultWarranty && sys.WarrantyStart == nil {
		today := models.NewDate(s.now())
		end := models.NewDate(today.AddDate(s.warrantyYears, 0, 0))
		sys.WarrantyStart, sys.WarrantyEnd = &today, &end
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.validate(tx, sys, true); err != nil {
			return err
		}
		if sys.SystemStatusID == nil {
			status, err := GetOrCreateStatus(tx, models.StatusBuilding)
			if err != nil {
				return err
			}
			sys.SystemStatusID = &status.ID
		}
		if err := tx.Omit(clause.Associations).Create(sys).Error; err != nil {
			if models.IsDuplicateError(err) {
				return response.NewBadRequest("Hostname already used")
			}
			return err
		}
		return s.recordRevision(tx, sys, actor, "created")
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(sys.ID)
}

// Update applies a partial update. Changed fields are written to the
// change log and a new revision is recorded.
func (s *SystemService) Update(lookup string, req *SystemRequest, actor *Actor) (*models.System, error) {
	existing, err := s.Get(lookup)
	if err != nil {
		return nil, err
	}
	return s.update(existing, actor, "updated", func(tx *gorm.DB, sys *models.System) error {
		return s.apply(tx, sys, req)
	})
}

func (s *SystemService) update(existing *models.System, actor *Actor, comment string, mutate func(*gorm.DB, *models.System) error) (*models.System, error) {
	before, err := json.Marshal(existing)
	if err != nil {
		return nil, err
	}

	sys := *existing
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := mutate(tx, &sys); err != nil {
			return err
		}
		if err := s.validate(tx, &sys, false); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&sys).Error; err != nil {
			if models.IsDuplicateError(err) {
				return response.NewBadRequest("Hostname already used")
			}
			return err
		}
		after, err := json.Marshal(&sys)
		if err != nil {
			return err
		}
		diffs, err := DiffSnapshots(before, after)
		if err != nil {
			return err
		}
		if err := recordChangeLog(tx, sys.ID, diffs, actor); err != nil {
			return err
		}
		return s.recordRevision(tx, &sys, actor, comment)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(sys.ID)
}

func (s *SystemService) recordRevision(tx *gorm.DB, sys *models.System, actor *Actor, comment string) error {
	rev, err := s.revisions.Record(tx, sys, actor, comment)
	if err != nil {
		return err
	}
	sys.CurrentRevision = rev.ID
	return tx.Model(sys).UpdateColumn("current_revision", rev.ID).Error
}

// Revert restores the fields captured in a revision and saves the system.
func (s *SystemService) Revert(revisionID uint, actor *Actor) (*models.System, error) {
	rev, err := s.revisions.GetByID(revisionID)
	if err != nil {
		return nil, err
	}
	if rev.ObjectType != "system" {
		return nil, response.NewBadRequest("revision does not belong to a system")
	}
	var snapshot models.System
	if err := json.Unmarshal(rev.Snapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("decode revision %d: %w", rev.ID, err)
	}
	existing, err := s.GetByID(rev.ObjectID)
	if err != nil {
		return nil, err
	}

	return s.update(existing, actor, fmt.Sprintf("reverted to revision %d", rev.ID), func(_ *gorm.DB, sys *models.System) error {
		snapshot.ID = sys.ID
		snapshot.CreatedOn = sys.CreatedOn
		snapshot.CurrentRevision = sys.CurrentRevision
		*sys = snapshot
		return nil
	})
}

// Delete removes a system. Systems that still have key-values are kept.
func (s *SystemService) Delete(lookup string) error {
	sys, err := s.Get(lookup)
	if err != nil {
		return err
	}
	var count int64
	if err := s.db.Model(&models.KeyValue{}).Where("system_id = ?", sys.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return response.NewConflict("Unable to Delete system. Please Delete Key/Value Entries")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("system_id = ?", sys.ID).Delete(&models.SystemChangeLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.System{}, sys.ID).Error
	})
}

// Revisions lists a system's revisions, newest first.
func (s *SystemService) Revisions(systemID uint) ([]models.Revision, error) {
	return s.revisions.List("system", systemID)
}

func (s *SystemService) validate(tx *gorm.DB, sys *models.System, isNew bool) error {
	sys.Hostname = strings.TrimSpace(sys.Hostname)
	if err := ValidateHostname(sys.Hostname); err != nil {
		return err
	}

	var count int64
	query := tx.Model(&models.System{}).Where("hostname = ?", sys.Hostname)
	if !isNew {
		query = query.Where("id <> ?", sys.ID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return response.NewBadRequest("Hostname already used")
	}
	return ValidateWarranty(sys, isNew)
}

// ValidateWarranty enforces the warranty rules: new systems need an end
// date, start and end come together, and start may not follow end.
func ValidateWarranty(sys *models.System, isNew bool) error {
	if isNew && sys.WarrantyEnd == nil {
		return response.NewBadRequest("Warranty Data is required for non virtual systems")
	}
	if (sys.WarrantyStart == nil) != (sys.WarrantyEnd == nil) {
		return response.NewBadRequest("Warranty must have a start and end date")
	}
	if sys.WarrantyStart == nil {
		return nil
	}
	if sys.WarrantyStart.After(sys.WarrantyEnd.Time) {
		return response.NewBadRequest("warranty start date should be before the end date")
	}
	return nil
}

// apply copies the non-nil request fields onto sys, resolving references.
func (s *SystemService) apply(db *gorm.DB, sys *models.System, req *SystemRequest) error {
	setString(&sys.Hostname, req.Hostname)
	setString(&sys.Serial, req.Serial)
	setString(&sys.AssetTag, req.AssetTag)
	setString(&sys.Notes, req.Notes)
	setString(&sys.Licenses, req.Licenses)
	setString(&sys.PDU1, req.PDU1)
	setString(&sys.PDU2, req.PDU2)
	setString(&sys.OOBIP, req.OOBIP)
	setString(&sys.OOBSwitchPort, req.OOBSwitchPort)
	setString(&sys.SwitchPorts, req.SwitchPorts)
	setString(&sys.PatchPanelPort, req.PatchPanelPort)
	setString(&sys.PurchasePrice, req.PurchasePrice)
	setString(&sys.RAM, req.RAM)

	var err error
	if req.PurchaseDate != nil {
		if sys.PurchaseDate, err = parseDateField("purchase_date", *req.PurchaseDate); err != nil {
			return err
		}
	}
	if req.WarrantyStart != nil {
		if sys.WarrantyStart, err = parseDateField("warranty_start", *req.WarrantyStart); err != nil {
			return err
		}
	}
	if req.WarrantyEnd != nil {
		if sys.WarrantyEnd, err = parseDateField("warranty_end", *req.WarrantyEnd); err != nil {
			return err
		}
	}
	if req.ChangePassword != nil {
		if strings.TrimSpace(*req.ChangePassword) == "" {
			sys.ChangePassword = nil
		} else {
			t, err := time.Parse(time.RFC3339, *req.ChangePassword)
			if err != nil {
				return response.NewFieldError("change_password", "Datetime has wrong format. Use RFC3339.")
			}
			sys.ChangePassword = &t
		}
	}
	if req.RackOrder != nil {
		// 0 is a real slot here; REST create drops it before apply.
		if strings.TrimSpace(req.RackOrder.String()) == "" {
			sys.RackOrder = nil
		} else {
			order, err := strconv.ParseFloat(req.RackOrder.String(), 64)
			if err != nil {
				return response.NewFieldError("rack_order", "A valid number is required.")
			}
			sys.RackOrder = &order
		}
	}

	if req.OperatingSystem != nil {
		sys.OperatingSystemID, sys.OperatingSystem = nil, nil
		if !req.OperatingSystem.Empty() {
			os, err := ResolveOperatingSystem(db, *req.OperatingSystem)
			if err != nil {
				return err
			}
			sys.OperatingSystemID, sys.OperatingSystem = &os.ID, os
		}
	}
	if req.ServerModel != nil {
		sys.ServerModelID, sys.ServerModel = nil, nil
		if !req.ServerModel.Empty() {
			m, err := ResolveServerModel(db, *req.ServerModel)
			if err != nil {
				return err
			}
			sys.ServerModelID, sys.ServerModel = &m.ID, m
		}
	}
	if req.SystemType != nil {
		sys.SystemTypeID, sys.SystemType = nil, nil
		if !req.SystemType.Empty() {
			t, err := ResolveSystemType(db, *req.SystemType)
			if err != nil {
				return err
			}
			sys.SystemTypeID, sys.SystemType = &t.ID, t
		}
	}
	if req.SystemStatus != nil {
		sys.SystemStatusID, sys.SystemStatus = nil, nil
		if !req.SystemStatus.Empty() {
			st, err := ResolveSystemStatus(db, *req.SystemStatus)
			if err != nil {
				return err
			}
			sys.SystemStatusID, sys.SystemStatus = &st.ID, st
		}
	}
	if req.SystemRack != nil {
		sys.SystemRackID, sys.SystemRack = nil, nil
		if !req.SystemRack.Empty() {
			rack, err := ResolveSystemRack(db, *req.SystemRack)
			if err != nil {
				return err
			}
			sys.SystemRackID, sys.SystemRack = &rack.ID, rack
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func dropEmpty(ref **Ref) {
	if *ref != nil && (*ref).Empty() {
		*ref = nil
	}
}

func parseDateField(field, value string) (*models.Date, error) {
	d, err := models.DatePtr(value)
	if err != nil {
		return nil, response.NewFieldError(field, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}
	return d, nil
}

func requiredField(field string) error {
	return response.NewFieldError(field, fmt.Sprintf("This Field Is Required. (%s)", field))
}
