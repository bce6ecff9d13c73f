package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewOwnerService(db *gorm.DB) *CatalogService[models.Owner] {
	return &CatalogService[models.Owner]{
		db: db, name: "owner",
		lookup: []string{"id", "name"},
		search: []string{"name", "note", "email"},
		order:  "name",
		refs: []reference{
			{&models.UserLicense{}, "owner_id"},
			{&models.UnmanagedSystem{}, "owner_id"},
		},
	}
}

func NewUserLicenseService(db *gorm.DB) *CatalogService[models.UserLicense] {
	return &CatalogService[models.UserLicense]{
		db: db, name: "user license",
		lookup: []string{"id"},
		search: []string{"username", "version", "license_type", "license_key"},
		order:  "license_type",
	}
}

func NewUserLocationService(db *gorm.DB) *CatalogService[models.UserLocation] {
	return &CatalogService[models.UserLocation]{
		db: db, name: "user location",
		lookup: []string{"id", "city"},
		search: []string{"city", "country"},
		order:  "city",
		refs:   []reference{{&models.Owner{}, "user_location_id"}},
	}
}

type UnmanagedSystemService struct {
	db           *gorm.DB
	upgradeAfter time.Duration
	now          func() time.Time
}

func NewUnmanagedSystemService(db *gorm.DB, upgradeAfterDays int) *UnmanagedSystemService {
	if upgradeAfterDays <= 0 {
		upgradeAfterDays = 730
	}
	return &UnmanagedSystemService{
		db:           db,
		upgradeAfter: time.Duration(upgradeAfterDays) * 24 * time.Hour,
		now:          time.Now,
	}
}

type UnmanagedSystemRequest struct {
	Serial          *string `json:"serial"`
	AssetTag        *string `json:"asset_tag"`
	OperatingSystem *Ref    `json:"operating_system"`
	Owner           *Ref    `json:"owner"`
	ServerModel     *Ref    `json:"server_model"`
	DatePurchased   *string `json:"date_purchased"`
	Cost            *string `json:"cost"`
	Notes           *string `json:"notes"`
}

func (s *UnmanagedSystemService) related() *gorm.DB {
	return s.db.Preload("OperatingSystem").Preload("Owner").Preload("ServerModel")
}

func (s *UnmanagedSystemService) List(search string) ([]models.UnmanagedSystem, error) {
	query := s.related().Model(&models.UnmanagedSystem{})
	if search != "" {
		like := LikeContains(search)
		query = query.
			Joins("LEFT JOIN owners ON owners.id = unmanaged_systems.owner_id").
			Joins("LEFT JOIN server_models ON server_models.id = unmanaged_systems.server_model_id").
			Where(strings.Join([]string{
				likeExpr("unmanaged_systems.serial"), likeExpr("unmanaged_systems.asset_tag"), likeExpr("owners.name"),
				likeExpr("server_models.vendor"), likeExpr("server_models.model"), likeExpr("unmanaged_systems.notes"),
			}, " OR "),
				like, like, like, like, like, like)
	}
	var systems []models.UnmanagedSystem
	if err := query.Order("unmanaged_systems.id").Find(&systems).Error; err != nil {
		return nil, err
	}
	return systems, nil
}

func (s *UnmanagedSystemService) GetByID(id uint) (*models.UnmanagedSystem, error) {
	var sys models.UnmanagedSystem
	if err := s.related().First(&sys, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("unmanaged system not found")
		}
		return nil, err
	}
	return &sys, nil
}

func (s *UnmanagedSystemService) Create(req *UnmanagedSystemRequest) (*models.UnmanagedSystem, error) {
	sys := &models.UnmanagedSystem{}
	if err := s.apply(sys, req); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(sys).Error; err != nil {
			return err
		}
		return tx.Create(&models.UnmanagedHistory{UnmanagedSystemID: sys.ID, Change: "Created"}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(sys.ID)
}

// Update saves the changes and writes one history row per changed field.
func (s *UnmanagedSystemService) Update(id uint, req *UnmanagedSystemRequest) (*models.UnmanagedSystem, error) {
	existing, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	before := unmanagedFields(existing)

	sys := *existing
	if err := s.apply(&sys, req); err != nil {
		return nil, err
	}
	after := unmanagedFields(&sys)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(&sys).Error; err != nil {
			return err
		}
		for _, field := range unmanagedFieldOrder {
			if before[field] == after[field] {
				continue
			}
			change := fmt.Sprintf("%s changed from %s to %s", field, before[field], after[field])
			if err := tx.Create(&models.UnmanagedHistory{UnmanagedSystemID: sys.ID, Change: truncate(change, 1000)}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(sys.ID)
}

func (s *UnmanagedSystemService) Delete(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("unmanaged_system_id = ?", id).Delete(&models.UnmanagedHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.UnmanagedSystem{}, id).Error
	})
}

// History returns the change rows of a system, newest first.
func (s *UnmanagedSystemService) History(id uint) ([]models.UnmanagedHistory, error) {
	var rows []models.UnmanagedHistory
	err := s.db.Where("unmanaged_system_id = ?", id).Order("created DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// UpgradeableSystems returns an owner's systems purchased before the
// upgrade cutoff.
func (s *UnmanagedSystemService) UpgradeableSystems(ownerID uint) ([]models.UnmanagedSystem, error) {
	cutoff := models.NewDate(s.now().Add(-s.upgradeAfter))
	var systems []models.UnmanagedSystem
	err := s.related().
		Where("owner_id = ? AND date_purchased < ?", ownerID, cutoff).
		Order("date_purchased").
		Find(&systems).Error
	return systems, err
}

func (s *UnmanagedSystemService) apply(sys *models.UnmanagedSystem, req *UnmanagedSystemRequest) error {
	setString(&sys.Serial, req.Serial)
	setString(&sys.AssetTag, req.AssetTag)
	setString(&sys.Cost, req.Cost)
	setString(&sys.Notes, req.Notes)
	if req.DatePurchased != nil {
		d, err := parseDateField("date_purchased", *req.DatePurchased)
		if err != nil {
			return err
		}
		sys.DatePurchased = d
	}

	if req.OperatingSystem != nil {
		sys.OperatingSystemID, sys.OperatingSystem = nil, nil
		if !req.OperatingSystem.Empty() {
			os, err := ResolveOperatingSystem(s.db, *req.OperatingSystem)
			if err != nil {
				return err
			}
			sys.OperatingSystemID, sys.OperatingSystem = &os.ID, os
		}
	}
	if req.ServerModel != nil {
		sys.ServerModelID, sys.ServerModel = nil, nil
		if !req.ServerModel.Empty() {
			m, err := ResolveServerModel(s.db, *req.ServerModel)
			if err != nil {
				return err
			}
			sys.ServerModelID, sys.ServerModel = &m.ID, m
		}
	}
	if req.Owner != nil {
		sys.OwnerID, sys.Owner = nil, nil
		if !req.Owner.Empty() {
			var owner models.Owner
			found, err := findByLookupFields(s.db, &owner, req.Owner.String(), "id", "name")
			if err != nil {
				return err
			}
			if !found {
				return unableToFind("owner", "Owner", *req.Owner)
			}
			sys.OwnerID, sys.Owner = &owner.ID, &owner
		}
	}
	return nil
}

var unmanagedFieldOrder = []string{
	"serial", "asset_tag", "operating_system", "owner", "server_model", "date_purchased", "cost", "notes",
}

func unmanagedFields(sys *models.UnmanagedSystem) map[string]string {
	fields := map[string]string{
		"serial":           sys.Serial,
		"asset_tag":        sys.AssetTag,
		"cost":             sys.Cost,
		"notes":            sys.Notes,
		"operating_system": "None",
		"owner":            "None",
		"server_model":     "None",
		"date_purchased":   "None",
	}
	if sys.OperatingSystem != nil {
		fields["operating_system"] = sys.OperatingSystem.String()
	}
	if sys.Owner != nil {
		fields["owner"] = sys.Owner.String()
	}
	if sys.ServerModel != nil {
		fields["server_model"] = sys.ServerModel.String()
	}
	if sys.DatePurchased != nil {
		fields["date_purchased"] = sys.DatePurchased.String()
	}
	return fields
}
