package services

import (
	"errors"
	"strconv"
	"strings"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
)

type RackService struct {
	db        *gorm.DB
	revisions *RevisionService
}

func NewRackService(db *gorm.DB, revisions *RevisionService) *RackService {
	return &RackService{db: db, revisions: revisions}
}

type RackListRequest struct {
	Site   string `form:"site"`
	Search string `form:"search"`
}

type RackRequest struct {
	Name     *string `json:"name" form:"name"`
	Site     *Ref    `json:"site" form:"site"`
	Location *Ref    `json:"location" form:"location"`
}

// RackSystemsFilter narrows the systems drawn in a rack.
type RackSystemsFilter struct {
	Status string `form:"status"`
}

// RackView is a rack with its systems in elevation order.
type RackView struct {
	models.SystemRack
	SiteName     string       `json:"site_name"`
	LocationName string       `json:"location_name"`
	Systems      []SystemView `json:"systems"`
}

// RackOption is one entry of a site's rack picker.
type RackOption struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

func (s *RackService) List(req *RackListRequest) ([]models.SystemRack, error) {
	query := s.db.Preload("Site").Preload("Location")
	if req.Site != "" {
		site, err := ResolveSite(s.db, Ref(req.Site))
		if err != nil {
			return nil, err
		}
		query = query.Where("site_id = ?", site.ID)
	}
	if req.Search != "" {
		query = query.Where(likeExpr("name"), LikeContains(req.Search))
	}

	var racks []models.SystemRack
	if err := query.Order("name").Order("id").Find(&racks).Error; err != nil {
		return nil, err
	}
	return racks, nil
}

// Get finds a rack by id, then by name.
func (s *RackService) Get(lookup string) (*models.SystemRack, error) {
	var rack models.SystemRack
	found, err := findByLookupFields(s.db.Preload("Site").Preload("Location"), &rack, lookup, "id", "name")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, response.NewNotFound("rack not found")
	}
	return &rack, nil
}

func (s *RackService) Create(req *RackRequest, actor *Actor) (*models.SystemRack, error) {
	rack := &models.SystemRack{}
	if err := s.apply(rack, req); err != nil {
		return nil, err
	}
	if err := s.save(rack, actor, "created"); err != nil {
		return nil, err
	}
	return s.Get(strconv.FormatUint(uint64(rack.ID), 10))
}

func (s *RackService) Update(lookup string, req *RackRequest, actor *Actor) (*models.SystemRack, error) {
	rack, err := s.Get(lookup)
	if err != nil {
		return nil, err
	}
	if err := s.apply(rack, req); err != nil {
		return nil, err
	}
	if err := s.save(rack, actor, "updated"); err != nil {
		return nil, err
	}
	return rack, nil
}

func (s *RackService) save(rack *models.SystemRack, actor *Actor, comment string) error {
	if rack.Name == "" {
		return requiredField("name")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		query := tx.Model(&models.SystemRack{}).Where("name = ?", rack.Name)
		if rack.SiteID == nil {
			query = query.Where("site_id IS NULL")
		} else {
			query = query.Where("site_id = ?", *rack.SiteID)
		}
		if rack.ID != 0 {
			query = query.Where("id <> ?", rack.ID)
		}
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return response.NewBadRequest("System rack with this Name and Site already exists.")
		}

		if err := tx.Omit("Site", "Location").Save(rack).Error; err != nil {
			if models.IsDuplicateError(err) {
				return response.NewBadRequest("System rack with this Name and Site already exists.")
			}
			return err
		}
		_, err := s.revisions.Record(tx, rack, actor, comment)
		return err
	})
}

func (s *RackService) apply(rack *models.SystemRack, req *RackRequest) error {
	setString(&rack.Name, req.Name)
	if req.Site != nil {
		rack.SiteID, rack.Site = nil, nil
		if !req.Site.Empty() {
			site, err := ResolveSite(s.db, *req.Site)
			if err != nil {
				return err
			}
			rack.SiteID, rack.Site = &site.ID, site
		}
	}
	if req.Location != nil {
		rack.LocationID, rack.Location = nil, nil
		if !req.Location.Empty() {
			loc, err := ResolveLocation(s.db, *req.Location)
			if err != nil {
				return err
			}
			rack.LocationID, rack.Location = &loc.ID, loc
		}
	}
	return nil
}

// Delete detaches the rack's systems and removes the rack.
func (s *RackService) Delete(lookup string) error {
	rack, err := s.Get(lookup)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.System{}).Where("system_rack_id = ?", rack.ID).
			Update("system_rack_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SystemRack{}, rack.ID).Error
	})
}

// Systems returns the systems in a rack in elevation order.
func (s *RackService) Systems(rackID uint, filter *RackSystemsFilter) ([]models.System, error) {
	query := withRelated(s.db).Where("systems.system_rack_id = ?", rackID)
	if filter != nil && filter.Status != "" {
		query = query.Joins("JOIN system_statuses ON system_statuses.id = systems.system_status_id").
			Where("system_statuses.status = ?", filter.Status)
	}
	var systems []models.System
	if err := query.Order("systems.id").Find(&systems).Error; err != nil {
		return nil, err
	}
	return RackOrdering(systems), nil
}

// View loads a rack with its ordered systems.
func (s *RackService) View(lookup string, filter *RackSystemsFilter) (*RackView, error) {
	rack, err := s.Get(lookup)
	if err != nil {
		return nil, err
	}
	systems, err := s.Systems(rack.ID, filter)
	if err != nil {
		return nil, err
	}
	view := &RackView{SystemRack: *rack, Systems: NewSystemViews(systems)}
	if rack.Site != nil {
		view.SiteName = rack.Site.FullName
	}
	if rack.Location != nil {
		view.LocationName = rack.Location.Name
	}
	return view, nil
}

// BySite lists the racks of a site labelled "site rack".
func (s *RackService) BySite(siteRef string) ([]RackOption, error) {
	site, err := ResolveSite(s.db, Ref(siteRef))
	if err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			return nil, response.NewNotFound(appErr.Message)
		}
		return nil, err
	}

	var racks []models.SystemRack
	if err := s.db.Preload("Site").Where("site_id = ?", site.ID).Order("name").Find(&racks).Error; err != nil {
		return nil, err
	}
	options := make([]RackOption, 0, len(racks))
	for _, r := range racks {
		options = append(options, RackOption{ID: r.ID, Label: strings.TrimSpace(r.SiteLabel())})
	}
	return options, nil
}
