package services

import (
	"strings"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
)

type SiteService struct {
	db *gorm.DB
}

func NewSiteService(db *gorm.DB) *SiteService {
	return &SiteService{db: db}
}

type SiteRequest struct {
	FullName string `json:"full_name" form:"full_name" binding:"required"`
}

func (s *SiteService) List(search string) ([]models.Site, error) {
	query := s.db.Model(&models.Site{})
	if search != "" {
		query = query.Where(likeExpr("full_name"), LikeContains(search))
	}
	var sites []models.Site
	if err := query.Order("full_name").Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

func (s *SiteService) Get(lookup string) (*models.Site, error) {
	site, err := ResolveSite(s.db, Ref(lookup))
	if err != nil {
		return nil, response.NewNotFound("site not found")
	}
	return site, nil
}

// Create saves a site named by its dotted full name. Missing parents are
// created on the way, so "rack1.scl3.mozilla" also creates "scl3.mozilla"
// and "mozilla".
func (s *SiteService) Create(req *SiteRequest) (*models.Site, error) {
	fullName := strings.TrimSpace(req.FullName)
	if err := validateSiteLabels(fullName); err != nil {
		return nil, err
	}

	var site *models.Site
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Site{}).Where("full_name = ?", fullName).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return response.NewBadRequest("Site with this Full name already exists.")
		}
		var err error
		site, err = getOrCreateSite(tx, fullName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

// Update renames a site. Sites with children cannot change their name.
func (s *SiteService) Update(lookup string, req *SiteRequest) (*models.Site, error) {
	site, err := s.Get(lookup)
	if err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(req.FullName)
	if err := validateSiteLabels(fullName); err != nil {
		return nil, err
	}
	name, parentName := splitSiteName(fullName)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if name != site.Name {
			children, err := countChildren(tx, site.ID)
			if err != nil {
				return err
			}
			if children > 0 {
				return response.NewBadRequest("This site has child sites. You cannot change it's name without affecting all child sites.")
			}
		}

		site.FullName, site.Name, site.ParentID = fullName, name, nil
		if parentName != "" {
			parent, err := getOrCreateSite(tx, parentName)
			if err != nil {
				return err
			}
			site.ParentID = &parent.ID
		}
		if err := tx.Omit("Parent").Save(site).Error; err != nil {
			if models.IsDuplicateError(err) {
				return response.NewBadRequest("Site with this Full name already exists.")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

// Delete removes a site without children.
func (s *SiteService) Delete(lookup string) error {
	site, err := s.Get(lookup)
	if err != nil {
		return err
	}
	children, err := countChildren(s.db, site.ID)
	if err != nil {
		return err
	}
	if children > 0 {
		return response.NewBadRequest("This site has child sites. You cannot delete it.")
	}
	return s.db.Delete(&models.Site{}, site.ID).Error
}

// Systems returns the systems racked at a site.
func (s *SiteService) Systems(lookup string) ([]models.System, error) {
	site, err := s.Get(lookup)
	if err != nil {
		return nil, err
	}
	var systems []models.System
	err = withRelated(s.db).
		Where("systems.system_rack_id IN (?)", s.db.Model(&models.SystemRack{}).Select("id").Where("site_id = ?", site.ID)).
		Order("systems.hostname").
		Find(&systems).Error
	return systems, err
}

// Path rebuilds the dotted name by walking up the parents.
func (s *SiteService) Path(site *models.Site) (string, error) {
	labels := []string{site.Name}
	current := site
	for current.ParentID != nil {
		var parent models.Site
		if err := s.db.First(&parent, *current.ParentID).Error; err != nil {
			return "", err
		}
		labels = append(labels, parent.Name)
		current = &parent
	}
	return strings.Join(labels, "."), nil
}

func getOrCreateSite(tx *gorm.DB, fullName string) (*models.Site, error) {
	var site models.Site
	found, err := firstWhere(tx, &site, "full_name = ?", fullName)
	if err != nil {
		return nil, err
	}
	if found {
		return &site, nil
	}

	name, parentName := splitSiteName(fullName)
	site = models.Site{FullName: fullName, Name: name}
	if parentName != "" {
		parent, err := getOrCreateSite(tx, parentName)
		if err != nil {
			return nil, err
		}
		site.ParentID = &parent.ID
	}
	if err := tx.Omit("Parent").Create(&site).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func splitSiteName(fullName string) (string, string) {
	name, parent, _ := strings.Cut(fullName, ".")
	return name, parent
}

func validateSiteLabels(fullName string) error {
	if fullName == "" {
		return requiredField("full_name")
	}
	for _, label := range strings.Split(fullName, ".") {
		if err := ValidateSiteName(label); err != nil {
			return err
		}
	}
	return nil
}

func countChildren(db *gorm.DB, siteID uint) (int64, error) {
	var n int64
	err := db.Model(&models.Site{}).Where("parent_id = ?", siteID).Count(&n).Error
	return n, err
}
