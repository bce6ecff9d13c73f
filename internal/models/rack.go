package models

// SystemRack is a physical rack. Name is unique within a site.
type SystemRack struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null;uniqueIndex:idx_rack_name_site" json:"name"`
	SiteID     *uint     `gorm:"uniqueIndex:idx_rack_name_site" json:"site"`
	Site       *Site     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	LocationID *uint     `gorm:"index" json:"location"`
	Location   *Location `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (SystemRack) TableName() string { return "system_racks" }

func (r SystemRack) String() string { return r.Name }

// SiteLabel renders "site rack" as used by the rack pickers.
func (r SystemRack) SiteLabel() string {
	if r.Site != nil {
		return r.Site.FullName + " " + r.Name
	}
	return r.Name
}

func (r SystemRack) RevisionKey() (string, uint) { return "system_rack", r.ID }
