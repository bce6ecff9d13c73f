package models

// Site is a node in the dotted site hierarchy, e.g. "scl3.mozilla".
// Name is the first label of FullName; the remainder names the parent.
type Site struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FullName string `gorm:"size:255;uniqueIndex;not null" json:"full_name"`
	Name     string `gorm:"size:255;not null" json:"name"`
	ParentID *uint  `gorm:"index" json:"parent"`
	Parent   *Site  `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Site) TableName() string { return "site" }

func (s Site) String() string { return s.FullName }

// Location is a physical address racks can be attached to.
type Location struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:255;uniqueIndex;not null" json:"name" validate:"required"`
	Address string `gorm:"type:text" json:"address"`
	Note    string `gorm:"type:text" json:"note"`
}

func (Location) TableName() string { return "locations" }

func (l Location) String() string { return l.Name }
