package models

import (
	"fmt"
	"time"
)

// Owner is a person or team holding unmanaged assets.
type Owner struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Name           string        `gorm:"size:255;uniqueIndex" json:"name" validate:"required"`
	Address        string        `gorm:"type:text" json:"address"`
	Note           string        `gorm:"type:text" json:"note"`
	Email          string        `gorm:"size:255" json:"email" validate:"omitempty,email"`
	UserLocationID *uint         `gorm:"index" json:"user_location"`
	UserLocation   *UserLocation `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (Owner) TableName() string { return "owners" }

func (o Owner) String() string { return o.Name }

// UnmanagedSystem is a desktop or laptop not tracked as a System.
type UnmanagedSystem struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	Serial            string           `gorm:"size:255;index" json:"serial"`
	AssetTag          string           `gorm:"size:255;index" json:"asset_tag"`
	OperatingSystemID *uint            `json:"operating_system"`
	OperatingSystem   *OperatingSystem `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	OwnerID           *uint            `gorm:"index" json:"owner"`
	Owner             *Owner           `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ServerModelID     *uint            `json:"server_model"`
	ServerModel       *ServerModel     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	DatePurchased     *Date            `json:"date_purchased"`
	Cost              string           `gorm:"size:50" json:"cost"`
	Notes             string           `gorm:"type:text" json:"notes"`
	CreatedOn         time.Time        `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn         time.Time        `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`
}

func (UnmanagedSystem) TableName() string { return "unmanaged_systems" }

func (u UnmanagedSystem) String() string {
	model := ""
	if u.ServerModel != nil {
		model = u.ServerModel.String()
	}
	return fmt.Sprintf("%s - %s - %s", model, u.AssetTag, u.Serial)
}

// UnmanagedHistory records a change made to an unmanaged system.
type UnmanagedHistory struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Change            string    `gorm:"size:1000" json:"change"`
	UnmanagedSystemID uint      `gorm:"index;not null" json:"system"`
	Created           time.Time `gorm:"autoCreateTime" json:"created"`
}

func (UnmanagedHistory) TableName() string { return "unmanaged_history" }

// UserLicense is a software license assigned to an owner.
type UserLicense struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Username    string `gorm:"size:255" json:"username"`
	Version     string `gorm:"size:255" json:"version"`
	LicenseType string `gorm:"size:255" json:"license_type"`
	LicenseKey  string `gorm:"size:255" json:"license_key"`
	OwnerID     *uint  `gorm:"index" json:"owner"`
	Owner       *Owner `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (UserLicense) TableName() string { return "user_licenses" }

func (l UserLicense) String() string { return l.LicenseType + " - " + l.LicenseKey }

type UserLocation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	City      string    `gorm:"size:255;uniqueIndex" json:"city" validate:"required"`
	Country   string    `gorm:"size:255" json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserLocation) TableName() string { return "user_locations" }

func (l UserLocation) String() string { return l.City + " - " + l.Country }
