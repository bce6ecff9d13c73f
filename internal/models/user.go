package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an inventory operator.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string         `gorm:"size:255" json:"-"` // Hashed password, empty for LDAP users
	Email     string         `gorm:"size:255" json:"email"`
	Nickname  string         `gorm:"size:100" json:"nickname"`
	Role      string         `gorm:"size:50;default:user" json:"role"`       // admin, user
	AuthType  string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Profile *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string { return "users" }

// UserProfile carries per-user paging and API access settings.
type UserProfile struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	UserID           uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	IsDesktopOncall  bool    `json:"is_desktop_oncall"`
	IsSysadminOncall bool    `json:"is_sysadmin_oncall"`
	IsServicesOncall bool    `json:"is_services_oncall"`
	CurrentDesktop   bool    `json:"current_desktop_oncall"`
	CurrentSysadmin  bool    `json:"current_sysadmin_oncall"`
	CurrentServices  bool    `json:"current_services_oncall"`
	IRCNick          string  `gorm:"column:irc_nick;size:128" json:"irc_nick"`
	APIKey           *string `gorm:"column:api_key;size:255;uniqueIndex" json:"-"`
	PagerType        string  `gorm:"size:255" json:"pager_type"`
	PagerNumber      string  `gorm:"size:255" json:"pager_number"`
	EpagerAddress    string  `gorm:"size:255" json:"epager_address"`
}

func (UserProfile) TableName() string { return "user_profiles" }
