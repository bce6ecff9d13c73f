package models

import (
	"time"
)

// System is a tracked physical or virtual machine.
type System struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Hostname string `gorm:"size:255;uniqueIndex;not null" json:"hostname"`

	OperatingSystemID *uint            `gorm:"index" json:"operating_system_id"`
	OperatingSystem   *OperatingSystem `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	SystemTypeID      *uint            `gorm:"index" json:"system_type_id"`
	SystemType        *SystemType      `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	SystemStatusID    *uint            `gorm:"index" json:"system_status_id"`
	SystemStatus      *SystemStatus    `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ServerModelID     *uint            `gorm:"index" json:"server_model_id"`
	ServerModel       *ServerModel     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	SystemRackID      *uint            `gorm:"index" json:"system_rack_id"`
	SystemRack        *SystemRack      `gorm:"constraint:OnDelete:SET NULL" json:"-"`

	Serial         string     `gorm:"size:255;index" json:"serial"`
	AssetTag       string     `gorm:"size:255;index" json:"asset_tag"`
	Notes          string     `gorm:"type:text" json:"notes"`
	Licenses       string     `gorm:"type:text" json:"licenses"`
	PDU1           string     `gorm:"column:pdu1;size:255" json:"pdu1"`
	PDU2           string     `gorm:"column:pdu2;size:255" json:"pdu2"`
	OOBIP          string     `gorm:"column:oob_ip;size:30" json:"oob_ip"`
	OOBSwitchPort  string     `gorm:"column:oob_switch_port;size:255" json:"oob_switch_port"`
	SwitchPorts    string     `gorm:"size:255" json:"switch_ports"`
	PatchPanelPort string     `gorm:"size:255" json:"patch_panel_port"`
	PurchaseDate   *Date      `json:"purchase_date"`
	PurchasePrice  string     `gorm:"size:255" json:"purchase_price"`
	ChangePassword *time.Time `json:"change_password"`
	RAM            string     `gorm:"column:ram;size:255" json:"ram"`
	// RackOrder is the slot position used when drawing a rack, e.g. 31.01.
	RackOrder       *float64 `gorm:"type:decimal(6,2)" json:"rack_order"`
	WarrantyStart   *Date    `json:"warranty_start"`
	WarrantyEnd     *Date    `json:"warranty_end"`
	CurrentRevision uint     `gorm:"default:0" json:"current_revision"`

	CreatedOn time.Time `gorm:"column:created_on;autoCreateTime" json:"created_on"`
	UpdatedOn time.Time `gorm:"column:updated_on;autoUpdateTime" json:"updated_on"`

	KeyValues []KeyValue `gorm:"foreignKey:SystemID" json:"-"`
}

func (System) TableName() string { return "systems" }

func (s System) String() string { return s.Hostname }

func (s System) RevisionKey() (string, uint) { return "system", s.ID }

// IsDecommissioned reports whether the loaded status is "decommissioned".
func (s System) IsDecommissioned() bool {
	return s.SystemStatus != nil && s.SystemStatus.Status == StatusDecommissioned
}

// StatusName returns the loaded status name or "".
func (s System) StatusName() string {
	if s.SystemStatus == nil {
		return ""
	}
	return s.SystemStatus.Status
}
