package models

// SystemType classifies a system, e.g. "server" or "switch".
type SystemType struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	TypeName string `gorm:"size:255;index" json:"type_name" validate:"required"`
}

func (SystemType) TableName() string { return "system_types" }

func (t SystemType) String() string { return t.TypeName }

func (t SystemType) RevisionKey() (string, uint) { return "system_type", t.ID }

// SystemStatus is the lifecycle state of a system.
type SystemStatus struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Status    string `gorm:"size:255;index" json:"status" validate:"required"`
	Color     string `gorm:"size:255" json:"color"`
	ColorCode string `gorm:"size:255" json:"color_code"`
}

func (SystemStatus) TableName() string { return "system_statuses" }

func (s SystemStatus) String() string { return s.Status }

func (s SystemStatus) RevisionKey() (string, uint) { return "system_status", s.ID }

// Status names referenced by the application.
const (
	StatusBuilding       = "building"
	StatusDecommissioned = "decommissioned"
)

// ServerModel is a vendor hardware model. It displays as "vendor - model"
// and is referenced over the API as "vendor-model".
type ServerModel struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Vendor      string `gorm:"size:255;index" json:"vendor" validate:"required"`
	Model       string `gorm:"size:255;index" json:"model" validate:"required"`
	Description string `gorm:"type:text" json:"description"`
	PartNumber  string `gorm:"size:255" json:"part_number"`
}

func (ServerModel) TableName() string { return "server_models" }

func (m ServerModel) String() string { return m.Vendor + " - " + m.Model }

// NaturalKey is the "vendor-model" form accepted by lookups.
func (m ServerModel) NaturalKey() string { return m.Vendor + "-" + m.Model }

func (m ServerModel) RevisionKey() (string, uint) { return "server_model", m.ID }

// OperatingSystem displays as "name - version" and is referenced as
// "name-version".
type OperatingSystem struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:255;index" json:"name" validate:"required"`
	Version string `gorm:"size:255" json:"version"`
}

func (OperatingSystem) TableName() string { return "operating_systems" }

func (o OperatingSystem) String() string { return o.Name + " - " + o.Version }

func (o OperatingSystem) NaturalKey() string { return o.Name + "-" + o.Version }

func (o OperatingSystem) RevisionKey() (string, uint) { return "operating_system", o.ID }
