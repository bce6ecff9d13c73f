package models

import "time"

// SystemChangeLog is an append-only record of a field level change.
type SystemChangeLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SystemID    uint      `gorm:"index;not null" json:"system"`
	ChangedBy   string    `gorm:"size:255" json:"changed_by"`
	ChangedDate time.Time `gorm:"index" json:"changed_date"`
	ChangedText string    `gorm:"type:text" json:"changed_text"`
}

func (SystemChangeLog) TableName() string { return "systems_change_log" }
