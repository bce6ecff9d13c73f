package models

import (
	"time"

	"gorm.io/datatypes"
)

// Versioned is implemented by entities whose saves are snapshotted.
type Versioned interface {
	RevisionKey() (objectType string, id uint)
	String() string
}

// Revision is a JSON snapshot of a versioned entity taken on save.
type Revision struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ObjectType string         `gorm:"size:50;index:idx_revision_object" json:"object_type"`
	ObjectID   uint           `gorm:"index:idx_revision_object" json:"object_id"`
	ObjectRepr string         `gorm:"size:255" json:"object_repr"`
	Snapshot   datatypes.JSON `json:"snapshot"`
	UserID     *uint          `json:"user_id"`
	Username   string         `gorm:"size:100" json:"username"`
	Comment    string         `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (Revision) TableName() string { return "revisions" }
