package models

// KeyValue is a free form attribute attached to a system, e.g.
// nic.0.mac_address.0 = 00:16:3e:aa:bb:cc
type KeyValue struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Key      string  `gorm:"size:255;index;not null;default:''" json:"key"`
	Value    string  `gorm:"size:255;not null;default:''" json:"value"`
	SystemID *uint   `gorm:"index" json:"system"`
	System   *System `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (KeyValue) TableName() string { return "key_value" }

func (kv KeyValue) String() string { return "Key: " + kv.Key + " Value " + kv.Value }
