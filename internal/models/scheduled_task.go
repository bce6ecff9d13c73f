package models

// Scheduled task types.
const (
	TaskTypeDHCP           = "dhcp"
	TaskTypeReverseDNSZone = "reverse_dns_zone"
	TaskTypeDNS            = "dns"
)

// ScheduledTask asks an external job to regenerate configuration for Task
// (a DHCP scope or DNS zone name). Rows are only ever appended here.
type ScheduledTask struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Task string `gorm:"size:255;index;not null" json:"task"`
	Type string `gorm:"size:255;index;not null" json:"type"`
}

func (ScheduledTask) TableName() string { return "scheduled_tasks" }
