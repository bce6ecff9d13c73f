package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"gorm.io/gorm"
)

// relatedLabels maps foreign key columns onto their change log label.
var relatedLabels = map[string]string{
	"system_status_id":    "System Status",
	"operating_system_id": "Operating System",
	"server_model_id":     "Server Model",
	"system_type_id":      "System Type",
	"system_rack_id":      "System Rack",
}

// ChangeText renders diffs as "field: value" paragraphs. Foreign key ids are
// replaced by the display string of the referenced row.
func ChangeText(db *gorm.DB, diffs []FieldDiff) string {
	var b strings.Builder
	for _, d := range diffs {
		field, value := d.Field, displayValue(d.To)
		if label, ok := relatedLabels[d.Field]; ok {
			field = label
			value = relatedDisplay(db, d.Field, d.To)
		}
		fmt.Fprintf(&b, "%s: %s\n\n", field, value)
	}
	return b.String()
}

func displayValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func relatedDisplay(db *gorm.DB, column string, v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return "None"
	}
	id := uint(f)
	var obj fmt.Stringer
	switch column {
	case "system_status_id":
		obj = &models.SystemStatus{}
	case "operating_system_id":
		obj = &models.OperatingSystem{}
	case "server_model_id":
		obj = &models.ServerModel{}
	case "system_type_id":
		obj = &models.SystemType{}
	case "system_rack_id":
		obj = &models.SystemRack{}
	default:
		return displayValue(v)
	}
	if err := db.First(obj, id).Error; err != nil {
		return displayValue(v)
	}
	return obj.String()
}

// recordChangeLog appends a change log row when diffs is not empty.
func recordChangeLog(tx *gorm.DB, systemID uint, diffs []FieldDiff, actor *Actor) error {
	if len(diffs) == 0 {
		return nil
	}
	entry := &models.SystemChangeLog{
		SystemID:    systemID,
		ChangedBy:   actor.Name(),
		ChangedDate: time.Now(),
		ChangedText: ChangeText(tx, diffs),
	}
	return tx.Create(entry).Error
}

// ChangeLogs returns a system's change log, newest first.
func (s *SystemService) ChangeLogs(systemID uint) ([]models.SystemChangeLog, error) {
	var logs []models.SystemChangeLog
	err := s.db.Where("system_id = ?", systemID).Order("changed_date DESC").Order("id DESC").Find(&logs).Error
	return logs, err
}
