package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
)

func unableToFind(field, entity string, ref Ref) error {
	return response.NewFieldError(field, fmt.Sprintf("Unable to find %s %s", entity, ref))
}

// firstWhere loads the first row matching query into dest. A missing row is
// reported as found=false rather than an error. db may carry preloads or
// conditions; they are not modified.
func firstWhere(db *gorm.DB, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := db.Session(&gorm.Session{}).Where(query, args...).Order("id").First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// findByLookupFields tries each field in order and returns the first match.
// The "id" field is only tried for numeric values.
func findByLookupFields(db *gorm.DB, dest interface{}, value string, fields ...string) (bool, error) {
	for _, field := range fields {
		if field == "id" {
			id, ok := Ref(value).ID()
			if !ok {
				continue
			}
			found, err := firstWhere(db, dest, "id = ?", id)
			if err != nil || found {
				return found, err
			}
			continue
		}
		found, err := firstWhere(db, dest, field+" = ?", value)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

func splitNaturalKey(ref Ref) (string, string) {
	parts := strings.SplitN(string(ref), "-", 2)
	head := strings.TrimSpace(parts[0])
	if len(parts) == 1 {
		return head, ""
	}
	return head, strings.TrimSpace(parts[1])
}

// ResolveServerModel finds a server model by id, by "vendor-model", or by
// model alone. An unknown reference creates a new model named after it.
func ResolveServerModel(db *gorm.DB, ref Ref) (*models.ServerModel, error) {
	var m models.ServerModel
	if id, ok := ref.ID(); ok {
		found, err := firstWhere(db, &m, "id = ?", id)
		if err != nil || found {
			return &m, err
		}
	}

	vendor, model := splitNaturalKey(ref)
	if model != "" {
		found, err := firstWhere(db, &m, "vendor = ? AND model = ?", vendor, model)
		if err != nil || found {
			return &m, err
		}
	} else {
		model = vendor
	}

	found, err := firstWhere(db, &m, "model = ?", model)
	if err != nil || found {
		return &m, err
	}

	m = models.ServerModel{Vendor: ref.String(), Model: ref.String()}
	if err := db.Create(&m).Error; err != nil {
		return nil, err
	}
	logger.Info().Str("server_model", ref.String()).Uint("id", m.ID).Msg("created server model from reference")
	return &m, nil
}

// ResolveOperatingSystem finds an operating system by id or "name-version".
func ResolveOperatingSystem(db *gorm.DB, ref Ref) (*models.OperatingSystem, error) {
	var os models.OperatingSystem
	if id, ok := ref.ID(); ok {
		found, err := firstWhere(db, &os, "id = ?", id)
		if err != nil || found {
			return &os, err
		}
	}
	name, version := splitNaturalKey(ref)
	found, err := firstWhere(db, &os, "name = ? AND version = ?", name, version)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, unableToFind("operating_system", "OperatingSystem", ref)
	}
	return &os, nil
}

// ResolveSystemType finds a system type by id or type name.
func ResolveSystemType(db *gorm.DB, ref Ref) (*models.SystemType, error) {
	var t models.SystemType
	found, err := findByLookupFields(db, &t, ref.String(), "id", "type_name")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, unableToFind("system_type", "SystemType", ref)
	}
	return &t, nil
}

// ResolveSystemStatus finds a system status by id or status name.
func ResolveSystemStatus(db *gorm.DB, ref Ref) (*models.SystemStatus, error) {
	var st models.SystemStatus
	found, err := findByLookupFields(db, &st, ref.String(), "id", "status")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, unableToFind("system_status", "SystemStatus", ref)
	}
	return &st, nil
}

// ResolveSystemRack finds a rack by id or by name (first match).
func ResolveSystemRack(db *gorm.DB, ref Ref) (*models.SystemRack, error) {
	var rack models.SystemRack
	found, err := findByLookupFields(db, &rack, ref.String(), "id", "name")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, unableToFind("system_rack", "SystemRack", ref)
	}
	return &rack, nil
}

// ResolveSite finds a site by id, full name or short name.
func ResolveSite(db *gorm.DB, ref Ref) (*models.Site, error) {
	var site models.Site
	found, err := findByLookupFields(db, &site, ref.String(), "id", "full_name", "name")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, unableToFind("site", "Site", ref)
	}
	return &site, nil
}

// ResolveLocation finds a location by id or name.
func ResolveLocation(db *gorm.DB, ref Ref) (*models.Location, error) {
	var loc models.Location
	found, err := findByLookupFields(db, &loc, ref.String(), "id", "name")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, unableToFind("location", "Location", ref)
	}
	return &loc, nil
}

// GetOrCreateStatus returns the named status, creating it when missing.
func GetOrCreateStatus(db *gorm.DB, status string) (*models.SystemStatus, error) {
	st := models.SystemStatus{Status: status}
	if err := db.Where(models.SystemStatus{Status: status}).FirstOrCreate(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}
