package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
)

// DefaultWarrantyDateLayout matches vendor sheets such as "05-Mar-12".
const DefaultWarrantyDateLayout = "02-Jan-06"

// WarrantyColumns names the spreadsheet columns holding each value.
type WarrantyColumns struct {
	Serial        string
	WarrantyStart string
	WarrantyEnd   string
}

// WarrantyImportResult summarises a warranty import.
type WarrantyImportResult struct {
	Total    int      `json:"total"`
	Missing  int      `json:"missing"`
	Matched  int      `json:"matched"`
	Updated  int      `json:"updated"`
	Multiple []string `json:"multiple,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

type WarrantyImportService struct {
	db      *gorm.DB
	systems *SystemService
}

func NewWarrantyImportService(db *gorm.DB, systems *SystemService) *WarrantyImportService {
	return &WarrantyImportService{db: db, systems: systems}
}

// Import sets warranty dates on systems matched by serial number. Updated
// counts systems that had no warranty end before the import.
func (s *WarrantyImportService) Import(r io.Reader, cols WarrantyColumns, layout string, actor *Actor) (*WarrantyImportResult, error) {
	if layout == "" {
		layout = DefaultWarrantyDateLayout
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, response.NewBadRequest(fmt.Sprintf("invalid csv: %v", err))
	}
	index := map[string]int{}
	for i, h := range headers {
		index[strings.TrimSpace(h)] = i
	}
	for _, name := range []string{cols.Serial, cols.WarrantyStart, cols.WarrantyEnd} {
		if _, ok := index[name]; !ok {
			return nil, response.NewBadRequest(fmt.Sprintf("column %q not found", name))
		}
	}

	result := &WarrantyImportResult{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, response.NewBadRequest(fmt.Sprintf("invalid csv: %v", err))
		}
		result.Total++

		cell := func(name string) string {
			if i := index[name]; i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}
		serial := strings.Trim(cell(cols.Serial), "'")

		var matches []models.System
		if err := s.db.Where("serial = ?", serial).Order("id").Find(&matches).Error; err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			result.Missing++
			logger.Debug().Str("serial", serial).Msg("no system with serial")
			continue
		}
		if len(matches) > 1 {
			result.Multiple = append(result.Multiple, serial)
		}

		start, err := models.ParseDate(layout, cell(cols.WarrantyStart))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: invalid warranty start %q", serial, cell(cols.WarrantyStart)))
			continue
		}
		end, err := models.ParseDate(layout, cell(cols.WarrantyEnd))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: invalid warranty end %q", serial, cell(cols.WarrantyEnd)))
			continue
		}

		for i := range matches {
			hadWarranty := matches[i].WarrantyEnd != nil
			startStr, endStr := start.String(), end.String()
			req := &SystemRequest{WarrantyStart: &startStr, WarrantyEnd: &endStr}
			id := fmt.Sprintf("%d", matches[i].ID)
			if _, err := s.systems.Update(id, req, actor); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", serial, err))
				continue
			}
			if !hadWarranty {
				result.Updated++
			}
		}
	}
	result.Matched = result.Total - result.Missing
	return result, nil
}
