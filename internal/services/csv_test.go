package services

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExportSystems(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.ServerModel{Vendor: "HP", Model: "DL360"}).Error)
	env.createSystem(t, "b.mozilla.com")
	env.createSystem(t, "a.mozilla.com")
	_, err := env.systems.Update("a.mozilla.com", &SystemRequest{Serial: str("S1"), ServerModel: ref("HP-DL360")}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewCSVService(env.db, env.systems).ExportSystems(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, SystemCSVHeader, records[0])
	assert.Equal(t, []string{"a.mozilla.com", "S1", "", "HP - DL360", "", "", ""}, records[1])
	assert.Equal(t, "b.mozilla.com", records[2][0])
}

func TestCSVExportModel(t *testing.T) {
	env := newTestEnv(t)
	env.createSystem(t, "export.mozilla.com")
	svc := NewCSVService(env.db, env.systems)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportModel("System", &buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, records[1], len(records[0]))

	row := map[string]string{}
	for i, col := range records[0] {
		row[col] = records[1][i]
	}
	assert.Equal(t, "export.mozilla.com", row["hostname"])
	assert.Equal(t, "None", row["rack_order"])
	assert.Equal(t, "None", row["operating_system"])
	assert.Equal(t, "production", row["system_status"])

	err = svc.ExportModel("Unknown", &buf)
	requireAppError(t, err, http.StatusNotFound, "no export for Unknown")
}

func TestCSVImportSystems(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.SystemRack{Name: "rack-1"}).Error)
	env.createSystem(t, "exists.mozilla.com")

	input := strings.Join([]string{
		"hostname,serial,system_status,system_rack,rack_order,warranty_start,warranty_end,ignored",
		"new1.mozilla.com,abc1,production,rack-1,12.50,2020-01-01,2023-01-01,x",
		"new2.mozilla.com,abc2,unknown-status,missing-rack,,2020-01-01,2023-01-01,y",
		"exists.mozilla.com,abc3,production,,,2020-01-01,2023-01-01,z",
		"nowarranty.mozilla.com,abc4,,,,,,",
	}, "\n")

	result, err := NewCSVService(env.db, env.systems).ImportSystems(strings.NewReader(input), &Actor{Username: "importer"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, ImportRowError{Line: 4, Hostname: "exists.mozilla.com", Error: "Hostname already used"}, result.Skipped[0])
	assert.Equal(t, "Warranty Data is required for non virtual systems", result.Skipped[1].Error)

	first, err := env.systems.Get("new1.mozilla.com")
	require.NoError(t, err)
	assert.Equal(t, "ABC1", first.Serial)
	assert.Equal(t, "production", first.StatusName())
	require.NotNil(t, first.SystemRack)
	assert.Equal(t, "rack-1", first.SystemRack.Name)
	require.NotNil(t, first.RackOrder)
	assert.InDelta(t, 12.5, *first.RackOrder, 0.001)

	// unknown lookups are dropped rather than failing the row
	second, err := env.systems.Get("new2.mozilla.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusBuilding, second.StatusName())
	assert.Nil(t, second.SystemRackID)
}

func TestCSVImportSystems_Empty(t *testing.T) {
	env := newTestEnv(t)
	result, err := NewCSVService(env.db, env.systems).ImportSystems(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
}

func TestWarrantyImport(t *testing.T) {
	env := newTestEnv(t)
	for _, h := range []string{"w1.mozilla.com", "w2.mozilla.com", "w3.mozilla.com"} {
		env.createSystem(t, h)
	}
	require.NoError(t, env.db.Model(&models.System{}).Where("hostname = ?", "w1.mozilla.com").
		Updates(map[string]interface{}{"serial": "SER1", "warranty_start": nil, "warranty_end": nil}).Error)
	require.NoError(t, env.db.Model(&models.System{}).Where("hostname IN ?", []string{"w2.mozilla.com", "w3.mozilla.com"}).
		Update("serial", "SER2").Error)

	input := strings.Join([]string{
		"Serial Number,Start,End",
		"'SER1',05-Mar-12,05-Mar-15",
		"SER2,01-Jan-13,01-Jan-16",
		"SER9,01-Jan-13,01-Jan-16",
		"SER1,bad,01-Jan-16",
	}, "\n")
	cols := WarrantyColumns{Serial: "Serial Number", WarrantyStart: "Start", WarrantyEnd: "End"}

	result, err := NewWarrantyImportService(env.db, env.systems).Import(strings.NewReader(input), cols, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 1, result.Missing)
	assert.Equal(t, 3, result.Matched)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []string{"SER2"}, result.Multiple)
	require.Len(t, result.Errors, 1)

	w1, err := env.systems.Get("w1.mozilla.com")
	require.NoError(t, err)
	assert.Equal(t, "2012-03-05", w1.WarrantyStart.String())
	assert.Equal(t, "2015-03-05", w1.WarrantyEnd.String())

	w3, err := env.systems.Get("w3.mozilla.com")
	require.NoError(t, err)
	assert.Equal(t, "2016-01-01", w3.WarrantyEnd.String())

	_, err = NewWarrantyImportService(env.db, env.systems).Import(strings.NewReader("a,b\n"), cols, "", nil)
	requireAppError(t, err, http.StatusBadRequest, `column "Serial Number" not found`)
}
