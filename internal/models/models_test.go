package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rtucker-mozilla/minventory/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *config.DatabaseConfig {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return &config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(time.Date(2012, 3, 4, 15, 4, 5, 0, time.UTC))

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2012-03-04"`, string(b))

	var parsed Date
	require.NoError(t, json.Unmarshal([]byte(`"2013-05-06T00:00:00Z"`), &parsed))
	assert.Equal(t, "2013-05-06", parsed.String())

	assert.Error(t, json.Unmarshal([]byte(`"not-a-date"`), &parsed))
	assert.Error(t, json.Unmarshal([]byte(`12`), &parsed))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2014-01-02 00:00:00+00:00"))
	assert.Equal(t, "2014-01-02", d.String())

	require.NoError(t, d.Scan([]byte("2015-02-03")))
	assert.Equal(t, "2015-02-03", d.String())

	require.NoError(t, d.Scan(time.Date(2016, 3, 4, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2016-03-04", d.String())

	assert.Error(t, d.Scan(42))
}

func TestDatePtr(t *testing.T) {
	d, err := DatePtr("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = DatePtr("2020-12-31")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2020-12-31", d.String())

	_, err = DatePtr("12/31/2020")
	assert.Error(t, err)
}

func TestDisplayStrings(t *testing.T) {
	assert.Equal(t, "HP - DL360", ServerModel{Vendor: "HP", Model: "DL360"}.String())
	assert.Equal(t, "HP-DL360", ServerModel{Vendor: "HP", Model: "DL360"}.NaturalKey())
	assert.Equal(t, "RHEL - 6.2", OperatingSystem{Name: "RHEL", Version: "6.2"}.String())
	assert.Equal(t, "RHEL-6.2", OperatingSystem{Name: "RHEL", Version: "6.2"}.NaturalKey())

	rack := SystemRack{Name: "101-10", Site: &Site{FullName: "scl3.mozilla"}}
	assert.Equal(t, "101-10", rack.String())
	assert.Equal(t, "scl3.mozilla 101-10", rack.SiteLabel())
}

func TestMigrate_SeedsStatuses(t *testing.T) {
	db, err := Open(openTestDB(t), "test")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	// running twice is a no-op
	require.NoError(t, Migrate(db))

	var statuses []SystemStatus
	require.NoError(t, db.Order("id").Find(&statuses).Error)
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Status)
	}
	assert.Equal(t, []string{StatusBuilding, "production", StatusDecommissioned}, names)
}

func TestSystem_DateColumnsRoundTrip(t *testing.T) {
	db, err := Open(openTestDB(t), "test")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	start := NewDate(time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC))
	end := NewDate(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC))
	order := 31.01
	sys := System{Hostname: "web1.dc1", WarrantyStart: &start, WarrantyEnd: &end, RackOrder: &order}
	require.NoError(t, db.Create(&sys).Error)

	var loaded System
	require.NoError(t, db.First(&loaded, sys.ID).Error)
	require.NotNil(t, loaded.WarrantyStart)
	assert.Equal(t, "2012-01-01", loaded.WarrantyStart.String())
	assert.Equal(t, "2015-01-01", loaded.WarrantyEnd.String())
	require.NotNil(t, loaded.RackOrder)
	assert.InDelta(t, 31.01, *loaded.RackOrder, 0.001)
}

func TestIsDuplicateError(t *testing.T) {
	db, err := Open(openTestDB(t), "test")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, db.Create(&System{Hostname: "dup.dc1"}).Error)
	err = db.Create(&System{Hostname: "dup.dc1"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateError(err))
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"}, "test")
	assert.Error(t, err)
}
