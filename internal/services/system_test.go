package services

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemCreate_RequiredFields(t *testing.T) {
	env := newTestEnv(t)
	actor := &Actor{Username: "tester"}

	_, err := env.systems.Create(&SystemRequest{}, actor, APICreateOptions)
	requireAppError(t, err, http.StatusBadRequest, "This Field Is Required. (hostname)")

	_, err = env.systems.Create(&SystemRequest{Hostname: str("a.mozilla.com"), SystemType: ref("server")}, actor, APICreateOptions)
	requireAppError(t, err, http.StatusBadRequest, "This Field Is Required. (system_status)")

	_, err = env.systems.Create(&SystemRequest{
		Hostname:     str("a.mozilla.com"),
		SystemStatus: ref("production"),
		SystemType:   ref("0"),
	}, actor, APICreateOptions)
	requireAppError(t, err, http.StatusBadRequest, "This Field Is Required. (system_type)")
}

func TestSystemCreate_DefaultWarranty(t *testing.T) {
	env := newTestEnv(t)
	env.systems.now = func() time.Time { return time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC) }

	sys := env.createSystem(t, "warranty.mozilla.com")
	require.NotNil(t, sys.WarrantyStart)
	require.NotNil(t, sys.WarrantyEnd)
	assert.Equal(t, "2026-05-01", sys.WarrantyStart.String())
	assert.Equal(t, "2027-05-01", sys.WarrantyEnd.String())
}

func TestSystemCreate_WarrantyRules(t *testing.T) {
	env := newTestEnv(t)
	actor := &Actor{Username: "tester"}
	noDefault := CreateOptions{}

	_, err := env.systems.Create(&SystemRequest{Hostname: str("w1.mozilla.com")}, actor, noDefault)
	requireAppError(t, err, http.StatusBadRequest, "Warranty Data is required for non virtual systems")

	_, err = env.systems.Create(&SystemRequest{
		Hostname:      str("w1.mozilla.com"),
		WarrantyStart: str("2020-02-01"),
		WarrantyEnd:   str("2020-01-01"),
	}, actor, noDefault)
	requireAppError(t, err, http.StatusBadRequest, "warranty start date should be before the end date")

	_, err = env.systems.Create(&SystemRequest{
		Hostname:    str("w1.mozilla.com"),
		WarrantyEnd: str("2020-01-01"),
	}, actor, noDefault)
	requireAppError(t, err, http.StatusBadRequest, "Warranty must have a start and end date")

	_, err = env.systems.Create(&SystemRequest{
		Hostname:      str("w1.mozilla.com"),
		WarrantyStart: str("01/02/2020"),
	}, actor, noDefault)
	appErr := requireAppError(t, err, http.StatusBadRequest, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	assert.Equal(t, "warranty_start", appErr.Field)
}

func TestSystemCreate_StatusDefaultsToBuilding(t *testing.T) {
	env := newTestEnv(t)

	sys, err := env.systems.Create(&SystemRequest{
		Hostname:      str("new.mozilla.com"),
		WarrantyStart: str("2020-01-01"),
		WarrantyEnd:   str("2021-01-01"),
	}, &Actor{Username: "tester"}, CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBuilding, sys.StatusName())
}

func TestSystemCreate_ResolvesReferences(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.OperatingSystem{Name: "RHEL", Version: "6.2"}).Error)
	require.NoError(t, env.db.Create(&models.ServerModel{Vendor: "HP", Model: "DL360"}).Error)
	require.NoError(t, env.db.Create(&models.SystemRack{Name: "rack-1"}).Error)

	sys, err := env.systems.Create(&SystemRequest{
		Hostname:        str("refs.mozilla.com"),
		SystemType:      ref("server"),
		SystemStatus:    ref("production"),
		OperatingSystem: ref("RHEL-6.2"),
		ServerModel:     ref("HP-DL360"),
		SystemRack:      ref("rack-1"),
		RackOrder:       ref("31.01"),
	}, &Actor{Username: "tester"}, APICreateOptions)
	require.NoError(t, err)

	view := NewSystemView(*sys)
	assert.Equal(t, "RHEL-6.2", *view.OperatingSystem)
	assert.Equal(t, "HP-DL360", *view.ServerModel)
	assert.Equal(t, "server", *view.SystemType)
	assert.Equal(t, "production", *view.SystemStatus)
	assert.Equal(t, "rack-1", *view.SystemRack)
	require.NotNil(t, sys.RackOrder)
	assert.InDelta(t, 31.01, *sys.RackOrder, 0.001)
}

func TestSystemCreate_DropsEmptyReferences(t *testing.T) {
	env := newTestEnv(t)

	sys, err := env.systems.Create(&SystemRequest{
		Hostname:        str("empty-refs.mozilla.com"),
		SystemType:      ref("server"),
		SystemStatus:    ref("production"),
		OperatingSystem: ref("0"),
		SystemRack:      ref("0"),
		RackOrder:       ref("0"),
	}, &Actor{Username: "tester"}, APICreateOptions)
	require.NoError(t, err)
	assert.Nil(t, sys.OperatingSystemID)
	assert.Nil(t, sys.SystemRackID)
	assert.Nil(t, sys.RackOrder)
}

func TestSystemUpdate_ZeroRackOrderIsASlot(t *testing.T) {
	env := newTestEnv(t)
	sys := env.createSystem(t, "slot.mozilla.com")
	actor := &Actor{Username: "tester"}

	_, err := env.systems.Update("slot.mozilla.com", &SystemRequest{RackOrder: ref("5")}, actor)
	require.NoError(t, err)

	updated, err := env.systems.Update("slot.mozilla.com", &SystemRequest{RackOrder: ref("0")}, actor)
	require.NoError(t, err)
	require.NotNil(t, updated.RackOrder)
	assert.InDelta(t, 0, *updated.RackOrder, 0.001)

	empty := Ref("")
	cleared, err := env.systems.Update(fmt.Sprint(sys.ID), &SystemRequest{RackOrder: &empty}, actor)
	require.NoError(t, err)
	assert.Nil(t, cleared.RackOrder)
}

func TestSystemCreate_UnknownReference(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.systems.Create(&SystemRequest{
		Hostname:     str("bad-ref.mozilla.com"),
		SystemType:   ref("server"),
		SystemStatus: ref("retired"),
	}, &Actor{Username: "tester"}, APICreateOptions)
	appErr := requireAppError(t, err, http.StatusBadRequest, "Unable to find SystemStatus retired")
	assert.Equal(t, "system_status", appErr.Field)
}

func TestSystemCreate_DuplicateHostname(t *testing.T) {
	env := newTestEnv(t)
	env.createSystem(t, "dupe.mozilla.com")

	_, err := env.systems.Create(&SystemRequest{
		Hostname:     str("dupe.mozilla.com"),
		SystemType:   ref("server"),
		SystemStatus: ref("production"),
	}, &Actor{Username: "tester"}, APICreateOptions)
	requireAppError(t, err, http.StatusBadRequest, "Hostname already used")
}

func TestSystemGet_ByIDOrHostname(t *testing.T) {
	env := newTestEnv(t)
	sys := env.createSystem(t, "lookup.mozilla.com")

	byName, err := env.systems.Get("lookup.mozilla.com")
	require.NoError(t, err)
	assert.Equal(t, sys.ID, byName.ID)

	byID, err := env.systems.Get("1")
	require.NoError(t, err)
	assert.Equal(t, sys.ID, byID.ID)

	_, err = env.systems.Get("nope.mozilla.com")
	requireAppError(t, err, http.StatusNotFound, "system not found")
}

func TestSystemUpdate_ChangeLogAndRevision(t *testing.T) {
	env := newTestEnv(t)
	sys := env.createSystem(t, "update.mozilla.com")

	updated, err := env.systems.Update("update.mozilla.com", &SystemRequest{
		Serial:       str("SN123"),
		SystemStatus: ref("decommissioned"),
	}, &Actor{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "SN123", updated.Serial)
	assert.True(t, updated.IsDecommissioned())

	logs, err := env.systems.ChangeLogs(sys.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "alice", logs[0].ChangedBy)
	assert.Contains(t, logs[0].ChangedText, "serial: SN123")
	assert.Contains(t, logs[0].ChangedText, "System Status: decommissioned")

	revs, err := env.systems.Revisions(sys.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "updated", revs[0].Comment)
	assert.Equal(t, "created", revs[1].Comment)
	assert.Equal(t, revs[0].ID, updated.CurrentRevision)
}

func TestSystemUpdate_NoChangesWritesNoChangeLog(t *testing.T) {
	env := newTestEnv(t)
	sys := env.createSystem(t, "same.mozilla.com")

	_, err := env.systems.Update("same.mozilla.com", &SystemRequest{Hostname: str("same.mozilla.com")}, nil)
	require.NoError(t, err)

	logs, err := env.systems.ChangeLogs(sys.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSystemUpdate_HostnameTakenByAnother(t *testing.T) {
	env := newTestEnv(t)
	env.createSystem(t, "first.mozilla.com")
	env.createSystem(t, "second.mozilla.com")

	_, err := env.systems.Update("second.mozilla.com", &SystemRequest{Hostname: str("first.mozilla.com")}, nil)
	requireAppError(t, err, http.StatusBadRequest, "Hostname already used")
}

func TestSystemRevert(t *testing.T) {
	env := newTestEnv(t)
	sys := env.createSystem(t, "revert.mozilla.com")

	revs, err := env.systems.Revisions(sys.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	original := revs[0]

	_, err = env.systems.Update("revert.mozilla.com", &SystemRequest{Notes: str("moved to rack 9")}, nil)
	require.NoError(t, err)

	reverted, err := env.systems.Revert(original.ID, &Actor{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "", reverted.Notes)
	assert.Equal(t, "revert.mozilla.com", reverted.Hostname)

	revs, err = env.systems.Revisions(sys.ID)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.True(t, strings.HasPrefix(revs[0].Comment, "reverted to revision"))
	assert.Equal(t, "bob", revs[0].Username)
}

func TestSystemDelete_BlockedByKeyValues(t *testing.T) {
	env := newTestEnv(t)
	env.createSystem(t, "kv.mozilla.com")
	kv := env.addKeyValue(t, "kv.mozilla.com", "hardware.cpu", "xeon")

	err := env.systems.Delete("kv.mozilla.com")
	requireAppError(t, err, http.StatusConflict, "Unable to Delete system. Please Delete Key/Value Entries")

	_, err = env.keyValues.Delete(kv.ID)
	require.NoError(t, err)
	require.NoError(t, env.systems.Delete("kv.mozilla.com"))

	_, err = env.systems.Get("kv.mozilla.com")
	requireAppError(t, err, http.StatusNotFound, "system not found")
}

func TestSystemList(t *testing.T) {
	env := newTestEnv(t)
	env.createSystem(t, "b.mozilla.com")
	env.createSystem(t, "a.mozilla.com")
	_, err := env.systems.Update("b.mozilla.com", &SystemRequest{SystemStatus: ref("decommissioned")}, nil)
	require.NoError(t, err)

	list, err := env.systems.List(&SystemListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "a.mozilla.com", list.Items[0].Hostname)

	list, err = env.systems.List(&SystemListRequest{Status: "decommissioned"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "b.mozilla.com", list.Items[0].Hostname)
}

func TestValidateWarranty_ExistingSystemMayHaveNone(t *testing.T) {
	assert.NoError(t, ValidateWarranty(&models.System{}, false))
}
