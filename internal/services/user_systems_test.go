package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmanagedSystem_HistoryAndUpgrade(t *testing.T) {
	db := newTestDB(t)
	owners := NewOwnerService(db)
	owner, err := owners.Create([]byte(`{"name": "jdoe", "email": "jdoe@mozilla.com"}`), nil)
	require.NoError(t, err)

	svc := NewUnmanagedSystemService(db, 0)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	old, err := svc.Create(&UnmanagedSystemRequest{
		Serial:        str("LAP1"),
		Owner:         ref("jdoe"),
		ServerModel:   ref("Apple-MacBook"),
		DatePurchased: str("2022-06-01"),
	})
	require.NoError(t, err)
	require.NotNil(t, old.Owner)
	assert.Equal(t, "jdoe", old.Owner.Name)
	require.NotNil(t, old.ServerModel)

	_, err = svc.Create(&UnmanagedSystemRequest{Serial: str("LAP2"), Owner: ref("jdoe"), DatePurchased: str("2025-06-01")})
	require.NoError(t, err)

	upgradeable, err := svc.UpgradeableSystems(owner.ID)
	require.NoError(t, err)
	require.Len(t, upgradeable, 1)
	assert.Equal(t, "LAP1", upgradeable[0].Serial)

	_, err = svc.Update(old.ID, &UnmanagedSystemRequest{Serial: str("LAP1-B"), Notes: str("new battery")})
	require.NoError(t, err)

	history, err := svc.History(old.ID)
	require.NoError(t, err)
	changes := make([]string, 0, len(history))
	for _, h := range history {
		changes = append(changes, h.Change)
	}
	assert.ElementsMatch(t, []string{"Created", "serial changed from LAP1 to LAP1-B", "notes changed from  to new battery"}, changes)

	require.NoError(t, svc.Delete(old.ID))
	history, err = svc.History(old.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = svc.GetByID(old.ID)
	requireAppError(t, err, http.StatusNotFound, "unmanaged system not found")
}

func TestUnmanagedSystem_UnknownOwner(t *testing.T) {
	svc := NewUnmanagedSystemService(newTestDB(t), 0)
	_, err := svc.Create(&UnmanagedSystemRequest{Owner: ref("nobody")})
	requireAppError(t, err, http.StatusBadRequest, "Unable to find Owner nobody")
}

func TestUnmanagedSystem_ListSearch(t *testing.T) {
	db := newTestDB(t)
	_, err := NewOwnerService(db).Create([]byte(`{"name": "reception"}`), nil)
	require.NoError(t, err)
	svc := NewUnmanagedSystemService(db, 0)
	_, err = svc.Create(&UnmanagedSystemRequest{Serial: str("DESK1"), Owner: ref("reception")})
	require.NoError(t, err)
	_, err = svc.Create(&UnmanagedSystemRequest{Serial: str("DESK2")})
	require.NoError(t, err)

	all, err := svc.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := svc.List("recep")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "DESK1", found[0].Serial)
}

func TestOwnerDelete_NullsReferences(t *testing.T) {
	db := newTestDB(t)
	owners := NewOwnerService(db)
	owner, err := owners.Create([]byte(`{"name": "leaver"}`), nil)
	require.NoError(t, err)

	license := models.UserLicense{LicenseType: "Office", LicenseKey: "K-1", OwnerID: &owner.ID}
	require.NoError(t, db.Create(&license).Error)
	svc := NewUnmanagedSystemService(db, 0)
	sys, err := svc.Create(&UnmanagedSystemRequest{Serial: str("L1"), Owner: ref("leaver")})
	require.NoError(t, err)

	require.NoError(t, owners.Delete("leaver"))

	var reloaded models.UserLicense
	require.NoError(t, db.First(&reloaded, license.ID).Error)
	assert.Nil(t, reloaded.OwnerID)

	reloadedSys, err := svc.GetByID(sys.ID)
	require.NoError(t, err)
	assert.Nil(t, reloadedSys.OwnerID)
}

func TestOwnerCreate_Validation(t *testing.T) {
	owners := NewOwnerService(newTestDB(t))

	_, err := owners.Create([]byte(`{"email": "a@b.com"}`), nil)
	requireAppError(t, err, http.StatusBadRequest, "This Field Is Required. (name)")

	_, err = owners.Create([]byte(`{"name": "x", "email": "nope"}`), nil)
	requireAppError(t, err, http.StatusBadRequest, "Enter a valid email address.")

	_, err = owners.Create([]byte(`{"name": "x"}`), nil)
	require.NoError(t, err)
	_, err = owners.Create([]byte(`{"name": "x"}`), nil)
	requireAppError(t, err, http.StatusBadRequest, "Owner already exists.")
}

func TestUserLocation_DeleteNullsOwners(t *testing.T) {
	db := newTestDB(t)
	locations := NewUserLocationService(db)
	loc, err := locations.Create([]byte(`{"city": "Mountain View", "country": "USA"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "Mountain View - USA", loc.String())

	owner := models.Owner{Name: "mv-it", UserLocationID: &loc.ID}
	require.NoError(t, db.Create(&owner).Error)

	require.NoError(t, locations.Delete("Mountain View"))

	var reloaded models.Owner
	require.NoError(t, db.First(&reloaded, owner.ID).Error)
	assert.Nil(t, reloaded.UserLocationID)
}
