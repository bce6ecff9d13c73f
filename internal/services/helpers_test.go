package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rtucker-mozilla/minventory/internal/config"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, "test")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

type testEnv struct {
	db        *gorm.DB
	revisions *RevisionService
	tasks     *ScheduledTaskService
	published *TablePublisher
	systems   *SystemService
	keyValues *KeyValueService
	racks     *RackService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	revisions := NewRevisionService(db)
	published := NewTablePublisher()
	tasks := NewScheduledTaskService(db, published)
	env := &testEnv{
		db:        db,
		revisions: revisions,
		tasks:     tasks,
		published: published,
		systems:   NewSystemService(db, revisions, 1),
		keyValues: NewKeyValueService(db, tasks),
		racks:     NewRackService(db, revisions),
	}
	require.NoError(t, db.Create(&models.SystemType{TypeName: "server"}).Error)
	return env
}

func str(s string) *string { return &s }

func ref(s string) *Ref { return RefPtr(s) }

// createSystem adds a server through the REST create path.
func (e *testEnv) createSystem(t *testing.T, hostname string) *models.System {
	t.Helper()
	sys, err := e.systems.Create(&SystemRequest{
		Hostname:     str(hostname),
		SystemType:   ref("server"),
		SystemStatus: ref("production"),
	}, &Actor{Username: "tester"}, APICreateOptions)
	require.NoError(t, err)
	return sys
}

func (e *testEnv) addKeyValue(t *testing.T, system, key, value string) *models.KeyValue {
	t.Helper()
	kv, err := e.keyValues.Create(&KeyValueRequest{System: ref(system), Key: str(key), Value: str(value)})
	require.NoError(t, err)
	return kv
}

func (e *testEnv) taskRows(t *testing.T) []models.ScheduledTask {
	t.Helper()
	var rows []models.ScheduledTask
	require.NoError(t, e.db.Order("id").Find(&rows).Error)
	return rows
}

// requireAppError asserts err is an AppError with the given status and message.
func requireAppError(t *testing.T, err error, status int, msg string) *response.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *response.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, status, appErr.HTTPStatus, appErr.Message)
	require.Equal(t, msg, appErr.Message)
	return appErr
}
