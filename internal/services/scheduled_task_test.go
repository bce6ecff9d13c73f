package services

import (
	"net/http"
	"testing"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduledTask_AddAndQuery(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ task, typ string }{
		{"scope-b", models.TaskTypeDHCP},
		{"scope-a", models.TaskTypeDHCP},
		{"mozilla.com", models.TaskTypeDNS},
		{"scope-b", models.TaskTypeDHCP},
	} {
		_, err := env.tasks.Add(tc.task, tc.typ)
		require.NoError(t, err)
	}
	assert.Len(t, env.published.Recent(), 4)

	dhcp, err := env.tasks.List(models.TaskTypeDHCP)
	require.NoError(t, err)
	assert.Equal(t, []string{"dhcp:scope-a", "dhcp:scope-b", "dhcp:scope-b"}, taskSummary(dhcp))

	next, err := env.tasks.Next(models.TaskTypeDHCP)
	require.NoError(t, err)
	assert.Equal(t, "scope-b", next.Task)
	assert.Equal(t, uint(1), next.ID)

	last, err := env.tasks.Last(models.TaskTypeDHCP)
	require.NoError(t, err)
	assert.Equal(t, uint(4), last.ID)

	_, err = env.tasks.Next(models.TaskTypeReverseDNSZone)
	requireAppError(t, err, http.StatusNotFound, "no reverse_dns_zone tasks scheduled")

	n, err := env.tasks.DeleteByType(models.TaskTypeDHCP)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	all, err := env.tasks.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"dns:mozilla.com"}, taskSummary(all))

	require.NoError(t, env.tasks.Delete(all[0].ID))
	requireAppError(t, env.tasks.Delete(all[0].ID), http.StatusNotFound, "scheduled task not found")
}

func TestScheduledTask_AddValidates(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tasks.Add("", models.TaskTypeDHCP)
	requireAppError(t, err, http.StatusBadRequest, "task is required")

	_, err = env.tasks.Add("x", "ntp")
	requireAppError(t, err, http.StatusBadRequest, "unknown task type ntp")

	_, err = env.tasks.DeleteByType("")
	requireAppError(t, err, http.StatusBadRequest, "type is required")
}

func TestScheduledTask_PublishFailureKeepsRow(t *testing.T) {
	db := newTestDB(t)
	tasks := NewScheduledTaskService(db, &failingPublisher{})

	row, err := tasks.Add("scope-z", models.TaskTypeDHCP)
	require.NoError(t, err)
	assert.NotZero(t, row.ID)

	var count int64
	require.NoError(t, db.Model(&models.ScheduledTask{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
