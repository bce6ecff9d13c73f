package handlers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/services"
)

var startTime = time.Now()

// Metrics returns Prometheus-compatible text format gauges about the
// inventory itself. Request metrics are served separately on /metrics.
// GET /metrics/inventory
func Metrics(c *gin.Context) {
	var b strings.Builder

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeGauge(&b, "minventory_uptime_seconds", "Time since server start in seconds", time.Since(startTime).Seconds())
	writeGauge(&b, "minventory_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "minventory_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))

	db := models.GetDB()
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			stats := sqlDB.Stats()
			writeGauge(&b, "minventory_db_open_connections", "Number of open DB connections", float64(stats.OpenConnections))
			writeGauge(&b, "minventory_db_in_use_connections", "Number of in-use DB connections", float64(stats.InUse))
			writeGauge(&b, "minventory_db_idle_connections", "Number of idle DB connections", float64(stats.Idle))
		}
	}

	if hub := services.GetSSEHub(); hub != nil {
		writeGauge(&b, "minventory_sse_active_clients", "Number of active SSE connections", float64(hub.ClientCount()))
	}

	publisher := services.GetTaskPublisher()
	queueAsync := 0.0
	if publisher != nil && publisher.IsAsync() {
		queueAsync = 1.0
	}
	writeGauge(&b, "minventory_queue_async_enabled", "Whether scheduled tasks are published to Redis (1=yes, 0=no)", queueAsync)

	if db != nil {
		var systems, racks, keyValues, tasks, users int64
		db.Model(&models.System{}).Count(&systems)
		db.Model(&models.SystemRack{}).Count(&racks)
		db.Model(&models.KeyValue{}).Count(&keyValues)
		db.Model(&models.ScheduledTask{}).Count(&tasks)
		db.Model(&models.User{}).Where("is_active = ?", true).Count(&users)

		writeGauge(&b, "minventory_systems_total", "Number of systems", float64(systems))
		writeGauge(&b, "minventory_racks_total", "Number of racks", float64(racks))
		writeGauge(&b, "minventory_key_values_total", "Number of key value attributes", float64(keyValues))
		writeGauge(&b, "minventory_scheduled_tasks_pending", "Scheduled tasks waiting for the regeneration job", float64(tasks))
		writeGauge(&b, "minventory_users_active", "Number of active users", float64(users))

		since24h := time.Now().Add(-24 * time.Hour)
		var changes24h int64
		db.Model(&models.SystemChangeLog{}).Where("changed_date >= ?", since24h).Count(&changes24h)
		writeGauge(&b, "minventory_system_changes_24h", "System change log entries in the last 24 hours", float64(changes24h))
	}

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}
