package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/jobs"
)

// TableStatus reports whether a table answered a count query.
type TableStatus struct {
	Status  string `json:"status"`
	Records int64  `json:"records"`
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status             string                 `json:"status"`
	Timestamp          time.Time              `json:"timestamp"`
	DBStatus           string                 `json:"db_status"`
	Tables             map[string]TableStatus `json:"tables"`
	LastRetentionSweep *jobs.SweepStatus      `json:"last_retention_sweep,omitempty"`
}

// HealthIndexAction reports store reachability, the size of both tables and
// the outcome of the last retention sweep. The response is always 200; a
// failing store is reported as "degraded" in the body.
func HealthIndexAction(ctx *cartridge.Context) error {
	health := HealthStatus{
		Status:             "ok",
		Timestamp:          time.Now().UTC(),
		DBStatus:           "ok",
		Tables:             map[string]TableStatus{},
		LastRetentionSweep: jobs.LastSweep(),
	}

	db := ctx.DBManager.GetConnection()
	if err := pingStore(db); err != nil {
		ctx.Logger.Error("Database ping failed", slog.Any("error", err))
		health.DBStatus = "error"
	}

	counters := map[string]func(context.Context, *gorm.DB) (int64, error){
		"sessions": events.CountSessions,
		"events":   events.CountEvents,
	}
	for table, count := range counters {
		status := TableStatus{Status: "error"}
		if db != nil {
			records, err := count(ctx.UserContext(), db)
			if err != nil {
				ctx.Logger.Error("Table unreachable", slog.String("table", table), slog.Any("error", err))
			} else {
				status = TableStatus{Status: "ok", Records: records}
			}
		}
		if status.Status != "ok" {
			health.Status = "degraded"
		}
		health.Tables[table] = status
	}

	if health.DBStatus != "ok" {
		health.Status = "degraded"
	}
	if sweep := health.LastRetentionSweep; sweep != nil && sweep.Error != "" {
		ctx.Logger.Warn("Last retention sweep failed", slog.String("error", sweep.Error))
	}

	return ctx.JSON(health)
}

func pingStore(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
