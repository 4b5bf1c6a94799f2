package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/metrics"
)

const retentionBatchSize = 1000

// RetentionJob removes sessions and events inserted more than the retention
// period ago.
type RetentionJob struct {
	dbManager  cartridge.DBManager
	logger     *slog.Logger
	retention  time.Duration
	batchPause time.Duration
	now        func() time.Time
}

// RetentionResult reports how many rows each table lost in one sweep.
type RetentionResult struct {
	Cutoff          time.Time
	SessionsDeleted int64
	EventsDeleted   int64
}

func NewRetentionJob(dbManager cartridge.DBManager, logger *slog.Logger, retention time.Duration) *RetentionJob {
	return &RetentionJob{
		dbManager:  dbManager,
		logger:     logger,
		retention:  retention,
		batchPause: 100 * time.Millisecond,
		now:        time.Now,
	}
}

// Run deletes expired rows from both tables in batches. The outcome is kept
// for LastSweep whether or not the sweep succeeded.
func (j *RetentionJob) Run(ctx context.Context) (*RetentionResult, error) {
	result, err := j.sweep(ctx)
	recordSweep(j.now(), result, err)
	return result, err
}

func (j *RetentionJob) sweep(ctx context.Context) (*RetentionResult, error) {
	db := j.dbManager.GetConnection()
	if db == nil {
		return nil, &events.StorageError{Op: "retention sweep", Err: gorm.ErrInvalidDB}
	}

	result := &RetentionResult{Cutoff: j.now().UTC().Add(-j.retention)}

	j.logger.Info("Starting retention sweep",
		slog.Duration("retention", j.retention),
		slog.Time("cutoff", result.Cutoff))

	var err error
	result.SessionsDeleted, err = j.deleteExpired(ctx, db, "sessions", &events.Session{}, result.Cutoff)
	if err != nil {
		return result, err
	}
	result.EventsDeleted, err = j.deleteExpired(ctx, db, "events", &events.Event{}, result.Cutoff)
	if err != nil {
		return result, err
	}

	j.logger.Info("Retention sweep finished",
		slog.Int64("sessions_deleted", result.SessionsDeleted),
		slog.Int64("events_deleted", result.EventsDeleted))

	return result, nil
}

func (j *RetentionJob) deleteExpired(ctx context.Context, db *gorm.DB, table string, model any, cutoff time.Time) (int64, error) {
	totalDeleted := int64(0)

	for {
		if err := ctx.Err(); err != nil {
			return totalDeleted, err
		}

		var deleted int64
		err := sqlite.PerformWrite(j.logger, db.WithContext(ctx), func(tx *gorm.DB) error {
			// SQLite DELETE has no LIMIT by default, so batch through a subquery.
			result := tx.Where("id IN (?)",
				tx.Model(model).Select("id").Where("created_at < ?", cutoff).Limit(retentionBatchSize),
			).Delete(model)
			deleted = result.RowsAffected
			return result.Error
		})
		if err != nil {
			j.logger.Error("Failed to delete expired records",
				slog.String("table", table),
				slog.Any("error", err),
				slog.Int64("deleted_so_far", totalDeleted))
			return totalDeleted, &events.StorageError{Op: "delete expired " + table, Err: err}
		}

		totalDeleted += deleted
		metrics.RetentionDeletedTotal.WithLabelValues(table).Add(float64(deleted))

		if deleted < retentionBatchSize {
			break
		}

		select {
		case <-time.After(j.batchPause):
		case <-ctx.Done():
			return totalDeleted, ctx.Err()
		}
	}

	return totalDeleted, nil
}
