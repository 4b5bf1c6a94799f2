package events

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// FindSessions returns every session whose timestamp lies in the inclusive
// range, oldest first.
func FindSessions(ctx context.Context, db *gorm.DB, tf *timeframe.TimeFrame) ([]Session, error) {
	ctx, cancel := StoreContext(ctx)
	defer cancel()

	var sessions []Session
	err := db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", tf.From, tf.To).
		Order("timestamp ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, &StorageError{Op: "find sessions", Err: err}
	}
	return sessions, nil
}

// FindEvents returns every event whose timestamp lies in the inclusive
// range, oldest first.
func FindEvents(ctx context.Context, db *gorm.DB, tf *timeframe.TimeFrame) ([]Event, error) {
	ctx, cancel := StoreContext(ctx)
	defer cancel()

	var events []Event
	err := db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", tf.From, tf.To).
		Order("timestamp ASC").
		Find(&events).Error
	if err != nil {
		return nil, &StorageError{Op: "find events", Err: err}
	}
	return events, nil
}

// CountSessions returns the total number of stored sessions.
func CountSessions(ctx context.Context, db *gorm.DB) (int64, error) {
	ctx, cancel := StoreContext(ctx)
	defer cancel()

	var count int64
	if err := db.WithContext(ctx).Model(&Session{}).Count(&count).Error; err != nil {
		return 0, &StorageError{Op: "count sessions", Err: err}
	}
	return count, nil
}

// CountEvents returns the total number of stored events.
func CountEvents(ctx context.Context, db *gorm.DB) (int64, error) {
	ctx, cancel := StoreContext(ctx)
	defer cancel()

	var count int64
	if err := db.WithContext(ctx).Model(&Event{}).Count(&count).Error; err != nil {
		return 0, &StorageError{Op: "count events", Err: err}
	}
	return count, nil
}

// LogRangeQuery logs the bounds of a range read at debug level.
func LogRangeQuery(logger *slog.Logger, name string, tf *timeframe.TimeFrame) {
	logger.Debug("Running range query",
		slog.String("query", name),
		slog.Time("from", tf.From),
		slog.Time("to", tf.To))
}
