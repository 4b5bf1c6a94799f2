package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/metrics"
	"sitepulse/internal/timeframe"
)

// DailyStat summarizes the sessions of one UTC calendar day.
type DailyStat struct {
	Date           time.Time `json:"date"`
	PageViews      int64     `json:"pageViews"`
	UniqueVisitors int64     `json:"uniqueVisitors"`
	Countries      int64     `json:"countries"`
}

// GetDailyStats groups the sessions of the range by UTC day, oldest first.
// Days without sessions are omitted. Unlike GetAnalytics, sessions without a
// country name do not count towards Countries.
func GetDailyStats(ctx context.Context, db *gorm.DB, logger *slog.Logger, tf *timeframe.TimeFrame) ([]DailyStat, error) {
	defer metrics.ObserveQuery("daily_stats", time.Now())
	events.LogRangeQuery(logger, "daily_stats", tf)

	ctx, cancel := events.StoreContext(ctx)
	defer cancel()

	var rawResults []struct {
		Day            string
		PageViews      int64
		UniqueVisitors int64
		Countries      int64
	}

	// Timestamps are stored in UTC, so the leading date text is the UTC day.
	query := `
    SELECT
        substr(timestamp, 1, 10) AS day,
        COUNT(*) AS page_views,
        COUNT(DISTINCT session_id) AS unique_visitors,
        COUNT(DISTINCT NULLIF(geo_country_name, '')) AS countries
    FROM sessions
    WHERE timestamp >= ? AND timestamp <= ?
    GROUP BY day
    ORDER BY day ASC
    `

	err := db.WithContext(ctx).Raw(query, tf.From.UTC(), tf.To.UTC()).Scan(&rawResults).Error
	if err != nil {
		logger.Error("Error fetching daily statistics", slog.Any("error", err))
		return nil, &events.StorageError{Op: "daily stats", Err: err}
	}

	stats := make([]DailyStat, 0, len(rawResults))
	for _, r := range rawResults {
		day, err := time.ParseInLocation("2006-01-02", r.Day, time.UTC)
		if err != nil {
			return nil, &events.StorageError{Op: "daily stats", Err: fmt.Errorf("unexpected day %q: %w", r.Day, err)}
		}
		stats = append(stats, DailyStat{
			Date:           day,
			PageViews:      r.PageViews,
			UniqueVisitors: r.UniqueVisitors,
			Countries:      r.Countries,
		})
	}
	return stats, nil
}
