package analytics

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/metrics"
	"sitepulse/internal/timeframe"
)

// Overview holds the dashboard rollups computed over one range.
type Overview struct {
	TimeSeries       []DateStat          `json:"timeSeries"`
	TrafficSources   []MetricCountResult `json:"trafficSources"`
	KeyEvents        []MetricCountResult `json:"keyEvents"`
	TopPages         []MetricCountResult `json:"topPages"`
	TopEvents        []MetricCountResult `json:"topEvents"`
	Browsers         []MetricCountResult `json:"browsers"`
	OperatingSystems []MetricCountResult `json:"operatingSystems"`
}

// BuildOverview computes every rollup from already loaded records.
func BuildOverview(sessions []events.Session, evts []events.Event, ownHost string) *Overview {
	browsers, operatingSystems := Devices(sessions)
	return &Overview{
		TimeSeries:       SessionTimeSeries(sessions),
		TrafficSources:   TrafficSources(sessions, ownHost),
		KeyEvents:        KeyEvents(sessions, evts),
		TopPages:         TopPages(sessions),
		TopEvents:        TopEvents(evts),
		Browsers:         browsers,
		OperatingSystems: operatingSystems,
	}
}

// GetOverview loads the range and computes its rollups.
func GetOverview(ctx context.Context, db *gorm.DB, logger *slog.Logger, tf *timeframe.TimeFrame, ownHost string) (*Overview, error) {
	defer metrics.ObserveQuery("overview", time.Now())

	report, err := loadReport(ctx, db, logger, tf)
	if err != nil {
		return nil, err
	}
	return BuildOverview(report.Sessions, report.Events, ownHost), nil
}
