package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/metrics"
	"sitepulse/internal/pkg/async"
	"sitepulse/internal/timeframe"
)

// UnknownCountry labels sessions stored without a country name.
const UnknownCountry = "Unknown"

// MetricCountResult is one row of a ranked breakdown.
type MetricCountResult struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// CountryCount is the number of sessions attributed to one country.
type CountryCount struct {
	Country string
	Count   int64
}

// CountryCounts serializes as a JSON object keyed by country, keeping the
// descending count order of the slice.
type CountryCounts []CountryCount

func (c CountryCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Country)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", entry.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Total returns the sum of all country counts.
func (c CountryCounts) Total() int64 {
	var total int64
	for _, entry := range c {
		total += entry.Count
	}
	return total
}

// Report is the dashboard payload for one range.
type Report struct {
	TotalPageViews    int              `json:"totalPageViews"`
	TotalEvents       int              `json:"totalEvents"`
	UniqueVisitors    int              `json:"uniqueVisitors"`
	SessionsByCountry CountryCounts    `json:"sessionsByCountry"`
	Sessions          []events.Session `json:"sessions"`
	Events            []events.Event   `json:"events"`
}

// GetAnalytics loads the sessions and events of the range and summarizes
// them. The two reads run in parallel.
func GetAnalytics(ctx context.Context, db *gorm.DB, logger *slog.Logger, tf *timeframe.TimeFrame) (*Report, error) {
	defer metrics.ObserveQuery("analytics", time.Now())
	return loadReport(ctx, db, logger, tf)
}

func loadReport(ctx context.Context, db *gorm.DB, logger *slog.Logger, tf *timeframe.TimeFrame) (*Report, error) {
	events.LogRangeQuery(logger, "analytics", tf)

	tasks := []async.Task{
		{
			Name: "sessions",
			Execute: func(ctx context.Context) (interface{}, error) {
				return events.FindSessions(ctx, db, tf)
			},
		},
		{
			Name: "events",
			Execute: func(ctx context.Context) (interface{}, error) {
				return events.FindEvents(ctx, db, tf)
			},
		},
	}

	pool := async.NewPool(len(tasks))
	results := pool.Execute(ctx, tasks)
	if err := async.FirstError(tasks, results); err != nil {
		logger.Error("Error fetching analytics data", slog.Any("error", err))
		return nil, asStorageError("fetch analytics", err)
	}

	sessions := results["sessions"].Data.([]events.Session)
	evts := results["events"].Data.([]events.Event)

	if sessions == nil {
		sessions = []events.Session{}
	}
	if evts == nil {
		evts = []events.Event{}
	}

	return &Report{
		TotalPageViews:    len(sessions),
		TotalEvents:       len(evts),
		UniqueVisitors:    countUniqueVisitors(sessions),
		SessionsByCountry: CountSessionsByCountry(sessions),
		Sessions:          sessions,
		Events:            evts,
	}, nil
}

// CountSessionsByCountry groups sessions by country name. Sessions without a
// country name are counted under UnknownCountry. Results are ordered by
// count, then by name, and always sum to len(sessions).
func CountSessionsByCountry(sessions []events.Session) CountryCounts {
	counts := make(map[string]int64)
	for _, s := range sessions {
		country := strings.TrimSpace(s.Country())
		if country == "" {
			country = UnknownCountry
		}
		counts[country]++
	}

	results := make(CountryCounts, 0, len(counts))
	for country, count := range counts {
		results = append(results, CountryCount{Country: country, Count: count})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Country < results[j].Country
	})
	return results
}

func countUniqueVisitors(sessions []events.Session) int {
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		seen[s.SessionID] = struct{}{}
	}
	return len(seen)
}

// asStorageError keeps an existing StorageError and wraps anything else.
func asStorageError(op string, err error) error {
	var storageErr *events.StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	return &events.StorageError{Op: op, Err: err}
}
