package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/jobs"
	"sitepulse/internal/testsupport"
)

func TestMain(m *testing.M) {
	testsupport.UseTestEnvironment()
	os.Exit(m.Run())
}

func get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()

	dbManager, _ := testsupport.SetupTestDBManager(t)
	app := testsupport.CreateMinimalTestApp(t, dbManager.GetConnection())

	resp, err := app.Test(httptest.NewRequest("GET", path, nil), 30000)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func seed(t *testing.T) {
	t.Helper()

	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	day := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	testsupport.CreateSession(t, db, "a", "/", "Germany", day)
	testsupport.CreateSession(t, db, "a", "/resume", "Germany", day.Add(time.Minute))
	testsupport.CreateSession(t, db, "b", "/", "France", day.AddDate(0, 0, 1))
	testsupport.CreateEvent(t, db, "a", "resume_download", nil, day.Add(2*time.Minute))
}

func TestAnalyticsDataAction(t *testing.T) {
	t.Run("returns the report", func(t *testing.T) {
		seed(t)
		resp, body := get(t, "/api/analytics/data?startDate=2024-01-01T00:00:00Z&endDate=2024-01-31T23:59:59Z")
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		var report struct {
			TotalPageViews    int              `json:"totalPageViews"`
			TotalEvents       int              `json:"totalEvents"`
			UniqueVisitors    int              `json:"uniqueVisitors"`
			SessionsByCountry map[string]int64 `json:"sessionsByCountry"`
			Sessions          []map[string]any `json:"sessions"`
			Events            []map[string]any `json:"events"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &report))
		assert.Equal(t, 3, report.TotalPageViews)
		assert.Equal(t, 1, report.TotalEvents)
		assert.Equal(t, 2, report.UniqueVisitors)
		assert.Equal(t, map[string]int64{"Germany": 2, "France": 1}, report.SessionsByCountry)
		assert.Len(t, report.Sessions, 3)
		assert.Len(t, report.Events, 1)
		assert.True(t, strings.Index(body, `"Germany"`) < strings.Index(body, `"France"`))
	})

	t.Run("answers a fixed error for bad bounds", func(t *testing.T) {
		for _, path := range []string{
			"/api/analytics/data",
			"/api/analytics/data?startDate=2024-01-01",
			"/api/analytics/data?startDate=garbage&endDate=2024-01-02",
			"/api/analytics/data?startDate=2024-02-01&endDate=2024-01-01",
		} {
			resp, body := get(t, path)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
			assert.JSONEq(t, `{"error":"Error fetching analytics data"}`, body, path)
		}
	})
}

func TestDailyStatsAction(t *testing.T) {
	t.Run("groups sessions by day", func(t *testing.T) {
		seed(t)
		resp, body := get(t, "/api/analytics/daily-stats?startDate=2024-01-01&endDate=2024-01-03")
		require.Equal(t, http.StatusOK, resp.StatusCode, body)

		var stats []struct {
			Date           time.Time `json:"date"`
			PageViews      int64     `json:"pageViews"`
			UniqueVisitors int64     `json:"uniqueVisitors"`
			Countries      int64     `json:"countries"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &stats))
		require.Len(t, stats, 2)
		assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(stats[0].Date))
		assert.Equal(t, int64(2), stats[0].PageViews)
		assert.Equal(t, int64(1), stats[0].UniqueVisitors)
		assert.Equal(t, int64(1), stats[0].Countries)
	})

	t.Run("answers a fixed error for bad bounds", func(t *testing.T) {
		resp, body := get(t, "/api/analytics/daily-stats?endDate=2024-01-01")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Error fetching daily statistics"}`, body)
	})
}

func TestOverviewAction(t *testing.T) {
	seed(t)
	resp, body := get(t, "/api/analytics/overview?startDate=2024-01-01&endDate=2024-01-03&host=janedoe.dev")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var overview map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &overview))
	assert.Len(t, overview["timeSeries"], 2)
	assert.Equal(t, "Direct", overview["trafficSources"][0]["name"])
	assert.Len(t, overview["keyEvents"], 2)
	assert.Equal(t, "/", overview["topPages"][0]["name"])

	resp, body = get(t, "/api/analytics/overview")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Error fetching analytics overview"}`, body)
}

func TestHealthIndexAction(t *testing.T) {
	t.Run("reports table sizes", func(t *testing.T) {
		seed(t)

		resp, body := get(t, "/_health")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var health struct {
			Status   string `json:"status"`
			DBStatus string `json:"db_status"`
			Tables   map[string]struct {
				Status  string `json:"status"`
				Records int64  `json:"records"`
			} `json:"tables"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &health))
		assert.Equal(t, "ok", health.Status)
		assert.Equal(t, "ok", health.DBStatus)
		assert.Equal(t, "ok", health.Tables["sessions"].Status)
		assert.Equal(t, int64(3), health.Tables["sessions"].Records)
		assert.Equal(t, "ok", health.Tables["events"].Status)
		assert.Equal(t, int64(1), health.Tables["events"].Records)
	})

	t.Run("reports the last retention sweep", func(t *testing.T) {
		seed(t)

		dbManager, logger := testsupport.SetupTestDBManager(t)
		result, err := jobs.NewRetentionJob(dbManager, logger, 90*24*time.Hour).Run(context.Background())
		require.NoError(t, err)

		_, body := get(t, "/_health")

		var health struct {
			LastRetentionSweep *jobs.SweepStatus `json:"last_retention_sweep"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &health))
		require.NotNil(t, health.LastRetentionSweep)
		assert.True(t, result.Cutoff.Equal(health.LastRetentionSweep.Cutoff))
		assert.Equal(t, int64(0), health.LastRetentionSweep.SessionsDeleted)
		assert.Empty(t, health.LastRetentionSweep.Error)
	})

	t.Run("degraded when the store is closed", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		app := testsupport.CreateMinimalTestApp(t, db)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		resp, err := app.Test(httptest.NewRequest("GET", "/_health", nil), 30000)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var health map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Equal(t, "degraded", health["status"])
		assert.Equal(t, "error", health["db_status"])
	})
}

func TestMetricsAction(t *testing.T) {
	resp, body := get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "go_goroutines")
}
