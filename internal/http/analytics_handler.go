package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/analytics"
	"sitepulse/internal/config"
	"sitepulse/internal/timeframe"
)

const (
	errFetchAnalytics = "Error fetching analytics data"
	errFetchDaily     = "Error fetching daily statistics"
	errFetchOverview  = "Error fetching analytics overview"
)

// rangeFromQuery resolves startDate/endDate (or a range preset) from the
// query string.
func rangeFromQuery(ctx *cartridge.Context) (*timeframe.TimeFrame, error) {
	return analytics.ResolveTimeFrame(timeframe.NewTimeFrameParser(), analytics.RangeParams{
		StartDate: ctx.Query("startDate"),
		EndDate:   ctx.Query("endDate"),
		Range:     ctx.Query("range"),
	})
}

// AnalyticsDataAction answers the summary report for a time range.
func AnalyticsDataAction(ctx *cartridge.Context) error {
	tf, err := rangeFromQuery(ctx)
	if err != nil {
		ctx.Logger.Warn("Invalid analytics range", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": errFetchAnalytics})
	}

	report, err := analytics.GetAnalytics(ctx.UserContext(), ctx.DBManager.GetConnection(), ctx.Logger, tf)
	if err != nil {
		ctx.Logger.Error("Failed to fetch analytics data", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": errFetchAnalytics})
	}

	return ctx.JSON(report)
}

// DailyStatsAction answers per-day session statistics for a time range.
func DailyStatsAction(ctx *cartridge.Context) error {
	tf, err := rangeFromQuery(ctx)
	if err != nil {
		ctx.Logger.Warn("Invalid daily stats range", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": errFetchDaily})
	}

	stats, err := analytics.GetDailyStats(ctx.UserContext(), ctx.DBManager.GetConnection(), ctx.Logger, tf)
	if err != nil {
		ctx.Logger.Error("Failed to fetch daily statistics", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": errFetchDaily})
	}

	return ctx.JSON(stats)
}

// OverviewAction answers the dashboard rollups for a time range. The host
// parameter overrides the configured site hostname for traffic sources.
func OverviewAction(ctx *cartridge.Context) error {
	tf, err := rangeFromQuery(ctx)
	if err != nil {
		ctx.Logger.Warn("Invalid overview range", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": errFetchOverview})
	}

	host := strings.TrimSpace(ctx.Query("host"))
	if host == "" {
		host = config.GetConfig().SiteHostname
	}

	overview, err := analytics.GetOverview(ctx.UserContext(), ctx.DBManager.GetConnection(), ctx.Logger, tf, host)
	if err != nil {
		ctx.Logger.Error("Failed to fetch analytics overview", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": errFetchOverview})
	}

	return ctx.JSON(overview)
}
