package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sitepulse/internal/analytics"
	"sitepulse/internal/jobs"
	"sitepulse/internal/seeder"
	"sitepulse/internal/timeframe"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the sessions and events tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dbManager, _, err := openStore()
		if err != nil {
			return err
		}
		defer dbManager.Close()

		if err := dbManager.MigrateDatabase(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed")
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete records older than the retention period now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dbManager, logger, err := openStore()
		if err != nil {
			return err
		}
		defer dbManager.Close()

		result, err := jobs.NewScheduler(dbManager, logger, cfg).RunRetentionNow(cmd.Context())
		if err != nil {
			return fmt.Errorf("retention sweep failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sessions and %d events created before %s\n",
			result.SessionsDeleted, result.EventsDeleted, result.Cutoff.Format("2006-01-02T15:04:05Z07:00"))
		return nil
	},
}

var (
	statsStart string
	statsEnd   string
	statsRange string
	statsDaily bool
)

type statsSummary struct {
	TotalPageViews    int                     `json:"totalPageViews"`
	TotalEvents       int                     `json:"totalEvents"`
	UniqueVisitors    int                     `json:"uniqueVisitors"`
	SessionsByCountry analytics.CountryCounts `json:"sessionsByCountry"`
	Daily             []analytics.DailyStat   `json:"daily,omitempty"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the report summary for a time range as JSON",
	Example: `  sitectl stats --start 2024-01-01 --end 2024-01-31
  sitectl stats --range last_7_days --daily`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tf, err := analytics.ResolveTimeFrame(timeframe.NewTimeFrameParser(), analytics.RangeParams{
			StartDate: statsStart,
			EndDate:   statsEnd,
			Range:     statsRange,
		})
		if err != nil {
			return err
		}

		_, dbManager, logger, err := openStore()
		if err != nil {
			return err
		}
		defer dbManager.Close()

		db := dbManager.GetConnection()
		report, err := analytics.GetAnalytics(cmd.Context(), db, logger, tf)
		if err != nil {
			return err
		}

		summary := statsSummary{
			TotalPageViews:    report.TotalPageViews,
			TotalEvents:       report.TotalEvents,
			UniqueVisitors:    report.UniqueVisitors,
			SessionsByCountry: report.SessionsByCountry,
		}
		if statsDaily {
			if summary.Daily, err = analytics.GetDailyStats(cmd.Context(), db, logger, tf); err != nil {
				return err
			}
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	},
}

var seedSessions int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store demo portfolio traffic",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dbManager, logger, err := openStore()
		if err != nil {
			return err
		}
		defer dbManager.Close()

		if cfg.IsProduction() {
			return fmt.Errorf("refusing to seed a production store")
		}

		result, err := seeder.NewSeeder(dbManager, logger, seedSessions).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d sessions and %d events\n", result.Sessions, result.Events)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsStart, "start", "", "range start (ISO-8601 or epoch milliseconds)")
	statsCmd.Flags().StringVar(&statsEnd, "end", "", "range end (ISO-8601 or epoch milliseconds)")
	statsCmd.Flags().StringVar(&statsRange, "range", "", "preset range: last_24h, last_7_days, last_30_days, this_week, this_month")
	statsCmd.Flags().BoolVar(&statsDaily, "daily", false, "include per-day statistics")

	seedCmd.Flags().IntVar(&seedSessions, "sessions", 200, "number of browser sessions to generate")
}
