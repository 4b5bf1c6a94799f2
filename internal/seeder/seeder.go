package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/events"
	"sitepulse/internal/visitors"
)

// Seeder fills the store with demo portfolio traffic through the regular
// ingestion path, so seeded records pass the same validation as real ones.
type Seeder struct {
	DBManager    cartridge.DBManager
	Logger       *slog.Logger
	SessionCount int
	Days         int
}

// Result reports how many records a seeding run stored.
type Result struct {
	Sessions int
	Events   int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, sessionCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:    dbManager,
		Logger:       logger,
		SessionCount: sessionCount,
		Days:         30,
	}
}

// Page journeys through a portfolio site
var journeyTemplates = [][]string{
	{"/"},
	{"/", "/about"},
	{"/", "/projects", "/projects/analytics-dashboard"},
	{"/", "/resume"},
	{"/projects", "/projects/cli-toolkit", "/contact"},
	{"/", "/about", "/resume", "/contact"},
	{"/blog", "/blog/go-concurrency", "/"},
	{"/resume"},
}

var referrerPool = []string{
	"",
	"",
	"https://www.google.com/",
	"https://duckduckgo.com/",
	"https://www.linkedin.com/feed/",
	"https://t.co/abc123",
	"https://github.com/janedoe",
	"https://news.ycombinator.com/",
}

type goalEvent struct {
	name   string
	params map[string]any
}

var goalEvents = []goalEvent{
	{name: "contact_info_click", params: map[string]any{"type": "email"}},
	{name: "contact_info_click", params: map[string]any{"type": "linkedin"}},
	{name: "contact_info_click", params: map[string]any{"type": "github"}},
	{name: "contact_info_click", params: map[string]any{"type": "phone"}},
	{name: "resume_download", params: map[string]any{"format": "pdf"}},
	{name: "project_view", params: map[string]any{"project": "analytics-dashboard"}},
	{name: "contact_form_submit", params: map[string]any{"subject": "Job opportunity"}},
}

// Run stores SessionCount browser sessions spread over the last Days days.
// Each browser session contributes one page view per page of its journey
// and occasionally a goal event.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	s.Logger.Info("Starting database seeding...", slog.Int("sessions", s.SessionCount), slog.Int("days", s.Days))

	result := &Result{}
	for i := 0; i < s.SessionCount; i++ {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		baseTime := time.Now().UTC().Add(-time.Duration(rand.IntN(s.Days*24*60*60)) * time.Second)
		sessionID := visitors.NewSessionID(baseTime)
		journey := journeyTemplates[rand.IntN(len(journeyTemplates))]
		referrer := referrerPool[rand.IntN(len(referrerPool))]
		userAgent := gofakeit.UserAgent()
		geo := &events.GeoLocation{
			CountryName: gofakeit.Country(),
			CityName:    gofakeit.City(),
			Latitude:    gofakeit.Latitude(),
			Longitude:   gofakeit.Longitude(),
			TimeZone:    gofakeit.TimeZoneRegion(),
		}
		viewport := &events.Viewport{
			Width:  gofakeit.IntRange(360, 2560),
			Height: gofakeit.IntRange(640, 1440),
		}

		timestamp := baseTime
		for pageIndex, page := range journey {
			if pageIndex > 0 {
				timestamp = timestamp.Add(time.Duration(gofakeit.IntRange(10, 120)) * time.Second)
			}

			_, err := events.RecordSession(ctx, s.DBManager, s.Logger, &events.SessionInput{
				SessionID:   sessionID,
				Timestamp:   timestamp.Format(time.RFC3339Nano),
				Page:        page,
				Referrer:    referrer,
				UserAgent:   userAgent,
				GeoLocation: geo,
				Viewport:    viewport,
			})
			if err != nil {
				return result, fmt.Errorf("failed to seed session %s: %w", sessionID, err)
			}
			result.Sessions++

			// Only the landing page carries the external referrer
			referrer = ""
		}

		if rand.Float64() < 0.3 {
			goal := goalEvents[rand.IntN(len(goalEvents))]
			_, err := events.RecordEvent(ctx, s.DBManager, s.Logger, &events.EventInput{
				SessionID: sessionID,
				Timestamp: float64(timestamp.Add(5 * time.Second).UnixMilli()),
				EventName: goal.name,
				Params:    goal.params,
			})
			if err != nil {
				return result, fmt.Errorf("failed to seed event %s: %w", goal.name, err)
			}
			result.Events++
		}
	}

	s.Logger.Info("Seeding completed successfully",
		slog.Int("sessions", result.Sessions),
		slog.Int("events", result.Events),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}
