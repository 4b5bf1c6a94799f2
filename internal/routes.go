package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "sitepulse/api/v1"
	"sitepulse/internal/config"
	"sitepulse/internal/http"
)

const analyticsPrefix = "/api/analytics"

// publicCORSConfig is shared by every analytics endpoint. The portfolio pages
// and the dashboard live on other origins.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Referrer, User-Agent, X-Session-Id",
}

func noContent(ctx *cartridge.Context) error {
	return ctx.SendStatus(fiber.StatusNoContent)
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Rate limiting only applies in production; in development and test it
	// would interfere with local traffic.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 70 requests per minute per IP for ingestion
	ingestRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Ingestion is called by page scripts on other sites and by server-side
	// beacons without fetch metadata, so Sec-Fetch-Site is not enforced.
	ingestConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		WriteConcurrency:   false,
		CustomMiddleware:   []fiber.Handler{ingestRateLimiter},
		CORSConfig:         publicCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
	}

	queryConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         publicCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
	}

	systemConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
	}

	// === SYSTEM ROUTES ===
	srv.Get("/_health", http.HealthIndexAction, systemConfig)
	srv.Head("/_health", http.HealthIndexAction, systemConfig)
	srv.Get("/metrics", http.MetricsAction, systemConfig)

	// === INGESTION ROUTES ===
	srv.Post(analyticsPrefix+"/session", v1.RecordSessionHandler, ingestConfig)
	srv.Options(analyticsPrefix+"/session", noContent, ingestConfig)
	srv.Post(analyticsPrefix+"/event", v1.RecordEventHandler, ingestConfig)
	srv.Options(analyticsPrefix+"/event", noContent, ingestConfig)
	srv.Get(analyticsPrefix+"/session-id", v1.SessionIDHandler, ingestConfig)
	srv.Options(analyticsPrefix+"/session-id", noContent, ingestConfig)

	// === QUERY ROUTES ===
	srv.Get(analyticsPrefix+"/data", http.AnalyticsDataAction, queryConfig)
	srv.Options(analyticsPrefix+"/data", noContent, queryConfig)
	srv.Get(analyticsPrefix+"/daily-stats", http.DailyStatsAction, queryConfig)
	srv.Options(analyticsPrefix+"/daily-stats", noContent, queryConfig)
	srv.Get(analyticsPrefix+"/overview", http.OverviewAction, queryConfig)
	srv.Options(analyticsPrefix+"/overview", noContent, queryConfig)
}
