package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/config"
	"sitepulse/internal/events"
	"sitepulse/internal/metrics"
	"sitepulse/internal/visitors"
)

const (
	errRecordSession = "Error recording session"
	errRecordEvent   = "Error recording event"

	sessionIDHeader = "X-Session-Id"
)

// RecordSessionHandler stores one page view.
func RecordSessionHandler(ctx *cartridge.Context) error {
	var input events.SessionInput
	if err := ctx.BodyParser(&input); err != nil {
		ctx.Logger.Warn("Failed to parse session body", slog.Any("error", err))
		metrics.IngestedRecordsTotal.WithLabelValues("session", metrics.StatusInvalid).Inc()
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": errRecordSession})
	}

	input.IPAddress = getClientIP(ctx.Ctx)
	if strings.TrimSpace(input.SessionID) == "" {
		input.SessionID = existingSessionID(ctx.Ctx)
	}
	if input.UserAgent == "" {
		input.UserAgent = ctx.Get("User-Agent")
	}

	session, err := events.RecordSession(ctx.UserContext(), ctx.DBManager, ctx.Logger, &input)
	if err != nil {
		logIngestFailure(ctx.Logger, "session", err)
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": errRecordSession})
	}

	metrics.IngestedRecordsTotal.WithLabelValues("session", metrics.StatusCreated).Inc()
	return ctx.Status(http.StatusCreated).JSON(session)
}

// RecordEventHandler stores one named event.
func RecordEventHandler(ctx *cartridge.Context) error {
	var input events.EventInput
	if err := ctx.BodyParser(&input); err != nil {
		ctx.Logger.Warn("Failed to parse event body", slog.Any("error", err))
		metrics.IngestedRecordsTotal.WithLabelValues("event", metrics.StatusInvalid).Inc()
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": errRecordEvent})
	}

	if strings.TrimSpace(input.SessionID) == "" {
		input.SessionID = existingSessionID(ctx.Ctx)
	}

	event, err := events.RecordEvent(ctx.UserContext(), ctx.DBManager, ctx.Logger, &input)
	if err != nil {
		logIngestFailure(ctx.Logger, "event", err)
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": errRecordEvent})
	}

	metrics.IngestedRecordsTotal.WithLabelValues("event", metrics.StatusCreated).Inc()
	return ctx.Status(http.StatusCreated).JSON(event)
}

// SessionIDHandler hands out the token a browser tab should attach to its
// records. The cookie has no expiry, so it ends with the browser session.
func SessionIDHandler(ctx *cartridge.Context) error {
	sessionID := visitors.ResolveSessionID(existingSessionID(ctx.Ctx), time.Now())

	ctx.Cookie(&fiber.Cookie{
		Name:     config.GetConfig().SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HTTPOnly: false,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   config.GetConfig().IsProduction(),
	})

	return ctx.JSON(fiber.Map{"sessionId": sessionID})
}

func existingSessionID(c *fiber.Ctx) string {
	if id := strings.TrimSpace(c.Get(sessionIDHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(c.Cookies(config.GetConfig().SessionCookieName))
}

func logIngestFailure(logger *slog.Logger, kind string, err error) {
	var validationErr *events.ValidationError
	if errors.As(err, &validationErr) {
		metrics.IngestedRecordsTotal.WithLabelValues(kind, metrics.StatusInvalid).Inc()
		logger.Warn("Rejected "+kind,
			slog.String("field", validationErr.Field),
			slog.String("reason", validationErr.Reason))
		return
	}

	metrics.IngestedRecordsTotal.WithLabelValues(kind, metrics.StatusError).Inc()
	logger.Error("Failed to record "+kind, slog.Any("error", err))
}
