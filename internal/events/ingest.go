package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sitepulse/internal/config"
	"sitepulse/internal/pkg/geoip"
	"sitepulse/internal/timeframe"
)

// SessionInput is the body of a page-view submission.
type SessionInput struct {
	SessionID   string       `json:"sessionId"`
	Timestamp   any          `json:"timestamp"`
	Page        string       `json:"page"`
	Referrer    string       `json:"referrer"`
	UserAgent   string       `json:"userAgent"`
	GeoLocation *GeoLocation `json:"geoLocation"`
	Viewport    *Viewport    `json:"viewport"`

	// IPAddress is the client address, used for geo lookup only. Never stored.
	IPAddress string `json:"-"`
}

// EventInput is the body of an event submission.
type EventInput struct {
	SessionID string         `json:"sessionId"`
	Timestamp any            `json:"timestamp"`
	EventName string         `json:"eventName"`
	Params    map[string]any `json:"params"`
}

// RecordSession validates and stores one page view. Duplicate submissions
// are stored as separate rows.
func RecordSession(ctx context.Context, dbManager cartridge.DBManager, logger *slog.Logger, input *SessionInput) (*Session, error) {
	if input == nil {
		return nil, NewValidationError("body", "missing")
	}
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, NewValidationError("sessionId", "required")
	}
	timestamp, err := parseTimestamp(input.Timestamp)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Page) == "" {
		return nil, NewValidationError("page", "required")
	}

	session := &Session{
		SessionID:   input.SessionID,
		Timestamp:   timestamp,
		Page:        input.Page,
		Referrer:    input.Referrer,
		UserAgent:   input.UserAgent,
		GeoLocation: resolveGeoLocation(logger, input.GeoLocation, input.IPAddress),
		Viewport:    input.Viewport,
		CreatedAt:   time.Now().UTC(),
	}

	if err := insertRecord(ctx, dbManager, logger, "insert session", session); err != nil {
		return nil, err
	}

	logger.Debug("Recorded session",
		slog.String("id", session.ID),
		slog.String("sessionId", session.SessionID),
		slog.String("page", session.Page))
	return session, nil
}

// RecordEvent validates and stores one named event. Params are kept verbatim.
func RecordEvent(ctx context.Context, dbManager cartridge.DBManager, logger *slog.Logger, input *EventInput) (*Event, error) {
	if input == nil {
		return nil, NewValidationError("body", "missing")
	}
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, NewValidationError("sessionId", "required")
	}
	timestamp, err := parseTimestamp(input.Timestamp)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.EventName) == "" {
		return nil, NewValidationError("eventName", "required")
	}

	params := datatypes.JSONMap(input.Params)
	if params == nil {
		params = datatypes.JSONMap{}
	}

	event := &Event{
		SessionID: input.SessionID,
		Timestamp: timestamp,
		EventName: input.EventName,
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}

	if err := insertRecord(ctx, dbManager, logger, "insert event", event); err != nil {
		return nil, err
	}

	logger.Debug("Recorded event",
		slog.String("id", event.ID),
		slog.String("sessionId", event.SessionID),
		slog.String("eventName", event.EventName))
	return event, nil
}

func insertRecord(ctx context.Context, dbManager cartridge.DBManager, logger *slog.Logger, op string, record any) error {
	db := dbManager.GetConnection()
	if db == nil {
		return &StorageError{Op: op, Err: gorm.ErrInvalidDB}
	}

	ctx, cancel := StoreContext(ctx)
	defer cancel()

	err := sqlite.PerformWrite(logger, db.WithContext(ctx), func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
	if err != nil {
		logger.Error("Failed to store record", slog.String("op", op), slog.Any("error", err))
		return &StorageError{Op: op, Err: err}
	}
	return nil
}

// StoreContext bounds a store call by the configured timeout.
func StoreContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, config.GetConfig().StoreTimeout())
}

// parseTimestamp accepts an ISO-8601 string or epoch milliseconds, as sent by
// browsers, and returns the instant in UTC.
func parseTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, NewValidationError("timestamp", "required")
	case string:
		t, err := timeframe.ParseBound(v)
		if err != nil {
			if strings.TrimSpace(v) == "" {
				return time.Time{}, NewValidationError("timestamp", "required")
			}
			return time.Time{}, NewValidationError("timestamp", fmt.Sprintf("unparsable value %q", v))
		}
		return t, nil
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	case time.Time:
		if v.IsZero() {
			return time.Time{}, NewValidationError("timestamp", "required")
		}
		return v.UTC(), nil
	default:
		return time.Time{}, NewValidationError("timestamp", fmt.Sprintf("unsupported type %T", value))
	}
}

// resolveGeoLocation keeps client-supplied geo data, filling a missing country
// name from its ISO code. Without client data the IP is looked up instead.
func resolveGeoLocation(logger *slog.Logger, supplied *GeoLocation, ipAddress string) *GeoLocation {
	if !supplied.IsZero() {
		geo := *supplied
		if strings.TrimSpace(geo.CountryName) == "" && geo.CountryCode != "" {
			geo.CountryName = geoip.CountryName(geo.CountryCode)
		}
		return &geo
	}

	if ipAddress == "" {
		return nil
	}

	location := geoip.Lookup(ipAddress)
	if location == nil {
		return nil
	}

	logger.Debug("Resolved geo location from IP",
		slog.String("country", location.CountryCode),
		slog.String("city", location.CityName))

	return &GeoLocation{
		CountryName: location.CountryName,
		CountryCode: location.CountryCode,
		CityName:    location.CityName,
		Latitude:    location.Latitude,
		Longitude:   location.Longitude,
		TimeZone:    location.TimeZone,
		IsProxy:     location.IsProxy,
	}
}
