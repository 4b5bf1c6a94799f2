package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeoLocation is the visitor position resolved by a geo-IP lookup.
type GeoLocation struct {
	CountryName string  `json:"countryName" gorm:"index"`
	CountryCode string  `json:"countryCode"`
	CityName    string  `json:"cityName" gorm:"index"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	TimeZone    string  `json:"timeZone"`
	IsProxy     bool    `json:"isProxy"`
}

// IsZero reports whether no geo field carries a value.
func (g *GeoLocation) IsZero() bool {
	return g == nil || *g == GeoLocation{}
}

// Viewport is the browser window size at the time of the page view.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Session is one page view. The name follows the dashboard vocabulary:
// every row is a single visit of a page within a browser session.
type Session struct {
	ID          string       `json:"id" gorm:"primaryKey;size:36"`
	SessionID   string       `json:"sessionId" gorm:"index;not null"`
	Timestamp   time.Time    `json:"timestamp" gorm:"index;not null"`
	Page        string       `json:"page" gorm:"not null"`
	Referrer    string       `json:"referrer,omitempty"`
	UserAgent   string       `json:"userAgent,omitempty"`
	GeoLocation *GeoLocation `json:"geoLocation,omitempty" gorm:"embedded;embeddedPrefix:geo_"`
	Viewport    *Viewport    `json:"viewport,omitempty" gorm:"embedded;embeddedPrefix:viewport_"`
	CreatedAt   time.Time    `json:"createdAt" gorm:"index"`
}

// Event is one named occurrence (click, download, submit) tied to a session token.
type Event struct {
	ID        string            `json:"id" gorm:"primaryKey;size:36"`
	SessionID string            `json:"sessionId" gorm:"index;not null"`
	Timestamp time.Time         `json:"timestamp" gorm:"index;not null"`
	EventName string            `json:"eventName" gorm:"index;not null"`
	Params    datatypes.JSONMap `json:"params" gorm:"type:json"`
	CreatedAt time.Time         `json:"createdAt" gorm:"index"`
}

// BeforeCreate assigns the server-side id.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// AfterFind drops the embedded structs that were stored empty, so a session
// recorded without geo data reads back without it.
func (s *Session) AfterFind(tx *gorm.DB) error {
	if s.GeoLocation.IsZero() {
		s.GeoLocation = nil
	}
	if s.Viewport != nil && *s.Viewport == (Viewport{}) {
		s.Viewport = nil
	}
	return nil
}

// BeforeCreate assigns the server-side id.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// AfterFind normalizes params read from the store. A missing column becomes
// an empty object, and numbers decode as float64 the way request bodies do,
// instead of the json.Number values the JSON column scanner produces.
func (e *Event) AfterFind(tx *gorm.DB) error {
	if len(e.Params) == 0 {
		e.Params = datatypes.JSONMap{}
		return nil
	}

	raw, err := json.Marshal(e.Params)
	if err != nil {
		return err
	}
	params := map[string]any{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return err
	}
	e.Params = datatypes.JSONMap(params)
	return nil
}

// Country returns the country name of the session, or "" when unknown.
func (s *Session) Country() string {
	if s.GeoLocation == nil {
		return ""
	}
	return s.GeoLocation.CountryName
}
