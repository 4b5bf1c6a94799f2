package geoip

import (
	"errors"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sitepulse/internal/config"
)

var (
	geoDB  *geoip2.Reader
	once   sync.Once
	mu     sync.RWMutex
	logger *slog.Logger

	countries     *gountries.Query
	countriesOnce sync.Once
)

// Location is the subset of a GeoLite2 record stored with a session.
type Location struct {
	CountryName string
	CountryCode string
	CityName    string
	Latitude    float64
	Longitude   float64
	TimeZone    string
	IsProxy     bool
}

// InitLogger sets the logger for the geoip package.
func InitLogger(l *slog.Logger) {
	logger = l
}

// InitGeoDB opens the configured GeoLite2 database.
// Returns nil if the database is not configured or not found (GeoIP is optional).
func InitGeoDB() *geoip2.Reader {
	cfg := config.GetConfig()
	if cfg.GeoDBPath == "" {
		if logger != nil {
			logger.Debug("GeoIP database path not configured - geo enrichment disabled")
		}
		return nil
	}

	if _, err := os.Stat(cfg.GeoDBPath); os.IsNotExist(err) {
		if logger != nil {
			logger.Info("GeoLite2 database not found - geo enrichment disabled",
				slog.String("path", cfg.GeoDBPath),
				slog.String("hint", "Download from https://www.maxmind.com/en/geolite2/signup"))
		}
		return nil
	} else if err != nil {
		if logger != nil {
			logger.Warn("Error checking GeoLite2 database file",
				slog.String("path", cfg.GeoDBPath),
				slog.Any("error", err))
		}
		return nil
	}

	db, err := geoip2.Open(cfg.GeoDBPath)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to open GeoLite2 database",
				slog.String("path", cfg.GeoDBPath),
				slog.Any("error", err))
		}
		return nil
	}

	if logger != nil {
		logger.Info("GeoLite2 database initialized",
			slog.String("path", cfg.GeoDBPath),
			slog.String("db_type", db.Metadata().DatabaseType))
	}
	return db
}

// GetGeoDB returns the GeoLite2 database reader, initializing it if necessary.
func GetGeoDB() *geoip2.Reader {
	once.Do(func() {
		mu.Lock()
		geoDB = InitGeoDB()
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return geoDB
}

// Close releases the database reader if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if geoDB != nil {
		geoDB.Close()
		geoDB = nil
	}
}

// Lookup resolves an IP address. It returns nil when no database is loaded,
// the address is invalid, or the database has no country for it.
func Lookup(ipAddress string) *Location {
	db := GetGeoDB()
	if db == nil {
		return nil
	}

	ip := net.ParseIP(strings.TrimSpace(ipAddress))
	if ip == nil {
		return nil
	}

	// City databases carry coordinates and time zone; country databases only
	// answer the Country query.
	record, err := db.City(ip)
	if err == nil {
		if record.Country.IsoCode == "" {
			return nil
		}
		return &Location{
			CountryName: countryNameFromRecord(record.Country.Names, record.Country.IsoCode),
			CountryCode: record.Country.IsoCode,
			CityName:    record.City.Names["en"],
			Latitude:    record.Location.Latitude,
			Longitude:   record.Location.Longitude,
			TimeZone:    record.Location.TimeZone,
			IsProxy:     record.Traits.IsAnonymousProxy,
		}
	}

	var invalidMethod geoip2.InvalidMethodError
	if !errors.As(err, &invalidMethod) {
		if logger != nil {
			logger.Debug("City lookup failed", slog.String("ip_address", ipAddress), slog.Any("error", err))
		}
		return nil
	}

	country, err := db.Country(ip)
	if err != nil || country.Country.IsoCode == "" {
		return nil
	}
	return &Location{
		CountryName: countryNameFromRecord(country.Country.Names, country.Country.IsoCode),
		CountryCode: country.Country.IsoCode,
		IsProxy:     country.Traits.IsAnonymousProxy,
	}
}

func countryNameFromRecord(names map[string]string, isoCode string) string {
	if name := names["en"]; name != "" {
		return name
	}
	return CountryName(isoCode)
}

// CountryName returns the common English name for an ISO 3166 alpha-2 or
// alpha-3 code. Unknown codes come back upper-cased.
func CountryName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}

	countriesOnce.Do(func() {
		countries = gountries.New()
	})

	country, err := countries.FindCountryByAlpha(code)
	if err != nil {
		return cases.Upper(language.AmericanEnglish).String(code)
	}
	return country.Name.Common
}
