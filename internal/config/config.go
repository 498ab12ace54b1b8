package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

type AppConfig struct {
	Port string

	// Logging.
	LogLevel  string // debug, info, warn, error
	LogFormat string // json or text

	// HTTPTimeout bounds every provider request (0 = transport default).
	HTTPTimeout time.Duration

	// GeocoderLanguage is the BCP 47 tag sent to the geocoding endpoints.
	GeocoderLanguage string

	// Provider endpoints; empty values use the Open-Meteo defaults.
	GeocodingURL        string
	ReverseGeocodingURL string
	ForecastURL         string
	ArchiveURL          string

	// DefaultLocation is the fallback city. Empty disables the fallback tier.
	DefaultLocation string

	// RefreshInterval controls how often the tracked location is re-resolved.
	RefreshInterval time.Duration

	// In-memory store retention.
	StoreMaxHistory int           // max number of records per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of records (0 = unlimited)

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:                getenvDefault("PORT", "8080"),
		LogLevel:            getenvDefault("LOG_LEVEL", "info"),
		LogFormat:           getenvDefault("LOG_FORMAT", "json"),
		GeocodingURL:        os.Getenv("GEOCODING_URL"),
		ReverseGeocodingURL: os.Getenv("REVERSE_GEOCODING_URL"),
		ForecastURL:         os.Getenv("FORECAST_URL"),
		ArchiveURL:          os.Getenv("ARCHIVE_URL"),
		DefaultLocation:     os.Getenv("DEFAULT_LOCATION"),
		// Roughly 24h at 15-minute intervals.
		StoreMaxHistory: getenvInt("STORE_MAX_HISTORY", 96),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "0s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	tag, err := language.Parse(getenvDefault("GEOCODER_LANGUAGE", "es"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODER_LANGUAGE: %w", err)
	}
	base, _ := tag.Base()
	cfg.GeocoderLanguage = base.String()

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}
