// internal/config/config.go
//
// Process configuration for the Deal Detective server.
// Values come from the environment, optionally seeded from a .env file in
// development. Every field has a usable default; a missing geocoding key only
// disables coordinates.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"3001"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	Catalog Catalog
	Geocode Geocode
}

type Catalog struct {
	File string `env:"CATALOG_FILE" envDefault:"sample_properties.csv"`
}

type Geocode struct {
	APIKey   string        `env:"GOOGLE_MAPS_API_KEY"`
	BaseURL  string        `env:"GEOCODE_BASE_URL" envDefault:"https://maps.googleapis.com/maps/api/geocode/json"`
	Timeout  time.Duration `env:"GEOCODE_TIMEOUT" envDefault:"5s"`
	CacheTTL time.Duration `env:"GEOCODE_CACHE_TTL" envDefault:"24h"`
	CacheDB  string        `env:"GEOCODE_CACHE_DB"`
}

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}
	return cfg, nil
}
