package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rutaopt/internal/opt"
)

// Depot describes the fixed starting point of every route.
type Depot struct {
	ID   string  `yaml:"id"`
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// Config is the full service configuration. Values come from an optional
// YAML file overridden by environment variables.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	Depot Depot `yaml:"depot"`

	// RouteTimeLimitMin caps each route's estimated time in minutes.
	RouteTimeLimitMin float64 `yaml:"route_time_limit_min"`
	// MinutesPerKm converts route distance to estimated travel time.
	MinutesPerKm float64 `yaml:"minutes_per_km"`
	// SearchTimeLimitSec bounds the exact-search wall clock in seconds.
	SearchTimeLimitSec float64 `yaml:"search_time_limit_sec"`
	// MaxExactGroup caps the group size the exact TSP accepts.
	MaxExactGroup int `yaml:"max_exact_group"`

	// Operating cost constants feeding the statistics endpoint.
	CostPerKm        float64 `yaml:"cost_per_km"`
	CostPerHour      float64 `yaml:"cost_per_hour"`
	VehicleFixedCost float64 `yaml:"vehicle_fixed_cost"`

	// RateRPS / RateBurst shape the API rate limiter.
	RateRPS   float64 `yaml:"rate_rps"`
	RateBurst int     `yaml:"rate_burst"`

	// WebhookURL, when set, receives a signed POST for every finished
	// optimization run.
	WebhookURL         string `yaml:"webhook_url"`
	WebhookSecret      string `yaml:"webhook_secret"`
	WebhookMaxAttempts int    `yaml:"webhook_max_attempts"`
}

// Default returns the built-in configuration: the Lima central depot and
// the standard operational limits.
func Default() Config {
	return Config{
		Port: "8080",
		Depot: Depot{
			ID:   "deposito",
			Name: "Depósito Central",
			Lat:  -12.0464,
			Lon:  -77.0428,
		},
		RouteTimeLimitMin:  480,
		MinutesPerKm:       2,
		SearchTimeLimitSec: 300,
		MaxExactGroup:      16,
		CostPerKm:          0.5,
		CostPerHour:        25,
		VehicleFixedCost:   100,
		RateRPS:            50,
		RateBurst:          100,
		WebhookMaxAttempts: 10,
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty and the file exists), then environment variables. A
// .env file in the working directory is loaded first if present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v, ok := envFloat("DEPOT_LAT"); ok {
		c.Depot.Lat = v
	}
	if v, ok := envFloat("DEPOT_LON"); ok {
		c.Depot.Lon = v
	}
	if v, ok := envFloat("ROUTE_TIME_LIMIT_MIN"); ok {
		c.RouteTimeLimitMin = v
	}
	if v, ok := envFloat("MINUTES_PER_KM"); ok {
		c.MinutesPerKm = v
	}
	if v, ok := envFloat("SEARCH_TIME_LIMIT_SEC"); ok {
		c.SearchTimeLimitSec = v
	}
	if v, ok := envInt("MAX_EXACT_GROUP"); ok {
		c.MaxExactGroup = v
	}
	if v, ok := envFloat("RATE_RPS"); ok {
		c.RateRPS = v
	}
	if v, ok := envInt("RATE_BURST"); ok {
		c.RateBurst = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.WebhookURL = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		c.WebhookSecret = v
	}
	if v, ok := envInt("WEBHOOK_MAX_ATTEMPTS"); ok {
		c.WebhookMaxAttempts = v
	}
}

func (c Config) validate() error {
	if c.RouteTimeLimitMin <= 0 {
		return fmt.Errorf("route_time_limit_min must be positive, got %v", c.RouteTimeLimitMin)
	}
	if c.MinutesPerKm <= 0 {
		return fmt.Errorf("minutes_per_km must be positive, got %v", c.MinutesPerKm)
	}
	if c.SearchTimeLimitSec <= 0 {
		return fmt.Errorf("search_time_limit_sec must be positive, got %v", c.SearchTimeLimitSec)
	}
	if c.MaxExactGroup < 1 {
		return fmt.Errorf("max_exact_group must be at least 1, got %d", c.MaxExactGroup)
	}
	if c.WebhookMaxAttempts < 1 {
		return fmt.Errorf("webhook_max_attempts must be at least 1, got %d", c.WebhookMaxAttempts)
	}
	return nil
}

// Params converts the configuration into engine parameters.
func (c Config) Params() opt.Params {
	return opt.Params{
		DepotID:           c.Depot.ID,
		DepotName:         c.Depot.Name,
		DepotLat:          c.Depot.Lat,
		DepotLon:          c.Depot.Lon,
		RouteTimeLimitMin: c.RouteTimeLimitMin,
		MinutesPerKm:      c.MinutesPerKm,
		SearchTimeLimit:   time.Duration(c.SearchTimeLimitSec * float64(time.Second)),
		MaxExactGroup:     c.MaxExactGroup,
	}
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
