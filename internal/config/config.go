package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "ARXIV_DIGEST_CONFIG"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	geminiModelEnv  = "GEMINI_MODEL"
	dataDirEnv      = "DATA_DIR"
	webAddrEnv      = "WEB_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
	Web       WebConfig       `yaml:"web"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ScraperConfig describes the upstream listing page.
type ScraperConfig struct {
	ListingURL string `yaml:"listingUrl"`
	// FallbackLimit bounds harvesting when the count headers cannot be
	// parsed (weekend layout, upstream drift).
	FallbackLimit  int    `yaml:"fallbackLimit"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	UserAgent      string `yaml:"userAgent"`
}

// Timeout resolves the HTTP client timeout.
func (s ScraperConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Endpoint          string `yaml:"endpoint"`
	Model             string `yaml:"model"`
	APIKey            string `yaml:"apiKey"`
	BatchSize         int    `yaml:"batchSize"`
	BatchDelaySeconds int    `yaml:"batchDelaySeconds"`
}

// BatchDelay is the pause between consecutive batch calls.
func (g GeminiConfig) BatchDelay() time.Duration {
	if g.BatchDelaySeconds < 0 {
		return 0
	}
	return time.Duration(g.BatchDelaySeconds) * time.Second
}

// SchedulerConfig selects and tunes the trigger strategy.
type SchedulerConfig struct {
	// Mode is "monitor" (poll the listing date, run when a new one appears)
	// or "daily" (run unconditionally at DailyAt).
	Mode                 string         `yaml:"mode"`
	CheckIntervalMinutes int            `yaml:"checkIntervalMinutes"`
	DailyAt              string         `yaml:"dailyAt"`
	Timezone             string         `yaml:"timezone"`
	location             *time.Location `yaml:"-"`
}

// CheckInterval resolves the monitor polling interval.
func (s SchedulerConfig) CheckInterval() time.Duration {
	if s.CheckIntervalMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.CheckIntervalMinutes) * time.Minute
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// StorageConfig locates the daily documents and the favorites database.
type StorageConfig struct {
	DataDir       string `yaml:"dataDir"`
	FavoritesPath string `yaml:"favoritesPath"`
}

// WebConfig describes the HTTP front.
type WebConfig struct {
	Addr string `yaml:"addr"`
	// AllowedUsers is a static allow-list; empty means open access.
	AllowedUsers []string `yaml:"allowedUsers"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(dataDirEnv); v != "" {
		c.Storage.DataDir = v
	}

	if v := os.Getenv(webAddrEnv); v != "" {
		c.Web.Addr = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Scraper.ListingURL != "" {
		base.Scraper.ListingURL = override.Scraper.ListingURL
	}
	if override.Scraper.FallbackLimit > 0 {
		base.Scraper.FallbackLimit = override.Scraper.FallbackLimit
	}
	if override.Scraper.TimeoutSeconds > 0 {
		base.Scraper.TimeoutSeconds = override.Scraper.TimeoutSeconds
	}
	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.BatchSize > 0 {
		base.Gemini.BatchSize = override.Gemini.BatchSize
	}
	if override.Gemini.BatchDelaySeconds > 0 {
		base.Gemini.BatchDelaySeconds = override.Gemini.BatchDelaySeconds
	}

	if override.Scheduler.Mode != "" {
		base.Scheduler.Mode = override.Scheduler.Mode
	}
	if override.Scheduler.CheckIntervalMinutes > 0 {
		base.Scheduler.CheckIntervalMinutes = override.Scheduler.CheckIntervalMinutes
	}
	if override.Scheduler.DailyAt != "" {
		base.Scheduler.DailyAt = override.Scheduler.DailyAt
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Storage.DataDir != "" {
		base.Storage.DataDir = override.Storage.DataDir
	}
	if override.Storage.FavoritesPath != "" {
		base.Storage.FavoritesPath = override.Storage.FavoritesPath
	}

	if override.Web.Addr != "" {
		base.Web.Addr = override.Web.Addr
	}
	if len(override.Web.AllowedUsers) > 0 {
		base.Web.AllowedUsers = override.Web.AllowedUsers
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Scraper: ScraperConfig{
			ListingURL:    "https://arxiv.org/list/cs.CV/new",
			FallbackLimit: 1000,
			UserAgent:     "arxivdigest/1.0",
		},
		Gemini: GeminiConfig{
			Endpoint:          "https://generativelanguage.googleapis.com",
			Model:             "gemini-2.0-flash",
			BatchSize:         5,
			BatchDelaySeconds: 2,
		},
		Scheduler: SchedulerConfig{
			Mode:                 "monitor",
			CheckIntervalMinutes: 30,
			DailyAt:              "10:00",
			Timezone:             defaultTimezone,
			location:             tz,
		},
		Storage: StorageConfig{
			DataDir:       "data",
			FavoritesPath: "data/favorites.db",
		},
		Web: WebConfig{Addr: ":5000"},
	}
}
