package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. CHURCH_ADDR.
const EnvPrefix = "CHURCH"

// Config is the console's runtime configuration.
type Config struct {
	APIBaseURL      string
	Addr            string
	Env             string
	CSRFKey         string
	DBPath          string
	APITimeout      time.Duration
	RateLimit       int
	PhotoMaxPx      int
	CORSOrigins     []string
	SlowRequest     time.Duration
	SlowQuery       time.Duration
	BreakerFailures uint32
	SessionMaxAge   time.Duration
}

// IsProduction reports whether the console runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the values that cannot be defaulted safely.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	if c.IsProduction() && len(c.CSRFKey) != 32 {
		return errors.New("CSRF_KEY must be 32 bytes in production")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit)
	}
	if c.PhotoMaxPx < 64 {
		return fmt.Errorf("PHOTO_MAX_PX must be at least 64, got %d", c.PhotoMaxPx)
	}
	return nil
}

func defaults(v *viper.Viper) {
	v.SetDefault("api_base_url", "http://localhost:8000/api/v1/")
	v.SetDefault("addr", ":8080")
	v.SetDefault("env", "development")
	v.SetDefault("csrf_key", "")
	v.SetDefault("db_path", "console.db")
	v.SetDefault("api_timeout", "15s")
	v.SetDefault("rate_limit", 120)
	v.SetDefault("photo_max_px", 600)
	v.SetDefault("cors_origins", "")
	v.SetDefault("slow_request_ms", 500)
	v.SetDefault("slow_query_ms", 50)
	v.SetDefault("breaker_failures", 3)
	v.SetDefault("session_max_age", "168h")
}

// Load reads an optional .env file and the CHURCH_* environment.
// POST: every field is set, from the environment or its default
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config_event", "event", "dotenv_unreadable", "error", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	defaults(v)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		APIBaseURL:      v.GetString("api_base_url"),
		Addr:            v.GetString("addr"),
		Env:             strings.ToLower(v.GetString("env")),
		CSRFKey:         v.GetString("csrf_key"),
		DBPath:          v.GetString("db_path"),
		APITimeout:      v.GetDuration("api_timeout"),
		RateLimit:       v.GetInt("rate_limit"),
		PhotoMaxPx:      v.GetInt("photo_max_px"),
		CORSOrigins:     splitList(v.GetString("cors_origins")),
		SlowRequest:     time.Duration(v.GetInt("slow_request_ms")) * time.Millisecond,
		SlowQuery:       time.Duration(v.GetInt("slow_query_ms")) * time.Millisecond,
		BreakerFailures: v.GetUint32("breaker_failures"),
		SessionMaxAge:   v.GetDuration("session_max_age"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
