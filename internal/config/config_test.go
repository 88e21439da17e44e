package config

import (
	"testing"
	"time"
)

// TestLoad_Defaults verifies every key has a usable default.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Errorf("APITimeout = %v", cfg.APITimeout)
	}
	if cfg.SlowRequest != 500*time.Millisecond {
		t.Errorf("SlowRequest = %v", cfg.SlowRequest)
	}
	if cfg.BreakerFailures != 3 {
		t.Errorf("BreakerFailures = %d", cfg.BreakerFailures)
	}
	if cfg.IsProduction() {
		t.Error("default env should not be production")
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

// TestLoad_FromEnvironment verifies CHURCH_* variables override defaults.
func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CHURCH_API_BASE_URL", "https://church.example.org/api/v1/")
	t.Setenv("CHURCH_API_TIMEOUT", "3s")
	t.Setenv("CHURCH_CORS_ORIGINS", "https://a.example.org, https://b.example.org,")
	t.Setenv("CHURCH_PHOTO_MAX_PX", "800")

	cfg, err := FromViper(newViper())
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}
	if cfg.APIBaseURL != "https://church.example.org/api/v1/" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 3*time.Second {
		t.Errorf("APITimeout = %v", cfg.APITimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.org" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.PhotoMaxPx != 800 {
		t.Errorf("PhotoMaxPx = %d", cfg.PhotoMaxPx)
	}
}

// TestValidate tests rejection of unsafe values.
func TestValidate(t *testing.T) {
	base := Config{APIBaseURL: "http://x/", RateLimit: 10, PhotoMaxPx: 600}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no base url", func(c *Config) { c.APIBaseURL = "" }, true},
		{"production short csrf key", func(c *Config) { c.Env = "production"; c.CSRFKey = "short" }, true},
		{"production good csrf key", func(c *Config) { c.Env = "production"; c.CSRFKey = "0123456789abcdef0123456789abcdef" }, false},
		{"zero rate limit", func(c *Config) { c.RateLimit = 0 }, true},
		{"tiny photo", func(c *Config) { c.PhotoMaxPx = 10 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
