package httpserver

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultListenAddr      = ":8080"
	defaultAllowedOrigin   = "http://localhost:3000"
	defaultCurrency        = "PHP"
	defaultShutdownTimeout = 5 * time.Second
)

// Config aggregates runtime settings for the wallet API.
type Config struct {
	ListenAddr      string
	AllowedOrigins  []string
	DefaultCurrency string
	ShutdownTimeout time.Duration
}

// Validate ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	cfg.DefaultCurrency = strings.ToUpper(defaultIfEmpty(cfg.DefaultCurrency, defaultCurrency))
	if len(cfg.DefaultCurrency) != 3 {
		return fmt.Errorf("default currency must be a three-letter code, got %q", cfg.DefaultCurrency)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	return nil
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
