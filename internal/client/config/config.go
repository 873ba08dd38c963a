package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	APIBaseURL  string
	RealtimeURL string
	StorePath   string

	AutosaveDelay  time.Duration
	RequestTimeout time.Duration
	ReconnectDelay time.Duration
	// PresenceInterval is the minimum spacing between presence events sent
	// to the realtime server.
	PresenceInterval time.Duration

	PageSize int
	LogLevel string
}

func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:5000/api"
	c.RealtimeURL = "ws://localhost:5000/ws"
	c.StorePath = "notes.db"
	c.AutosaveDelay = time.Second
	c.RequestTimeout = 30 * time.Second
	c.ReconnectDelay = 2 * time.Second
	c.PresenceInterval = time.Second
	c.PageSize = 10
	c.LogLevel = "info"
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if err := checkURL("api url", c.APIBaseURL, "http", "https"); err != nil {
		errs = append(errs, err)
	}
	if err := checkURL("realtime url", c.RealtimeURL, "ws", "wss"); err != nil {
		errs = append(errs, err)
	}
	if c.AutosaveDelay <= 0 {
		errs = append(errs, errors.New("autosave delay must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.ReconnectDelay <= 0 {
		errs = append(errs, errors.New("reconnect delay must be positive"))
	}
	if c.PresenceInterval < 0 {
		errs = append(errs, errors.New("presence interval must not be negative"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	return errors.Join(errs...)
}

func checkURL(name, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s %q must be an absolute %v URL", name, raw, schemes)
}

// Load builds a Config from defaults, envFile (may be absent), the process
// environment, the JSON file at jsonPath (skipped when empty) and finally
// the flags in fs that the user set. fs may be nil.
func Load(envFile, jsonPath string, fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, envFile); err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, jsonPath); err != nil {
		return nil, err
	}
	if fs != nil {
		if err := applyFlags(cfg, fs); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
