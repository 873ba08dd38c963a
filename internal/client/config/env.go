package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	envAPIURL         = "NOTES_API_URL"
	envRealtimeURL    = "NOTES_REALTIME_URL"
	envStorePath      = "NOTES_STORE_PATH"
	envAutosaveDelay  = "NOTES_AUTOSAVE_DELAY"
	envRequestTimeout = "NOTES_REQUEST_TIMEOUT"
	envReconnectDelay = "NOTES_RECONNECT_DELAY"
	envPresence       = "NOTES_PRESENCE_INTERVAL"
	envPageSize       = "NOTES_PAGE_SIZE"
	envLogLevel       = "NOTES_LOG_LEVEL"
)

// parseEnv loads envFile into the process environment (variables already
// set win) and overlays every NOTES_* variable onto cfg.
func parseEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg.APIBaseURL = getEnv(envAPIURL, cfg.APIBaseURL)
	cfg.RealtimeURL = getEnv(envRealtimeURL, cfg.RealtimeURL)
	cfg.StorePath = getEnv(envStorePath, cfg.StorePath)
	cfg.LogLevel = getEnv(envLogLevel, cfg.LogLevel)

	var err error
	if cfg.AutosaveDelay, err = getEnvAsDuration(envAutosaveDelay, cfg.AutosaveDelay); err != nil {
		return err
	}
	if cfg.RequestTimeout, err = getEnvAsDuration(envRequestTimeout, cfg.RequestTimeout); err != nil {
		return err
	}
	if cfg.ReconnectDelay, err = getEnvAsDuration(envReconnectDelay, cfg.ReconnectDelay); err != nil {
		return err
	}
	if cfg.PresenceInterval, err = getEnvAsDuration(envPresence, cfg.PresenceInterval); err != nil {
		return err
	}
	if cfg.PageSize, err = getEnvAsInt(envPageSize, cfg.PageSize); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
