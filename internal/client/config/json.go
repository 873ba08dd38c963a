package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/notekeeper/internal/timex"
)

// JsonConfig is a DTO used only for unmarshalling. Pointer fields tell
// "absent" apart from zero so the file overrides only what it names.
type JsonConfig struct {
	APIBaseURL       *string         `json:"api_url"`
	RealtimeURL      *string         `json:"realtime_url"`
	StorePath        *string         `json:"store_path"`
	AutosaveDelay    *timex.Duration `json:"autosave_delay"`
	RequestTimeout   *timex.Duration `json:"request_timeout"`
	ReconnectDelay   *timex.Duration `json:"reconnect_delay"`
	PresenceInterval *timex.Duration `json:"presence_interval"`
	PageSize         *int            `json:"page_size"`
	LogLevel         *string         `json:"log_level"`
}

func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.RealtimeURL, jc.RealtimeURL)
	setString(&cfg.StorePath, jc.StorePath)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.AutosaveDelay != nil {
		cfg.AutosaveDelay = jc.AutosaveDelay.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.ReconnectDelay != nil {
		cfg.ReconnectDelay = jc.ReconnectDelay.Duration
	}
	if jc.PresenceInterval != nil {
		cfg.PresenceInterval = jc.PresenceInterval.Duration
	}
	if jc.PageSize != nil {
		cfg.PageSize = *jc.PageSize
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
