package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared with the cobra root command.
const (
	FlagConfig   = "config"
	FlagEnvFile  = "env-file"
	FlagAPI      = "api"
	FlagRealtime = "realtime"
	FlagStore    = "store"
	FlagAutosave = "autosave"
	FlagPageSize = "page-size"
	FlagVerbose  = "verbose"
)

// BindFlags registers the configuration flags on fs. Defaults shown in help
// are the built-in ones; whether a flag overrides anything is decided by
// fs.Changed in applyFlags.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.String(FlagConfig, "", "path to a JSON config file")
	fs.String(FlagEnvFile, ".env", "path to a .env file")
	fs.String(FlagAPI, d.APIBaseURL, "REST API base URL")
	fs.String(FlagRealtime, d.RealtimeURL, "realtime websocket URL")
	fs.String(FlagStore, d.StorePath, "local SQLite store path")
	fs.Duration(FlagAutosave, d.AutosaveDelay, "autosave quiet period")
	fs.Int(FlagPageSize, d.PageSize, "notes per dashboard page")
	fs.BoolP(FlagVerbose, "v", false, "debug logging")
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(FlagAPI) {
		if cfg.APIBaseURL, err = fs.GetString(FlagAPI); err != nil {
			return err
		}
	}
	if fs.Changed(FlagRealtime) {
		if cfg.RealtimeURL, err = fs.GetString(FlagRealtime); err != nil {
			return err
		}
	}
	if fs.Changed(FlagStore) {
		if cfg.StorePath, err = fs.GetString(FlagStore); err != nil {
			return err
		}
	}
	if fs.Changed(FlagAutosave) {
		if cfg.AutosaveDelay, err = fs.GetDuration(FlagAutosave); err != nil {
			return err
		}
	}
	if fs.Changed(FlagPageSize) {
		if cfg.PageSize, err = fs.GetInt(FlagPageSize); err != nil {
			return err
		}
	}
	if fs.Changed(FlagVerbose) {
		verbose, err := fs.GetBool(FlagVerbose)
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
	}
	return nil
}
