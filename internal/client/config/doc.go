// Package config loads runtime configuration for the notes client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file, if present, and NOTES_* environment variables.
//  3. Optional JSON file selected with --config.
//  4. Command-line flags that were set explicitly.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "1s" or integer
// nanoseconds:
//
//	{
//	  "api_url": "http://localhost:5000/api",
//	  "realtime_url": "ws://localhost:5000/ws",
//	  "store_path": "notes.db",
//	  "autosave_delay": "1s",
//	  "request_timeout": "30s",
//	  "reconnect_delay": "2s",
//	  "page_size": 10,
//	  "presence_interval": "1s",
//	  "log_level": "info"
//	}
package config
