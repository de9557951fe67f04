// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

// EnvDB overrides the database path when set.
const EnvDB = "LOGBOOK_DB"

const appName = "logbook"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// XDGStateHome returns the XDG state home or a default fallback.
func XDGStateHome() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "state")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, "logbook.db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultLogPath returns the rotating log file used when file logging is enabled without a path.
func DefaultLogPath() string {
	return filepath.Join(XDGStateHome(), appName, "logbook.log")
}

// ResolveDBPath picks the database path: flag, then environment, then config file, then default.
func ResolveDBPath(flag string, cfg StoreConfig) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(EnvDB); v != "" {
		return v
	}
	if cfg.DB != nil && *cfg.DB != "" {
		return *cfg.DB
	}
	return DefaultDBPath()
}
