// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/logbook/internal/logging"
	"github.com/verte-zerg/logbook/internal/reconcile"
	"github.com/verte-zerg/logbook/internal/sheet"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Store   StoreConfig   `toml:"store"`
	Import  ImportConfig  `toml:"import"`
	Compare CompareConfig `toml:"compare"`
	Log     LogConfig     `toml:"log"`
}

// StoreConfig maps database settings.
type StoreConfig struct {
	DB      *string `toml:"db"`
	Vehicle *string `toml:"vehicle"`
}

// ImportConfig maps spreadsheet reading settings.
type ImportConfig struct {
	Sheet        *string        `toml:"sheet"`
	FirstDataRow *int           `toml:"first-data-row"`
	Columns      map[string]int `toml:"columns"`
}

// CompareConfig maps reconciliation tolerances.
type CompareConfig struct {
	Fixed           *float64 `toml:"fixed"`
	ConsumptionRate *float64 `toml:"consumption-rate"`
	FuelConsumed    *float64 `toml:"fuel-consumed"`
	FuelRemaining   *float64 `toml:"fuel-remaining"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level      *string `toml:"level"`
	File       *string `toml:"file"`
	MaxSizeMB  *int    `toml:"max-size-mb"`
	MaxBackups *int    `toml:"max-backups"`
	MaxAgeDays *int    `toml:"max-age-days"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Compare.validate(); err != nil {
		return FileConfig{}, fmt.Errorf("invalid [compare] config: %w", err)
	}
	return cfg, nil
}

// Layout applies column overrides on top of base.
func (c ImportConfig) Layout(base sheet.Layout) (sheet.Layout, error) {
	layout := base
	if c.FirstDataRow != nil {
		if *c.FirstDataRow < 0 {
			return sheet.Layout{}, fmt.Errorf("first-data-row must be >= 0")
		}
		layout.FirstDataRow = *c.FirstDataRow
	}
	fields := map[string]*int{
		"date":             &layout.Date,
		"origin":           &layout.Origin,
		"destination":      &layout.Destination,
		"odometer":         &layout.Odometer,
		"purpose":          &layout.Purpose,
		"fuel":             &layout.FuelAdded,
		"fuel-cost":        &layout.FuelCost,
		"consumed":         &layout.ReferenceConsumed,
		"distance":         &layout.Distance,
		"remaining":        &layout.ReferenceRemain,
		"other-costs-note": &layout.OtherCostsNote,
		"other-costs":      &layout.OtherCosts,
		"consumption-rate": &layout.ReferenceRate,
	}
	for name, col := range c.Columns {
		target, ok := fields[name]
		if !ok {
			known := make([]string, 0, len(fields))
			for k := range fields {
				known = append(known, k)
			}
			sort.Strings(known)
			return sheet.Layout{}, fmt.Errorf("unknown column %q (known: %s)", name, strings.Join(known, ", "))
		}
		*target = col
	}
	return layout, nil
}

func (c CompareConfig) validate() error {
	values := []struct {
		name  string
		value *float64
	}{
		{"fixed", c.Fixed},
		{"consumption-rate", c.ConsumptionRate},
		{"fuel-consumed", c.FuelConsumed},
		{"fuel-remaining", c.FuelRemaining},
	}
	for _, v := range values {
		if v.value == nil {
			continue
		}
		if math.IsNaN(*v.value) || math.IsInf(*v.value, 0) || *v.value < 0 {
			return fmt.Errorf("%s must be a finite number >= 0", v.name)
		}
	}
	return nil
}

// Tolerances applies overrides on top of base.
func (c CompareConfig) Tolerances(base reconcile.Tolerances) reconcile.Tolerances {
	tol := base
	if c.Fixed != nil {
		tol.Fixed = *c.Fixed
	}
	if c.ConsumptionRate != nil {
		tol.ConsumptionRate = *c.ConsumptionRate
	}
	if c.FuelConsumed != nil {
		tol.FuelConsumed = *c.FuelConsumed
	}
	if c.FuelRemaining != nil {
		tol.FuelRemaining = *c.FuelRemaining
	}
	return tol
}

// Options applies overrides on top of base.
func (c LogConfig) Options(base logging.Options) logging.Options {
	opts := base
	if c.Level != nil {
		opts.Level = *c.Level
	}
	if c.File != nil {
		opts.File = *c.File
		if opts.File == "default" {
			opts.File = DefaultLogPath()
		}
	}
	if c.MaxSizeMB != nil {
		opts.MaxSizeMB = *c.MaxSizeMB
	}
	if c.MaxBackups != nil {
		opts.MaxBackups = *c.MaxBackups
	}
	if c.MaxAgeDays != nil {
		opts.MaxAgeDays = *c.MaxAgeDays
	}
	return opts
}
