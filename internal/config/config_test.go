package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/logbook/internal/logging"
	"github.com/verte-zerg/logbook/internal/reconcile"
	"github.com/verte-zerg/logbook/internal/sheet"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Store.DB)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigSections(t *testing.T) {
	path := writeConfig(t, `
[store]
db = "/tmp/kniha.db"

[import]
sheet = "Kniha - 2024 - MB"
first-data-row = 4

[import.columns]
distance = 9
fuel = 5

[compare]
fixed = 0.02
fuel-remaining = 1.0

[log]
level = "debug"
max-backups = 3
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/kniha.db", *cfg.Store.DB)
	assert.Equal(t, "Kniha - 2024 - MB", *cfg.Import.Sheet)

	layout, err := cfg.Import.Layout(sheet.DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 4, layout.FirstDataRow)
	assert.Equal(t, 9, layout.Distance)
	assert.Equal(t, 5, layout.FuelAdded)
	assert.Equal(t, 1, layout.Origin)

	tol := cfg.Compare.Tolerances(reconcile.DefaultTolerances())
	assert.Equal(t, 0.02, tol.Fixed)
	assert.Equal(t, 0.05, tol.ConsumptionRate)
	assert.Equal(t, 1.0, tol.FuelRemaining)

	opts := cfg.Log.Options(logging.DefaultOptions())
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, 3, opts.MaxBackups)
	assert.Equal(t, 10, opts.MaxSizeMB)
	assert.Empty(t, opts.File)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[store]\npath = \"x\"\n")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "store.path")
}

func TestLoadConfigRejectsInvalidTolerances(t *testing.T) {
	cases := map[string]string{
		"fixed = nan":            "fixed must be a finite number >= 0",
		"consumption-rate = inf": "consumption-rate must be a finite number >= 0",
		"fuel-consumed = -0.1":   "fuel-consumed must be a finite number >= 0",
		"fuel-remaining = -inf":  "fuel-remaining must be a finite number >= 0",
	}
	for line, want := range cases {
		_, err := LoadConfig(writeConfig(t, "[compare]\n"+line+"\n"))
		assert.ErrorContains(t, err, want, line)
	}

	cfg, err := LoadConfig(writeConfig(t, "[compare]\nfixed = 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Compare.Tolerances(reconcile.DefaultTolerances()).Fixed)
}

func TestLayoutRejectsUnknownColumn(t *testing.T) {
	cfg := ImportConfig{Columns: map[string]int{"km": 3}}
	_, err := cfg.Layout(sheet.DefaultLayout())
	assert.ErrorContains(t, err, `unknown column "km"`)
}

func TestLogFileDefaultKeyword(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	file := "default"
	opts := LogConfig{File: &file}.Options(logging.DefaultOptions())
	assert.Equal(t, filepath.Join("/state", "logbook", "logbook.log"), opts.File)
}

func TestResolveDBPathPrecedence(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv(EnvDB, "")
	fromFile := "/file.db"

	assert.Equal(t, filepath.Join("/data", "logbook", "logbook.db"), ResolveDBPath("", StoreConfig{}))
	assert.Equal(t, "/file.db", ResolveDBPath("", StoreConfig{DB: &fromFile}))

	t.Setenv(EnvDB, "/env.db")
	assert.Equal(t, "/env.db", ResolveDBPath("", StoreConfig{DB: &fromFile}))
	assert.Equal(t, "/flag.db", ResolveDBPath("/flag.db", StoreConfig{DB: &fromFile}))
}
