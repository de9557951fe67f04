// Package main provides the CLI entrypoint for logbook.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/logbook/internal/config"
	"github.com/verte-zerg/logbook/internal/logging"
	"github.com/verte-zerg/logbook/internal/model"
	"github.com/verte-zerg/logbook/internal/reconcile"
	"github.com/verte-zerg/logbook/internal/store"
)

var (
	rootDB       string
	rootConfig   string
	rootVehicle  string
	rootLogLevel string
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logErrf("failed to load .env: %v\n", err)
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "logbook",
		Short:         "Vehicle trip logbook with fuel reconciliation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&rootDB, "db", "", "database path (default: $LOGBOOK_DB or XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&rootVehicle, "vehicle", "", "vehicle id or license plate (default: first active vehicle)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVehicleCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newGridCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newSheetsCmd())
	rootCmd.AddCommand(newRoutesCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newDemoCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// app bundles what a command needs after flags and config are resolved.
type app struct {
	cfg       config.FileConfig
	log       *logrus.Logger
	store     *store.Store
	logCloser io.Closer
}

func openApp(cmd *cobra.Command) (*app, error) {
	fileCfg, err := config.LoadConfig(rootConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logOpts := fileCfg.Log.Options(logging.DefaultOptions())
	if cmd.Flags().Changed("log-level") {
		logOpts.Level = rootLogLevel
	}
	logger, closer, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	dbPath := config.ResolveDBPath(rootDB, fileCfg.Store)
	st, err := store.Open(dbPath)
	if err != nil {
		if cerr := closer.Close(); cerr != nil {
			// Best-effort close of the log file.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	logger.WithField("db", dbPath).Debug("store opened")
	return &app{cfg: fileCfg, log: logger, store: st, logCloser: closer}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
	if err := a.logCloser.Close(); err != nil {
		logErrf("failed to close log: %v\n", err)
	}
}

// vehicle resolves the target vehicle from the flag, then the config file,
// then the first active vehicle.
func (a *app) vehicle(ctx context.Context, cmd *cobra.Command) (model.Vehicle, error) {
	ref := rootVehicle
	applyStringConfig(cmd, "vehicle", &ref, a.cfg.Store.Vehicle)
	v, err := resolveVehicle(ctx, a.store, ref)
	if errors.Is(err, store.ErrVehicleNotFound) && strings.TrimSpace(ref) == "" {
		return model.Vehicle{}, fmt.Errorf("%w (add one with: logbook vehicle add, or: logbook demo)", err)
	}
	return v, err
}

type vehicleLister interface {
	ActiveVehicle(ctx context.Context) (model.Vehicle, error)
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
}

func resolveVehicle(ctx context.Context, st vehicleLister, ref string) (model.Vehicle, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return st.ActiveVehicle(ctx)
	}
	vehicles, err := st.ListVehicles(ctx)
	if err != nil {
		return model.Vehicle{}, fmt.Errorf("failed to list vehicles: %w", err)
	}
	for _, v := range vehicles {
		if v.ID == ref || strings.EqualFold(v.LicensePlate, ref) {
			return v, nil
		}
	}
	return model.Vehicle{}, fmt.Errorf("%w: %s", store.ErrVehicleNotFound, ref)
}

func (a *app) tolerances() reconcile.Tolerances {
	return a.cfg.Compare.Tolerances(reconcile.DefaultTolerances())
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := rootConfig
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	tol := reconcile.DefaultTolerances()
	opts := logging.DefaultOptions()
	return fmt.Sprintf(`# logbook configuration
# Uncomment a value to enable it. CLI flags override config values.
# The %s environment variable overrides [store] db.

[store]
# db = %q
# vehicle = ""                # Vehicle id or license plate

[import]
# sheet = ""                  # Worksheet name (default: first sheet)
# first-data-row = 3          # 0-based row of the first trip

# [import.columns]            # 0-based column overrides
# date = 0
# origin = 1
# destination = 2
# odometer = 3
# purpose = 4
# fuel = 6
# fuel-cost = 7
# consumed = 8
# distance = 10
# remaining = 11
# other-costs-note = 12
# other-costs = 13
# consumption-rate = 14

[compare]
# fixed = %.2f                # Recorded fields
# consumption-rate = %.2f     # l/100km
# fuel-consumed = %.2f        # Liters
# fuel-remaining = %.2f       # Liters

[log]
# level = %q
# file = "default"            # "default" writes to %s
# max-size-mb = %d
# max-backups = %d
# max-age-days = %d
`,
		config.EnvDB,
		config.DefaultDBPath(),
		tol.Fixed,
		tol.ConsumptionRate,
		tol.FuelConsumed,
		tol.FuelRemaining,
		opts.Level,
		config.DefaultLogPath(),
		opts.MaxSizeMB,
		opts.MaxBackups,
		opts.MaxAgeDays,
	)
}

// writeFormatted prints v as JSON or YAML, or calls text for the text format.
func writeFormatted(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return text(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown --format %q (text, json, yaml)", format)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
