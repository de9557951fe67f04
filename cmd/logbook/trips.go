package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/logbook/internal/importer"
	"github.com/verte-zerg/logbook/internal/model"
	"github.com/verte-zerg/logbook/internal/reconcile"
	"github.com/verte-zerg/logbook/internal/sheet"
	"github.com/verte-zerg/logbook/internal/stats"
)

var (
	importSheet  string
	importFormat string

	gridYear      int
	gridCarryover bool
	gridStrict    bool
	gridFormat    string

	compareSheet  string
	compareYear   int
	compareFormat string
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace one year of trips with rows from a spreadsheet",
		Long: "Reads an .xlsx, .csv or .tsv logbook sheet. The year is taken from the first trip row;\n" +
			"every stored trip of that year is replaced by the sheet rows.",
		Args: cobra.ExactArgs(1),
		RunE: runImportCmd,
	}
	cmd.Flags().StringVar(&importSheet, "sheet", "", "worksheet name (default: first sheet)")
	cmd.Flags().StringVar(&importFormat, "format", "text", "output format (text, json, yaml)")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	vehicle, err := a.vehicle(ctx, cmd)
	if err != nil {
		return err
	}
	records, err := a.readSheet(cmd, args[0], &importSheet)
	if err != nil {
		return err
	}
	res, err := importer.New(a.store, a.log.WithField("source", args[0])).Import(ctx, vehicle.ID, records)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return writeFormatted(cmd.OutOrStdout(), importFormat, res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Imported %d trips into %d for %s (%s): %d replaced, %d rows skipped, %d outside the year\n",
			res.Imported, res.Year, vehicle.Name, vehicle.LicensePlate, res.Deleted, res.Skipped, res.OutOfYear)
		return err
	})
}

// readSheet opens path with the configured layout. sheetName is a flag target.
func (a *app) readSheet(cmd *cobra.Command, path string, sheetName *string) ([]sheet.Record, error) {
	applyStringConfig(cmd, "sheet", sheetName, a.cfg.Import.Sheet)
	layout, err := a.cfg.Import.Layout(sheet.DefaultLayout())
	if err != nil {
		return nil, fmt.Errorf("invalid [import] config: %w", err)
	}
	src, err := sheet.Open(path, *sheetName)
	if err != nil {
		return nil, err
	}
	records, err := sheet.Read(src, layout)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	a.log.WithFields(logrus.Fields{
		"source":  path,
		"records": len(records),
	}).Debug("sheet read")
	return records, nil
}

func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&gridYear, "year", 0, "year to show (default: latest year with trips)")
	cmd.Flags().BoolVar(&gridCarryover, "carryover", false, "start from the level left by earlier years instead of a full tank")
	cmd.Flags().BoolVar(&gridStrict, "strict", false, "report tank level clamping")
}

func newGridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Show a year of trips with derived fuel values",
		Args:  cobra.NoArgs,
		RunE:  runGridCmd,
	}
	addGridFlags(cmd)
	return cmd
}

func runGridCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	grid, err := a.buildGrid(ctx, cmd, gridYear)
	if err != nil {
		return err
	}
	return stats.RenderGrid(cmd.OutOrStdout(), grid)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show year totals and fuel periods",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addGridFlags(cmd)
	cmd.Flags().StringVar(&gridFormat, "format", "text", "output format (text, json, yaml)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	grid, err := a.buildGrid(ctx, cmd, gridYear)
	if err != nil {
		return err
	}
	summary := stats.Summarize(grid)
	return writeFormatted(cmd.OutOrStdout(), gridFormat, summary, func(w io.Writer) error {
		if err := stats.RenderSummary(w, summary); err != nil {
			return err
		}
		if err := stats.RenderPeriods(w, grid); err != nil {
			return err
		}
		return stats.RenderDiagnostics(w, grid.Diagnostics)
	})
}

func (a *app) buildGrid(ctx context.Context, cmd *cobra.Command, year int) (stats.Grid, error) {
	vehicle, err := a.vehicle(ctx, cmd)
	if err != nil {
		return stats.Grid{}, err
	}
	if year == 0 {
		year, err = a.latestYear(ctx, vehicle.ID)
		if err != nil {
			return stats.Grid{}, err
		}
	}
	grid, err := stats.BuildGrid(ctx, a.store, model.GridConfig{
		VehicleID: vehicle.ID,
		Year:      year,
		Carryover: gridCarryover,
		Strict:    gridStrict,
	})
	if err != nil {
		return stats.Grid{}, fmt.Errorf("failed to build %d grid: %w", year, err)
	}
	return grid, nil
}

func (a *app) latestYear(ctx context.Context, vehicleID string) (int, error) {
	years, err := a.store.ListYears(ctx, vehicleID)
	if err != nil {
		return 0, fmt.Errorf("failed to list years: %w", err)
	}
	if len(years) == 0 {
		return time.Now().Year(), nil
	}
	return years[0], nil
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <file>",
		Short: "Compare a spreadsheet's printed values with the computed ones",
		Long: "Recorded fields are compared exactly; consumption rate, fuel consumed and fuel remaining\n" +
			"are compared within the [compare] tolerances. Exits non-zero when anything differs.",
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}
	cmd.Flags().StringVar(&compareSheet, "sheet", "", "worksheet name (default: first sheet)")
	cmd.Flags().IntVar(&compareYear, "year", 0, "year to compare (default: year of the first trip row)")
	cmd.Flags().BoolVar(&gridCarryover, "carryover", false, "start from the level left by earlier years instead of a full tank")
	cmd.Flags().StringVar(&compareFormat, "format", "text", "output format (text, json, yaml)")
	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.readSheet(cmd, args[0], &compareSheet)
	if err != nil {
		return err
	}
	year, reference, err := referenceRows(records, compareYear)
	if err != nil {
		return err
	}
	grid, err := a.buildGrid(ctx, cmd, year)
	if err != nil {
		return err
	}

	report := reconcile.Compare(year, reference, grid.Computed(), a.tolerances())
	a.log.WithFields(logrus.Fields{
		"year":    year,
		"fixed":   len(report.FixedMismatches),
		"derived": len(report.DerivedMismatches),
	}).Info("comparison finished")
	if err := writeFormatted(cmd.OutOrStdout(), compareFormat, report, func(w io.Writer) error {
		return stats.RenderReconciliation(w, report)
	}); err != nil {
		return err
	}
	if !report.Clean() {
		return fmt.Errorf("%d does not match the stored trips", year)
	}
	return nil
}

// referenceRows keeps the usable records of year in sheet order. A zero year
// means the year of the first usable record.
func referenceRows(records []sheet.Record, year int) (int, []reconcile.Row, error) {
	usable := sheet.Usable(records)
	if len(usable) == 0 {
		return 0, nil, fmt.Errorf("no trip rows found")
	}
	if year == 0 {
		year = usable[0].Year()
	}
	rows := make([]reconcile.Row, 0, len(usable))
	for _, rec := range usable {
		if rec.Year() != year {
			continue
		}
		rows = append(rows, rec.Reference())
	}
	return year, rows, nil
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List remembered routes",
		Args:  cobra.NoArgs,
		RunE:  runRoutesCmd,
	}
}

func runRoutesCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	vehicle, err := a.vehicle(ctx, cmd)
	if err != nil {
		return err
	}
	routes, err := a.store.ListRoutes(ctx, vehicle.ID)
	if err != nil {
		return fmt.Errorf("failed to list routes: %w", err)
	}
	return stats.RenderRoutes(cmd.OutOrStdout(), routes)
}

func newSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <file.xlsx>",
		Short: "List the worksheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runSheetsCmd,
	}
}

func runSheetsCmd(cmd *cobra.Command, args []string) error {
	names, err := sheet.SheetNames(args[0])
	if err != nil {
		return fmt.Errorf("failed to read workbook: %w", err)
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
