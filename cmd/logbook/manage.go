package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/logbook/internal/generator"
	"github.com/verte-zerg/logbook/internal/model"
	"github.com/verte-zerg/logbook/internal/stats"
	"github.com/verte-zerg/logbook/internal/statsui"
)

const (
	defaultDemoCount = 120
	defaultDemoYear  = 2024
)

var (
	vehicleName     string
	vehiclePlate    string
	vehicleTank     float64
	vehicleRate     float64
	vehicleOdometer float64
	vehicleInactive bool

	settingsCompany   string
	settingsCompanyID string
	settingsPurpose   string

	demoRandom bool
	demoSeed   int64
	demoCount  int
)

func newVehicleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicle",
		Short: "Manage vehicles",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a vehicle",
		Args:  cobra.NoArgs,
		RunE:  runVehicleAddCmd,
	}
	add.Flags().StringVar(&vehicleName, "name", "", "vehicle name")
	add.Flags().StringVar(&vehiclePlate, "plate", "", "license plate")
	add.Flags().Float64Var(&vehicleTank, "tank", 0, "tank capacity in liters")
	add.Flags().Float64Var(&vehicleRate, "rate", 0, "reference consumption in l/100km")
	add.Flags().Float64Var(&vehicleOdometer, "odometer", 0, "initial odometer reading")
	add.Flags().BoolVar(&vehicleInactive, "inactive", false, "do not mark the vehicle active")

	list := &cobra.Command{
		Use:   "list",
		Short: "List vehicles",
		Args:  cobra.NoArgs,
		RunE:  runVehicleListCmd,
	}

	cmd.AddCommand(add, list)
	return cmd
}

func runVehicleAddCmd(cmd *cobra.Command, _ []string) error {
	v := model.Vehicle{
		Name:            strings.TrimSpace(vehicleName),
		LicensePlate:    strings.TrimSpace(vehiclePlate),
		TankCapacity:    vehicleTank,
		ReferenceRate:   vehicleRate,
		InitialOdometer: vehicleOdometer,
		Active:          !vehicleInactive,
	}
	if err := validateVehicle(v); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	saved, err := a.store.InsertVehicle(context.Background(), v)
	if err != nil {
		return fmt.Errorf("failed to add vehicle: %w", err)
	}
	a.log.WithFields(logrus.Fields{"vehicle": saved.ID, "plate": saved.LicensePlate}).Info("vehicle added")
	_, err = fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
	return err
}

func validateVehicle(v model.Vehicle) error {
	if v.Name == "" {
		return fmt.Errorf("--name must not be empty")
	}
	if v.LicensePlate == "" {
		return fmt.Errorf("--plate must not be empty")
	}
	if v.TankCapacity <= 0 {
		return fmt.Errorf("--tank must be > 0")
	}
	if v.ReferenceRate <= 0 {
		return fmt.Errorf("--rate must be > 0")
	}
	if v.InitialOdometer < 0 {
		return fmt.Errorf("--odometer must be >= 0")
	}
	return nil
}

func runVehicleListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	vehicles, err := a.store.ListVehicles(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list vehicles: %w", err)
	}
	return stats.RenderVehicles(cmd.OutOrStdout(), vehicles)
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change company settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShowCmd,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsSetCmd,
	}
	set.Flags().StringVar(&settingsCompany, "company", "", "company name")
	set.Flags().StringVar(&settingsCompanyID, "company-id", "", "company registration number")
	set.Flags().StringVar(&settingsPurpose, "buffer-purpose", "", "purpose used for buffer trips")

	cmd.AddCommand(show, set)
	return cmd
}

func runSettingsShowCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.store.GetSettings(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	return stats.RenderSettings(cmd.OutOrStdout(), s)
}

func runSettingsSetCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	changed := applySettingsFlags(cmd, &s)
	if !changed {
		return fmt.Errorf("nothing to change (use --company, --company-id or --buffer-purpose)")
	}
	if err := a.store.SaveSettings(ctx, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return stats.RenderSettings(cmd.OutOrStdout(), s)
}

func applySettingsFlags(cmd *cobra.Command, s *model.Settings) bool {
	changed := false
	apply := func(name string, target *string, value string) {
		if !cmd.Flags().Changed(name) {
			return
		}
		*target = strings.TrimSpace(value)
		changed = true
	}
	apply("company", &s.CompanyName, settingsCompany)
	apply("company-id", &s.CompanyID, settingsCompanyID)
	apply("buffer-purpose", &s.BufferTripPurpose, settingsPurpose)
	return changed
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Add a demo vehicle with sample trips",
		Args:  cobra.NoArgs,
		RunE:  runDemoCmd,
	}
	cmd.Flags().BoolVar(&demoRandom, "random", false, "generate a random log instead of the fixed showcase")
	cmd.Flags().Int64Var(&demoSeed, "seed", 0, "random seed (default: current time)")
	cmd.Flags().IntVar(&demoCount, "count", defaultDemoCount, "number of random trips")
	return cmd
}

func runDemoCmd(cmd *cobra.Command, _ []string) error {
	if demoRandom && demoCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	ctx := context.Background()
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data := generator.Showcase()
	if demoRandom {
		gen := generator.New()
		if cmd.Flags().Changed("seed") {
			gen = generator.NewSeeded(demoSeed)
		}
		data.Vehicle.Name += " (random)"
		data.Trips = gen.Trips(demoCount, generator.Options{
			VehicleID:     data.Vehicle.ID,
			Start:         time.Date(defaultDemoYear, time.January, 1, 0, 0, 0, 0, time.UTC),
			StartOdometer: data.Vehicle.InitialOdometer,
			FillPct:       0.15,
			FullPct:       0.9,
			MaxFuel:       data.Vehicle.TankCapacity * 0.9,
		})
	}

	vehicle, err := a.store.InsertVehicle(ctx, data.Vehicle)
	if err != nil {
		return fmt.Errorf("failed to add demo vehicle: %w", err)
	}
	if err := a.store.SaveSettings(ctx, data.Settings); err != nil {
		return fmt.Errorf("failed to save demo settings: %w", err)
	}

	byYear := map[int][]model.Trip{}
	for _, t := range data.Trips {
		byYear[t.Year()] = append(byYear[t.Year()], t)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		if _, err := a.store.ReplaceYearTrips(ctx, vehicle.ID, y, byYear[y]); err != nil {
			return fmt.Errorf("failed to store demo trips for %d: %w", y, err)
		}
	}

	a.log.WithFields(logrus.Fields{"vehicle": vehicle.ID, "trips": len(data.Trips)}).Info("demo data added")
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) with %d trips: %s\n",
		vehicle.Name, vehicle.LicensePlate, len(data.Trips), vehicle.ID)
	return err
}

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse trips, periods, and totals",
		Args:  cobra.NoArgs,
		RunE:  runBrowseCmd,
	}
	addGridFlags(cmd)
	return cmd
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
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
	browser := statsui.NewModel(a.store, model.GridConfig{
		VehicleID: vehicle.ID,
		Year:      gridYear,
		Carryover: gridCarryover,
		Strict:    gridStrict,
	})
	program := tea.NewProgram(browser, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}
