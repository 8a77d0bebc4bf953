package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/asphaltsim/internal/config"
	"github.com/san-kum/asphaltsim/internal/storage"
	"github.com/san-kum/asphaltsim/internal/viz"
)

var (
	dataDir     string
	storeDriver string
	logLevel    string
	logFormat   string
	themeName   string
	// Config sources
	configFile string
	preset     string
	volumePath string
	// Overrides
	sliceID      int
	thermalIters int
	mechIters    int
	chemIters    int
	ambient      float64
	initialTemp  float64
	load         float64
	clamp        string
	softening    float64
	seed         int64
	// Output
	metricsFile string
	noSave      bool
	showPreview bool
	width       int
)

// main registers the commands and exits with status 1 when a command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "asphaltsim",
		Short:         "thermo-mechanical simulation of asphalt mixture slices",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			viz.SetTheme(themeName)
			return setupLogging(logLevel, logFormat)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".asphaltsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", string(storage.DriverFilesystem), "run store (fs|sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text|json)")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "seismic", "colour theme")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate one slice",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&showPreview, "preview", true, "print field heatmaps")
	runCmd.Flags().IntVar(&width, "width", 64, "preview width")

	batchCmd := &cobra.Command{
		Use:   "batch [slice...]",
		Short: "simulate several slices in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}
	addConfigFlags(batchCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep name=min:max:n [name=v1,v2 ...]",
		Short: "grid search over configuration parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "displacement_max", "metric to rank points by")
	sweepCmd.Flags().BoolVar(&sweepMaximize, "maximize", false, "rank by highest metric")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 4, "concurrent grid points")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo param [param...]",
		Short: "perturb parameters randomly and report metric spread",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&mcTrials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&mcPerturbation, "perturbation", 0.1, "relative perturbation")
	monteCarloCmd.Flags().StringVar(&sweepMetric, "metric", "displacement_max", "metric to report")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addConfigFlags(scenarioCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "render a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().IntVar(&width, "width", 64, "heatmap width")
	showCmd.Flags().StringVar(&showField, "field", "all", "field to render (temperature|displacement|phases|all)")

	exportCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file")

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a run field as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVar(&svgField, "field", "temperature", "field to draw (temperature|displacement|aggregate|air_void|profile)")
	svgCmd.Flags().Float64Var(&svgCell, "cell", 4, "pixels per grid cell")
	svgCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "list parameters accepted by sweep, montecarlo and scenarios",
		Args:  cobra.NoArgs,
		RunE:  listParams,
	}

	generateCmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "write a synthetic mixture volume",
		Args:  cobra.ExactArgs(1),
		RunE:  generateVolume,
	}
	addConfigFlags(generateCmd)

	configCmd := &cobra.Command{
		Use:   "config [file]",
		Short: "write the resolved configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	addConfigFlags(configCmd)

	rootCmd.AddCommand(runCmd, batchCmd, sweepCmd, monteCarloCmd, scenarioCmd,
		listCmd, showCmd, exportCmd, svgCmd, presetsCmd, paramsCmd, generateCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func setupLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	switch format {
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	log.SetOutput(os.Stderr)
	return nil
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&volumePath, "volume", "", "volume file (default: synthetic mixture)")
	f.IntVar(&sliceID, "slice", config.DefaultSliceID, "slice index")
	f.IntVar(&thermalIters, "thermal-iters", config.DefaultThermalIterations, "thermal iterations")
	f.IntVar(&mechIters, "mech-iters", config.DefaultMechIterations, "mechanical load increments")
	f.IntVar(&chemIters, "chem-iters", config.DefaultChemicalIterations, "chemical iterations")
	f.Float64Var(&ambient, "ambient", config.DefaultAmbient, "ambient temperature")
	f.Float64Var(&initialTemp, "initial", 0, "initial interior temperature")
	f.Float64Var(&load, "load", config.DefaultLoad, "mechanical load")
	f.StringVar(&clamp, "clamp", "bottom", "clamped edge")
	f.Float64Var(&softening, "softening", 0, "thermal softening coefficient")
	f.Int64Var(&seed, "seed", 1, "synthetic volume seed")
	f.StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")
	f.BoolVar(&noSave, "no-save", false, "do not store results")
}

// resolveConfig layers preset, config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("volume") {
		cfg.Volume.Path = volumePath
	}
	if f.Changed("slice") {
		cfg.SliceID = sliceID
	}
	if f.Changed("thermal-iters") {
		cfg.ThermalIterations = thermalIters
	}
	if f.Changed("mech-iters") {
		cfg.MechIterations = mechIters
	}
	if f.Changed("chem-iters") {
		cfg.ChemicalIterations = chemIters
	}
	if f.Changed("ambient") {
		cfg.AmbientTemperature = ambient
	}
	if f.Changed("initial") {
		cfg.InitialTemperature = initialTemp
	}
	if f.Changed("load") {
		cfg.Load = load
	}
	if f.Changed("clamp") {
		cfg.Mechanics.Clamp = clamp
	}
	if f.Changed("softening") {
		cfg.Mechanics.ThermalSoftening = softening
	}
	if f.Changed("seed") {
		cfg.Volume.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore() (storage.Store, error) {
	return storage.Open(storage.Driver(storeDriver), dataDir)
}
