package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/asphaltsim/internal/analysis"
	"github.com/san-kum/asphaltsim/internal/config"
	"github.com/san-kum/asphaltsim/internal/experiment"
	"github.com/san-kum/asphaltsim/internal/export"
	"github.com/san-kum/asphaltsim/internal/mixture"
	"github.com/san-kum/asphaltsim/internal/storage"
	"github.com/san-kum/asphaltsim/internal/viz"
	"github.com/san-kum/asphaltsim/internal/volume"
)

var (
	showField string
	exportOut string
	svgField  string
	svgCell   float64
)

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSLICE\tGRID\tTHERMAL\tMECH\tLOAD\tT MEAN\tU MAX")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%dx%d\t%d\t%d\t%.0f\t%.3f\t%.5g\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.SliceID,
			run.Rows, run.Cols,
			run.ThermalIterations,
			run.MechIterations,
			run.Load,
			run.Metrics["temperature_mean"],
			run.Metrics["displacement_max"],
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	fields, err := st.LoadFields(runID)
	if err != nil {
		return err
	}

	theme := viz.CurrentTheme
	fmt.Printf("run %s  slice %d  load %.0f  ambient %.1f\n\n", meta.ID, meta.SliceID, meta.Load, meta.AmbientTemperature)

	if showField == "all" || showField == "temperature" {
		fmt.Print(viz.FieldView("temperature", fields.Temperature, width, theme))
		fmt.Println(viz.CenterlineProfile(fields.Temperature, "centerline temperature (top to bottom)", 10, 80))
		fmt.Println()
	}
	if showField == "all" || showField == "displacement" {
		fmt.Print(viz.FieldView("displacement", fields.Displacement, width, theme))
		fmt.Println(viz.CenterlineProfile(fields.Displacement, "centerline displacement (top to bottom)", 10, 80))
		fmt.Println()
	}
	if showField == "all" || showField == "phases" {
		for _, cat := range []mixture.Category{mixture.Aggregate, mixture.AirVoid} {
			fmt.Println(cat.String())
			fmt.Print(viz.PhaseCanvas(fields.Labels, cat).String())
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	fields, err := st.LoadFields(runID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(exportOut, meta, fields)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	fields, err := st.LoadFields(args[0])
	if err != nil {
		return err
	}

	theme := viz.CurrentTheme
	var svg string
	switch svgField {
	case "temperature":
		svg = export.FieldToSVG(fields.Temperature, svgCell, theme)
	case "displacement":
		svg = export.FieldToSVG(fields.Displacement, svgCell, theme)
	case "aggregate":
		svg = export.CanvasToSVG(viz.PhaseCanvas(fields.Labels, mixture.Aggregate), svgCell)
	case "air_void":
		svg = export.CanvasToSVG(viz.PhaseCanvas(fields.Labels, mixture.AirVoid), svgCell)
	case "profile":
		if len(fields.Displacement) > 0 {
			mid := len(fields.Displacement[0]) / 2
			svg = export.ProfileToSVG(analysis.Column(fields.Displacement, mid), 640, 320, string(theme.Hot))
		}
	default:
		return fmt.Errorf("unknown field %q", svgField)
	}
	if svg == "" {
		return fmt.Errorf("run %s has no %s data", args[0], svgField)
	}

	if exportOut == "" || exportOut == "-" {
		_, err = fmt.Println(svg)
		return err
	}
	if err := os.WriteFile(exportOut, []byte(svg), 0644); err != nil {
		return err
	}
	log.WithField("path", exportOut).Info("svg written")
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSLICE\tTHERMAL\tMECH\tAMBIENT\tINITIAL\tLOAD")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f\t%.1f\t%.0f\n", name, cfg.SliceID,
			cfg.ThermalIterations, cfg.MechIterations, cfg.AmbientTemperature, cfg.InitialTemperature, cfg.Load)
	}
	return w.Flush()
}

func listParams(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tDEFAULT")
	for _, name := range experiment.ParamNames() {
		v, err := experiment.GetParam(cfg, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%g\n", name, v)
	}
	return w.Flush()
}

func generateVolume(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Volume.Path = ""
	vol, err := cfg.LoadVolume()
	if err != nil {
		return err
	}
	if err := volume.Save(args[0], vol); err != nil {
		return err
	}

	nx, ny, nz := vol.Shape()
	fr := vol.Fractions()
	log.WithFields(log.Fields{
		"path":      args[0],
		"shape":     fmt.Sprintf("%dx%dx%d", nx, ny, nz),
		"aggregate": fr[mixture.Aggregate],
		"mastic":    fr[mixture.Mastic],
		"air_void":  fr[mixture.AirVoid],
	}).Info("volume written")
	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return config.Save(args[0], cfg)
}
