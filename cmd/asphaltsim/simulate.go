package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/asphaltsim/internal/analysis"
	"github.com/san-kum/asphaltsim/internal/automation"
	"github.com/san-kum/asphaltsim/internal/engine"
	"github.com/san-kum/asphaltsim/internal/experiment"
	"github.com/san-kum/asphaltsim/internal/metrics"
	"github.com/san-kum/asphaltsim/internal/optim"
	"github.com/san-kum/asphaltsim/internal/storage"
	"github.com/san-kum/asphaltsim/internal/viz"
)

var (
	sweepMetric    string
	sweepMaximize  bool
	sweepWorkers   int
	mcTrials       int
	mcPerturbation float64
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// observers returns the cycle observers every simulating command attaches.
func observers() (*metrics.Recorder, *metrics.Tracker, []engine.Observer) {
	rec := metrics.NewRecorder()
	tr := metrics.NewTracker()
	return rec, tr, []engine.Observer{rec, tr}
}

func writeMetrics(rec *metrics.Recorder) error {
	if metricsFile == "" {
		return nil
	}
	if err := rec.WriteTextfile(metricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	log.WithField("path", metricsFile).Debug("metrics written")
	return nil
}

func printTracker(tr *metrics.Tracker) {
	v := tr.Values()
	fmt.Printf("cycles ok: %.0f%%  sweeps/step: %.1f  mean cycle: %.3fs\n",
		v["success_rate"]*100, v["sweeps_per_step"], v["cycle_seconds"])
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	rec, tr, obs := observers()
	exp := experiment.New(cfg)
	if err := exp.Setup(nil, obs...); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"slice":   cfg.SliceID,
		"thermal": cfg.ThermalIterations,
		"mech":    cfg.MechIterations,
		"load":    cfg.Load,
	}).Info("running simulation")
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		_ = writeMetrics(rec)
		return err
	}
	elapsed := time.Since(start)

	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		runID, err := result.Save(st)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Printf("completed in %v\n", elapsed)

	title := fmt.Sprintf("slice %d", cfg.SliceID)
	fmt.Println(viz.RenderSummary(title, result.Summary, viz.CurrentTheme))
	if showPreview {
		fmt.Print(viz.FieldView("temperature", result.Grid.Temperatures(), width, viz.CurrentTheme))
		fmt.Print(viz.FieldView("displacement", result.Grid.Displacements(), width, viz.CurrentTheme))
	}
	printTracker(tr)
	return writeMetrics(rec)
}

func parseSlices(args []string) ([]int, error) {
	var ids []int
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("slice %q: %w", part, err)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	ids, err := parseSlices(args)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	vol, err := cfg.LoadVolume()
	if err != nil {
		return err
	}
	ecfg, err := cfg.Engine()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	rec, tr, obs := observers()
	log.WithField("slices", ids).Info("running batch")
	grids, err := engine.RunSlices(ctx, cfg.Params(), vol, ecfg, ids, cfg.Iterations(), obs...)
	if err != nil {
		_ = writeMetrics(rec)
		return err
	}

	var results []*experiment.Result
	for i, g := range grids {
		sliceCfg := cfg.Clone()
		sliceCfg.SliceID = ids[i]
		results = append(results, &experiment.Result{
			Config:    sliceCfg,
			Grid:      g,
			Summary:   analysis.Summarize(g),
			Timestamp: time.Now(),
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLICE\tRUN\tT MEAN\tU MAX\tAGGREGATE\tAIR VOID")
	for _, res := range results {
		runID := "-"
		if !noSave {
			if runID, err = saveResult(res); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%.3f\t%.5g\t%.1f%%\t%.1f%%\n",
			res.Config.SliceID, runID,
			res.Summary.Temperature.Mean, res.Summary.Displacement.Max,
			res.Summary.Fractions["aggregate"]*100, res.Summary.Fractions["air_void"]*100)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printTracker(tr)
	return writeMetrics(rec)
}

func saveResult(res *experiment.Result) (string, error) {
	st, err := openStore()
	if err != nil {
		return "", err
	}
	defer st.Close()
	return res.Save(st)
}

func runSweep(cmd *cobra.Command, args []string) error {
	names := make([]string, 0, len(args))
	ranges := make([][]float64, 0, len(args))
	for _, a := range args {
		name, values, err := optim.ParseRange(a)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	vol, err := cfg.LoadVolume()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	rec, tr, obs := observers()
	gs := optim.NewGridSearch(names, ranges)
	gs.SetWorkers(sweepWorkers)
	log.WithFields(log.Fields{"params": names, "points": len(gs.Points())}).Info("running sweep")

	evals, err := gs.Run(ctx, cfg, vol, obs...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric))
	for _, e := range evals {
		var cells []string
		for _, n := range names {
			cells = append(cells, strconv.FormatFloat(e.Params[n], 'g', 6, 64))
		}
		val := "error: " + fmt.Sprint(e.Err)
		if e.Err == nil {
			val = strconv.FormatFloat(e.Metrics[sweepMetric], 'g', 6, 64)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t")+"\t"+val)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, val, ok := optim.Best(evals, sweepMetric, sweepMaximize); ok {
		var parts []string
		for _, k := range optim.SortedKeys(best.Params) {
			parts = append(parts, fmt.Sprintf("%s=%g", k, best.Params[k]))
		}
		fmt.Printf("\nbest %s = %.6g at %s\n", sweepMetric, val, strings.Join(parts, " "))
	}
	printTracker(tr)
	return writeMetrics(rec)
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	vol, err := cfg.LoadVolume()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	rec, tr, obs := observers()
	mc := &automation.MonteCarloConfig{
		Base:         cfg,
		Params:       args,
		Perturbation: mcPerturbation,
		NumTrials:    mcTrials,
		Seed:         cfg.Volume.Seed,
	}
	results, err := automation.RunMonteCarlo(ctx, mc, vol, obs...)
	if err != nil {
		return err
	}

	okCount, failed := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d ok, %d failed\n", okCount, failed)
	if lo, hi, ok := automation.MetricSpread(results, sweepMetric); ok {
		fmt.Printf("%s: %.6g .. %.6g\n", sweepMetric, lo, hi)
		values := make([]float64, 0, len(results))
		for _, r := range results {
			if r.Err == nil {
				values = append(values, r.Metrics[sweepMetric])
			}
		}
		fmt.Println(viz.SparklineChart(values, len(values)))
	}
	printTracker(tr)
	return writeMetrics(rec)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	var st storage.Store
	if !noSave {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	rec, tr, obs := observers()
	results, err := automation.RunScenario(ctx, sc, cfg, st, obs...)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tRUN\tT MEAN\tU MAX")
	for _, r := range results {
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.3f\t%.5g\n", r.Step, r.Name, runID,
			r.Result.Summary.Temperature.Mean, r.Result.Summary.Displacement.Max)
	}
	if flushErr := w.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	if err != nil {
		_ = writeMetrics(rec)
		return err
	}
	printTracker(tr)
	return writeMetrics(rec)
}
