package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/asphaltsim/internal/config"
	"github.com/san-kum/asphaltsim/internal/engine"
	"github.com/san-kum/asphaltsim/internal/experiment"
	"github.com/san-kum/asphaltsim/internal/volume"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: 1}
}

// SetWorkers bounds how many grid points run concurrently.
func (g *GridSearch) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	g.workers = n
}

// Points enumerates the full cartesian product of the parameter ranges.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.pointsRecursive(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) pointsRecursive(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.pointsRecursive(depth+1, newParams, out)
	}
}

// Evaluation is the outcome of one grid point.
type Evaluation struct {
	Params  map[string]float64
	Metrics map[string]float64
	Err     error
}

// Run evaluates every grid point against vol. Points that fail keep their
// error in the evaluation; only an invalid parameter name or cancellation
// aborts the sweep.
func (g *GridSearch) Run(ctx context.Context, base *config.Config, vol *volume.Volume, observers ...engine.Observer) ([]Evaluation, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("sweep has %d names but %d ranges", len(g.paramNames), len(g.ranges))
	}
	points := g.Points()
	cfgs := make([]*config.Config, len(points))
	for i, p := range points {
		cfg, err := experiment.Apply(base, p)
		if err != nil {
			return nil, err
		}
		cfgs[i] = cfg
	}

	evals := make([]Evaluation, len(points))
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.workers)
	for i := range points {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			evals[i].Params = points[i]

			exp := experiment.New(cfgs[i])
			if evals[i].Err = exp.Setup(vol, observers...); evals[i].Err != nil {
				return nil
			}
			res, err := exp.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				evals[i].Err = err
				return nil
			}
			evals[i].Metrics = res.Summary.Metrics()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return evals, nil
}

// Best returns the successful evaluation with the lowest metric value, or
// the highest when maximize is set.
func Best(evals []Evaluation, metricName string, maximize bool) (Evaluation, float64, bool) {
	best := math.Inf(1)
	if maximize {
		best = math.Inf(-1)
	}
	var bestEval Evaluation
	found := false
	for _, e := range evals {
		if e.Err != nil {
			continue
		}
		val, ok := e.Metrics[metricName]
		if !ok {
			continue
		}
		if (!maximize && val < best) || (maximize && val > best) {
			best, bestEval, found = val, e, true
		}
	}
	return bestEval, best, found
}

// ParseRange reads "name=min:max:n" (n evenly spaced values) or
// "name=v1,v2,...".
func ParseRange(arg string) (string, []float64, error) {
	name, body, ok := strings.Cut(arg, "=")
	if !ok || name == "" || body == "" {
		return "", nil, fmt.Errorf("range %q: want name=min:max:n or name=v1,v2", arg)
	}

	if parts := strings.Split(body, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return "", nil, fmt.Errorf("range %q: bad min:max:n", arg)
		}
		return name, Linspace(lo, hi, n), nil
	}

	var values []float64
	for _, s := range strings.Split(body, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return "", nil, fmt.Errorf("range %q: %w", arg, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func Linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// SortedKeys lists the parameter names of p in order.
func SortedKeys(p map[string]float64) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
