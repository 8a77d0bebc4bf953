package viz

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/asphaltsim/internal/analysis"
	"github.com/san-kum/asphaltsim/internal/mixture"
)

func ramp(rows, cols int) [][]float64 {
	f := make([][]float64, rows)
	for r := range f {
		f[r] = make([]float64, cols)
		for c := range f[r] {
			f[r][c] = float64(r*cols + c)
		}
	}
	return f
}

func TestDownsample(t *testing.T) {
	f := [][]float64{
		{1, 1, 3, 3},
		{1, 1, 3, 3},
	}
	got := Downsample(f, 1, 2)
	if len(got) != 1 || len(got[0]) != 2 {
		t.Fatalf("unexpected shape %v", got)
	}
	if got[0][0] != 1 || got[0][1] != 3 {
		t.Errorf("expected block means [1 3], got %v", got[0])
	}

	same := Downsample(f, 10, 10)
	if len(same) != 2 || len(same[0]) != 4 {
		t.Errorf("downsample must not upscale, got %dx%d", len(same), len(same[0]))
	}
	if Downsample(nil, 2, 2) != nil {
		t.Error("expected nil for empty field")
	}
}

func TestHeatmapShape(t *testing.T) {
	out := Heatmap(ramp(40, 40), 20, ThemeSeismic)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 20 {
			t.Errorf("row %d: expected width 20, got %d", i, w)
		}
	}
	if Heatmap(nil, 10, ThemeSeismic) != "" {
		t.Error("expected empty output for empty field")
	}
}

func TestHeatColorEnds(t *testing.T) {
	th := ThemeSeismic
	if HeatColor(0, th) != th.Cold {
		t.Errorf("expected cold at 0, got %s", HeatColor(0, th))
	}
	if HeatColor(1, th) != th.Hot {
		t.Errorf("expected hot at 1, got %s", HeatColor(1, th))
	}
	if HeatColor(0.5, th) != th.Mid {
		t.Errorf("expected mid at 0.5, got %s", HeatColor(0.5, th))
	}
}

func TestPhaseCanvas(t *testing.T) {
	labels := [][]int{
		{2, 0, 1},
		{1, 2, 2},
		{0, 0, 0},
		{1, 1, 2},
		{2, 1, 1},
	}
	c := PhaseCanvas(labels, mixture.Aggregate)
	if c.Width != 2 || c.Height != 2 {
		t.Fatalf("expected 2x2 canvas, got %dx%d", c.Width, c.Height)
	}
	for r, row := range labels {
		for col, label := range row {
			if c.IsSet(col, r) != (label == int(mixture.Aggregate)) {
				t.Errorf("cell (%d,%d) label %d: set=%v", r, col, label, c.IsSet(col, r))
			}
		}
	}
	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("expected clear canvas")
	}
}

func TestSparkline(t *testing.T) {
	s := SparklineChart([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if s != "▁▂▃▄▅▆▇█" {
		t.Errorf("unexpected sparkline %q", s)
	}
	if SparklineChart(nil, 3) != "───" {
		t.Error("expected flat line for no values")
	}
}

func TestProfile(t *testing.T) {
	out := CenterlineProfile(ramp(12, 5), "centre", 5, 30)
	if !strings.Contains(out, "centre") {
		t.Error("profile missing caption")
	}
	if CenterlineProfile(nil, "x", 5, 30) != "" {
		t.Error("expected empty profile")
	}
}

func TestRenderSummary(t *testing.T) {
	s := analysis.Summary{
		Rows: 4, Cols: 6,
		Fractions:    map[string]float64{"aggregate": 0.5, "mastic": 0.4, "air_void": 0.1},
		Temperature:  analysis.Stats{Min: 0, Max: 50, Mean: 30},
		Displacement: analysis.Stats{Max: 0.12},
	}
	out := RenderSummary("slice 50", s, ThemeMinimal)
	for _, want := range []string{"4 x 6", "aggregate", "air_void", "temperature", "displacement", "50.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("thermal").Name != "thermal" {
		t.Error("expected thermal theme")
	}
	if GetTheme("unknown").Name != ThemeSeismic.Name {
		t.Error("expected fallback to seismic")
	}
	SetTheme("minimal")
	defer SetTheme("seismic")
	if CurrentTheme.Name != "minimal" {
		t.Error("SetTheme did not switch")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names incomplete")
	}
}
