package thermal_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/asphaltsim/internal/mixture"
	"github.com/san-kum/asphaltsim/internal/thermal"
)

var (
	aggregate = mixture.Properties{ElasticModulus: 30000, ThermalConductivity: 2.0, ChemicalValue: 0.1}
	mastic    = mixture.Properties{ElasticModulus: 3000, ThermalConductivity: 0.7, ChemicalValue: 0.5}
	airVoid   = mixture.Properties{ElasticModulus: 10, ThermalConductivity: 0.03, ChemicalValue: 0}
)

func buildGrid(labels [][]int) (*mixture.Grid, mixture.Templates) {
	tpl, err := mixture.NewTemplates(aggregate, mastic, airVoid)
	Expect(err).NotTo(HaveOccurred())
	g, err := mixture.Build(labels, tpl)
	Expect(err).NotTo(HaveOccurred())
	return g, tpl
}

func uniformLabels(rows, cols, label int) [][]int {
	out := make([][]int, rows)
	for r := range out {
		out[r] = make([]int, cols)
		for c := range out[r] {
			out[r][c] = label
		}
	}
	return out
}

func mixedLabels() [][]int {
	return [][]int{
		{0, 1, 2, 2, 1},
		{1, 2, 2, 1, 0},
		{2, 2, 1, 0, 1},
		{1, 0, 1, 2, 2},
		{2, 1, 0, 2, 1},
		{1, 1, 2, 2, 0},
	}
}

func hotEdges() thermal.Config {
	cfg := thermal.DefaultConfig(100)
	cfg.Initial = 0
	return cfg
}

var _ = Describe("Model", func() {
	ctx := context.Background()

	Describe("construction", func() {
		It("rejects a non-positive max conductivity", func() {
			g, _ := buildGrid(uniformLabels(3, 3, 2))
			for _, maxTC := range []float64{0, -1, math.NaN(), math.Inf(1)} {
				_, err := thermal.New(g, maxTC, hotEdges())
				Expect(err).To(MatchError(mixture.ErrInvalidParameter))
			}
		})

		It("rejects cells more conductive than the stability bound", func() {
			g, _ := buildGrid(uniformLabels(3, 3, 2))
			_, err := thermal.New(g, aggregate.ThermalConductivity/2, hotEdges())
			Expect(err).To(MatchError(mixture.ErrInvalidParameter))
		})

		It("rejects a stability factor outside (0, 1]", func() {
			g, _ := buildGrid(uniformLabels(3, 3, 2))
			cfg := hotEdges()
			cfg.StabilityFactor = 1.5
			_, err := thermal.New(g, aggregate.ThermalConductivity, cfg)
			Expect(err).To(MatchError(mixture.ErrInvalidParameter))
		})

		It("derives the step from the max conductivity", func() {
			g, tpl := buildGrid(mixedLabels())
			m, err := thermal.New(g, tpl.MaxConductivity(), hotEdges())
			Expect(err).NotTo(HaveOccurred())
			Expect(m.TimeStep()).To(BeNumerically("~", thermal.DefaultStabilityFactor/(4*2.0), 1e-15))
		})
	})

	Describe("boundary conditions", func() {
		It("seeds edges per side and the interior with the initial value", func() {
			g, tpl := buildGrid(uniformLabels(4, 5, 1))
			cfg := thermal.Config{
				Boundary:        thermal.Boundary{Top: 10, Bottom: 20, Left: 30, Right: 40},
				Initial:         5,
				StabilityFactor: 1,
			}
			m, err := thermal.New(g, tpl.MaxConductivity(), cfg)
			Expect(err).NotTo(HaveOccurred())
			m.ApplyBoundaryConditions()

			Expect(g.At(0, 0).Temperature).To(Equal(10.0))
			Expect(g.At(0, 4).Temperature).To(Equal(10.0))
			Expect(g.At(3, 0).Temperature).To(Equal(20.0))
			Expect(g.At(1, 0).Temperature).To(Equal(30.0))
			Expect(g.At(2, 4).Temperature).To(Equal(40.0))
			Expect(g.At(1, 2).Temperature).To(Equal(5.0))
		})

		It("is idempotent", func() {
			g, tpl := buildGrid(mixedLabels())
			m, _ := thermal.New(g, tpl.MaxConductivity(), hotEdges())
			m.ApplyBoundaryConditions()
			first := g.Temperatures()
			m.ApplyBoundaryConditions()
			Expect(g.Temperatures()).To(Equal(first))
		})
	})

	Describe("Simulate", func() {
		It("fails before boundary conditions are applied", func() {
			g, tpl := buildGrid(mixedLabels())
			m, _ := thermal.New(g, tpl.MaxConductivity(), hotEdges())
			_, err := m.Simulate(ctx, 10)
			Expect(err).To(MatchError(mixture.ErrIllegalState))
		})

		It("rejects negative iteration counts", func() {
			g, tpl := buildGrid(mixedLabels())
			m, _ := thermal.New(g, tpl.MaxConductivity(), hotEdges())
			m.ApplyBoundaryConditions()
			_, err := m.Simulate(ctx, -1)
			Expect(err).To(MatchError(mixture.ErrInvalidParameter))
		})

		It("is a no-op for zero iterations", func() {
			g, tpl := buildGrid(mixedLabels())
			m, _ := thermal.New(g, tpl.MaxConductivity(), hotEdges())
			m.ApplyBoundaryConditions()
			before := g.Temperatures()

			out, err := m.Simulate(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Temperatures()).To(Equal(before))
			Expect(m.Iterations()).To(BeZero())
		})

		It("updates every interior cell from the previous step only", func() {
			g, tpl := buildGrid(mixedLabels())
			m, _ := thermal.New(g, tpl.MaxConductivity(), hotEdges())
			m.ApplyBoundaryConditions()
			rows, cols := g.Rows(), g.Cols()
			for r := 1; r < rows-1; r++ {
				for c := 1; c < cols-1; c++ {
					g.At(r, c).Temperature = float64(7*r + 3*c*c)
				}
			}
			seed := g.Temperatures()

			_, err := m.Simulate(ctx, 1)
			Expect(err).NotTo(HaveOccurred())

			dt := m.TimeStep()
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					want := seed[r][c]
					if r > 0 && r < rows-1 && c > 0 && c < cols-1 {
						k := g.At(r, c).ThermalConductivity()
						lap := seed[r-1][c] + seed[r+1][c] + seed[r][c-1] + seed[r][c+1] - 4*seed[r][c]
						want = seed[r][c] + dt*k*lap
					}
					Expect(g.At(r, c).Temperature).To(BeNumerically("~", want, 1e-12), "cell [%d,%d]", r, c)
				}
			}
		})

		It("composes: n then m steps equal n+m steps", func() {
			g1, tpl := buildGrid(mixedLabels())
			g2, _ := buildGrid(mixedLabels())

			split, _ := thermal.New(g1, tpl.MaxConductivity(), hotEdges())
			split.ApplyBoundaryConditions()
			_, err := split.Simulate(ctx, 17)
			Expect(err).NotTo(HaveOccurred())
			_, err = split.Simulate(ctx, 23)
			Expect(err).NotTo(HaveOccurred())

			whole, _ := thermal.New(g2, tpl.MaxConductivity(), hotEdges())
			whole.ApplyBoundaryConditions()
			_, err = whole.Simulate(ctx, 40)
			Expect(err).NotTo(HaveOccurred())

			Expect(g1.Temperatures()).To(Equal(g2.Temperatures()))
			Expect(split.Iterations()).To(Equal(40))
		})

		It("heats a 4x4 aggregate block to its boundary temperature", func() {
			g, _ := buildGrid(uniformLabels(4, 4, 2))
			m, err := thermal.New(g, aggregate.ThermalConductivity, hotEdges())
			Expect(err).NotTo(HaveOccurred())
			m.ApplyBoundaryConditions()

			_, err = m.Simulate(ctx, 500)
			Expect(err).NotTo(HaveOccurred())
			for r := 1; r < 3; r++ {
				for c := 1; c < 3; c++ {
					Expect(g.At(r, c).Temperature).To(BeNumerically("~", 100, 1e-2))
				}
			}
		})

		It("converges to a uniform boundary on a larger single-material grid", func() {
			g, _ := buildGrid(uniformLabels(10, 10, 1))
			m, _ := thermal.New(g, mastic.ThermalConductivity, hotEdges())
			m.ApplyBoundaryConditions()

			_, err := m.Simulate(ctx, 2000)
			Expect(err).NotTo(HaveOccurred())
			for _, row := range g.Temperatures() {
				for _, t := range row {
					Expect(t).To(BeNumerically("~", 100, 1e-6))
				}
			}
			Expect(m.LastChange()).To(BeNumerically("<", 1e-6))
		})

		It("keeps the field bounded by the boundary and initial values", func() {
			g, tpl := buildGrid(mixedLabels())
			m, _ := thermal.New(g, tpl.MaxConductivity(), hotEdges())
			m.ApplyBoundaryConditions()

			_, err := m.Simulate(ctx, 300)
			Expect(err).NotTo(HaveOccurred())
			for _, row := range g.Temperatures() {
				for _, t := range row {
					Expect(t).To(BeNumerically(">=", 0))
					Expect(t).To(BeNumerically("<=", 100))
				}
			}
		})

		It("leaves properties and displacement untouched", func() {
			g, tpl := buildGrid(mixedLabels())
			g.At(2, 2).Displacement = 0.25
			props := g.At(2, 2).Properties()

			m, _ := thermal.New(g, tpl.MaxConductivity(), hotEdges())
			m.ApplyBoundaryConditions()
			_, err := m.Simulate(ctx, 50)
			Expect(err).NotTo(HaveOccurred())

			Expect(g.At(2, 2).Displacement).To(Equal(0.25))
			Expect(g.At(2, 2).Properties()).To(Equal(props))
		})

		It("stops on a canceled context", func() {
			g, tpl := buildGrid(mixedLabels())
			m, _ := thermal.New(g, tpl.MaxConductivity(), hotEdges())
			m.ApplyBoundaryConditions()
			before := g.Temperatures()

			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := m.Simulate(canceled, 100)
			Expect(err).To(MatchError(context.Canceled))
			Expect(g.Temperatures()).To(Equal(before))
			Expect(m.Iterations()).To(BeZero())
		})
	})
})
