package mechanics_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/asphaltsim/internal/mechanics"
	"github.com/san-kum/asphaltsim/internal/mixture"
)

const (
	eAggregate = 30000.0
	eMastic    = 3000.0
	eAirVoid   = 50.0
)

func buildGrid(labels [][]int) *mixture.Grid {
	tpl, err := mixture.NewTemplates(
		mixture.Properties{ElasticModulus: eAggregate, ThermalConductivity: 2.0},
		mixture.Properties{ElasticModulus: eMastic, ThermalConductivity: 0.7},
		mixture.Properties{ElasticModulus: eAirVoid, ThermalConductivity: 0.03},
	)
	Expect(err).NotTo(HaveOccurred())
	g, err := mixture.Build(labels, tpl)
	Expect(err).NotTo(HaveOccurred())
	return g
}

func uniform(rows, cols, label int) [][]int {
	out := make([][]int, rows)
	for r := range out {
		out[r] = make([]int, cols)
		for c := range out[r] {
			out[r][c] = label
		}
	}
	return out
}

func series(a, b float64) float64 { return 2 * a * b / (a + b) }

var _ = Describe("Model", func() {
	ctx := context.Background()

	It("refuses to simulate before boundary conditions", func() {
		m, err := mechanics.New(buildGrid(uniform(3, 3, 2)), mechanics.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(m.State()).To(Equal(mechanics.Uninitialized))

		_, err = m.Simulate(ctx)
		Expect(err).To(MatchError(mixture.ErrIllegalState))
	})

	It("walks Uninitialized -> Configured -> Solved", func() {
		m, _ := mechanics.New(buildGrid(uniform(3, 3, 1)), mechanics.DefaultConfig())
		Expect(m.ApplyBoundaryConditions(800)).To(Succeed())
		Expect(m.State()).To(Equal(mechanics.Configured))
		Expect(m.Load()).To(Equal(800.0))

		_, err := m.Simulate(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.State()).To(Equal(mechanics.Solved))
		Expect(m.Converged()).To(BeTrue())
	})

	It("produces zero displacement under zero load", func() {
		g := buildGrid([][]int{{0, 1}, {2, 0}})
		m, _ := mechanics.New(g, mechanics.DefaultConfig())
		Expect(m.ApplyBoundaryConditions(0)).To(Succeed())

		out, err := m.Simulate(ctx)
		Expect(err).NotTo(HaveOccurred())
		for _, row := range out.Displacements() {
			for _, u := range row {
				Expect(u).To(BeZero())
			}
		}
	})

	It("matches the series-spring solution of a uniform column", func() {
		g := buildGrid(uniform(5, 4, 2))
		m, _ := mechanics.New(g, mechanics.DefaultConfig())
		Expect(m.ApplyBoundaryConditions(800)).To(Succeed())

		_, err := m.Simulate(ctx)
		Expect(err).NotTo(HaveOccurred())

		share := 800.0 / 4
		for r := 0; r < 5; r++ {
			want := share / eAggregate * float64(4-r)
			for c := 0; c < 4; c++ {
				Expect(g.At(r, c).Displacement).To(BeNumerically("~", want, 1e-7))
			}
		}
	})

	It("accumulates compliance through layered materials", func() {
		g := buildGrid([][]int{{2, 2}, {1, 1}, {2, 2}})
		m, _ := mechanics.New(g, mechanics.DefaultConfig())
		Expect(m.ApplyBoundaryConditions(100)).To(Succeed())
		_, err := m.Simulate(ctx)
		Expect(err).NotTo(HaveOccurred())

		f := 100.0 / 2
		k := series(eAggregate, eMastic)
		Expect(g.At(2, 0).Displacement).To(BeZero())
		Expect(g.At(1, 0).Displacement).To(BeNumerically("~", f/k, 1e-9))
		Expect(g.At(0, 1).Displacement).To(BeNumerically("~", 2*f/k, 1e-9))
	})

	It("deforms a soft grid more than a stiff one", func() {
		stiff := buildGrid(uniform(6, 6, 2))
		soft := buildGrid(uniform(6, 6, 1))
		for _, g := range []*mixture.Grid{stiff, soft} {
			m, _ := mechanics.New(g, mechanics.DefaultConfig())
			Expect(m.ApplyBoundaryConditions(800)).To(Succeed())
			_, err := m.Simulate(ctx)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(soft.At(0, 3).Displacement).To(BeNumerically(">", stiff.At(0, 3).Displacement))
	})

	It("clamps the configured edge and loads the opposite one", func() {
		cfg := mechanics.DefaultConfig()
		cfg.Clamp = mechanics.EdgeLeft
		g := buildGrid(uniform(3, 4, 1))
		m, _ := mechanics.New(g, cfg)
		Expect(m.ApplyBoundaryConditions(30)).To(Succeed())
		_, err := m.Simulate(ctx)
		Expect(err).NotTo(HaveOccurred())

		for r := 0; r < 3; r++ {
			Expect(g.At(r, 0).Displacement).To(BeZero())
			Expect(g.At(r, 3).Displacement).To(BeNumerically("~", 30.0/3/eMastic*3, 1e-9))
		}
	})

	It("leaves temperature untouched", func() {
		g := buildGrid(uniform(4, 4, 1))
		g.At(1, 1).Temperature = 61
		m, _ := mechanics.New(g, mechanics.DefaultConfig())
		Expect(m.ApplyBoundaryConditions(800)).To(Succeed())
		_, err := m.Simulate(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.At(1, 1).Temperature).To(Equal(61.0))
	})

	It("warm starts from the previous solution on reconfiguration", func() {
		g := buildGrid(uniform(8, 8, 1))
		m, _ := mechanics.New(g, mechanics.DefaultConfig())
		Expect(m.ApplyBoundaryConditions(800)).To(Succeed())
		_, err := m.Simulate(ctx)
		Expect(err).NotTo(HaveOccurred())
		cold := m.Sweeps()
		solved := g.Displacements()

		Expect(m.ApplyBoundaryConditions(800)).To(Succeed())
		_, err = m.Simulate(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Sweeps()).To(BeNumerically("<", cold))
		for r, row := range g.Displacements() {
			for c, u := range row {
				Expect(u).To(BeNumerically("~", solved[r][c], 1e-6))
			}
		}
	})

	Describe("coupling contract", func() {
		It("reads no upstream field by default", func() {
			m, _ := mechanics.New(buildGrid(uniform(2, 2, 1)), mechanics.DefaultConfig())
			Expect(m.Inputs()).To(BeEmpty())
		})

		It("reads temperature when thermal softening is enabled", func() {
			cfg := mechanics.DefaultConfig()
			cfg.ThermalSoftening = 0.01
			hot := buildGrid(uniform(4, 3, 1))
			cold := buildGrid(uniform(4, 3, 1))
			for r := 0; r < 4; r++ {
				for c := 0; c < 3; c++ {
					hot.At(r, c).Temperature = 60
					cold.At(r, c).Temperature = cfg.ReferenceTemperature
				}
			}

			for _, g := range []*mixture.Grid{hot, cold} {
				m, err := mechanics.New(g, cfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(m.Inputs()).To(ConsistOf(mixture.FieldTemperature))
				Expect(m.ApplyBoundaryConditions(300)).To(Succeed())
				_, err = m.Simulate(ctx)
				Expect(err).NotTo(HaveOccurred())
			}

			ratio := hot.At(0, 1).Displacement / cold.At(0, 1).Displacement
			Expect(ratio).To(BeNumerically("~", 1/(1-0.01*35), 1e-6))
		})
	})

	Describe("validation", func() {
		It("rejects non-positive moduli", func() {
			tpl, err := mixture.NewTemplates(
				mixture.Properties{ElasticModulus: 1, ThermalConductivity: 1},
				mixture.Properties{ElasticModulus: 1, ThermalConductivity: 1},
				mixture.Properties{ElasticModulus: 0, ThermalConductivity: 1},
			)
			Expect(err).NotTo(HaveOccurred())
			g, err := mixture.Build([][]int{{0, 1}}, tpl)
			Expect(err).NotTo(HaveOccurred())
			_, err = mechanics.New(g, mechanics.DefaultConfig())
			Expect(err).To(MatchError(mixture.ErrInvalidParameter))
		})

		It("rejects a non-finite load", func() {
			m, _ := mechanics.New(buildGrid(uniform(2, 2, 1)), mechanics.DefaultConfig())
			Expect(m.ApplyBoundaryConditions(math.NaN())).To(MatchError(mixture.ErrInvalidParameter))
			Expect(m.State()).To(Equal(mechanics.Uninitialized))
		})

		It("rejects bad solver settings", func() {
			g := buildGrid(uniform(2, 2, 1))
			for _, mutate := range []func(*mechanics.Config){
				func(c *mechanics.Config) { c.Clamp = "diagonal" },
				func(c *mechanics.Config) { c.Tolerance = 0 },
				func(c *mechanics.Config) { c.MaxSweeps = 0 },
				func(c *mechanics.Config) { c.Relaxation = 2 },
			} {
				cfg := mechanics.DefaultConfig()
				mutate(&cfg)
				_, err := mechanics.New(g, cfg)
				Expect(err).To(MatchError(mixture.ErrInvalidParameter))
			}
		})

		It("reports non-convergence", func() {
			cfg := mechanics.DefaultConfig()
			cfg.MaxSweeps = 1
			m, _ := mechanics.New(buildGrid(uniform(10, 10, 1)), cfg)
			Expect(m.ApplyBoundaryConditions(800)).To(Succeed())
			_, err := m.Simulate(ctx)
			Expect(err).To(MatchError(mixture.ErrNotConverged))
			Expect(m.Converged()).To(BeFalse())
		})

		It("parses edge names", func() {
			e, err := mechanics.ParseEdge("left")
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(Equal(mechanics.EdgeLeft))
			Expect(e.Opposite()).To(Equal(mechanics.EdgeRight))

			_, err = mechanics.ParseEdge("diagonal")
			Expect(err).To(MatchError(mixture.ErrInvalidParameter))
		})
	})
})
