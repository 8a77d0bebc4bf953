package engine_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/asphaltsim/internal/engine"
	"github.com/san-kum/asphaltsim/internal/mixture"
	"github.com/san-kum/asphaltsim/internal/volume"
)

var params = engine.Params{
	Aggregate: mixture.Properties{ElasticModulus: 30000, ThermalConductivity: 2.0, ChemicalValue: 0.1},
	Mastic:    mixture.Properties{ElasticModulus: 3000, ThermalConductivity: 0.7, ChemicalValue: 0.5},
	AirVoid:   mixture.Properties{ElasticModulus: 50, ThermalConductivity: 0.03, ChemicalValue: 0},
}

type recorder struct {
	mu    sync.Mutex
	stats []engine.CycleStats
}

func (r *recorder) OnCycle(s engine.CycleStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, s)
}

func smallVolume() *volume.Volume {
	opts := volume.DefaultGenerateOptions()
	opts.NX, opts.NY, opts.NZ = 16, 12, 6
	v, err := volume.Generate(opts)
	Expect(err).NotTo(HaveOccurred())
	return v
}

func configFor(slice int) engine.Config {
	cfg := engine.DefaultConfig()
	cfg.SliceID = slice
	return cfg
}

var _ = Describe("Engine", func() {
	ctx := context.Background()

	Describe("New", func() {
		It("rejects slice indices at or beyond the volume depth", func() {
			vol := smallVolume()
			for _, id := range []int{6, 50, -1} {
				eng, err := engine.New(params, vol, configFor(id))
				Expect(err).To(MatchError(mixture.ErrIndexOutOfRange))
				Expect(eng).To(BeNil())
			}
		})

		It("builds the transposed slice as a grid", func() {
			vol := smallVolume()
			eng, err := engine.New(params, vol, configFor(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Grid().Rows()).To(Equal(12))
			Expect(eng.Grid().Cols()).To(Equal(16))
			Expect(eng.Grid().Category(4, 7)).To(Equal(mixture.Category(vol.At(7, 4, 3))))
		})

		It("surfaces invalid labels", func() {
			vol, err := volume.FromData(2, 2, 1, []uint8{0, 1, 2, 9})
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.New(params, vol, configFor(0))
			Expect(err).To(MatchError(mixture.ErrInvalidLabel))
		})
	})

	Describe("RunCycle", func() {
		It("runs thermal then mechanics with the defaults", func() {
			eng, err := engine.New(params, smallVolume(), configFor(2))
			Expect(err).NotTo(HaveOccurred())

			grid, err := eng.RunCycle(ctx, engine.DefaultThermal, engine.DefaultMech, engine.DefaultChemical)
			Expect(err).NotTo(HaveOccurred())
			Expect(grid).To(BeIdenticalTo(eng.Grid()))

			rows, cols := grid.Rows(), grid.Cols()
			for c := 0; c < cols; c++ {
				Expect(grid.At(0, c).Temperature).To(Equal(engine.DefaultAmbient))
				Expect(grid.At(rows-1, c).Displacement).To(BeZero())
				Expect(grid.At(0, c).Displacement).To(BeNumerically(">", 0))
			}
			for _, row := range grid.Temperatures() {
				for _, t := range row {
					Expect(t).To(BeNumerically(">=", 0))
					Expect(t).To(BeNumerically("<=", engine.DefaultAmbient))
				}
			}
			Expect(eng.Mechanics().Inputs()).To(BeEmpty())
		})

		It("yields zero displacement for zero load on a mixed 2x2 grid", func() {
			cfg := engine.DefaultConfig()
			cfg.Load = 0
			eng, err := engine.NewFromLabels(params, [][]int{{0, 1}, {2, 0}}, cfg)
			Expect(err).NotTo(HaveOccurred())

			grid, err := eng.RunCycle(ctx, 10, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			for _, row := range grid.Displacements() {
				for _, u := range row {
					Expect(u).To(BeZero())
				}
			}
		})

		It("reaches the same displacement with incremental load steps", func() {
			single, _ := engine.New(params, smallVolume(), configFor(1))
			stepped, _ := engine.New(params, smallVolume(), configFor(1))

			a, err := single.RunCycle(ctx, 50, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			b, err := stepped.RunCycle(ctx, 50, 4, 1)
			Expect(err).NotTo(HaveOccurred())

			da, db := a.Displacements(), b.Displacements()
			for r := range da {
				for c := range da[r] {
					Expect(db[r][c]).To(BeNumerically("~", da[r][c], 1e-6))
				}
			}
		})

		It("notifies observers on success and failure", func() {
			rec := &recorder{}
			eng, _ := engine.New(params, smallVolume(), configFor(0))
			eng.AddObserver(rec)

			_, err := eng.RunCycle(ctx, 25, 2, 1)
			Expect(err).NotTo(HaveOccurred())

			grid, err := eng.RunCycle(ctx, 25, 0, 1)
			Expect(err).To(MatchError(mixture.ErrInvalidParameter))
			Expect(grid).To(BeNil())

			Expect(rec.stats).To(HaveLen(2))
			ok := rec.stats[0]
			Expect(ok.Err).NotTo(HaveOccurred())
			Expect(ok.ThermalIterations).To(Equal(25))
			Expect(ok.LoadSteps).To(Equal(2))
			Expect(ok.MechanicalSweeps).To(BeNumerically(">", 0))
			Expect(ok.TimeStep).To(BeNumerically("~", 0.9/(4*2.0), 1e-12))
			Expect(rec.stats[1].Err).To(HaveOccurred())
		})

		It("rejects negative iteration counts", func() {
			eng, _ := engine.New(params, smallVolume(), configFor(0))
			_, err := eng.RunCycle(ctx, -1, 1, 1)
			Expect(err).To(MatchError(mixture.ErrInvalidParameter))
			_, err = eng.RunCycle(ctx, 1, 1, -1)
			Expect(err).To(MatchError(mixture.ErrInvalidParameter))
		})

		It("fails fast when no phase conducts heat", func() {
			cold := params
			cold.Aggregate.ThermalConductivity = 0
			cold.Mastic.ThermalConductivity = 0
			cold.AirVoid.ThermalConductivity = 0
			eng, err := engine.New(cold, smallVolume(), configFor(0))
			Expect(err).NotTo(HaveOccurred())

			_, err = eng.RunCycle(ctx, 10, 1, 1)
			Expect(err).To(MatchError(mixture.ErrInvalidParameter))
		})

		It("returns the context error when canceled", func() {
			eng, _ := engine.New(params, smallVolume(), configFor(0))
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			grid, err := eng.RunCycle(canceled, 10, 1, 1)
			Expect(err).To(MatchError(context.Canceled))
			Expect(grid).To(BeNil())
		})
	})

	Describe("RunSlices", func() {
		It("runs independent grids per slice", func() {
			rec := &recorder{}
			vol := smallVolume()
			grids, err := engine.RunSlices(ctx, params, vol, engine.DefaultConfig(), []int{0, 2, 4},
				engine.Iterations{Thermal: 20, Mechanical: 1}, rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(grids).To(HaveLen(3))
			Expect(grids[0]).NotTo(BeIdenticalTo(grids[1]))
			Expect(rec.stats).To(HaveLen(3))

			grids[0].At(1, 1).Temperature = -1000
			Expect(grids[1].At(1, 1).Temperature).NotTo(Equal(-1000.0))
		})

		It("fails when any slice is out of range", func() {
			_, err := engine.RunSlices(ctx, params, smallVolume(), engine.DefaultConfig(), []int{0, 99},
				engine.DefaultIterations())
			Expect(err).To(MatchError(mixture.ErrIndexOutOfRange))
		})
	})
})
