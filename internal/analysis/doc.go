// Package analysis reduces simulated grids to the scalar figures reported by
// the CLI and stored with each run.
//
//   - [FieldStats]: min, max, mean and standard deviation of a field
//   - [Column], [Row]: profiles through a field
//   - [Summarize]: phase fractions plus temperature and displacement stats
//
// # Example
//
//	grid, _ := eng.RunCycle(ctx, 200, 1, 1)
//	s := analysis.Summarize(grid)
//	fmt.Println(s.Temperature.Mean, s.Displacement.Max)
package analysis
