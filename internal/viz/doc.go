// Package viz renders simulation output for the terminal.
//
//   - [Heatmap]: per-cell field as coloured blocks with a [Legend]
//   - [PhaseCanvas]: Braille dot map of one material phase
//   - [Profile]: line graph of a row or column through a field
//   - [RenderSummary]: styled panel of field statistics and phase fractions
//
// Colours come from a [Theme]; lipgloss drops them when the output is not a
// terminal, leaving the block layout intact.
package viz
