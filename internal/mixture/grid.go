package mixture

import "fmt"

// Grid is a row-major arena of materials indexed [row, col]. Its shape is
// fixed at construction and every cell is populated.
type Grid struct {
	rows, cols int
	cells      []Material
}

// Build classifies a labelled slice into a grid, copying the template
// selected by each label: 0 air void, 1 mastic, 2 aggregate.
func Build(labels [][]int, t Templates) (*Grid, error) {
	rows := len(labels)
	if rows == 0 || len(labels[0]) == 0 {
		return nil, fmt.Errorf("%w: empty label slice", ErrInvalidParameter)
	}
	cols := len(labels[0])

	g := &Grid{rows: rows, cols: cols, cells: make([]Material, rows*cols)}
	for r, row := range labels {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidParameter, r, len(row), cols)
		}
		for c, label := range row {
			cat, ok := ParseLabel(label)
			if !ok {
				return nil, &LabelError{Row: r, Col: c, Label: label}
			}
			g.cells[r*cols+c] = t.For(cat)
		}
	}
	return g, nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Len() int  { return len(g.cells) }

// At returns the cell at (r, c) for in-place mutation.
func (g *Grid) At(r, c int) *Material {
	return &g.cells[r*g.cols+c]
}

// Index is the arena offset of (r, c).
func (g *Grid) Index(r, c int) int {
	return r*g.cols + c
}

// Cell returns the cell at arena offset i.
func (g *Grid) Cell(i int) *Material {
	return &g.cells[i]
}

func (g *Grid) Category(r, c int) Category {
	return g.cells[r*g.cols+c].category
}

// IsBoundary reports whether (r, c) lies on the outer edge of the grid.
func (g *Grid) IsBoundary(r, c int) bool {
	return r == 0 || c == 0 || r == g.rows-1 || c == g.cols-1
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{rows: g.rows, cols: g.cols, cells: make([]Material, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// Labels reconstructs the category code of every cell.
func (g *Grid) Labels() [][]int {
	out := make([][]int, g.rows)
	for r := range out {
		out[r] = make([]int, g.cols)
		for c := range out[r] {
			out[r][c] = int(g.Category(r, c))
		}
	}
	return out
}

// Field extracts one scalar field as a [row][col] matrix.
func (g *Grid) Field(f Field) [][]float64 {
	out := make([][]float64, g.rows)
	for r := range out {
		out[r] = make([]float64, g.cols)
		for c := range out[r] {
			m := g.At(r, c)
			switch f {
			case FieldTemperature:
				out[r][c] = m.Temperature
			case FieldDisplacement:
				out[r][c] = m.Displacement
			}
		}
	}
	return out
}

func (g *Grid) Temperatures() [][]float64  { return g.Field(FieldTemperature) }
func (g *Grid) Displacements() [][]float64 { return g.Field(FieldDisplacement) }

// Counts returns the number of cells per category.
func (g *Grid) Counts() map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for i := range g.cells {
		counts[g.cells[i].category]++
	}
	return counts
}
