package grid

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Cell holds the color of a single canvas position. The empty string means
// the cell has never been painted; it marshals as JSON null so clients see
// the null-for-unset shape the wire protocol promises.
type Cell string

var nullJSON = []byte("null")

// MarshalJSON renders unset cells as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c == "" {
		return nullJSON, nil
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON accepts either a color string or null.
func (c *Cell) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cell: invalid JSON value %q: %w", data, err)
	}
	*c = Cell(s)
	return nil
}

// ErrOutOfBounds is the sentinel matched by errors.Is for coordinate
// violations.
var ErrOutOfBounds = errors.New("coordinates out of bounds")

// OutOfBoundsError reports the offending coordinates and the grid
// dimensions they violated.
type OutOfBoundsError struct {
	X, Y          int
	Width, Height int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("coordinates (%d, %d) out of bounds for %dx%d grid", e.X, e.Y, e.Width, e.Height)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Grid is the authoritative canvas: a fixed-dimension 2D array of cells
// stored row-major. Dimensions never change after construction. The grid
// performs no locking of its own; the hub serializes all access.
type Grid struct {
	width  int
	height int
	cells  []Cell
}

// New constructs an empty grid. Dimensions must be positive; callers are
// expected to normalize configuration before reaching this point.
func New(width, height int) *Grid {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}
}

// Width reports the fixed horizontal dimension.
func (g *Grid) Width() int { return g.width }

// Height reports the fixed vertical dimension.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether the coordinates address a cell.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Get returns the cell at (x, y).
func (g *Grid) Get(x, y int) (Cell, error) {
	if !g.InBounds(x, y) {
		return "", &OutOfBoundsError{X: x, Y: y, Width: g.width, Height: g.height}
	}
	return g.cells[y*g.width+x], nil
}

// Set writes a color at (x, y) and returns the previous cell value. It is
// the sole mutation path; color validity is the caller's responsibility.
func (g *Grid) Set(x, y int, color Cell) (Cell, error) {
	if !g.InBounds(x, y) {
		return "", &OutOfBoundsError{X: x, Y: y, Width: g.width, Height: g.height}
	}
	idx := y*g.width + x
	previous := g.cells[idx]
	g.cells[idx] = color
	return previous, nil
}

// Rows exposes the grid row-major without copying cell data. The returned
// slices alias the backing array and must only be read while the caller
// still holds the hub lock.
func (g *Grid) Rows() [][]Cell {
	rows := make([][]Cell, g.height)
	for y := 0; y < g.height; y++ {
		rows[y] = g.cells[y*g.width : (y+1)*g.width : (y+1)*g.width]
	}
	return rows
}

// Snapshot deep-copies the grid row-major for use outside the hub lock.
func (g *Grid) Snapshot() [][]Cell {
	rows := make([][]Cell, g.height)
	for y := 0; y < g.height; y++ {
		row := make([]Cell, g.width)
		copy(row, g.cells[y*g.width:(y+1)*g.width])
		rows[y] = row
	}
	return rows
}

// Restore replaces the grid contents with a persisted snapshot. Snapshots
// whose dimensions do not match the configured grid are rejected so a
// resized deployment starts from an empty canvas instead of a skewed one.
func (g *Grid) Restore(rows [][]Cell) error {
	if len(rows) != g.height {
		return fmt.Errorf("restore: snapshot has %d rows, grid expects %d", len(rows), g.height)
	}
	for y, row := range rows {
		if len(row) != g.width {
			return fmt.Errorf("restore: row %d has %d cells, grid expects %d", y, len(row), g.width)
		}
	}
	for y, row := range rows {
		copy(g.cells[y*g.width:(y+1)*g.width], row)
	}
	return nil
}

// Painted counts cells that currently hold a color. Diagnostics only; the
// pixel counter reported to clients is a write count, not this value.
func (g *Grid) Painted() int {
	painted := 0
	for _, cell := range g.cells {
		if cell != "" {
			painted++
		}
	}
	return painted
}
