package mines

import (
	"fmt"
	"strings"
	"sync"
)

// Grid is the shared board. Cells live in a row-major arena and are only
// reached through Grid methods, which take mu: mutations exclusively,
// renders and queries shared.
type Grid struct {
	mu    sync.RWMutex
	rows  int
	cols  int
	cells []Cell
}

// DigResult describes what a single dig did.
type DigResult struct {
	Exploded bool // the dug cell held a bomb, which is now defused
	Revealed int  // cells turned from untouched to dug, cascade included
}

func New(rows, cols int, src BombSource) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	if src == nil {
		src = RandomBombs{}
	}
	layout, err := src.Layout(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(layout) != rows*cols {
		return nil, malformed(0, "bomb layout has %d cells, want %d", len(layout), rows*cols)
	}
	cells := make([]Cell, len(layout))
	for i, bomb := range layout {
		cells[i] = UntouchedCell(bomb)
	}
	return &Grid{rows: rows, cols: cols, cells: cells}, nil
}

func (g *Grid) Rows() int    { return g.rows }
func (g *Grid) Columns() int { return g.cols }
func (g *Grid) Size() int    { return g.rows * g.cols }

func (g *Grid) Dimensions() (rows, cols int) {
	return g.rows, g.cols
}

func (g *Grid) inBounds(row, col int) bool {
	return 0 <= row && row < g.rows && 0 <= col && col < g.cols
}

func (g *Grid) index(row, col int) int {
	return row*g.cols + col
}

// Cell returns a copy of the cell at row, col.
func (g *Grid) Cell(row, col int) (Cell, bool) {
	if !g.inBounds(row, col) {
		return Cell{}, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cells[g.index(row, col)], true
}

func (g *Grid) HasBomb(row, col int) bool {
	c, ok := g.Cell(row, col)
	return ok && c.HasBomb()
}

func (g *Grid) AdjacentBombs(row, col int) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.adjacentBombs(row, col)
}

// caller must hold mu
func (g *Grid) adjacentBombs(row, col int) int {
	n := 0
	for _, p := range Pos(row, col).Neighbors() {
		if g.inBounds(p.X, p.Y) && g.cells[g.index(p.X, p.Y)].HasBomb() {
			n++
		}
	}
	return n
}

// Dig reveals the cell at row, col. Out of bounds, flagged and already
// dug cells are left alone. Digging a bomb defuses it: the bomb stops
// counting for every neighbour, including neighbours that are already
// dug. A cell with no neighbouring bombs cascades to its untouched
// neighbours.
func (g *Grid) Dig(row, col int) DigResult {
	if !g.inBounds(row, col) {
		return DigResult{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.index(row, col)
	c := g.cells[i]
	if c.IsDug() || c.HasFlag() {
		return DigResult{}
	}

	var res DigResult
	if c.HasBomb() {
		res.Exploded = true
		g.cells[i] = UntouchedCell(false)
		g.defuseAround(row, col)
	}

	count := g.adjacentBombs(row, col)
	g.cells[i] = c.Dig(count)
	res.Revealed = 1
	if count > 0 {
		return res
	}

	/*
	 * Flood fill with an explicit stack. Every cell is turned to Dug
	 * before its neighbours are pushed and Dug cells are skipped, so a
	 * cell is revealed at most once and the loop terminates.
	 */
	var todo celltodo
	g.pushUntouched(&todo, row, col)
	for {
		j, ok := todo.next()
		if !ok {
			break
		}
		n := g.cells[j]
		if n.IsDug() || n.HasFlag() {
			continue
		}
		r, cc := j/g.cols, j%g.cols
		count := g.adjacentBombs(r, cc)
		g.cells[j] = n.Dig(count)
		res.Revealed++
		if count == 0 {
			g.pushUntouched(&todo, r, cc)
		}
	}
	return res
}

// caller must hold mu
func (g *Grid) pushUntouched(todo *celltodo, row, col int) {
	for _, p := range Pos(row, col).Neighbors() {
		if !g.inBounds(p.X, p.Y) {
			continue
		}
		j := g.index(p.X, p.Y)
		if g.cells[j].Kind() == Untouched {
			todo.add(j)
		}
	}
}

// defuseAround keeps the counts of dug neighbours in step after the bomb
// at row, col has been removed. Caller must hold mu.
func (g *Grid) defuseAround(row, col int) {
	for _, p := range Pos(row, col).Neighbors() {
		if !g.inBounds(p.X, p.Y) {
			continue
		}
		j := g.index(p.X, p.Y)
		if n := g.cells[j]; n.IsDug() && n.AdjacentBombs() > 0 {
			g.cells[j] = n.withCount(n.AdjacentBombs() - 1)
		}
	}
}

// Flag marks an untouched cell. It reports whether the cell changed.
func (g *Grid) Flag(row, col int) bool {
	return g.update(row, col, Cell.Flag)
}

// Deflag removes a flag. It reports whether the cell changed.
func (g *Grid) Deflag(row, col int) bool {
	return g.update(row, col, Cell.Deflag)
}

func (g *Grid) update(row, col int, fn func(Cell) Cell) bool {
	if !g.inBounds(row, col) {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.index(row, col)
	next := fn(g.cells[i])
	if next == g.cells[i] {
		return false
	}
	g.cells[i] = next
	return true
}

// Render returns the board as rows of space separated tokens, one row per
// line and no trailing newline. The whole board is read under one lock.
func (g *Grid) Render() string {
	return g.render(Cell.String)
}

// RenderMarkers is Render with exploded cells shown as "*".
func (g *Grid) RenderMarkers() string {
	return g.render(Cell.Marker)
}

func (g *Grid) render(token func(Cell) string) string {
	var b strings.Builder
	b.Grow(g.rows * g.cols * 2)

	g.mu.RLock()
	defer g.mu.RUnlock()

	for y := range g.rows {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := range g.cols {
			if x > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(token(g.cells[g.index(y, x)]))
		}
	}
	return b.String()
}

// [*Grid] implements [fmt.Stringer]
func (g *Grid) String() string {
	return g.Render()
}
