package mines

import "strconv"

type CellKind int8

const (
	Untouched CellKind = iota
	Flagged
	Dug
)

func (k CellKind) String() string {
	switch k {
	case Untouched:
		return "untouched"
	case Flagged:
		return "flagged"
	case Dug:
		return "dug"
	default:
		return "unknown"
	}
}

/*
 * A Cell is an immutable snapshot of one square. Which fields matter
 * depends on the kind:
 *
 *  - Untouched and Flagged carry the bomb flag.
 *
 *  - Dug carries the number of neighbouring bombs and whether the dig
 *    that revealed it hit a bomb. A dug cell never holds a bomb: digging
 *    a bomb defuses it.
 */
type Cell struct {
	kind     CellKind
	bomb     bool
	count    int8
	exploded bool
}

func UntouchedCell(bomb bool) Cell {
	return Cell{kind: Untouched, bomb: bomb}
}

func FlaggedCell(bomb bool) Cell {
	return Cell{kind: Flagged, bomb: bomb}
}

// DugCell panics if count is outside 0..8.
func DugCell(count int, exploded bool) Cell {
	if count < 0 || count > 8 {
		panic("mines: adjacent bomb count out of range: " + strconv.Itoa(count))
	}
	return Cell{kind: Dug, count: int8(count), exploded: exploded}
}

func (c Cell) Kind() CellKind     { return c.kind }
func (c Cell) HasBomb() bool      { return c.bomb }
func (c Cell) HasFlag() bool      { return c.kind == Flagged }
func (c Cell) IsDug() bool        { return c.kind == Dug }
func (c Cell) Exploded() bool     { return c.exploded }
func (c Cell) AdjacentBombs() int { return int(c.count) }

// Flag turns an untouched cell into a flagged one. Other kinds are
// returned unchanged.
func (c Cell) Flag() Cell {
	if c.kind != Untouched {
		return c
	}
	return FlaggedCell(c.bomb)
}

func (c Cell) Deflag() Cell {
	if c.kind != Flagged {
		return c
	}
	return UntouchedCell(c.bomb)
}

// Dig reveals an untouched cell with the given neighbour count. Flagged
// and dug cells are returned unchanged.
func (c Cell) Dig(count int) Cell {
	if c.kind != Untouched {
		return c
	}
	return DugCell(count, c.bomb)
}

// String is the token shown to players. An exploded cell has been
// defused, so it shows its neighbour count like any other dug cell.
func (c Cell) String() string {
	switch c.kind {
	case Untouched:
		return "-"
	case Flagged:
		return "F"
	default:
		if c.count == 0 {
			return " "
		}
		return strconv.Itoa(int(c.count))
	}
}

// Marker is like String but marks exploded cells with "*".
func (c Cell) Marker() string {
	if c.kind == Dug && c.exploded {
		return "*"
	}
	return c.String()
}

// withCount is used when a neighbouring bomb gets defused.
func (c Cell) withCount(count int) Cell {
	c.count = int8(count)
	return c
}
