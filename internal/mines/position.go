package mines

import "fmt"

// Position is a grid coordinate. X is the row and Y the column.
type Position struct {
	X, Y int
}

func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

func (p Position) Equal(other Position) bool {
	return p == other
}

// Compare orders positions by X, then by Y. It returns -1, 0 or +1.
func (p Position) Compare(other Position) int {
	switch {
	case p.X < other.X:
		return -1
	case p.X > other.X:
		return 1
	case p.Y < other.Y:
		return -1
	case p.Y > other.Y:
		return 1
	default:
		return 0
	}
}

// [Position] implements [fmt.Stringer]
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

var neighborOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Neighbors returns the eight surrounding positions, without bounds checks.
func (p Position) Neighbors() [8]Position {
	var ns [8]Position
	for i, d := range neighborOffsets {
		ns[i] = Position{X: p.X + d[0], Y: p.Y + d[1]}
	}
	return ns
}
