package mines

import (
	"hash/maphash"
	"math/rand/v2"
)

// DefaultBombProbability is the chance that a randomly generated cell
// holds a bomb.
const DefaultBombProbability = 0.25

// A BombSource decides which cells of a rows x cols board hold bombs. The
// result is row-major.
type BombSource interface {
	Layout(rows, cols int) ([]bool, error)
}

// RandomBombs places a bomb in each cell independently with the given
// probability. A nil Rand is seeded from [maphash]; a zero Probability
// means [DefaultBombProbability].
type RandomBombs struct {
	Rand        *rand.Rand
	Probability float64
}

func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func (rb RandomBombs) Layout(rows, cols int) ([]bool, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	r := rb.Rand
	if r == nil {
		r = NewRand()
	}
	p := rb.Probability
	if p == 0 {
		p = DefaultBombProbability
	}
	layout := make([]bool, rows*cols)
	for i := range layout {
		layout[i] = r.Float64() < p
	}
	return layout, nil
}

// BombMatrix is a row-major matrix where 1 marks a bomb and 0 a safe cell.
type BombMatrix [][]int

func (m BombMatrix) Layout(rows, cols int) ([]bool, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	if len(m) != rows {
		return nil, malformed(0, "expected %d rows, got %d", rows, len(m))
	}
	layout := make([]bool, 0, rows*cols)
	for y, row := range m {
		if len(row) != cols {
			return nil, malformed(0, "row %d: expected %d columns, got %d", y, cols, len(row))
		}
		for x, v := range row {
			switch v {
			case 0:
				layout = append(layout, false)
			case 1:
				layout = append(layout, true)
			default:
				return nil, malformed(0, "cell (%d,%d): value %d is not 0 or 1", y, x, v)
			}
		}
	}
	return layout, nil
}

// NoBombs is a source with every cell safe.
type NoBombs struct{}

func (NoBombs) Layout(rows, cols int) ([]bool, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	return make([]bool, rows*cols), nil
}
