package formula

import (
	"fmt"

	"github.com/smallyu/go-ecc-sim/internal/crypto/op"
)

// Metrics counts the field operations of a formula by type. Squarings
// are counted separately from general multiplications because most
// cost models price them differently.
type Metrics struct {
	Multiplications int
	Squarings       int
	Additions       int
	Subtractions    int
	Negations       int
	Inversions      int
	Divisions       int
	Powers          int
	Others          int
}

// Total is the overall operation count.
func (m Metrics) Total() int {
	return m.Multiplications + m.Squarings + m.Additions + m.Subtractions +
		m.Negations + m.Inversions + m.Divisions + m.Powers + m.Others
}

// Weight is the cost used to rank formulas against each other:
// multiplications and squarings dominate, inversions and divisions are
// priced as a large constant multiple.
func (m Metrics) Weight() int {
	return m.Multiplications + m.Squarings + 20*(m.Inversions+m.Divisions) + m.Powers
}

func (m Metrics) String() string {
	return fmt.Sprintf("%dM + %dS + %da + %ds (total %d)",
		m.Multiplications, m.Squarings, m.Additions, m.Subtractions, m.Total())
}

// Count tallies the operations of a program.
func Count(code []op.Op) Metrics {
	var m Metrics
	for _, o := range code {
		switch o.Type {
		case op.Mult:
			m.Multiplications++
		case op.Sqr:
			m.Squarings++
		case op.Add:
			m.Additions++
		case op.Sub:
			m.Subtractions++
		case op.Neg:
			m.Negations++
		case op.Inv:
			m.Inversions++
		case op.Div:
			m.Divisions++
		case op.Pow:
			m.Powers++
		default:
			m.Others++
		}
	}
	return m
}

// Cost returns the operation counts of the formula.
func (f *Formula) Cost() Metrics {
	return Count(f.Code)
}
