package vegindex

import (
	"math"
	"strings"
)

// Formula evaluates one vegetation index on a single normalized pixel.
type Formula func(r, g, b float64) float64

type Index struct {
	Name    string
	Formula Formula
	// Expr is the human readable form, printed by the indices command.
	Expr string
}

// Indices lists the supported vegetation indices. The order is the output
// row order and must not change.
var Indices = []Index{
	{"ExR", func(r, g, b float64) float64 { return 1.4*r - g }, "1.4r - g"},
	{"ExG", func(r, g, b float64) float64 { return 2*g - r - b }, "2g - r - b"},
	{"ExB", func(r, g, b float64) float64 { return 1.4*b - g }, "1.4b - g"},
	{"ExGR", func(r, g, b float64) float64 { return 3*g - 2.4*r - b }, "3g - 2.4r - b"},
	{"RGRI", func(r, g, b float64) float64 { return ratio(r, g) }, "r / g"},
	{"GBRI", func(r, g, b float64) float64 { return ratio(b, g) }, "b / g"},
	{"NGRDI", func(r, g, b float64) float64 { return ratio(g-r, g+r) }, "(g - r) / (g + r)"},
	{"NGBDI", func(r, g, b float64) float64 { return ratio(g-b, g+b) }, "(g - b) / (g + b)"},
	{"IKAW", func(r, g, b float64) float64 { return ratio(r-b, r+b) }, "(r - b) / (r + b)"},
	{"VARI", func(r, g, b float64) float64 { return ratio(g-r, g+r+b) }, "(g - r) / (g + r + b)"},
	{"GLI", func(r, g, b float64) float64 { return ratio(2*g-b-r, 2*g+b+r) }, "(2g - b - r) / (2g + b + r)"},
	{"MGRVI", func(r, g, b float64) float64 { return ratio(g*g-r*r, g*g+r*r) }, "(g² - r²) / (g² + r²)"},
	{"RGBVI", func(r, g, b float64) float64 { return ratio(g*g-b*r, g*g+b*r) }, "(g² - b·r) / (g² + b·r)"},
}

// ratio divides num by den, yielding NaN for a zero denominator so that
// undefined pixels drop out of the statistics instead of becoming ±Inf.
func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// Lookup finds an index by name, ignoring case.
func Lookup(name string) (Index, bool) {
	for _, idx := range Indices {
		if strings.EqualFold(idx.Name, name) {
			return idx, true
		}
	}
	return Index{}, false
}

// IndexGrid is one evaluated vegetation index.
type IndexGrid struct {
	Name string
	Grid *Grid
}

// Evaluate applies idx to every pixel of the normalized triple.
func Evaluate(idx Index, norm NormalizedTriple) IndexGrid {
	out := NewGrid(norm.R.Width, norm.R.Height)
	for i := range out.Data {
		out.Data[i] = idx.Formula(norm.R.Data[i], norm.G.Data[i], norm.B.Data[i])
	}
	return IndexGrid{Name: idx.Name, Grid: out}
}
