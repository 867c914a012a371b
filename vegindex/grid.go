package vegindex

import "math"

// Grid is a row-major raster of float64 samples.
type Grid struct {
	Width  int
	Height int
	Data   []float64
}

func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// GridFromRows builds a grid from equal-length rows. Used mostly by tests
// and small synthetic inputs.
func GridFromRows(rows [][]float64) *Grid {
	if len(rows) == 0 {
		return NewGrid(0, 0)
	}
	g := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		copy(g.Data[y*g.Width:(y+1)*g.Width], row)
	}
	return g
}

func (g *Grid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

func (g *Grid) Set(x, y int, v float64) {
	g.Data[y*g.Width+x] = v
}

func (g *Grid) Len() int {
	return len(g.Data)
}

func (g *Grid) SameShape(o *Grid) bool {
	return g.Width == o.Width && g.Height == o.Height && len(g.Data) == len(o.Data)
}

// Valid returns the finite samples of the grid. NaN marks NoData; ±Inf
// samples are dropped as well.
func (g *Grid) Valid() []float64 {
	valid := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		valid = append(valid, v)
	}
	return valid
}

// BandTriple holds the co-registered R, G and B digital numbers of one image.
type BandTriple struct {
	R, G, B *Grid
}

// NewBandTriple checks that the three bands share one shape.
func NewBandTriple(r, g, b *Grid) (BandTriple, error) {
	if r == nil || g == nil || b == nil {
		return BandTriple{}, &ShapeMismatchError{Reason: "missing band"}
	}
	if !r.SameShape(g) || !r.SameShape(b) {
		return BandTriple{}, &ShapeMismatchError{
			Reason: "band dimensions differ",
			Shapes: [][2]int{{r.Width, r.Height}, {g.Width, g.Height}, {b.Width, b.Height}},
		}
	}
	return BandTriple{R: r, G: g, B: b}, nil
}

func (t BandTriple) Width() int  { return t.R.Width }
func (t BandTriple) Height() int { return t.R.Height }

// NormalizedTriple holds chromatic coordinates r, g, b with r+g+b = 1 on
// every pixel whose brightness is non-zero. Other pixels are NaN.
type NormalizedTriple struct {
	R, G, B *Grid
}
