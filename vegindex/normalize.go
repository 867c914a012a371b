package vegindex

import (
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Normalize converts digital numbers to chromatic coordinates,
// r = R/(R+G+B) and likewise for g and b. A zero sum leaves NaN in all
// three channels, and so does a NaN or infinite sample in any input band.
// Sums too large for float64 are computed on rescaled samples.
func Normalize(bands BandTriple, numWorkers int) (NormalizedTriple, error) {
	logrus.Debug("Entered Normalize")
	if _, err := NewBandTriple(bands.R, bands.G, bands.B); err != nil {
		return NormalizedTriple{}, err
	}

	w, h := bands.Width(), bands.Height()
	out := NormalizedTriple{R: NewGrid(w, h), G: NewGrid(w, h), B: NewGrid(w, h)}

	var eg errgroup.Group
	eg.SetLimit(workerCount(numWorkers))
	for _, span := range rowSpans(h, numWorkers) {
		lo, hi := span[0]*w, span[1]*w
		eg.Go(func() error {
			normalizeRange(bands, out, lo, hi)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return NormalizedTriple{}, err
	}
	logrus.Debug("Exited Normalize")
	return out, nil
}

func normalizeRange(bands BandTriple, out NormalizedTriple, lo, hi int) {
	for i := lo; i < hi; i++ {
		r, g, b := bands.R.Data[i], bands.G.Data[i], bands.B.Data[i]
		sum := r + g + b
		if math.IsInf(sum, 0) {
			// Scale by the brightest channel so the sum stays finite.
			m := math.Max(math.Abs(r), math.Max(math.Abs(g), math.Abs(b)))
			r, g, b = r/m, g/m, b/m
			sum = r + g + b
		}
		if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
			out.R.Data[i], out.G.Data[i], out.B.Data[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		out.R.Data[i] = r / sum
		out.G.Data[i] = g / sum
		out.B.Data[i] = b / sum
	}
}

// rowSpans splits height rows into at most n contiguous [start, end) spans.
func rowSpans(height, n int) [][2]int {
	n = workerCount(n)
	if height == 0 {
		return nil
	}
	if n > height {
		n = height
	}
	step := (height + n - 1) / n
	var spans [][2]int
	for start := 0; start < height; start += step {
		end := start + step
		if end > height {
			end = height
		}
		spans = append(spans, [2]int{start, end})
	}
	return spans
}

func workerCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
