package vegindex

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StatRecord summarises one index grid.
type StatRecord struct {
	Name   string
	Mean   float64
	Max    float64
	Min    float64
	StdDev float64
}

// Aggregate reduces the finite pixels of an index grid to mean, max, min
// and population standard deviation.
func Aggregate(ig IndexGrid) (StatRecord, error) {
	valid := ig.Grid.Valid()
	if len(valid) == 0 {
		return StatRecord{}, &EmptyGridError{Index: ig.Name}
	}
	hi, lo := floats.Max(valid), floats.Min(valid)
	if hi == lo {
		// A constant grid must report its exact value and zero spread.
		return StatRecord{Name: ig.Name, Mean: lo, Max: hi, Min: lo}, nil
	}
	mean, variance := stat.PopMeanVariance(valid, nil)
	return StatRecord{
		Name:   ig.Name,
		Mean:   math.Min(math.Max(mean, lo), hi),
		Max:    hi,
		Min:    lo,
		StdDev: math.Sqrt(math.Max(variance, 0)),
	}, nil
}

// placeholderRecord stands in for an index without valid pixels when the
// caller opts to keep going.
func placeholderRecord(name string) StatRecord {
	nan := math.NaN()
	return StatRecord{Name: name, Mean: nan, Max: nan, Min: nan, StdDev: nan}
}
