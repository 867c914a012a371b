package rasterio

import (
	"errors"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"vi-tools/vegindex"
)

// WriteQuicklook renders an index grid as a grayscale PNG, stretched from
// the grid minimum (black) to its maximum (white). NoData stays transparent.
func WriteQuicklook(path string, ig vegindex.IndexGrid) error {
	grid := ig.Grid
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range grid.Valid() {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span <= 0 || math.IsInf(span, 0) {
		span = 1
	}

	dc := gg.NewContext(grid.Width, grid.Height)
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			v := grid.At(x, y)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			gray := (v - lo) / span
			dc.SetRGB(gray, gray, gray)
			dc.SetPixel(x, y)
		}
	}
	return savePNG(dc, path)
}

// savePNG encodes into a temporary file next to path and renames it into
// place, so a failed render never leaves a partial image behind.
func savePNG(dc *gg.Context, path string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err := dc.EncodePNG(tmp); err != nil {
		return &vegindex.WriteError{Path: path, Err: errors.Join(err, tmp.Close())}
	}
	if err := tmp.Close(); err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	return nil
}
