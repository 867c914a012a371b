package rasterio

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"vi-tools/vegindex"
)

// BandContainer pairs a godal band with the grid it is read into.
type BandContainer struct {
	Band *godal.Band
	Grid *vegindex.Grid
	mu   *sync.Mutex
}

// LoadBands reads the first three bands of an RGB raster as R, G and B.
// Band NoData values are replaced with NaN.
func LoadBands(path string, numWorkers int) (bands vegindex.BandTriple, ref Georef, err error) {
	godal.RegisterAll()

	ds, err := godal.Open(path)
	if err != nil {
		return bands, ref, &vegindex.LoadError{Path: path, Err: err}
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil {
			err = errors.Join(err, &vegindex.LoadError{Path: path, Err: cerr})
		}
	}()

	struc := ds.Structure()
	if struc.NBands < 3 {
		return bands, ref, &vegindex.LoadError{Path: path, Err: fmt.Errorf("need 3 bands, found %d", struc.NBands)}
	}
	if struc.NBands > 3 {
		logrus.Warnf("%s has %d bands, using the first three as R, G, B", path, struc.NBands)
	}

	ref = readGeoref(ds)

	// GDAL dataset handles are not safe for concurrent reads.
	var mu sync.Mutex
	dsBands := ds.Bands()
	grids := make([]*vegindex.Grid, 3)
	var eg errgroup.Group
	eg.SetLimit(workerCountOrOne(numWorkers))
	for i := 0; i < 3; i++ {
		bs := dsBands[i].Structure()
		grids[i] = vegindex.NewGrid(bs.SizeX, bs.SizeY)
		band := &BandContainer{Band: &dsBands[i], Grid: grids[i], mu: &mu}
		eg.Go(func() error {
			return readBand(band)
		})
	}
	if err := eg.Wait(); err != nil {
		return bands, ref, &vegindex.LoadError{Path: path, Err: err}
	}

	bands, err = vegindex.NewBandTriple(grids[0], grids[1], grids[2])
	return bands, ref, err
}

// readBand fills the container's grid block by block.
func readBand(band *BandContainer) error {
	logrus.Debug("Entered readBand")
	done := make(chan struct{})
	defer close(done)

	noData, hasNoData := band.Band.NoData()
	if !hasNoData {
		logrus.Debug("NoData not set")
	}

	for block := range genBlocks(band, done) {
		blockBuf := make([]float64, block.W*block.H)
		if err := lockedRead(band, block, blockBuf); err != nil {
			return err
		}
		for pix, value := range blockBuf {
			if hasNoData && (value == noData || (math.IsNaN(noData) && math.IsNaN(value))) {
				value = math.NaN()
			}
			// GDAL is row-major
			row := block.Y0 + pix/block.W
			col := block.X0 + pix%block.W
			band.Grid.Set(col, row, value)
		}
	}
	logrus.Debug("Exited readBand")
	return nil
}

// Produce blocks from a raster band, putting them in a channel to be consumed
// downstream.
func genBlocks(band *BandContainer, done <-chan struct{}) <-chan godal.Block {
	blocks := make(chan godal.Block)
	firstBlock := band.Band.Structure().FirstBlock()
	go func() {
		defer close(blocks)
		for block, ok := firstBlock, true; ok; block, ok = block.Next() {
			select {
			case blocks <- block:
			case <-done:
				return
			}
		}
	}()
	return blocks
}

// Locking is required to read from compressed rasters.
func lockedRead(band *BandContainer, block godal.Block, blockBuf []float64) error {
	band.mu.Lock()
	defer band.mu.Unlock()
	return band.Band.Read(block.X0, block.Y0, blockBuf, block.W, block.H)
}

func workerCountOrOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
