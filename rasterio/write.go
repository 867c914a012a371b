package rasterio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"

	"vi-tools/vegindex"
)

// GridWriter persists index grids as single-band Float64 GeoTIFFs in Dir,
// named <Prefix>_<Index>.tif. Writes run on a worker pool; Wait reports
// the first failure.
type GridWriter struct {
	Dir    string
	Prefix string
	Ref    Georef

	wp   *workerpool.WorkerPool
	mu   sync.Mutex
	errs []error
}

func NewGridWriter(dir, prefix string, ref Georef, numWorkers int) (*GridWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &vegindex.WriteError{Path: dir, Err: err}
	}
	godal.RegisterAll()
	return &GridWriter{
		Dir:    dir,
		Prefix: prefix,
		Ref:    ref,
		wp:     workerpool.New(workerCountOrOne(numWorkers)),
	}, nil
}

func (w *GridWriter) Path(index string) string {
	name := index + ".tif"
	if w.Prefix != "" {
		name = w.Prefix + "_" + name
	}
	return filepath.Join(w.Dir, name)
}

// Submit queues ig for writing. It satisfies vegindex.Sink.
func (w *GridWriter) Submit(ig vegindex.IndexGrid) error {
	w.wp.Submit(func() {
		path := w.Path(ig.Name)
		logrus.Infof("Writing %s", path)
		if err := WriteGrid(path, ig.Grid, w.Ref); err != nil {
			w.mu.Lock()
			w.errs = append(w.errs, err)
			w.mu.Unlock()
		}
	})
	return nil
}

// Wait blocks until every queued grid has been written.
func (w *GridWriter) Wait() error {
	w.wp.StopWait()
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}

// WriteGrid writes one grid to path as a GeoTIFF with NaN as NoData. The
// file is built next to path and renamed into place once complete.
func WriteGrid(path string, grid *vegindex.Grid, ref Georef) (err error) {
	tmpPath := path + ".tmp"
	ds, err := godal.Create(godal.GTiff, tmpPath, 1, godal.Float64, grid.Width, grid.Height)
	if err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err := writeBand(ds, grid, ref); err != nil {
		return &vegindex.WriteError{Path: path, Err: errors.Join(err, ds.Close())}
	}
	if err := ds.Close(); err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	return nil
}

func writeBand(ds *godal.Dataset, grid *vegindex.Grid, ref Georef) error {
	if err := ref.apply(ds); err != nil {
		return fmt.Errorf("set georeference: %w", err)
	}
	band := ds.Bands()[0]
	if err := band.SetNoData(math.NaN()); err != nil {
		return err
	}
	return band.Write(0, 0, grid.Data, grid.Width, grid.Height)
}
