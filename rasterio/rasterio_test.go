package rasterio

import (
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vi-tools/vegindex"
)

// setUpRaster writes a tiled 2x2 GeoTIFF with one Byte band per entry of
// bandData and returns its path.
func setUpRaster(t testing.TB, bandData ...[]byte) string {
	godal.RegisterAll()
	t.Helper()

	dsFile := filepath.Join(t.TempDir(), "plot.tif")
	ds, err := godal.Create(
		godal.GTiff,
		dsFile,
		len(bandData),
		godal.Byte,
		2,
		2,
		godal.CreationOption("TILED=YES", "BLOCKXSIZE=16", "BLOCKYSIZE=16"),
	)
	require.NoError(t, err)
	if err := ds.SetGeoTransform([6]float64{10.0, 1.0, 0.0, 20.0, 0.0, -1.0}); err != nil {
		t.Fatal(err)
	}

	bands := ds.Bands()
	for i, buf := range bandData {
		if err := bands[i].Write(0, 0, buf, 2, 2); err != nil {
			t.Fatal(err)
		}
	}
	require.NoError(t, ds.Close())
	return dsFile
}

func TestLoadBands(t *testing.T) {
	path := setUpRaster(t,
		[]byte{100, 120, 90, 110},
		[]byte{150, 130, 160, 140},
		[]byte{50, 60, 40, 55},
	)

	bands, ref, err := LoadBands(path, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, bands.Width())
	assert.Equal(t, 2, bands.Height())
	assert.Equal(t, []float64{100, 120, 90, 110}, bands.R.Data)
	assert.Equal(t, []float64{150, 130, 160, 140}, bands.G.Data)
	assert.Equal(t, []float64{50, 60, 40, 55}, bands.B.Data)

	assert.True(t, ref.HasGeoTransform)
	assert.Equal(t, [6]float64{10.0, 1.0, 0.0, 20.0, 0.0, -1.0}, ref.GeoTransform)
	assert.Equal(t, 2, ref.Width)
}

func TestLoadBandsTooFewBands(t *testing.T) {
	path := setUpRaster(t, []byte{1, 2, 3, 4}, []byte{1, 2, 3, 4})
	_, _, err := LoadBands(path, 1)
	var loadErr *vegindex.LoadError
	require.True(t, errors.As(err, &loadErr), "got %v", err)
	assert.Equal(t, path, loadErr.Path)
}

func TestLoadBandsMissingFile(t *testing.T) {
	_, _, err := LoadBands(filepath.Join(t.TempDir(), "missing.tif"), 1)
	var loadErr *vegindex.LoadError
	assert.True(t, errors.As(err, &loadErr), "got %v", err)
}

func TestLoadBandsNoData(t *testing.T) {
	path := setUpRaster(t,
		[]byte{0, 120, 90, 110},
		[]byte{0, 130, 160, 140},
		[]byte{0, 60, 40, 55},
	)
	ds, err := godal.Open(path, godal.Update())
	require.NoError(t, err)
	for _, band := range ds.Bands() {
		require.NoError(t, band.SetNoData(0))
	}
	require.NoError(t, ds.Close())

	bands, _, err := LoadBands(path, 3)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(bands.R.At(0, 0)))
	assert.True(t, math.IsNaN(bands.B.At(0, 0)))
	assert.Equal(t, 120.0, bands.R.At(1, 0))
}

func TestWriteGrid(t *testing.T) {
	ref := Georef{
		GeoTransform:    [6]float64{10.0, 1.0, 0.0, 20.0, 0.0, -1.0},
		HasGeoTransform: true,
		Width:           2,
		Height:          2,
	}
	grid := vegindex.GridFromRows([][]float64{{0.5, -0.25}, {math.NaN(), 1}})
	path := filepath.Join(t.TempDir(), "ExG.tif")
	require.NoError(t, WriteGrid(path, grid, ref))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	ds, err := godal.Open(path)
	require.NoError(t, err)
	defer func() {
		if err := ds.Close(); err != nil {
			t.Fatal(err)
		}
	}()
	gt, err := ds.GeoTransform()
	require.NoError(t, err)
	assert.Equal(t, ref.GeoTransform, gt)

	buf := make([]float64, 4)
	require.NoError(t, ds.Bands()[0].Read(0, 0, buf, 2, 2))
	assert.Equal(t, 0.5, buf[0])
	assert.Equal(t, -0.25, buf[1])
	assert.True(t, math.IsNaN(buf[2]))
	assert.Equal(t, 1.0, buf[3])
}

func TestWriteGridBadDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "ExG.tif")
	err := WriteGrid(path, vegindex.NewGrid(2, 2), Georef{})
	var writeErr *vegindex.WriteError
	assert.True(t, errors.As(err, &writeErr), "got %v", err)
}

func TestGridWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rasters")
	w, err := NewGridWriter(dir, "2023-06-01_P12", Georef{}, 2)
	require.NoError(t, err)

	for _, name := range []string{"ExR", "ExG", "ExB"} {
		require.NoError(t, w.Submit(vegindex.IndexGrid{Name: name, Grid: vegindex.NewGrid(2, 2)}))
	}
	require.NoError(t, w.Wait())

	for _, name := range []string{"ExR", "ExG", "ExB"} {
		assert.FileExists(t, filepath.Join(dir, "2023-06-01_P12_"+name+".tif"))
	}
}

func TestPlotFootprint(t *testing.T) {
	ref := Georef{
		GeoTransform:    [6]float64{10.0, 1.0, 0.0, 20.0, 0.0, -1.0},
		HasGeoTransform: true,
		Width:           2,
		Height:          2,
	}
	fp, ok, err := PlotFootprint(ref, 11)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{10, 18}, Max: orb.Point{12, 20}}, fp.Bound)
	assert.Equal(t, orb.Point{11, 19}, fp.Centroid)
	assert.Equal(t, s2.CellIDFromLatLng(s2.LatLngFromDegrees(19, 11)).Parent(11), fp.Cell)

	_, ok, err = PlotFootprint(Georef{}, 11)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = PlotFootprint(ref, s2.MaxLevel+1)
	assert.ErrorContains(t, err, "out of range")
}

func TestPlotFootprintProjected(t *testing.T) {
	godal.RegisterAll()
	utm31N, err := godal.NewSpatialRefFromEPSG(32631)
	require.NoError(t, err)
	defer utm31N.Close()
	projection, err := utm31N.WKT()
	require.NoError(t, err)

	// 2x2 pixels of 1 km centred on the zone's central meridian at the
	// equator, i.e. lng 3, lat 0.
	ref := Georef{
		GeoTransform:    [6]float64{499000, 1000, 0, 1000, 0, -1000},
		HasGeoTransform: true,
		Projection:      projection,
		Width:           2,
		Height:          2,
	}
	fp, ok, err := PlotFootprint(ref, 11)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, orb.Bound{Min: orb.Point{499000, -1000}, Max: orb.Point{501000, 1000}}, fp.Bound)
	assert.InDelta(t, 3.0, fp.Centroid.Lon(), 1e-6)
	assert.InDelta(t, 0.0, fp.Centroid.Lat(), 1e-6)
	assert.Equal(t, s2.CellIDFromLatLng(s2.LatLngFromDegrees(0, 3)).Parent(11), fp.Cell)
	assert.True(t, fp.Cell.IsValid())
}

func TestWriteQuicklook(t *testing.T) {
	grid := vegindex.GridFromRows([][]float64{{0, 1, 2}, {math.NaN(), 3, 4}})
	path := filepath.Join(t.TempDir(), "ExG.png")
	require.NoError(t, WriteQuicklook(path, vegindex.IndexGrid{Name: "ExG", Grid: grid}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	_, _, _, alpha := img.At(0, 1).RGBA()
	assert.Equal(t, uint32(0), alpha)
	r, _, _, _ := img.At(2, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestWriteQuicklookUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "ExG.png")
	err := WriteQuicklook(path, vegindex.IndexGrid{Name: "ExG", Grid: vegindex.NewGrid(2, 2)})
	var writeErr *vegindex.WriteError
	require.True(t, errors.As(err, &writeErr), "got %v", err)
	assert.NoFileExists(t, path)
}
