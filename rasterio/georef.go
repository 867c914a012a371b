package rasterio

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/sirupsen/logrus"
)

// wgs84 is spelled as a PROJ string so the axis order is lng, lat whatever
// the GDAL axis mapping strategy.
const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"

// Georef is georeferencing carried from the input raster to derived rasters.
// Index computation never looks at it.
type Georef struct {
	GeoTransform    [6]float64
	HasGeoTransform bool
	Projection      string
	Width           int
	Height          int
}

func readGeoref(ds *godal.Dataset) Georef {
	struc := ds.Structure()
	ref := Georef{
		Projection: ds.Projection(),
		Width:      struc.SizeX,
		Height:     struc.SizeY,
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		logrus.Warnf("No geotransform: %v", err)
		return ref
	}
	ref.GeoTransform = gt
	ref.HasGeoTransform = true
	return ref
}

func (r Georef) apply(ds *godal.Dataset) error {
	if r.HasGeoTransform {
		if err := ds.SetGeoTransform(r.GeoTransform); err != nil {
			return err
		}
	}
	if r.Projection != "" {
		if err := ds.SetProjection(r.Projection); err != nil {
			return err
		}
	}
	return nil
}

// pixelToWorld maps a pixel corner through the geotransform.
func (r Georef) pixelToWorld(col, row float64) orb.Point {
	gt := r.GeoTransform
	return orb.Point{
		gt[0] + col*gt[1] + row*gt[2],
		gt[3] + col*gt[4] + row*gt[5],
	}
}

// Footprint describes where a plot image sits on the ground.
type Footprint struct {
	// Bound is in the raster's own coordinate system.
	Bound    orb.Bound
	Centroid orb.Point // lng, lat in WGS84
	Cell     s2.CellID
}

// PlotFootprint computes the raster footprint and keys its centre to an S2
// cell at cellLevel. Rasters without a geotransform have no footprint.
func PlotFootprint(ref Georef, cellLevel int) (Footprint, bool, error) {
	if cellLevel < 0 || cellLevel > s2.MaxLevel {
		return Footprint{}, false, fmt.Errorf("S2 level %d out of range 0..%d", cellLevel, s2.MaxLevel)
	}
	if !ref.HasGeoTransform {
		return Footprint{}, false, nil
	}
	w, h := float64(ref.Width), float64(ref.Height)
	corners := orb.MultiPoint{
		ref.pixelToWorld(0, 0),
		ref.pixelToWorld(w, 0),
		ref.pixelToWorld(0, h),
		ref.pixelToWorld(w, h),
	}
	bound := corners.Bound()

	centre := bound.Center()
	if ref.Projection != "" {
		var err error
		centre, err = toWGS84(centre, ref.Projection)
		if err != nil {
			return Footprint{}, false, err
		}
	}

	cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(centre.Lat(), centre.Lon())).Parent(cellLevel)
	return Footprint{Bound: bound, Centroid: centre, Cell: cell}, true, nil
}

func toWGS84(p orb.Point, projection string) (orb.Point, error) {
	srcSRS, err := godal.NewSpatialRefFromWKT(projection)
	if err != nil {
		return orb.Point{}, fmt.Errorf("parse projection: %w", err)
	}
	defer srcSRS.Close()
	dstSRS, err := godal.NewSpatialRefFromProj4(wgs84)
	if err != nil {
		return orb.Point{}, err
	}
	defer dstSRS.Close()

	geom, err := godal.NewGeometryFromWKT(wkt.MarshalString(p), srcSRS)
	if err != nil {
		return orb.Point{}, err
	}
	defer geom.Close()
	if err := geom.Reproject(dstSRS); err != nil {
		return orb.Point{}, fmt.Errorf("reproject centroid: %w", err)
	}
	out, err := geom.WKT()
	if err != nil {
		return orb.Point{}, err
	}
	return wkt.UnmarshalPoint(out)
}
