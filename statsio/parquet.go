package statsio

import (
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"
)

// PlotInfo is per-run plot metadata repeated on every Parquet row.
type PlotInfo struct {
	S2Cell      int64
	CentroidLng float64
	CentroidLat float64
	Width       int32
	Height      int32
}

type StatParquetRow struct {
	Time              string  `parquet:"time"`
	VI                string  `parquet:"vi"`
	Mean              float64 `parquet:"mean"`
	Maximum           float64 `parquet:"maximum"`
	Minimum           float64 `parquet:"minimum"`
	StandardDeviation float64 `parquet:"standard_deviation"`
	S2Cell            int64   `parquet:"s2_cell"`
	CentroidLng       float64 `parquet:"centroid_lng"`
	CentroidLat       float64 `parquet:"centroid_lat"`
	Width             int32   `parquet:"width"`
	Height            int32   `parquet:"height"`
}

func parquetRows(rows []*StatRow, plot PlotInfo) []StatParquetRow {
	out := make([]StatParquetRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, StatParquetRow{
			Time:              row.Time,
			VI:                row.VI,
			Mean:              row.Mean,
			Maximum:           row.Maximum,
			Minimum:           row.Minimum,
			StandardDeviation: row.StandardDeviation,
			S2Cell:            plot.S2Cell,
			CentroidLng:       plot.CentroidLng,
			CentroidLat:       plot.CentroidLat,
			Width:             plot.Width,
			Height:            plot.Height,
		})
	}
	return out
}

// WriteParquet writes rows with plot metadata to a Snappy-compressed
// Parquet file, atomically.
func WriteParquet(rows []*StatRow, plot PlotInfo, path string) error {
	logrus.Infof("Writing %d rows to %s", len(rows), path)
	return atomicWrite(path, func(f *os.File) error {
		schema := parquet.SchemaOf(new(StatParquetRow))
		writer := parquet.NewGenericWriter[StatParquetRow](f, schema, parquet.Compression(&parquet.Snappy))
		if _, err := writer.Write(parquetRows(rows, plot)); err != nil {
			return err
		}
		return writer.Close()
	})
}

// ReadParquet reads back a file written by WriteParquet.
func ReadParquet(path string) ([]StatParquetRow, error) {
	return parquet.ReadFile[StatParquetRow](path)
}
