package statsio

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"

	"vi-tools/vegindex"
)

// Header is the exact header line of a stats CSV.
const Header = "time,VI,mean,maximum,minimum,standardDeviation"

// StatRow is one CSV line: a run label with one index's statistics.
type StatRow struct {
	Time              string  `csv:"time"`
	VI                string  `csv:"VI"`
	Mean              float64 `csv:"mean"`
	Maximum           float64 `csv:"maximum"`
	Minimum           float64 `csv:"minimum"`
	StandardDeviation float64 `csv:"standardDeviation"`
}

// RowsFromRecords labels every record with runLabel, keeping record order.
func RowsFromRecords(runLabel string, records []vegindex.StatRecord) []*StatRow {
	rows := make([]*StatRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &StatRow{
			Time:              runLabel,
			VI:                rec.Name,
			Mean:              rec.Mean,
			Maximum:           rec.Max,
			Minimum:           rec.Min,
			StandardDeviation: rec.StdDev,
		})
	}
	return rows
}

// MarshalCSV writes the header and rows to w. Floats use the shortest
// representation that round-trips.
func MarshalCSV(rows []*StatRow, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := gocsv.MarshalCSV(&rows, writer); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSV writes rows to path atomically.
func WriteCSV(rows []*StatRow, path string) error {
	logrus.Infof("Writing %d rows to %s", len(rows), path)
	return atomicWrite(path, func(f *os.File) error {
		return MarshalCSV(rows, f)
	})
}

// ReadCSV reads a stats CSV written by WriteCSV.
func ReadCSV(path string) ([]*StatRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*StatRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
