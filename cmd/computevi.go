package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang/geo/s2"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vi-tools/rasterio"
	"vi-tools/statsio"
	"vi-tools/vegindex"
)

type computeConfig struct {
	Input          string
	Output         string
	Label          string
	NumWorkers     int
	RasterDir      string
	ParquetPath    string
	QuicklookPath  string
	QuicklookIndex string
	S2Lvl          int
	AllowEmpty     bool
	Progress       bool
}

// computeviCmd represents the computevi command
var computeviCmd = &cobra.Command{
	Use:   "computevi [rgb_tif] [output_csv]",
	Short: "Compute RGB vegetation index statistics for one plot image",
	Long: `Reads the first three bands of a plot image as R, G and B, normalizes
	them to chromatic coordinates and writes one CSV row per vegetation
	index with its mean, maximum, minimum and standard deviation.

	Pixels whose R+G+B is zero, or that are NoData in the source, are
	excluded from the statistics.

	Options:
		--label:       Run label written in the "time" column, e.g. capture date and plot.
		--numWorkers:  Number of workers for parallel processing.
		--rasterDir:   Also write every index as a GeoTIFF into this directory.
		--parquet:     Also write the statistics with plot metadata to a Parquet file.
		--quicklook:   Also render one index (--quicklookIndex) as a PNG.
		--allowEmpty:  Write NaN statistics instead of failing when an index has no valid pixels.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := computeConfig{
			Input:          args[0],
			Output:         args[1],
			Label:          viper.GetString("label"),
			NumWorkers:     viper.GetInt("numWorkers"),
			RasterDir:      viper.GetString("rasterDir"),
			ParquetPath:    viper.GetString("parquet"),
			QuicklookPath:  viper.GetString("quicklook"),
			QuicklookIndex: viper.GetString("quicklookIndex"),
			S2Lvl:          viper.GetInt("s2Lvl"),
			AllowEmpty:     viper.GetBool("allowEmpty"),
			Progress:       viper.GetBool("progress"),
		}
		if err := computeVI(cfg); err != nil {
			logrus.Error(err)
			return err
		}
		return nil
	},
}

func computeVI(cfg computeConfig) error {
	if cfg.Label == "" {
		return errors.New("a run label is required (--label)")
	}
	if cfg.S2Lvl < 0 || cfg.S2Lvl > s2.MaxLevel {
		return fmt.Errorf("s2Lvl %d out of range 0..%d", cfg.S2Lvl, s2.MaxLevel)
	}
	var quicklookIdx vegindex.Index
	if cfg.QuicklookPath != "" {
		idx, ok := vegindex.Lookup(cfg.QuicklookIndex)
		if !ok {
			return fmt.Errorf("unknown quicklook index %q", cfg.QuicklookIndex)
		}
		quicklookIdx = idx
	}

	bands, ref, err := rasterio.LoadBands(cfg.Input, cfg.NumWorkers)
	if err != nil {
		return err
	}
	logrus.Infof("Loaded %s (%dx%d)", cfg.Input, bands.Width(), bands.Height())

	var sinks []vegindex.Sink
	var gridWriter *rasterio.GridWriter
	if cfg.RasterDir != "" {
		gridWriter, err = rasterio.NewGridWriter(cfg.RasterDir, cfg.Label, ref, cfg.NumWorkers)
		if err != nil {
			return err
		}
		sinks = append(sinks, gridWriter.Submit)
	}
	if cfg.QuicklookPath != "" {
		sinks = append(sinks, func(ig vegindex.IndexGrid) error {
			if ig.Name != quicklookIdx.Name {
				return nil
			}
			return rasterio.WriteQuicklook(cfg.QuicklookPath, ig)
		})
	}

	opts := vegindex.ConfigOpts{
		NumWorkers: cfg.NumWorkers,
		AllowEmpty: cfg.AllowEmpty,
		Sink:       chainSinks(sinks),
	}
	if cfg.Progress {
		bar := progressbar.Default(int64(len(vegindex.Indices)), "Computing indices")
		opts.OnIndexDone = func(string) {
			if err := bar.Add(1); err != nil {
				logrus.Debug(err)
			}
		}
	}

	records, err := vegindex.Run(bands, opts)
	if gridWriter != nil {
		// Drain queued writes even when the run failed.
		err = errors.Join(err, gridWriter.Wait())
	}
	if err != nil {
		return err
	}

	rows := statsio.RowsFromRecords(cfg.Label, records)
	if err := statsio.WriteCSV(rows, cfg.Output); err != nil {
		return err
	}

	if cfg.ParquetPath != "" {
		plot, err := plotInfo(ref, cfg.S2Lvl)
		if err != nil {
			return err
		}
		if err := statsio.WriteParquet(rows, plot, cfg.ParquetPath); err != nil {
			return err
		}
	}
	logrus.Infof("Wrote %d index rows to %s", len(rows), filepath.Clean(cfg.Output))
	return nil
}

func chainSinks(sinks []vegindex.Sink) vegindex.Sink {
	if len(sinks) == 0 {
		return nil
	}
	return func(ig vegindex.IndexGrid) error {
		for _, sink := range sinks {
			if err := sink(ig); err != nil {
				return err
			}
		}
		return nil
	}
}

func plotInfo(ref rasterio.Georef, s2Lvl int) (statsio.PlotInfo, error) {
	plot := statsio.PlotInfo{Width: int32(ref.Width), Height: int32(ref.Height)}
	fp, ok, err := rasterio.PlotFootprint(ref, s2Lvl)
	if err != nil {
		return plot, err
	}
	if !ok {
		logrus.Warn("Raster has no geotransform, plot location left empty")
		return plot, nil
	}
	plot.S2Cell = int64(fp.Cell)
	plot.CentroidLng = fp.Centroid.Lon()
	plot.CentroidLat = fp.Centroid.Lat()
	return plot, nil
}

func init() {
	rootCmd.AddCommand(computeviCmd)

	computeviCmd.Flags().StringP("label", "L", "", "Run label for the time column, e.g. capture date and plot")
	bindFlag(computeviCmd, "label")

	computeviCmd.Flags().IntP("numWorkers", "n", 8, "Number of workers to spawn for parallel processing")
	bindFlag(computeviCmd, "numWorkers")

	computeviCmd.Flags().StringP("rasterDir", "r", "", "Directory to write one GeoTIFF per index into")
	bindFlag(computeviCmd, "rasterDir")

	computeviCmd.Flags().StringP("parquet", "p", "", "Also write statistics to this Parquet file")
	bindFlag(computeviCmd, "parquet")

	computeviCmd.Flags().StringP("quicklook", "q", "", "Write a PNG quicklook of --quicklookIndex to this path")
	bindFlag(computeviCmd, "quicklook")

	computeviCmd.Flags().String("quicklookIndex", "ExG", "Index to render for --quicklook")
	bindFlag(computeviCmd, "quicklookIndex")

	computeviCmd.Flags().IntP("s2Lvl", "l", 11, "S2 cell level for the plot location in Parquet output")
	bindFlag(computeviCmd, "s2Lvl")

	computeviCmd.Flags().Bool("allowEmpty", false, "Write NaN statistics for indices without valid pixels instead of failing")
	bindFlag(computeviCmd, "allowEmpty")

	computeviCmd.Flags().Bool("progress", false, "Show a progress bar")
	bindFlag(computeviCmd, "progress")
}
