package vegindex

import (
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Sink receives every index grid before it is reduced, e.g. to persist it.
// It may be called from several goroutines at once.
type Sink func(IndexGrid) error

type ConfigOpts struct {
	NumWorkers int
	// AllowEmpty emits an all-NaN record for an index without valid pixels
	// instead of failing the run.
	AllowEmpty  bool
	Sink        Sink
	OnIndexDone func(name string)
}

// Run normalizes the bands, evaluates every index in Indices and returns
// one StatRecord per index in table order.
func Run(bands BandTriple, opts ConfigOpts) ([]StatRecord, error) {
	logrus.Debug("Entered Run")
	norm, err := Normalize(bands, opts.NumWorkers)
	if err != nil {
		return nil, err
	}

	// Each worker owns exactly one slot, so completion order never leaks
	// into the output order.
	records := make([]StatRecord, len(Indices))
	var eg errgroup.Group
	eg.SetLimit(workerCount(opts.NumWorkers))
	for i, idx := range Indices {
		i, idx := i, idx
		eg.Go(func() error {
			rec, err := processIndex(idx, norm, opts)
			if err != nil {
				return err
			}
			records[i] = rec
			if opts.OnIndexDone != nil {
				opts.OnIndexDone(idx.Name)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	logrus.Debug("Exited Run")
	return records, nil
}

func processIndex(idx Index, norm NormalizedTriple, opts ConfigOpts) (StatRecord, error) {
	logrus.Infof("Computing %s", idx.Name)
	ig := Evaluate(idx, norm)
	if opts.Sink != nil {
		if err := opts.Sink(ig); err != nil {
			return StatRecord{}, err
		}
	}

	rec, err := Aggregate(ig)
	var empty *EmptyGridError
	if errors.As(err, &empty) && opts.AllowEmpty {
		logrus.Warnf("Index %s has no valid pixels, writing NaN placeholder", idx.Name)
		return placeholderRecord(idx.Name), nil
	}
	return rec, err
}
