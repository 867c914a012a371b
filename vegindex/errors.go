package vegindex

import "fmt"

// LoadError reports a source raster that is missing, unreadable or has
// fewer than three bands.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ShapeMismatchError reports bands with inconsistent dimensions.
type ShapeMismatchError struct {
	Reason string
	Shapes [][2]int
}

func (e *ShapeMismatchError) Error() string {
	if len(e.Shapes) == 0 {
		return "shape mismatch: " + e.Reason
	}
	return fmt.Sprintf("shape mismatch: %s %v", e.Reason, e.Shapes)
}

// EmptyGridError is returned when an index grid has no finite pixel left
// to aggregate.
type EmptyGridError struct {
	Index string
}

func (e *EmptyGridError) Error() string {
	return fmt.Sprintf("index %s has no valid pixels", e.Index)
}

// WriteError wraps a failure to persist an output file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
