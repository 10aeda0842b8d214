package dataset

import (
	"fmt"
	"math"

	"ruletree/domain/core"
)

// Frame is an in-memory numeric dataset with named columns plus optional
// boolean flag columns layered on top. Column order is preserved from the
// source file, so positional feature placeholders (feature_N) resolve
// deterministically. NaN marks a missing value.
type Frame struct {
	columns  []string
	data     map[string][]float64
	flagCols []string
	flags    map[string][]bool
	rows     int
}

// FromColumns builds a frame from ordered column names and their values.
// Every column must carry the same number of values.
func FromColumns(columns []string, values map[string][]float64) (*Frame, error) {
	f := &Frame{
		columns: append([]string(nil), columns...),
		data:    make(map[string][]float64, len(columns)),
		flags:   make(map[string][]bool),
	}

	for i, name := range columns {
		vals, ok := values[name]
		if !ok {
			return nil, core.NewColumnNotFoundError(name)
		}
		if i == 0 {
			f.rows = len(vals)
		} else if len(vals) != f.rows {
			return nil, core.NewColumnMismatchError(name, len(vals), f.rows)
		}
		f.data[name] = append([]float64(nil), vals...)
	}
	return f, nil
}

// Columns returns the column names in source order
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Rows returns the number of rows
func (f *Frame) Rows() int {
	return f.rows
}

// HasColumn reports whether a numeric column exists
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.data[name]
	return ok
}

// Column returns a copy of a numeric column's values
func (f *Frame) Column(name string) ([]float64, bool) {
	vals, ok := f.data[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), vals...), true
}

// Value returns one cell of a numeric column
func (f *Frame) Value(name string, row int) (float64, bool) {
	vals, ok := f.data[name]
	if !ok || row < 0 || row >= len(vals) {
		return 0, false
	}
	return vals[row], true
}

// SetFlag stores a boolean column. Values must carry one entry per row;
// extra entries are truncated and missing entries default to false.
func (f *Frame) SetFlag(name string, values []bool) {
	flag := make([]bool, f.rows)
	copy(flag, values)
	if _, exists := f.flags[name]; !exists {
		f.flagCols = append(f.flagCols, name)
	}
	f.flags[name] = flag
}

// Flag returns a copy of a boolean flag column
func (f *Frame) Flag(name string) ([]bool, bool) {
	vals, ok := f.flags[name]
	if !ok {
		return nil, false
	}
	return append([]bool(nil), vals...), true
}

// FlagColumns returns the flag column names in the order they were set
func (f *Frame) FlagColumns() []string {
	return append([]string(nil), f.flagCols...)
}

// DropNulls returns a copy of the frame without any row holding a NaN in
// any numeric column, plus the number of rows dropped. Flag columns are
// filtered alongside their rows.
func (f *Frame) DropNulls() (*Frame, int) {
	keep := make([]bool, f.rows)
	kept := 0
	for i := 0; i < f.rows; i++ {
		keep[i] = true
		for _, name := range f.columns {
			if math.IsNaN(f.data[name][i]) {
				keep[i] = false
				break
			}
		}
		if keep[i] {
			kept++
		}
	}

	clean := &Frame{
		columns:  append([]string(nil), f.columns...),
		data:     make(map[string][]float64, len(f.columns)),
		flagCols: append([]string(nil), f.flagCols...),
		flags:    make(map[string][]bool, len(f.flags)),
		rows:     kept,
	}
	for _, name := range f.columns {
		vals := make([]float64, 0, kept)
		for i, v := range f.data[name] {
			if keep[i] {
				vals = append(vals, v)
			}
		}
		clean.data[name] = vals
	}
	for _, name := range f.flagCols {
		vals := make([]bool, 0, kept)
		for i, v := range f.flags[name] {
			if keep[i] {
				vals = append(vals, v)
			}
		}
		clean.flags[name] = vals
	}
	return clean, f.rows - kept
}

// Relabel converts a boolean flag column into numeric training labels:
// flagged rows become -1 and unflagged rows +1, the encoding outlier
// trainers expect for refitting.
func (f *Frame) Relabel(flag string) ([]float64, error) {
	vals, ok := f.flags[flag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrFlagNotFound, flag)
	}
	labels := make([]float64, len(vals))
	for i, v := range vals {
		if v {
			labels[i] = -1
		} else {
			labels[i] = 1
		}
	}
	return labels, nil
}
