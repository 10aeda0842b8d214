package tabular

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"ruletree/domain/core"
	"ruletree/domain/dataset"
)

// Writer persists frames as CSV with flag columns appended after the
// numeric ones
type Writer struct{}

// NewWriter creates a CSV writer
func NewWriter() *Writer {
	return &Writer{}
}

// WriteCSV writes the frame to path. NaN cells render empty and flag
// cells render as true or false.
func (w *Writer) WriteCSV(frame *dataset.Frame, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	columns := frame.Columns()
	flagCols := frame.FlagColumns()

	numeric := make([][]float64, len(columns))
	for j, name := range columns {
		vals, ok := frame.Column(name)
		if !ok {
			return core.NewColumnNotFoundError(name)
		}
		numeric[j] = vals
	}
	flags := make([][]bool, len(flagCols))
	for j, name := range flagCols {
		vals, ok := frame.Flag(name)
		if !ok {
			return fmt.Errorf("%w: %q", core.ErrFlagNotFound, name)
		}
		flags[j] = vals
	}

	writer := csv.NewWriter(file)
	header := append(append([]string{}, columns...), flagCols...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < frame.Rows(); i++ {
		record := make([]string, 0, len(header))
		for j := range columns {
			v := numeric[j][i]
			if math.IsNaN(v) {
				record = append(record, "")
			} else {
				record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		for j := range flagCols {
			record = append(record, strconv.FormatBool(flags[j][i]))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
