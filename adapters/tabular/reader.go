package tabular

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ruletree/domain/dataset"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// Reader loads telemetry tables from Excel, CSV and JSON files into
// numeric frames. Cells that do not parse as numbers become NaN so the
// null-dropping pass downstream can discard those rows.
type Reader struct{}

// NewReader creates a reader that dispatches on file extension
func NewReader() *Reader {
	return &Reader{}
}

// ReadFrame reads the file at path into a frame
func (r *Reader) ReadFrame(path string) (*dataset.Frame, error) {
	kind := fileKind(path)
	log.Printf("[DataReader] Starting to read %s file: %s", kind, path)

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(kind), path)
	}

	var frame *dataset.Frame
	var err error
	switch kind {
	case "csv":
		frame, err = r.readCSV(path)
	case "json":
		frame, err = r.readJSON(path)
	case "xlsx":
		frame, err = r.readExcel(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", kind)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(kind), len(frame.Columns()), frame.Rows())
	return frame, nil
}

// fileKind maps the extension onto a parse strategy, xlsx by default
func fileKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	default:
		return "xlsx"
	}
}

// readExcel reads Sheet1 of an Excel workbook
func (r *Reader) readExcel(path string) (*dataset.Frame, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	fileOpenTime := time.Since(startTime)
	log.Printf("[DataReader] Excel file opened in %.2fms", float64(fileOpenTime.Nanoseconds())/1e6)

	// Always use Sheet1
	readStart := time.Now()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	readTime := time.Since(readStart)
	log.Printf("[DataReader] Sheet1 read in %.2fms (%d rows)", float64(readTime.Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}

	return frameFromRows(rows)
}

// readCSV reads a comma separated file
func (r *Reader) readCSV(path string) (*dataset.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	readTime := time.Since(readStart)
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(readTime.Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}

	return frameFromRows(rows)
}

// readJSON reads an object of column name to value array, the shape the
// classifier services exchange. Column order follows key order in the
// file; null entries become NaN.
func (r *Reader) readJSON(path string) (*dataset.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	readStart := time.Now()
	dec := json.NewDecoder(file)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("JSON file must contain an object of column arrays")
	}

	var columns []string
	values := make(map[string][]float64)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON file: %w", err)
		}
		name := keyTok.(string)

		var raw []*float64
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("column %q must be an array of numbers: %w", name, err)
		}
		col := make([]float64, len(raw))
		for i, v := range raw {
			if v == nil {
				col[i] = math.NaN()
			} else {
				col[i] = *v
			}
		}

		// Repeated keys keep their first position, last value wins
		if _, exists := values[name]; !exists {
			columns = append(columns, name)
		}
		values[name] = col
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}

	readTime := time.Since(readStart)
	log.Printf("[DataReader] JSON file read in %.2fms (%d columns)", float64(readTime.Nanoseconds())/1e6, len(columns))

	return dataset.FromColumns(columns, values)
}

// frameFromRows converts raw string rows into a numeric frame. Columns
// parse independently so wide tables spread across cores.
func frameFromRows(rows [][]string) (*dataset.Frame, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := make(map[string]bool, len(headerRow))
	for i, header := range headerRow {
		name := strings.TrimSpace(header)
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		headers[i] = name
	}

	data := rows[1:]
	parsed := make([][]float64, len(headers))

	var g errgroup.Group
	for j := range headers {
		j := j // per-iteration copy; go directive predates Go 1.22 loopvar semantics
		g.Go(func() error {
			col := make([]float64, len(data))
			for i, row := range data {
				cell := ""
				if j < len(row) {
					cell = strings.TrimSpace(row[j])
				}
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					v = math.NaN()
				}
				col[i] = v
			}
			parsed[j] = col
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	values := make(map[string][]float64, len(headers))
	for j, name := range headers {
		values[name] = parsed[j]
	}
	return dataset.FromColumns(headers, values)
}
