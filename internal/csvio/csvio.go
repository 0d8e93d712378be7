// Package csvio reads and writes the CSV files of the atmos command.
//
// Every file starts with a header row. Readers locate columns by header
// name, so column order is free and extra columns are ignored.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrFormat reports a malformed CSV file.
var ErrFormat = errors.New("csvio: malformed file")

// header maps column names to indices.
type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrFormat, name)
		}
	}
	return h, nil
}

func (h header) str(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (h header) float(row []string, line int, name string) (float64, error) {
	v, err := strconv.ParseFloat(h.str(row, name), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d column %s: %w", ErrFormat, line, name, err)
	}
	return v, nil
}

// optionalFloat returns 0 for a missing or empty column.
func (h header) optionalFloat(row []string, line int, name string) (float64, error) {
	if h.str(row, name) == "" {
		return 0, nil
	}
	return h.float(row, line, name)
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeAll(w io.Writer, head []string, rows func(emit func([]string) error) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(head); err != nil {
		return err
	}
	if err := rows(cw.Write); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
