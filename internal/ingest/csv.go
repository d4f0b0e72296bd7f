package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/adpulse/adpulse/internal/contracts"
)

// ReadCSV parses a delimited upload into raw rows keyed by the header's
// column names. Column names are trimmed and lower-cased so "Date" and
// " date " both map to the schema's "date". No validation happens here;
// the rows go to the pipeline as-is.
func ReadCSV(r io.Reader) ([]contracts.RawRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range header {
		header[i] = strings.ToLower(strings.TrimSpace(col))
	}

	var rows []contracts.RawRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row := make(contracts.RawRow, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}

	return rows, nil
}
