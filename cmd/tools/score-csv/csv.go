package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"loan-risk-workers/internal/batch"
	"loan-risk-workers/internal/intake"
)

// readItems parses a header-first CSV into batch items. Rows intake cannot
// map stay in the batch as failed items so the report counts them.
func readItems(r io.Reader) ([]batch.Item, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimPrefix(strings.TrimSpace(header[i]), "\ufeff")
	}

	var items []batch.Item
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := make(intake.Row, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			}
		}

		source := fmt.Sprintf("line-%d", line)
		rec, err := intake.FromRow(source, row)
		name := rec.Name
		if err != nil {
			name = source
		}
		items = append(items, batch.Item{Name: name, Record: rec, Err: err})
	}
	return items, nil
}
