// Package tabular loads comma-separated text into ordered rows.
//
// The format is deliberately naive: lines are split on newlines, fields on
// commas. Quoting and escaping are not recognised, so a comma inside a
// quoted field shifts every following value one column to the right.
package tabular

import (
	"fmt"
	"io"
	"strings"
)

// Row maps a column name to its raw string value
type Row map[string]string

// Table is a parsed file. Columns keeps header order; Rows keeps file order.
type Table struct {
	Columns []string `msgpack:"columns" json:"columns"`
	Rows    []Row    `msgpack:"rows" json:"rows"`
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// First returns row zero, or nil for an empty table
func (t *Table) First() Row {
	if t.Len() == 0 {
		return nil
	}
	return t.Rows[0]
}

// Parse converts text into a table. The first line holds the headers.
// Blank lines after the header are skipped. Short rows are padded with
// empty strings and extra values are dropped.
func Parse(text string) *Table {
	lines := strings.Split(text, "\n")

	table := &Table{}
	headers := splitFields(lines[0])

	// Duplicate headers keep their first position; the later value wins
	// because it overwrites the same key.
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		if !seen[h] {
			seen[h] = true
			table.Columns = append(table.Columns, h)
		}
	}

	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		values := splitFields(line)
		row := make(Row, len(headers))
		for j, h := range headers {
			if j < len(values) {
				row[h] = values[j]
			} else {
				row[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// Load reads r fully and parses it
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return Parse(string(data)), nil
}

func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
