package analysis

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/docdash/internal/tabular"
)

// ParseNumber converts a cell the way a JavaScript Number() call does. Blank
// cells are 0, "Infinity" and 0x/0o/0b integers are accepted, and anything
// that would be NaN fails.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' })
	switch s {
	case "":
		return 0, true
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}

	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return parseRadix(s[2:], 16)
		case 'o', 'O':
			return parseRadix(s[2:], 8)
		case 'b', 'B':
			return parseRadix(s[2:], 2)
		}
	}

	// strconv also takes hex floats, underscores and inf/nan spellings
	if strings.IndexFunc(s, func(r rune) bool { return !strings.ContainsRune("0123456789+-.eE", r) }) >= 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}

// parseRadix reads unsigned digits of the given base into a float64,
// so values past 64 bits round instead of failing.
func parseRadix(digits string, base int) (float64, bool) {
	var v float64
	for _, r := range digits {
		d, err := strconv.ParseUint(string(r), base, 8)
		if err != nil {
			return 0, false
		}
		v = v*float64(base) + float64(d)
	}
	return v, true
}

// finite reports whether v survives JSON encoding
func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Column types are guessed from row zero only and applied to every row.

// numericColumns returns columns whose row-zero value is a number, in header order
func numericColumns(t *tabular.Table) []string {
	first := t.First()
	if first == nil {
		return nil
	}
	var cols []string
	for _, c := range t.Columns {
		if _, ok := ParseNumber(first[c]); ok {
			cols = append(cols, c)
		}
	}
	return cols
}

func firstNumericColumn(t *tabular.Table) (string, bool) {
	cols := numericColumns(t)
	if len(cols) == 0 {
		return "", false
	}
	return cols[0], true
}

func firstCategoricalColumn(t *tabular.Table) (string, bool) {
	first := t.First()
	if first == nil {
		return "", false
	}
	for _, c := range t.Columns {
		if _, ok := ParseNumber(first[c]); !ok {
			return c, true
		}
	}
	return "", false
}

// firstDateColumn treats any row-zero value containing a hyphen as a date.
// A negative number therefore qualifies as both numeric and date.
func firstDateColumn(t *tabular.Table) (string, bool) {
	first := t.First()
	if first == nil {
		return "", false
	}
	for _, c := range t.Columns {
		if strings.Contains(first[c], "-") {
			return c, true
		}
	}
	return "", false
}

// cellValue returns a pointer to the parsed cell, or nil when it is not a
// finite number. Infinities encode as JSON null.
func cellValue(row tabular.Row, col string) *float64 {
	v, ok := ParseNumber(row[col])
	if !ok || !finite(v) {
		return nil
	}
	return &v
}

// columnSum adds every parsable value of col
func columnSum(rows []tabular.Row, col string) float64 {
	var sum float64
	for _, row := range rows {
		if v, ok := ParseNumber(row[col]); ok {
			sum += v
		}
	}
	return sum
}

// formatAverage renders a mean with two decimals, spelling infinities out
func formatAverage(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
