package source

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/campusmesh/campusmesh/core"
)

// noRecords is rendered for empty inputs by both renderers.
const noRecords = "No records found."

// Columns selects and orders the columns for a row set: preferred columns
// first (filtered to those actually present), then every remaining column in
// first-seen order. Identifying fields lead, opaque system fields trail.
func Columns(rows []core.Row, preferred []string) []string {
	present := map[string]bool{}
	var firstSeen []string
	for _, row := range rows {
		for _, key := range rowKeys(row) {
			if !present[key] {
				present[key] = true
				firstSeen = append(firstSeen, key)
			}
		}
	}

	cols := make([]string, 0, len(firstSeen))
	used := map[string]bool{}
	for _, p := range preferred {
		if present[p] && !used[p] {
			cols = append(cols, p)
			used[p] = true
		}
	}
	for _, key := range firstSeen {
		if !used[key] {
			cols = append(cols, key)
			used[key] = true
		}
	}
	return cols
}

// rowKeys returns a deterministic ordering of one row's keys. JSON objects
// lose their document order when decoded into maps, so keys are sorted
// lexicographically as the stable stand-in for first-seen order.
func rowKeys(row core.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderMarkdown renders rows as a markdown table capped at maxRows with an
// explicit truncation notice. It is a pure function of its inputs.
func RenderMarkdown(rows []core.Row, preferred []string, maxRows int) string {
	if len(rows) == 0 {
		return noRecords
	}

	cols := Columns(rows, preferred)

	var b strings.Builder
	b.WriteString("| ")
	b.WriteString(strings.Join(cols, " | "))
	b.WriteString(" |\n|")
	for range cols {
		b.WriteString(" --- |")
	}
	b.WriteByte('\n')

	shown := len(rows)
	if maxRows > 0 && shown > maxRows {
		shown = maxRows
	}

	for _, row := range rows[:shown] {
		b.WriteString("| ")
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = cellString(row[col])
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}

	if shown < len(rows) {
		fmt.Fprintf(&b, "\n_Showing %d of %d records._", shown, len(rows))
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderCSV renders rows as CSV capped at maxRows, appending an explicit
// truncation notice line when rows are cut. It is a pure function of its inputs.
func RenderCSV(rows []core.Row, preferred []string, maxRows int) string {
	if len(rows) == 0 {
		return noRecords
	}

	cols := Columns(rows, preferred)

	shown := len(rows)
	if maxRows > 0 && shown > maxRows {
		shown = maxRows
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(cols)
	for _, row := range rows[:shown] {
		record := make([]string, len(cols))
		for i, col := range cols {
			record[i] = cellString(row[col])
		}
		_ = w.Write(record)
	}
	w.Flush()

	if shown < len(rows) {
		fmt.Fprintf(&b, "# truncated: showing %d of %d records\n", shown, len(rows))
	}

	return b.String()
}

// cellString formats one cell value. Nil renders empty; floats that carry
// integral values (the default JSON number decoding) drop their fraction.
func cellString(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return sanitizeCell(tv)
	case float64:
		if tv == float64(int64(tv)) {
			return fmt.Sprintf("%d", int64(tv))
		}
		return fmt.Sprintf("%g", tv)
	case bool:
		if tv {
			return "true"
		}
		return "false"
	default:
		return sanitizeCell(fmt.Sprintf("%v", tv))
	}
}

// sanitizeCell keeps cell content on one line and out of the table syntax.
func sanitizeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return s
}
