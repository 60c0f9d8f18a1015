package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmesh/campusmesh/core"
)

func TestColumns_PreferredFirstThenRemaining(t *testing.T) {
	rows := []core.Row{
		{"id": 1, "first_name": "Ada", "last_name": "Lovelace"},
		{"first_name": "Alan", "class": "3B"},
	}

	cols := Columns(rows, []string{"first_name", "last_name", "missing_column"})
	assert.Equal(t, []string{"first_name", "last_name", "id", "class"}, cols)
}

func TestRenderMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "No records found.", RenderMarkdown(nil, nil, 25))
}

func TestRenderMarkdown_Table(t *testing.T) {
	rows := []core.Row{
		{"first_name": "Ada", "score": float64(10)},
		{"first_name": "Alan", "score": 9.5},
	}

	out := RenderMarkdown(rows, []string{"first_name", "score"}, 25)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| first_name | score |", lines[0])
	assert.Equal(t, "| --- | --- |", lines[1])
	assert.Equal(t, "| Ada | 10 |", lines[2])
	assert.Equal(t, "| Alan | 9.5 |", lines[3])
}

func TestRenderMarkdown_TruncationNotice(t *testing.T) {
	rows := make([]core.Row, 30)
	for i := range rows {
		rows[i] = core.Row{"id": float64(i)}
	}

	out := RenderMarkdown(rows, nil, 25)
	assert.Contains(t, out, "_Showing 25 of 30 records._")
	assert.Equal(t, 2+25+2, len(strings.Split(out, "\n")))
}

func TestRenderMarkdown_SanitizesCells(t *testing.T) {
	rows := []core.Row{{"note": "line one\nwith | pipe"}}

	out := RenderMarkdown(rows, nil, 25)
	assert.Contains(t, out, `line one with \| pipe`)
}

func TestRenderCSV_Empty(t *testing.T) {
	assert.Equal(t, "No records found.", RenderCSV(nil, nil, 500))
}

func TestRenderCSV_HeaderAndRows(t *testing.T) {
	rows := []core.Row{
		{"reference": "INV-1", "amount": float64(120), "paid": true},
		{"reference": "INV-2", "amount": 99.95, "paid": false},
	}

	out := RenderCSV(rows, []string{"reference", "amount", "paid"}, 500)
	assert.Equal(t, "reference,amount,paid\nINV-1,120,true\nINV-2,99.95,false\n", out)
}

func TestRenderCSV_TruncationNotice(t *testing.T) {
	rows := make([]core.Row, 5)
	for i := range rows {
		rows[i] = core.Row{"id": float64(i)}
	}

	out := RenderCSV(rows, nil, 3)
	assert.True(t, strings.HasSuffix(out, "# truncated: showing 3 of 5 records\n"))
	assert.Equal(t, 1+3+1, strings.Count(out, "\n"))
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", cellString(nil))
	assert.Equal(t, "42", cellString(float64(42)))
	assert.Equal(t, "3.14", cellString(3.14))
	assert.Equal(t, "true", cellString(true))
	assert.Equal(t, "plain", cellString("plain"))
	assert.Equal(t, "[a b]", cellString([]string{"a", "b"}))
}
