// Package format renders CLI output tables. It wraps go-pretty behind a
// small project-owned interface so commands don't depend on the library
// directly.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// Table renders rows under a header in the configured Mode.
type Table interface {
	// Header sets the column headers.
	Header(cols ...string)
	// Row appends a data row. Values are converted to strings via fmt Sprint.
	Row(vals ...any)
	// WidthMax caps the width of a 1-based column, wrapping longer content.
	WidthMax(col, width int)
	// String renders the table.
	String() string
}

// NewTable returns a Table that renders in the given Mode.
func NewTable(m Mode) Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return &prettyAdapter{writer: w, mode: m}
}

// prettyAdapter wraps go-pretty/v6/table.Writer behind the Table interface.
type prettyAdapter struct {
	writer table.Writer
	mode   Mode
	cols   []table.ColumnConfig
}

func (a *prettyAdapter) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	a.writer.AppendHeader(row)
}

func (a *prettyAdapter) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	a.writer.AppendRow(row)
}

func (a *prettyAdapter) WidthMax(col, width int) {
	a.cols = append(a.cols, table.ColumnConfig{Number: col, WidthMax: width})
	a.writer.SetColumnConfigs(a.cols)
}

func (a *prettyAdapter) String() string {
	if a.mode == Markdown {
		return a.writer.RenderMarkdown()
	}
	return a.writer.Render()
}
