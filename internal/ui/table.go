package ui

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// Table is a wrapper around tablewriter for consistent table formatting.
type Table struct {
	writer *tablewriter.Table
}

// NewTable creates a new table with headers.
func NewTable(w io.Writer, headers []string) *Table {
	table := NewTableNoHeader(w)
	table.writer.SetHeader(headers)
	table.writer.SetHeaderLine(false)
	table.writer.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	colors := make([]tablewriter.Colors, len(headers))
	for i := range colors {
		colors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor}
	}
	table.writer.SetHeaderColor(colors...)
	return table
}

// NewTableNoHeader creates a new table without headers.
func NewTableNoHeader(w io.Writer) *Table {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetColumnSeparator("  ")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)

	return &Table{writer: table}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row []string) {
	t.writer.Append(row)
}

// AddColoredRow adds a row with custom colors.
func (t *Table) AddColoredRow(row []string, colors []tablewriter.Colors) {
	t.writer.Rich(row, colors)
}

// Render prints the table.
func (t *Table) Render() {
	t.writer.Render()
}

// TableColor provides color constants for table cells.
var TableColor = struct {
	Green  tablewriter.Colors
	Yellow tablewriter.Colors
	Red    tablewriter.Colors
	Normal tablewriter.Colors
}{
	Green:  tablewriter.Colors{tablewriter.FgGreenColor},
	Yellow: tablewriter.Colors{tablewriter.FgYellowColor},
	Red:    tablewriter.Colors{tablewriter.FgRedColor},
	Normal: tablewriter.Colors{},
}
