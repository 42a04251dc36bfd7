package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type column struct {
	header   string
	align    text.Align
	maxWidth int
}

func left(header string) column { return column{header: header, align: text.AlignLeft} }

func right(header string) column { return column{header: header, align: text.AlignRight} }

func wrapped(header string, width int) column {
	return column{header: header, align: text.AlignLeft, maxWidth: width}
}

// renderTable draws rows under columns. Cells beyond the column count are
// dropped; missing cells render empty.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		header[i] = col.header
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       col.align,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.maxWidth,
		})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
