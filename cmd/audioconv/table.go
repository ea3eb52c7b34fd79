package main

import (
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"audioconv/internal/batch"
	"audioconv/internal/convert"
	"audioconv/internal/faults"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderSummary lists every job with paths shown relative to base.
func renderSummary(summary *batch.Summary, base string) string {
	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		outputs := make([]string, 0, len(r.Outputs))
		for _, o := range r.Outputs {
			outputs = append(outputs, relativeTo(base, o))
		}
		detail := strings.Join(outputs, "\n")
		if r.Status == convert.StatusFailed && r.Err != nil {
			detail = faults.Classify(r.Err) + ": " + r.Err.Error()
		}
		if r.Status == convert.StatusSkipped {
			detail = "already in target format"
		}
		rows = append(rows, []string{
			relativeTo(base, r.Job.Source),
			string(r.Status),
			detail,
		})
	}
	return renderTable([]string{"Source", "Status", "Output"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft})
}

func relativeTo(base, path string) string {
	if base == "" || base == "." {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
