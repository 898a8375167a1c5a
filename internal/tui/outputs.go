package tui

import (
	"strconv"

	table "github.com/charmbracelet/bubbles/table"

	"rhinoview/internal/viewer"
)

// refreshOutputs rebuilds the outputs table from the last response.
func (m *Model) refreshOutputs() {
	reports := viewer.Inspect(m.mat.Decoder(), m.lastResp)
	if len(reports) == 0 {
		m.showOutputs = false
		m.status = "no outputs yet"
		return
	}
	cols := []table.Column{
		{Title: "#", Width: 4},
		{Title: "param", Width: 18},
		{Title: "path", Width: 8},
		{Title: "type", Width: 28},
		{Title: "decoded", Width: 10},
	}
	rows := make([]table.Row, 0, len(reports))
	for i, r := range reports {
		kind := r.Kind
		if kind == "" {
			kind = "-"
		}
		rows = append(rows, table.Row{strconv.Itoa(i + 1), r.Param, r.Path, r.Type, kind})
	}
	// clear rows first so the row width never disagrees with the columns
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
}
