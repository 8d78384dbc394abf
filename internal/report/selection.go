package report

import (
	"fmt"
	"strings"

	"github.com/equipment-visualizer/backend/internal/models"
)

// Selection chooses what the charts plot.
type Selection struct {
	XColumn   string   `json:"x_column"`
	YColumns  []string `json:"y_columns"`
	PieColumn string   `json:"pie_column"`
}

// DefaultSelection plots the temperature bands and, per equipment, every
// measurement column that holds numbers. YColumns stays empty so Resolve
// picks the measurements from the table.
func DefaultSelection() Selection {
	return Selection{
		XColumn:   models.ColEquipmentName,
		PieColumn: models.ColTemperature,
	}
}

// ParseSelection reads the barX, barY and pieData query values. Empty
// values fall back to the defaults. barY is a comma separated list.
func ParseSelection(barX, barY, pieData string) Selection {
	sel := DefaultSelection()
	if x := strings.TrimSpace(barX); x != "" {
		sel.XColumn = x
	}
	if barY != "" {
		var ys []string
		for _, y := range strings.Split(barY, ",") {
			if y = strings.TrimSpace(y); y != "" {
				ys = append(ys, y)
			}
		}
		sel.YColumns = ys
	}
	if p := strings.TrimSpace(pieData); p != "" {
		sel.PieColumn = p
	}
	return sel
}

// Resolve checks the selection against a table. Y columns the caller
// named must be numeric. With none named, the measurement columns that
// are numeric in this table are used.
func (s Selection) Resolve(t *models.Table) (Selection, error) {
	out := Selection{XColumn: s.XColumn, PieColumn: s.PieColumn}

	if !t.Has(s.XColumn) {
		return out, models.NewValidationError("barX", fmt.Sprintf("unknown column %q", s.XColumn))
	}
	if !t.Has(s.PieColumn) {
		return out, models.NewValidationError("pieData", fmt.Sprintf("unknown column %q", s.PieColumn))
	}

	seen := make(map[string]bool)
	for _, y := range s.YColumns {
		if seen[y] {
			continue
		}
		seen[y] = true
		if !t.IsNumeric(y) {
			return out, models.NewValidationError("barY", fmt.Sprintf("column %q is not numeric", y))
		}
		out.YColumns = append(out.YColumns, y)
	}
	if len(out.YColumns) == 0 {
		for _, y := range models.MeasurementColumns {
			if t.IsNumeric(y) {
				out.YColumns = append(out.YColumns, y)
			}
		}
	}
	if len(out.YColumns) == 0 {
		return out, models.NewValidationError("barY", "no numeric columns to plot")
	}
	return out, nil
}
