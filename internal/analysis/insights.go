package analysis

import "github.com/equipment-visualizer/backend/internal/models"

// ColumnInsight describes the range of one numeric column and the rows
// holding its extremes.
type ColumnInsight struct {
	Column   string  `json:"column"`
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Avg      float64 `json:"avg"`
	MinLabel string  `json:"min_label"`
	MaxLabel string  `json:"max_label"`
}

// Insights returns min/max/avg for every numeric column that has values.
// Extremes are labelled with the row's value in labelColumn.
func Insights(t *models.Table, labelColumn string) []ColumnInsight {
	out := make([]ColumnInsight, 0)
	for _, name := range t.NumericColumns() {
		st := Stats(t, name)
		if st.Count == 0 {
			continue
		}
		out = append(out, ColumnInsight{
			Column:   name,
			Count:    st.Count,
			Min:      st.Min,
			Max:      st.Max,
			Avg:      *st.Mean(),
			MinLabel: rowLabel(t, st.MinRow, labelColumn),
			MaxLabel: rowLabel(t, st.MaxRow, labelColumn),
		})
	}
	return out
}

func rowLabel(t *models.Table, row int, column string) string {
	if row < 0 || !t.Has(column) {
		return "N/A"
	}
	if v := t.Cell(row, column); v != "" {
		return v
	}
	return "N/A"
}
