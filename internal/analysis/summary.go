// Package analysis computes the ingestion summary and the derived insights
// and distributions used by reports.
package analysis

import (
	"github.com/equipment-visualizer/backend/internal/models"
)

// ColumnStats are running statistics over the values of one numeric column.
type ColumnStats struct {
	Count  int
	Sum    float64
	Min    float64
	Max    float64
	MinRow int
	MaxRow int
}

// Mean returns the arithmetic mean, or nil when there were no values.
func (s ColumnStats) Mean() *float64 {
	if s.Count == 0 {
		return nil
	}
	m := s.Sum / float64(s.Count)
	return &m
}

// Stats scans a column and skips missing cells. The first row wins ties
// for min and max.
func Stats(t *models.Table, column string) ColumnStats {
	st := ColumnStats{MinRow: -1, MaxRow: -1}
	for i := 0; i < t.Len(); i++ {
		v, ok := t.Float(i, column)
		if !ok {
			continue
		}
		if st.Count == 0 || v < st.Min {
			st.Min, st.MinRow = v, i
		}
		if st.Count == 0 || v > st.Max {
			st.Max, st.MaxRow = v, i
		}
		st.Sum += v
		st.Count++
	}
	return st
}

// Summarize computes row count, the mean of every numeric column and the
// frequency of each Type value.
func Summarize(t *models.Table) models.Summary {
	s := models.Summary{
		TotalCount:       t.Len(),
		Averages:         make(map[string]*float64),
		TypeDistribution: make(map[string]int),
	}

	for _, name := range t.NumericColumns() {
		s.Averages[name] = Stats(t, name).Mean()
	}

	if t.Has(models.ColType) {
		for i := 0; i < t.Len(); i++ {
			v := t.Cell(i, models.ColType)
			if models.IsMissing(v) {
				continue
			}
			s.TypeDistribution[v]++
		}
	}

	return s
}
