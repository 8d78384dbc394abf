package report

import (
	"sort"
	"time"

	"github.com/equipment-visualizer/backend/internal/analysis"
	"github.com/equipment-visualizer/backend/internal/models"
)

// Meta identifies the dataset a report is about.
type Meta struct {
	ID         string
	Filename   string
	UploadedAt time.Time
	Summary    models.Summary
}

// MetaOf extracts report metadata from a dataset record.
func MetaOf(ds *models.Dataset) Meta {
	return Meta{ID: ds.ID, Filename: ds.Filename, UploadedAt: ds.UploadedAt, Summary: ds.Summary}
}

// Share is one equipment type with its share of all rows.
type Share struct {
	Type    string  `json:"type"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ViewModel carries everything a document is rendered from. Each render
// step fills its part and passes it on.
type ViewModel struct {
	Title       string
	GeneratedAt time.Time
	Meta        Meta
	Selection   Selection
	RowCount    int
	Insights    []analysis.ColumnInsight
	TypeShares  []Share
	PieBuckets  []analysis.Bucket
	BarChart    []byte // PNG, nil without rows
	PieChart    []byte // PNG, nil without rows
}

// HasData reports whether there are rows to chart.
func (vm *ViewModel) HasData() bool {
	return vm.RowCount > 0
}

// typeShares orders types by count, then name.
func typeShares(s models.Summary) []Share {
	out := make([]Share, 0, len(s.TypeDistribution))
	for typ, n := range s.TypeDistribution {
		var pct float64
		if s.TotalCount > 0 {
			pct = float64(n) / float64(s.TotalCount) * 100
		}
		out = append(out, Share{Type: typ, Count: n, Percent: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
