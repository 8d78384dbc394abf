package report

import (
	"fmt"

	"github.com/equipment-visualizer/backend/internal/models"
)

const noData = "No data available."

// SummaryLines are the headline figures printed under the title.
func SummaryLines(vm *ViewModel) []string {
	lines := []string{fmt.Sprintf("Total Equipment Count: %d", vm.Meta.Summary.TotalCount)}
	for _, col := range models.MeasurementColumns {
		avg, ok := vm.Meta.Summary.Averages[col]
		if !ok {
			continue
		}
		if avg == nil {
			lines = append(lines, fmt.Sprintf("Average %s: N/A", col))
			continue
		}
		lines = append(lines, fmt.Sprintf("Average %s: %.2f", col, *avg))
	}
	return lines
}

// InsightLines turns the per-column insights into sentences.
func InsightLines(vm *ViewModel) []string {
	lines := []string{fmt.Sprintf("The dataset contains data for %d pieces of equipment.", vm.RowCount)}
	if !vm.HasData() {
		return append(lines, noData)
	}
	for _, in := range vm.Insights {
		lines = append(lines, fmt.Sprintf("%s: Ranges from %.2f to %.2f. Average is %.2f. Lowest: %s, highest: %s.",
			in.Column, in.Min, in.Max, in.Avg, in.MinLabel, in.MaxLabel))
	}
	return lines
}

// ShareLines lists the type distribution with percentages.
func ShareLines(vm *ViewModel) []string {
	if len(vm.TypeShares) == 0 {
		return []string{noData}
	}
	lines := make([]string, 0, len(vm.TypeShares))
	for _, s := range vm.TypeShares {
		lines = append(lines, fmt.Sprintf("- %s: %d (%.2f%%)", s.Type, s.Count, s.Percent))
	}
	return lines
}
