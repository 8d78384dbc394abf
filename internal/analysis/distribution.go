package analysis

import (
	"fmt"

	"github.com/equipment-visualizer/backend/internal/models"
)

// Bucket is one slice of a pie distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Temperature bands in reporting order.
var temperatureBands = []struct {
	upper float64
	label string
}{
	{290, "Cool (<290°C)"},
	{310, "Warm (290-310°C)"},
	{330, "Moderately High (310-330°C)"},
	{350, "High (330-350°C)"},
}

const extremeTemperature = "Extremely High (>350°C)"

const missingLabel = "N/A"

// TemperatureBand returns the fixed real-world band for a temperature.
// Lower bounds are inclusive.
func TemperatureBand(v float64) string {
	for _, b := range temperatureBands {
		if v < b.upper {
			return b.label
		}
	}
	return extremeTemperature
}

// Categorize buckets a value of column into its pie slice. Temperature uses
// fixed bands; other columns use four equal-width bins over [min, max].
func Categorize(v, min, max float64, column string) string {
	if column == models.ColTemperature {
		return TemperatureBand(v)
	}
	rng := max - min
	if rng == 0 {
		return fmt.Sprintf("%.2f", v)
	}
	step := rng / 4
	a, b, c := min+step, min+2*step, min+3*step
	switch {
	case v < a:
		return fmt.Sprintf("Low (<%.2f)", a)
	case v < b:
		return fmt.Sprintf("Medium-Low (%.2f-%.2f)", a, b)
	case v < c:
		return fmt.Sprintf("Medium-High (%.2f-%.2f)", b, c)
	default:
		return fmt.Sprintf("High (>%.2f)", c)
	}
}

// labelOrder lists the possible slices of a numeric column in display order.
func labelOrder(column string, min, max float64) []string {
	if column == models.ColTemperature {
		labels := make([]string, 0, len(temperatureBands)+1)
		for _, b := range temperatureBands {
			labels = append(labels, b.label)
		}
		return append(labels, extremeTemperature)
	}
	if max == min {
		return []string{fmt.Sprintf("%.2f", min)}
	}
	step := (max - min) / 4
	// one representative value per bin
	labels := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		labels = append(labels, Categorize(min+step*float64(i), min, max, column))
	}
	return labels
}

// Distribution counts the rows of column per pie slice. Numeric columns are
// bucketed with Categorize; text columns count each distinct value in
// first-seen order. Missing cells are counted under "N/A", last.
func Distribution(t *models.Table, column string) []Bucket {
	if !t.Has(column) || t.Len() == 0 {
		return []Bucket{}
	}
	if t.IsNumeric(column) {
		return numericDistribution(t, column)
	}

	counts := make(map[string]int)
	var order []string
	for i := 0; i < t.Len(); i++ {
		v := t.Cell(i, column)
		if models.IsMissing(v) {
			v = missingLabel
		}
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	out := make([]Bucket, 0, len(order))
	for _, label := range order {
		out = append(out, Bucket{Label: label, Count: counts[label]})
	}
	return out
}

func numericDistribution(t *models.Table, column string) []Bucket {
	st := Stats(t, column)
	counts := make(map[string]int)
	missing := 0
	for i := 0; i < t.Len(); i++ {
		v, ok := t.Float(i, column)
		if !ok {
			missing++
			continue
		}
		counts[Categorize(v, st.Min, st.Max, column)]++
	}

	out := make([]Bucket, 0)
	if st.Count > 0 {
		for _, label := range labelOrder(column, st.Min, st.Max) {
			if n := counts[label]; n > 0 {
				out = append(out, Bucket{Label: label, Count: n})
			}
		}
	}
	if missing > 0 {
		out = append(out, Bucket{Label: missingLabel, Count: missing})
	}
	return out
}
