package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/equipment-visualizer/backend/internal/analysis"
	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pixels converts a pixel size to vg lengths at 96 dpi.
func pixels(px int) vg.Length {
	return vg.Length(px) * vg.Inch / 96
}

// BarChart renders one bar series per Y column, grouped by the X column.
func BarChart(t *models.Table, sel Selection, width, height int) ([]byte, error) {
	n := t.Len()
	if n == 0 {
		return nil, models.NewValidationError("data", "dataset has no rows")
	}

	p := plot.New()
	p.Title.Text = "Equipment Metrics"
	p.X.Label.Text = sel.XColumn
	p.Y.Label.Text = "Value"

	w, h := pixels(width), pixels(height)
	barWidth := w * 0.7 / vg.Length(n*len(sel.YColumns))
	if barWidth < 1 {
		barWidth = 1
	}

	for i, col := range sel.YColumns {
		vals := make(plotter.Values, n)
		for r := 0; r < n; r++ {
			// missing readings draw as empty bars
			if v, ok := t.Float(r, col); ok {
				vals[r] = v
			}
		}
		bars, err := plotter.NewBarChart(vals, barWidth)
		if err != nil {
			return nil, fmt.Errorf("building %s bars: %w", col, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = barWidth * vg.Length(float64(i)-float64(len(sel.YColumns)-1)/2)
		p.Add(bars)
		p.Legend.Add(col, bars)
	}
	p.Legend.Top = true

	labels := make([]string, n)
	for r := range labels {
		labels[r] = t.Cell(r, sel.XColumn)
		if models.IsMissing(labels[r]) {
			labels[r] = "N/A"
		}
	}
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("encoding bar chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

// PieChart renders the buckets of a distribution.
func PieChart(column string, buckets []analysis.Bucket, width, height int) ([]byte, error) {
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total == 0 {
		return nil, models.NewValidationError("data", "dataset has no rows")
	}

	values := make([]chart.Value, 0, len(buckets))
	for _, b := range buckets {
		values = append(values, chart.Value{
			Value: float64(b.Count),
			Label: fmt.Sprintf("%s %.1f%%", b.Label, float64(b.Count)/float64(total)*100),
		})
	}

	pie := chart.PieChart{
		Title:  column + " Distribution",
		Width:  width,
		Height: height,
		Values: values,
	}
	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering pie chart: %w", err)
	}
	return buf.Bytes(), nil
}
