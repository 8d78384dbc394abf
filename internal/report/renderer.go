// Package report turns a dataset into a PDF report with charts.
//
// Rendering is split in two steps that share an explicit ViewModel: Build
// computes insights and charts, Document lays them out. Nothing is kept
// between calls.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/equipment-visualizer/backend/internal/analysis"
	"github.com/equipment-visualizer/backend/internal/models"
)

// Chart kinds served on their own.
const (
	ChartBar = "bar"
	ChartPie = "pie"
)

// Options configure a Renderer.
type Options struct {
	Title       string
	PageSize    string // fpdf size name, e.g. Letter or A4
	ChartWidth  int    // pixels
	ChartHeight int    // pixels
	// Uncompressed leaves page streams readable; used by tests.
	Uncompressed bool
	Now          func() time.Time
}

// Renderer builds report view models and documents.
type Renderer struct {
	opts Options
}

// NewRenderer fills unset options with defaults.
func NewRenderer(opts Options) *Renderer {
	if opts.Title == "" {
		opts.Title = "Chemical Equipment Parameter Report"
	}
	if opts.PageSize == "" {
		opts.PageSize = "Letter"
	}
	if opts.ChartWidth <= 0 {
		opts.ChartWidth = 800
	}
	if opts.ChartHeight <= 0 {
		opts.ChartHeight = 400
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Renderer{opts: opts}
}

// Build resolves the selection and computes everything the document shows.
func (r *Renderer) Build(meta Meta, t *models.Table, sel Selection) (*ViewModel, error) {
	resolved, err := sel.Resolve(t)
	if err != nil {
		return nil, err
	}

	vm := &ViewModel{
		Title:       r.opts.Title,
		GeneratedAt: r.opts.Now(),
		Meta:        meta,
		Selection:   resolved,
		RowCount:    t.Len(),
		Insights:    analysis.Insights(t, models.ColEquipmentName),
		TypeShares:  typeShares(meta.Summary),
		PieBuckets:  analysis.Distribution(t, resolved.PieColumn),
	}
	if !vm.HasData() {
		return vm, nil
	}

	if vm.BarChart, err = BarChart(t, resolved, r.opts.ChartWidth, r.opts.ChartHeight); err != nil {
		return nil, err
	}
	if vm.PieChart, err = PieChart(resolved.PieColumn, vm.PieBuckets, r.opts.ChartHeight, r.opts.ChartHeight); err != nil {
		return nil, err
	}
	return vm, nil
}

// Document lays out a built view model and the raw rows as a PDF.
func (r *Renderer) Document(vm *ViewModel, t *models.Table) ([]byte, error) {
	d := newDocument(r.opts.PageSize, !r.opts.Uncompressed)
	d.pdf.AddPage()

	d.pdf.SetFont(fontFamily, "B", 18)
	d.pdf.CellFormat(0, 12, d.tr(vm.Title), "", 1, "C", false, 0, "")
	d.pdf.Ln(2)

	d.lines([]string{
		"Report generated on: " + vm.GeneratedAt.Format("2006-01-02 15:04:05"),
		"Dataset ID: " + vm.Meta.ID,
		"File Name: " + vm.Meta.Filename,
		"Uploaded at: " + vm.Meta.UploadedAt.Format("2006-01-02 15:04:05"),
	})
	d.lines(SummaryLines(vm))

	d.heading("Data Insights", 14)
	d.lines(InsightLines(vm))

	d.heading("Equipment Type Distribution", 14)
	d.lines(ShareLines(vm))

	d.heading(fmt.Sprintf("Equipment Metrics (%s by %s)", strings.Join(vm.Selection.YColumns, ", "), vm.Selection.XColumn), 14)
	if vm.BarChart != nil {
		d.image("bar", vm.BarChart, d.usable)
	} else {
		d.lines([]string{noData})
	}

	d.heading(vm.Selection.PieColumn+" Distribution", 14)
	if vm.PieChart != nil {
		d.image("pie", vm.PieChart, d.usable*0.6)
	} else {
		d.lines([]string{noData})
	}

	d.pdf.AddPage()
	d.heading("Raw Data", 14)
	if t.Len() == 0 {
		d.lines([]string{noData})
	}
	d.table(t)

	if err := d.pdf.Error(); err != nil {
		return nil, fmt.Errorf("laying out PDF: %w", err)
	}
	return d.bytes()
}

// Render builds and lays out a report in one call.
func (r *Renderer) Render(meta Meta, t *models.Table, sel Selection) (*ViewModel, []byte, error) {
	vm, err := r.Build(meta, t, sel)
	if err != nil {
		return nil, nil, err
	}
	doc, err := r.Document(vm, t)
	if err != nil {
		return nil, nil, err
	}
	return vm, doc, nil
}

// Chart renders a single chart as PNG.
func (r *Renderer) Chart(kind string, t *models.Table, sel Selection) ([]byte, error) {
	resolved, err := sel.Resolve(t)
	if err != nil {
		return nil, err
	}
	switch kind {
	case ChartBar:
		return BarChart(t, resolved, r.opts.ChartWidth, r.opts.ChartHeight)
	case ChartPie:
		return PieChart(resolved.PieColumn, analysis.Distribution(t, resolved.PieColumn), r.opts.ChartHeight, r.opts.ChartHeight)
	default:
		return nil, models.NewValidationError("kind", fmt.Sprintf("unknown chart %q", kind))
	}
}
