package report

import (
	"bytes"
	"fmt"

	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/go-pdf/fpdf"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 5.5
	rowHeight  = 6.0
)

type document struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	usable float64
}

func newDocument(pageSize string, compress bool) *document {
	pdf := fpdf.New("P", "mm", pageSize, "")
	pdf.SetCompression(compress)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)

	w, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	return &document{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		usable: w - left - right,
	}
}

func (d *document) heading(text string, size float64) {
	d.pdf.SetFont(fontFamily, "B", size)
	d.pdf.CellFormat(0, size*0.6, d.tr(text), "", 1, "L", false, 0, "")
	d.pdf.Ln(1)
}

func (d *document) lines(lines []string) {
	d.pdf.SetFont(fontFamily, "", 10)
	for _, l := range lines {
		d.pdf.MultiCell(0, lineHeight, d.tr(l), "", "L", false)
	}
	d.pdf.Ln(3)
}

func (d *document) image(name string, png []byte, width float64) {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	left, _, _, _ := d.pdf.GetMargins()
	x := left + (d.usable-width)/2
	d.pdf.ImageOptions(name, x, 0, width, 0, true, opts, 0, "")
	d.pdf.Ln(4)
}

// table draws the raw rows with a repeated header on each page.
func (d *document) table(t *models.Table) {
	if len(t.Columns) == 0 {
		return
	}
	colW := d.usable / float64(len(t.Columns))
	_, pageH := d.pdf.GetPageSize()
	_, _, _, bottom := d.pdf.GetMargins()

	header := func() {
		d.pdf.SetFont(fontFamily, "B", 8)
		d.pdf.SetFillColor(128, 128, 128)
		d.pdf.SetTextColor(255, 255, 255)
		d.pdf.SetDrawColor(0, 0, 0)
		for _, c := range t.Columns {
			d.pdf.CellFormat(colW, rowHeight+1, d.fit(c.Name, colW), "1", 0, "C", true, 0, "")
		}
		d.pdf.Ln(-1)
		d.pdf.SetFont(fontFamily, "", 8)
		d.pdf.SetFillColor(245, 245, 220)
		d.pdf.SetTextColor(0, 0, 0)
	}

	// rows are broken manually so the header can be repeated
	auto, margin := d.pdf.GetAutoPageBreak()
	d.pdf.SetAutoPageBreak(false, margin)
	defer d.pdf.SetAutoPageBreak(auto, margin)

	header()
	for _, row := range t.Rows {
		if d.pdf.GetY()+rowHeight > pageH-bottom {
			d.pdf.AddPage()
			header()
		}
		for i, cell := range row {
			align := "L"
			if t.Columns[i].Kind == models.ColumnNumeric {
				align = "R"
			}
			d.pdf.CellFormat(colW, rowHeight, d.fit(cell, colW), "1", 0, align, true, 0, "")
		}
		d.pdf.Ln(-1)
	}
}

// fit truncates s so it fits in a cell of width w. Translated text is
// single-byte, so it is cut bytewise.
func (d *document) fit(s string, w float64) string {
	s = d.tr(s)
	max := w - 2
	if d.pdf.GetStringWidth(s) <= max {
		return s
	}
	const ellipsis = "..."
	for len(s) > 0 && d.pdf.GetStringWidth(s+ellipsis) > max {
		s = s[:len(s)-1]
	}
	return s + ellipsis
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}
