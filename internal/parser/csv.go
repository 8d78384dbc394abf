package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/equipment-visualizer/backend/internal/models"
)

const utf8BOM = "\ufeff"

// Parse reads CSV with a header row into a typed Table.
// Blank lines are skipped and cells are trimmed. A row whose field count
// differs from the header fails the whole parse.
func Parse(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.NewValidationError("file", "file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	names := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if _, dup := seen[h]; dup {
			return nil, models.NewValidationError("file", fmt.Sprintf("duplicate column %q", h))
		}
		seen[h] = struct{}{}
		names[i] = h
	}

	rows := make([][]string, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, record)
	}

	cols := make([]models.Column, len(names))
	cells := make([]string, len(rows))
	for i, name := range names {
		for j, row := range rows {
			cells[j] = row[i]
		}
		cols[i] = models.Column{Name: name, Kind: InferKind(name, cells)}
	}

	return models.NewTable(cols, rows), nil
}
