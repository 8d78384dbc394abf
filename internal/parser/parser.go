package parser

import (
	"io"

	"github.com/equipment-visualizer/backend/internal/models"
)

// ParseEquipmentCSV parses an uploaded file and checks the required columns.
// Malformed files are rejected wholesale.
func ParseEquipmentCSV(r io.Reader) (*models.Table, error) {
	t, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if err := ValidateColumns(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ValidateColumns fails with a ValidationError naming every missing required column.
func ValidateColumns(t *models.Table) error {
	var missing []string
	for _, name := range models.RequiredColumns {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &models.ValidationError{Field: "file", Missing: missing}
	}
	return nil
}

// InferKind classifies a column from its cells. A column is numeric when it has
// at least one value and every value parses as a number. Columns without any
// value are numeric only when they are measurement columns.
func InferKind(name string, cells []string) models.ColumnKind {
	seen := 0
	for _, c := range cells {
		if models.IsMissing(c) {
			continue
		}
		if _, ok := models.ParseNumber(c); !ok {
			return models.ColumnText
		}
		seen++
	}
	if seen == 0 && !models.IsMeasurementColumn(name) {
		return models.ColumnText
	}
	return models.ColumnNumeric
}
