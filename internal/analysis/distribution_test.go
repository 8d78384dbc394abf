package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemperatureBand(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{250, "Cool (<290°C)"},
		{289.99, "Cool (<290°C)"},
		{290, "Warm (290-310°C)"},
		{295, "Warm (290-310°C)"},
		{310, "Moderately High (310-330°C)"},
		{345, "High (330-350°C)"},
		{350, "Extremely High (>350°C)"},
		{500, "Extremely High (>350°C)"},
	}
	for _, tt := range tests {
		if got := TemperatureBand(tt.value); got != tt.want {
			t.Errorf("TemperatureBand(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestCategorize_EqualWidthBins(t *testing.T) {
	// range 0..100, step 25
	tests := []struct {
		value float64
		want  string
	}{
		{0, "Low (<25.00)"},
		{24.9, "Low (<25.00)"},
		{25, "Medium-Low (25.00-50.00)"},
		{60, "Medium-High (50.00-75.00)"},
		{75, "High (>75.00)"},
		{100, "High (>75.00)"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.value, 0, 100, "Flowrate"); got != tt.want {
			t.Errorf("Categorize(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestCategorize_ZeroRange(t *testing.T) {
	assert.Equal(t, "7.00", Categorize(7, 7, 7, "Pressure"))
}

func TestDistribution(t *testing.T) {
	table := mustTable(t, `Equipment Name,Type,Flowrate,Temperature
A,Pump,0,295
B,Valve,100,500
C,Pump,30,
D,Valve,,300
`)

	t.Run("temperature bands in band order", func(t *testing.T) {
		got := Distribution(table, "Temperature")
		assert.Equal(t, []Bucket{
			{Label: "Warm (290-310°C)", Count: 2},
			{Label: "Extremely High (>350°C)", Count: 1},
			{Label: "N/A", Count: 1},
		}, got)
	})

	t.Run("numeric bins in bin order", func(t *testing.T) {
		got := Distribution(table, "Flowrate")
		assert.Equal(t, []Bucket{
			{Label: "Low (<25.00)", Count: 1},
			{Label: "Medium-Low (25.00-50.00)", Count: 1},
			{Label: "High (>75.00)", Count: 1},
			{Label: "N/A", Count: 1},
		}, got)
	})

	t.Run("text values in first-seen order", func(t *testing.T) {
		got := Distribution(table, "Type")
		assert.Equal(t, []Bucket{
			{Label: "Pump", Count: 2},
			{Label: "Valve", Count: 2},
		}, got)
	})

	t.Run("unknown column", func(t *testing.T) {
		assert.Empty(t, Distribution(table, "Nope"))
	})
}

func TestDistribution_ZeroRows(t *testing.T) {
	table := mustTable(t, "Equipment Name,Type,Flowrate,Pressure,Temperature\n")
	assert.Empty(t, Distribution(table, "Temperature"))
}
