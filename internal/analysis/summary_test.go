package analysis

import (
	"strings"
	"testing"

	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/equipment-visualizer/backend/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, csv string) *models.Table {
	t.Helper()
	table, err := parser.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	return table
}

func TestSummarize_PumpValveExample(t *testing.T) {
	table := mustTable(t, "Equipment Name,Type,Flowrate\nP1,Pump,10\nV1,Valve,20\n")

	s := Summarize(table)

	assert.Equal(t, 2, s.TotalCount)
	require.NotNil(t, s.Averages["Flowrate"])
	assert.InDelta(t, 15.0, *s.Averages["Flowrate"], 1e-9)
	assert.Equal(t, map[string]int{"Pump": 1, "Valve": 1}, s.TypeDistribution)
	_, hasName := s.Averages["Equipment Name"]
	assert.False(t, hasName, "averages only cover numeric columns")
}

func TestSummarize_Means(t *testing.T) {
	table := mustTable(t, `Equipment Name,Type,Flowrate,Pressure,Temperature
A,Pump,1,10,300
B,Pump,2,,310
C,Valve,3,30,320
D,Compressor,4,40,330
`)

	s := Summarize(table)

	assert.Equal(t, 4, s.TotalCount)
	assert.InDelta(t, 2.5, *s.Averages["Flowrate"], 1e-9)
	// missing cells are skipped, not counted as zero
	assert.InDelta(t, 80.0/3.0, *s.Averages["Pressure"], 1e-9)
	assert.InDelta(t, 315.0, *s.Averages["Temperature"], 1e-9)
	assert.Equal(t, map[string]int{"Pump": 2, "Valve": 1, "Compressor": 1}, s.TypeDistribution)
}

func TestSummarize_ZeroRows(t *testing.T) {
	table := mustTable(t, "Equipment Name,Type,Flowrate,Pressure,Temperature\n")

	s := Summarize(table)

	assert.Equal(t, 0, s.TotalCount)
	assert.Empty(t, s.TypeDistribution)
	for _, col := range models.MeasurementColumns {
		avg, ok := s.Averages[col]
		assert.True(t, ok, "expected %s to be reported", col)
		assert.Nil(t, avg, "expected nil mean for %s", col)
	}
}

func TestInsights(t *testing.T) {
	table := mustTable(t, `Equipment Name,Type,Flowrate,Temperature
Pump-1,Pump,10,300
Valve-1,Valve,30,280
HX-1,HX,20,400
`)

	got := Insights(table, models.ColEquipmentName)
	require.Len(t, got, 2)

	flow := got[0]
	assert.Equal(t, "Flowrate", flow.Column)
	assert.Equal(t, 10.0, flow.Min)
	assert.Equal(t, "Pump-1", flow.MinLabel)
	assert.Equal(t, 30.0, flow.Max)
	assert.Equal(t, "Valve-1", flow.MaxLabel)
	assert.InDelta(t, 20.0, flow.Avg, 1e-9)

	temp := got[1]
	assert.Equal(t, "Valve-1", temp.MinLabel)
	assert.Equal(t, "HX-1", temp.MaxLabel)
}

func TestInsights_ZeroRows(t *testing.T) {
	table := mustTable(t, "Equipment Name,Type,Flowrate,Pressure,Temperature\n")
	assert.Empty(t, Insights(table, models.ColEquipmentName))
}

func TestSummarize_TypeMarkers(t *testing.T) {
	table := mustTable(t, "Equipment Name,Type,Flowrate\nP1,-,10\nP2,None,20\nP3,NONE,30\nP4,,40\n")

	s := Summarize(table)

	assert.Equal(t, 4, s.TotalCount)
	assert.Equal(t, map[string]int{"-": 1, "NONE": 1}, s.TypeDistribution)
}
