package testutil

// SampleCSV is a small valid equipment file.
const SampleCSV = `Equipment Name,Type,Flowrate,Pressure,Temperature
Pump-1,Pump,120,5.2,110
Valve-1,Valve,60,4.1,105
HX-1,HeatExchanger,150,6.5,340
Pump-2,Pump,130,5.5,300
`

// HeaderOnlyCSV has the required columns and no rows.
const HeaderOnlyCSV = "Equipment Name,Type,Flowrate,Pressure,Temperature\n"

// MissingColumnCSV lacks the Temperature column.
const MissingColumnCSV = `Equipment Name,Type,Flowrate,Pressure
Pump-1,Pump,120,5.2
`
