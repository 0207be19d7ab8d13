package cosem

// Unit is the DLMS physical unit code carried in scaler-unit attributes.
type Unit uint8

// Commonly referenced unit codes.
const (
	UnitNone          Unit = 0
	UnitSecond        Unit = 7
	UnitWatt          Unit = 27
	UnitVoltAmpere    Unit = 28
	UnitVar           Unit = 29
	UnitWattHour      Unit = 30
	UnitVoltAmpereHr  Unit = 31
	UnitVarHour       Unit = 32
	UnitAmpere        Unit = 33
	UnitVolt          Unit = 35
	UnitHertz         Unit = 44
	UnitAmpereHour    Unit = 57
	UnitDecibelMilliW Unit = 70
)

var unitNames = [...]string{"unknown",
	// 1
	"a",
	"mo",
	"wk",
	"d",
	"h",
	"min.",
	"s",
	"°",
	"°C",
	// 10
	"currency",
	"m",
	"m/s",
	"m³",
	"m³",
	"m³/h",
	"m³/h",
	"m³/d",
	"m³/d",
	"l",
	// 20
	"kg",
	"N",
	"Nm",
	"Pa",
	"bar",
	"J",
	"J/h",
	"W",
	"VA",
	"var",
	// 30
	"Wh",
	"VAh",
	"varh",
	"A",
	"C",
	"V",
	"V/m",
	"F",
	"Ω",
	"Ωm²/m",
	// 40
	"Wb",
	"T",
	"A/m",
	"H",
	"Hz",
	"1/(Wh)",
	"1/(varh)",
	"1/(VAh)",
	"V²h",
	"A²h",
	// 50
	"kg/s",
	"S",
	"K",
	"1/(V²h)",
	"1/(A²h)",
	"1/m³",
	"%",
	"Ah",
	"unknown",
	"unknown",
	// 60
	"Wh/m³",
	"J/m³",
	"Mol %",
	"g/m³",
	"Pa s",
	"J/kg",
	"g/cm²",
	"atm",
	"unknown",
	"unknown",
	// 70
	"dBm",
	"dbµV",
	"dB"}

// String returns the display name of the unit, "unknown" for codes outside
// the table.
func (u Unit) String() string {
	if int(u) >= len(unitNames) {
		return unitNames[0]
	}
	return unitNames[u]
}
