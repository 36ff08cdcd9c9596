package model

// Driver identifies a COCOMO cost driver.
type Driver string

const (
	DriverRELY Driver = "rely"
	DriverDATA Driver = "data"
	DriverCPLX Driver = "cplx"
	DriverTIME Driver = "time"
	DriverSTOR Driver = "stor"
	DriverPVOL Driver = "pvol"
	DriverACAP Driver = "acap"
	DriverPCAP Driver = "pcap"
	DriverAEXP Driver = "aexp"
	DriverPEXP Driver = "pexp"
	DriverLTEX Driver = "ltex"
	DriverTOOL Driver = "tool"
	DriverSCED Driver = "sced"
)

// AllDrivers returns the cost drivers in canonical order. The regression model
// and scalers index features positionally in this order.
func AllDrivers() []Driver {
	return []Driver{
		DriverRELY,
		DriverDATA,
		DriverCPLX,
		DriverTIME,
		DriverSTOR,
		DriverPVOL,
		DriverACAP,
		DriverPCAP,
		DriverAEXP,
		DriverPEXP,
		DriverLTEX,
		DriverTOOL,
		DriverSCED,
	}
}

// Level is one of the six ordinal rating symbols.
type Level string

const (
	LevelVeryLow   Level = "VeryLow"
	LevelLow       Level = "Low"
	LevelNominal   Level = "Nominal"
	LevelHigh      Level = "High"
	LevelVeryHigh  Level = "VeryHigh"
	LevelExtraHigh Level = "ExtraHigh"
)

// AllLevels returns the rating levels from lowest to highest impact.
func AllLevels() []Level {
	return []Level{
		LevelVeryLow,
		LevelLow,
		LevelNominal,
		LevelHigh,
		LevelVeryHigh,
		LevelExtraHigh,
	}
}

// NeutralLevel is the fallback rating for anything that cannot be resolved.
const NeutralLevel = LevelNominal

// NeutralMultiplier is the multiplier applied for unknown drivers, unknown
// ratings and drivers absent from a request.
const NeutralMultiplier = 1.0
