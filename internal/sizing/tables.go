package sizing

// InverterCombined marks plants too large for a single inverter; the field
// crew parallels multiple units instead.
const InverterCombined = "SPV-COMBO (combine multiple units)"

// inverterRange maps a contiguous, non-overlapping span of module counts to
// one inverter model. Table order is the canonical model order; the 1-based
// index is the model's rank used by the gear table.
type inverterRange struct {
	minModules int
	maxModules int
	model      string
}

var inverterTable = []inverterRange{
	{10, 13, "SPV-8K"},
	{14, 16, "SPV-10K"},
	{17, 20, "SPV-12K"},
	{21, 24, "SPV-15K"},
	{25, 28, "SPV-17K"},
	{29, 33, "SPV-20K"},
	{34, 41, "SPV-25K"},
	{42, 48, "SPV-30K"},
	{49, 55, "SPV-33K"},
	{56, 62, "SPV-36K"},
	{63, 69, "SPV-40K"},
	{70, 76, "SPV-45K"},
	{77, 83, "SPV-50K"},
	{84, 97, "SPV-60K"},
}

// gearTier maps a contiguous span of inverter ranks to a distribution-box
// rating and wire gauges. Rank len(inverterTable)+1 is the combined-units
// marker.
type gearTier struct {
	minRank         int
	maxRank         int
	distributionBox string
	copperWire      string
	aluminumWire    string
}

var gearTable = []gearTier{
	{1, 2, "63A", "10mm²", "16mm²"},
	{3, 5, "80A", "16mm²", "25mm²"},
	{6, 8, "100A", "25mm²", "35mm²"},
	{9, 11, "125A", "35mm²", "50mm²"},
	{12, 14, "160A", "50mm²", "70mm²"},
	{15, 15, "200A", "70mm²", "95mm²"},
}
