// Package sizing derives the equipment specification for a plant from its
// module count. Every derived field on a customer record is a function of
// this single input; nothing here is independently settable.
package sizing

import "math"

// MinModuleCount is the smallest plant we size equipment for. Below it the
// arithmetic fields are still computed but no inverter/box/wire is selected.
const MinModuleCount = 10

// Per-module constants used by the arithmetic fields. filing capacity and
// land area are computed over module_count + 5 (mounting margin).
const (
	kwPerModule      = 0.71
	filingMargin     = 5
	investmentFactor = 0.25
	areaPerModule    = 3.106
)

// Bundle is the full set of derived sizing fields. Nil means "not
// applicable for this module count".
type Bundle struct {
	Capacity         *float64 `json:"capacity"`
	FilingCapacity   *float64 `json:"filing_capacity"`
	InvestmentAmount *float64 `json:"investment_amount"`
	LandArea         *float64 `json:"land_area"`
	Inverter         *string  `json:"inverter"`
	DistributionBox  *string  `json:"distribution_box"`
	CopperWire       *string  `json:"copper_wire"`
	AluminumWire     *string  `json:"aluminum_wire"`
}

// Calculate returns the sizing bundle for the given module count. It is pure:
// the same count always yields the same bundle. A nil count yields an empty
// bundle; counts below MinModuleCount yield the arithmetic fields only.
// Callers are expected to reject negative counts before calling.
func Calculate(moduleCount *int) Bundle {
	var b Bundle
	if moduleCount == nil {
		return b
	}

	n := *moduleCount
	b.Capacity = round2(float64(n) * kwPerModule)
	b.FilingCapacity = round2(float64(n+filingMargin) * kwPerModule)
	b.InvestmentAmount = round2(float64(n+filingMargin) * kwPerModule * investmentFactor)
	b.LandArea = round2(float64(n+filingMargin) * areaPerModule)

	if n < MinModuleCount {
		return b
	}

	model, rank := selectInverter(n)
	b.Inverter = &model

	tier := selectGearTier(rank)
	b.DistributionBox = strptr(tier.distributionBox)
	b.CopperWire = strptr(tier.copperWire)
	b.AluminumWire = strptr(tier.aluminumWire)

	return b
}

// selectInverter resolves the inverter model and its rank (1-based position
// in the canonical model table) for a module count >= MinModuleCount.
// Counts above the top range select the combined-units marker, which ranks
// one past the last single model.
func selectInverter(n int) (model string, rank int) {
	for i, r := range inverterTable {
		if n >= r.minModules && n <= r.maxModules {
			return r.model, i + 1
		}
	}
	return InverterCombined, len(inverterTable) + 1
}

// selectGearTier resolves the box/wire tier for an inverter rank.
//
// The tier is keyed on the model's ordinal rank, NOT on the model name:
// model names compare lexicographically ("SPV-10K" sorts below "SPV-8K"),
// so a string comparison would mis-order models across the two-digit
// boundary. See TestGearTierIgnoresModelNameOrder.
func selectGearTier(rank int) gearTier {
	for _, t := range gearTable {
		if rank >= t.minRank && rank <= t.maxRank {
			return t
		}
	}
	// Rank past the table (combined-units marker) sizes at the top tier.
	return gearTable[len(gearTable)-1]
}

func round2(x float64) *float64 {
	v := math.Round(x*100) / 100
	return &v
}

func strptr(s string) *string { return &s }
