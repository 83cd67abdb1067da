package sizing

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestCalculate_NilCount(t *testing.T) {
	b := Calculate(nil)
	assert.Nil(t, b.Capacity)
	assert.Nil(t, b.FilingCapacity)
	assert.Nil(t, b.InvestmentAmount)
	assert.Nil(t, b.LandArea)
	assert.Nil(t, b.Inverter)
	assert.Nil(t, b.DistributionBox)
	assert.Nil(t, b.CopperWire)
	assert.Nil(t, b.AluminumWire)
}

func TestCalculate_BelowMinimum(t *testing.T) {
	for _, n := range []int{0, 1, 5, 9} {
		b := Calculate(intp(n))
		require.NotNil(t, b.Capacity, "count %d", n)
		assert.InDelta(t, float64(n)*0.71, *b.Capacity, 0.005, "count %d", n)
		require.NotNil(t, b.FilingCapacity, "count %d", n)
		assert.InDelta(t, float64(n+5)*0.71, *b.FilingCapacity, 0.005, "count %d", n)
		require.NotNil(t, b.LandArea, "count %d", n)

		assert.Nil(t, b.Inverter, "count %d", n)
		assert.Nil(t, b.DistributionBox, "count %d", n)
		assert.Nil(t, b.CopperWire, "count %d", n)
		assert.Nil(t, b.AluminumWire, "count %d", n)
	}

	// Zero stays zero.
	b := Calculate(intp(0))
	assert.Equal(t, 0.0, *b.Capacity)
	assert.Equal(t, 3.55, *b.FilingCapacity)
}

func TestCalculate_ArithmeticFields(t *testing.T) {
	b := Calculate(intp(45))
	require.NotNil(t, b.Capacity)
	assert.Equal(t, 31.95, *b.Capacity)
	assert.Equal(t, 35.5, *b.FilingCapacity)
	assert.Equal(t, 8.88, *b.InvestmentAmount) // 50 * 0.71 * 0.25 = 8.875 -> 8.88
	assert.Equal(t, 155.3, *b.LandArea)
}

func TestCalculate_InverterBoundaries(t *testing.T) {
	tests := []struct {
		count int
		model string
	}{
		{10, "SPV-8K"},
		{13, "SPV-8K"},
		{14, "SPV-10K"},
		{16, "SPV-10K"},
		{17, "SPV-12K"},
		{20, "SPV-12K"},
		{21, "SPV-15K"},
		{24, "SPV-15K"},
		{25, "SPV-17K"},
		{28, "SPV-17K"},
		{29, "SPV-20K"},
		{33, "SPV-20K"},
		{34, "SPV-25K"},
		{41, "SPV-25K"},
		{42, "SPV-30K"},
		{45, "SPV-30K"},
		{48, "SPV-30K"},
		{49, "SPV-33K"},
		{55, "SPV-33K"},
		{56, "SPV-36K"},
		{62, "SPV-36K"},
		{63, "SPV-40K"},
		{69, "SPV-40K"},
		{70, "SPV-45K"},
		{76, "SPV-45K"},
		{77, "SPV-50K"},
		{83, "SPV-50K"},
		{84, "SPV-60K"},
		{97, "SPV-60K"},
		{98, InverterCombined},
		{500, InverterCombined},
	}
	for _, tc := range tests {
		b := Calculate(intp(tc.count))
		require.NotNil(t, b.Inverter, "count %d", tc.count)
		assert.Equal(t, tc.model, *b.Inverter, "count %d", tc.count)
	}
}

func TestCalculate_GearTiers(t *testing.T) {
	tests := []struct {
		count  int
		box    string
		copper string
		alu    string
	}{
		{10, "63A", "10mm²", "16mm²"},  // rank 1
		{16, "63A", "10mm²", "16mm²"},  // rank 2
		{17, "80A", "16mm²", "25mm²"},  // rank 3
		{28, "80A", "16mm²", "25mm²"},  // rank 5
		{29, "100A", "25mm²", "35mm²"}, // rank 6
		{45, "100A", "25mm²", "35mm²"}, // rank 8
		{49, "125A", "35mm²", "50mm²"}, // rank 9
		{69, "125A", "35mm²", "50mm²"}, // rank 11
		{70, "160A", "50mm²", "70mm²"}, // rank 12
		{97, "160A", "50mm²", "70mm²"}, // rank 14
		{98, "200A", "70mm²", "95mm²"}, // combined marker
	}
	for _, tc := range tests {
		b := Calculate(intp(tc.count))
		require.NotNil(t, b.DistributionBox, "count %d", tc.count)
		assert.Equal(t, tc.box, *b.DistributionBox, "count %d", tc.count)
		assert.Equal(t, tc.copper, *b.CopperWire, "count %d", tc.count)
		assert.Equal(t, tc.alu, *b.AluminumWire, "count %d", tc.count)
	}
}

// The legacy system selected gear by comparing inverter model names as
// strings, which only worked while every rating had the same digit width.
// This pins the deliberate deviation: selection is by table rank, and model
// names do NOT sort in capacity order.
func TestGearTierIgnoresModelNameOrder(t *testing.T) {
	names := make([]string, len(inverterTable))
	for i, r := range inverterTable {
		names[i] = r.model
	}
	assert.False(t, sort.StringsAreSorted(names),
		"model names must not be relied on for ordering")

	// "SPV-10K" < "SPV-8K" lexicographically, yet rank 2 > rank 1: the
	// 14-16 range must still land in the same (or higher) tier as 10-13.
	small := Calculate(intp(10)) // SPV-8K, rank 1
	large := Calculate(intp(14)) // SPV-10K, rank 2
	assert.Equal(t, *small.DistributionBox, *large.DistributionBox)

	// Across a tier boundary the bigger plant gets the bigger box.
	bigger := Calculate(intp(17)) // SPV-12K, rank 3
	assert.Equal(t, "80A", *bigger.DistributionBox)
}

func TestCalculate_Deterministic(t *testing.T) {
	a := Calculate(intp(45))
	b := Calculate(intp(45))
	assert.Equal(t, a, b)
}

func TestInverterTableContiguous(t *testing.T) {
	require.NotEmpty(t, inverterTable)
	assert.Equal(t, MinModuleCount, inverterTable[0].minModules)
	for i := 1; i < len(inverterTable); i++ {
		assert.Equal(t, inverterTable[i-1].maxModules+1, inverterTable[i].minModules,
			"gap or overlap before %s", inverterTable[i].model)
	}
}

func TestGearTableCoversAllRanks(t *testing.T) {
	require.NotEmpty(t, gearTable)
	assert.Equal(t, 1, gearTable[0].minRank)
	for i := 1; i < len(gearTable); i++ {
		assert.Equal(t, gearTable[i-1].maxRank+1, gearTable[i].minRank)
	}
	assert.Equal(t, len(inverterTable)+1, gearTable[len(gearTable)-1].maxRank)
}
