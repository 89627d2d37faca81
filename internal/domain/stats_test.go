package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1380000, "1.4M"},
		{29945493, "29.9M"},
		{45000, "45K"},
		{1500, "2K"},
		{999, "999"},
		{0, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in))
	}
}

func TestComputeStats(t *testing.T) {
	regions := []Region{
		{ID: "texas", Level: "extreme", AtRisk: 125000, Counts: map[string]int{"economic_impact": 340000000},
			Rivers: []RiverStatus{{Status: StatusWarning}, {Status: StatusCritical}, {Status: StatusWarning}}},
		{ID: "florida", Level: "high", AtRisk: 76000, Counts: map[string]int{"economic_impact": 180000000},
			Rivers: []RiverStatus{{Status: StatusNormal}, {Status: StatusWatch}}},
		{ID: "california", Level: "low", AtRisk: 28000, Counts: map[string]int{"economic_impact": 45000000}},
	}
	defs := []StatDef{
		{Key: "active_warnings", Kind: StatAlertingRivers},
		{Key: "states_affected", Kind: StatElevatedRegions},
		{Key: "people_at_risk", Kind: StatSumAtRisk, Format: FormatCompact},
		{Key: "economic_impact", Kind: StatSumCount, Field: "economic_impact", Format: FormatMillions},
		{Key: "evacuation_centers", Kind: StatStatic, Value: "89"},
	}

	stats, err := ComputeStats(regions, defs, DefaultThresholds)
	require.NoError(t, err)
	require.Len(t, stats, 5)

	assert.Equal(t, "3", stats[0].Value)
	assert.Equal(t, "2", stats[1].Value)
	assert.Equal(t, 229000, stats[2].Raw)
	assert.Equal(t, "229K", stats[2].Value)
	assert.Equal(t, "$565M", stats[3].Value)
	assert.Equal(t, "89", stats[4].Value)
}

func TestComputeStats_UnknownKind(t *testing.T) {
	_, err := ComputeStats(nil, []StatDef{{Key: "x", Kind: "median"}}, DefaultThresholds)
	require.Error(t, err)
}

func TestComputeStats_ElevatedUsesThresholdLabels(t *testing.T) {
	monitor := DefaultThresholds
	monitor.Labels = [4]string{"minimal", "moderate", "high", "critical"}
	regions := []Region{
		{ID: "king", Level: "critical"},
		{ID: "skagit", Level: "high"},
		{ID: "pierce", Level: "moderate"},
		{ID: "clark", Level: "extreme"},
	}
	defs := []StatDef{{Key: "counties_affected", Kind: StatElevatedRegions}}

	stats, err := ComputeStats(regions, defs, monitor)
	require.NoError(t, err)
	assert.Equal(t, 2, stats[0].Raw)

	stats, err = ComputeStats(regions, defs, DefaultThresholds)
	require.NoError(t, err)
	assert.Equal(t, 2, stats[0].Raw)
}
