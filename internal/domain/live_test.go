package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaugeStatus(t *testing.T) {
	tests := []struct {
		discharge float64
		want      string
	}{
		{12000, StatusCritical},
		{15000, StatusCritical},
		{10200, StatusWarning},
		{8400, StatusWatch},
		{3000, StatusNormal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GaugeStatus(tt.discharge, 12000), "discharge %v", tt.discharge)
	}
	assert.Equal(t, StatusNormal, GaugeStatus(5000, 0))
}

func TestGaugeRiver(t *testing.T) {
	r := GaugeRiver("Green River", 10500.4, 12000)
	assert.Equal(t, RiverStatus{Name: "Green River", Status: StatusWarning, CurrentLevel: "10500 cfs", FloodStage: "12000 cfs"}, r)
	assert.True(t, r.Alerting())
}

func TestLiveForecast(t *testing.T) {
	start := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	days := []WeatherDay{
		{Date: start, PrecipitationIn: 0.5},
		{Date: start.AddDate(0, 0, 1), PrecipitationIn: 2.0},
		{Date: start.AddDate(0, 0, 2), PrecipitationIn: 0},
	}

	out := LiveForecast(45, days, 1)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"Today", "Tomorrow", "Wed"}, []string{out[0].Label, out[1].Label, out[2].Label})
	assert.Equal(t, 65, out[0].RiskScore)
	assert.Equal(t, 90, out[1].RiskScore)
	assert.Equal(t, 55, out[2].RiskScore)
	assert.Equal(t, "Heavy rain", out[1].Description)
}

func TestLiveForecast_FloorsAtTen(t *testing.T) {
	out := LiveForecast(0, []WeatherDay{{Date: time.Now(), PrecipitationIn: 0}}, 0)
	assert.Equal(t, 10, out[0].RiskScore)
}
