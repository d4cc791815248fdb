package utilization

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddb-capacity-reporter/types"
)

func seriesOf(sums ...float64) types.MetricSeries {
	start := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	series := make(types.MetricSeries, len(sums))
	for i, sum := range sums {
		series[i] = types.MetricSample{Timestamp: start.Add(time.Duration(i) * 5 * time.Minute), Sum: sum}
	}
	return series
}

func TestPeakPercent(t *testing.T) {
	for name, tc := range map[string]struct {
		sums     []float64
		units    float64
		expected float64
	}{
		"SingleSample":      {sums: []float64{25}, units: 50, expected: 50},
		"PeakInMiddle":      {sums: []float64{20, 55, 90, 10}, units: 100, expected: 90},
		"TiedPeaks":         {sums: []float64{40, 40, 12}, units: 80, expected: 50},
		"AboveProvisioned":  {sums: []float64{300}, units: 100, expected: 300},
		"AllZero":           {sums: []float64{0, 0}, units: 10, expected: 0},
		"FractionalResults": {sums: []float64{1, 2}, units: 3, expected: 200.0 / 3},
	} {
		t.Run(name, func(t *testing.T) {
			peak, err := PeakPercent(seriesOf(tc.sums...), tc.units)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, peak, 1e-9)
		})
	}
}

func TestPeakPercentMatchesMaxOverProvisioned(t *testing.T) {
	sums := []float64{3.5, 17.25, 0.5, 17.2, 9}
	units := 7.0
	peak, err := PeakPercent(seriesOf(sums...), units)
	require.NoError(t, err)

	max := 0.0
	for _, s := range sums {
		max = math.Max(max, s)
	}
	assert.InDelta(t, max/units*100, peak, 1e-9)
}

func TestPeakPercentOrderIndependent(t *testing.T) {
	forward, err := PeakPercent(seriesOf(20, 55, 90, 10), 100)
	require.NoError(t, err)
	reversed, err := PeakPercent(seriesOf(10, 90, 55, 20), 100)
	require.NoError(t, err)
	assert.Equal(t, forward, reversed)
}

func TestPeakPercentEmptySeries(t *testing.T) {
	for _, units := range []float64{1, 50, 0.25} {
		peak, err := PeakPercent(nil, units)
		require.NoError(t, err)
		assert.Zero(t, peak)

		peak, err = PeakPercent(types.MetricSeries{}, units)
		require.NoError(t, err)
		assert.Zero(t, peak)
	}
}

func TestPeakPercentInvalidCapacity(t *testing.T) {
	for name, units := range map[string]float64{
		"Zero":     0,
		"Negative": -5,
		"NaN":      math.NaN(),
	} {
		t.Run(name, func(t *testing.T) {
			for _, series := range []types.MetricSeries{nil, seriesOf(1, 2, 3)} {
				_, err := PeakPercent(series, units)
				var invalid *types.InvalidCapacityError
				require.True(t, errors.As(err, &invalid))
			}
		})
	}
}

func TestCalculate(t *testing.T) {
	window := types.Window{
		Start: time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
	}

	t.Run("ReportsPeakAndSampleCount", func(t *testing.T) {
		subject := types.Subject{Table: "Orders", Index: "byCustomer"}
		report, err := Calculate(subject, types.ProvisionedCapacity{ReadUnits: 20, WriteUnits: 5}, seriesOf(5, 18), window)
		require.NoError(t, err)
		assert.Equal(t, subject, report.Subject)
		assert.InDelta(t, 90, report.PeakPercent, 1e-9)
		assert.Equal(t, 2, report.Samples)
		assert.False(t, report.NoConsumption())
		assert.Equal(t, window, report.Window)
	})

	t.Run("EmptySeriesFlagsNoConsumption", func(t *testing.T) {
		report, err := Calculate(types.Subject{Table: "Empty"}, types.ProvisionedCapacity{ReadUnits: 50}, nil, window)
		require.NoError(t, err)
		assert.Zero(t, report.PeakPercent)
		assert.True(t, report.NoConsumption())
	})

	t.Run("ZeroSamplesDistinctFromNoData", func(t *testing.T) {
		report, err := Calculate(types.Subject{Table: "Idle"}, types.ProvisionedCapacity{ReadUnits: 50}, seriesOf(0, 0), window)
		require.NoError(t, err)
		assert.Zero(t, report.PeakPercent)
		assert.False(t, report.NoConsumption())
	})

	t.Run("ZeroReadUnitsCarriesSubject", func(t *testing.T) {
		subject := types.Subject{Table: "OnDemand"}
		_, err := Calculate(subject, types.ProvisionedCapacity{}, seriesOf(1), window)
		var invalid *types.InvalidCapacityError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, subject, invalid.Subject)
		assert.Contains(t, err.Error(), "OnDemand")
	})
}
