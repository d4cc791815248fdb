// Package utilization reduces consumed-capacity samples against provisioned
// capacity into a peak utilization percentage.
package utilization

import (
	"math"

	"ddb-capacity-reporter/types"
)

// PeakPercent returns the highest sample Sum as a percentage of provisionedUnits.
// An empty series yields 0.
func PeakPercent(series types.MetricSeries, provisionedUnits float64) (float64, error) {
	if math.IsNaN(provisionedUnits) || provisionedUnits <= 0 {
		return 0, &types.InvalidCapacityError{Units: provisionedUnits}
	}

	return fold(series, 0.0, func(peak float64, sample types.MetricSample) float64 {
		return math.Max(peak, sample.Sum/provisionedUnits*100)
	}), nil
}

// Calculate builds the report for one subject from its provisioned capacity and
// the consumed read capacity series.
func Calculate(subject types.Subject, capacity types.ProvisionedCapacity, series types.MetricSeries, window types.Window) (types.UtilizationReport, error) {
	peak, err := PeakPercent(series, float64(capacity.ReadUnits))
	if err != nil {
		if invalid, ok := err.(*types.InvalidCapacityError); ok {
			invalid.Subject = subject
		}
		return types.UtilizationReport{}, err
	}

	return types.UtilizationReport{
		Subject:     subject,
		Provisioned: capacity,
		PeakPercent: peak,
		Samples:     len(series),
		Window:      window,
	}, nil
}

func fold(series types.MetricSeries, acc float64, fn func(float64, types.MetricSample) float64) float64 {
	for _, sample := range series {
		acc = fn(acc, sample)
	}
	return acc
}
