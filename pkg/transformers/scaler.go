// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

type ScalingMethod string

const (
	StandardScaling ScalingMethod = "standard"
	MinMaxScaling   ScalingMethod = "minmax"
	RobustScaling   ScalingMethod = "robust"
)

// ScalerParams reproduces a fitted scaling function as (x - Center) / Scale.
//
//   - standard: Center is the mean, Scale the population standard deviation
//   - minmax: Center is the minimum, Scale the range
//   - robust: Center is the median, Scale the interquartile range
//
// A zero spread is stored as a Scale of 1 so constant columns map to zero.
type ScalerParams struct {
	Method ScalingMethod `json:"method"`
	Center float64       `json:"center"`
	Scale  float64       `json:"scale"`
}

func (p *ScalerParams) Apply(x float64) float64 {
	return (x - p.Center) / p.Scale
}

type scalerFitFn func(values []float64) (*ScalerParams, error)

var scalerFitFns = map[ScalingMethod]scalerFitFn{
	StandardScaling: fitStandardScaler,
	MinMaxScaling:   fitMinMaxScaler,
	RobustScaling:   fitRobustScaler,
}

func newScalerFitFn(method ScalingMethod) (scalerFitFn, error) {
	fn, found := scalerFitFns[method]
	if !found {
		return nil, fmt.Errorf("scaling method %q: %w", method, ErrUnknownConfiguration)
	}
	return fn, nil
}

func fitStandardScaler(values []float64) (*ScalerParams, error) {
	mean, err := stats.Mean(values)
	if err != nil {
		return nil, err
	}
	std, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return nil, err
	}
	return &ScalerParams{Method: StandardScaling, Center: mean, Scale: nonZeroScale(std)}, nil
}

func fitMinMaxScaler(values []float64) (*ScalerParams, error) {
	minVal, err := stats.Min(values)
	if err != nil {
		return nil, err
	}
	maxVal, err := stats.Max(values)
	if err != nil {
		return nil, err
	}
	return &ScalerParams{Method: MinMaxScaling, Center: minVal, Scale: nonZeroScale(maxVal - minVal)}, nil
}

func fitRobustScaler(values []float64) (*ScalerParams, error) {
	median, err := stats.Median(values)
	if err != nil {
		return nil, err
	}
	iqr := quantile(values, 0.75) - quantile(values, 0.25)
	return &ScalerParams{Method: RobustScaling, Center: median, Scale: nonZeroScale(iqr)}, nil
}

func nonZeroScale(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}
