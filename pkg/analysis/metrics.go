package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics holds the agreement between a predicted deformation and an
// observed flow frame. Both are compared as flat (dim, height, width) arrays.
type Metrics struct {
	// CrossCorrelation is the Pearson correlation of the two fields, 0 when
	// either field is constant.
	CrossCorrelation float64

	RMSE float64
	MAE  float64

	// MAPE is the mean absolute percentage error over the observed values
	// that are not exactly zero.
	MAPE float64

	// Cosine is the cosine similarity of the fields seen as single vectors,
	// 0 when either is all zero.
	Cosine float64
}

// Compare computes the agreement metrics of predicted against observed.
func Compare(predicted, observed []float64) (Metrics, error) {
	n := len(observed)
	if len(predicted) != n {
		return Metrics{}, fmt.Errorf("predicted has %d values, observed has %d", len(predicted), n)
	}
	if n == 0 {
		return Metrics{}, fmt.Errorf("cannot compare empty fields")
	}

	var m Metrics
	if stat.Variance(predicted, nil) > 0 && stat.Variance(observed, nil) > 0 {
		m.CrossCorrelation = stat.Correlation(predicted, observed, nil)
	}

	diff := make([]float64, n)
	floats.SubTo(diff, predicted, observed)
	m.RMSE = floats.Norm(diff, 2) / math.Sqrt(float64(n))
	m.MAE = floats.Norm(diff, 1) / float64(n)

	counted := 0
	for i, o := range observed {
		if o == 0 {
			continue
		}
		m.MAPE += math.Abs(diff[i] / o)
		counted++
	}
	if counted > 0 {
		m.MAPE = 100 * m.MAPE / float64(counted)
	}

	normP, normO := floats.Norm(predicted, 2), floats.Norm(observed, 2)
	if normP > 0 && normO > 0 {
		m.Cosine = floats.Dot(predicted, observed) / (normP * normO)
	}
	return m, nil
}

// Summary describes a set of metric values across runs
type Summary struct {
	Mean, Std, Max, Min float64
}

// Summarize returns the mean, population standard deviation and range of values.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("cannot summarize an empty set")
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return Summary{
		Mean: mean,
		Std:  std,
		Max:  floats.Max(values),
		Min:  floats.Min(values),
	}, nil
}

// SummarizeMetrics summarizes each metric over a set of comparisons, keyed by
// metric name.
func SummarizeMetrics(all []Metrics) (map[string]Summary, error) {
	columns := map[string]func(Metrics) float64{
		"cross_correlation": func(m Metrics) float64 { return m.CrossCorrelation },
		"rmse":              func(m Metrics) float64 { return m.RMSE },
		"mae":               func(m Metrics) float64 { return m.MAE },
		"mape":              func(m Metrics) float64 { return m.MAPE },
		"cosine":            func(m Metrics) float64 { return m.Cosine },
	}

	out := make(map[string]Summary, len(columns))
	for name, get := range columns {
		values := make([]float64, len(all))
		for i, m := range all {
			values[i] = get(m)
		}
		s, err := Summarize(values)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
}
