package utils

import "math"

func Average(xs []float64) float64 {
	total := 0.0
	for _, v := range xs {
		total += v
	}
	return total / float64(len(xs))
}

func Sum(xs []float64) float64 {
	total := 0.0
	for _, v := range xs {
		total += v
	}
	return total
}

// AverageObserved is the mean of the non-NaN values, or NaN if there are none.
func AverageObserved(xs []float64) float64 {
	total := 0.0
	count := 0
	for _, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return total / float64(count)
}
