package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverage(t *testing.T) {
	assert.Equal(t, 2.0, Average([]float64{1, 2, 3}))
	assert.True(t, math.IsNaN(Average(nil)))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 6.0, Sum([]float64{1, 2, 3}))
	assert.Zero(t, Sum(nil))
}

func TestAverageObserved(t *testing.T) {
	assert.Equal(t, 2.0, AverageObserved([]float64{1, math.NaN(), 3}))
	assert.True(t, math.IsNaN(AverageObserved([]float64{math.NaN()})))
	assert.True(t, math.IsNaN(AverageObserved(nil)))
}
