package schedule

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBase(t *testing.T) {
	assert.InDelta(t, 1.04, Base, 1e-12)
}

func TestDevelopmentTime(t *testing.T) {
	assert.Equal(t, 0.0, DevelopmentTime(0))
	assert.Equal(t, 0.0, DevelopmentTime(-5))
	assert.Equal(t, 0.0, DevelopmentTime(math.NaN()))
	assert.InDelta(t, 1.04, DevelopmentTime(1), 1e-12)
	assert.InDelta(t, 1.04*math.Pow(100, 0.28), DevelopmentTime(100), 1e-12)
}

func TestDevelopmentTime_Monotonic(t *testing.T) {
	prev := DevelopmentTime(0)
	for _, e := range []float64{0.01, 0.5, 1, 2, 10, 37.5, 100, 1000, 1e6} {
		got := DevelopmentTime(e)
		assert.Greater(t, got, prev, "effort %v", e)
		prev = got
	}
}
