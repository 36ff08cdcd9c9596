package scaler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scaler.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNew_ForwardInverse(t *testing.T) {
	s, err := New([]float64{0, 10, 5}, []float64{10, 30, 5}, 0, 1)
	require.NoError(t, err)
	assert.True(t, s.Fitted())
	assert.Equal(t, 3, s.Width())

	y, err := s.Forward([]float64{5, 20, 5})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0}, y, 1e-12)

	x, err := s.Inverse(y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 20, 5}, x, 1e-12)
}

func TestForward_Extrapolates(t *testing.T) {
	s, err := New([]float64{0}, []float64{10}, 0, 1)
	require.NoError(t, err)

	y, err := s.Forward([]float64{20})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, y[0], 1e-12)

	y, err = s.Forward([]float64{-10})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, y[0], 1e-12)
}

func TestRoundTrip_InsideRange(t *testing.T) {
	s, err := New([]float64{0.5, 1}, []float64{2.5, 500}, -1, 1)
	require.NoError(t, err)

	for _, x := range [][]float64{{0.5, 1}, {1.1, 37.5}, {2.5, 500}, {1.7, 250.25}} {
		y, err := s.Forward(x)
		require.NoError(t, err)
		back, err := s.Inverse(y)
		require.NoError(t, err)
		assert.InDeltaSlice(t, x, back, 1e-9)
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := New([]float64{0, 1}, []float64{1}, 0, 1)
	assert.Error(t, err)

	_, err = New(nil, nil, 0, 1)
	assert.Error(t, err)

	_, err = New([]float64{0}, []float64{1}, 1, 1)
	assert.Error(t, err)
}

func TestForward_DimensionMismatch(t *testing.T) {
	s, err := New([]float64{0, 0}, []float64{1, 1}, 0, 1)
	require.NoError(t, err)

	_, err = s.Forward([]float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimension))

	_, err = s.Inverse([]float64{1})
	assert.True(t, errors.Is(err, ErrDimension))
}

func TestIdentity(t *testing.T) {
	s := Identity()
	assert.False(t, s.Fitted())
	assert.Equal(t, 0, s.Width())

	y, err := s.Forward([]float64{3, -4, 12.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, -4, 12.5}, y)

	x, err := s.Inverse([]float64{7})
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, x)
}

func TestLoad(t *testing.T) {
	path := writeArtifact(t, `{"data_min":[0,100],"data_max":[4,300],"feature_range":[0,1]}`)

	s, err := Load(path)
	require.NoError(t, err)
	y, err := s.Forward([]float64{1, 200})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.5}, y, 1e-12)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScalerUnavailable))
}

func TestLoad_Corrupt(t *testing.T) {
	_, err := Load(writeArtifact(t, `{"data_min":[0`))
	assert.True(t, errors.Is(err, ErrScalerUnavailable))

	_, err = Load(writeArtifact(t, `{"data_min":[0,1],"data_max":[1],"feature_range":[0,1]}`))
	assert.True(t, errors.Is(err, ErrScalerUnavailable))
}

func TestLoadOrIdentity(t *testing.T) {
	s := LoadOrIdentity(filepath.Join(t.TempDir(), "nope.json"))
	assert.False(t, s.Fitted())

	s = LoadOrIdentity(writeArtifact(t, `{"data_min":[0],"data_max":[1],"feature_range":[0,1]}`))
	assert.True(t, s.Fitted())
}
