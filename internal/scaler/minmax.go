// Package scaler maps raw feature vectors into the numeric range the
// regression model was trained on, and maps predictions back out.
package scaler

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	// ErrScalerUnavailable is returned when a scaler artifact is missing or unreadable.
	ErrScalerUnavailable = eris.New("scaler: artifact unavailable")
	// ErrDimension is returned when a vector does not match the fitted width.
	ErrDimension = eris.New("scaler: dimension mismatch")
)

// artifact is the persisted form of a fitted min-max scaler.
type artifact struct {
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	FeatureRange [2]float64 `json:"feature_range"`
}

// MinMax applies x*scale + min per feature. The zero value is not usable;
// build one with New, Load or Identity.
type MinMax struct {
	scale  []float64
	offset []float64
	fitted bool
}

// New builds a scaler from fitted per-feature bounds and a target range.
// A constant feature (max == min) gets scale 1 so it is shifted, not divided
// by zero.
func New(dataMin, dataMax []float64, lo, hi float64) (*MinMax, error) {
	if len(dataMin) == 0 || len(dataMin) != len(dataMax) {
		return nil, eris.Errorf("scaler: data_min has %d entries, data_max has %d", len(dataMin), len(dataMax))
	}
	if hi <= lo {
		return nil, eris.Errorf("scaler: feature_range [%v, %v] is empty", lo, hi)
	}

	s := &MinMax{
		scale:  make([]float64, len(dataMin)),
		offset: make([]float64, len(dataMin)),
		fitted: true,
	}
	for i := range dataMin {
		span := dataMax[i] - dataMin[i]
		if span == 0 {
			span = 1
		}
		s.scale[i] = (hi - lo) / span
		s.offset[i] = lo - dataMin[i]*s.scale[i]
	}
	return s, nil
}

// Identity returns a scaler that passes values through unchanged, at any
// width. Fitted reports false.
func Identity() *MinMax {
	return &MinMax{}
}

// Load reads a fitted scaler from a JSON artifact.
func Load(path string) (*MinMax, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrScalerUnavailable, "read %s: %v", path, err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, eris.Wrapf(ErrScalerUnavailable, "decode %s: %v", path, err)
	}
	s, err := New(a.DataMin, a.DataMax, a.FeatureRange[0], a.FeatureRange[1])
	if err != nil {
		return nil, eris.Wrapf(ErrScalerUnavailable, "%s: %v", path, err)
	}
	return s, nil
}

// LoadOrIdentity is Load, falling back to Identity with a warning. Callers
// check Fitted to flag results as degraded.
func LoadOrIdentity(path string) *MinMax {
	s, err := Load(path)
	if err != nil {
		zap.L().Warn("scaler: using identity scaler, estimates will be degraded",
			zap.String("path", path),
			zap.Error(err),
		)
		return Identity()
	}
	return s
}

// Fitted reports whether the scaler came from a fitted artifact.
func (s *MinMax) Fitted() bool {
	return s.fitted
}

// Width returns the fitted feature count, or 0 for an identity scaler.
func (s *MinMax) Width() int {
	return len(s.scale)
}

// Forward scales a raw vector. Values outside the fitted range extrapolate
// linearly.
func (s *MinMax) Forward(x []float64) ([]float64, error) {
	if err := s.check(len(x)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		if !s.fitted {
			out[i] = v
			continue
		}
		out[i] = v*s.scale[i] + s.offset[i]
	}
	return out, nil
}

// Inverse maps a scaled vector back to raw units.
func (s *MinMax) Inverse(y []float64) ([]float64, error) {
	if err := s.check(len(y)); err != nil {
		return nil, err
	}
	out := make([]float64, len(y))
	for i, v := range y {
		if !s.fitted {
			out[i] = v
			continue
		}
		out[i] = (v - s.offset[i]) / s.scale[i]
	}
	return out, nil
}

func (s *MinMax) check(n int) error {
	if s.fitted && n != len(s.scale) {
		return eris.Wrapf(ErrDimension, "got %d features, fitted on %d", n, len(s.scale))
	}
	return nil
}
