// Package features assembles the fixed-width numeric vector the regression
// model consumes.
package features

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/effort-cli/internal/model"
)

const (
	// DefaultWidth is 13 driver slots, one reserved slot and KLOC.
	DefaultWidth = 15
	// MinWidth leaves room for the driver slots and KLOC.
	MinWidth = 14
)

// ErrNegativeSize is returned when KLOC is below zero.
var ErrNegativeSize = eris.New("features: size must not be negative")

// Builder lays out one vector per estimate:
//
//	[0..12]        canonical drivers, absent = 1.0
//	[13..width-2]  reserved, always 1.0
//	[width-1]      KLOC
//
// The reserved slots line up with training columns the resolution pipeline
// never populates.
type Builder struct {
	width int
	slots map[model.Driver]int
}

// NewBuilder creates a builder for vectors of the given width.
func NewBuilder(width int) (*Builder, error) {
	if width < MinWidth {
		return nil, eris.Errorf("features: width %d below minimum %d", width, MinWidth)
	}
	drivers := model.AllDrivers()
	slots := make(map[model.Driver]int, len(drivers))
	for i, d := range drivers {
		slots[d] = i
	}
	return &Builder{width: width, slots: slots}, nil
}

// Width returns the vector width.
func (b *Builder) Width() int {
	return b.width
}

// Reserved returns the number of reserved neutral slots.
func (b *Builder) Reserved() int {
	return b.width - len(b.slots) - 1
}

// Build returns a new vector for the resolved drivers and size. Input order
// does not matter. Drivers outside the canonical thirteen are ignored.
func (b *Builder) Build(resolved []model.ResolvedDriver, kloc float64) ([]float64, error) {
	if kloc < 0 {
		return nil, eris.Wrapf(ErrNegativeSize, "kloc %v", kloc)
	}

	vec := make([]float64, b.width)
	for i := range b.width - 1 {
		vec[i] = model.NeutralMultiplier
	}

	seen := make(map[model.Driver]bool, len(resolved))
	for _, rd := range resolved {
		idx, ok := b.slots[rd.Driver]
		if !ok {
			continue
		}
		if seen[rd.Driver] {
			zap.L().Warn("features: driver supplied more than once, keeping last",
				zap.String("driver", string(rd.Driver)),
			)
		}
		seen[rd.Driver] = true
		vec[idx] = rd.Multiplier
	}

	vec[b.width-1] = kloc
	return vec, nil
}

// EffortMultiplier is the product of the driver slots of vec. Absent and
// unrecognized drivers contribute 1.0.
func (b *Builder) EffortMultiplier(vec []float64) float64 {
	m := 1.0
	for i := range len(b.slots) {
		if i < len(vec) {
			m *= vec[i]
		}
	}
	return m
}
