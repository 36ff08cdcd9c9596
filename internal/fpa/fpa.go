// Package fpa sizes a project from function-point counts.
package fpa

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/effort-cli/internal/model"
)

// DefaultLOCPerFP is the lines of code per function point used when none
// is configured.
const DefaultLOCPerFP = 53.0

// Average complexity weights per category.
const (
	WeightEI  = 4
	WeightEO  = 5
	WeightEQ  = 4
	WeightILF = 10
	WeightEIF = 7
)

// ErrNegativeCount is returned when any category count is below zero.
var ErrNegativeCount = eris.New("fpa: negative function-point count")

// Size is the outcome of sizing one analysis.
type Size struct {
	UnadjustedFP int
	KLOC         float64
}

// Sizer converts function points to KLOC.
type Sizer struct {
	locPerFP float64
}

// NewSizer creates a sizer. A non-positive locPerFP uses DefaultLOCPerFP.
func NewSizer(locPerFP float64) *Sizer {
	if locPerFP <= 0 {
		locPerFP = DefaultLOCPerFP
	}
	return &Sizer{locPerFP: locPerFP}
}

// Unadjusted returns the weighted sum of the five category counts.
func Unadjusted(a model.FunctionPointAnalysis) (int, error) {
	counts := []int{
		a.ExternalInputs.Count,
		a.ExternalOutputs.Count,
		a.ExternalInquiries.Count,
		a.InternalLogicalFiles.Count,
		a.ExternalInterfaceFiles.Count,
	}
	for _, c := range counts {
		if c < 0 {
			return 0, eris.Wrapf(ErrNegativeCount, "count %d", c)
		}
	}
	return WeightEI*a.ExternalInputs.Count +
		WeightEO*a.ExternalOutputs.Count +
		WeightEQ*a.ExternalInquiries.Count +
		WeightILF*a.InternalLogicalFiles.Count +
		WeightEIF*a.ExternalInterfaceFiles.Count, nil
}

// Size computes unadjusted function points and the KLOC they imply.
func (s *Sizer) Size(a model.FunctionPointAnalysis) (Size, error) {
	ufp, err := Unadjusted(a)
	if err != nil {
		return Size{}, err
	}
	return Size{UnadjustedFP: ufp, KLOC: float64(ufp) * s.locPerFP / 1000}, nil
}
