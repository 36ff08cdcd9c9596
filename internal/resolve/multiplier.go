// Package resolve turns caller-supplied cost-driver ratings into effort
// multipliers, asking an external classifier for ratings the caller left
// unresolved.
package resolve

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sells-group/effort-cli/internal/catalog"
	"github.com/sells-group/effort-cli/internal/model"
)

// MultiplierResolver maps a (driver, rating) pair to a multiplier. Unknown
// drivers and ratings resolve to the neutral multiplier instead of failing.
type MultiplierResolver struct {
	catalog *catalog.Catalog
	byKey   map[string]model.Level
}

// NewMultiplierResolver creates a resolver over the given catalog.
func NewMultiplierResolver(c *catalog.Catalog) *MultiplierResolver {
	levels := c.Levels()
	byKey := make(map[string]model.Level, len(levels))
	for _, lvl := range levels {
		byKey[levelKey(string(lvl))] = lvl
	}
	return &MultiplierResolver{catalog: c, byKey: byKey}
}

// levelKey folds case and drops separators so "very high", "VERY_HIGH" and
// "VeryHigh" share a key.
func levelKey(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '_', '-':
			return -1
		}
		return r
	}, s)
	return cases.Fold().String(s)
}

// Normalize returns the canonical level for a raw rating, or false if the
// rating matches none of the six levels.
func (r *MultiplierResolver) Normalize(raw string) (model.Level, bool) {
	lvl, ok := r.byKey[levelKey(raw)]
	return lvl, ok
}

// Resolve returns the multiplier for a driver at a raw rating. It never fails:
// an unknown driver or rating logs a warning and returns 1.0.
func (r *MultiplierResolver) Resolve(driver model.Driver, raw string) float64 {
	m, _ := r.resolve(driver, raw)
	return m
}

// resolve is Resolve plus the canonical level that was matched, if any.
func (r *MultiplierResolver) resolve(driver model.Driver, raw string) (float64, model.Level) {
	if !r.catalog.Has(driver) {
		zap.L().Warn("resolve: unknown cost driver, using neutral multiplier",
			zap.String("driver", string(driver)),
			zap.String("value", raw),
		)
		return model.NeutralMultiplier, ""
	}

	lvl, ok := r.Normalize(raw)
	if !ok {
		zap.L().Warn("resolve: invalid rating for driver, using neutral multiplier",
			zap.String("driver", string(driver)),
			zap.String("value", raw),
		)
		return model.NeutralMultiplier, ""
	}

	m, err := r.catalog.Multiplier(driver, lvl)
	if err != nil {
		// Has and Normalize both passed, so only a catalog bug lands here.
		zap.L().Error("resolve: catalog lookup failed", zap.Error(err))
		return model.NeutralMultiplier, ""
	}
	return m, lvl
}

// ResolveAll resolves every assignment. Assignments must already carry a
// concrete rating; an Unresolved one is treated like an invalid rating.
func (r *MultiplierResolver) ResolveAll(assignments []model.Assignment) []model.ResolvedDriver {
	out := make([]model.ResolvedDriver, 0, len(assignments))
	for _, a := range assignments {
		raw, ok := a.Rating.Value()
		if !ok {
			zap.L().Warn("resolve: rating still unresolved at multiplier lookup",
				zap.String("driver", string(a.Driver)),
			)
		}
		m, lvl := r.resolve(a.Driver, raw)
		value := raw
		if lvl != "" {
			value = string(lvl)
		}
		out = append(out, model.ResolvedDriver{
			Driver:     a.Driver,
			Value:      value,
			Multiplier: m,
			Inferred:   a.Inferred,
		})
	}
	return out
}
