// Package catalog holds the static registry of COCOMO cost drivers, their
// descriptions and the per-driver effort multiplier table.
package catalog

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/effort-cli/internal/model"
)

//go:embed multipliers.yaml
var defaultTable []byte

var (
	// ErrUnknownDriver is returned for a driver identifier outside the catalog.
	ErrUnknownDriver = eris.New("catalog: unknown cost driver")
	// ErrUnknownLevel is returned for a rating level outside the six canonical symbols.
	ErrUnknownLevel = eris.New("catalog: unknown rating level")
)

// tableFile is the on-disk layout of a multiplier table.
type tableFile struct {
	Drivers []driverEntry `yaml:"drivers"`
}

type driverEntry struct {
	ID          model.Driver            `yaml:"id"`
	Description string                  `yaml:"description"`
	Multipliers map[model.Level]float64 `yaml:"multipliers"`
}

// Catalog is an immutable driver → level → multiplier lookup. Safe for
// concurrent use; nothing mutates it after construction.
type Catalog struct {
	drivers      []model.Driver
	levels       []model.Level
	descriptions map[model.Driver]string
	multipliers  map[model.Driver]map[model.Level]float64
}

// Default parses the embedded COCOMO II multiplier table.
func Default() (*Catalog, error) {
	return Parse(defaultTable)
}

// MustDefault is Default for package-level setup and tests. It panics if the
// embedded table is invalid, which only a broken build can cause.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile reads a multiplier table from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read table %s", path)
	}
	return Parse(data)
}

// Parse builds a Catalog from YAML table data and validates that every
// canonical driver has exactly the six canonical levels with positive
// multipliers.
func Parse(data []byte) (*Catalog, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, eris.Wrap(err, "catalog: parse table")
	}

	byID := make(map[model.Driver]driverEntry, len(tf.Drivers))
	for _, d := range tf.Drivers {
		if _, dup := byID[d.ID]; dup {
			return nil, eris.Errorf("catalog: driver %q listed twice", d.ID)
		}
		byID[d.ID] = d
	}

	c := &Catalog{
		drivers:      model.AllDrivers(),
		levels:       model.AllLevels(),
		descriptions: make(map[model.Driver]string, len(byID)),
		multipliers:  make(map[model.Driver]map[model.Level]float64, len(byID)),
	}

	for _, id := range c.drivers {
		entry, ok := byID[id]
		if !ok {
			return nil, eris.Errorf("catalog: driver %q missing from table", id)
		}
		if len(entry.Multipliers) != len(c.levels) {
			return nil, eris.Errorf("catalog: driver %q has %d levels, want %d", id, len(entry.Multipliers), len(c.levels))
		}
		row := make(map[model.Level]float64, len(c.levels))
		for _, lvl := range c.levels {
			m, ok := entry.Multipliers[lvl]
			if !ok {
				return nil, eris.Errorf("catalog: driver %q missing level %q", id, lvl)
			}
			if m <= 0 {
				return nil, eris.Errorf("catalog: driver %q level %q multiplier must be positive, got %v", id, lvl, m)
			}
			row[lvl] = m
		}
		c.multipliers[id] = row
		c.descriptions[id] = entry.Description
		delete(byID, id)
	}

	if len(byID) > 0 {
		extra := make([]string, 0, len(byID))
		for id := range byID {
			extra = append(extra, string(id))
		}
		sort.Strings(extra)
		return nil, eris.Errorf("catalog: unrecognized drivers in table: %s", strings.Join(extra, ", "))
	}

	return c, nil
}

// Drivers returns the drivers in canonical order.
func (c *Catalog) Drivers() []model.Driver {
	out := make([]model.Driver, len(c.drivers))
	copy(out, c.drivers)
	return out
}

// Levels returns the six rating levels from lowest to highest impact.
func (c *Catalog) Levels() []model.Level {
	out := make([]model.Level, len(c.levels))
	copy(out, c.levels)
	return out
}

// Has reports whether id is a recognized driver.
func (c *Catalog) Has(id model.Driver) bool {
	_, ok := c.multipliers[id]
	return ok
}

// IsLevel reports whether lvl is exactly one of the canonical level symbols.
func (c *Catalog) IsLevel(lvl model.Level) bool {
	for _, l := range c.levels {
		if l == lvl {
			return true
		}
	}
	return false
}

// Describe returns the human-readable description of a driver.
func (c *Catalog) Describe(id model.Driver) (string, error) {
	desc, ok := c.descriptions[id]
	if !ok {
		return "", eris.Wrapf(ErrUnknownDriver, "driver %q", id)
	}
	return desc, nil
}

// Multiplier returns the effort multiplier for a driver at a level.
func (c *Catalog) Multiplier(id model.Driver, lvl model.Level) (float64, error) {
	row, ok := c.multipliers[id]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownDriver, "driver %q", id)
	}
	m, ok := row[lvl]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownLevel, "driver %q level %q", id, lvl)
	}
	return m, nil
}
