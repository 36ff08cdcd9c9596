package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRating_ZeroValueIsMissing(t *testing.T) {
	t.Parallel()

	var r Rating
	assert.False(t, r.IsResolved())
	assert.False(t, r.IsUnresolved())
	assert.True(t, r.IsMissing())
	assert.Equal(t, "missing", r.String())
	assert.Equal(t, "unresolved", Unresolved().String())
}

func TestParseRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		resolved bool
	}{
		{"High", true},
		{"high", true},
		{"Extreme", true},
		{"", true},
		{"null", false},
		{"Null", false},
		{"NULL", false},
		{" unresolved ", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			r := ParseRating(tt.in)
			assert.Equal(t, tt.resolved, r.IsResolved())
			if tt.resolved {
				v, ok := r.Value()
				assert.True(t, ok)
				assert.Equal(t, tt.in, v)
			}
		})
	}
}

func TestAssignment_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var got []Assignment
	err := json.Unmarshal([]byte(`[
		{"driver": "rely", "value": "High"},
		{"driver": "data", "value": "Null"},
		{"driver": "cplx", "value": null},
		{"driver": "time"}
	]`), &got)
	require.NoError(t, err)
	require.Len(t, got, 4)

	v, ok := got[0].Rating.Value()
	assert.True(t, ok)
	assert.Equal(t, "High", v)
	assert.Equal(t, DriverRELY, got[0].Driver)

	assert.True(t, got[1].Rating.IsUnresolved())
	assert.True(t, got[2].Rating.IsUnresolved())
	assert.True(t, got[3].Rating.IsMissing())
	assert.False(t, got[3].Rating.IsUnresolved())
}

func TestAssignment_UnmarshalJSON_RejectsNonString(t *testing.T) {
	t.Parallel()

	var got Assignment
	err := json.Unmarshal([]byte(`{"driver": "rely", "value": 3}`), &got)
	assert.Error(t, err)
}

func TestRating_MarshalJSON(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal([]Assignment{
		{Driver: DriverRELY, Rating: Resolved("High")},
		{Driver: DriverDATA, Rating: Unresolved()},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"driver":"rely","value":"High"},{"driver":"data","value":null}]`, string(out))
}

func TestAssignment_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	var got []Assignment
	err := yaml.Unmarshal([]byte(`
- driver: rely
  value: High
- driver: data
  value: unresolved
- driver: cplx
  value: ~
- driver: time
`), &got)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.True(t, got[0].Rating.IsResolved())
	assert.True(t, got[1].Rating.IsUnresolved())
	assert.True(t, got[2].Rating.IsUnresolved())
	assert.Equal(t, DriverCPLX, got[2].Driver)
	assert.True(t, got[3].Rating.IsMissing())
	assert.Equal(t, DriverTIME, got[3].Driver)
}

func TestAssignment_UnmarshalYAML_RejectsMapping(t *testing.T) {
	t.Parallel()

	var got Assignment
	err := yaml.Unmarshal([]byte(`driver: rely
value: {level: High}
`), &got)
	assert.Error(t, err)
}

func TestAllDrivers_CanonicalOrder(t *testing.T) {
	t.Parallel()

	drivers := AllDrivers()
	require.Len(t, drivers, 13)
	assert.Equal(t, DriverRELY, drivers[0])
	assert.Equal(t, DriverSCED, drivers[12])
}

func TestAllLevels_NeutralInMiddle(t *testing.T) {
	t.Parallel()

	levels := AllLevels()
	require.Len(t, levels, 6)
	assert.Equal(t, NeutralLevel, levels[2])
}
