package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type ratingState uint8

const (
	ratingMissing ratingState = iota
	ratingUnresolved
	ratingResolved
)

// Rating is a concrete rating value, an explicit request to infer one, or
// missing. The zero value is missing: the caller sent no value at all, which
// falls back to the neutral level without inference.
type Rating struct {
	value string
	state ratingState
}

// Resolved returns a Rating holding the given raw value. The value is not
// validated here; the multiplier resolver normalizes and checks it.
func Resolved(value string) Rating {
	return Rating{value: value, state: ratingResolved}
}

// Unresolved returns a Rating that asks for inference.
func Unresolved() Rating {
	return Rating{state: ratingUnresolved}
}

// IsResolved reports whether the rating holds a concrete value.
func (r Rating) IsResolved() bool {
	return r.state == ratingResolved
}

// IsUnresolved reports whether the rating was explicitly marked for inference.
func (r Rating) IsUnresolved() bool {
	return r.state == ratingUnresolved
}

// IsMissing reports whether no rating was supplied.
func (r Rating) IsMissing() bool {
	return r.state == ratingMissing
}

// Value returns the raw rating value and whether it is resolved.
func (r Rating) Value() (string, bool) {
	return r.value, r.IsResolved()
}

// String returns the raw value, "unresolved" or "missing".
func (r Rating) String() string {
	switch r.state {
	case ratingResolved:
		return r.value
	case ratingUnresolved:
		return "unresolved"
	}
	return "missing"
}

// isUnresolvedMarker reports whether a wire string asks for inference.
func isUnresolvedMarker(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null", "unresolved":
		return true
	}
	return false
}

// ParseRating converts a wire string into a Rating. "null" and "unresolved"
// (any case) are Unresolved; everything else, including "", is a concrete
// value left for the multiplier resolver to judge.
func ParseRating(s string) Rating {
	if isUnresolvedMarker(s) {
		return Unresolved()
	}
	return Resolved(s)
}

// MarshalJSON encodes Unresolved and missing as null.
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.IsResolved() {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON accepts a string or null.
func (r *Rating) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Unresolved()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return eris.Wrap(err, "model: rating must be a string or null")
	}
	*r = ParseRating(s)
	return nil
}

// UnmarshalYAML accepts a scalar. A YAML null never reaches this method;
// Assignment.UnmarshalYAML maps it to Unresolved.
func (r *Rating) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return eris.Wrap(err, "model: rating must be a scalar")
	}
	*r = ParseRating(s)
	return nil
}

// Assignment pairs a driver with the caller-supplied rating.
type Assignment struct {
	Driver Driver `json:"driver" yaml:"driver"`
	Rating Rating `json:"value" yaml:"value"`

	// Inferred is set when the rating came from the classifier.
	Inferred bool `json:"-" yaml:"-"`
}

// UnmarshalYAML tells an explicit null value apart from an absent one, which
// yaml.v3 would otherwise both leave as the zero Rating.
func (a *Assignment) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Driver Driver    `yaml:"driver"`
		Value  yaml.Node `yaml:"value"`
	}
	if err := node.Decode(&raw); err != nil {
		return eris.Wrap(err, "model: decode assignment")
	}
	*a = Assignment{Driver: raw.Driver}
	switch {
	case raw.Value.Kind == 0:
		return nil
	case raw.Value.ShortTag() == "!!null":
		a.Rating = Unresolved()
		return nil
	}
	return raw.Value.Decode(&a.Rating)
}

// ResolvedDriver is an assignment after inference and multiplier lookup.
type ResolvedDriver struct {
	Driver     Driver  `json:"driver"`
	Value      string  `json:"value"`
	Multiplier float64 `json:"numerical_value"`
	Inferred   bool    `json:"inferred,omitempty"`
}
