package element

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Raw is an element as delivered by a profile source, before normalization.
//
// Constraint fields may be nested under Constraints or given flat on the
// element. When both are present the nested value wins.
type Raw struct {
	ID        string `json:"id,omitempty"`
	Path      string `json:"path"`
	SliceName string `json:"sliceName,omitempty"`

	Constraints *RawConstraints `json:"constraints,omitempty"`

	Min         *int         `json:"min,omitempty"`
	Max         *Max         `json:"max,omitempty"`
	Types       []TypeRef    `json:"type,omitempty"`
	Binding     *Binding     `json:"binding,omitempty"`
	Slicing     *Slicing     `json:"slicing,omitempty"`
	MustSupport *bool        `json:"mustSupport,omitempty"`
	IsModifier  *bool        `json:"isModifier,omitempty"`
	IsSummary   *bool        `json:"isSummary,omitempty"`
	Short       string       `json:"short,omitempty"`
	Definition  string       `json:"definition,omitempty"`
	Comment     string       `json:"comment,omitempty"`
	Invariants  []Constraint `json:"constraint,omitempty"`

	Source     string `json:"source,omitempty"`
	IsModified bool   `json:"isModified,omitempty"`

	Children []Raw    `json:"children,omitempty"`
	Slices   RawSlices `json:"slices,omitempty"`
}

// RawConstraints is the nested constraint block of a raw element.
type RawConstraints struct {
	Cardinality *RawCardinality `json:"cardinality,omitempty"`
	Types       []TypeRef       `json:"types,omitempty"`
	Binding     *Binding        `json:"binding,omitempty"`
	Flags       *RawFlags       `json:"flags,omitempty"`
	Slicing     *Slicing        `json:"slicing,omitempty"`
	Invariants  []Constraint    `json:"invariants,omitempty"`
}

// RawCardinality is a nested min..max pair.
type RawCardinality struct {
	Min *int `json:"min,omitempty"`
	Max *Max `json:"max,omitempty"`
}

// RawFlags holds the nested conformance flags.
type RawFlags struct {
	MustSupport *bool `json:"mustSupport,omitempty"`
	IsModifier  *bool `json:"isModifier,omitempty"`
	IsSummary   *bool `json:"isSummary,omitempty"`
}

// Max is a max cardinality that decodes from either a JSON string or a JSON
// number. Numbers are kept as their decimal string form. Negative numbers are
// kept as written; engine.Diagnose reports them.
type Max string

// UnmarshalJSON implements json.Unmarshaler.
func (m *Max) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Max(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("max: expected string or number, got %s", data)
	}
	*m = Max(formatNumber(num))
	return nil
}

func formatNumber(num json.Number) string {
	if i, err := num.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return num.String()
	}
	// 2^63 is exact as a float64; anything at or past it overflows int64.
	if f >= -(1<<63) && f < 1<<63 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MaxOf returns a *Max holding s.
func MaxOf(s string) *Max {
	m := Max(s)
	return &m
}

// RawSlice is one entry of a raw element's slices object.
type RawSlice struct {
	Name    string
	Element Raw
	Source  string
}

// RawSlices keeps slice entries in the order their keys appear in the
// source document.
type RawSlices []RawSlice

type rawSliceEntry struct {
	Element *Raw   `json:"element,omitempty"`
	Source  string `json:"source,omitempty"`
}

// UnmarshalJSON decodes a JSON object keyed by slice name. Each value is
// either {"element": {...}, "source": "..."} or the element itself.
func (s *RawSlices) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("slices: expected object, got %v", tok)
	}

	var out RawSlices
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("slices[%s]: %w", name, err)
		}

		var entry rawSliceEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return fmt.Errorf("slices[%s]: %w", name, err)
		}
		slice := RawSlice{Name: name, Source: entry.Source}
		if entry.Element != nil {
			slice.Element = *entry.Element
		} else if err := json.Unmarshal(value, &slice.Element); err != nil {
			return fmt.Errorf("slices[%s]: %w", name, err)
		}
		out = append(out, slice)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// MarshalJSON writes the slices as an object in entry order.
func (s RawSlices) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, slice := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(slice.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(rawSliceEntry{Element: &slice.Element, Source: slice.Source})
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeRaw decodes a raw element document.
func DecodeRaw(data []byte) (*Raw, error) {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode element document: %w", err)
	}
	return &raw, nil
}
