package walker

import (
	"reflect"
	"testing"
)

func TestNormalizeSlicePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"Patient.name:official.family", "Patient.name.family"},
		{"Patient.name:official", "Patient.name"},
		{"Patient.name.family", "Patient.name.family"},
		{"Observation.component:systolic.code.coding", "Observation.component.code.coding"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := NormalizeSlicePath(tt.path); got != tt.want {
				t.Errorf("NormalizeSlicePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestAncestorPaths(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"Patient.name.family", []string{"Patient", "Patient.name"}},
		{"Patient", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := AncestorPaths(tt.path); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("AncestorPaths(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPathPredicates(t *testing.T) {
	if !IsExtensionPath("Patient.modifierExtension") {
		t.Error("modifierExtension should be an extension path")
	}
	if IsExtensionContainerPath("Patient.modifierExtension") {
		t.Error("modifierExtension is not a .extension container")
	}
	if !IsExtensionContainerPath("Patient.extension") {
		t.Error("Patient.extension should be a container path")
	}
	if got := LastSegment("Patient.name.family"); got != "family" {
		t.Errorf("LastSegment = %q, want family", got)
	}
	if got := LastSegment("Patient"); got != "Patient" {
		t.Errorf("LastSegment = %q, want Patient", got)
	}
	if got := SplitPath("a.b.c"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SplitPath = %v", got)
	}
}

func TestPathSet(t *testing.T) {
	s := NewPathSet("b", "a")
	if !s.Has("a") || s.Has("c") {
		t.Fatal("unexpected membership")
	}
	if s.Toggle("a") {
		t.Error("Toggle(a) should remove a")
	}
	if !s.Toggle("c") {
		t.Error("Toggle(c) should add c")
	}
	if got := s.Sorted(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Sorted = %v", got)
	}
	c := s.Clone()
	c.Remove("b")
	if !s.Has("b") {
		t.Error("Clone should be independent")
	}
	var nilSet PathSet
	if nilSet.Has("x") {
		t.Error("nil set should be empty")
	}
}
