package state

import (
	"reflect"
	"testing"

	"github.com/gofhir/profiletree/element"
)

func node(path string, children ...*element.Node) *element.Node {
	return &element.Node{ID: path, Path: path, Max: "*", Source: element.SourceInherited, Children: children}
}

func sliceNode(path, name string, children ...*element.Node) *element.Node {
	n := node(path, children...)
	n.ID = path + ":" + name
	n.SliceName = name
	return n
}

func patientTree() []*element.Node {
	name := node("Patient.name",
		node("Patient.name.family"),
		node("Patient.name.given"),
		sliceNode("Patient.name", "official", node("Patient.name:official.family")),
	)
	name.Slicing = &element.Slicing{Rules: "open"}
	gender := node("Patient.gender")
	gender.MustSupport = true
	gender.Source = element.SourceModified
	gender.IsModified = true
	return []*element.Node{
		node("Patient",
			node("Patient.id"),
			name,
			gender,
		),
	}
}

// loaded returns a store with patientTree loaded.
func loaded() *Store {
	s := New()
	s.CompleteLoad(s.BeginLoad(), patientTree())
	return s
}

func rowIDs(v View) []string {
	ids := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		ids[i] = r.Element.ID
	}
	return ids
}

func ptr[T any](v T) *T { return &v }

func mustDispatch(t *testing.T, s *Store, events ...Event) {
	t.Helper()
	if err := s.Dispatch(events...); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
}

func checkIDs(t *testing.T, got, want []string) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v; want %v", got, want)
	}
}
