package walker

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"github.com/gofhir/profiletree/element"
)

func TestFlatten_CollapsedShowsRootsOnly(t *testing.T) {
	rows := Flatten(patientTree(), nil, nil)
	if got := rowPaths(rows); !reflect.DeepEqual(got, []string{"Patient"}) {
		t.Errorf("rows = %v, want [Patient]", got)
	}
	if rows[0].Expanded || !rows[0].HasChildren() {
		t.Errorf("root Expanded=%v HasChildren=%v; want false, true", rows[0].Expanded, rows[0].HasChildren())
	}
}

func TestFlatten_ExpandedPreOrder(t *testing.T) {
	rows := Flatten(patientTree(), NewPathSet("Patient", "Patient.name"), nil)

	want := []string{
		"Patient",
		"Patient.id",
		"Patient.name",
		"Patient.name.family",
		"Patient.name.given",
		"Patient.gender",
		"Patient.extension:race",
		"Patient.extension:birthsex",
	}
	if got := rowPaths(rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v\nwant %v", got, want)
	}

	depths := make([]int, len(rows))
	for i, r := range rows {
		depths[i] = r.Depth
	}
	if wantDepths := []int{0, 1, 1, 2, 2, 1, 1, 1}; !reflect.DeepEqual(depths, wantDepths) {
		t.Errorf("depths = %v, want %v", depths, wantDepths)
	}
}

func TestFlatten_ExtensionContainerIsTransparent(t *testing.T) {
	rows := Flatten(patientTree(), NewPathSet("Patient"), nil)
	for _, r := range rows {
		if r.Element.Path == "Patient.extension" && r.Element.SliceName == "" {
			t.Fatal("extension container should not be emitted")
		}
	}
	for _, r := range rows {
		if r.Element.ID == "Patient.extension:race" && r.Depth != 1 {
			t.Errorf("race depth = %d, want 1", r.Depth)
		}
	}
}

func TestFlatten_ExtensionsRenderLast(t *testing.T) {
	tree := []*element.Node{
		el("Observation",
			el("Observation.extension", slice("Observation.extension", "a")),
			el("Observation.status"),
			el("Observation.component", el("Observation.component.extension"), el("Observation.component.code")),
			el("Observation.code"),
		),
	}
	rows := Flatten(tree, NewPathSet("Observation", "Observation.component"), nil)
	want := []string{
		"Observation",
		"Observation.status",
		"Observation.component",
		"Observation.component.code",
		"Observation.component.extension",
		"Observation.code",
		"Observation.extension:a",
	}
	if got := rowPaths(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
	if tree[0].Children[0].Path != "Observation.extension" {
		t.Error("reordering mutated the canonical tree")
	}
}

func TestFlatten_SimpleExtensionCollapse(t *testing.T) {
	race := slice("Patient.extension", "race", el("Patient.extension.url"), el("Patient.extension.value[x]"))
	rows := Flatten([]*element.Node{race}, NewPathSet("Patient.extension"), nil)

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.HasChildren() || r.Expanded {
		t.Errorf("simple extension rendered children (HasChildren=%v Expanded=%v)", r.HasChildren(), r.Expanded)
	}
	if r.DisplayName != "race" {
		t.Errorf("DisplayName = %q, want race", r.DisplayName)
	}
}

func TestFlatten_ComplexExtensionKeepsChildren(t *testing.T) {
	ext := slice("Patient.extension", "nested",
		el("Patient.extension.url"),
		el("Patient.extension.extension", el("Patient.extension.extension.url")),
	)
	rows := Flatten([]*element.Node{ext}, nil, nil)
	if !rows[0].HasChildren() {
		t.Error("extension with nested extension should keep its children")
	}
}

func TestFlatten_ObservationComponentScenario(t *testing.T) {
	component := &element.Node{
		ID:   "Observation.component",
		Path: "Observation.component",
		Min:  2,
		Max:  "*",
		Slicing: &element.Slicing{
			Discriminator: []element.Discriminator{{Type: "pattern", Path: "code"}},
			Rules:         "open",
			Ordered:       false,
		},
		Children: []*element.Node{
			{ID: "c1", Path: "Observation.component", SliceName: "systolic", Min: 1, Max: "1"},
			{ID: "c2", Path: "Observation.component", SliceName: "diastolic", Min: 1, Max: "1"},
		},
	}
	tree := []*element.Node{component}
	expanded := NewPathSet("Observation.component")

	t.Run("base view", func(t *testing.T) {
		rows := Flatten(tree, expanded, nil)
		if len(rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(rows))
		}
		r := rows[0]
		if !reflect.DeepEqual(r.SliceNames, []string{"systolic", "diastolic"}) {
			t.Errorf("SliceNames = %v", r.SliceNames)
		}
		if r.HasChildren() {
			t.Errorf("base view rendered %d children, want 0", len(r.Children))
		}
		if r.View != BaseView || r.DisplayName != "" {
			t.Errorf("View=%q DisplayName=%q; want base, empty", r.View, r.DisplayName)
		}
	})

	t.Run("systolic view", func(t *testing.T) {
		rows := Flatten(tree, expanded, map[string]string{"Observation.component": "systolic"})
		if len(rows) != 1 {
			t.Fatalf("got %d rows, want 1", len(rows))
		}
		r := rows[0]
		if r.HasChildren() {
			t.Errorf("systolic view rendered %d children, want 0", len(r.Children))
		}
		if r.DisplayName != "component:systolic" {
			t.Errorf("DisplayName = %q, want component:systolic", r.DisplayName)
		}
	})
}

func TestFlatten_SliceViewMerge(t *testing.T) {
	views := map[string]string{"Patient.name": "official"}
	rows := Flatten(patientTree(), NewPathSet("Patient", "Patient.name"), views)

	want := []string{
		"Patient",
		"Patient.id",
		"Patient.name",
		"Patient.name:official.family",
		"Patient.name.given",
		"Patient.name:official.period",
		"Patient.gender",
		"Patient.extension:race",
		"Patient.extension:birthsex",
	}
	if got := rowPaths(rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v\nwant %v", got, want)
	}
	if rows[2].DisplayName != "name:official" {
		t.Errorf("DisplayName = %q, want name:official", rows[2].DisplayName)
	}
	if rows[2].View != "official" {
		t.Errorf("View = %q, want official", rows[2].View)
	}
}

func TestFlatten_UnknownSliceViewFallsBackToBase(t *testing.T) {
	views := map[string]string{"Patient.name": "nickname"}
	withUnknown := Flatten(patientTree(), NewPathSet("Patient", "Patient.name"), views)
	base := Flatten(patientTree(), NewPathSet("Patient", "Patient.name"), nil)
	if !reflect.DeepEqual(rowPaths(withUnknown), rowPaths(base)) {
		t.Errorf("unknown view rows = %v, want base rows %v", rowPaths(withUnknown), rowPaths(base))
	}
}

func TestFlatten_SliceViewRoundTrip(t *testing.T) {
	tree := patientTree()
	expanded := NewPathSet("Patient", "Patient.name")

	original := Flatten(tree, expanded, map[string]string{})
	_ = Flatten(tree, expanded, map[string]string{"Patient.name": "official"})
	back := Flatten(tree, expanded, map[string]string{"Patient.name": BaseView})

	if !reflect.DeepEqual(original, back) {
		t.Error("switching back to base did not reproduce the original rows")
	}
}

func TestFlatten_MergeDeduplicatesAppendedSliceChildren(t *testing.T) {
	container := sliced(el("Patient.name",
		el("Patient.name.family"),
		slice("Patient.name", "x",
			el("Patient.name:x.suffix"),
			&element.Node{ID: "dup", Path: "Patient.name:x.suffix"},
		),
	))
	rows := Flatten([]*element.Node{container}, NewPathSet("Patient.name"), map[string]string{"Patient.name": "x"})
	want := []string{"Patient.name", "Patient.name.family", "Patient.name:x.suffix"}
	if got := rowPaths(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestFlatten_SlicedWithoutVariantsIsPlain(t *testing.T) {
	n := sliced(el("Patient.identifier", el("Patient.identifier.system")))
	rows := Flatten([]*element.Node{n}, NewPathSet("Patient.identifier"), map[string]string{"Patient.identifier": "mrn"})
	if len(rows[0].SliceNames) != 0 {
		t.Errorf("SliceNames = %v, want empty", rows[0].SliceNames)
	}
	if rows[0].View != "" {
		t.Errorf("View = %q, want no view switcher", rows[0].View)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestRow_Label(t *testing.T) {
	r := Row{Element: slice("Patient.name", "official")}
	if got := r.Label(); got != "name:official" {
		t.Errorf("Label() = %q, want name:official", got)
	}
	r.DisplayName = "custom"
	if got := r.Label(); got != "custom" {
		t.Errorf("Label() = %q, want custom", got)
	}
}

// visible expands transparent containers the way Flatten does.
func visible(nodes []*element.Node) []string {
	var out []string
	for _, n := range nodes {
		if isTransparentContainer(n) {
			out = append(out, visible(n.Children)...)
			continue
		}
		out = append(out, n.ID)
	}
	return out
}

func TestFlatten_PreOrderContiguity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		next := 0
		tree := drawTree(t, "", 0, &next)

		expanded := make(PathSet)
		element.Walk(tree, func(n *element.Node, _ int) bool {
			if rapid.Bool().Draw(t, "expand") {
				expanded.Add(n.Path)
			}
			return true
		})
		views := map[string]string{}
		element.Walk(tree, func(n *element.Node, _ int) bool {
			if n.SliceName != "" && rapid.Bool().Draw(t, "view") {
				views[n.Path] = n.SliceName
			}
			return true
		})

		rows := Flatten(tree, expanded, views)

		if want := visible(tree); !reflect.DeepEqual(topLevel(rows, 0), want) {
			t.Fatalf("top-level rows = %v, want %v", topLevel(rows, 0), want)
		}
		for i, r := range rows {
			if i+1 < len(rows) {
				nextDepth := rows[i+1].Depth
				if nextDepth > r.Depth+1 {
					t.Fatalf("row %d jumps from depth %d to %d", i, r.Depth, nextDepth)
				}
				if nextDepth == r.Depth+1 && !r.Expanded {
					t.Fatalf("row %d (%s) is followed by a child but is not expanded", i, r.Element.ID)
				}
			}
			if !r.Expanded {
				continue
			}
			got := blockChildren(rows, i)
			if want := visible(r.Children); !reflect.DeepEqual(got, want) {
				t.Fatalf("children of %s = %v, want %v", r.Element.ID, got, want)
			}
		}
	})
}

func topLevel(rows []Row, depth int) []string {
	var out []string
	for _, r := range rows {
		if r.Depth == depth {
			out = append(out, r.Element.ID)
		}
	}
	return out
}

// blockChildren returns the ids of the direct children rows that follow
// rows[i] before the next row at rows[i]'s depth or shallower.
func blockChildren(rows []Row, i int) []string {
	var out []string
	d := rows[i].Depth
	for j := i + 1; j < len(rows) && rows[j].Depth > d; j++ {
		if rows[j].Depth == d+1 {
			out = append(out, rows[j].Element.ID)
		}
	}
	return out
}
