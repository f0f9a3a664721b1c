package walker

import (
	"github.com/gofhir/profiletree/element"
)

func el(path string, children ...*element.Node) *element.Node {
	return &element.Node{ID: path, Path: path, Max: "*", Source: element.SourceInherited, Children: children}
}

func slice(path, name string, children ...*element.Node) *element.Node {
	n := el(path, children...)
	n.ID = path + ":" + name
	n.SliceName = name
	return n
}

func sliced(n *element.Node) *element.Node {
	n.Slicing = &element.Slicing{
		Discriminator: []element.Discriminator{{Type: "pattern", Path: "code"}},
		Rules:         "open",
	}
	return n
}

func modified(n *element.Node) *element.Node {
	n.Source = element.SourceModified
	n.IsModified = true
	return n
}

func mustSupport(n *element.Node) *element.Node {
	n.MustSupport = true
	return n
}

func rowPaths(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Element.ID
	}
	return out
}

func patientTree() []*element.Node {
	return []*element.Node{
		el("Patient",
			el("Patient.id"),
			el("Patient.extension",
				slice("Patient.extension", "race",
					el("Patient.extension.url"),
					el("Patient.extension.value[x]"),
				),
				slice("Patient.extension", "birthsex"),
			),
			sliced(el("Patient.name",
				el("Patient.name.family"),
				el("Patient.name.given"),
				slice("Patient.name", "official",
					modified(el("Patient.name:official.family")),
					el("Patient.name:official.period"),
				),
			)),
			el("Patient.gender"),
		),
	}
}
