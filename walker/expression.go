package walker

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/gofhir/profiletree/element"
)

// ElementEnv is the environment a filter expression is evaluated in.
//
//	mustSupport && min > 0
//	source == "added" || "Reference" in types
type ElementEnv struct {
	Path        string   `expr:"path"`
	SliceName   string   `expr:"sliceName"`
	Min         int      `expr:"min"`
	Max         string   `expr:"max"`
	MustSupport bool     `expr:"mustSupport"`
	IsModifier  bool     `expr:"isModifier"`
	IsSummary   bool     `expr:"isSummary"`
	Source      string   `expr:"source"`
	IsModified  bool     `expr:"isModified"`
	Types       []string `expr:"types"`
	Short       string   `expr:"short"`
	Sliced      bool     `expr:"sliced"`
}

// NewElementEnv builds the expression environment for n.
func NewElementEnv(n *element.Node) ElementEnv {
	env := ElementEnv{
		Path:        n.Path,
		SliceName:   n.SliceName,
		Min:         n.Min,
		Max:         n.Max,
		MustSupport: n.MustSupport,
		IsModifier:  n.IsModifier,
		IsSummary:   n.IsSummary,
		Source:      string(n.Source),
		IsModified:  n.IsModified,
		Short:       n.Short,
		Sliced:      n.Slicing != nil,
		Types:       make([]string, 0, len(n.Types)),
	}
	for _, t := range n.Types {
		env.Types = append(env.Types, t.Code)
	}
	return env
}

// CompileExpression compiles a boolean element expression into a Predicate.
// An empty expression compiles to a nil Predicate, which Filter ignores.
// A runtime evaluation error counts as no match.
func CompileExpression(src string) (Predicate, error) {
	if src == "" {
		return nil, nil
	}
	program, err := expr.Compile(src, expr.Env(ElementEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter expression %q: %w", src, err)
	}
	return func(n *element.Node) bool {
		out, err := expr.Run(program, NewElementEnv(n))
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}, nil
}
