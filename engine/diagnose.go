package engine

import (
	"context"
	"fmt"
	"strconv"

	pt "github.com/gofhir/profiletree"
	"github.com/gofhir/profiletree/element"
	"github.com/gofhir/profiletree/service"
)

// Diagnose checks every element of tree:
//
//   - max must be "*" or a non-negative integer
//   - min must not exceed a numeric max
//   - every invariant must carry an expression that compiles
//
// Invariant expressions are only compiled when compiler is non-nil. The
// walk stops early when ctx is canceled and returns what it found so far.
func Diagnose(ctx context.Context, tree []*element.Node, compiler service.ExpressionCompiler) *pt.Report {
	report := &pt.Report{}
	element.Walk(tree, func(n *element.Node, _ int) bool {
		if ctx.Err() != nil {
			return false
		}
		report.Add(checkCardinality(n)...)
		report.Add(checkInvariants(n, compiler)...)
		return true
	})
	return report
}

func checkCardinality(n *element.Node) []pt.Issue {
	if n.Max == element.UnboundedMax {
		return nil
	}
	maxVal, err := strconv.Atoi(n.Max)
	if err != nil || maxVal < 0 {
		return []pt.Issue{
			pt.Error(pt.IssueTypeValue).
				Diagnostics(fmt.Sprintf("max %q must be '*' or a non-negative integer", n.Max)).
				At(n.ID, n.Path).
				Build(),
		}
	}
	if n.Min > maxVal {
		return []pt.Issue{
			pt.Error(pt.IssueTypeStructure).
				Diagnostics(fmt.Sprintf("min %d exceeds max %d", n.Min, maxVal)).
				At(n.ID, n.Path).
				Build(),
		}
	}
	return nil
}

func checkInvariants(n *element.Node, compiler service.ExpressionCompiler) []pt.Issue {
	var issues []pt.Issue
	for _, c := range n.Constraints {
		if c.Expression == "" {
			issues = append(issues, pt.Warning(pt.IssueTypeInvariant).
				Diagnostics("invariant has no expression").
				At(n.ID, n.Path).
				Constraint(c.Key).
				Build())
			continue
		}
		if compiler == nil {
			continue
		}
		if err := compiler.Compile(c.Expression); err != nil {
			issues = append(issues, pt.Error(pt.IssueTypeInvariant).
				Diagnostics(err.Error()).
				At(n.ID, n.Path).
				Constraint(c.Key).
				Build())
		}
	}
	return issues
}
