package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	pt "github.com/gofhir/profiletree"
	"github.com/gofhir/profiletree/engine"
	"github.com/gofhir/profiletree/loader"
	"github.com/gofhir/profiletree/state"
)

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

func parseOutput(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// flattenFlags holds the flatten command's flags.
type flattenFlags struct {
	expand          []string
	expandAll       bool
	search          string
	modifiedOnly    bool
	mustSupportOnly bool
	errorsOnly      bool
	expression      string
	sliceViews      []string
	selectPath      string
	output          string
}

func flattenCmd() *cobra.Command {
	var f flattenFlags
	cmd := &cobra.Command{
		Use:   "flatten <file>",
		Short: "Print the visible rows of a profile's element tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlatten(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVar(&f.expand, "expand", nil, "Element paths to expand (repeatable)")
	flags.BoolVar(&f.expandAll, "expand-all", false, "Expand every element with children")
	flags.StringVar(&f.search, "search", "", "Keep elements whose path contains this text")
	flags.BoolVar(&f.modifiedOnly, "modified-only", false, "Keep only elements the profile changes")
	flags.BoolVar(&f.mustSupportOnly, "must-support-only", false, "Keep only must-support elements")
	flags.BoolVar(&f.errorsOnly, "errors-only", false, "Keep only elements with errors")
	flags.StringVar(&f.expression, "expr", "", "Element filter expression, e.g. 'min > 0 && mustSupport'")
	flags.StringArrayVar(&f.sliceViews, "slice-view", nil, "Slice view as path=slice (repeatable)")
	flags.StringVar(&f.selectPath, "select-path", "", "Select and reveal the element at this path")
	flags.StringVarP(&f.output, "output", "o", "text", "Output format: text, json")
	return cmd
}

func runFlatten(ctx context.Context, w io.Writer, file string, f flattenFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := parseOutput(f.output)
	if err != nil {
		return err
	}
	events, err := f.events()
	if err != nil {
		return err
	}

	ed, err := openFile(ctx, file, pt.WithDiagnostics(false))
	if err != nil {
		return err
	}
	if err := ed.Dispatch(ctx, events...); err != nil {
		return err
	}

	rows := ed.View().RowViews()
	if format == OutputJSON {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return writeRows(w, rows)
}

// events translates the flags into the events that produce the view.
func (f flattenFlags) events() ([]state.Event, error) {
	var events []state.Event
	if f.expandAll {
		events = append(events, state.ExpandAll{})
	}
	for _, p := range f.expand {
		events = append(events, state.ExpandPath{Path: p})
	}

	filter := state.SetFilter{}
	if f.modifiedOnly {
		filter.ModifiedOnly = &f.modifiedOnly
	}
	if f.mustSupportOnly {
		filter.MustSupportOnly = &f.mustSupportOnly
	}
	if f.errorsOnly {
		filter.ErrorsOnly = &f.errorsOnly
	}
	if f.search != "" {
		filter.SearchQuery = &f.search
	}
	if f.expression != "" {
		filter.Expression = &f.expression
	}
	if filter != (state.SetFilter{}) {
		events = append(events, filter)
	}

	views, err := parseSliceViews(f.sliceViews)
	if err != nil {
		return nil, err
	}
	events = append(events, views...)

	if f.selectPath != "" {
		events = append(events, state.SelectByPath{Path: f.selectPath})
	}
	return events, nil
}

// parseSliceViews parses path=slice pairs.
func parseSliceViews(pairs []string) ([]state.Event, error) {
	var events []state.Event
	for _, pair := range pairs {
		path, view, ok := strings.Cut(pair, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid slice view %q (want path=slice)", pair)
		}
		events = append(events, state.SetSliceView{Path: path, View: view})
	}
	return events, nil
}

// openFile loads a profile document from disk into a new editor.
func openFile(ctx context.Context, file string, opts ...pt.Option) (*engine.Editor, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	src := loader.NewMemorySource()
	key := filepath.Base(file)
	if err := src.PutData(key, data, loader.FormatFromName(file)); err != nil {
		return nil, err
	}
	ed, err := engine.New(ctx, src, opts...)
	if err != nil {
		return nil, err
	}
	if err := ed.Load(ctx, key); err != nil {
		return nil, err
	}
	return ed, nil
}

// writeRows renders rows as an indented outline:
//
//	[-] Patient 0..*
//	    name:official 0..1 HumanName MS *
func writeRows(w io.Writer, rows []state.RowView) error {
	for _, r := range rows {
		marker := "   "
		switch {
		case r.HasChildren && r.Expanded:
			marker = "[-]"
		case r.HasChildren:
			marker = "[+]"
		}

		var b strings.Builder
		b.WriteString(strings.Repeat("    ", r.Depth))
		b.WriteString(marker)
		b.WriteByte(' ')
		b.WriteString(r.Label)
		fmt.Fprintf(&b, " %d..%s", r.Min, r.Max)
		if len(r.Types) > 0 {
			b.WriteByte(' ')
			b.WriteString(strings.Join(r.Types, "|"))
		}
		if r.MustSupport {
			b.WriteString(" MS")
		}
		if r.IsModifier {
			b.WriteString(" ?!")
		}
		if r.IsSummary {
			b.WriteString(" Σ")
		}
		if r.IsModified {
			b.WriteString(" *")
		}
		if len(r.SliceNames) > 0 {
			view := r.SliceView
			if view == "" {
				view = "base"
			}
			fmt.Fprintf(&b, " {%s: %s}", view, strings.Join(r.SliceNames, ","))
		}
		if r.Selected {
			b.WriteString(" <")
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
