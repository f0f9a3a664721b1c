package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	pt "github.com/gofhir/profiletree"
	"github.com/gofhir/profiletree/service"
)

// DiagnoseOutput represents the JSON output for one file.
type DiagnoseOutput struct {
	File     string     `json:"file"`
	Valid    bool       `json:"valid"`
	Errors   int        `json:"errors"`
	Warnings int        `json:"warnings"`
	Issues   []pt.Issue `json:"issues,omitempty"`
	Duration string     `json:"duration"`
}

func diagnoseCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "diagnose <file>...",
		Short: "Check profile documents for cardinality and invariant problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutput(output)
			if err != nil {
				return err
			}
			files, err := expandGlobs(args)
			if err != nil {
				return err
			}
			return runDiagnose(cmd.Context(), cmd.OutOrStdout(), files, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json")
	return cmd
}

func expandGlobs(patterns []string) ([]string, error) {
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", p)
		}
		files = append(files, matches...)
	}
	return files, nil
}

// runDiagnose checks files in parallel and prints the results in argument
// order. It returns errIssuesFound when any file has errors.
func runDiagnose(ctx context.Context, w io.Writer, files []string, format OutputFormat) error {
	if ctx == nil {
		ctx = context.Background()
	}
	outputs := make([]DiagnoseOutput, len(files))
	compiler := service.NewFHIRPathAdapter(0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		g.Go(func() error {
			outputs[i] = diagnoseFile(gctx, file, compiler)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	hasErrors := false
	for _, out := range outputs {
		if !out.Valid {
			hasErrors = true
		}
	}

	if format == OutputJSON {
		data, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	} else {
		for _, out := range outputs {
			printTextResult(w, out)
		}
	}

	if hasErrors {
		return errIssuesFound
	}
	return nil
}

func diagnoseFile(ctx context.Context, file string, compiler service.ExpressionCompiler) DiagnoseOutput {
	start := time.Now()
	out := DiagnoseOutput{File: file}

	report, err := func() (*pt.Report, error) {
		ed, err := openFile(ctx, file, pt.WithExpressionCompiler(compiler))
		if err != nil {
			return nil, err
		}
		return ed.Diagnose(ctx)
	}()
	if err != nil {
		report = &pt.Report{}
		report.Add(pt.Error(pt.IssueTypeProcessing).Diagnostics(err.Error()).Build())
	}

	out.Valid = !report.HasErrors()
	out.Errors = report.ErrorCount()
	out.Warnings = report.WarningCount()
	out.Issues = report.Issues
	out.Duration = time.Since(start).Round(time.Microsecond).String()
	return out
}

func printTextResult(w io.Writer, out DiagnoseOutput) {
	status := "OK"
	if !out.Valid {
		status = "ERRORS"
	}

	fmt.Fprintf(w, "== %s ==\n", out.File)
	fmt.Fprintf(w, "Status: %s\n", status)
	fmt.Fprintf(w, "Errors: %d, Warnings: %d\n", out.Errors, out.Warnings)

	if len(out.Issues) > 0 {
		fmt.Fprintln(w, "\nIssues:")
		for _, iss := range out.Issues {
			location := ""
			if iss.ElementID != "" {
				location = " @ " + iss.ElementID
			}
			key := ""
			if iss.ConstraintKey != "" {
				key = " (" + iss.ConstraintKey + ")"
			}
			fmt.Fprintf(w, "  %s [%s] %s%s%s\n", severityLabel(iss.Severity), iss.Code, iss.Diagnostics, key, location)
		}
	}

	fmt.Fprintln(w)
}

func severityLabel(severity pt.IssueSeverity) string {
	switch severity {
	case pt.SeverityError:
		return "ERROR"
	case pt.SeverityWarning:
		return "WARN "
	case pt.SeverityInformation:
		return "INFO "
	default:
		return "     "
	}
}
