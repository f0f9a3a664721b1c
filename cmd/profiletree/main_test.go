package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofhir/profiletree/state"
)

const bpDoc = `path: Observation
children:
  - path: Observation.status
    min: 1
    max: "1"
    mustSupport: true
  - path: Observation.component
    min: 2
    slicing:
      discriminator:
        - type: pattern
          path: code
      rules: open
    slices:
      systolic:
        element:
          path: Observation.component
          max: "1"
          children:
            - path: Observation.component.code
              min: 1
        source: added
      diastolic:
        element:
          path: Observation.component
          max: "1"
        source: added
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFlatten_Text(t *testing.T) {
	file := writeFile(t, "bp.yaml", bpDoc)

	var buf bytes.Buffer
	err := runFlatten(context.Background(), &buf, file, flattenFlags{expand: []string{"Observation"}})
	if err != nil {
		t.Fatalf("runFlatten() error = %v", err)
	}

	want := "[-] Observation 0..*\n" +
		"       status 1..1 MS\n" +
		"       component 2..* {base: systolic,diastolic}\n"
	if got := buf.String(); got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}
}

func TestRunFlatten_SliceViewJSON(t *testing.T) {
	file := writeFile(t, "bp.yaml", bpDoc)

	var buf bytes.Buffer
	err := runFlatten(context.Background(), &buf, file, flattenFlags{
		expandAll:  true,
		sliceViews: []string{"Observation.component=systolic"},
		selectPath: "Observation.status",
		output:     "json",
	})
	if err != nil {
		t.Fatalf("runFlatten() error = %v", err)
	}

	var rows []state.RowView
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	var labels []string
	for _, r := range rows {
		labels = append(labels, r.Label)
	}
	want := []string{"Observation", "status", "component:systolic", "code"}
	if strings.Join(labels, ",") != strings.Join(want, ",") {
		t.Errorf("labels = %v; want %v", labels, want)
	}
	if !rows[1].Selected {
		t.Error("status row should be selected")
	}
	if rows[2].SliceView != "systolic" {
		t.Errorf("SliceView = %q; want systolic", rows[2].SliceView)
	}
}

func TestRunFlatten_Errors(t *testing.T) {
	file := writeFile(t, "bp.yaml", bpDoc)

	tests := []struct {
		name  string
		file  string
		flags flattenFlags
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.json"), flattenFlags{}},
		{"bad output", file, flattenFlags{output: "xml"}},
		{"bad slice view", file, flattenFlags{sliceViews: []string{"nopath"}}},
		{"bad expression", file, flattenFlags{expression: "min +"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := runFlatten(context.Background(), &buf, tt.file, tt.flags); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFlattenFlags_Events(t *testing.T) {
	f := flattenFlags{
		expandAll:    true,
		expand:       []string{"Patient.name"},
		modifiedOnly: true,
		search:       "name",
		selectPath:   "Patient.name.family",
	}
	events, err := f.events()
	if err != nil {
		t.Fatal(err)
	}

	var types []string
	for _, e := range events {
		types = append(types, e.Type())
	}
	want := []string{state.TypeExpandAll, state.TypeExpandPath, state.TypeSetFilter, state.TypeSelectByPath}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("event types = %v; want %v", types, want)
	}

	none, err := flattenFlags{}.events()
	if err != nil || len(none) != 0 {
		t.Errorf("empty flags gave %v, %v; want no events", none, err)
	}
}

func TestParseSliceViews(t *testing.T) {
	events, err := parseSliceViews([]string{"Observation.component=systolic", "Patient.name="})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d; want 2", len(events))
	}
	if sv := events[0].(state.SetSliceView); sv.Path != "Observation.component" || sv.View != "systolic" {
		t.Errorf("events[0] = %+v", sv)
	}
	if sv := events[1].(state.SetSliceView); sv.View != "" {
		t.Errorf("events[1].View = %q; want empty", sv.View)
	}

	if _, err := parseSliceViews([]string{"=x"}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestRunDiagnose(t *testing.T) {
	good := writeFile(t, "good.yaml", bpDoc)
	bad := writeFile(t, "bad.json", `{"path":"Patient","children":[{"path":"Patient.name","min":3,"max":"1"}]}`)

	var buf bytes.Buffer
	err := runDiagnose(context.Background(), &buf, []string{good, bad}, OutputText)
	if !errors.Is(err, errIssuesFound) {
		t.Fatalf("runDiagnose() error = %v; want errIssuesFound", err)
	}

	out := buf.String()
	if strings.Index(out, good) > strings.Index(out, bad) {
		t.Error("results should be printed in argument order")
	}
	if !strings.Contains(out, "min 3 exceeds max 1 @ Patient.name") {
		t.Errorf("output missing cardinality issue:\n%s", out)
	}
}

func TestRunDiagnose_JSON(t *testing.T) {
	good := writeFile(t, "good.yaml", bpDoc)

	var buf bytes.Buffer
	if err := runDiagnose(context.Background(), &buf, []string{good}, OutputJSON); err != nil {
		t.Fatalf("runDiagnose() error = %v", err)
	}
	var outputs []DiagnoseOutput
	if err := json.Unmarshal(buf.Bytes(), &outputs); err != nil {
		t.Fatal(err)
	}
	if len(outputs) != 1 || !outputs[0].Valid {
		t.Errorf("outputs = %+v; want one valid result", outputs)
	}
}

func TestRunDiagnose_UnreadableFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")

	var buf bytes.Buffer
	err := runDiagnose(context.Background(), &buf, []string{missing}, OutputText)
	if !errors.Is(err, errIssuesFound) {
		t.Fatalf("runDiagnose() error = %v; want errIssuesFound", err)
	}
	if !strings.Contains(buf.String(), "[processing]") {
		t.Errorf("output should report a processing issue:\n%s", buf.String())
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "profiletree v"+version) {
		t.Errorf("version output = %q", buf.String())
	}
}
