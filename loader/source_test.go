package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/gofhir/profiletree/element"
)

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()
	src.Put("p", &element.Raw{Path: "Patient"})

	raw, err := src.FetchDocument(ctx, "p")
	if err != nil || raw.Path != "Patient" {
		t.Fatalf("FetchDocument(p) = %v, %v", raw, err)
	}
	if _, err := src.FetchDocument(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchDocument(missing) error = %v; want ErrNotFound", err)
	}
	if err := src.PutData("bad", []byte("{"), FormatJSON); err == nil {
		t.Error("PutData with invalid JSON should fail")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := src.FetchDocument(cancelled, "p"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled fetch error = %v; want context.Canceled", err)
	}
}

func TestDirSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("patient.json", `{"path":"Patient"}`)
	write("obs.yaml", "path: Observation\n")
	write("notes.txt", "ignored")

	src := NewDirSource(dir)

	tests := []struct {
		key      string
		wantPath string
	}{
		{"patient", "Patient"},
		{"obs", "Observation"},
	}
	for _, tt := range tests {
		raw, err := src.FetchDocument(ctx, tt.key)
		if err != nil {
			t.Fatalf("FetchDocument(%s) error = %v", tt.key, err)
		}
		if raw.Path != tt.wantPath {
			t.Errorf("FetchDocument(%s).Path = %q; want %q", tt.key, raw.Path, tt.wantPath)
		}
	}

	for _, key := range []string{"notes", "missing", "../patient", ""} {
		if _, err := src.FetchDocument(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Errorf("FetchDocument(%q) error = %v; want ErrNotFound", key, err)
		}
	}

	keys, err := src.Keys()
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "obs" || keys[1] != "patient" {
		t.Errorf("Keys() = %v; want [obs patient]", keys)
	}
}

func TestDirSource_DecodeError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := NewDirSource(dir).FetchDocument(context.Background(), "broken")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v; want a decode error", err)
	}
}

func TestKeyForFile(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"/tmp/profiles/us-core-patient.json", "us-core-patient", true},
		{"bp.yml", "bp", true},
		{"README.md", "", false},
	}
	for _, tt := range tests {
		got, ok := KeyForFile(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("KeyForFile(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}
