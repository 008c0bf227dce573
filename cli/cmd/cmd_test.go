package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/ssi/ssi"
)

func TestReadInput_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.shtml")

	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	input, err := readInput(path)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}

	if input != "hello" {
		t.Errorf("expected 'hello', got %q", input)
	}
}

func TestReadInput_Missing(t *testing.T) {
	_, err := readInput(filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSeedVars_Layers(t *testing.T) {
	dir := t.TempDir()
	varsFile := filepath.Join(dir, "vars.yaml")

	content := "name: from-file\nsite: example\n"
	if err := os.WriteFile(varsFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	vars, err := seedVars("", varsFile, map[string]string{"name": "from-flag"})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	if vars["name"] != "from-flag" {
		t.Errorf("expected flag override, got %q", vars["name"])
	}

	if vars["site"] != "example" {
		t.Errorf("expected file value, got %q", vars["site"])
	}

	if vars["date_local"] == "" || vars["date_gmt"] == "" {
		t.Error("expected date variables to be seeded")
	}
}

func TestSeedVars_TimeLayout(t *testing.T) {
	vars, err := seedVars("2006", "", nil)
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	if len(vars["date_local"]) != 4 {
		t.Errorf("expected a four-digit year, got %q", vars["date_local"])
	}
}

func TestDumpNodes_Conditional(t *testing.T) {
	doc, err := ssi.Parse(
		`<!--#if expr="$name = foo" -->yes<!--#else -->no<!--#endif -->`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var buf strings.Builder
	dumpNodes(&buf, doc.Children, 0)

	output := buf.String()
	for _, want := range []string{`if expr="$name = foo"`, "else", `text "yes"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in dump, got:\n%s", want, output)
		}
	}
}
