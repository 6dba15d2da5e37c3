package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDefinition(t *testing.T, dir, yaml string) string {
	t.Helper()

	path := filepath.Join(dir, "pipeline.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateCommand_Valid(t *testing.T) {
	yaml := `name: "nightly"
input:
  file: "input.csv"
log:
  type: "cellwise"
  key: "id"
  db: "changes.db"
  table: "run_log"
steps:
  - mutate:
      column: "x"
      expr: "x * 2"
output:
  file: "out.csv"
`
	path := writeDefinition(t, t.TempDir(), yaml)

	var out bytes.Buffer
	cmd := NewValidateCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("validate command failed: %v", err)
	}

	output := out.String()
	expected := []string{
		"✓ Definition matches the schema",
		"✓ Definition parsed successfully",
		"✓ Input: input.csv (csv)",
		"✓ 1 step(s) configured",
		"✓ Change log: cellwise (key 'id') -> cellwise_log.csv",
		"✓ SQLite sink: changes.db#run_log",
		"✓ Output: out.csv",
		"✓ Pipeline 'nightly' is valid and ready to run",
	}
	for _, line := range expected {
		if !strings.Contains(output, line) {
			t.Errorf("Output should contain %q, got:\n%s", line, output)
		}
	}
}

func TestValidateCommand_Verbose(t *testing.T) {
	yaml := `name: "verbose"
input:
  file: "input.csv"
steps:
  - filter: "x > 2"
  - drop: ["y"]
`
	path := writeDefinition(t, t.TempDir(), yaml)

	var out bytes.Buffer
	cmd := NewValidateCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path, "--verbose"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("validate command failed: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "1. filter(x > 2)") {
		t.Errorf("Verbose output should list step sources, got:\n%s", output)
	}
	if !strings.Contains(output, "2. drop(y)") {
		t.Errorf("Verbose output should list step sources, got:\n%s", output)
	}
	if !strings.Contains(output, "No change log configured") {
		t.Errorf("Output should note the missing change log, got:\n%s", output)
	}
}

func TestValidateCommand_SchemaFailure(t *testing.T) {
	yaml := `name: "bad"
input:
  file: "input.csv"
steps:
  - explode: "x"
`
	path := writeDefinition(t, t.TempDir(), yaml)

	var out bytes.Buffer
	var errOut bytes.Buffer
	cmd := NewValidateCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected schema failure, got nil")
	}
	if !strings.Contains(errOut.String(), "✗ Schema validation failed") {
		t.Errorf("Stderr should report the schema failure, got:\n%s", errOut.String())
	}
}

func TestValidateCommand_SemanticFailure(t *testing.T) {
	// Passes the schema but the cellwise log has no key column
	yaml := `name: "nokey"
input:
  file: "input.csv"
log:
  type: "cellwise"
steps:
  - filter: "x > 2"
`
	path := writeDefinition(t, t.TempDir(), yaml)

	var out bytes.Buffer
	var errOut bytes.Buffer
	cmd := NewValidateCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected semantic failure, got nil")
	}
	if !strings.Contains(out.String(), "✓ Definition matches the schema") {
		t.Errorf("Stdout should show the schema check passing first, got:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "✗ Definition rejected") {
		t.Errorf("Stderr should report the rejection, got:\n%s", errOut.String())
	}
	if !strings.Contains(err.Error(), "key field is required") {
		t.Errorf("Error = %v, want the missing key message", err)
	}
}

func TestValidateCommand_MissingFile(t *testing.T) {
	var out bytes.Buffer
	cmd := NewValidateCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.yaml")})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "pipeline definition not found") {
		t.Errorf("Error = %v, want a missing definition message", err)
	}
}
