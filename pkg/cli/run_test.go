package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writePipelineFixture drops a small input dataset and a definition that
// doubles x, filters, and writes both a change log and an output file.
func writePipelineFixture(t *testing.T, dir string) string {
	t.Helper()

	csv := "id,x\n1,1\n2,2\n"
	if err := os.WriteFile(filepath.Join(dir, "input.csv"), []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	yaml := `name: "smoke"
input:
  file: "input.csv"
log:
  verbose: false
steps:
  - mutate:
      column: "x"
      expr: "x * 2"
  - filter: "x > 2"
output:
  file: "out.csv"
`
	yamlPath := filepath.Join(dir, "pipeline.yaml")
	if err := os.WriteFile(yamlPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	return yamlPath
}

func TestRunCommand_Executes(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writePipelineFixture(t, dir)

	var out bytes.Buffer
	cmd := NewRunCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{yamlPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("run command failed: %v", err)
	}

	output := out.String()
	for _, expected := range []string{"✓ Pipeline 'smoke' completed", "Rows out: 1", "Steps recorded: 2", "Change log:", "Output:"} {
		if !strings.Contains(output, expected) {
			t.Errorf("Output should contain %q, got:\n%s", expected, output)
		}
	}

	// Files land next to the definition
	outData, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}
	if string(outData) != "id,x\n2,4\n" {
		t.Errorf("Output file = %q", string(outData))
	}
	if _, err := os.Stat(filepath.Join(dir, "simple_log.csv")); err != nil {
		t.Errorf("Expected default change log next to the definition: %v", err)
	}
}

func TestRunCommand_OutputJSON(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writePipelineFixture(t, dir)

	var out bytes.Buffer
	cmd := NewRunCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{yamlPath, "--output-json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("run command failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, out.String())
	}

	if result["pipeline"] != "smoke" {
		t.Errorf("pipeline = %v, want smoke", result["pipeline"])
	}
	if result["status"] != "completed" {
		t.Errorf("status = %v, want completed", result["status"])
	}
	if result["rows"] != float64(1) {
		t.Errorf("rows = %v, want 1", result["rows"])
	}
	if result["steps"] != float64(2) {
		t.Errorf("steps = %v, want 2", result["steps"])
	}
}

func TestRunCommand_MissingDefinition(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRunCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.yaml")})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected error for missing definition, got nil")
	}
	if !strings.Contains(err.Error(), "pipeline definition not found") {
		t.Errorf("Error = %v, want a missing definition message", err)
	}
}

func TestRunCommand_RejectsInvalidDefinition(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bad.yaml")
	yaml := `name: "bad"
input:
  file: "input.csv"
steps:
  - explode: "x"
`
	if err := os.WriteFile(yamlPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := NewRunCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{yamlPath})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected error for invalid definition, got nil")
	}
	if !strings.Contains(err.Error(), "failed to load pipeline") {
		t.Errorf("Error = %v, want a load failure", err)
	}
}

func TestRunCommand_FailedStepSurfacesError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "input.csv"), []byte("id,x\n1,1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "pipeline.yaml")
	yaml := `name: "broken"
input:
  file: "input.csv"
steps:
  - filter: "nope > 1"
`
	if err := os.WriteFile(yamlPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := NewRunCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{yamlPath})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected error for failing step, got nil")
	}
	if !strings.Contains(err.Error(), "step=1") {
		t.Errorf("Error = %v, want the failing step number", err)
	}
}
