package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gterrors "github.com/dshills/gotrail/pkg/errors"
	"github.com/dshills/gotrail/pkg/storage"
	"github.com/dshills/gotrail/pkg/transform"
)

// writeInput drops a small CSV dataset into the run directory
func writeInput(t *testing.T, dir string) {
	t.Helper()

	csv := "id,x,y\n1,1,a\n2,2,b\n3,3,c\n"
	if err := os.WriteFile(filepath.Join(dir, "input.csv"), []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_CellwisePipeline(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir)

	yaml := `name: "nightly"
input:
  file: "input.csv"
log:
  type: "cellwise"
  key: "id"
  verbose: false
  file: "logs/changes.csv"
  db: "logs/changes.db"
  table: "run_log"
steps:
  - mutate:
      column: "x"
      expr: "x * 2"
  - filter: "x > 2"
output:
  file: "out/result.csv"
`
	def, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	result, err := Run(context.Background(), def, dir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Name != "nightly" {
		t.Errorf("Name = %q", result.Name)
	}
	if result.Steps != 2 {
		t.Errorf("Steps = %d, want 2", result.Steps)
	}
	if result.Rows != 2 {
		t.Errorf("Rows = %d, want 2", result.Rows)
	}
	if len(result.LogTargets) != 2 {
		t.Errorf("LogTargets = %v, want CSV and SQLite sinks", result.LogTargets)
	}
	if result.RunID == "" {
		t.Error("Expected a RunID from the SQLite sink")
	}
	if result.Duration <= 0 {
		t.Error("Expected a positive duration")
	}

	// Mutate changes 3 cells, the filter removes row 1 (2 more entries)
	logData, err := os.ReadFile(filepath.Join(dir, "logs", "changes.csv"))
	if err != nil {
		t.Fatalf("reading change log failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(logData)), "\n")
	if lines[0] != "step,id,column,old,new" {
		t.Errorf("Log header = %q", lines[0])
	}
	if len(lines) != 6 {
		t.Errorf("Log has %d lines, want header plus 5 entries", len(lines))
	}

	_, rows, err := storage.ReadRecords(filepath.Join(dir, "logs", "changes.db"), "run_log")
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(rows) != 5 {
		t.Errorf("SQLite sink has %d rows, want 5", len(rows))
	}

	runs, err := storage.ListRuns(filepath.Join(dir, "logs", "changes.db"))
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != result.RunID {
		t.Errorf("ListRuns = %+v, want the run from this result", runs)
	}

	outData, err := os.ReadFile(result.OutputFile)
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}
	want := "id,x,y\n2,4,b\n3,6,c\n"
	if string(outData) != want {
		t.Errorf("Output = %q, want %q", string(outData), want)
	}
}

func TestRun_SimpleLogDefaultSink(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir)

	yaml := `name: "plain"
input:
  file: "input.csv"
log:
  verbose: false
steps:
  - filter: "x > 1"
`
	def, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	result, err := Run(context.Background(), def, dir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.LogTargets) != 1 {
		t.Fatalf("LogTargets = %v, want one sink", result.LogTargets)
	}
	if filepath.Base(result.LogTargets[0]) != "simple_log.csv" {
		t.Errorf("Log target = %q, want the default filename", result.LogTargets[0])
	}
	if result.OutputFile != "" {
		t.Errorf("OutputFile = %q, want none", result.OutputFile)
	}

	data, err := os.ReadFile(filepath.Join(dir, "simple_log.csv"))
	if err != nil {
		t.Fatalf("reading log failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("Log has %d lines, want header plus 1 entry", len(lines))
	}
}

func TestRun_UnloggedPipeline(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir)

	yaml := `name: "unlogged"
input:
  file: "input.csv"
steps:
  - drop: ["y"]
output:
  file: "out.csv"
`
	def, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	result, err := Run(context.Background(), def, dir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.LogTargets) != 0 {
		t.Errorf("LogTargets = %v, want none", result.LogTargets)
	}
	if result.Steps != 0 {
		t.Errorf("Steps = %d, want 0 recorded without a logger", result.Steps)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "id,x\n") {
		t.Errorf("Output = %q, want the y column dropped", string(data))
	}
}

func TestRun_JSONInput(t *testing.T) {
	dir := t.TempDir()
	jsonDoc := `{"rows": [{"id": 1, "x": 10}, {"id": 2, "x": 20}]}`
	if err := os.WriteFile(filepath.Join(dir, "input.json"), []byte(jsonDoc), 0644); err != nil {
		t.Fatal(err)
	}

	yaml := `name: "fromjson"
input:
  file: "input.json"
  format: "json"
  json_path: "rows"
steps:
  - mutate:
      column: "x"
      expr: "x + 1"
output:
  file: "out.csv"
`
	def, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if _, err := Run(context.Background(), def, dir); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "id,x\n1,11\n2,21\n"
	if string(data) != want {
		t.Errorf("Output = %q, want %q", string(data), want)
	}
}

func TestRun_StepFailure(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir)

	yaml := `name: "broken"
input:
  file: "input.csv"
steps:
  - filter: "x > 1"
  - filter: "zzz > 1"
`
	def, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	_, err = Run(context.Background(), def, dir)
	if err == nil {
		t.Fatal("Run succeeded, want step failure")
	}

	var opErr *gterrors.OperationalError
	if !errors.As(err, &opErr) {
		t.Fatalf("Run error = %T, want OperationalError", err)
	}
	if opErr.Step != 2 {
		t.Errorf("Step = %d, want 2", opErr.Step)
	}
	if opErr.Pipeline != "broken" {
		t.Errorf("Pipeline = %q, want 'broken'", opErr.Pipeline)
	}
	if !errors.Is(err, transform.ErrUndefinedColumn) {
		t.Errorf("Run error = %v, want ErrUndefinedColumn in the chain", err)
	}
}

func TestRun_MissingInput(t *testing.T) {
	dir := t.TempDir()

	yaml := `name: "noinput"
input:
  file: "absent.csv"
steps:
  - filter: "x > 1"
`
	def, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	_, err = Run(context.Background(), def, dir)
	if err == nil {
		t.Fatal("Run succeeded, want load failure")
	}
	var opErr *gterrors.OperationalError
	if !errors.As(err, &opErr) {
		t.Fatalf("Run error = %T, want OperationalError", err)
	}
	if opErr.Operation != "loading input" {
		t.Errorf("Operation = %q", opErr.Operation)
	}
}

func TestRun_PathEscapeRejected(t *testing.T) {
	dir := t.TempDir()

	yaml := `name: "escape"
input:
  file: "../outside.csv"
steps:
  - filter: "x > 1"
`
	def, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	_, err = Run(context.Background(), def, dir)
	if err == nil {
		t.Fatal("Run succeeded, want path rejection")
	}
	if !strings.Contains(err.Error(), "escapes") {
		t.Errorf("Run error = %v, want a containment failure", err)
	}
}
