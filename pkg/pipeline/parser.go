package pipeline

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/gotrail/pkg/table"
	"github.com/dshills/gotrail/pkg/transform"
)

// yamlPipeline represents the YAML structure before conversion to a Definition
type yamlPipeline struct {
	Name   string      `yaml:"name"`
	Input  yamlInput   `yaml:"input"`
	Log    *yamlLog    `yaml:"log,omitempty"`
	Steps  []yamlStep  `yaml:"steps"`
	Output *yamlOutput `yaml:"output,omitempty"`
}

// yamlInput represents the input section in YAML
type yamlInput struct {
	File     string `yaml:"file"`
	Format   string `yaml:"format,omitempty"`
	JSONPath string `yaml:"json_path,omitempty"`
}

// yamlLog represents the log section in YAML
type yamlLog struct {
	Type    string   `yaml:"type,omitempty"`
	Key     string   `yaml:"key,omitempty"`
	Ignore  []string `yaml:"ignore,omitempty"`
	Verbose *bool    `yaml:"verbose,omitempty"`
	File    string   `yaml:"file,omitempty"`
	Append  bool     `yaml:"append,omitempty"`
	DB      string   `yaml:"db,omitempty"`
	Table   string   `yaml:"table,omitempty"`
}

// yamlStep represents one step in YAML; exactly one field may be set
type yamlStep struct {
	Mutate *yamlMutate `yaml:"mutate,omitempty"`
	Filter string      `yaml:"filter,omitempty"`
	Select []string    `yaml:"select,omitempty"`
	Drop   []string    `yaml:"drop,omitempty"`
	Rename *yamlRename `yaml:"rename,omitempty"`
}

// yamlMutate represents a mutate step in YAML
type yamlMutate struct {
	Column string `yaml:"column"`
	Expr   string `yaml:"expr"`
}

// yamlRename represents a rename step in YAML
type yamlRename struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// yamlOutput represents the output section in YAML
type yamlOutput struct {
	File string `yaml:"file"`
}

// Parse parses a pipeline definition from YAML bytes
func Parse(yamlBytes []byte) (*Definition, error) {
	if len(yamlBytes) == 0 {
		return nil, errors.New("empty YAML input")
	}

	var yp yamlPipeline
	if err := yaml.Unmarshal(yamlBytes, &yp); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if yp.Name == "" {
		return nil, errors.New("missing required field: name")
	}
	if yp.Input.File == "" {
		return nil, errors.New("missing required field: input.file")
	}
	if len(yp.Steps) == 0 {
		return nil, errors.New("pipeline needs at least one step")
	}

	def := &Definition{
		Name: yp.Name,
		Input: Input{
			File:     yp.Input.File,
			Format:   yp.Input.Format,
			JSONPath: yp.Input.JSONPath,
		},
		Steps: make([]transform.Transform[*table.Table], 0, len(yp.Steps)),
	}

	if def.Input.Format == "" {
		def.Input.Format = FormatCSV
	}
	switch def.Input.Format {
	case FormatCSV, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown input format: %s", def.Input.Format)
	}

	if yp.Log != nil {
		logCfg, err := parseLog(yp.Log)
		if err != nil {
			return nil, err
		}
		def.Log = logCfg
	}

	for i, ys := range yp.Steps {
		step, err := parseStep(ys)
		if err != nil {
			return nil, fmt.Errorf("failed to parse step %d: %w", i+1, err)
		}
		def.Steps = append(def.Steps, step)
	}

	if yp.Output != nil {
		if yp.Output.File == "" {
			return nil, errors.New("output.file cannot be empty")
		}
		def.Output = &Output{File: yp.Output.File}
	}

	return def, nil
}

// ParseFile parses a pipeline definition from a YAML file
func ParseFile(filePath string) (*Definition, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// parseLog converts a yamlLog into a LogConfig with defaults applied
func parseLog(yl *yamlLog) (*LogConfig, error) {
	logCfg := &LogConfig{
		Type:    yl.Type,
		Key:     yl.Key,
		Ignore:  yl.Ignore,
		Verbose: true,
		File:    yl.File,
		Append:  yl.Append,
		DB:      yl.DB,
		Table:   yl.Table,
	}
	if yl.Verbose != nil {
		logCfg.Verbose = *yl.Verbose
	}
	if logCfg.Type == "" {
		logCfg.Type = LogSimple
	}

	switch logCfg.Type {
	case LogSimple, LogCellwise:
	default:
		return nil, fmt.Errorf("unknown log type: %s", logCfg.Type)
	}
	if logCfg.Type == LogCellwise && logCfg.Key == "" {
		return nil, errors.New("cellwise log: key field is required")
	}
	if logCfg.DB != "" && logCfg.Table == "" {
		return nil, errors.New("log.table is required when log.db is set")
	}

	return logCfg, nil
}

// parseStep converts a yamlStep to the matching transformation
func parseStep(ys yamlStep) (transform.Transform[*table.Table], error) {
	set := 0
	if ys.Mutate != nil {
		set++
	}
	if ys.Filter != "" {
		set++
	}
	if len(ys.Select) > 0 {
		set++
	}
	if len(ys.Drop) > 0 {
		set++
	}
	if ys.Rename != nil {
		set++
	}
	if set == 0 {
		return nil, errors.New("step must name one of: mutate, filter, select, drop, rename")
	}
	if set > 1 {
		return nil, errors.New("step names more than one operation")
	}

	switch {
	case ys.Mutate != nil:
		if ys.Mutate.Column == "" {
			return nil, errors.New("mutate: column field is required")
		}
		if ys.Mutate.Expr == "" {
			return nil, errors.New("mutate: expr field is required")
		}
		return transform.Mutate(ys.Mutate.Column, ys.Mutate.Expr), nil

	case ys.Filter != "":
		return transform.Filter(ys.Filter), nil

	case len(ys.Select) > 0:
		return transform.Select(ys.Select...), nil

	case len(ys.Drop) > 0:
		return transform.Drop(ys.Drop...), nil

	default:
		if ys.Rename.From == "" || ys.Rename.To == "" {
			return nil, errors.New("rename: from and to fields are required")
		}
		return transform.Rename(ys.Rename.From, ys.Rename.To), nil
	}
}
