package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/dshills/gotrail/pkg/table"
)

// rowExpr compiles an expression against a table's columns and evaluates
// it per row, with the row's cells exposed by column name.
//
// Supports:
//   - Comparison operators: >, <, >=, <=, ==, !=
//   - Logical operators: && (AND), || (OR), ! (NOT)
//   - Arithmetic operators: +, -, *, /, %
//   - Parentheses for precedence control
//   - Column references by name
//   - Helper functions: contains(s, substr), missing(cell)
//
// Sandboxed for security - no arbitrary code execution.
type rowExpr struct {
	source string
}

// compile builds the program for one table's shape. Unknown column
// references fail here rather than mid-run.
func (r rowExpr) compile(t *table.Table) (*vm.Program, error) {
	env := make(map[string]interface{}, t.NumCols())
	for _, name := range t.Columns() {
		env[name] = nil
	}

	options := []expr.Option{
		// Cells come in as a map env, so cell types stay dynamic
		expr.Env(env),
		// Safe helper functions available to row expressions
		expr.Function("contains", func(params ...interface{}) (interface{}, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("contains requires 2 arguments")
			}
			str, err := extractParam[string](params, 0, "string")
			if err != nil {
				return false, nil
			}
			substr, err := extractParam[string](params, 1, "substring")
			if err != nil {
				return false, nil
			}
			return strings.Contains(str, substr), nil
		}),
		expr.Function("missing", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("missing requires 1 argument")
			}
			return params[0] == nil, nil
		}),
	}

	program, err := expr.Compile(r.source, options...)
	if err != nil {
		return nil, classifyExprError(err)
	}
	return program, nil
}

// run evaluates the compiled program against one row.
func (r rowExpr) run(program *vm.Program, t *table.Table, row int) (interface{}, error) {
	result, err := vm.Run(program, rowEnv(t, row))
	if err != nil {
		return nil, classifyExprError(err)
	}
	return result, nil
}

// classifyExprError maps engine errors onto the package sentinels.
func classifyExprError(err error) error {
	if strings.Contains(err.Error(), "undefined") || strings.Contains(err.Error(), "unknown name") {
		return fmt.Errorf("%w: %v", ErrUndefinedColumn, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidExpression, err)
}

// rowEnv exposes one row's cells to the expression engine, keyed by column
// name. Missing cells come through as nil.
func rowEnv(t *table.Table, row int) map[string]interface{} {
	env := make(map[string]interface{}, t.NumCols())
	for _, name := range t.Columns() {
		v, _ := t.Cell(row, name)
		env[name] = v
	}
	return env
}

// mutateStep recomputes one column from an expression
type mutateStep struct {
	column string
	expr   rowExpr
}

// Mutate recomputes one column by evaluating an expression against each
// row of the input snapshot. The expression sees the row's cells by column
// name; when the target column does not exist it is added.
//
// Every row is computed from the input snapshot, so an expression like
// "x + 1" reads the old x even while producing the new one.
func Mutate(column, expression string) Transform[*table.Table] {
	return &mutateStep{column: column, expr: rowExpr{source: expression}}
}

// Source returns the exact mutate expression.
func (m *mutateStep) Source() string {
	return fmt.Sprintf("mutate(%s = %s)", m.column, m.expr.source)
}

// Apply evaluates the expression for every row and returns the new table.
func (m *mutateStep) Apply(ctx context.Context, t *table.Table) (*table.Table, error) {
	out := t.Clone()
	if !out.HasColumn(m.column) {
		if err := out.AddColumn(m.column); err != nil {
			return nil, fmt.Errorf("mutate %q: %w", m.column, err)
		}
	}

	program, err := m.expr.compile(t)
	if err != nil {
		return nil, fmt.Errorf("mutate %q: %w", m.column, err)
	}

	for row := 0; row < t.NumRows(); row++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		v, err := m.expr.run(program, t, row)
		if err != nil {
			return nil, fmt.Errorf("mutate %q row %d: %w", m.column, row, err)
		}
		if err := out.SetCell(row, m.column, v); err != nil {
			return nil, fmt.Errorf("mutate %q row %d: %w", m.column, row, err)
		}
	}

	return out, nil
}

// filterStep keeps rows matching a condition
type filterStep struct {
	expr rowExpr
}

// Filter keeps the rows for which the expression evaluates to true.
// The condition must produce a boolean; anything else is an error.
func Filter(expression string) Transform[*table.Table] {
	return &filterStep{expr: rowExpr{source: expression}}
}

// Source returns the exact filter expression.
func (f *filterStep) Source() string {
	return fmt.Sprintf("filter(%s)", f.expr.source)
}

// Apply evaluates the condition for every row and returns the kept rows in
// their original order.
func (f *filterStep) Apply(ctx context.Context, t *table.Table) (*table.Table, error) {
	out, err := table.New(t.Columns()...)
	if err != nil {
		return nil, err
	}

	program, err := f.expr.compile(t)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}

	for row := 0; row < t.NumRows(); row++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		v, err := f.expr.run(program, t, row)
		if err != nil {
			return nil, fmt.Errorf("filter row %d: %w", row, err)
		}
		keep, err := extractBool(v, "filter condition")
		if err != nil {
			return nil, fmt.Errorf("filter row %d: %w", row, err)
		}
		if !keep {
			continue
		}

		cells, err := t.Row(row)
		if err != nil {
			return nil, err
		}
		if err := out.AppendRow(cells...); err != nil {
			return nil, err
		}
	}

	return out, nil
}
