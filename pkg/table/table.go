// Package table provides the in-memory tabular dataset the engine
// validates. A Table is an ordered set of named columns holding typed,
// nullable cells. Tables are read-only once built and safe to share by
// reference across workers.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Column is a named sequence of cells. A nil cell is a null.
type Column struct {
	Name  string
	Cells []any
}

// Table is a read-only view of a tabular dataset.
type Table struct {
	name    string
	columns []Column
	index   map[string]int
	rows    int
}

// New creates a table from columns. All columns must have the same
// length and distinct names.
func New(name string, columns ...Column) (*Table, error) {
	t := &Table{
		name:  name,
		index: make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		if i == 0 {
			t.rows = len(col.Cells)
		} else if len(col.Cells) != t.rows {
			return nil, fmt.Errorf("column %q has %d cells, want %d", col.Name, len(col.Cells), t.rows)
		}
		t.index[col.Name] = i
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// Name returns the dataset name.
func (t *Table) Name() string { return t.name }

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// ColumnNames returns column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Cell returns the cell at (row, column). The second return is false
// when the column does not exist or the row is out of range.
func (t *Table) Cell(row int, column string) (any, bool) {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= t.rows {
		return nil, false
	}
	return t.columns[i].Cells[row], true
}

// Row materializes one row as a column-name keyed map. Used to build
// the evaluation context for per-row expression rules.
func (t *Table) Row(row int) map[string]any {
	out := make(map[string]any, len(t.columns))
	for _, c := range t.columns {
		out[c.Name] = c.Cells[row]
	}
	return out
}

// IsMissing reports whether a cell counts as missing: nil, or a string
// that is empty after trimming whitespace.
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// AsString renders a cell for display and comparison. Nulls render as
// the empty string.
func AsString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AsFloat converts a numeric or numeric-string cell to float64.
func AsFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// NumericColumn extracts the numeric cells of a column, returning the
// values and their row indexes. Nulls and non-numeric cells are
// skipped. The second return is false when the column does not exist.
func (t *Table) NumericColumn(name string) ([]float64, []int, bool) {
	col, ok := t.Column(name)
	if !ok {
		return nil, nil, false
	}
	var values []float64
	var rows []int
	for i, cell := range col.Cells {
		if IsMissing(cell) {
			continue
		}
		if f, ok := AsFloat(cell); ok {
			values = append(values, f)
			rows = append(rows, i)
		}
	}
	return values, rows, true
}

// NumericColumnNames returns the names of columns where every non-null
// cell is numeric and at least one numeric cell exists.
func (t *Table) NumericColumnNames() []string {
	var names []string
	for _, c := range t.columns {
		numeric := 0
		ok := true
		for _, cell := range c.Cells {
			if IsMissing(cell) {
				continue
			}
			if _, isNum := AsFloat(cell); !isNum {
				ok = false
				break
			}
			numeric++
		}
		if ok && numeric > 0 {
			names = append(names, c.Name)
		}
	}
	return names
}
