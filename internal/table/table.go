// Package table is the column-driven filter and aggregate engine behind every
// dashboard: it classifies columns, derives filter controls, applies filter
// criteria, computes summary statistics and encodes filtered views for export.
//
// Tables are immutable once built. Every operation returns a new Table or a
// value, so a Table can be shared between concurrent requests.
package table

import (
	"fmt"
	"strconv"
	"time"
)

// Kind is the inferred semantic type of a column.
type Kind int

const (
	Categorical Kind = iota
	Numeric
	Temporal
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Temporal:
		return "temporal"
	default:
		return "categorical"
	}
}

// Column is a named, uniformly typed sequence of values. Only the slice that
// matches Kind is populated.
type Column struct {
	Name string
	Kind Kind
	// Ambiguous marks a column with no non-missing value at build time.
	Ambiguous bool

	text    []string
	num     []float64
	ts      []time.Time
	missing []bool
}

// Len returns the number of values.
func (c *Column) Len() int { return len(c.missing) }

// IsMissing reports whether row i has no value.
func (c *Column) IsMissing(i int) bool { return c.missing[i] }

// Float returns the numeric value of row i.
func (c *Column) Float(i int) (float64, bool) {
	if c.Kind != Numeric || c.missing[i] {
		return 0, false
	}
	return c.num[i], true
}

// Time returns the timestamp of row i.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.Kind != Temporal || c.missing[i] {
		return time.Time{}, false
	}
	return c.ts[i], true
}

// Value returns row i as string, float64 or time.Time, or nil when missing.
func (c *Column) Value(i int) any {
	if c.missing[i] {
		return nil
	}
	switch c.Kind {
	case Numeric:
		return c.num[i]
	case Temporal:
		return c.ts[i]
	default:
		return c.text[i]
	}
}

// Text returns the display text of row i, "" when missing.
func (c *Column) Text(i int) string {
	if c.missing[i] {
		return ""
	}
	switch c.Kind {
	case Numeric:
		return FormatNumber(c.num[i])
	case Temporal:
		return FormatTime(c.ts[i])
	default:
		return c.text[i]
	}
}

func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Ambiguous: c.Ambiguous, missing: make([]bool, len(rows))}
	switch c.Kind {
	case Numeric:
		out.num = make([]float64, len(rows))
	case Temporal:
		out.ts = make([]time.Time, len(rows))
	default:
		out.text = make([]string, len(rows))
	}
	for j, i := range rows {
		out.missing[j] = c.missing[i]
		switch c.Kind {
		case Numeric:
			out.num[j] = c.num[i]
		case Temporal:
			out.ts[j] = c.ts[i]
		default:
			out.text[j] = c.text[i]
		}
	}
	return out
}

// Table is an ordered set of equally long columns.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// Empty returns a table with no columns and no rows.
func Empty() *Table { return &Table{index: map[string]int{}} }

func newTable(cols []*Column) (*Table, error) {
	t := &Table{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), t.rows)
		}
		t.index[c.Name] = i
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Columns returns the columns in order.
func (t *Table) Columns() []*Column { return t.cols }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Kinds returns the kind of every column by name.
func (t *Table) Kinds() map[string]Kind {
	out := make(map[string]Kind, len(t.cols))
	for _, c := range t.cols {
		out[c.Name] = c.Kind
	}
	return out
}

// Row returns row i as a name → value map (see Column.Value).
func (t *Table) Row(i int) map[string]any {
	m := make(map[string]any, len(t.cols))
	for _, c := range t.cols {
		m[c.Name] = c.Value(i)
	}
	return m
}

// Take returns a new table holding the given rows, in the given order.
func (t *Table) Take(rows []int) *Table {
	out := &Table{cols: make([]*Column, len(t.cols)), index: t.index, rows: len(rows)}
	for i, c := range t.cols {
		out.cols[i] = c.take(rows)
	}
	return out
}

// Head returns at most n leading rows.
func (t *Table) Head(n int) *Table {
	if n >= t.rows {
		return t
	}
	return t.Take(seq(max(n, 0)))
}

// Slice returns rows [from, to) clamped to the table.
func (t *Table) Slice(from, to int) *Table {
	from = min(max(from, 0), t.rows)
	to = min(max(to, from), t.rows)
	rows := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		rows = append(rows, i)
	}
	return t.Take(rows)
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// FormatNumber renders a float with the shortest exact representation.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatTime renders dates without a clock as YYYY-MM-DD.
func FormatTime(ts time.Time) string {
	if ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 && ts.Nanosecond() == 0 {
		return ts.Format(time.DateOnly)
	}
	return ts.Format(time.DateTime)
}
