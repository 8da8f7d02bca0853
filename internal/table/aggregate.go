package table

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"tereborace.com/taboleiro/internal/apperr"
)

// Stats is the summary shown above every view.
type Stats struct {
	Total      int
	Filtered   int
	DateColumn string
	// Latest is nil when not applicable.
	Latest *time.Time
}

// Summarize counts rows and finds the most recent timestamp of the view.
// The date column is the hint when given, else the first temporal column
// whose name mentions a date.
func Summarize(total int, view *Table, dateHint string) Stats {
	st := Stats{Total: total, Filtered: view.Len()}
	col := dateColumn(view, dateHint)
	if col == nil {
		return st
	}
	st.DateColumn = col.Name
	if _, hi, ok := timeExtent(col); ok {
		st.Latest = &hi
	}
	return st
}

func dateColumn(t *Table, hint string) *Column {
	if hint != "" {
		if c, ok := t.Column(hint); ok && c.Kind == Temporal {
			return c
		}
		return nil
	}
	for _, c := range t.Columns() {
		name := strings.ToLower(c.Name)
		if c.Kind == Temporal && (strings.Contains(name, "fecha") || strings.Contains(name, "date")) {
			return c
		}
	}
	return nil
}

// Op is a group aggregate operation.
type Op int

const (
	Mean Op = iota
	Count
	Sum
)

func (o Op) String() string {
	switch o {
	case Count:
		return "count"
	case Sum:
		return "sum"
	default:
		return "mean"
	}
}

// GroupAggregate aggregates value per distinct text of group. Rows with a
// missing group are skipped. Mean leaves out groups without any value.
func GroupAggregate(t *Table, group, value string, op Op) (map[string]float64, error) {
	g, ok := t.Column(group)
	if !ok {
		return nil, apperr.New(apperr.Configuration, "unknown column %q", group)
	}
	v, ok := t.Column(value)
	if !ok {
		return nil, apperr.New(apperr.Configuration, "unknown column %q", value)
	}
	if op != Count && v.Kind != Numeric {
		return nil, fmt.Errorf("%s of %s column %q", op, v.Kind, value)
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := 0; i < t.Len(); i++ {
		if g.IsMissing(i) {
			continue
		}
		key := g.Text(i)
		if op == Count {
			if !v.IsMissing(i) {
				sums[key]++
			}
			continue
		}
		if _, seen := sums[key]; !seen {
			sums[key] = 0
		}
		if f, ok := v.Float(i); ok {
			sums[key] += f
			counts[key]++
		}
	}
	if op == Mean {
		for k, s := range sums {
			if counts[k] == 0 {
				delete(sums, k)
				continue
			}
			sums[k] = s / float64(counts[k])
		}
	}
	return sums, nil
}

// Group is one entry of an aggregate.
type Group struct {
	Key   string
	Value float64
}

// Sorted returns the entries ordered by key.
func Sorted(m map[string]float64) []Group {
	out := make([]Group, 0, len(m))
	for k, v := range m {
		out = append(out, Group{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ValueCounts counts rows per value, most frequent first.
func ValueCounts(col *Column) []Group {
	counts := make(map[string]float64)
	for i := 0; i < col.Len(); i++ {
		if !col.IsMissing(i) {
			counts[col.Text(i)]++
		}
	}
	out := Sorted(counts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// ColumnMean returns the mean of a numeric column, false when it has no value.
func ColumnMean(col *Column) (float64, bool) {
	sum, n := 0.0, 0
	for i := 0; i < col.Len(); i++ {
		if f, ok := col.Float(i); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Mode returns the most frequent value text. Ties go to the smallest value,
// numerically for numeric columns.
func Mode(col *Column) (string, bool) {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		k := col.Text(i)
		if _, ok := first[k]; !ok {
			first[k] = i
		}
		counts[k]++
	}
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && less(col, first[k], first[best])) {
			best, bestN = k, n
		}
	}
	return best, bestN > 0
}

func less(col *Column, i, j int) bool {
	switch col.Kind {
	case Numeric:
		return col.num[i] < col.num[j]
	case Temporal:
		return col.ts[i].Before(col.ts[j])
	default:
		return col.text[i] < col.text[j]
	}
}

// MonthlyCounts counts timestamps per YYYY-MM, oldest month first.
func MonthlyCounts(col *Column) []Group {
	counts := make(map[string]float64)
	for i := 0; i < col.Len(); i++ {
		if ts, ok := col.Time(i); ok {
			counts[ts.Format("2006-01")]++
		}
	}
	return Sorted(counts)
}

// Bin is one histogram bucket, [Lo, Hi) except the last one, which is closed.
type Bin struct {
	Lo, Hi float64
	Count  int
}

// Histogram splits a numeric column into equal width bins over its extent.
func Histogram(col *Column, bins int) []Bin {
	if bins <= 0 {
		return nil
	}
	lo, hi, n := math.Inf(1), math.Inf(-1), 0
	for i := 0; i < col.Len(); i++ {
		if f, ok := col.Float(i); ok {
			lo, hi = math.Min(lo, f), math.Max(hi, f)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: n}}
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for b := range out {
		out[b].Lo = lo + float64(b)*width
		out[b].Hi = lo + float64(b+1)*width
	}
	out[bins-1].Hi = hi
	for i := 0; i < col.Len(); i++ {
		f, ok := col.Float(i)
		if !ok {
			continue
		}
		b := int((f - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		out[b].Count++
	}
	return out
}

// Sort orders the rows by a column, keeping ties in place and missing
// values last. An unknown column returns t.
func Sort(t *Table, name string, desc bool) *Table {
	col, ok := t.Column(name)
	if !ok {
		return t
	}
	rows := seq(t.Len())
	sort.SliceStable(rows, func(a, b int) bool {
		i, j := rows[a], rows[b]
		mi, mj := col.IsMissing(i), col.IsMissing(j)
		if mi || mj {
			return !mi && mj
		}
		if desc {
			return less(col, j, i)
		}
		return less(col, i, j)
	})
	return t.Take(rows)
}
