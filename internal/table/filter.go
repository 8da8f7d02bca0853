package table

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Missing is the accepted-set token that stands for a missing value.
const Missing = "__missing__"

// ValueSet is the accepted values of a categorical constraint.
type ValueSet struct {
	values  map[string]bool
	missing bool
}

// NewValueSet builds a set from display texts. The Missing token accepts
// missing values. An empty argument list accepts nothing.
func NewValueSet(values ...string) *ValueSet {
	s := &ValueSet{values: make(map[string]bool, len(values))}
	for _, v := range values {
		if v == Missing {
			s.missing = true
			continue
		}
		s.values[v] = true
	}
	return s
}

// Contains reports whether v is accepted.
func (s *ValueSet) Contains(v string) bool { return s.values[v] }

// AcceptsMissing reports whether missing values are accepted.
func (s *ValueSet) AcceptsMissing() bool { return s.missing }

// Values returns the accepted texts sorted, with Missing last when present.
func (s *ValueSet) Values() []string {
	out := make([]string, 0, len(s.values)+1)
	for v := range s.values {
		out = append(out, v)
	}
	sort.Strings(out)
	if s.missing {
		out = append(out, Missing)
	}
	return out
}

// Range is an inclusive numeric interval. A nil bound is open.
type Range struct {
	Min *float64
	Max *float64
}

func (r *Range) contains(v float64) bool {
	return (r.Min == nil || v >= *r.Min) && (r.Max == nil || v <= *r.Max)
}

// Period is an inclusive time interval. A zero bound is open.
type Period struct {
	From time.Time
	To   time.Time
}

func (p *Period) contains(ts time.Time) bool {
	return (p.From.IsZero() || !ts.Before(p.From)) && (p.To.IsZero() || !ts.After(p.To))
}

// Criterion is one column's restriction. Exactly one constraint matching
// Kind may be set; a criterion without one is unconstrained.
type Criterion struct {
	Column string
	Kind   Kind
	Values *ValueSet
	Range  *Range
	Period *Period
}

// Active reports whether the criterion restricts anything.
func (c Criterion) Active() bool {
	switch c.Kind {
	case Numeric:
		return c.Range != nil && (c.Range.Min != nil || c.Range.Max != nil)
	case Temporal:
		return c.Period != nil && (!c.Period.From.IsZero() || !c.Period.To.IsZero())
	default:
		return c.Values != nil
	}
}

// In accepts only the given categorical values.
func In(column string, values ...string) Criterion {
	return Criterion{Column: column, Kind: Categorical, Values: NewValueSet(values...)}
}

// Between accepts numbers in [lo, hi].
func Between(column string, lo, hi float64) Criterion {
	return Criterion{Column: column, Kind: Numeric, Range: &Range{Min: &lo, Max: &hi}}
}

// During accepts timestamps in [from, to].
func During(column string, from, to time.Time) Criterion {
	return Criterion{Column: column, Kind: Temporal, Period: &Period{From: from, To: to}}
}

// OnDates accepts timestamps between the start of the first day and the
// last instant of the second day.
func OnDates(column string, from, to time.Time) Criterion {
	return During(column, StartOfDay(from), EndOfDay(to))
}

// StartOfDay truncates ts to midnight in its location.
func StartOfDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

// EndOfDay returns the last instant of ts's calendar day.
func EndOfDay(ts time.Time) time.Time {
	return StartOfDay(ts).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (c Criterion) match(col *Column, i int) bool {
	switch c.Kind {
	case Numeric:
		v, ok := col.Float(i)
		return ok && c.Range.contains(v)
	case Temporal:
		ts, ok := col.Time(i)
		return ok && c.Period.contains(ts)
	default:
		if col.IsMissing(i) {
			return c.Values.AcceptsMissing()
		}
		return c.Values.Contains(col.Text(i))
	}
}

// Apply keeps the rows that satisfy every active criterion. Criteria on
// unknown columns or with a kind that does not match the column are ignored.
// With no active criterion the table itself is returned.
func Apply(t *Table, criteria []Criterion) *Table {
	type bound struct {
		c   Criterion
		col *Column
	}
	var active []bound
	for _, c := range criteria {
		if !c.Active() {
			continue
		}
		col, ok := t.Column(c.Column)
		if !ok || (c.Kind != Categorical && col.Kind != c.Kind) {
			continue
		}
		active = append(active, bound{c, col})
	}
	if len(active) == 0 {
		return t
	}

	rows := make([]int, 0, t.Len())
next:
	for i := 0; i < t.Len(); i++ {
		for _, b := range active {
			if !b.c.match(b.col, i) {
				continue next
			}
		}
		rows = append(rows, i)
	}
	return t.Take(rows)
}

// Unknown returns the columns named by active criteria that t does not have.
func Unknown(t *Table, criteria []Criterion) []string {
	var out []string
	for _, c := range criteria {
		if _, ok := t.Column(c.Column); c.Active() && !ok {
			out = append(out, c.Column)
		}
	}
	return out
}

// Fold lowercases s and strips combining marks, so "Concepción" folds to
// "concepcion".
func Fold(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Search keeps the rows where any column's text contains q, ignoring case
// and accents. A blank query returns t.
func Search(t *Table, q string) *Table {
	q = Fold(strings.TrimSpace(q))
	if q == "" {
		return t
	}
	rows := make([]int, 0)
	for i := 0; i < t.Len(); i++ {
		for _, c := range t.Columns() {
			if !c.IsMissing(i) && strings.Contains(Fold(c.Text(i)), q) {
				rows = append(rows, i)
				break
			}
		}
	}
	return t.Take(rows)
}
