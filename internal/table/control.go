package table

import (
	"errors"
	"sort"
	"time"

	"tereborace.com/taboleiro/internal/apperr"
)

// ErrNotFilterable is returned by Derive for a temporal column without any
// value. The column is simply left without a control.
var ErrNotFilterable = errors.New("column has no values to filter on")

// Control describes the filter widget of one column and its observed extent.
// Bounds are always taken from the table passed to Derive.
type Control struct {
	Column string
	Kind   Kind

	// Categorical
	Options    []string
	HasMissing bool

	// Numeric
	Min, Max float64

	// Temporal, as dates
	From, To time.Time
}

// Default returns the unconstrained criterion for the control.
func (c Control) Default() Criterion {
	return Criterion{Column: c.Column, Kind: c.Kind}
}

// Derive builds the control for a column.
func Derive(t *Table, name string) (Control, error) {
	col, ok := t.Column(name)
	if !ok {
		return Control{}, apperr.New(apperr.Configuration, "unknown column %q", name)
	}
	if col.Ambiguous {
		return Control{}, apperr.New(apperr.ClassificationAmbiguous, "column %q has no values", name)
	}

	ctl := Control{Column: name, Kind: col.Kind}
	switch col.Kind {
	case Numeric:
		first := true
		for i := 0; i < col.Len(); i++ {
			v, ok := col.Float(i)
			if !ok {
				continue
			}
			if first || v < ctl.Min {
				ctl.Min = v
			}
			if first || v > ctl.Max {
				ctl.Max = v
			}
			first = false
		}
	case Temporal:
		lo, hi, ok := timeExtent(col)
		if !ok {
			return Control{}, ErrNotFilterable
		}
		ctl.From, ctl.To = StartOfDay(lo), StartOfDay(hi)
	default:
		seen := make(map[string]bool)
		for i := 0; i < col.Len(); i++ {
			if col.IsMissing(i) {
				ctl.HasMissing = true
				continue
			}
			if v := col.Text(i); !seen[v] {
				seen[v] = true
				ctl.Options = append(ctl.Options, v)
			}
		}
		sort.Strings(ctl.Options)
	}
	return ctl, nil
}

func timeExtent(col *Column) (lo, hi time.Time, ok bool) {
	for i := 0; i < col.Len(); i++ {
		ts, present := col.Time(i)
		if !present {
			continue
		}
		if !ok || ts.Before(lo) {
			lo = ts
		}
		if !ok || ts.After(hi) {
			hi = ts
		}
		ok = true
	}
	return lo, hi, ok
}
