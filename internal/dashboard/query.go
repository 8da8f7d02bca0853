package dashboard

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tereborace.com/taboleiro/internal/apperr"
	"tereborace.com/taboleiro/internal/table"
)

// Query string keys. f.<col> may repeat; set.<col> marks a submitted
// multiselect, so that no f.<col> then means "nothing selected".
const (
	keyValue  = "f."
	keySet    = "set."
	keyMin    = "min."
	keyMax    = "max."
	keyFrom   = "from."
	keyTo     = "to."
	keySearch = "q"
	keyOrder  = "order"
	keyDir    = "dir"
)

const dateLayout = time.DateOnly

// Query is the parsed state of a filtered view.
type Query struct {
	Criteria []table.Criterion
	Search   string
	Order    string
	Desc     bool
}

// Criterion returns the criterion on column, if any.
func (q Query) Criterion(column string) (table.Criterion, bool) {
	for _, c := range q.Criteria {
		if c.Column == column {
			return c, true
		}
	}
	return table.Criterion{}, false
}

func (q *Query) set(c table.Criterion) {
	for i := range q.Criteria {
		if q.Criteria[i].Column == c.Column {
			q.Criteria[i] = c
			return
		}
	}
	q.Criteria = append(q.Criteria, c)
}

// ParseQuery reads the criteria of the given columns from v. The kind of
// each criterion is the kind of the column in t; columns t lacks are
// skipped. Unparseable bounds are ignored.
func ParseQuery(v url.Values, t *table.Table, columns []string) Query {
	q := Query{
		Search: strings.TrimSpace(v.Get(keySearch)),
		Order:  v.Get(keyOrder),
		Desc:   strings.EqualFold(v.Get(keyDir), "desc"),
	}
	for _, name := range columns {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		var c table.Criterion
		switch col.Kind {
		case table.Numeric:
			c = parseRange(v, name)
		case table.Temporal:
			c = parsePeriod(v, name)
		default:
			c = parseValues(v, name)
		}
		if c.Active() {
			q.Criteria = append(q.Criteria, c)
		}
	}
	return q
}

func parseValues(v url.Values, name string) table.Criterion {
	var picked []string
	for _, s := range v[keyValue+name] {
		if s != "" {
			picked = append(picked, s)
		}
	}
	if len(picked) == 0 && !v.Has(keySet+name) {
		return table.Criterion{Column: name, Kind: table.Categorical}
	}
	return table.In(name, picked...)
}

func parseRange(v url.Values, name string) table.Criterion {
	r := &table.Range{Min: parseBound(v.Get(keyMin + name)), Max: parseBound(v.Get(keyMax + name))}
	return table.Criterion{Column: name, Kind: table.Numeric, Range: r}
}

// nil cando o límite falta ou non é un número (NaN incluído)
func parseBound(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

func parsePeriod(v url.Values, name string) table.Criterion {
	p := &table.Period{}
	if ts, err := time.Parse(dateLayout, strings.TrimSpace(v.Get(keyFrom+name))); err == nil {
		p.From = ts
	}
	if ts, err := time.Parse(dateLayout, strings.TrimSpace(v.Get(keyTo+name))); err == nil {
		p.To = table.EndOfDay(ts)
	}
	return table.Criterion{Column: name, Kind: table.Temporal, Period: p}
}

// Values encodes q back into query string form.
func (q Query) Values() url.Values {
	v := url.Values{}
	for _, c := range q.Criteria {
		switch c.Kind {
		case table.Numeric:
			if c.Range == nil {
				continue
			}
			if c.Range.Min != nil {
				v.Set(keyMin+c.Column, table.FormatNumber(*c.Range.Min))
			}
			if c.Range.Max != nil {
				v.Set(keyMax+c.Column, table.FormatNumber(*c.Range.Max))
			}
		case table.Temporal:
			if c.Period == nil {
				continue
			}
			if !c.Period.From.IsZero() {
				v.Set(keyFrom+c.Column, c.Period.From.Format(dateLayout))
			}
			if !c.Period.To.IsZero() {
				v.Set(keyTo+c.Column, c.Period.To.Format(dateLayout))
			}
		default:
			if c.Values == nil {
				continue
			}
			v.Set(keySet+c.Column, "1")
			for _, s := range c.Values.Values() {
				v.Add(keyValue+c.Column, s)
			}
		}
	}
	if q.Search != "" {
		v.Set(keySearch, q.Search)
	}
	if q.Order != "" {
		v.Set(keyOrder, q.Order)
		if q.Desc {
			v.Set(keyDir, "desc")
		}
	}
	return v
}

// Encode is Values().Encode().
func (q Query) Encode() string { return q.Values().Encode() }

// Field is a filter control with its current selection, ready to render.
type Field struct {
	table.Control
	Label string

	// Categorical
	Selected map[string]bool
	All      bool

	// Numeric
	Lo, Hi float64

	// Temporal, YYYY-MM-DD
	FromDate, ToDate string
	MinDate, MaxDate string
}

// IsCategorical, IsNumeric and IsTemporal help templates switch on Kind.
func (f Field) IsCategorical() bool { return f.Kind == table.Categorical }
func (f Field) IsNumeric() bool     { return f.Kind == table.Numeric }
func (f Field) IsTemporal() bool    { return f.Kind == table.Temporal }

// Fields derives the controls of columns from the unfiltered table t and
// fills in the selection of q. Columns that cannot be filtered yield a
// warning instead of a field, except temporal columns without values,
// which are left out silently.
func Fields(t *table.Table, title string, columns []string, q Query) ([]Field, []string) {
	var fields []Field
	var warnings []string
	for _, name := range columns {
		ctl, err := table.Derive(t, name)
		switch {
		case errors.Is(err, table.ErrNotFilterable):
			continue
		case apperr.IsType(err, apperr.Configuration):
			warnings = append(warnings, fmt.Sprintf("La columna de filtro '%s' no existe en la tabla '%s'.", name, title))
			continue
		case apperr.IsType(err, apperr.ClassificationAmbiguous):
			warnings = append(warnings, fmt.Sprintf("La columna '%s' no tiene valores y no se puede filtrar.", name))
			continue
		case err != nil:
			warnings = append(warnings, err.Error())
			continue
		}
		fields = append(fields, newField(ctl, q))
	}
	return fields, warnings
}

func newField(ctl table.Control, q Query) Field {
	f := Field{Control: ctl, Label: ctl.Column}
	c, _ := q.Criterion(ctl.Column)
	switch ctl.Kind {
	case table.Numeric:
		f.Lo, f.Hi = ctl.Min, ctl.Max
		if c.Range != nil && c.Range.Min != nil {
			f.Lo = *c.Range.Min
		}
		if c.Range != nil && c.Range.Max != nil {
			f.Hi = *c.Range.Max
		}
	case table.Temporal:
		f.MinDate, f.MaxDate = ctl.From.Format(dateLayout), ctl.To.Format(dateLayout)
		f.FromDate, f.ToDate = f.MinDate, f.MaxDate
		if c.Period != nil && !c.Period.From.IsZero() {
			f.FromDate = c.Period.From.Format(dateLayout)
		}
		if c.Period != nil && !c.Period.To.IsZero() {
			f.ToDate = c.Period.To.Format(dateLayout)
		}
	default:
		f.Selected = make(map[string]bool)
		if c.Values == nil {
			f.All = true
			break
		}
		for _, s := range c.Values.Values() {
			f.Selected[s] = true
		}
	}
	return f
}
