package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Options controls how raw values become typed columns.
type Options struct {
	// Temporal names columns coerced to Temporal; unparseable entries become missing.
	Temporal []string
	// Kinds forces the kind of a column, overriding classification.
	Kinds map[string]Kind
	// Location applies to timestamps without a zone. Defaults to UTC.
	Location *time.Location
}

func (o Options) forced(name string) (Kind, bool) {
	if k, ok := o.Kinds[name]; ok {
		return k, true
	}
	for _, n := range o.Temporal {
		if n == name {
			return Temporal, true
		}
	}
	return 0, false
}

func (o Options) loc() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// timeLayouts are tried in order when parsing text as a timestamp.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"02/01/2006",
}

var missingTokens = map[string]bool{
	"": true, "NA": true, "N/A": true, "n/a": true, "NaN": true, "nan": true,
	"null": true, "NULL": true, "None": true, "<NA>": true, "NaT": true,
}

// IsMissing reports whether a raw value counts as missing.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return missingTokens[strings.TrimSpace(x)]
	case []byte:
		return missingTokens[strings.TrimSpace(string(x))]
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case *time.Time:
		return x == nil
	}
	return false
}

// ParseTime parses a raw value as a timestamp.
func ParseTime(v any, loc *time.Location) (time.Time, bool) {
	var s string
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, true
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ParseFloat parses a raw value as a finite number.
func ParseFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case string:
		return parseNumericText(x)
	case []byte:
		return parseNumericText(string(x))
	case interface{ Float64() (float64, error) }: // json.Number
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumericText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toText(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case []byte:
		return strings.TrimSpace(string(x))
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return FormatTime(x)
	}
	if f, ok := ParseFloat(v); ok {
		return FormatNumber(f)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Classify infers the kind of a column from its raw values. Priority:
// declared temporal, all timestamps, all numbers, categorical. ok is false
// when no value is present and the column was not declared temporal.
func Classify(values []any, declaredTemporal bool, loc *time.Location) (kind Kind, ok bool) {
	if declaredTemporal {
		return Temporal, true
	}
	present, allTime, allNum := 0, true, true
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		present++
		if allTime {
			if _, isTime := ParseTime(v, loc); !isTime {
				allTime = false
			}
		}
		if allNum {
			if _, isNum := ParseFloat(v); !isNum {
				allNum = false
			}
		}
		if !allTime && !allNum {
			break
		}
	}
	switch {
	case present == 0:
		return Categorical, false
	case allTime:
		return Temporal, true
	case allNum:
		return Numeric, true
	}
	return Categorical, true
}

func buildColumn(name string, values []any, opts Options) *Column {
	kind, forced := opts.forced(name)
	ambiguous := false
	if !forced {
		var ok bool
		kind, ok = Classify(values, false, opts.loc())
		ambiguous = !ok
	}

	c := &Column{Name: name, Kind: kind, Ambiguous: ambiguous, missing: make([]bool, len(values))}
	switch kind {
	case Numeric:
		c.num = make([]float64, len(values))
	case Temporal:
		c.ts = make([]time.Time, len(values))
	default:
		c.text = make([]string, len(values))
	}
	for i, v := range values {
		if IsMissing(v) {
			c.missing[i] = true
			continue
		}
		switch kind {
		case Numeric:
			f, ok := ParseFloat(v)
			c.num[i], c.missing[i] = f, !ok
		case Temporal:
			ts, ok := ParseTime(v, opts.loc())
			c.ts[i], c.missing[i] = ts, !ok
		default:
			c.text[i] = toText(v)
			c.missing[i] = c.text[i] == ""
		}
	}
	return c
}

// FromRows builds a table from row-major raw values. Short rows are padded
// with missing values; extra cells are ignored.
func FromRows(names []string, rows [][]any, opts Options) (*Table, error) {
	cols := make([]*Column, len(names))
	values := make([]any, len(rows))
	for j, name := range names {
		for i, row := range rows {
			if j < len(row) {
				values[i] = row[j]
			} else {
				values[i] = nil
			}
		}
		cols[j] = buildColumn(name, values, opts)
	}
	t, err := newTable(cols)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		t.rows = 0
	}
	return t, nil
}

// FromRecords builds a table from flat records, in the given column order.
func FromRecords(names []string, records []map[string]any, opts Options) (*Table, error) {
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(names))
		for j, n := range names {
			row[j] = rec[n]
		}
		rows[i] = row
	}
	return FromRows(names, rows, opts)
}
