package dashboard

import (
	"math"
	"net/url"
	"strings"

	"tereborace.com/taboleiro/internal/table"
)

// Columns of the electric vehicle registrations dataset.
const (
	colFecha    = "fecha_registro"
	colLugar    = "lugar_registro"
	colMarca    = "marca_auto"
	colAnio     = "año_modelo"
	colEdad     = "edad"
	colAuton    = "autonomia_km"
	colCarga    = "tipo_carga"
	colBaterias = "baterias_recicladas"
)

// evFilters is the fixed filter panel, in display order.
var evFilters = []string{colLugar, colMarca, colAnio, colEdad, colAuton, colCarga, colBaterias}

// defaultPicks is how many leading options a multiselect starts with.
// Zero means every option.
var defaultPicks = map[string]int{colLugar: 3, colMarca: 3}

const ageBins = 20

// EV is the computed electric vehicle dashboard.
type EV struct {
	Text     Catalog
	Fields   []Field
	Warnings []string
	Query    Query

	Count       int
	AvgAutonomy *float64
	AvgAge      *float64

	Brands   []table.Group
	Ages     []table.Bin
	Autonomy []table.Group
	Monthly  []table.Group

	TopBrand string
	Rows     *table.Table
}

// FactParts splits the interesting fact around the brand name.
func (e EV) FactParts() (before, after string) {
	before, after, _ = strings.Cut(e.Text.Fact, "%s")
	return before, after
}

// BuildEV filters the registrations and computes every metric and chart.
// Location and brand start with their first three options selected; the
// other multiselects start with everything. Once a multiselect has been
// submitted an empty selection matches no row.
func BuildEV(t *table.Table, values url.Values, text Catalog) EV {
	q := ParseQuery(values, t, evFilters)
	for col, n := range defaultPicks {
		if _, ok := q.Criterion(col); ok || values.Has(keySet+col) {
			continue
		}
		ctl, err := table.Derive(t, col)
		if err != nil || ctl.Kind != table.Categorical {
			continue
		}
		q.set(table.In(col, ctl.Options[:min(n, len(ctl.Options))]...))
	}

	fields, warnings := Fields(t, text.Title, evFilters, q)
	for i := range fields {
		if label, ok := text.Labels[fields[i].Column]; ok {
			fields[i].Label = label
		}
	}

	rows := table.Apply(t, q.Criteria)
	if q.Order != "" {
		rows = table.Sort(rows, q.Order, q.Desc)
	}

	ev := EV{Text: text, Fields: fields, Warnings: warnings, Query: q, Count: rows.Len(), Rows: rows}
	if c, ok := rows.Column(colAuton); ok {
		ev.AvgAutonomy = round1(table.ColumnMean(c))
	}
	if c, ok := rows.Column(colEdad); ok {
		ev.AvgAge = round1(table.ColumnMean(c))
		ev.Ages = table.Histogram(c, ageBins)
	}
	if c, ok := rows.Column(colMarca); ok {
		ev.Brands = table.ValueCounts(c)
		ev.TopBrand, _ = table.Mode(c)
		if byBrand, err := table.GroupAggregate(rows, colMarca, colAuton, table.Mean); err == nil {
			ev.Autonomy = table.Sorted(byBrand)
		}
	}
	if c, ok := rows.Column(colFecha); ok {
		ev.Monthly = table.MonthlyCounts(c)
	}
	return ev
}

func round1(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	r := math.Round(v*10) / 10
	return &r
}
