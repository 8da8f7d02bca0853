package dashboard

import (
	"fmt"
	"net/url"

	"tereborace.com/taboleiro/internal/table"
)

// Page is a computed viewer page.
type Page struct {
	View     View
	Fields   []Field
	Warnings []string
	Query    Query
	Rows     *table.Table
	Stats    table.Stats
}

// BuildPage runs derive, parse, apply, search, sort and summarize over the
// source table of v. A table without rows gets no filters, only a notice.
func BuildPage(v View, t *table.Table, values url.Values) Page {
	q := ParseQuery(values, t, v.Filters)
	if t.Len() == 0 {
		return Page{
			View:     v,
			Warnings: []string{fmt.Sprintf("No hay datos de %s disponibles o hubo un error al cargarlos.", v.Label)},
			Query:    q,
			Rows:     t,
			Stats:    table.Summarize(0, t, ""),
		}
	}
	fields, warnings := Fields(t, v.Label, v.Filters, q)

	rows := table.Apply(t, q.Criteria)
	rows = table.Search(rows, q.Search)
	if q.Order != "" {
		rows = table.Sort(rows, q.Order, q.Desc)
	}
	return Page{
		View:     v,
		Fields:   fields,
		Warnings: warnings,
		Query:    q,
		Rows:     rows,
		Stats:    table.Summarize(t.Len(), rows, ""),
	}
}

// LatestText renders the most recent date of the stats as the viewer shows it.
func LatestText(st table.Stats) string {
	switch {
	case st.DateColumn == "":
		return "N/A (No hay columna de fecha)"
	case st.Latest == nil:
		return "N/A"
	}
	return st.Latest.Format(dateLayout)
}
