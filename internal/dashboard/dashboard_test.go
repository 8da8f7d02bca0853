package dashboard

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tereborace.com/taboleiro/internal/table"
)

const evCSV = `fecha_registro,lugar_registro,marca_auto,año_modelo,edad,autonomia_km,tipo_carga,baterias_recicladas
2023-01-10,Bogotá,Tesla,2022,35,500,Rápida,Sí
2023-01-22,Cali,Nissan,2020,41,270,Lenta,No
2023-02-05,Medellín,BYD,2023,29,400,Rápida,No
2023-02-18,Bogotá,Tesla,2021,52,450,Rápida,Sí
2023-03-01,Pereira,Renault,2019,60,300,Lenta,No
2023-03-09,Cali,Kia,2022,33,380,Rápida,Sí
`

func evTable(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.ReadCSV(strings.NewReader(evCSV), table.Options{Temporal: []string{colFecha}})
	require.NoError(t, err)
	return tb
}

func eventsTable(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.FromRecords(
		[]string{"id_evento", "nombre_evento", "fecha_evento", "ubicacion", "cupo_maximo"},
		[]map[string]any{
			{"id_evento": 1, "nombre_evento": "Feria", "fecha_evento": "2024-05-01T10:00:00", "ubicacion": "Aula 1", "cupo_maximo": 100},
			{"id_evento": 2, "nombre_evento": "Charla", "fecha_evento": "2024-05-03T18:00:00", "ubicacion": "Auditorio", "cupo_maximo": 50},
			{"id_evento": 3, "nombre_evento": "Taller", "fecha_evento": "2024-06-10T09:00:00", "ubicacion": "Aula 1", "cupo_maximo": 20},
		},
		table.Options{},
	)
	require.NoError(t, err)
	return tb
}

func TestLookup(t *testing.T) {
	v, ok := Lookup("categorias")
	require.True(t, ok)
	assert.Equal(t, "categoriaevento", v.Source)
	assert.Equal(t, "Categoria de Evento", v.Label)
	_, ok = Lookup("nope")
	assert.False(t, ok)
	assert.Len(t, Views(), 6)
	assert.Equal(t, "Fecha Evento", Humanize("fecha_evento"))
}

func TestParseQueryRoundTrip(t *testing.T) {
	tb := eventsTable(t)
	v, err := url.ParseQuery("f.ubicacion=Aula+1&min.cupo_maximo=30&from.fecha_evento=2024-05-01&to.fecha_evento=2024-05-31&q=feria&order=cupo_maximo&dir=desc")
	require.NoError(t, err)
	columns := []string{"ubicacion", "cupo_maximo", "fecha_evento"}

	q := ParseQuery(v, tb, columns)
	assert.Len(t, q.Criteria, 3)
	assert.Equal(t, "feria", q.Search)
	assert.Equal(t, "cupo_maximo", q.Order)
	assert.True(t, q.Desc)

	again := ParseQuery(q.Values(), tb, columns)
	assert.Equal(t, q.Values(), again.Values())
	assert.Equal(t, table.Apply(tb, q.Criteria).Len(), table.Apply(tb, again.Criteria).Len())
}

func TestParseQueryCategoricalStates(t *testing.T) {
	tb := eventsTable(t)
	cols := []string{"ubicacion"}

	q := ParseQuery(url.Values{}, tb, cols)
	assert.Empty(t, q.Criteria)

	// "Todos" envía un valor baleiro
	q = ParseQuery(url.Values{"f.ubicacion": {""}}, tb, cols)
	assert.Empty(t, q.Criteria)

	q = ParseQuery(url.Values{"set.ubicacion": {"1"}}, tb, cols)
	require.Len(t, q.Criteria, 1)
	assert.Equal(t, 0, table.Apply(tb, q.Criteria).Len())
}

func TestParseQueryRejectsNaNBounds(t *testing.T) {
	tb := eventsTable(t)
	cols := []string{"cupo_maximo"}

	q := ParseQuery(url.Values{"min.cupo_maximo": {"NaN"}}, tb, cols)
	assert.Empty(t, q.Criteria)

	q = ParseQuery(url.Values{"min.cupo_maximo": {"nan"}, "max.cupo_maximo": {"50"}}, tb, cols)
	require.Len(t, q.Criteria, 1)
	assert.Nil(t, q.Criteria[0].Range.Min)
	assert.Equal(t, 2, table.Apply(tb, q.Criteria).Len())
}

func TestBuildPage(t *testing.T) {
	v := View{Key: "eventos", Label: "Eventos", Filters: []string{"nombre_evento", "fecha_evento", "cupo_maximo", "fecha_fin"}}
	page := BuildPage(v, eventsTable(t), url.Values{"from.fecha_evento": {"2024-05-01"}, "to.fecha_evento": {"2024-05-03"}})

	assert.Equal(t, 3, page.Stats.Total)
	assert.Equal(t, 2, page.Stats.Filtered)
	assert.Equal(t, "2024-05-03", LatestText(page.Stats))
	require.Len(t, page.Fields, 3)
	assert.Equal(t, []string{"La columna de filtro 'fecha_fin' no existe en la tabla 'Eventos'."}, page.Warnings)

	fecha := page.Fields[1]
	assert.True(t, fecha.IsTemporal())
	assert.Equal(t, "2024-05-01", fecha.MinDate)
	assert.Equal(t, "2024-06-10", fecha.MaxDate)
	assert.Equal(t, "2024-05-03", fecha.ToDate)

	cupo := page.Fields[2]
	assert.True(t, cupo.IsNumeric())
	assert.Equal(t, 20.0, cupo.Lo)
	assert.Equal(t, 100.0, cupo.Hi)
}

func TestBuildPageSearchAndEmpty(t *testing.T) {
	v := View{Key: "eventos", Label: "Eventos", Filters: []string{"nombre_evento"}}
	page := BuildPage(v, eventsTable(t), url.Values{"q": {"AUDITORIO"}})
	assert.Equal(t, 1, page.Stats.Filtered)

	page = BuildPage(v, table.Empty(), url.Values{})
	assert.Equal(t, 0, page.Stats.Total)
	assert.Equal(t, "N/A (No hay columna de fecha)", LatestText(page.Stats))
	assert.Empty(t, page.Fields)
	assert.Equal(t, []string{"No hay datos de Eventos disponibles o hubo un error al cargarlos."}, page.Warnings)
}

func TestBuildEVDefaults(t *testing.T) {
	ev := BuildEV(evTable(t), url.Values{}, CatalogFor("en", ""))

	// lugares ordenados: Bogotá, Cali, Medellín, Pereira; marcas: BYD, Kia, Nissan, Renault, Tesla
	lugar, _ := ev.Query.Criterion(colLugar)
	assert.Equal(t, []string{"Bogotá", "Cali", "Medellín"}, lugar.Values.Values())
	marca, _ := ev.Query.Criterion(colMarca)
	assert.Equal(t, []string{"BYD", "Kia", "Nissan"}, marca.Values.Values())

	// BYD/Medellín, Nissan/Cali, Kia/Cali
	assert.Equal(t, 3, ev.Count)
	require.NotNil(t, ev.AvgAutonomy)
	assert.Equal(t, 350.0, *ev.AvgAutonomy)
	require.NotNil(t, ev.AvgAge)
	assert.Equal(t, 34.3, *ev.AvgAge)
	assert.Equal(t, []table.Group{{Key: "BYD", Value: 400}, {Key: "Kia", Value: 380}, {Key: "Nissan", Value: 270}}, ev.Autonomy)
	assert.Equal(t, "BYD", ev.TopBrand)
	assert.Len(t, ev.Ages, ageBins)
	assert.Equal(t, []table.Group{{Key: "2023-01", Value: 1}, {Key: "2023-02", Value: 1}, {Key: "2023-03", Value: 1}}, ev.Monthly)

	require.Len(t, ev.Fields, len(evFilters))
	assert.Equal(t, "Select Location(s)", ev.Fields[0].Label)
	assert.True(t, ev.Fields[5].All)
}

func TestBuildEVSelections(t *testing.T) {
	tb := evTable(t)

	all := url.Values{"set.lugar_registro": {"1"}, "set.marca_auto": {"1"}}
	for _, l := range []string{"Bogotá", "Cali", "Medellín", "Pereira"} {
		all.Add("f.lugar_registro", l)
	}
	for _, m := range []string{"BYD", "Kia", "Nissan", "Renault", "Tesla"} {
		all.Add("f.marca_auto", m)
	}
	ev := BuildEV(tb, all, CatalogFor("es", ""))
	assert.Equal(t, 6, ev.Count)
	assert.Equal(t, "Tesla", ev.TopBrand)
	assert.Equal(t, "Edad Promedio", ev.Text.AgeMetric)

	all.Set("min.autonomia_km", "400")
	ev = BuildEV(tb, all, CatalogFor("es", ""))
	assert.Equal(t, 3, ev.Count)

	// multiselección enviada sen nada marcado
	empty := url.Values{"set.marca_auto": {"1"}}
	ev = BuildEV(tb, empty, CatalogFor("es", ""))
	assert.Equal(t, 0, ev.Count)
	assert.Nil(t, ev.AvgAutonomy)
	assert.Empty(t, ev.TopBrand)
	assert.Empty(t, ev.Brands)
}

func TestFactParts(t *testing.T) {
	before, after := EV{Text: CatalogFor("en", "")}.FactParts()
	assert.Equal(t, "The most popular car brand in the filtered dataset is ", before)
	assert.True(t, strings.HasPrefix(after, ", reflecting"))
}

func TestCatalogFor(t *testing.T) {
	assert.Equal(t, "es", CatalogFor("es", "").Lang)
	assert.Equal(t, "es", CatalogFor("", "es-CO,es;q=0.9,en;q=0.5").Lang)
	assert.Equal(t, "en", CatalogFor("en", "es-CO").Lang)
	assert.Equal(t, "en", CatalogFor("", "").Lang)
	assert.Equal(t, "en", CatalogFor("fr", "").Lang)
}

func TestGuide(t *testing.T) {
	g := TheGuide()
	assert.Len(t, g.Filters, 7)
	assert.Len(t, g.Columns, 8)
	assert.Len(t, g.Visuals, 6)
	assert.Equal(t, colFecha, g.Columns[0].Name)
}
