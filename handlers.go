package main

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"tereborace.com/taboleiro/internal/config"
	"tereborace.com/taboleiro/internal/dashboard"
	"tereborace.com/taboleiro/internal/source"
	"tereborace.com/taboleiro/internal/table"
)

const (
	chatGreeting = "¡Anímate a preguntar! Estoy aquí para ayudarte con tus dudas sobre motos."
	chatEmpty    = "Por favor, ingresa una pregunta para que pueda ayudarte."
	chatFailure  = "Ups, algo salió mal: %s. Por favor, inténtalo de nuevo más tarde."

	chartLimit = 50 // categorías na gráfica da vista
	chartBins  = 20
)

type navItem struct {
	Href  string
	Label string
}

type hiddenField struct {
	Name  string
	Value string
}

type colHead struct {
	Name   string
	Kind   string
	Href   template.URL
	Sorted bool
	Desc   bool
}

// vista cargada: a táboa pode estar baleira se a fonte fallou
type loadedView struct {
	View  dashboard.View
	Table *table.Table
	Err   error
}

// handlers
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.gohtml", s.base(s.cfg.Cover.Title, map[string]any{
		"Cover": s.cfg.Cover,
	}))
}

func (s *server) handleTable(w http.ResponseWriter, r *http.Request) {
	lv, ok := s.loadView(r.Context(), r.PathValue("view"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	values := r.URL.Query()
	page := dashboard.BuildPage(lv.View, lv.Table, values)
	n, _ := strconv.Atoi(values.Get("page"))
	from, to, current, pages := pageBounds(page.Rows.Len(), n, s.perPage)
	visible := page.Rows.Slice(from, to)

	path := "/table/" + lv.View.Key
	state := page.Query.Values()
	chartBy := values.Get("chartBy")
	labels, counts := chartSeries(page.Rows, chartBy)
	if chartBy != "" {
		state.Set("chartBy", chartBy)
	}

	exportQuery := page.Query.Values()
	exportQuery.Set("view", lv.View.Key)

	s.render(w, "table.gohtml", s.base(lv.View.Label, map[string]any{
		"View":            lv.View,
		"LoadError":       loadMessage(lv),
		"Warnings":        page.Warnings,
		"Fields":          page.Fields,
		"Query":           page.Query,
		"Heads":           heads(path, state, page.Rows, page.Query),
		"Rows":            cellTexts(visible),
		"Total":           page.Stats.Total,
		"Filtered":        page.Stats.Filtered,
		"Latest":          dashboard.LatestText(page.Stats),
		"Page":            current,
		"Pages":           pages,
		"HasPrev":         current > 1,
		"HasNext":         current < pages,
		"PrevHref":        link(path, state, "page", strconv.Itoa(current-1)),
		"NextHref":        link(path, state, "page", strconv.Itoa(current+1)),
		"CSVHref":         link("/export/csv", exportQuery),
		"XLSXHref":        link("/export/xlsx", exportQuery),
		"Back":            path + "?" + state.Encode(),
		"Updated":         s.now().Format("2006-01-02 15:04:05"),
		"ChartBy":         chartBy,
		"ChartHidden":     hiddenFields(page.Query.Values()),
		"ChartLabelsJSON": jsJSON(labels),
		"ChartCountsJSON": jsJSON(counts),
	}))
}

func (s *server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	page, ok := s.exportPage(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportName(page.View.Label, s.now(), "csv")))
	if err := table.WriteCSV(w, page.Rows); err != nil {
		s.log.Error("csv export", zap.String("view", page.View.Key), zap.Error(err))
	}
}

func (s *server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	page, ok := s.exportPage(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := table.WriteXLSX(&buf, page.Rows); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportName(page.View.Label, s.now(), "xlsx")))
	_, _ = buf.WriteTo(w)
}

// export de toda a vista filtrada, sen páxina
func (s *server) exportPage(w http.ResponseWriter, r *http.Request) (dashboard.Page, bool) {
	key := r.URL.Query().Get("view")
	if key == "" {
		http.Error(w, "missing view", http.StatusBadRequest)
		return dashboard.Page{}, false
	}
	lv, ok := s.loadView(r.Context(), key)
	if !ok {
		http.NotFound(w, r)
		return dashboard.Page{}, false
	}
	return dashboard.BuildPage(lv.View, lv.Table, r.URL.Query()), true
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.reg.Refresh()
	back := r.FormValue("back")
	if !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") {
		back = "/"
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *server) handleEV(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	text := dashboard.CatalogFor(values.Get("lang"), r.Header.Get("Accept-Language"))
	t, err := s.reg.Load(r.Context(), config.EVSourceName)
	ev := dashboard.BuildEV(t, values, text)

	n, _ := strconv.Atoi(values.Get("page"))
	from, to, current, pages := pageBounds(ev.Rows.Len(), n, s.perPage)
	state := ev.Query.Values()
	state.Set("lang", text.Lang)

	brandLabels, brandCounts := groupSeries(ev.Brands)
	ageLabels, ageCounts := binSeries(ev.Ages)
	autLabels, autValues := groupSeries(ev.Autonomy)
	monthLabels, monthCounts := groupSeries(ev.Monthly)
	before, after := ev.FactParts()

	var loadErr string
	if err != nil {
		loadErr = fmt.Sprintf("No se pudieron cargar los datos de '%s': %v", config.EVSourceName, err)
	}

	s.render(w, "ev.gohtml", s.base(text.Title, map[string]any{
		"T":           text,
		"EV":          ev,
		"LoadError":   loadErr,
		"AvgAutonomy": optNumber(ev.AvgAutonomy, text.NoValue),
		"AvgAge":      optNumber(ev.AvgAge, text.NoValue),
		"FactBefore":  before,
		"FactAfter":   after,
		"Heads":       heads("/ev", state, ev.Rows, ev.Query),
		"Rows":        cellTexts(ev.Rows.Slice(from, to)),
		"Page":        current,
		"Pages":       pages,
		"HasPrev":     current > 1,
		"HasNext":     current < pages,
		"PrevHref":    link("/ev", state, "page", strconv.Itoa(current-1)),
		"NextHref":    link("/ev", state, "page", strconv.Itoa(current+1)),
		"EnHref":      link("/ev", state, "lang", "en"),
		"EsHref":      link("/ev", state, "lang", "es"),
		"Back":        "/ev?" + state.Encode(),

		"BrandLabelsJSON": jsJSON(brandLabels),
		"BrandCountsJSON": jsJSON(brandCounts),
		"AgeLabelsJSON":   jsJSON(ageLabels),
		"AgeCountsJSON":   jsJSON(ageCounts),
		"AutLabelsJSON":   jsJSON(autLabels),
		"AutValuesJSON":   jsJSON(autValues),
		"MonthLabelsJSON": jsJSON(monthLabels),
		"MonthCountsJSON": jsJSON(monthCounts),
	}))
}

func (s *server) handleGuide(w http.ResponseWriter, r *http.Request) {
	g := dashboard.TheGuide()
	s.render(w, "guide.gohtml", s.base(g.Title, map[string]any{"Guide": g}))
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Question": "", "Answer": chatGreeting}
	if r.Method == http.MethodPost {
		q := strings.TrimSpace(r.FormValue("question"))
		answer, _ := s.ask(r.Context(), q)
		data["Question"] = q
		data["Answer"] = answer
	}
	s.render(w, "chat.gohtml", s.base("Moto-Chat con Gemini", data))
}

// resposta do chat e o código HTTP para a API
func (s *server) ask(ctx context.Context, q string) (string, int) {
	if q == "" {
		return chatEmpty, http.StatusBadRequest
	}
	answer, err := s.llm.Ask(ctx, q)
	if err != nil {
		s.log.Warn("chat failed", zap.Error(err))
		return fmt.Sprintf(chatFailure, err.Error()), http.StatusBadGateway
	}
	return answer, http.StatusOK
}

// ==== vistas e fontes ====

// táboa do catálogo ou calquera outra fonte rexistrada (p.ex. SQLite)
func (s *server) loadView(ctx context.Context, key string) (loadedView, bool) {
	return loadView(ctx, s.reg, key)
}

func loadView(ctx context.Context, reg *source.Registry, key string) (loadedView, bool) {
	v, ok := dashboard.Lookup(key)
	if !ok {
		if !reg.Has(key) || reservedSource(key) {
			return loadedView{}, false
		}
		t, err := reg.Load(ctx, key)
		return loadedView{View: dashboard.ExtraView(key, t.Names()), Table: t, Err: err}, true
	}
	t, err := reg.Load(ctx, v.Source)
	return loadedView{View: v, Table: t, Err: err}, true
}

// fontes que xa teñen a súa propia páxina
func reservedSource(name string) bool {
	if name == config.EVSourceName {
		return true
	}
	for _, v := range dashboard.Views() {
		if v.Source == name {
			return true
		}
	}
	return false
}

// vistas do catálogo e despois as fontes extra
func allViews(reg *source.Registry) []dashboard.View {
	out := dashboard.Views()
	for _, name := range reg.Names() {
		if !reservedSource(name) {
			out = append(out, dashboard.ExtraView(name, nil))
		}
	}
	return out
}

func (s *server) nav() []navItem {
	var items []navItem
	for _, v := range allViews(s.reg) {
		items = append(items, navItem{Href: "/table/" + v.Key, Label: v.Label})
	}
	return items
}

func (s *server) base(title string, data map[string]any) map[string]any {
	data["Title"] = title
	data["Nav"] = s.nav()
	data["Footer"] = s.cfg.Cover.Footer
	return data
}

func (s *server) render(w http.ResponseWriter, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := s.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("template", zap.String("template", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func loadMessage(lv loadedView) string {
	if lv.Err == nil {
		return ""
	}
	return fmt.Sprintf("No se pudieron cargar los datos de '%s': %v", lv.View.Label, lv.Err)
}

// ==== ligazóns e gráficas ====

// path?state con pares clave/valor substituídos
func link(path string, state url.Values, kv ...string) template.URL {
	v := make(url.Values, len(state)+len(kv)/2)
	for k, vs := range state {
		v[k] = append([]string(nil), vs...)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	if len(v) == 0 {
		return template.URL(path)
	}
	return template.URL(path + "?" + v.Encode())
}

// estado da vista como campos ocultos dun formulario
func hiddenFields(v url.Values) []hiddenField {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []hiddenField
	for _, k := range keys {
		for _, val := range v[k] {
			out = append(out, hiddenField{Name: k, Value: val})
		}
	}
	return out
}

// cabeceiras con ligazón de orde; repetir a columna inverte a dirección
func heads(path string, state url.Values, t *table.Table, q dashboard.Query) []colHead {
	out := make([]colHead, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		h := colHead{Name: c.Name, Kind: c.Kind.String(), Sorted: q.Order == c.Name, Desc: q.Order == c.Name && q.Desc}
		dir := "asc"
		if h.Sorted && !h.Desc {
			dir = "desc"
		}
		h.Href = link(path, state, "order", c.Name, "dir", dir, "page", "1")
		out = append(out, h)
	}
	return out
}

// series da gráfica da vista segundo o tipo da columna
func chartSeries(t *table.Table, name string) ([]string, []float64) {
	col, ok := t.Column(name)
	if !ok {
		return []string{}, []float64{}
	}
	switch col.Kind {
	case table.Numeric:
		return binSeries(table.Histogram(col, chartBins))
	case table.Temporal:
		return groupSeries(table.MonthlyCounts(col))
	default:
		counts := table.ValueCounts(col)
		return groupSeries(counts[:min(len(counts), chartLimit)])
	}
}

func groupSeries(groups []table.Group) ([]string, []float64) {
	labels := make([]string, len(groups))
	values := make([]float64, len(groups))
	for i, g := range groups {
		labels[i], values[i] = g.Key, g.Value
	}
	return labels, values
}

func binSeries(bins []table.Bin) ([]string, []float64) {
	labels := make([]string, len(bins))
	values := make([]float64, len(bins))
	for i, b := range bins {
		labels[i] = formatNumber(b.Lo) + "-" + formatNumber(b.Hi)
		values[i] = float64(b.Count)
	}
	return labels, values
}

func jsJSON(v any) template.JS {
	b, err := gojson.Marshal(v)
	if err != nil {
		return template.JS("null")
	}
	return template.JS(b)
}

func optNumber(v *float64, none string) string {
	if v == nil {
		return none
	}
	return formatNumber(*v)
}
