package main

import (
	"net/http"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"tereborace.com/taboleiro/internal/config"
	"tereborace.com/taboleiro/internal/dashboard"
	"tereborace.com/taboleiro/internal/table"
)

// ==== API JSON ====

type apiColumn struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type apiSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func newSeries(labels []string, values []float64) apiSeries {
	return apiSeries{Labels: labels, Values: values}
}

// /api/table/{view}: mesma consulta que /table/{view}, filas como texto
func (s *server) handleAPITable(w http.ResponseWriter, r *http.Request) {
	lv, ok := s.loadView(r.Context(), r.PathValue("view"))
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown view"})
		return
	}
	values := r.URL.Query()
	page := dashboard.BuildPage(lv.View, lv.Table, values)
	n, _ := strconv.Atoi(values.Get("page"))
	from, to, current, pages := pageBounds(page.Rows.Len(), n, s.perPage)

	var loadErr string
	if lv.Err != nil {
		loadErr = lv.Err.Error()
	}
	chartBy := values.Get("chartBy")
	labels, counts := chartSeries(page.Rows, chartBy)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"view":     lv.View.Key,
		"label":    lv.View.Label,
		"columns":  apiColumns(page.Rows),
		"rows":     rowMaps(page.Rows.Slice(from, to)),
		"total":    page.Stats.Total,
		"filtered": page.Stats.Filtered,
		"latest":   dashboard.LatestText(page.Stats),
		"page":     current,
		"pages":    pages,
		"perPage":  s.perPage,
		"order":    page.Query.Order,
		"desc":     page.Query.Desc,
		"query":    page.Query.Encode(),
		"warnings": page.Warnings,
		"error":    loadErr,
		"chartBy":  chartBy,
		"chart":    newSeries(labels, counts),
	})
}

// /api/ev: métricas e series do taboleiro de autos eléctricos
func (s *server) handleAPIEV(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	text := dashboard.CatalogFor(values.Get("lang"), r.Header.Get("Accept-Language"))
	t, err := s.reg.Load(r.Context(), config.EVSourceName)
	ev := dashboard.BuildEV(t, values, text)

	var loadErr, fact string
	if err != nil {
		loadErr = err.Error()
	}
	if ev.TopBrand != "" {
		before, after := ev.FactParts()
		fact = before + ev.TopBrand + after
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"lang":        text.Lang,
		"query":       ev.Query.Encode(),
		"count":       ev.Count,
		"avgAutonomy": ev.AvgAutonomy,
		"avgAge":      ev.AvgAge,
		"topBrand":    ev.TopBrand,
		"fact":        fact,
		"brands":      newSeries(groupSeries(ev.Brands)),
		"ages":        newSeries(binSeries(ev.Ages)),
		"autonomy":    newSeries(groupSeries(ev.Autonomy)),
		"monthly":     newSeries(groupSeries(ev.Monthly)),
		"warnings":    ev.Warnings,
		"error":       loadErr,
	})
}

type chatRequest struct {
	Question string `json:"question"`
}

// /api/chat: {"question": "..."} -> {"answer": "..."}
func (s *server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := gojson.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}
	answer, status := s.ask(r.Context(), strings.TrimSpace(req.Question))
	if status != http.StatusOK {
		s.writeJSON(w, status, map[string]any{"error": answer})
		return
	}
	s.writeJSON(w, status, map[string]any{"answer": answer})
}

func apiColumns(t *table.Table) []apiColumn {
	out := make([]apiColumn, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		out = append(out, apiColumn{Name: c.Name, Kind: c.Kind.String()})
	}
	return out
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := gojson.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("json encode", zap.Error(err))
	}
}
