package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tereborace.com/taboleiro/internal/table"
)

// ==== utilidades ====

// nome do ficheiro exportado: <vista>_<AAAAMMDD_HHMMSS>.<ext>, sen acentos
func exportName(label string, now time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", safeFile(table.Fold(label)), now.Format("20060102_150405"), ext)
}

func safeFile(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == '.' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, s)
	if s == "" {
		s = "export"
	}
	return s
}

// 350 -> "350", 34.26 -> "34.3"
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 1, 64)
}

// páxinas de perPage filas; page fóra de rango axústase
func pageBounds(total, page, perPage int) (from, to, current, pages int) {
	pages = max(1, (total+perPage-1)/perPage)
	current = min(max(page, 1), pages)
	from = (current - 1) * perPage
	to = min(from+perPage, total)
	return from, to, current, pages
}

// filas como texto para as plantillas e a API
func cellTexts(t *table.Table) [][]string {
	cols := t.Columns()
	out := make([][]string, t.Len())
	for i := range out {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.Text(i)
		}
		out[i] = row
	}
	return out
}

func rowMaps(t *table.Table) []map[string]string {
	cols := t.Columns()
	out := make([]map[string]string, t.Len())
	for i := range out {
		m := make(map[string]string, len(cols))
		for _, c := range cols {
			m[c.Name] = c.Text(i)
		}
		out[i] = m
	}
	return out
}
