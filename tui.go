package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tereborace.com/taboleiro/internal/dashboard"
	"tereborace.com/taboleiro/internal/source"
	"tereborace.com/taboleiro/internal/table"
)

// ==== Modo TUI (Bubble Tea) ====

type tuiModel struct {
	ctx     context.Context
	reg     *source.Registry
	list    list.Model
	view    dashboard.View
	src     *table.Table // táboa sen filtrar
	page    dashboard.Page
	q       string
	order   string
	desc    bool
	pageNo  int
	perPage int
	chartBy string
	input   textinput.Model
	status  string
	focus   int // 0=list, 1=busca
}

// resultado da carga dunha vista
type loadedMsg struct {
	view loadedView
}

func initialTUI(ctx context.Context, reg *source.Registry) tuiModel {
	views := allViews(reg)
	items := make([]list.Item, len(views))
	for i, v := range views {
		items[i] = listItem{key: v.Key, label: v.Label}
	}
	l := list.New(items, list.NewDefaultDelegate(), 24, 20)
	l.Title = "Tablas"
	in := textinput.New()
	in.Placeholder = "buscar... (/ para enfocar)"
	return tuiModel{ctx: ctx, reg: reg, list: l, src: table.Empty(), perPage: 20, pageNo: 1, input: in}
}

type listItem struct {
	key   string
	label string
}

func (i listItem) FilterValue() string { return i.label }
func (i listItem) Title() string       { return i.label }
func (i listItem) Description() string { return i.key }

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) load(key string) tea.Cmd {
	return func() tea.Msg {
		lv, ok := loadView(m.ctx, m.reg, key)
		if !ok {
			lv = loadedView{View: dashboard.View{Key: key, Label: key}, Table: table.Empty(), Err: fmt.Errorf("vista %q desconocida", key)}
		}
		return loadedMsg{view: lv}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.view, m.src = msg.view.View, msg.view.Table
		m.status = fmt.Sprintf("%d filas", m.src.Len())
		if msg.view.Err != nil {
			m.status = msg.view.Err.Error()
		}
		if _, ok := m.src.Column(m.order); !ok {
			m.order = ""
		}
		if _, ok := m.src.Column(m.chartBy); !ok {
			m.chartBy = ""
			if names := m.src.Names(); len(names) > 0 {
				m.chartBy = names[0]
			}
		}
		m.refilter()
		return m, nil
	case tea.KeyMsg:
		if m.focus == 1 {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "enter":
				m.focus = 0
				m.input.Blur()
				return m, nil
			}
			// busca local sobre a táboa xa cargada
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			m.q = m.input.Value()
			m.pageNo = 1
			m.refilter()
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "Q":
			return m, tea.Quit
		case "/":
			m.focus = 1
			m.input.Focus()
			return m, textinput.Blink
		case "enter":
			if it, ok := m.list.SelectedItem().(listItem); ok {
				m.pageNo = 1
				m.status = "cargando " + it.label + "…"
				return m, m.load(it.key)
			}
		case "R": // refrescar fontes
			m.reg.Refresh()
			if m.view.Key != "" {
				m.status = "refrescando…"
				return m, m.load(m.view.Key)
			}
		case "E": // export CSV
			m.status = exportStatus(m.exportFile("csv", table.WriteCSV))
			return m, nil
		case "X": // export XLSX
			m.status = exportStatus(m.exportFile("xlsx", table.WriteXLSX))
			return m, nil
		case "C": // cycle chart column
			m.chartBy = nextName(m.src.Names(), m.chartBy)
			return m, nil
		case "N":
			m.pageNo++
			m.refilter()
			return m, nil
		case "P":
			if m.pageNo > 1 {
				m.pageNo--
			}
			m.refilter()
			return m, nil
		case "O": // cycle order by
			m.order = nextName(m.src.Names(), m.order)
			m.refilter()
			return m, nil
		case "D":
			m.desc = !m.desc
			m.refilter()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width/3, msg.Height-5)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// aplica busca e orde co mesmo motor que a web
func (m *tuiModel) refilter() {
	v := url.Values{}
	if m.q != "" {
		v.Set("q", m.q)
	}
	if m.order != "" {
		v.Set("order", m.order)
		if m.desc {
			v.Set("dir", "desc")
		}
	}
	m.page = dashboard.BuildPage(m.view, m.src, v)
	_, _, m.pageNo, _ = pageBounds(m.page.Rows.Len(), m.pageNo, m.perPage)
}

func (m tuiModel) View() string {
	left := lipgloss.NewStyle().Width(30).Render(m.list.View())
	rightSB := strings.Builder{}
	fmt.Fprintf(&rightSB, "Tabla: %s\n", m.view.Label)
	fmt.Fprintf(&rightSB, "Buscar [/]: %s\n", m.input.View())
	if m.page.Rows != nil {
		_, _, cur, pages := pageBounds(m.page.Rows.Len(), m.pageNo, m.perPage)
		fmt.Fprintf(&rightSB, "Total: %d · Filtrados: %d · Fecha más reciente: %s\n",
			m.page.Stats.Total, m.page.Stats.Filtered, dashboard.LatestText(m.page.Stats))
		fmt.Fprintf(&rightSB, "Orden [O]: %s %s  · Pág [N/P]: %d/%d\n", m.order, map[bool]string{true: "DESC", false: "ASC"}[m.desc], cur, pages)
		fmt.Fprintf(&rightSB, "%s\n\n", m.renderRows(10))
	}
	if m.chartBy != "" {
		fmt.Fprintf(&rightSB, "Histograma [C] por %s\n%s\n", m.chartBy, m.renderHistogram())
	}
	fmt.Fprintf(&rightSB, "[enter] abrir  [E] CSV  [X] XLSX  [D] asc/desc  [R] refrescar  [Q] salir\n")
	fmt.Fprintf(&rightSB, "%s", m.status)
	right := lipgloss.NewStyle().Width(80).Render(rightSB.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m *tuiModel) renderRows(maxLines int) string {
	if len(m.page.Rows.Columns()) == 0 {
		return "(sin columnas)"
	}
	from, to, _, _ := pageBounds(m.page.Rows.Len(), m.pageNo, m.perPage)
	visible := m.page.Rows.Slice(from, min(to, from+maxLines))

	lines := []string{strings.Join(visible.Names(), " | ")}
	lines = append(lines, strings.Repeat("-", len(lines[0])))
	for _, row := range cellTexts(visible) {
		for j, v := range row {
			if r := []rune(v); len(r) > 30 {
				row[j] = string(r[:27]) + "…"
			}
		}
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}

func (m *tuiModel) renderHistogram() string {
	if m.page.Rows == nil {
		return ""
	}
	labels, counts := chartSeries(m.page.Rows, m.chartBy)
	if len(labels) == 0 {
		return "(sin datos)"
	}
	labels, counts = labels[:min(len(labels), 20)], counts[:min(len(counts), 20)]
	maxc := 0.0
	for _, c := range counts {
		maxc = max(maxc, c)
	}
	maxBar := 40
	b := strings.Builder{}
	for i := range labels {
		n := 0
		if maxc > 0 {
			n = int(counts[i] / maxc * float64(maxBar))
		}
		bar := strings.Repeat("█", n)
		lab := labels[i]
		if lab == "" {
			lab = "(NULL)"
		}
		if r := []rune(lab); len(r) > 18 {
			lab = string(r[:15]) + "…"
		}
		fmt.Fprintf(&b, "%-18s | %-*s %s\n", lab, maxBar, bar, formatNumber(counts[i]))
	}
	return b.String()
}

// garda a vista filtrada enteira no directorio actual
func (m *tuiModel) exportFile(ext string, write func(io.Writer, *table.Table) error) (string, error) {
	if m.page.Rows == nil {
		return "", errors.New("sin tabla")
	}
	fn := exportName(m.view.Label, time.Now(), ext)
	f, err := os.Create(fn)
	if err != nil {
		return "", err
	}
	if err := write(f, m.page.Rows); err != nil {
		f.Close()
		return "", err
	}
	return fn, f.Close()
}

func exportStatus(fn string, err error) string {
	if err != nil {
		return err.Error()
	}
	return "Exportado " + fn
}

// seguinte nome en ciclo; "" ou descoñecido -> o primeiro
func nextName(names []string, cur string) string {
	if len(names) == 0 {
		return ""
	}
	for i, n := range names {
		if n == cur {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
