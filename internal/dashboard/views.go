// Package dashboard turns loaded tables into the pages of the application:
// the school events viewer, the electric vehicle dashboard and the guide.
package dashboard

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// View is one table of the school events viewer.
type View struct {
	Key     string
	Label   string
	Source  string
	Filters []string
}

var views = []View{
	{"estudiantes", "Estudiantes", "estudiantes",
		[]string{"nombre", "apellido", "correo", "carrera", "semestre", "grado", "grupo", "fechaNacimiento"}},
	{"eventos", "Eventos", "eventos",
		[]string{"nombre_evento", "fecha_evento", "ubicacion", "id_categoria_evento", "cupo_maximo", "fecha_inicio", "fecha_fin", "categoria_evento"}},
	{"profesores", "Profesores", "profesores",
		[]string{"nombre", "apellido", "email", "departamento", "especialidad"}},
	{"asistencia", "Asistencia a Eventos", "asistenciaeventos",
		[]string{"id_evento", "id_participante", "fecha_asistencia"}},
	{"categorias", "Categoria de Evento", "categoriaevento",
		[]string{"nombre_categoria", "descripcion"}},
	{"participantes", "Participantes", "participantes",
		[]string{"id_evento", "id_estudiante", "rol", "fecha_registro"}},
}

// Views returns the viewer tables in menu order.
func Views() []View {
	out := make([]View, len(views))
	copy(out, views)
	return out
}

// Lookup finds a view by key.
func Lookup(key string) (View, bool) {
	for _, v := range views {
		if v.Key == key {
			return v, true
		}
	}
	return View{}, false
}

// ExtraView exposes a source that is not part of the stock catalog, such as
// a SQLite table. Every column gets a filter.
func ExtraView(source string, columns []string) View {
	return View{Key: source, Label: Humanize(source), Source: source, Filters: columns}
}

// Humanize turns a column or table name into a title: "fecha_evento"
// becomes "Fecha Evento".
func Humanize(name string) string {
	// un Caser non se pode compartir entre goroutines
	return cases.Title(language.Spanish).String(strings.ReplaceAll(name, "_", " "))
}
