package dashboard

// Item is a name with its description.
type Item struct {
	Name string
	Desc string
}

// Guide is the help page of the electric vehicle dashboard.
type Guide struct {
	Title    string
	Question string
	Answer   string

	FiltersHeader string
	Filters       []Item

	ColumnsHeader string
	Columns       []Item

	VisualsHeader string
	Visuals       []Item

	Tip string
}

// TheGuide returns the guide content.
func TheGuide() Guide {
	return Guide{
		Title:    "Guía del Dashboard de Autos Eléctricos 🚗⚡",
		Question: "¿Qué es este Dashboard?",
		Answer:   "Es una herramienta interactiva que te permite explorar los registros de autos eléctricos mediante gráficos y filtros personalizados.",

		FiltersHeader: "Filtros disponibles",
		Filters: []Item{
			{"Lugar de registro", "Ciudad o región donde se registró el auto."},
			{"Marca de auto", "Selecciona una o varias marcas."},
			{"Año del modelo", "Rango de años del modelo del auto."},
			{"Edad", "Rango de edad del propietario."},
			{"Autonomía (km)", "Rango de autonomía máxima del auto."},
			{"Tipo de carga", "Tipo de carga compatible (rápida, lenta, etc.)."},
			{"Baterías recicladas", "Filtra autos que usan o no baterías recicladas."},
		},

		ColumnsHeader: "Columnas de la base de datos",
		Columns: []Item{
			{colFecha, "Fecha de registro del auto (datetime)"},
			{colLugar, "Ciudad/región del registro (texto)"},
			{colMarca, "Marca del auto eléctrico (texto)"},
			{colAnio, "Año del modelo (entero)"},
			{colEdad, "Edad del propietario (entero)"},
			{colAuton, "Autonomía máxima (km) (número)"},
			{colCarga, "Tipo de carga compatible (texto)"},
			{colBaterias, "¿Usa baterías recicladas? (Sí/No)"},
		},

		VisualsHeader: "¿Qué puedes visualizar?",
		Visuals: []Item{
			{"Métricas clave", "Total de registros, autonomía promedio y edad promedio."},
			{"Gráfica de pastel", "Distribución de registros por marca."},
			{"Histograma", "Distribución de la edad de propietarios."},
			{"Barras", "Autonomía promedio por marca."},
			{"Línea", "Evolución de registros en el tiempo."},
			{"Tabla", "Datos filtrados en detalle."},
		},

		Tip: "¡Explora los filtros y descubre tendencias interesantes del mercado de autos eléctricos!",
	}
}
