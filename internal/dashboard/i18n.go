package dashboard

import (
	"golang.org/x/text/language"
)

// Catalog holds the texts of the electric vehicle dashboard in one language.
type Catalog struct {
	Lang         string
	Title        string
	Intro        string
	FilterHeader string
	Apply        string
	Labels       map[string]string

	TotalMetric    string
	AutonomyMetric string
	AgeMetric      string

	VisualsHeader string
	PieTitle      string
	HistTitle     string
	HistX, HistY  string
	BarTitle      string
	BarX, BarY    string
	LineTitle     string
	LineX, LineY  string

	TableHeader string
	FactHeader  string
	// Fact takes the brand name.
	Fact    string
	NoFact  string
	NoValue string
}

var english = Catalog{
	Lang:         "en",
	Title:        "Electric Car Registry Dashboard",
	Intro:        "Explore and analyze electric car registrations with interactive filters and visualizations.",
	FilterHeader: "Filter Options",
	Apply:        "Apply",
	Labels: map[string]string{
		colLugar:    "Select Location(s)",
		colMarca:    "Select Car Brand(s)",
		colAnio:     "Select Model Year Range",
		colEdad:     "Select Age Range",
		colAuton:    "Select Autonomy Range (km)",
		colCarga:    "Select Charging Type(s)",
		colBaterias: "Recycled Batteries",
	},
	TotalMetric:    "Total Registrations",
	AutonomyMetric: "Average Autonomy (km)",
	AgeMetric:      "Average Age",
	VisualsHeader:  "Data Visualizations",
	PieTitle:       "Distribution of Car Brands",
	HistTitle:      "Age Distribution of Owners",
	HistX:          "Age",
	HistY:          "Count",
	BarTitle:       "Average Autonomy by Brand",
	BarX:           "Brand",
	BarY:           "Average Autonomy (km)",
	LineTitle:      "Registrations Over Time",
	LineX:          "Year-Month",
	LineY:          "Number of Registrations",
	TableHeader:    "Filtered Data Table",
	FactHeader:     "Interesting Fact",
	Fact:           "The most popular car brand in the filtered dataset is %s, reflecting its strong presence in the electric vehicle market in the selected regions!",
	NoFact:         "No registrations match the selected filters.",
	NoValue:        "N/A",
}

var spanish = Catalog{
	Lang:         "es",
	Title:        "Tablero de Registro de Carros Eléctricos",
	Intro:        "Explora y analiza los registros de carros eléctricos con filtros y visualizaciones interactivas.",
	FilterHeader: "Opciones de Filtro",
	Apply:        "Aplicar",
	Labels: map[string]string{
		colLugar:    "Selecciona Lugar(es)",
		colMarca:    "Selecciona Marca(s) de Auto",
		colAnio:     "Selecciona Rango de Año de Modelo",
		colEdad:     "Selecciona Rango de Edad",
		colAuton:    "Selecciona Rango de Autonomía (km)",
		colCarga:    "Selecciona Tipo(s) de Carga",
		colBaterias: "Baterías Recicladas",
	},
	TotalMetric:    "Total de Registros",
	AutonomyMetric: "Autonomía Promedio (km)",
	AgeMetric:      "Edad Promedio",
	VisualsHeader:  "Visualizaciones de Datos",
	PieTitle:       "Distribución de marcas de autos eléctricos",
	HistTitle:      "Distribución de edades de los propietarios",
	HistX:          "Edad",
	HistY:          "Cantidad",
	BarTitle:       "Autonomía promedio por marca",
	BarX:           "Marca",
	BarY:           "Autonomía promedio (km)",
	LineTitle:      "Registros a lo largo del tiempo",
	LineX:          "Año-Mes",
	LineY:          "Número de registros",
	TableHeader:    "Tabla de Datos Filtrados",
	FactHeader:     "Dato Interesante",
	Fact:           "La marca de auto más popular en el conjunto de datos filtrado es %s, ¡lo que refleja su fuerte presencia en el mercado de vehículos eléctricos en las regiones seleccionadas!",
	NoFact:         "Ningún registro coincide con los filtros seleccionados.",
	NoValue:        "N/D",
}

// o primeiro é o idioma por defecto
var supported = []language.Tag{language.English, language.Spanish}

var catalogs = map[language.Tag]Catalog{
	language.English: english,
	language.Spanish: spanish,
}

var matcher = language.NewMatcher(supported)

// CatalogFor picks the catalog for an explicit lang parameter, falling back
// to the Accept-Language header and then to English.
func CatalogFor(lang, acceptLanguage string) Catalog {
	var prefs []language.Tag
	if lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
		prefs = append(prefs, tags...)
	}
	_, idx, _ := matcher.Match(prefs...)
	return catalogs[supported[idx]]
}
