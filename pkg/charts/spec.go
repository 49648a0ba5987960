// Package charts décrit les graphiques du tableau de bord comme des valeurs déclaratives.
//
// Une Spec est construite une fois puis passée à un rendu (HTML/JSON côté serveur,
// texte côté terminal). Aucun rendu ne la modifie.
package charts

type Kind string

const (
	KindPie Kind = "pie"
	KindBar Kind = "bar"
)

// NoDataMessage est affiché à la place d'un graphique sans données.
const NoDataMessage = "No data available for the selected filters."

// Point est une valeur étiquetée d'une série.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// SortButton est une entrée du menu de tri : la série déjà ordonnée pour ce sens.
type SortButton struct {
	Label     string  `json:"label"`
	Direction string  `json:"direction"`
	Points    []Point `json:"points"`
}

// Layout porte les options de présentation.
type Layout struct {
	HoverMode   string       `json:"hovermode,omitempty"`
	DragMode    string       `json:"dragmode,omitempty"`
	Template    string       `json:"template,omitempty"`
	Hole        float64      `json:"hole,omitempty"`
	Orientation string       `json:"orientation,omitempty"`
	XTitle      string       `json:"x_title,omitempty"`
	YTitle      string       `json:"y_title,omitempty"`
	SortMenu    []SortButton `json:"sort_menu,omitempty"`
}

// Spec décrit un graphique complet.
type Spec struct {
	Kind   Kind    `json:"kind"`
	Title  string  `json:"title"`
	Points []Point `json:"points"`
	Layout Layout  `json:"layout"`
	// Empty : rendre l'état "pas de données" au lieu du graphique.
	Empty bool `json:"empty"`
}

// interactive applique les options communes aux deux graphiques.
func interactive(l Layout) Layout {
	l.HoverMode = "x unified"
	l.DragMode = "zoom"
	l.Template = "plotly_white"
	return l
}

// Pie construit un graphique en anneau.
func Pie(title string, points []Point) Spec {
	return Spec{
		Kind:   KindPie,
		Title:  title,
		Points: points,
		Layout: interactive(Layout{Hole: 0.4}),
	}
}

// Bar construit un graphique à barres horizontales avec son menu de tri.
func Bar(title, xTitle, yTitle string, points []Point, menu []SortButton) Spec {
	return Spec{
		Kind:   KindBar,
		Title:  title,
		Points: points,
		Layout: interactive(Layout{Orientation: "h", XTitle: xTitle, YTitle: yTitle, SortMenu: menu}),
	}
}

// NoData retourne une Spec vide du type demandé.
func NoData(kind Kind, title string) Spec {
	return Spec{Kind: kind, Title: title, Empty: true, Layout: interactive(Layout{})}
}

// Total retourne la somme des valeurs de la série.
func (s Spec) Total() float64 {
	t := 0.0
	for _, p := range s.Points {
		t += p.Value
	}
	return t
}

// Max retourne la plus grande valeur de la série (0 si vide).
func (s Spec) Max() float64 {
	m := 0.0
	for _, p := range s.Points {
		if p.Value > m {
			m = p.Value
		}
	}
	return m
}
