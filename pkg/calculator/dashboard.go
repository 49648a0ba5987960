package calculator

import (
	"fmt"
	"sort"

	"return-insight/pkg/charts"
	"return-insight/pkg/dataset"
	"return-insight/pkg/models"
)

// TopN est la taille du classement des produits les plus retournés.
const TopN = 10

const (
	PieTitle = "Overall Return Rate"
	BarTitle = "Most Returned Products"
)

type Direction string

const (
	Descending Direction = "desc"
	Ascending  Direction = "asc"
)

// ParseDirection("asc"|"desc"|"") ; vide = décroissant.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", Descending:
		return Descending, nil
	case Ascending:
		return Ascending, nil
	}
	return "", fmt.Errorf("sort direction invalide %q (asc|desc)", s)
}

// Dashboard est le résultat calculé pour une vue filtrée.
type Dashboard struct {
	Rows       int                     `json:"rows"`
	HasData    bool                    `json:"has_data"`
	ReturnRate float64                 `json:"return_rate"`
	Top        []models.ProductReturns `json:"top_products"`
	Pie        charts.Spec             `json:"pie"`
	Bar        charts.Spec             `json:"bar"`
}

// Run calcule taux de retour et classement sur la vue, puis construit les deux graphiques.
func Run(f *dataset.Frame, dir Direction) Dashboard {
	d := Dashboard{Rows: f.Len()}
	rate, ok := ReturnRate(f)
	if !ok {
		d.Pie = charts.NoData(charts.KindPie, PieTitle)
		d.Bar = charts.NoData(charts.KindBar, BarTitle)
		return d
	}
	d.HasData = true
	d.ReturnRate = rate
	d.Pie = PieChart(rate)
	d.Top = TopReturned(f, TopN)
	d.Bar = BarChart(d.Top, dir)
	return d
}

// ReturnRate = moyenne de Returned. ok=false si la vue est vide (moyenne indéfinie).
func ReturnRate(f *dataset.Frame) (float64, bool) {
	rows := f.Rows()
	if len(rows) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range rows {
		sum += r.Returned
	}
	return float64(sum) / float64(len(rows)), true
}

// TopReturned somme Returned par produit, trie par somme décroissante et garde les n premiers.
// Tri stable : à égalité, l'ordre de première apparition est conservé.
func TopReturned(f *dataset.Frame, n int) []models.ProductReturns {
	pos := map[string]int{}
	var out []models.ProductReturns
	for _, r := range f.Rows() {
		i, ok := pos[r.Product]
		if !ok {
			i = len(out)
			pos[r.Product] = i
			out = append(out, models.ProductReturns{Product: r.Product})
		}
		out[i].Returned += r.Returned
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Returned > out[b].Returned })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Sorted réordonne un classement déjà calculé, sans le recalculer.
func Sorted(top []models.ProductReturns, dir Direction) []models.ProductReturns {
	out := append([]models.ProductReturns(nil), top...)
	sort.SliceStable(out, func(a, b int) bool {
		if dir == Ascending {
			return out[a].Returned < out[b].Returned
		}
		return out[a].Returned > out[b].Returned
	})
	return out
}

// PieChart : deux parts (Returned / Not Returned) de somme 1.
func PieChart(rate float64) charts.Spec {
	return charts.Pie(PieTitle, []charts.Point{
		{Label: "Returned", Value: rate},
		{Label: "Not Returned", Value: 1 - rate},
	})
}

// BarChart construit le graphique du classement dans le sens demandé, menu de tri inclus.
func BarChart(top []models.ProductReturns, dir Direction) charts.Spec {
	if len(top) == 0 {
		return charts.NoData(charts.KindBar, BarTitle)
	}
	menu := []charts.SortButton{
		{Label: "Sort Descending", Direction: string(Descending), Points: points(Sorted(top, Descending))},
		{Label: "Sort Ascending", Direction: string(Ascending), Points: points(Sorted(top, Ascending))},
	}
	return charts.Bar(BarTitle, "Returned", "Product", points(Sorted(top, dir)), menu)
}

func points(top []models.ProductReturns) []charts.Point {
	out := make([]charts.Point, len(top))
	for i, p := range top {
		out[i] = charts.Point{Label: p.Product, Value: float64(p.Returned)}
	}
	return out
}
