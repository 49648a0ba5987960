package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"math"
	"slices"

	"return-insight/pkg/charts"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

type renderer struct {
	templates *template.Template
}

func newRenderer() (*renderer, error) {
	funcs := template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) },
		"share": func(v, total float64) string {
			if total == 0 {
				return "0.00%"
			}
			return fmt.Sprintf("%.2f%%", v/total*100)
		},
		// largeur d'une barre en % de la plus grande
		"barWidth": func(v, maxV float64) int {
			if maxV <= 0 {
				return 0
			}
			return int(math.Round(v / maxV * 100))
		},
		"contains": func(list []string, s string) bool { return slices.Contains(list, s) },
		"json": func(v any) (template.JS, error) {
			raw, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return template.JS(raw), nil
		},
		"isPie": func(s charts.Spec) bool { return s.Kind == charts.KindPie },
	}
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &renderer{templates: t}, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
