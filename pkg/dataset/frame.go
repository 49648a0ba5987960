// Package dataset charge l'historique des ventes utilisé par le tableau de bord.
package dataset

import (
	"fmt"

	"return-insight/pkg/models"
)

// Colonnes lues dans le fichier. Category est optionnelle.
const (
	ColumnCategory = "Category"
	ColumnProduct  = "Product"
	ColumnReturned = "Returned"
)

// DataLoadError signale un dataset absent ou illisible. La session s'arrête.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("%s could not be loaded: %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// Frame est une vue en lecture seule sur les lignes chargées.
type Frame struct {
	Source      string
	Columns     []string
	HasCategory bool
	rows        []models.SaleRow
}

// NewFrame construit une vue sur des lignes déjà décodées.
func NewFrame(source string, columns []string, rows []models.SaleRow) *Frame {
	f := &Frame{Source: source, Columns: append([]string(nil), columns...), rows: rows}
	for _, c := range columns {
		if c == ColumnCategory {
			f.HasCategory = true
			break
		}
	}
	return f
}

func (f *Frame) Len() int { return len(f.rows) }

// Rows retourne une copie des lignes.
func (f *Frame) Rows() []models.SaleRow {
	return append([]models.SaleRow(nil), f.rows...)
}

// Categories retourne les catégories distinctes dans l'ordre de première apparition.
func (f *Frame) Categories() []string {
	if !f.HasCategory {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range f.rows {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}

// Filter garde les lignes dont la catégorie est sélectionnée, dans une nouvelle vue.
// Sans colonne Category, la vue est retournée telle quelle.
func (f *Frame) Filter(selected []string) *Frame {
	if !f.HasCategory {
		return f
	}
	keep := make(map[string]bool, len(selected))
	for _, s := range selected {
		keep[s] = true
	}
	rows := make([]models.SaleRow, 0, len(f.rows))
	for _, r := range f.rows {
		if keep[r.Category] {
			rows = append(rows, r)
		}
	}
	return &Frame{Source: f.Source, Columns: f.Columns, HasCategory: true, rows: rows}
}
