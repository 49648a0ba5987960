// Package session porte l'état d'une session de tableau de bord : vue filtrée, sélection,
// classement calculé et sens de tri. Le dataset source est partagé en lecture seule.
package session

import (
	"sync"
	"time"

	"return-insight/pkg/calculator"
	"return-insight/pkg/dataset"
)

// Dashboard est le contexte d'une session. Ses méthodes sont sûres en concurrence.
type Dashboard struct {
	ID      string
	Started time.Time

	mu        sync.Mutex
	source    *dataset.Frame
	selected  []string
	direction calculator.Direction
	result    calculator.Dashboard
}

func newDashboard(id string, source *dataset.Frame, now time.Time) *Dashboard {
	d := &Dashboard{
		ID:        id,
		Started:   now,
		source:    source,
		selected:  source.Categories(),
		direction: calculator.Descending,
	}
	d.recompute()
	return d
}

// Source retourne le nom du dataset chargé.
func (d *Dashboard) Source() string { return d.source.Source }

// Filterable indique si la colonne Category existe.
func (d *Dashboard) Filterable() bool { return d.source.HasCategory }

// Categories retourne toutes les catégories observées (options du filtre).
func (d *Dashboard) Categories() []string { return d.source.Categories() }

// Selected retourne la sélection courante.
func (d *Dashboard) Selected() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.selected...)
}

// Direction retourne le sens de tri courant.
func (d *Dashboard) Direction() calculator.Direction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.direction
}

// ApplyFilter change la sélection et recalcule taux et classement.
// Sans colonne Category, la sélection est ignorée.
func (d *Dashboard) ApplyFilter(selected []string) calculator.Dashboard {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.source.HasCategory {
		d.selected = append([]string(nil), selected...)
	}
	d.recompute()
	return d.result
}

// SetDirection réordonne le top déjà calculé, sans recalculer le classement.
func (d *Dashboard) SetDirection(dir calculator.Direction) calculator.Dashboard {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.direction = dir
	if d.result.HasData {
		d.result.Bar = calculator.BarChart(d.result.Top, dir)
	}
	return d.result
}

// Result retourne le dernier résultat calculé.
func (d *Dashboard) Result() calculator.Dashboard {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.result
}

func (d *Dashboard) recompute() {
	view := d.source.Filter(d.selected)
	d.result = calculator.Run(view, d.direction)
}
