// Package predictor implémente le formulaire de prédiction de retour.
package predictor

import (
	"fmt"
	"math"
	"strings"

	"return-insight/pkg/encoding"
	"return-insight/pkg/models"
)

// Valeurs par défaut du formulaire.
const (
	DefaultPrice              = 50000.0
	DefaultQuantity           = 1
	DefaultDeliveryDays       = 15
	DefaultSatisfactionRating = 3
)

// DefaultInput retourne le formulaire pré-rempli : premier choix de chaque sélecteur.
func DefaultInput() models.OrderInput {
	return models.OrderInput{
		Product:            encoding.Products.Labels()[0],
		Category:           encoding.Categories.Labels()[0],
		Price:              DefaultPrice,
		Quantity:           DefaultQuantity,
		PaymentMethod:      encoding.PaymentMethods.Labels()[0],
		DeliveryDays:       DefaultDeliveryDays,
		SatisfactionRating: DefaultSatisfactionRating,
		Municipality:       encoding.Municipalities.Labels()[0],
	}
}

// RangeError signale un champ numérique hors de ses bornes. Max nil = pas de borne haute.
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   *float64
}

func (e *RangeError) Error() string {
	if e.Max != nil {
		return fmt.Sprintf("%s must be between %g and %g, got %g", e.Field, e.Min, *e.Max, e.Value)
	}
	return fmt.Sprintf("%s must be at least %g, got %g", e.Field, e.Min, e.Value)
}

// Validate vérifie les bornes des champs numériques.
func Validate(in models.OrderInput) error {
	maxRating := 5.0
	checks := []struct {
		field string
		value float64
		min   float64
		max   *float64
	}{
		{models.FieldPrice, in.Price, 0, nil},
		{models.FieldQuantity, float64(in.Quantity), 1, nil},
		{models.FieldDeliveryDays, float64(in.DeliveryDays), 0, nil},
		{models.FieldSatisfactionRating, float64(in.SatisfactionRating), 1, &maxRating},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value < c.min || (c.max != nil && c.value > *c.max) {
			return &RangeError{Field: c.field, Value: c.value, Min: c.min, Max: c.max}
		}
	}
	return nil
}

// BuildRecord assemble la ligne unique, clés dans l'ordre sémantique du formulaire.
func BuildRecord(in models.OrderInput, enc encoding.Encoded) models.Record {
	return models.Record{
		{Name: models.FieldProduct, Value: float64(enc.Product)},
		{Name: models.FieldCategory, Value: float64(enc.Category)},
		{Name: models.FieldPrice, Value: in.Price},
		{Name: models.FieldQuantity, Value: float64(in.Quantity)},
		{Name: models.FieldPaymentMethod, Value: float64(enc.PaymentMethod)},
		{Name: models.FieldDeliveryDays, Value: float64(in.DeliveryDays)},
		{Name: models.FieldSatisfactionRating, Value: float64(in.SatisfactionRating)},
		{Name: models.FieldMunicipality, Value: float64(enc.Municipality)},
	}
}

// SchemaMismatchError décrit la dérive entre le record construit et le modèle.
type SchemaMismatchError struct {
	Expected []string
	Provided []string
	Missing  []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("input columns do not match the model's expected features: missing [%s] (expected [%s], provided [%s])",
		strings.Join(e.Missing, ", "), strings.Join(e.Expected, ", "), strings.Join(e.Provided, ", "))
}

// Align sélectionne et réordonne les colonnes selon expected.
// Une colonne attendue absente donne une *SchemaMismatchError ; les colonnes en trop sont ignorées.
func Align(rec models.Record, expected []string) (models.Record, error) {
	var missing []string
	out := make(models.Record, 0, len(expected))
	for _, name := range expected {
		v, ok := rec.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		out = append(out, models.Feature{Name: name, Value: v})
	}
	if len(missing) > 0 {
		return nil, &SchemaMismatchError{
			Expected: append([]string(nil), expected...),
			Provided: rec.Names(),
			Missing:  missing,
		}
	}
	return out, nil
}
