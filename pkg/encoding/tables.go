// Package encoding contient les tables de correspondance libellé → code utilisées à l'entraînement.
package encoding

import (
	"fmt"

	"return-insight/pkg/models"
)

// Option est un choix proposé à l'utilisateur, avec son code d'entraînement.
type Option struct {
	Label string `json:"label"`
	Code  int    `json:"code"`
}

// Table est une correspondance immuable, ordonnée comme les sélecteurs du formulaire.
type Table struct {
	field   string
	options []Option
	index   map[string]int
}

func newTable(field string, labels ...string) Table {
	t := Table{field: field, index: make(map[string]int, len(labels))}
	for i, l := range labels {
		code := i + 1
		t.options = append(t.options, Option{Label: l, Code: code})
		t.index[l] = code
	}
	return t
}

// Les codes doivent rester identiques à ceux de l'entraînement du modèle.
var (
	Products       = newTable(models.FieldProduct, "Smartphone", "Monitor", "Laptop", "Headphones", "Smartwatch", "Tablet")
	Categories     = newTable(models.FieldCategory, "Phones", "Accessories", "Computers", "Wearables", "Tablets")
	PaymentMethods = newTable(models.FieldPaymentMethod, "Credit Card", "PayPal", "Cash", "Wire Transfer")
	Municipalities = newTable(models.FieldMunicipality, "Cocody", "Abobo", "Bingerville", "Marcory")
)

// Field retourne le nom de colonne encodé par la table.
func (t Table) Field() string { return t.field }

// Options retourne une copie des choix, dans l'ordre d'affichage.
func (t Table) Options() []Option {
	out := make([]Option, len(t.options))
	copy(out, t.options)
	return out
}

// Labels retourne les libellés dans l'ordre d'affichage.
func (t Table) Labels() []string {
	out := make([]string, len(t.options))
	for i, o := range t.options {
		out[i] = o.Label
	}
	return out
}

// Code retourne le code d'un libellé, ou une EncodingError s'il n'appartient pas à la table.
func (t Table) Code(label string) (int, error) {
	code, ok := t.index[label]
	if !ok {
		return 0, &EncodingError{Field: t.field, Value: label, Allowed: t.Labels()}
	}
	return code, nil
}

// EncodingError signale un libellé hors de l'ensemble énuméré.
type EncodingError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %s: unknown value %q (allowed: %v)", e.Field, e.Value, e.Allowed)
}

// Encoded regroupe les quatre codes catégoriels d'une commande.
type Encoded struct {
	Product       int
	Category      int
	PaymentMethod int
	Municipality  int
}

// Encode traduit les champs catégoriels d'une commande. La première erreur est retournée.
func Encode(in models.OrderInput) (Encoded, error) {
	var (
		out Encoded
		err error
	)
	if out.Product, err = Products.Code(in.Product); err != nil {
		return Encoded{}, err
	}
	if out.Category, err = Categories.Code(in.Category); err != nil {
		return Encoded{}, err
	}
	if out.PaymentMethod, err = PaymentMethods.Code(in.PaymentMethod); err != nil {
		return Encoded{}, err
	}
	if out.Municipality, err = Municipalities.Code(in.Municipality); err != nil {
		return Encoded{}, err
	}
	return out, nil
}
