package models

import (
	"time"
)

/*
INPUT → attributs de commande saisis par l'utilisateur (formulaire de prédiction).
*/

// OrderInput représente les 8 attributs d'une commande tels que saisis dans le formulaire.
type OrderInput struct {
	Product            string  `json:"product" form:"product"`
	Category           string  `json:"category" form:"category"`
	Price              float64 `json:"price" form:"price"`
	Quantity           int     `json:"quantity" form:"quantity"`
	PaymentMethod      string  `json:"payment_method" form:"payment_method"`
	DeliveryDays       int     `json:"delivery_days" form:"delivery_days"`
	SatisfactionRating int     `json:"satisfaction_rating" form:"satisfaction_rating"`
	Municipality       string  `json:"municipality" form:"municipality"`
}

// Noms des colonnes du record, dans l'ordre de construction.
const (
	FieldProduct            = "Product"
	FieldCategory           = "Category"
	FieldPrice              = "Price"
	FieldQuantity           = "Quantity"
	FieldPaymentMethod      = "PaymentMethod"
	FieldDeliveryDays       = "DeliveryDays"
	FieldSatisfactionRating = "SatisfactionRating"
	FieldMunicipality       = "Municipality"
)

/*
RECORD → ligne unique encodée, envoyée au classifieur.
*/

// Feature est une colonne nommée du record.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Record est une ligne ordonnée de features. L'ordre compte : c'est celui attendu par le modèle.
type Record []Feature

// Names retourne les noms de colonnes dans l'ordre du record.
func (r Record) Names() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Name
	}
	return out
}

// Values retourne le vecteur de valeurs dans l'ordre du record.
func (r Record) Values() []float64 {
	out := make([]float64, len(r))
	for i, f := range r {
		out[i] = f.Value
	}
	return out
}

// Lookup retourne la valeur d'une colonne.
func (r Record) Lookup(name string) (float64, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

/*
LOAD → lignes du dataset historique des ventes.
*/

// SaleRow représente une commande historique (seules les colonnes utiles au tableau de bord).
type SaleRow struct {
	Category string
	Product  string
	Returned int // 0 ou 1
}

/*
COMPUTE → résultats du tableau de bord.
*/

// ProductReturns contient le nombre de retours cumulés pour un produit.
type ProductReturns struct {
	Product  string `json:"product"`
	Returned int    `json:"returned"`
}

/*
CONFIG → paramètres globaux
*/

// Config contient les paramètres résolus (flags, env, fichier) passés aux commandes.
type Config struct {
	ModelPath  string        // artefact du classifieur (YAML ou JSON)
	DataPath   string        // CSV historique des ventes
	DataDSN    string        // optionnel : source SQL à la place du CSV
	DataTable  string        // table SQL lue quand DataDSN est renseigné
	ServerAddr string        // adresse d'écoute du serveur HTTP
	SessionTTL time.Duration // durée de vie d'une session de tableau de bord
	Verbose    bool          // Flag pour activer les logs détaillés.
}
