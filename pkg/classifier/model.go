// Package classifier charge le modèle de prédiction de retour entraîné hors ligne.
//
// L'artefact est un document YAML (ou JSON, sous-ensemble de YAML) décrivant soit une
// régression logistique, soit une forêt d'arbres binaires aplatis.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"os"

	"return-insight/pkg/models"

	"gopkg.in/yaml.v3"
)

const (
	KindLogistic = "logistic"
	KindForest   = "forest"

	// PositiveClass est le label "retourné".
	PositiveClass = 1
)

var (
	ErrUnknownKind   = errors.New("unknown model kind")
	ErrInvalidModel  = errors.New("invalid model artifact")
	ErrFeatureLayout = errors.New("record does not match model feature layout")
)

// Model est le classifieur opaque consommé par le formulaire.
type Model interface {
	// FeatureNames retourne l'ordre des colonnes attendu.
	FeatureNames() []string
	// Classes retourne les labels, dans l'ordre des probabilités.
	Classes() []int
	Predict(rec models.Record) (int, error)
	PredictProba(rec models.Record) ([]float64, error)
}

// Artifact est la forme sérialisée du modèle.
type Artifact struct {
	Kind         string    `yaml:"kind"`
	FeatureNames []string  `yaml:"feature_names"`
	Classes      []int     `yaml:"classes"`
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`
	Trees        []Tree    `yaml:"trees"`
}

// Tree est un arbre de décision aplati ; la racine est Nodes[0].
type Tree struct {
	Nodes []Node `yaml:"nodes"`
}

// Node : Feature < 0 désigne une feuille, dont Value porte les poids par classe.
type Node struct {
	Feature   int       `yaml:"feature"`
	Threshold float64   `yaml:"threshold"`
	Left      int       `yaml:"left"`
	Right     int       `yaml:"right"`
	Value     []float64 `yaml:"value"`
}

// Load lit et valide un artefact depuis le disque.
func Load(path string) (Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	m, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

// Decode construit un modèle depuis un artefact YAML/JSON.
func Decode(raw []byte) (Model, error) {
	var a Artifact
	if err := yaml.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return New(a)
}

// New valide un artefact et retourne le modèle correspondant.
func New(a Artifact) (Model, error) {
	if len(a.FeatureNames) == 0 {
		return nil, fmt.Errorf("%w: no feature names", ErrInvalidModel)
	}
	if len(a.Classes) == 0 {
		a.Classes = []int{0, PositiveClass}
	}
	if classIndex(a.Classes, PositiveClass) < 0 {
		return nil, fmt.Errorf("%w: classes %v lack positive label %d", ErrInvalidModel, a.Classes, PositiveClass)
	}

	base := base{names: append([]string(nil), a.FeatureNames...), classes: append([]int(nil), a.Classes...)}
	switch a.Kind {
	case KindLogistic:
		if len(a.Classes) != 2 {
			return nil, fmt.Errorf("%w: logistic model needs 2 classes, got %d", ErrInvalidModel, len(a.Classes))
		}
		if len(a.Coefficients) != len(a.FeatureNames) {
			return nil, fmt.Errorf("%w: %d coefficients for %d features", ErrInvalidModel, len(a.Coefficients), len(a.FeatureNames))
		}
		return &logistic{base: base, intercept: a.Intercept, coef: append([]float64(nil), a.Coefficients...)}, nil
	case KindForest:
		if len(a.Trees) == 0 {
			return nil, fmt.Errorf("%w: forest has no trees", ErrInvalidModel)
		}
		for i, t := range a.Trees {
			if err := t.validate(len(a.FeatureNames), len(a.Classes)); err != nil {
				return nil, fmt.Errorf("%w: tree %d: %v", ErrInvalidModel, i, err)
			}
		}
		return &forest{base: base, trees: a.Trees}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
}

// PositiveIndex retourne l'indice de la classe "retourné" dans PredictProba.
func PositiveIndex(m Model) int {
	return classIndex(m.Classes(), PositiveClass)
}

func classIndex(classes []int, label int) int {
	for i, c := range classes {
		if c == label {
			return i
		}
	}
	return -1
}

type base struct {
	names   []string
	classes []int
}

func (b base) FeatureNames() []string { return append([]string(nil), b.names...) }
func (b base) Classes() []int         { return append([]int(nil), b.classes...) }

// vector vérifie que le record suit exactement l'ordre des features.
func (b base) vector(rec models.Record) ([]float64, error) {
	if len(rec) != len(b.names) {
		return nil, fmt.Errorf("%w: %d columns, want %d", ErrFeatureLayout, len(rec), len(b.names))
	}
	for i, f := range rec {
		if f.Name != b.names[i] {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrFeatureLayout, i, f.Name, b.names[i])
		}
	}
	return rec.Values(), nil
}

func (b base) argmax(proba []float64) int {
	best := 0
	for i := 1; i < len(proba); i++ {
		if proba[i] > proba[best] {
			best = i
		}
	}
	return b.classes[best]
}

type logistic struct {
	base
	intercept float64
	coef      []float64
}

func (m *logistic) PredictProba(rec models.Record) ([]float64, error) {
	x, err := m.vector(rec)
	if err != nil {
		return nil, err
	}
	z := m.intercept
	for i, v := range x {
		z += m.coef[i] * v
	}
	p := 1 / (1 + math.Exp(-z))
	// classes[1] est la classe de la fonction de décision
	return []float64{1 - p, p}, nil
}

func (m *logistic) Predict(rec models.Record) (int, error) {
	proba, err := m.PredictProba(rec)
	if err != nil {
		return 0, err
	}
	if proba[1] > 0.5 {
		return m.classes[1], nil
	}
	return m.classes[0], nil
}

type forest struct {
	base
	trees []Tree
}

func (m *forest) PredictProba(rec models.Record) ([]float64, error) {
	x, err := m.vector(rec)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(m.classes))
	for _, t := range m.trees {
		leaf := t.leaf(x)
		total := 0.0
		for _, w := range leaf {
			total += w
		}
		for i, w := range leaf {
			out[i] += w / total
		}
	}
	for i := range out {
		out[i] /= float64(len(m.trees))
	}
	return out, nil
}

func (m *forest) Predict(rec models.Record) (int, error) {
	proba, err := m.PredictProba(rec)
	if err != nil {
		return 0, err
	}
	return m.argmax(proba), nil
}

// leaf descend l'arbre : x[feature] <= threshold → gauche.
func (t Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate garantit que leaf termine : indices valides et enfants strictement après le parent.
func (t Tree) validate(features, classes int) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			if len(n.Value) != classes {
				return fmt.Errorf("leaf %d has %d values, want %d", i, len(n.Value), classes)
			}
			total := 0.0
			for _, w := range n.Value {
				if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
					return fmt.Errorf("leaf %d has invalid weight %g", i, w)
				}
				total += w
			}
			if total == 0 {
				return fmt.Errorf("leaf %d has no weight", i)
			}
			continue
		}
		if n.Feature >= features {
			return fmt.Errorf("node %d uses feature %d, only %d features", i, n.Feature, features)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d has invalid child %d", i, child)
			}
		}
	}
	return nil
}
