package predictor

import (
	"context"
	"errors"
	"fmt"

	"return-insight/pkg/classifier"
	"return-insight/pkg/encoding"
	"return-insight/pkg/metrics"
	"return-insight/pkg/models"

	"go.uber.org/zap"
)

const (
	MessageLikely   = "The product is likely to be returned."
	MessageUnlikely = "The product is unlikely to be returned."

	LevelWarning = "warning"
	LevelSuccess = "success"
)

// Result est la réponse rendue après "Predict".
type Result struct {
	Probability float64 `json:"probability"`
	Percent     string  `json:"percent"`
	Returned    bool    `json:"returned"`
	Level       string  `json:"level"`
	Message     string  `json:"message"`
}

// Service porte le contexte du formulaire : le modèle chargé une fois, partagé en lecture seule.
type Service struct {
	model   classifier.Model
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewService crée le contexte du formulaire.
func NewService(model classifier.Model, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{model: model, logger: logger, metrics: m}
}

// ExpectedFeatures retourne l'ordre de colonnes attendu par le modèle.
func (s *Service) ExpectedFeatures() []string {
	return s.model.FeatureNames()
}

// CheckSchema vérifie, sans inférence, que le record construit couvre les features du modèle.
func (s *Service) CheckSchema() error {
	in := DefaultInput()
	enc, err := encoding.Encode(in)
	if err != nil {
		return err
	}
	_, err = Align(BuildRecord(in, enc), s.model.FeatureNames())
	return err
}

// Predict enchaîne validation, encodage, alignement et inférence. Toute erreur est terminale.
func (s *Service) Predict(ctx context.Context, in models.OrderInput) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if err := Validate(in); err != nil {
		s.fail("range", err)
		return Result{}, err
	}
	enc, err := encoding.Encode(in)
	if err != nil {
		s.fail("encoding", err)
		return Result{}, err
	}
	rec := BuildRecord(in, enc)

	aligned, err := Align(rec, s.model.FeatureNames())
	if err != nil {
		var mismatch *SchemaMismatchError
		if errors.As(err, &mismatch) {
			s.logger.Error("input columns do not match model features",
				zap.Strings("expected", mismatch.Expected),
				zap.Strings("provided", mismatch.Provided),
				zap.Strings("missing", mismatch.Missing))
		}
		s.fail("schema", err)
		return Result{}, err
	}

	pred, err := s.model.Predict(aligned)
	if err != nil {
		s.fail("model", err)
		return Result{}, fmt.Errorf("predict: %w", err)
	}
	proba, err := s.model.PredictProba(aligned)
	if err != nil {
		s.fail("model", err)
		return Result{}, fmt.Errorf("predict proba: %w", err)
	}
	pos := classifier.PositiveIndex(s.model)
	if pos < 0 || pos >= len(proba) {
		err := fmt.Errorf("predict proba: no probability for class %d", classifier.PositiveClass)
		s.fail("model", err)
		return Result{}, err
	}

	res := NewResult(proba[pos], pred == classifier.PositiveClass)
	verdict := "kept"
	if res.Returned {
		verdict = "returned"
	}
	s.metrics.RecordPrediction(verdict)
	s.logger.Debug("prediction served",
		zap.String("product", in.Product),
		zap.String("category", in.Category),
		zap.Float64("probability", res.Probability),
		zap.String("verdict", verdict))
	return res, nil
}

func (s *Service) fail(kind string, err error) {
	s.metrics.RecordPredictionError(kind)
	s.logger.Warn("prediction failed", zap.String("kind", kind), zap.Error(err))
}

// NewResult construit le rendu : pourcentage à 2 décimales et verdict binaire.
func NewResult(probability float64, returned bool) Result {
	res := Result{
		Probability: probability,
		Percent:     FormatPercent(probability),
		Returned:    returned,
		Level:       LevelSuccess,
		Message:     MessageUnlikely,
	}
	if returned {
		res.Level = LevelWarning
		res.Message = MessageLikely
	}
	return res
}

// FormatPercent rend une probabilité en pourcentage : 0.4567 → "45.67%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}
