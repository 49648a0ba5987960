package predictor

import (
	"context"
	"errors"
	"testing"

	"return-insight/pkg/classifier"
	"return-insight/pkg/encoding"
	"return-insight/pkg/metrics"
	"return-insight/pkg/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubModel renvoie des valeurs fixes et compte les appels.
type stubModel struct {
	names        []string
	classes      []int
	pred         int
	proba        []float64
	predictCalls int
	probaCalls   int
	lastRecord   models.Record
}

func (m *stubModel) FeatureNames() []string { return m.names }
func (m *stubModel) Classes() []int         { return m.classes }

func (m *stubModel) Predict(rec models.Record) (int, error) {
	m.predictCalls++
	m.lastRecord = rec
	return m.pred, nil
}

func (m *stubModel) PredictProba(rec models.Record) ([]float64, error) {
	m.probaCalls++
	return m.proba, nil
}

var trainingOrder = []string{
	"Municipality", "Product", "Category", "Price", "Quantity", "PaymentMethod", "DeliveryDays", "SatisfactionRating",
}

func newStub(pred int, p1 float64) *stubModel {
	return &stubModel{names: trainingOrder, classes: []int{0, 1}, pred: pred, proba: []float64{1 - p1, p1}}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0.4567, "45.67%"},
		{0, "0.00%"},
		{1, "100.00%"},
		{0.12345, "12.35%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPercent(tt.p))
	}
}

func TestService_Predict_Returned(t *testing.T) {
	model := newStub(1, 0.4567)
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	svc := NewService(model, zap.NewNop(), m)
	res, err := svc.Predict(context.Background(), DefaultInput())
	require.NoError(t, err)

	assert.Equal(t, "45.67%", res.Percent)
	assert.True(t, res.Returned)
	assert.Equal(t, LevelWarning, res.Level)
	assert.Equal(t, MessageLikely, res.Message)
	assert.Equal(t, trainingOrder, model.lastRecord.Names())
	assert.Equal(t, 1, model.predictCalls)
	assert.Equal(t, 1, model.probaCalls)

	count, err := testutil.GatherAndCount(reg, "return_predictions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_Predict_Kept(t *testing.T) {
	svc := NewService(newStub(0, 0.1), nil, nil)
	res, err := svc.Predict(context.Background(), DefaultInput())
	require.NoError(t, err)
	assert.False(t, res.Returned)
	assert.Equal(t, LevelSuccess, res.Level)
	assert.Equal(t, MessageUnlikely, res.Message)
	assert.Equal(t, "10.00%", res.Percent)
}

func TestService_Predict_PositiveClassIndex(t *testing.T) {
	model := newStub(1, 0)
	model.classes = []int{1, 0}
	model.proba = []float64{0.8, 0.2}

	res, err := NewService(model, nil, nil).Predict(context.Background(), DefaultInput())
	require.NoError(t, err)
	assert.InDelta(t, 0.8, res.Probability, 1e-12)
}

func TestService_Predict_SchemaMismatchHaltsBeforePredict(t *testing.T) {
	model := newStub(1, 0.9)
	model.names = append(append([]string(nil), trainingOrder...), "CustomerAge")

	_, err := NewService(model, zap.NewNop(), nil).Predict(context.Background(), DefaultInput())
	require.Error(t, err)

	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, model.names, mismatch.Expected)
	assert.Equal(t, []string{
		"Product", "Category", "Price", "Quantity", "PaymentMethod", "DeliveryDays", "SatisfactionRating", "Municipality",
	}, mismatch.Provided)
	assert.Equal(t, []string{"CustomerAge"}, mismatch.Missing)
	assert.Contains(t, err.Error(), "CustomerAge")

	assert.Zero(t, model.predictCalls)
	assert.Zero(t, model.probaCalls)
}

func TestService_Predict_EncodingError(t *testing.T) {
	model := newStub(1, 0.9)
	in := DefaultInput()
	in.Municipality = "Plateau"

	_, err := NewService(model, nil, nil).Predict(context.Background(), in)
	var encErr *encoding.EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "Plateau", encErr.Value)
	assert.Zero(t, model.predictCalls)
}

func TestService_Predict_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService(newStub(0, 0.1), nil, nil).Predict(ctx, DefaultInput())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Predict_WithRealModel(t *testing.T) {
	model, err := classifier.Load("../classifier/testdata/forest.json")
	require.NoError(t, err)

	in := DefaultInput()
	in.SatisfactionRating = 1
	res, err := NewService(model, nil, nil).Predict(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "62.50%", res.Percent)
	assert.True(t, res.Returned)
}
