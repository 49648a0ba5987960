package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"return-insight/pkg/charts"
	"return-insight/pkg/classifier"
	"return-insight/pkg/dataset"
	"return-insight/pkg/metrics"
	"return-insight/pkg/predictor"
	"return-insight/pkg/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	// le janitor de go-cache ne peut pas être arrêté
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
}

const salesCSV = `Category,Product,Returned
Phones,A,1
Phones,A,0
Audio,B,1
`

type testEnv struct {
	handler http.Handler
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, model classifier.Model, dataPath string) testEnv {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	var svc *predictor.Service
	if model != nil {
		svc = predictor.NewService(model, zap.NewNop(), m)
	}
	loader := func(ctx context.Context) (*dataset.Frame, error) {
		return dataset.Load(dataPath, dataset.Options{})
	}
	srv, err := New(Options{
		Predictor: svc,
		Sessions:  session.NewStore(loader, 0, zap.NewNop(), m),
		Metrics:   m,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	return testEnv{handler: srv.Handler(), metrics: m}
}

func loadModel(t *testing.T) classifier.Model {
	t.Helper()
	model, err := classifier.Load("../classifier/testdata/forest.json")
	require.NoError(t, err)
	return model
}

func writeSales(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "DataSales.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestPredictForm(t *testing.T) {
	env := newTestEnv(t, loadModel(t), writeSales(t, salesCSV))
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/predict", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Order Information")
	assert.Contains(t, body, `<option value="Wire Transfer">`)
	assert.Contains(t, body, `<button type="submit">Predict</button>`)
	assert.Contains(t, body, `value="50000"`)
}

func TestPredictSubmit_Form(t *testing.T) {
	env := newTestEnv(t, loadModel(t), writeSales(t, salesCSV))

	form := url.Values{}
	form.Set("product", "Laptop")
	form.Set("category", "Computers")
	form.Set("price", "999.99")
	form.Set("quantity", "2")
	form.Set("payment_method", "PayPal")
	form.Set("delivery_days", "3")
	form.Set("satisfaction_rating", "1")
	form.Set("municipality", "Abobo")
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, "Prediction Result")
	assert.Contains(t, body, "<strong>62.50%</strong>")
	assert.Contains(t, body, predictor.MessageLikely)
	assert.Contains(t, body, `<option value="Laptop" selected>`)
}

func TestPredictAPI(t *testing.T) {
	env := newTestEnv(t, loadModel(t), writeSales(t, salesCSV))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKind   string
	}{
		{name: "defaults with high rating", body: `{"satisfaction_rating": 5}`, wantStatus: http.StatusOK},
		{name: "unknown municipality", body: `{"municipality": "Plateau"}`, wantStatus: http.StatusBadRequest, wantKind: "encoding"},
		{name: "rating out of range", body: `{"satisfaction_rating": 9}`, wantStatus: http.StatusBadRequest, wantKind: "range"},
		{name: "malformed json", body: `{`, wantStatus: http.StatusBadRequest, wantKind: "input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := env.do(t, req)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantKind == "" {
				var res predictor.Result
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.Equal(t, "30.00%", res.Percent)
				assert.False(t, res.Returned)
				assert.Equal(t, predictor.LevelSuccess, res.Level)
				return
			}
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKind, resp.Kind)
		})
	}
}

func mismatchedModel(t *testing.T) classifier.Model {
	t.Helper()
	model, err := classifier.New(classifier.Artifact{
		Kind:         classifier.KindLogistic,
		FeatureNames: []string{"Product", "CustomerAge"},
		Coefficients: []float64{0.1, 0.2},
	})
	require.NoError(t, err)
	return model
}

func TestPredict_SchemaMismatch(t *testing.T) {
	env := newTestEnv(t, mismatchedModel(t), writeSales(t, salesCSV))

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/predict", http.NoBody))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Expected columns: Product, CustomerAge")
	assert.Contains(t, body, "Provided columns: Product, Category, Price")
	assert.NotContains(t, body, "<button")
	assert.NotContains(t, body, "Prediction Result")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = env.do(t, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "schema", resp.Kind)
	assert.Equal(t, []string{"Product", "CustomerAge"}, resp.Expected)
	assert.Equal(t, []string{"CustomerAge"}, resp.Missing)
	assert.Len(t, resp.Provided, 8)
}

func TestPredict_ModelUnavailable(t *testing.T) {
	env := newTestEnv(t, nil, writeSales(t, salesCSV))
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/predict", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "prediction model unavailable")
}

func TestOptionsAPI(t *testing.T) {
	env := newTestEnv(t, loadModel(t), writeSales(t, salesCSV))
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/options", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Products, 6)
	assert.Len(t, resp.Categories, 5)
	assert.Len(t, resp.PaymentMethods, 4)
	assert.Len(t, resp.Municipalities, 4)
	assert.Equal(t, 15, resp.Defaults.DeliveryDays)
	assert.Len(t, resp.Features, 8)
}

func getDashboard(t *testing.T, env testEnv, target string, cookies []*http.Cookie) (*httptest.ResponseRecorder, DashboardResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := env.do(t, req)
	var resp DashboardResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestDashboardAPI_SessionFilterAndSort(t *testing.T) {
	env := newTestEnv(t, nil, writeSales(t, salesCSV))

	rec, resp := getDashboard(t, env, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, []string{"Phones", "Audio"}, resp.Selected)
	assert.InDelta(t, 2.0/3.0, resp.ReturnRate, 1e-9)
	assert.Equal(t, []charts.Point{{Label: "A", Value: 1}, {Label: "B", Value: 1}}, resp.Bar.Points)

	_, resp2 := getDashboard(t, env, "/api/v1/dashboard?filter=1&category=Phones", cookies)
	assert.Equal(t, resp.SessionID, resp2.SessionID)
	assert.Equal(t, []string{"Phones"}, resp2.Selected)
	assert.InDelta(t, 0.5, resp2.ReturnRate, 1e-9)

	// le filtre est conservé par la session
	_, resp3 := getDashboard(t, env, "/api/v1/dashboard?sort=asc", cookies)
	assert.Equal(t, []string{"Phones"}, resp3.Selected)
	assert.Equal(t, "asc", string(resp3.Sort))

	rec, _ = getDashboard(t, env, "/api/v1/dashboard?sort=sideways", cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardAPI_EndSession(t *testing.T) {
	env := newTestEnv(t, nil, writeSales(t, salesCSV))
	rec, first := getDashboard(t, env, "/api/v1/dashboard", nil)
	cookies := rec.Result().Cookies()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/dashboard", http.NoBody)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	assert.Equal(t, http.StatusNoContent, env.do(t, req).Code)

	_, second := getDashboard(t, env, "/api/v1/dashboard", cookies)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestDashboardPage(t *testing.T) {
	path := writeSales(t, salesCSV)
	env := newTestEnv(t, nil, path)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/dashboard", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, path+" loaded successfully!")
	assert.Contains(t, body, "Filter by Category")
	assert.Contains(t, body, `value="Audio" checked`)
	assert.Contains(t, body, "Overall Return Rate")
	assert.Contains(t, body, "66.67%")
	assert.Contains(t, body, "Most Returned Products")
	assert.Contains(t, body, `id="dashboard-data"`)
}

func TestDashboardPage_EmptySelection(t *testing.T) {
	env := newTestEnv(t, nil, writeSales(t, salesCSV))
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/dashboard?filter=1", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), charts.NoDataMessage)
}

func TestDashboardPage_NoCategoryColumn(t *testing.T) {
	env := newTestEnv(t, nil, writeSales(t, "Product,Returned\nA,1\nB,0\n"))
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/dashboard", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "Filter by Category")
	assert.Contains(t, body, "50.00%")
}

func TestDashboardPage_MissingFileHalts(t *testing.T) {
	env := newTestEnv(t, nil, filepath.Join(t.TempDir(), "DataSales.csv"))
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/dashboard", http.NoBody))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "could not be loaded")
	assert.NotContains(t, body, "Overall Return Rate")
	assert.NotContains(t, body, "Most Returned Products")
	assert.Empty(t, rec.Result().Cookies())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "data_load", resp.Kind)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, loadModel(t), writeSales(t, salesCSV))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusOK, env.do(t, req).Code)
	env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", http.NoBody))

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "return_predictions_total")
	assert.Contains(t, body, "dashboard_sessions_total 1")
	assert.Contains(t, body, "dashboard_dataset_rows 3")
}

func TestRoot_RedirectsToPredict(t *testing.T) {
	env := newTestEnv(t, loadModel(t), writeSales(t, salesCSV))
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/predict", rec.Header().Get("Location"))
}
