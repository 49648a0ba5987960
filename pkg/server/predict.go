package server

import (
	"errors"
	"net/http"

	"return-insight/pkg/encoding"
	"return-insight/pkg/models"
	"return-insight/pkg/predictor"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const predictTitle = "Product Return Prediction App"

type selectField struct {
	Label   string
	Name    string
	Value   string
	Options []string
}

type predictPage struct {
	Title         string
	Input         models.OrderInput
	Product       selectField
	Category      selectField
	PaymentMethod selectField
	Municipality  selectField
	Result        *predictor.Result
	Mismatch      *predictor.SchemaMismatchError
	Error         string
}

func newPredictPage(in models.OrderInput) predictPage {
	return predictPage{
		Title:         predictTitle,
		Input:         in,
		Product:       selectField{Label: "Product", Name: "product", Value: in.Product, Options: encoding.Products.Labels()},
		Category:      selectField{Label: "Category", Name: "category", Value: in.Category, Options: encoding.Categories.Labels()},
		PaymentMethod: selectField{Label: "Payment Method", Name: "payment_method", Value: in.PaymentMethod, Options: encoding.PaymentMethods.Labels()},
		Municipality:  selectField{Label: "Municipality", Name: "municipality", Value: in.Municipality, Options: encoding.Municipalities.Labels()},
	}
}

// OptionsResponse liste les choix des sélecteurs et les valeurs par défaut.
type OptionsResponse struct {
	Products       []encoding.Option `json:"products"`
	Categories     []encoding.Option `json:"categories"`
	PaymentMethods []encoding.Option `json:"payment_methods"`
	Municipalities []encoding.Option `json:"municipalities"`
	Defaults       models.OrderInput `json:"defaults"`
	Features       []string          `json:"expected_features,omitempty"`
}

// ErrorResponse est le corps JSON d'une requête en échec.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Kind     string   `json:"kind"`
	Expected []string `json:"expected,omitempty"`
	Provided []string `json:"provided,omitempty"`
	Missing  []string `json:"missing,omitempty"`
}

type predictHandlers struct {
	svc     *predictor.Service
	loadErr error
	logger  *zap.Logger
}

// form handles GET /predict
func (h *predictHandlers) form(c echo.Context) error {
	page := newPredictPage(predictor.DefaultInput())
	if h.svc == nil {
		page.Error = h.unavailable().Error()
		return c.Render(http.StatusServiceUnavailable, "predict", page)
	}
	// Le contrat de colonnes est vérifié dès l'affichage : en cas de dérive, pas de bouton.
	if err := h.svc.CheckSchema(); err != nil {
		var mismatch *predictor.SchemaMismatchError
		if errors.As(err, &mismatch) {
			page.Mismatch = mismatch
			return c.Render(http.StatusUnprocessableEntity, "predict", page)
		}
		page.Error = err.Error()
		return c.Render(http.StatusInternalServerError, "predict", page)
	}
	return c.Render(http.StatusOK, "predict", page)
}

// submit handles POST /predict
func (h *predictHandlers) submit(c echo.Context) error {
	in := predictor.DefaultInput()
	if err := c.Bind(&in); err != nil {
		h.logger.Debug("invalid predict form", zap.Error(err))
		page := newPredictPage(in)
		page.Error = "Invalid form input: " + bindMessage(err)
		return c.Render(http.StatusBadRequest, "predict", page)
	}
	page := newPredictPage(in)
	if h.svc == nil {
		page.Error = h.unavailable().Error()
		return c.Render(http.StatusServiceUnavailable, "predict", page)
	}

	res, err := h.svc.Predict(c.Request().Context(), in)
	if err != nil {
		status, _ := statusFor(err)
		var mismatch *predictor.SchemaMismatchError
		if errors.As(err, &mismatch) {
			page.Mismatch = mismatch
		} else {
			page.Error = err.Error()
		}
		return c.Render(status, "predict", page)
	}
	page.Result = &res
	return c.Render(http.StatusOK, "predict", page)
}

// api handles POST /api/v1/predict
func (h *predictHandlers) api(c echo.Context) error {
	if h.svc == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: h.unavailable().Error(), Kind: "model"})
	}
	in := predictor.DefaultInput()
	if err := c.Bind(&in); err != nil {
		h.logger.Debug("invalid predict payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindMessage(err), Kind: "input"})
	}
	res, err := h.svc.Predict(c.Request().Context(), in)
	if err != nil {
		status, kind := statusFor(err)
		resp := ErrorResponse{Error: err.Error(), Kind: kind}
		var mismatch *predictor.SchemaMismatchError
		if errors.As(err, &mismatch) {
			resp.Expected = mismatch.Expected
			resp.Provided = mismatch.Provided
			resp.Missing = mismatch.Missing
		}
		return c.JSON(status, resp)
	}
	return c.JSON(http.StatusOK, res)
}

// options handles GET /api/v1/options
func (h *predictHandlers) options(c echo.Context) error {
	resp := OptionsResponse{
		Products:       encoding.Products.Options(),
		Categories:     encoding.Categories.Options(),
		PaymentMethods: encoding.PaymentMethods.Options(),
		Municipalities: encoding.Municipalities.Options(),
		Defaults:       predictor.DefaultInput(),
	}
	if h.svc != nil {
		resp.Features = h.svc.ExpectedFeatures()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *predictHandlers) unavailable() error {
	if h.loadErr != nil {
		return errors.New("prediction model unavailable: " + h.loadErr.Error())
	}
	return errors.New("prediction model unavailable")
}

func statusFor(err error) (int, string) {
	var (
		encErr   *encoding.EncodingError
		rangeErr *predictor.RangeError
		mismatch *predictor.SchemaMismatchError
	)
	switch {
	case errors.As(err, &encErr):
		return http.StatusBadRequest, "encoding"
	case errors.As(err, &rangeErr):
		return http.StatusBadRequest, "range"
	case errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity, "schema"
	default:
		return http.StatusInternalServerError, "model"
	}
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
