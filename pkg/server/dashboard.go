package server

import (
	"errors"
	"net/http"
	"time"

	"return-insight/pkg/calculator"
	"return-insight/pkg/metrics"
	"return-insight/pkg/session"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	dashboardTitle = "Interactive Product Return Analysis Dashboard"
	sessionCookie  = "dashboard_session"
)

type dashboardPage struct {
	Title      string
	Error      string
	Source     string
	Filterable bool
	Categories []string
	Selected   []string
	Direction  calculator.Direction
	Result     calculator.Dashboard
}

// DashboardResponse est la réponse JSON de GET /api/v1/dashboard.
type DashboardResponse struct {
	SessionID  string               `json:"session_id"`
	Source     string               `json:"source"`
	Filterable bool                 `json:"filterable"`
	Categories []string             `json:"categories"`
	Selected   []string             `json:"selected"`
	Sort       calculator.Direction `json:"sort"`
	calculator.Dashboard
}

type dashboardHandlers struct {
	sessions *session.Store
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

var errNoSessions = errors.New("dashboard unavailable")

// resolve retrouve la session du cookie ou en démarre une, puis applique filtre et tri.
func (h *dashboardHandlers) resolve(c echo.Context) (*session.Dashboard, calculator.Dashboard, error) {
	if h.sessions == nil {
		return nil, calculator.Dashboard{}, errNoSessions
	}
	var d *session.Dashboard
	if ck, err := c.Cookie(sessionCookie); err == nil {
		d, _ = h.sessions.Get(ck.Value)
	}
	if d == nil {
		started, err := h.sessions.Start(c.Request().Context())
		if err != nil {
			return nil, calculator.Dashboard{}, err
		}
		d = started
		c.SetCookie(&http.Cookie{
			Name:     sessionCookie,
			Value:    d.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	params := c.QueryParams()
	res := d.Result()
	if _, ok := params["filter"]; ok {
		res = d.ApplyFilter(params["category"])
	}
	if sort := c.QueryParam("sort"); sort != "" {
		dir, err := calculator.ParseDirection(sort)
		if err != nil {
			return nil, calculator.Dashboard{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		res = d.SetDirection(dir)
	}
	h.metrics.RecordRender(!res.HasData)
	return d, res, nil
}

// page handles GET /dashboard
func (h *dashboardHandlers) page(c echo.Context) error {
	page := dashboardPage{Title: dashboardTitle}
	d, res, err := h.resolve(c)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return err
		}
		// rien d'autre n'est rendu si le dataset manque
		page.Error = err.Error()
		return c.Render(http.StatusServiceUnavailable, "dashboard", page)
	}
	page.Source = d.Source()
	page.Filterable = d.Filterable()
	page.Categories = d.Categories()
	page.Selected = d.Selected()
	page.Direction = d.Direction()
	page.Result = res
	return c.Render(http.StatusOK, "dashboard", page)
}

// api handles GET /api/v1/dashboard
func (h *dashboardHandlers) api(c echo.Context) error {
	d, res, err := h.resolve(c)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return c.JSON(he.Code, ErrorResponse{Error: bindMessage(err), Kind: "input"})
		}
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Kind: "data_load"})
	}
	return c.JSON(http.StatusOK, DashboardResponse{
		SessionID:  d.ID,
		Source:     d.Source(),
		Filterable: d.Filterable(),
		Categories: d.Categories(),
		Selected:   d.Selected(),
		Sort:       d.Direction(),
		Dashboard:  res,
	})
}

// end handles DELETE /api/v1/dashboard
func (h *dashboardHandlers) end(c echo.Context) error {
	if h.sessions != nil {
		if ck, err := c.Cookie(sessionCookie); err == nil {
			h.sessions.End(ck.Value)
		}
	}
	c.SetCookie(&http.Cookie{Name: sessionCookie, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	return c.NoContent(http.StatusNoContent)
}
