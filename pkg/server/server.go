// Package server expose le formulaire de prédiction et le tableau de bord en HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"return-insight/pkg/metrics"
	"return-insight/pkg/predictor"
	"return-insight/pkg/session"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server regroupe les deux pages. Predictor ou Sessions peuvent être nil : la page
// correspondante répond alors 503.
type Server struct {
	echo      *echo.Echo
	predictor *predictor.Service
	sessions  *session.Store
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// Options décrit les dépendances du serveur.
type Options struct {
	Predictor *predictor.Service
	// PredictorErr est affiché quand le modèle n'a pas pu être chargé.
	PredictorErr error
	Sessions     *session.Store
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

// New construit le serveur et enregistre les routes.
func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	s := &Server{
		echo:      e,
		predictor: opts.Predictor,
		sessions:  opts.Sessions,
		metrics:   opts.Metrics,
		logger:    logger,
	}
	s.initRoutes(opts.PredictorErr)
	return s, nil
}

func (s *Server) initRoutes(predictorErr error) {
	s.echo.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/predict")
	})

	p := &predictHandlers{svc: s.predictor, loadErr: predictorErr, logger: s.logger}
	s.echo.GET("/predict", p.form)
	s.echo.POST("/predict", p.submit)

	d := &dashboardHandlers{sessions: s.sessions, logger: s.logger, metrics: s.metrics}
	s.echo.GET("/dashboard", d.page)

	api := s.echo.Group("/api/v1")
	api.GET("/options", p.options)
	api.POST("/predict", p.api)
	api.GET("/dashboard", d.api)
	api.DELETE("/dashboard", d.end)

	if reg := s.metrics.Registry(); reg != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
}

// Handler retourne le handler HTTP (utilisé par les tests).
func (s *Server) Handler() http.Handler { return s.echo }

// Run écoute sur addr jusqu'à l'annulation de ctx, puis arrête proprement le serveur.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)))
			return nil
		}
	}
}
