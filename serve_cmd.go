package main

import (
	"context"

	"return-insight/pkg/classifier"
	"return-insight/pkg/config"
	"return-insight/pkg/dataset"
	"return-insight/pkg/metrics"
	"return-insight/pkg/predictor"
	"return-insight/pkg/server"
	"return-insight/pkg/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction form and the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := metrics.New(prometheus.NewRegistry())
			if err != nil {
				return err
			}

			// Le tableau de bord reste disponible même sans modèle.
			var svc *predictor.Service
			model, modelErr := classifier.Load(appCfg.ModelPath)
			if modelErr != nil {
				appLogger.Error("prediction model unavailable", zap.String("path", appCfg.ModelPath), zap.Error(modelErr))
			} else {
				svc = predictor.NewService(model, appLogger, m)
				appLogger.Info("prediction model loaded",
					zap.String("path", appCfg.ModelPath),
					zap.Strings("features", model.FeatureNames()))
			}

			loader := func(ctx context.Context) (*dataset.Frame, error) {
				return loadSales(ctx, appCfg, nil)
			}
			srv, err := server.New(server.Options{
				Predictor:    svc,
				PredictorErr: modelErr,
				Sessions:     session.NewStore(loader, appCfg.SessionTTL, appLogger, m),
				Metrics:      m,
				Logger:       appLogger,
			})
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context(), appCfg.ServerAddr)
		},
	}
	cmd.Flags().String("addr", config.DefaultAddr, "listen address")
	cmd.Flags().Duration("session-ttl", 0, "dashboard session idle timeout (default 30m)")
	_ = viper.BindPFlag(config.KeyServerAddr, cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag(config.KeySessionTTL, cmd.Flags().Lookup("session-ttl"))
	return cmd
}
