package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"return-insight/pkg/config"
	"return-insight/pkg/database"
	"return-insight/pkg/dataset"
	"return-insight/pkg/logging"
	"return-insight/pkg/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	version = "dev"

	// résolus par initApp avant chaque commande
	appCfg    models.Config
	appLogger = zap.NewNop()

	rootCmd = &cobra.Command{
		Use:   "returns",
		Short: "Product return prediction and return analytics",
		Long: `returns serves two independent front-ends over historical sales:

  predict    score one order with the trained return classifier
  dashboard  return rate and most returned products, filtered by category
  serve      both pages over HTTP, plus a JSON API and /metrics`,
		SilenceUsage:       true,
		PersistentPreRunE:  initApp,
		PersistentPostRunE: func(*cobra.Command, []string) error { _ = appLogger.Sync(); return nil },
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./returns.yaml or $HOME/.config/returns/returns.yaml)")
	flags.String("model", config.DefaultModelPath, "trained classifier artifact (YAML or JSON)")
	flags.String("data", dataset.DefaultPath, "historical sales CSV")
	flags.String("dsn", "", "read sales from SQL instead of CSV (mysql://, mariadb://, sqlite://)")
	flags.String("table", database.DefaultTable, "sales table name when --dsn is set")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.BoolP("verbose", "v", false, "show progress while loading data")

	bind := map[string]string{
		config.KeyModelPath: "model",
		config.KeyDataPath:  "data",
		config.KeyDataDSN:   "dsn",
		config.KeyDataTable: "table",
		config.KeyLogLevel:  "log-level",
		config.KeyLogFormat: "log-format",
		config.KeyVerbose:   "verbose",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initApp(_ *cobra.Command, _ []string) error {
	v := viper.GetViper()
	if err := config.Init(v, cfgFile); err != nil {
		return err
	}
	logger, err := logging.New(v.GetString(config.KeyLogLevel), v.GetString(config.KeyLogFormat))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	appLogger = logger

	cfg, err := config.Resolve(v)
	if err != nil {
		return err
	}
	appCfg = cfg
	return nil
}

// loadSales charge le dataset configuré : table SQL si un DSN est fourni, sinon le CSV.
func loadSales(ctx context.Context, cfg models.Config, progress io.Writer) (*dataset.Frame, error) {
	if cfg.DataDSN == "" {
		return dataset.Load(cfg.DataPath, dataset.Options{Progress: progress})
	}
	db, _, err := database.Open(cfg.DataDSN)
	if err != nil {
		return nil, &dataset.DataLoadError{Path: database.Redact(cfg.DataDSN), Err: err}
	}
	defer db.Close()
	appLogger.Debug("reading sales from database", zap.String("table", cfg.DataTable))
	return database.LoadSales(ctx, db, cfg.DataTable)
}

func progressWriter(cfg models.Config) io.Writer {
	if cfg.Verbose {
		return os.Stderr
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "returns", version)
		},
	}
}
