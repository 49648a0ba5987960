// Package config résout la configuration (flags, variables RETURNS_*, fichier returns.yaml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"return-insight/pkg/dataset"
	"return-insight/pkg/database"
	"return-insight/pkg/models"
	"return-insight/pkg/session"

	"github.com/spf13/viper"
)

// Clés de configuration.
const (
	KeyModelPath     = "model.path"
	KeyDataPath      = "data.path"
	KeyDataDSN       = "data.dsn"
	KeyDataTable     = "data.table"
	KeyServerAddr    = "server.addr"
	KeySessionTTL    = "session.ttl"
	KeyLogLevel      = "logging.level"
	KeyLogFormat     = "logging.format"
	KeyVerbose       = "verbose"
	DefaultModelPath = "final_model.json"
	DefaultAddr      = ":8501"
	EnvPrefix        = "RETURNS"
)

// SetDefaults enregistre les valeurs par défaut sur v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyModelPath, DefaultModelPath)
	v.SetDefault(KeyDataPath, dataset.DefaultPath)
	v.SetDefault(KeyDataTable, database.DefaultTable)
	v.SetDefault(KeyServerAddr, DefaultAddr)
	v.SetDefault(KeySessionTTL, session.DefaultTTL)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyVerbose, false)
}

// Init prépare v : fichier explicite ou recherche de returns.yaml, puis variables d'environnement.
// Un fichier absent n'est pas une erreur.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "returns"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("returns")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Resolve lit la configuration résolue dans un models.Config.
func Resolve(v *viper.Viper) (models.Config, error) {
	cfg := models.Config{
		ModelPath:  ExpandPath(v.GetString(KeyModelPath)),
		DataPath:   ExpandPath(v.GetString(KeyDataPath)),
		DataDSN:    v.GetString(KeyDataDSN),
		DataTable:  v.GetString(KeyDataTable),
		ServerAddr: v.GetString(KeyServerAddr),
		SessionTTL: v.GetDuration(KeySessionTTL),
		Verbose:    v.GetBool(KeyVerbose),
	}
	if cfg.SessionTTL <= 0 {
		return models.Config{}, fmt.Errorf("%s must be positive, got %s", KeySessionTTL, v.GetString(KeySessionTTL))
	}
	return cfg, nil
}

// ExpandPath développe ~ et les variables $VAR d'un chemin.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}
