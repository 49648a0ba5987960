package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Defaults(t *testing.T) {
	v := viper.New()
	require.NoError(t, Init(v, ""))

	cfg, err := Resolve(v)
	require.NoError(t, err)
	assert.Equal(t, "final_model.json", cfg.ModelPath)
	assert.Equal(t, "DataSales.csv", cfg.DataPath)
	assert.Equal(t, "sales", cfg.DataTable)
	assert.Equal(t, ":8501", cfg.ServerAddr)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Empty(t, cfg.DataDSN)
}

func TestResolve_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.yaml")
	content := "model:\n  path: models/rf.yaml\ndata:\n  path: /srv/DataSales.csv\nsession:\n  ttl: 5m\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("RETURNS_SERVER_ADDR", "127.0.0.1:9000")

	v := viper.New()
	require.NoError(t, Init(v, path))

	cfg, err := Resolve(v)
	require.NoError(t, err)
	assert.Equal(t, "models/rf.yaml", cfg.ModelPath)
	assert.Equal(t, "/srv/DataSales.csv", cfg.DataPath)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddr)
}

func TestInit_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0o600))
	assert.Error(t, Init(viper.New(), path))
}

func TestResolve_InvalidTTL(t *testing.T) {
	v := viper.New()
	require.NoError(t, Init(v, ""))
	v.Set(KeySessionTTL, "-1s")
	_, err := Resolve(v)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	t.Setenv("RETURNS_TEST_DIR", "/data")
	assert.Equal(t, "/data/x.csv", ExpandPath("$RETURNS_TEST_DIR/x.csv"))
	assert.Equal(t, "", ExpandPath(""))

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x.csv"), ExpandPath("~/x.csv"))
}
