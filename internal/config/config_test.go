package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 30*time.Second, cfg.Sources.REST.Timeout)
	assert.Len(t, cfg.Sources.REST.Endpoints, 6)
	assert.Equal(t, "https://eventos-25.onrender.com/api/categoriasevento", cfg.Sources.REST.Endpoints["categoriaevento"])
	require.Len(t, cfg.Sources.CSV, 1)
	assert.Equal(t, []string{"fecha_registro"}, cfg.Sources.CSV[0].Temporal)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.NoError(t, cfg.Validate())
}

func TestParseOverridesAndEnv(t *testing.T) {
	t.Setenv("TABOLEIRO_TEST_KEY", "secret-123")
	data := []byte(`
server:
  addr: 0.0.0.0:9000
cache:
  ttl: 90s
sources:
  rest:
    timeout: 5s
    endpoints:
      eventos: http://localhost/api/eventos
gemini:
  api_key: ${TABOLEIRO_TEST_KEY}
`)
	cfg := Default()
	require.NoError(t, Parse(data, &cfg))

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 5*time.Second, cfg.Sources.REST.Timeout)
	assert.Equal(t, "http://localhost/api/eventos", cfg.Sources.REST.Endpoints["eventos"])
	assert.Equal(t, "secret-123", cfg.Gemini.APIKey)
	// non tocado polo ficheiro
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
}

func TestParseRejectsInvalid(t *testing.T) {
	cfg := Default()
	err := Parse([]byte("cache:\n  ttl: -1s\n"), &cfg)
	assert.Error(t, err)

	cfg = Default()
	err = Parse([]byte("sources:\n  csv:\n    - name: x\n"), &cfg)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)

	path := filepath.Join(t.TempDir(), "taboleiro.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  debug: true\n"), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Server.Debug)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("A_VAR", "x")
	assert.Equal(t, "x-y-", substituteEnvVars("${A_VAR}-y-${UNSET_TABOLEIRO_VAR}"))
	assert.Equal(t, "${open", substituteEnvVars("${open"))
}
