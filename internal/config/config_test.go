package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
	"listen": ["0.0.0.0:8125"],
	"graphite": {"host": "graphite.internal", "port": 2003}
}`

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statsd.conf")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConf(t, validDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{"0.0.0.0:8125"}, cfg.Listen)
	assert.Equal(t, "graphite.internal", cfg.Graphite.Host)
	assert.Equal(t, 2003, cfg.Graphite.Port)
	assert.Equal(t, 10, cfg.Graphite.FlushInterval)
	assert.Equal(t, 5, cfg.Graphite.ReconnectInterval)
	assert.Equal(t, cfg.Graphite.FlushInterval, cfg.Stats.FlushInterval)
	assert.Equal(t, ":8126", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	_, err := Load(writeConf(t, `{"listen": ["0.0.0.0:8125"]}`))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	_, err := Load(writeConf(t, `{
		"listen": ["0.0.0.0:8125"],
		"graphite": {"host": "h", "port": 2003},
		"log": {"level": "verbose"}
	}`))
	assert.Error(t, err)
}

func TestLoadAcceptsEachDocumentedLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "notice", "warn", "err", "crit"} {
		cfg, err := Load(writeConf(t, `{
			"listen": ["0.0.0.0:8125"],
			"graphite": {"host": "h", "port": 2003},
			"log": {"level": "`+level+`"}
		}`))
		require.NoError(t, err, level)
		assert.Equal(t, level, cfg.Log.Level)
	}
}

func TestLoadEnvOverridesTakePrecedence(t *testing.T) {
	t.Setenv("STATSGOD_GRAPHITE_HOST", "override.internal")
	cfg, err := Load(writeConf(t, validDoc))
	require.NoError(t, err)
	assert.Equal(t, "override.internal", cfg.Graphite.Host)
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	err := Validate(Schema, []byte(`{not json`))
	assert.Error(t, err)
}
