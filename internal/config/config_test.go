package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "modelc.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load([]string{"-config", filepath.Join(t.TempDir(), "absent.json")}, &bytes.Buffer{})
	require.NoError(t, err)
	want := Default()
	assert.Equal(t, want, cfg)
	assert.Equal(t, 0, cfg.ParseWorkers())
}

func TestLoad_Layering(t *testing.T) {
	p := writeJSON(t, `{"modelDir":"from-json","reportFormat":"json","workers":3,"dbSchema":"lib"}`)
	t.Setenv("MODELC_MODEL_DIR", "from-env")
	t.Setenv("MODELC_PARALLEL", "yes")
	t.Setenv("MODELC_LOG_LEVEL", "debug")

	cfg, err := Load([]string{"-config=" + p, "-port", "9090"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ModelDir)
	assert.Equal(t, "json", cfg.ReportFormat)
	assert.Equal(t, "lib", cfg.DBSchema)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, 3, cfg.ParseWorkers())

	// флаг и позиционный аргумент сильнее ENV
	cfg, err = Load([]string{"-config", p, "-format", "YAML", "./models"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "./models", cfg.ModelDir)
	assert.Equal(t, "yaml", cfg.ReportFormat)
}

func TestLoad_Errors(t *testing.T) {
	absent := filepath.Join(t.TempDir(), "absent.json")

	_, err := Load([]string{"-config", absent, "-format", "xml"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrReportFormat)

	_, err = Load([]string{"-config", absent, "-apply-ddl"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrDBURLRequired)

	_, err = Load([]string{"-config", absent, "-dir", " "}, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrModelDirRequired)

	var stderr bytes.Buffer
	_, err = Load([]string{"-config", absent, "-nope"}, &stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "-nope")

	bad := writeJSON(t, `{"modelDir":`)
	_, err = Load([]string{"-config", bad}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestParseWorkers(t *testing.T) {
	c := Default()
	c.Parallel = true
	c.Workers = 0
	assert.Equal(t, 2, c.ParseWorkers())
	c.Workers = 8
	assert.Equal(t, 8, c.ParseWorkers())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", "json", &buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)

	buf.Reset()
	NewLogger("bogus", "text", &buf).Debug("dbg")
	assert.Empty(t, buf.String())
	assert.True(t, NewLogger("debug", "", &buf).Enabled(t.Context(), slog.LevelDebug))
}
