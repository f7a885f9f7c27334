package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROMETHEUS_URL", "")
	t.Setenv("RULES_SOURCES_FILE", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.BindAddr)
	assert.Equal(t, 30*time.Second, cfg.Rules.GetPollInterval())
	assert.Equal(t, 10*time.Second, cfg.Rules.GetFetchTimeout())
	assert.Equal(t, 24*time.Hour, cfg.Rules.GetLastKnownTTL())
	assert.False(t, cfg.Database.Enabled)
	assert.Empty(t, cfg.Rules.Sources)
}

func TestLoadFileWithSourcesFile(t *testing.T) {
	t.Setenv("PROMETHEUS_URL", "")
	sources := writeFile(t, "sources.yml", `
sources:
  - name: mimir
    type: prometheus
    prometheus_url: http://mimir:8080/prometheus
    ruler_url: http://mimir:8080
    ruler_path: /prometheus/config/v1/rules
`)
	path := writeFile(t, "config.json", `{
  "logging": {"level": "warn", "console": true},
  "rules": {
    "pollInterval": "1m",
    "sourcesFile": "`+sources+`",
    "sources": [{"name": "local", "type": "builtin", "prometheusURL": "http://localhost:9090"}]
  }
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Console)
	assert.Equal(t, time.Minute, cfg.Rules.GetPollInterval())
	require.Len(t, cfg.Rules.Sources, 2)
	assert.Equal(t, "local", cfg.Rules.Sources[0].Name)
	assert.Equal(t, SourceConfig{
		Name:          "mimir",
		Type:          SourceTypePrometheus,
		PrometheusURL: "http://mimir:8080/prometheus",
		RulerURL:      "http://mimir:8080",
		RulerPath:     "/prometheus/config/v1/rules",
	}, cfg.Rules.Sources[1])
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	path := writeFile(t, "config.json", `{"rules": {"pollInterval": "soon"}}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rules.pollInterval")
}

func TestValidateSources(t *testing.T) {
	builtin := SourceConfig{Name: "local", Type: SourceTypeBuiltin, PrometheusURL: "http://localhost:9090"}
	external := SourceConfig{Name: "mimir", Type: SourceTypePrometheus, PrometheusURL: "http://m:8080", RulerURL: "http://m:8080"}

	tests := []struct {
		name    string
		sources []SourceConfig
		wantErr string
	}{
		{name: "valid", sources: []SourceConfig{builtin, external}},
		{name: "duplicate names", sources: []SourceConfig{external, external}, wantErr: "duplicate source name"},
		{
			name:    "two builtins",
			sources: []SourceConfig{builtin, {Name: "other", Type: SourceTypeBuiltin, PrometheusURL: "http://p:9090"}},
			wantErr: "only one builtin",
		},
		{
			name:    "missing ruler url",
			sources: []SourceConfig{{Name: "x", Type: SourceTypePrometheus, PrometheusURL: "http://p:9090"}},
			wantErr: "ruler url",
		},
		{
			name:    "bad prometheus url",
			sources: []SourceConfig{{Name: "x", Type: SourceTypeBuiltin, PrometheusURL: "ftp://p"}},
			wantErr: "unsupported scheme",
		},
		{
			name:    "external named builtin",
			sources: []SourceConfig{{Name: "builtin", Type: SourceTypePrometheus, PrometheusURL: "http://p:9090", RulerURL: "http://p:9090"}},
			wantErr: "reserved",
		},
		{name: "unknown type", sources: []SourceConfig{{Name: "x", Type: "loki"}}, wantErr: "unknown type"},
		{name: "missing name", sources: []SourceConfig{{Type: SourceTypeBuiltin, PrometheusURL: "http://p:9090"}}, wantErr: "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSources(tt.sources)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
