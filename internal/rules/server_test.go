package rules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fox-gonic/fox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiniu/ruleview/internal/config"
	"github.com/qiniu/ruleview/internal/rules/model"
)

// rulesAPI serves an empty Prometheus rules response and an empty ruler.
func rulesAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/rules":
			if r.Header.Get("Accept") == "application/yaml" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"success","data":{"groups":[]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BindAddr: "127.0.0.1:0"},
		Rules: config.RulesConfig{
			PollInterval: "1m",
			FetchTimeout: "5s",
			LastKnownTTL: "1h",
			Sources: []config.SourceConfig{
				{Name: "local", Type: config.SourceTypeBuiltin, PrometheusURL: url},
				{Name: "mimir", Type: config.SourceTypePrometheus, PrometheusURL: url, RulerURL: url},
			},
		},
	}
}

func TestNewServer(t *testing.T) {
	upstream := rulesAPI(t)
	ctx := context.Background()

	srv, err := NewServer(ctx, testConfig(upstream.URL))
	require.NoError(t, err)
	defer srv.Close()

	snap, err := srv.Refresh(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Errors)
	assert.Equal(t, []model.RuleSource{model.BuiltinSource(), model.ExternalSource("mimir")}, snap.Sources)

	_, err = srv.RuleService().UpsertRulerGroup(ctx, "core", model.RuleGroupDefinition{
		Name:  "g",
		Rules: []model.RuleDefinition{{Alert: "A", Expr: "up == 0"}},
	})
	require.NoError(t, err)

	router := fox.New()
	require.NoError(t, srv.UseApi(router))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/rules/builtin/core/g/A", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), model.MatchDeclaredOnly)
}

func TestNewTargetsRejectsUnknownType(t *testing.T) {
	_, err := newTargets([]config.SourceConfig{{Name: "x", Type: "loki", PrometheusURL: "http://p:9090"}}, nil)
	assert.Error(t, err)
}
