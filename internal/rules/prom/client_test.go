package prom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qiniu/ruleview/internal/rules/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rulesResponse = `{
  "status": "success",
  "data": {
    "groups": [
      {
        "name": "g1",
        "file": "n1",
        "interval": 60,
        "rules": [
          {
            "type": "alerting",
            "name": "HighLoad",
            "query": "cpu > 0.9",
            "duration": 300,
            "labels": {"team": "x"},
            "annotations": {"summary": "load is high"},
            "alerts": [
              {
                "labels": {"alertname": "HighLoad", "instance": "a"},
                "annotations": {"summary": "load is high"},
                "state": "firing",
                "activeAt": "2024-01-01T00:00:00Z",
                "value": "9.5e-01"
              }
            ],
            "health": "ok",
            "state": "firing",
            "evaluationTime": 0.001,
            "lastEvaluation": "2024-01-01T00:01:00Z"
          },
          {
            "type": "recording",
            "name": "job:up:sum",
            "query": "sum by (job) (up)",
            "health": "ok",
            "evaluationTime": 0.001,
            "lastEvaluation": "2024-01-01T00:01:00Z"
          }
        ]
      },
      {
        "name": "g2",
        "file": "n2",
        "interval": 30,
        "rules": []
      },
      {
        "name": "g3",
        "file": "n1",
        "interval": 30,
        "rules": []
      }
    ]
  }
}`

func TestClientRules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/rules" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(rulesResponse))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, c.Address())

	namespaces, err := c.Rules(context.Background())
	require.NoError(t, err)
	require.Len(t, namespaces, 2)

	assert.Equal(t, "n1", namespaces[0].Name)
	require.Len(t, namespaces[0].Groups, 2)
	assert.Equal(t, "g1", namespaces[0].Groups[0].Name)
	assert.Equal(t, "g3", namespaces[0].Groups[1].Name)
	assert.Equal(t, "n2", namespaces[1].Name)

	rules := namespaces[0].Groups[0].Rules
	require.Len(t, rules, 2)

	alerting, ok := rules[0].(*model.AlertingPromRule)
	require.True(t, ok, "expected alerting rule, got %T", rules[0])
	assert.Equal(t, "HighLoad", alerting.Name)
	assert.Equal(t, map[string]string{"team": "x"}, alerting.Labels)
	assert.Equal(t, "firing", alerting.State)
	require.Len(t, alerting.Alerts, 1)
	assert.Equal(t, "firing", alerting.Alerts[0].State)
	require.NotNil(t, alerting.Alerts[0].ActiveAt)

	recording, ok := rules[1].(*model.RecordingPromRule)
	require.True(t, ok, "expected recording rule, got %T", rules[1])
	assert.Equal(t, "job:up:sum", recording.Name)
	assert.Nil(t, recording.Labels)
}

func TestClientRulesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","errorType":"internal","error":"boom"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Rules(context.Background())
	assert.Error(t, err)
}
