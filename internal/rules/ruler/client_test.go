package ruler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qiniu/ruleview/internal/rules/model"
)

const rulerYAML = `
zeta:
  - name: api
    interval: 1m
    rules:
      - alert: HighLatency
        expr: latency > 1
        for: 5m
        labels:
          severity: page
        annotations:
          summary: slow
alpha:
  - name: rec
    rules:
      - record: job:up:sum
        expr: sum by (job) (up)
`

func TestParseNamespaces_KeepsDocumentOrder(t *testing.T) {
	snap, err := ParseNamespaces([]byte(rulerYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(snap) != 2 || snap[0].Name != "zeta" || snap[1].Name != "alpha" {
		t.Fatalf("unexpected namespaces: %#v", snap)
	}
	alert, ok := snap[0].Groups[0].Rules[0].(*model.AlertingRulerRule)
	if !ok || alert.Alert != "HighLatency" || alert.For != "5m" || alert.Labels["severity"] != "page" {
		t.Fatalf("unexpected alerting rule: %#v", snap[0].Groups[0].Rules[0])
	}
	if snap[0].Groups[0].Interval != "1m" {
		t.Fatalf("interval not decoded: %#v", snap[0].Groups[0])
	}
	if _, ok := snap[1].Groups[0].Rules[0].(*model.RecordingRulerRule); !ok {
		t.Fatalf("expected recording rule: %#v", snap[1].Groups[0].Rules[0])
	}
}

func TestParseNamespaces_EmptyAndInvalid(t *testing.T) {
	snap, err := ParseNamespaces(nil)
	if err != nil || len(snap) != 0 {
		t.Fatalf("empty document: %#v, %v", snap, err)
	}
	if _, err := ParseNamespaces([]byte("- a\n- b\n")); err == nil {
		t.Fatalf("expected error for a sequence document")
	}
}

func TestClient_Rules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prometheus/config/v1/rules" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(rulerYAML))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "/prometheus/config/v1/rules")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	snap, err := c.Rules(context.Background())
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("expected 2 namespaces, got %d", len(snap))
	}
}

func TestClient_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c, err := NewClient(srv.URL, "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	snap, err := c.Rules(context.Background())
	if err != nil || len(snap) != 0 {
		t.Fatalf("404 should be an empty snapshot: %#v, %v", snap, err)
	}
}

func TestClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, "")
	_, err := c.Rules(context.Background())
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected *Error with 502, got %v", err)
	}
}
