package ruler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/api"
	"github.com/qiniu/ruleview/internal/rules/model"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultRulesPath is the Cortex/Mimir/Loki ruler endpoint that lists every
// rule group by namespace.
const DefaultRulesPath = "/api/v1/rules"

// Client reads declared rule groups from a remote ruler.
type Client struct {
	client api.Client
	path   string
}

// NewClient creates a ruler client for address. An empty path selects
// DefaultRulesPath.
func NewClient(address, path string) (*Client, error) {
	c, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to create ruler client: %w", err)
	}
	if path == "" {
		path = DefaultRulesPath
	}
	return &Client{client: c, path: path}, nil
}

// Rules fetches all namespaces. A ruler without any rule groups answers 404,
// which is reported as an empty snapshot.
func (c *Client) Rules(ctx context.Context) (model.RulerSnapshot, error) {
	start := time.Now()
	u := c.client.URL(c.path, nil)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/yaml")

	resp, body, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.RulerSnapshot{}, nil
	case resp.StatusCode/100 != 2:
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}

	snapshot, err := ParseNamespaces(body)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("url", u.String()).
		Int("namespace_count", len(snapshot)).
		Dur("elapsed", time.Since(start)).
		Msg("Retrieved rule groups from ruler")
	return snapshot, nil
}

// ParseNamespaces decodes a ruler YAML document of the form
// `namespace: [rule group, ...]`, keeping namespaces in document order.
func ParseNamespaces(data []byte) (model.RulerSnapshot, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ruler response: %w", err)
	}
	out := make(model.RulerSnapshot, 0)
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return out, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse ruler response: expected a mapping of namespaces, got line %d", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var defs []model.RuleGroupDefinition
		if err := root.Content[i+1].Decode(&defs); err != nil {
			return nil, fmt.Errorf("failed to parse namespace %q: %w", name, err)
		}
		ns := model.RulerNamespace{Name: name, Groups: make([]model.RulerRuleGroup, 0, len(defs))}
		for _, d := range defs {
			ns.Groups = append(ns.Groups, d.Group())
		}
		out = append(out, ns)
	}
	return out, nil
}
