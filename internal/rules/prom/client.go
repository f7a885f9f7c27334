package prom

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	promModel "github.com/prometheus/common/model"
	"github.com/qiniu/ruleview/internal/rules/model"
	"github.com/rs/zerolog/log"
)

// Client 读取 Prometheus 兼容规则引擎的规则评估结果
type Client struct {
	api     v1.API
	baseURL string
}

// NewClient 创建新的 Prometheus 规则客户端
func NewClient(address string) (*Client, error) {
	client, err := api.NewClient(api.Config{
		Address: address,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	return NewClientFromAPI(v1.NewAPI(client), address), nil
}

// NewClientFromAPI 基于已有的 v1.API 构建客户端（测试中可注入）
func NewClientFromAPI(a v1.API, baseURL string) *Client {
	return &Client{api: a, baseURL: baseURL}
}

// Address 返回 Prometheus 地址
func (c *Client) Address() string { return c.baseURL }

// Rules 获取当前加载的全部规则及其评估结果，按规则文件归并为命名空间
func (c *Client) Rules(ctx context.Context) ([]model.PromNamespace, error) {
	start := time.Now()
	result, err := c.api.Rules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query prometheus rules: %w", err)
	}

	namespaces := GroupsToNamespaces(result.Groups)
	log.Debug().
		Str("address", c.baseURL).
		Int("group_count", len(result.Groups)).
		Int("namespace_count", len(namespaces)).
		Dur("elapsed", time.Since(start)).
		Msg("Retrieved rules from Prometheus")
	return namespaces, nil
}

// GroupsToNamespaces 按 file 字段把规则组归并为命名空间，保持出现顺序
func GroupsToNamespaces(groups []v1.RuleGroup) []model.PromNamespace {
	namespaces := make([]model.PromNamespace, 0)
	index := make(map[string]int)
	for _, g := range groups {
		group := convertGroup(g)
		i, ok := index[g.File]
		if !ok {
			i = len(namespaces)
			index[g.File] = i
			namespaces = append(namespaces, model.PromNamespace{Name: g.File})
		}
		namespaces[i].Groups = append(namespaces[i].Groups, group)
	}
	return namespaces
}

func convertGroup(g v1.RuleGroup) model.PromRuleGroup {
	group := model.PromRuleGroup{
		Name:     g.Name,
		File:     g.File,
		Interval: g.Interval,
		Rules:    make([]model.PromRule, 0, len(g.Rules)),
	}
	for _, r := range g.Rules {
		switch rule := r.(type) {
		case v1.AlertingRule:
			group.Rules = append(group.Rules, convertAlertingRule(&rule))
		case *v1.AlertingRule:
			group.Rules = append(group.Rules, convertAlertingRule(rule))
		case v1.RecordingRule:
			group.Rules = append(group.Rules, convertRecordingRule(&rule))
		case *v1.RecordingRule:
			group.Rules = append(group.Rules, convertRecordingRule(rule))
		default:
			// 未知规则类型直接跳过，不影响其余规则
			log.Warn().Str("group", g.Name).Str("file", g.File).Msgf("unsupported rule type %T", r)
		}
	}
	return group
}

func convertAlertingRule(r *v1.AlertingRule) *model.AlertingPromRule {
	alerts := make([]model.Alert, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		if a == nil {
			continue
		}
		alert := model.Alert{
			Labels:      labelSetToMap(a.Labels),
			Annotations: labelSetToMap(a.Annotations),
			State:       string(a.State),
			Value:       a.Value,
		}
		if !a.ActiveAt.IsZero() {
			activeAt := a.ActiveAt
			alert.ActiveAt = &activeAt
		}
		alerts = append(alerts, alert)
	}
	return &model.AlertingPromRule{
		Name:           r.Name,
		Query:          r.Query,
		Duration:       r.Duration,
		Labels:         labelSetToMap(r.Labels),
		Annotations:    labelSetToMap(r.Annotations),
		Alerts:         alerts,
		State:          r.State,
		Health:         string(r.Health),
		LastError:      r.LastError,
		LastEvaluation: r.LastEvaluation,
		EvaluationTime: r.EvaluationTime,
	}
}

func convertRecordingRule(r *v1.RecordingRule) *model.RecordingPromRule {
	return &model.RecordingPromRule{
		Name:           r.Name,
		Query:          r.Query,
		Labels:         labelSetToMap(r.Labels),
		Health:         string(r.Health),
		LastError:      r.LastError,
		LastEvaluation: r.LastEvaluation,
		EvaluationTime: r.EvaluationTime,
	}
}

// labelSetToMap 返回 nil 表示上游未提供标签，比较时视为空
func labelSetToMap(ls promModel.LabelSet) map[string]string {
	if ls == nil {
		return nil
	}
	m := make(map[string]string, len(ls))
	for k, v := range ls {
		m[string(k)] = string(v)
	}
	return m
}
