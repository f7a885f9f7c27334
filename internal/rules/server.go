// Package rules wires the rule view: stores, upstream clients, the snapshot
// poller, the reconciling service and its HTTP API.
package rules

import (
	"context"
	"fmt"

	"github.com/fox-gonic/fox"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/qiniu/ruleview/internal/config"
	"github.com/qiniu/ruleview/internal/database"
	"github.com/qiniu/ruleview/internal/rules/api"
	"github.com/qiniu/ruleview/internal/rules/metrics"
	"github.com/qiniu/ruleview/internal/rules/model"
	"github.com/qiniu/ruleview/internal/rules/prom"
	"github.com/qiniu/ruleview/internal/rules/ruler"
	"github.com/qiniu/ruleview/internal/rules/service"
	"github.com/qiniu/ruleview/internal/rules/snapshot"
)

// Server 规则视图服务器
type Server struct {
	config      *config.Config
	db          *database.Database
	redis       *redis.Client
	registry    *prometheus.Registry
	poller      *snapshot.Poller
	ruleService *service.RuleService
	api         *api.Api
}

// NewServer 根据配置创建规则视图服务器
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{config: cfg, registry: prometheus.NewRegistry()}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(s.registry)

	// 内置规则源的规则组存储
	var manager *ruler.Manager
	if hasBuiltin(cfg.Rules.Sources) {
		store, err := s.newStore(ctx)
		if err != nil {
			s.Close()
			return nil, err
		}
		manager = ruler.NewManager(store)
	}

	targets, err := newTargets(cfg.Rules.Sources, manager)
	if err != nil {
		s.Close()
		return nil, err
	}

	// 上游故障时回退到 Redis 中的最近一次成功结果
	s.redis = snapshot.NewRedisClientFromConfig(&cfg.Redis)
	fetcher := snapshot.NewFetcher(targets,
		snapshot.WithTimeout(cfg.Rules.GetFetchTimeout()),
		snapshot.WithLastKnownStore(snapshot.NewLastKnownStore(s.redis, cfg.Rules.GetLastKnownTTL())),
		snapshot.WithMetrics(m),
	)
	s.poller = snapshot.NewPoller(fetcher, cfg.Rules.GetPollInterval())
	s.ruleService = service.NewRuleService(s.poller, manager, m)

	log.Info().
		Int("source_count", len(targets)).
		Bool("builtin", manager != nil).
		Bool("redis", s.redis != nil).
		Msg("Rule view initialized successfully")
	return s, nil
}

func (s *Server) newStore(ctx context.Context) (ruler.Store, error) {
	if !s.config.Database.Enabled {
		log.Warn().Msg("database disabled, builtin rule groups are kept in memory")
		return ruler.NewMemStore(), nil
	}
	d := s.config.Database
	db, err := database.New(database.DSN(d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode))
	if err != nil {
		return nil, err
	}
	s.db = db
	store := ruler.NewPgStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// newTargets 为每个规则源创建上游客户端
func newTargets(sources []config.SourceConfig, manager *ruler.Manager) ([]snapshot.Target, error) {
	targets := make([]snapshot.Target, 0, len(sources))
	for _, sc := range sources {
		promClient, err := prom.NewClient(sc.PrometheusURL)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}
		switch sc.Type {
		case config.SourceTypeBuiltin:
			targets = append(targets, snapshot.Target{
				Source:    model.BuiltinSource(),
				Declared:  manager,
				Evaluated: promClient,
			})
		case config.SourceTypePrometheus:
			rulerClient, err := ruler.NewClient(sc.RulerURL, sc.RulerPath)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", sc.Name, err)
			}
			targets = append(targets, snapshot.Target{
				Source:    model.ExternalSource(sc.Name),
				Declared:  rulerClient,
				Evaluated: promClient,
			})
		default:
			return nil, fmt.Errorf("source %s: unknown type %q", sc.Name, sc.Type)
		}
	}
	return targets, nil
}

func hasBuiltin(sources []config.SourceConfig) bool {
	for _, sc := range sources {
		if sc.Type == config.SourceTypeBuiltin {
			return true
		}
	}
	return false
}

// Start 启动后台快照轮询
func (s *Server) Start(ctx context.Context) {
	go s.poller.Start(ctx)
}

// Refresh 同步拉取一次快照（供命令行使用）
func (s *Server) Refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	return s.poller.Refresh(ctx)
}

// RuleService 返回规则服务
func (s *Server) RuleService() *service.RuleService { return s.ruleService }

// UseApi 设置 API 路由
func (s *Server) UseApi(router *fox.Engine) error {
	var err error
	s.api, err = api.NewApi(s.ruleService, s.registry, router)
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}
	return nil
}

// Close 关闭数据库与 Redis 连接
func (s *Server) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis")
		}
	}
	log.Info().Msg("Rule view server shut down")
}
