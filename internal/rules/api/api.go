package api

import (
	"errors"
	"net/http"

	"github.com/fox-gonic/fox"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/qiniu/ruleview/internal/rules/model"
	"github.com/qiniu/ruleview/internal/rules/ruler"
	"github.com/qiniu/ruleview/internal/rules/service"
)

// Api 规则视图 API
type Api struct {
	ruleService *service.RuleService
	gatherer    prometheus.Gatherer
}

// NewApi 创建新的 API 并注册路由
func NewApi(ruleService *service.RuleService, gatherer prometheus.Gatherer, router *fox.Engine) (*Api, error) {
	if ruleService == nil {
		return nil, errors.New("rule service is required")
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	api := &Api{
		ruleService: ruleService,
		gatherer:    gatherer,
	}

	// namespaces of evaluated rules are file paths, so %2F must stay inside
	// one path segment
	router.UseRawPath = true
	router.UnescapePathValues = true
	api.setupRouters(router)
	return api, nil
}

// setupRouters 设置路由
func (api *Api) setupRouters(router *fox.Engine) {
	// 运维相关路由
	api.setupOpsRouters(router)
	// 合并规则视图路由
	api.setupRuleRouters(router)
	// 内置规则组管理路由
	api.setupRulerRouters(router)
}

func (api *Api) setupOpsRouters(router *fox.Engine) {
	metrics := promhttp.HandlerFor(api.gatherer, promhttp.HandlerOpts{})
	router.GET("/metrics", func(c *fox.Context) {
		metrics.ServeHTTP(c.Writer, c.Request)
	})
	router.GET("/healthz", api.Healthz)
}

// Healthz 健康检查，同时返回当前快照版本
func (api *Api) Healthz(c *fox.Context) {
	snap := api.ruleService.Snapshot()
	c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   snap.Version,
		"fetchedAt": snap.FetchedAt,
	})
}

// ========== 通用辅助方法 ==========

// SendErrorResponse 发送错误响应
func SendErrorResponse(c *fox.Context, statusCode int, errorCode, message string, extras map[string]string) {
	errorDetail := model.ErrorDetail{
		Code:    errorCode,
		Message: message,
	}

	// 添加额外的字段
	if extras != nil {
		errorDetail.Source = extras["source"]
		errorDetail.Namespace = extras["namespace"]
		errorDetail.Group = extras["group"]
		errorDetail.Rule = extras["rule"]
	}

	c.JSON(statusCode, model.ErrorResponse{Error: errorDetail})
}

// handleError 将业务错误映射为 HTTP 状态码与错误码
func handleError(c *fox.Context, err error, extras map[string]string) {
	var (
		sourceNotFound *model.SourceNotFoundError
		ruleNotFound   *model.RuleNotFoundError
		upstream       *ruler.Error
	)
	switch {
	case errors.As(err, &sourceNotFound):
		SendErrorResponse(c, http.StatusNotFound, model.ErrorCodeSourceNotFound, err.Error(), extras)
	case errors.As(err, &ruleNotFound):
		SendErrorResponse(c, http.StatusNotFound, model.ErrorCodeRuleNotFound, err.Error(), extras)
	case errors.Is(err, ruler.ErrGroupNotFound), errors.Is(err, ruler.ErrNamespaceNotFound):
		SendErrorResponse(c, http.StatusNotFound, model.ErrorCodeGroupNotFound, err.Error(), extras)
	case errors.Is(err, ruler.ErrInvalidGroup):
		SendErrorResponse(c, http.StatusBadRequest, model.ErrorCodeInvalidGroup, err.Error(), extras)
	case errors.Is(err, service.ErrNoBuiltinSource):
		SendErrorResponse(c, http.StatusNotFound, model.ErrorCodeSourceNotFound, err.Error(), extras)
	case errors.As(err, &upstream):
		SendErrorResponse(c, http.StatusBadGateway, model.ErrorCodeUpstreamError, err.Error(), extras)
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		SendErrorResponse(c, http.StatusInternalServerError, model.ErrorCodeInternalError, err.Error(), extras)
	}
}
