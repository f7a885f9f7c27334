package api

import (
	"net/http"

	"github.com/fox-gonic/fox"
)

// setupRuleRouters 设置合并规则视图路由
func (api *Api) setupRuleRouters(router *fox.Engine) {
	router.GET("/v1/sources", api.GetSources)
	router.GET("/v1/rules", api.GetRules)
	router.GET("/v1/rules/:source/:namespace/:group/:rule", api.GetRuleDetails)
	router.POST("/v1/rules/refresh", api.Refresh)
}

// GetSources 列出规则源及最近一次拉取的错误
func (api *Api) GetSources(c *fox.Context) {
	snap := api.ruleService.Snapshot()
	c.JSON(http.StatusOK, map[string]any{
		"sources":   snap.Sources,
		"version":   snap.Version,
		"fetchedAt": snap.FetchedAt,
		"errors":    snap.Errors,
	})
}

// GetRules 获取合并后的规则命名空间
// 可通过 source 参数只返回某个规则源
func (api *Api) GetRules(c *fox.Context) {
	source := c.Query("source")
	namespaces, snap, err := api.ruleService.Namespaces(c.Request.Context(), source)
	if err != nil {
		handleError(c, err, map[string]string{"source": source})
		return
	}

	c.JSON(http.StatusOK, map[string]any{
		"version":    snap.Version,
		"namespaces": namespaces,
	})
}

// GetRuleDetails 获取单条合并规则的详情
func (api *Api) GetRuleDetails(c *fox.Context) {
	extras := map[string]string{
		"source":    c.Param("source"),
		"namespace": c.Param("namespace"),
		"group":     c.Param("group"),
		"rule":      c.Param("rule"),
	}
	details, err := api.ruleService.Details(c.Request.Context(),
		extras["source"], extras["namespace"], extras["group"], extras["rule"])
	if err != nil {
		handleError(c, err, extras)
		return
	}

	c.JSON(http.StatusOK, details)
}

// Refresh 立即重新拉取所有规则源
func (api *Api) Refresh(c *fox.Context) {
	snap, err := api.ruleService.Refresh(c.Request.Context())
	if err != nil {
		handleError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"version": snap.Version,
		"errors":  snap.Errors,
	})
}

