package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fox-gonic/fox"
	"gopkg.in/yaml.v3"

	"github.com/qiniu/ruleview/internal/rules/model"
	"github.com/qiniu/ruleview/internal/rules/ruler"
)

const yamlContentType = "application/yaml; charset=utf-8"

// setupRulerRouters 设置内置规则组管理路由
func (api *Api) setupRulerRouters(router *fox.Engine) {
	router.GET("/v1/ruler", api.ListRulerNamespaces)
	router.GET("/v1/ruler/:namespace", api.GetRulerNamespace)
	router.DELETE("/v1/ruler/:namespace", api.DeleteRulerNamespace)
	router.GET("/v1/ruler/:namespace/:group", api.GetRulerGroup)
	router.PUT("/v1/ruler/:namespace/:group", api.PutRulerGroup)
	router.DELETE("/v1/ruler/:namespace/:group", api.DeleteRulerGroup)
}

// ListRulerNamespaces 以 ruler 兼容的 YAML 格式导出全部内置规则组
// 其他 ruleview 实例可以把本接口配置为外部规则源的 ruler 地址
func (api *Api) ListRulerNamespaces(c *fox.Context) {
	snapshot, err := api.ruleService.RulerNamespaces(c.Request.Context())
	if err != nil {
		handleError(c, err, nil)
		return
	}
	if len(snapshot) == 0 {
		SendErrorResponse(c, http.StatusNotFound, model.ErrorCodeGroupNotFound, "no rule groups configured", nil)
		return
	}

	data, err := ruler.EncodeNamespaces(snapshot)
	if err != nil {
		handleError(c, err, nil)
		return
	}
	c.Data(http.StatusOK, yamlContentType, data)
}

// GetRulerNamespace 获取命名空间下的全部内置规则组
// format=yaml 时返回 Prometheus 规则文件
func (api *Api) GetRulerNamespace(c *fox.Context) {
	namespace := c.Param("namespace")
	groups, err := api.ruleService.GetRulerNamespace(c.Request.Context(), namespace)
	if err != nil {
		handleError(c, err, map[string]string{"namespace": namespace})
		return
	}

	if c.Query("format") == "yaml" {
		data, err := ruler.EncodeRuleFile(groups)
		if err != nil {
			handleError(c, err, map[string]string{"namespace": namespace})
			return
		}
		c.Data(http.StatusOK, yamlContentType, data)
		return
	}

	defs := make([]model.RuleGroupDefinition, 0, len(groups))
	for _, g := range groups {
		defs = append(defs, g.Definition())
	}
	c.JSON(http.StatusOK, map[string]any{
		"namespace": namespace,
		"groups":    defs,
	})
}

// GetRulerGroup 获取单个内置规则组
func (api *Api) GetRulerGroup(c *fox.Context) {
	extras := map[string]string{"namespace": c.Param("namespace"), "group": c.Param("group")}
	group, err := api.ruleService.GetRulerGroup(c.Request.Context(), extras["namespace"], extras["group"])
	if err != nil {
		handleError(c, err, extras)
		return
	}

	c.JSON(http.StatusOK, group.Definition())
}

// PutRulerGroup 创建或替换内置规则组
// 请求体可以是 JSON，也可以是与 Cortex/Mimir ruler 相同的 YAML 格式
func (api *Api) PutRulerGroup(c *fox.Context) {
	namespace := c.Param("namespace")
	name := c.Param("group")
	extras := map[string]string{"namespace": namespace, "group": name}

	def, err := decodeGroup(c.Request)
	if err != nil {
		SendErrorResponse(c, http.StatusBadRequest, model.ErrorCodeInvalidParameter,
			"Invalid request body: "+err.Error(), extras)
		return
	}
	if def.Name == "" {
		def.Name = name
	}
	if def.Name != name {
		SendErrorResponse(c, http.StatusBadRequest, model.ErrorCodeInvalidParameter,
			fmt.Sprintf("group name '%s' in body does not match path '%s'", def.Name, name), extras)
		return
	}

	created, err := api.ruleService.UpsertRulerGroup(c.Request.Context(), namespace, def)
	if err != nil {
		handleError(c, err, extras)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, map[string]any{
		"status":  "success",
		"created": created,
		"message": fmt.Sprintf("Rule group '%s/%s' saved", namespace, name),
	})
}

// DeleteRulerGroup 删除内置规则组
func (api *Api) DeleteRulerGroup(c *fox.Context) {
	extras := map[string]string{"namespace": c.Param("namespace"), "group": c.Param("group")}
	if err := api.ruleService.DeleteRulerGroup(c.Request.Context(), extras["namespace"], extras["group"]); err != nil {
		handleError(c, err, extras)
		return
	}

	c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Rule group '%s/%s' deleted", extras["namespace"], extras["group"]),
	})
}

// DeleteRulerNamespace 删除命名空间下的全部内置规则组
func (api *Api) DeleteRulerNamespace(c *fox.Context) {
	namespace := c.Param("namespace")
	if err := api.ruleService.DeleteRulerNamespace(c.Request.Context(), namespace); err != nil {
		handleError(c, err, map[string]string{"namespace": namespace})
		return
	}

	c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Namespace '%s' deleted", namespace),
	})
}

func decodeGroup(r *http.Request) (model.RuleGroupDefinition, error) {
	var def model.RuleGroupDefinition
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return def, err
	}
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		err = yaml.Unmarshal(body, &def)
	} else {
		err = json.Unmarshal(body, &def)
	}
	return def, err
}
