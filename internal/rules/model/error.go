package model

import "fmt"

// 错误码常量
const (
	ErrorCodeInvalidParameter = "INVALID_PARAMETER"
	ErrorCodeSourceNotFound   = "SOURCE_NOT_FOUND"
	ErrorCodeRuleNotFound     = "RULE_NOT_FOUND"
	ErrorCodeGroupNotFound    = "GROUP_NOT_FOUND"
	ErrorCodeInvalidGroup     = "INVALID_GROUP"
	ErrorCodeUpstreamError    = "UPSTREAM_ERROR"
	ErrorCodeInternalError    = "INTERNAL_ERROR"
)

// ===== 错误响应结构体 =====

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Source    string `json:"source,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Group     string `json:"group,omitempty"`
	Rule      string `json:"rule,omitempty"`
}

// ===== 自定义错误类型 =====

// SourceNotFoundError 规则源不存在
type SourceNotFoundError struct {
	Source string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("rule source '%s' not found", e.Source)
}

// RuleNotFoundError 合并视图中找不到指定规则
type RuleNotFoundError struct {
	Source    string
	Namespace string
	Group     string
	Rule      string
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("rule '%s' not found in %s/%s/%s", e.Rule, e.Source, e.Namespace, e.Group)
}
