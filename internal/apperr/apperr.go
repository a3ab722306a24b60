// Package apperr 定义了编排流程使用的错误分类。
// 处理器层通过 errors.Is / errors.As 将其映射为 HTTP 状态码。
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 表示会话/画像/产品/用户记录缺失，或归属校验失败。
	ErrNotFound = errors.New("ressource introuvable")
	// ErrConflict 表示会话已经启动过，拒绝二次启动。
	ErrConflict = errors.New("conversation déjà démarrée")
	// ErrPrecondition 表示依赖的前置状态缺失（如远端 agent 未配置）。
	ErrPrecondition = errors.New("précondition non satisfaite")
	// ErrParse 表示 LLM 返回的 JSON 无法解析。只在本地恢复，从不向上传播。
	ErrParse = errors.New("réponse du modèle non analysable")
)

// UpstreamError 表示第三方服务商的 HTTP 调用失败，携带状态码与响应体用于诊断。
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

// Error 实现 error 接口。
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("appel %s échoué: status=%d body=%s", e.Provider, e.Status, e.Body)
}

// NewUpstream 构造一个 UpstreamError。
func NewUpstream(provider string, status int, body string) *UpstreamError {
	return &UpstreamError{Provider: provider, Status: status, Body: body}
}

// IsUpstream 判断错误链中是否包含 UpstreamError。
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
