package httptransport

import (
	"errors"

	"recordvault/backend/internal/domain"
	"recordvault/backend/internal/service"
	"recordvault/backend/internal/storage"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = []struct {
	err error
	msg string
}{
	{storage.ErrRecordNotFound, "记录不存在"},
	{service.ErrNoLookupCriteria, "必须提供 id 或 subject"},
	{domain.ErrFieldRequired, "必填字段缺失或为空"},
	{domain.ErrFieldTooLong, "字段超出长度限制"},
}

// GetErrorMessage 获取错误的中文消息
//
// 校验类错误附带字段名（如 "subject: field is required"），
// 一并返回便于客户端定位。
func GetErrorMessage(err error) string {
	for _, entry := range errorMessages {
		if errors.Is(err, entry.err) {
			if entry.err == domain.ErrFieldRequired || entry.err == domain.ErrFieldTooLong {
				return entry.msg + ": " + err.Error()
			}
			return entry.msg
		}
	}
	return err.Error()
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "请求参数格式错误"

	// 记录相关
	MsgRecordCreateFailed = "创建记录失败"
	MsgRecordNotFound     = "记录不存在"
	MsgRecordGetFailed    = "获取记录失败"
	MsgRecordDeleteFailed = "删除记录失败"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)
