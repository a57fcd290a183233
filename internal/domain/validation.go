package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// 验证相关的错误定义
var (
	ErrFieldRequired = errors.New("field is required")
	ErrFieldTooLong  = errors.New("field too long")
	ErrInvalidID     = errors.New("invalid record id format")
)

// 验证常量
const (
	MaxSubjectLength = 500  // 主题最大长度
	MaxAddressLength = 255  // 收件人/发件人地址最大长度
	MaxContentLength = 1 << 20 // 正文最大长度（1MB）
)

// UUID 格式校验（ID 直接用作存储键/文件名，必须限制字符集）
var recordIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidateRecordID 校验记录 ID 是否为合法的 UUID 字符串。
func ValidateRecordID(id string) error {
	if !recordIDRegex.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

// ValidateRecordFields 校验四个业务字段均存在且非空。
//
// 返回的错误包装了 ErrFieldRequired / ErrFieldTooLong，
// 并带上出错的字段名，便于 HTTP 层生成 400 响应。
func ValidateRecordFields(record *Record) error {
	fields := []struct {
		name   string
		value  string
		maxLen int
	}{
		{"subject", record.Subject, MaxSubjectLength},
		{"content", record.Content, MaxContentLength},
		{"recipient", record.Recipient, MaxAddressLength},
		{"sender_email_address", record.SenderEmailAddress, MaxAddressLength},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s: %w", f.name, ErrFieldRequired)
		}
		if len(f.value) > f.maxLen {
			return fmt.Errorf("%s: %w", f.name, ErrFieldTooLong)
		}
	}

	return nil
}
