package storage

import (
	"errors"

	"recordvault/backend/internal/domain"
)

var (
	// ErrRecordNotFound 记录未找到错误
	ErrRecordNotFound = errors.New("record not found")
)

// Store 定义记录数据存取操作。
//
// 三种实现：filesystem（默认，文件落盘）、memory（开发/测试）、
// sql（MySQL/PostgreSQL）。启动时根据配置选择。
type Store interface {
	// SaveRecord 以 record.ID 为键持久化记录。
	// 返回成功即代表写入已落盘（文件实现为 fsync + rename）。
	SaveRecord(record *domain.Record) error

	// GetRecord 按 ID 直接查找。
	GetRecord(id string) (*domain.Record, error)

	// FindRecordBySubject 按主题线性扫描，返回稳定枚举顺序下的第一个匹配。
	FindRecordBySubject(subject string) (*domain.Record, error)

	// DeleteRecord 删除指定 ID 的记录。存在性检查与删除在同一临界区内完成，
	// 并发删除同一条目时只有一方成功，另一方收到 ErrRecordNotFound。
	DeleteRecord(id string) error

	// CountRecords 返回当前持久化的条目数。
	CountRecords() (int, error)

	// Health 存储健康检查。
	Health() error

	// Close 释放底层资源。
	Close() error
}
