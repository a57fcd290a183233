package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"recordvault/backend/internal/domain"
	"recordvault/backend/internal/storage"
)

// Store 文件系统存储实现。
//
// 布局：每条记录一个 JSON 文件，以 ID 作为文件名主干：
//
//	{basePath}/records/{id}.json
//
// 所有写操作（保存、删除）经由单一互斥锁串行化，相当于单写者队列；
// 扫描在 os.ReadDir 的快照上进行，容忍其它位置的并发增删。
type Store struct {
	basePath   string
	recordsDir string

	// mu 串行化所有变更操作。删除的存在性检查与移除在同一临界区内，
	// 两个并发删除不会同时观察到条目存在。
	mu sync.Mutex
}

// NewStore 创建文件系统存储实例。
//
// 记录目录在此一次性创建，重复调用幂等。
func NewStore(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path must not be empty")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base path: %w", err)
	}

	recordsDir := filepath.Join(absPath, "records")
	if err := os.MkdirAll(recordsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}

	return &Store{
		basePath:   absPath,
		recordsDir: recordsDir,
	}, nil
}

// SaveRecord 将记录持久化为 {id}.json。
//
// 写入是崩溃安全的：先写同目录临时文件并 fsync，再原子 rename 到目标名，
// 最后 fsync 目录。函数返回成功后，记录可以在进程崩溃后幸存。
func (s *Store) SaveRecord(record *domain.Record) error {
	if err := domain.ValidateRecordID(record.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeFileDurable(s.recordPath(record.ID), data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// GetRecord 按 ID 读取记录。
func (s *Store) GetRecord(id string) (*domain.Record, error) {
	if err := domain.ValidateRecordID(id); err != nil {
		return nil, storage.ErrRecordNotFound
	}

	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var record domain.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}

// FindRecordBySubject 线性扫描所有记录，返回第一个主题相等的记录。
//
// os.ReadDir 返回按文件名排序的目录项，因此枚举顺序在条目集合
// 不变时是稳定的。扫描过程中其它条目被增删不会导致失败：
// 读到一半消失的文件直接跳过。
func (s *Store) FindRecordBySubject(subject string) (*domain.Record, error) {
	entries, err := os.ReadDir(s.recordsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan records directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.recordsDir, entry.Name()))
		if err != nil {
			if os.IsNotExist(err) {
				continue // 条目在扫描期间被并发删除
			}
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		var record domain.Record
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		if record.Subject == subject {
			return &record, nil
		}
	}

	return nil, storage.ErrRecordNotFound
}

// DeleteRecord 删除指定 ID 的记录文件。
func (s *Store) DeleteRecord(id string) error {
	if err := domain.ValidateRecordID(id); err != nil {
		return storage.ErrRecordNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.recordPath(id)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrRecordNotFound
		}
		return fmt.Errorf("failed to stat record: %w", err)
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrRecordNotFound
		}
		return fmt.Errorf("failed to remove record: %w", err)
	}
	return nil
}

// CountRecords 返回当前记录文件数。
func (s *Store) CountRecords() (int, error) {
	entries, err := os.ReadDir(s.recordsDir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan records directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			count++
		}
	}
	return count, nil
}

// Health 校验记录目录仍然可访问。
func (s *Store) Health() error {
	if _, err := os.Stat(s.recordsDir); err != nil {
		return fmt.Errorf("records directory unavailable: %w", err)
	}
	return nil
}

// Close 文件系统存储无需释放资源。
func (s *Store) Close() error {
	return nil
}

// recordPath 计算记录文件的完整路径。
// 调用方必须先通过 domain.ValidateRecordID 校验 ID，防止路径穿越。
func (s *Store) recordPath(id string) string {
	return filepath.Join(s.recordsDir, id+".json")
}

// writeFileDurable 原子且持久地写入文件。
//
// 步骤：同目录临时文件 -> 写入 -> fsync -> close -> rename -> fsync 目录。
// 任一步失败时清理临时文件，目标文件要么保持旧内容要么是完整新内容。
func (s *Store) writeFileDurable(dstPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(s.recordsDir, filepath.Base(dstPath)+".tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	cleanup := func(err error) error {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}

	if _, err := tmpFile.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmpFile.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// rename 之后同步目录，保证目录项本身落盘
	if dir, err := os.Open(s.recordsDir); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}

	return nil
}
