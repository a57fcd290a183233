package memory

import (
	"sort"
	"sync"

	"recordvault/backend/internal/domain"
	"recordvault/backend/internal/storage"
)

// Store 使用内存保存记录数据，主要用于开发验证与测试隔离。
type Store struct {
	mu      sync.RWMutex
	records map[string]*domain.Record
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		records: make(map[string]*domain.Record),
	}
}

// SaveRecord 保存记录。
func (s *Store) SaveRecord(record *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records[record.ID] = &clone
	return nil
}

// GetRecord 根据 ID 获取记录。
func (s *Store) GetRecord(id string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, storage.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

// FindRecordBySubject 按主题扫描，返回 ID 升序下的第一个匹配，
// 与文件实现的按文件名排序的枚举顺序一致。
func (s *Store) FindRecordBySubject(subject string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if s.records[id].Subject == subject {
			clone := *s.records[id]
			return &clone, nil
		}
	}
	return nil, storage.ErrRecordNotFound
}

// DeleteRecord 删除记录。存在性检查与删除在同一写锁内完成。
func (s *Store) DeleteRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return storage.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

// CountRecords 返回当前记录数。
func (s *Store) CountRecords() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Health 内存存储始终健康。
func (s *Store) Health() error {
	return nil
}

// Close 内存存储无需释放资源。
func (s *Store) Close() error {
	return nil
}
