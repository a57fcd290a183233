package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recordvault/backend/internal/domain"
	"recordvault/backend/internal/storage"
)

var (
	// ErrNoLookupCriteria 查找/删除时 id 与 subject 均未提供
	ErrNoLookupCriteria = errors.New("either id or subject is required")
)

// RecordService 封装记录的创建、查找与删除逻辑。
type RecordService struct {
	store  storage.Store
	logger *zap.Logger
}

// NewRecordService 创建记录业务服务。
func NewRecordService(store storage.Store, logger *zap.Logger) *RecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{store: store, logger: logger}
}

// CreateRecordInput 定义创建记录的输入。
type CreateRecordInput struct {
	Subject            string
	Content            string
	Recipient          string
	SenderEmailAddress string
}

// Create 新建一条记录。
//
// ID 在本地由加密安全的随机源生成（UUIDv4），无需跨请求协调；
// 碰撞概率视为可忽略，不做重试。存储返回成功即代表写入已持久化。
func (s *RecordService) Create(input CreateRecordInput) (*domain.Record, error) {
	record := &domain.Record{
		ID:                 uuid.NewString(),
		Subject:            input.Subject,
		Content:            input.Content,
		Recipient:          input.Recipient,
		SenderEmailAddress: input.SenderEmailAddress,
		CreatedAt:          time.Now().UTC(),
	}

	if err := domain.ValidateRecordFields(record); err != nil {
		return nil, err
	}

	if err := s.store.SaveRecord(record); err != nil {
		s.logger.Error("failed to persist record",
			zap.String("record_id", record.ID),
			zap.Error(err),
		)
		return nil, err
	}

	return record, nil
}

// Find 按 id 或 subject 查找记录。
//
// 两者同时提供时 id 优先，subject 被忽略；
// 两者均缺失时返回 ErrNoLookupCriteria，不触碰存储。
func (s *RecordService) Find(id, subject string) (*domain.Record, error) {
	switch {
	case id != "":
		return s.store.GetRecord(id)
	case subject != "":
		return s.store.FindRecordBySubject(subject)
	default:
		return nil, ErrNoLookupCriteria
	}
}

// DeleteResult 描述一次删除操作命中的条目与匹配方式。
type DeleteResult struct {
	ID        string // 被删除记录的 ID
	MatchedBy string // "id" 或 "subject"
}

// Delete 按与 Find 相同的规则定位记录并删除，每次调用至多删除一条。
//
// 按 subject 删除时，定位与删除之间可能与其它删除操作竞争：
// 解析到的条目已被别人删掉时重试一次定位，这样两个针对重复
// 主题的连续删除各自删掉一条，而不会过早报告未找到。
func (s *RecordService) Delete(id, subject string) (*DeleteResult, error) {
	if id == "" && subject == "" {
		return nil, ErrNoLookupCriteria
	}

	if id != "" {
		if err := s.store.DeleteRecord(id); err != nil {
			return nil, err
		}
		return &DeleteResult{ID: id, MatchedBy: "id"}, nil
	}

	// subject 路径：扫描定位第一个匹配，再按其 ID 删除
	for attempt := 0; attempt < 2; attempt++ {
		record, err := s.store.FindRecordBySubject(subject)
		if err != nil {
			return nil, err
		}

		err = s.store.DeleteRecord(record.ID)
		if err == nil {
			return &DeleteResult{ID: record.ID, MatchedBy: "subject"}, nil
		}
		if !errors.Is(err, storage.ErrRecordNotFound) {
			return nil, err
		}

		// 定位到的条目已被并发删除，重新定位
		s.logger.Debug("record vanished between scan and delete, retrying",
			zap.String("record_id", record.ID),
			zap.String("subject", subject),
		)
	}

	return nil, storage.ErrRecordNotFound
}

// Count 返回当前记录条数。
func (s *RecordService) Count() (int, error) {
	return s.store.CountRecords()
}
