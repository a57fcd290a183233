package service

import (
	"testing"

	"recordvault/backend/internal/domain"
	"recordvault/backend/internal/storage"
	"recordvault/backend/internal/storage/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() CreateRecordInput {
	return CreateRecordInput{
		Subject:            "hi",
		Content:            "c",
		Recipient:          "r@x.com",
		SenderEmailAddress: "s@x.com",
	}
}

func TestRecordService_CreateAndFind(t *testing.T) {
	svc := NewRecordService(memory.NewStore(), nil)

	record, err := svc.Create(validInput())
	require.NoError(t, err)

	// 生成的 ID 非空且为 UUID 格式
	require.NotEmpty(t, record.ID)
	_, err = uuid.Parse(record.ID)
	require.NoError(t, err)

	// create 后按 ID 查找，返回输入内容加上生成的 ID
	got, err := svc.Find(record.ID, "")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "hi", got.Subject)
	assert.Equal(t, "c", got.Content)
	assert.Equal(t, "r@x.com", got.Recipient)
	assert.Equal(t, "s@x.com", got.SenderEmailAddress)
}

func TestRecordService_Create_Validation(t *testing.T) {
	store := memory.NewStore()
	svc := NewRecordService(store, nil)

	tests := []struct {
		name   string
		mutate func(*CreateRecordInput)
	}{
		{"missing subject", func(in *CreateRecordInput) { in.Subject = "" }},
		{"missing content", func(in *CreateRecordInput) { in.Content = "" }},
		{"missing recipient", func(in *CreateRecordInput) { in.Recipient = "" }},
		{"missing sender", func(in *CreateRecordInput) { in.SenderEmailAddress = "" }},
		{"blank subject", func(in *CreateRecordInput) { in.Subject = "   " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)

			_, err := svc.Create(input)
			assert.ErrorIs(t, err, domain.ErrFieldRequired)

			// 校验失败不产生持久化条目
			count, err := store.CountRecords()
			require.NoError(t, err)
			assert.Equal(t, 0, count)
		})
	}
}

func TestRecordService_Create_UniqueIDs(t *testing.T) {
	svc := NewRecordService(memory.NewStore(), nil)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		record, err := svc.Create(validInput())
		require.NoError(t, err)
		require.False(t, seen[record.ID], "duplicate id %s", record.ID)
		seen[record.ID] = true
	}
}

func TestRecordService_Find_IDPrecedence(t *testing.T) {
	svc := NewRecordService(memory.NewStore(), nil)

	byID, err := svc.Create(validInput())
	require.NoError(t, err)

	other := validInput()
	other.Subject = "other-subject"
	bySubject, err := svc.Create(other)
	require.NoError(t, err)

	// 同时提供 id 和 subject 时，id 优先，subject 被忽略
	got, err := svc.Find(byID.ID, "other-subject")
	require.NoError(t, err)
	assert.Equal(t, byID.ID, got.ID)
	assert.NotEqual(t, bySubject.ID, got.ID)
}

func TestRecordService_Find_NoCriteria(t *testing.T) {
	svc := NewRecordService(memory.NewStore(), nil)

	_, err := svc.Find("", "")
	assert.ErrorIs(t, err, ErrNoLookupCriteria)
}

func TestRecordService_DeleteByID(t *testing.T) {
	svc := NewRecordService(memory.NewStore(), nil)

	record, err := svc.Create(validInput())
	require.NoError(t, err)

	result, err := svc.Delete(record.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "id", result.MatchedBy)
	assert.Equal(t, record.ID, result.ID)

	// delete 后查找返回未找到
	_, err = svc.Find(record.ID, "")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestRecordService_DeleteBySubject_DuplicateSubjects(t *testing.T) {
	store := memory.NewStore()
	svc := NewRecordService(store, nil)

	input := validInput()
	input.Subject = "dup"
	_, err := svc.Create(input)
	require.NoError(t, err)
	_, err = svc.Create(input)
	require.NoError(t, err)

	// 第一次删除恰好删掉一条
	result1, err := svc.Delete("", "dup")
	require.NoError(t, err)
	assert.Equal(t, "subject", result1.MatchedBy)

	count, err := store.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// 第二次同样的删除删掉另一条，而不是过早报未找到
	result2, err := svc.Delete("", "dup")
	require.NoError(t, err)
	assert.NotEqual(t, result1.ID, result2.ID)

	count, err = store.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// 第三次才是未找到
	_, err = svc.Delete("", "dup")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestRecordService_Delete_NoCriteria(t *testing.T) {
	store := memory.NewStore()
	svc := NewRecordService(store, nil)

	record, err := svc.Create(validInput())
	require.NoError(t, err)

	_, err = svc.Delete("", "")
	assert.ErrorIs(t, err, ErrNoLookupCriteria)

	// 无条件删除不触碰存储
	got, err := svc.Find(record.ID, "")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	count, err := store.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// vanishingStore 包装内存存储，模拟扫描与删除之间条目被并发删除的竞态。
type vanishingStore struct {
	*memory.Store
	vanished bool
}

func (s *vanishingStore) DeleteRecord(id string) error {
	if !s.vanished {
		// 第一次删除前，条目被"别人"抢先删掉
		s.vanished = true
		_ = s.Store.DeleteRecord(id)
		return storage.ErrRecordNotFound
	}
	return s.Store.DeleteRecord(id)
}

func TestRecordService_DeleteBySubject_RetriesOnRace(t *testing.T) {
	inner := memory.NewStore()
	store := &vanishingStore{Store: inner}
	svc := NewRecordService(store, nil)

	input := validInput()
	input.Subject = "dup"
	_, err := svc.Create(input)
	require.NoError(t, err)
	_, err = svc.Create(input)
	require.NoError(t, err)

	// 首个目标在定位后被并发删除，服务重新定位并删除剩余那条
	result, err := svc.Delete("", "dup")
	require.NoError(t, err)
	assert.Equal(t, "subject", result.MatchedBy)

	count, err := inner.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
