package memory

import (
	"testing"
	"time"

	"recordvault/backend/internal/domain"
	"recordvault/backend/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(subject string) *domain.Record {
	return &domain.Record{
		ID:                 uuid.NewString(),
		Subject:            subject,
		Content:            "content",
		Recipient:          "r@x.com",
		SenderEmailAddress: "s@x.com",
		CreatedAt:          time.Now().UTC(),
	}
}

func TestMemoryStore_RecordOperations(t *testing.T) {
	store := NewStore()

	record := newTestRecord("Test Record")
	require.NoError(t, store.SaveRecord(record))

	// Test GetRecord
	got, err := store.GetRecord(record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Subject, got.Subject)
	assert.Equal(t, record.Recipient, got.Recipient)

	// Test FindRecordBySubject
	got, err = store.FindRecordBySubject("Test Record")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	// Test CountRecords
	count, err := store.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Test DeleteRecord
	require.NoError(t, store.DeleteRecord(record.ID))

	_, err = store.GetRecord(record.ID)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)

	err = store.DeleteRecord(record.ID)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewStore()

	record := newTestRecord("original")
	require.NoError(t, store.SaveRecord(record))

	// 取出的副本被修改不应影响存储内的数据
	got, err := store.GetRecord(record.ID)
	require.NoError(t, err)
	got.Subject = "mutated"

	again, err := store.GetRecord(record.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Subject)
}

func TestMemoryStore_FindBySubject_FirstMatchStable(t *testing.T) {
	store := NewStore()

	a := newTestRecord("dup")
	b := newTestRecord("dup")
	require.NoError(t, store.SaveRecord(a))
	require.NoError(t, store.SaveRecord(b))

	got1, err := store.FindRecordBySubject("dup")
	require.NoError(t, err)
	got2, err := store.FindRecordBySubject("dup")
	require.NoError(t, err)
	assert.Equal(t, got1.ID, got2.ID)
}
