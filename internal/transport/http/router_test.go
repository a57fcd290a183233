package httptransport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"recordvault/backend/internal/config"
	"recordvault/backend/internal/service"
	"recordvault/backend/internal/storage/memory"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试辅助函数：构造带独立内存存储的路由实例
func setupTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	router := NewRouter(RouterDependencies{
		Config: &config.Config{
			CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
			RateLimit: config.RateLimitConfig{Enabled: false},
		},
		RecordService: service.NewRecordService(store, nil),
	})

	return router, store
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validPayload() map[string]string {
	return map[string]string{
		"subject":              "hi",
		"content":              "c",
		"recipient":            "r@x.com",
		"sender_email_address": "s@x.com",
	}
}

// 解析统一响应信封中的 data 字段
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var resp struct {
		Code int             `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func TestCreateRecord(t *testing.T) {
	t.Run("valid payload returns 201 with UUID id", func(t *testing.T) {
		router, store := setupTestRouter(t)

		w := doJSON(router, http.MethodPost, "/v1/records", validPayload())
		require.Equal(t, http.StatusCreated, w.Code)

		var data struct {
			ID string `json:"id"`
		}
		decodeData(t, w, &data)

		_, err := uuid.Parse(data.ID)
		assert.NoError(t, err, "id should be UUID format, got %q", data.ID)

		count, err := store.CountRecords()
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("missing content returns 400 and creates no entry", func(t *testing.T) {
		router, store := setupTestRouter(t)

		payload := validPayload()
		delete(payload, "content")

		w := doJSON(router, http.MethodPost, "/v1/records", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		count, err := store.CountRecords()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("each required field enforced", func(t *testing.T) {
		router, store := setupTestRouter(t)

		for _, field := range []string{"subject", "content", "recipient", "sender_email_address"} {
			payload := validPayload()
			payload[field] = ""

			w := doJSON(router, http.MethodPost, "/v1/records", payload)
			assert.Equal(t, http.StatusBadRequest, w.Code, "field %s", field)
		}

		count, err := store.CountRecords()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/v1/records", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetRecord(t *testing.T) {
	t.Run("lookup by id", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := doJSON(router, http.MethodPost, "/v1/records", validPayload())
		require.Equal(t, http.StatusCreated, w.Code)

		var created struct {
			ID string `json:"id"`
		}
		decodeData(t, w, &created)

		w = doJSON(router, http.MethodGet, "/v1/records?id="+created.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var record struct {
			ID      string `json:"id"`
			Subject string `json:"subject"`
		}
		decodeData(t, w, &record)
		assert.Equal(t, created.ID, record.ID)
		assert.Equal(t, "hi", record.Subject)
	})

	t.Run("lookup by subject", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := doJSON(router, http.MethodPost, "/v1/records", validPayload())
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(router, http.MethodGet, "/v1/records?subject=hi", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := doJSON(router, http.MethodGet, "/v1/records?id="+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no criteria returns 400", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := doJSON(router, http.MethodGet, "/v1/records", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteRecord(t *testing.T) {
	t.Run("delete by subject decrements count by one", func(t *testing.T) {
		router, store := setupTestRouter(t)

		w := doJSON(router, http.MethodPost, "/v1/records", validPayload())
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(router, http.MethodDelete, "/v1/records", map[string]string{"subject": "hi"})
		require.Equal(t, http.StatusOK, w.Code)

		// 确认消息注明按主题匹配
		var data struct {
			MatchedBy string `json:"matchedBy"`
		}
		decodeData(t, w, &data)
		assert.Equal(t, "subject", data.MatchedBy)

		count, err := store.CountRecords()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("delete by id", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := doJSON(router, http.MethodPost, "/v1/records", validPayload())
		require.Equal(t, http.StatusCreated, w.Code)

		var created struct {
			ID string `json:"id"`
		}
		decodeData(t, w, &created)

		w = doJSON(router, http.MethodDelete, "/v1/records", map[string]string{"id": created.ID})
		require.Equal(t, http.StatusOK, w.Code)

		var data struct {
			ID        string `json:"id"`
			MatchedBy string `json:"matchedBy"`
		}
		decodeData(t, w, &data)
		assert.Equal(t, "id", data.MatchedBy)
		assert.Equal(t, created.ID, data.ID)
	})

	t.Run("duplicate subjects deleted one at a time", func(t *testing.T) {
		router, store := setupTestRouter(t)

		payload := validPayload()
		payload["subject"] = "dup"
		require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/v1/records", payload).Code)
		require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/v1/records", payload).Code)

		body := map[string]string{"subject": "dup"}

		// 两次删除各删一条，从不提前报 404
		assert.Equal(t, http.StatusOK, doJSON(router, http.MethodDelete, "/v1/records", body).Code)
		assert.Equal(t, http.StatusOK, doJSON(router, http.MethodDelete, "/v1/records", body).Code)
		assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodDelete, "/v1/records", body).Code)

		count, err := store.CountRecords()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("no criteria returns 400 without touching store", func(t *testing.T) {
		router, store := setupTestRouter(t)

		require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/v1/records", validPayload()).Code)

		w := doJSON(router, http.MethodDelete, "/v1/records", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		count, err := store.CountRecords()
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("unknown record returns 404", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := doJSON(router, http.MethodDelete, "/v1/records", map[string]string{"id": uuid.NewString()})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
