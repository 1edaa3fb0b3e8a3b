package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/redis"
	apperrors "github.com/xiebiao/stockledger/pkg/errors"
	"github.com/xiebiao/stockledger/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore 内存幂等键存储
type memStore struct {
	mu       sync.Mutex
	entries  map[string]redis.StoredResponse
	released []string
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]redis.StoredResponse)}
}

func (s *memStore) Acquire(_ context.Context, scope, fingerprint string) (*redis.StoredResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[scope]; ok {
		return &e, false, nil
	}
	s.entries[scope] = redis.StoredResponse{Fingerprint: fingerprint}
	return nil, true, nil
}

func (s *memStore) Complete(_ context.Context, scope string, resp redis.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp.Completed = true
	s.entries[scope] = resp
	return nil
}

func (s *memStore) Release(_ context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, scope)
	s.released = append(s.released, scope)
	return nil
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestLoggerAndActor(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()), Actor())
	r.GET("/whoami", func(c *gin.Context) {
		response.Success(c, gin.H{"actor": GetActorID(c), "request_id": GetRequestID(c)})
	})

	t.Run("生成请求ID", func(t *testing.T) {
		w := do(r, http.MethodGet, "/whoami", "", map[string]string{HeaderActorID: " alice "})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
		assert.Contains(t, w.Body.String(), `"actor":"alice"`)
	})

	t.Run("沿用上游请求ID", func(t *testing.T) {
		w := do(r, http.MethodGet, "/whoami", "", map[string]string{HeaderRequestID: "req-1"})
		assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
		assert.Contains(t, w.Body.String(), `"actor":""`)
	})

	t.Run("操作人过长", func(t *testing.T) {
		w := do(r, http.MethodGet, "/whoami", "", map[string]string{HeaderActorID: strings.Repeat("a", 65)})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIdempotency(t *testing.T) {
	store := newMemStore()
	calls := 0
	var failWith error

	r := gin.New()
	r.Use(Actor(), Idempotency(store, 64, zap.NewNop()))
	r.POST("/stock", func(c *gin.Context) {
		calls++
		if failWith != nil {
			response.Error(c, failWith)
			return
		}
		response.Success(c, gin.H{"call": calls})
	})

	headers := map[string]string{HeaderIdempotencyKey: "k-1", HeaderActorID: "alice"}

	t.Run("重试返回第一次的响应", func(t *testing.T) {
		first := do(r, http.MethodPost, "/stock", `{"quantity":5}`, headers)
		require.Equal(t, http.StatusOK, first.Code)

		second := do(r, http.MethodPost, "/stock", `{"quantity":5}`, headers)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "true", second.Header().Get(HeaderIdempotentReplay))
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		assert.Equal(t, 1, calls)
	})

	t.Run("同一个键不同请求体被拒绝", func(t *testing.T) {
		w := do(r, http.MethodPost, "/stock", `{"quantity":6}`, headers)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 1, calls)
	})

	t.Run("不同操作人互不影响", func(t *testing.T) {
		w := do(r, http.MethodPost, "/stock", `{"quantity":5}`, map[string]string{HeaderIdempotencyKey: "k-1", HeaderActorID: "bob"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("占用中的键请求体不同", func(t *testing.T) {
		store.entries["alice:k-busy"] = redis.StoredResponse{Fingerprint: "x"}
		w := do(r, http.MethodPost, "/stock", `{}`, map[string]string{HeaderIdempotencyKey: "k-busy", HeaderActorID: "alice"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("可重试的失败不保存", func(t *testing.T) {
		failWith = apperrors.New(apperrors.ErrCodeConcurrencyConflict, "冲突")
		defer func() { failWith = nil }()

		w := do(r, http.MethodPost, "/stock", `{"quantity":1}`, map[string]string{HeaderIdempotencyKey: "k-2", HeaderActorID: "alice"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, store.released, "alice:k-2")

		failWith = nil
		w = do(r, http.MethodPost, "/stock", `{"quantity":1}`, map[string]string{HeaderIdempotencyKey: "k-2", HeaderActorID: "alice"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get(HeaderIdempotentReplay))
	})

	t.Run("存储不可用不保存", func(t *testing.T) {
		failWith = apperrors.Unavailable(context.DeadlineExceeded, "存储超时")
		defer func() { failWith = nil }()

		w := do(r, http.MethodPost, "/stock", `{"quantity":2}`, map[string]string{HeaderIdempotencyKey: "k-3", HeaderActorID: "alice"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, store.released, "alice:k-3")
	})

	t.Run("业务失败保存并重放", func(t *testing.T) {
		failWith = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")
		defer func() { failWith = nil }()
		headers := map[string]string{HeaderIdempotencyKey: "k-4", HeaderActorID: "alice"}

		first := do(r, http.MethodPost, "/stock", `{"quantity":99}`, headers)
		require.Equal(t, http.StatusUnprocessableEntity, first.Code)
		assert.NotContains(t, store.released, "alice:k-4")

		before := calls
		failWith = nil
		second := do(r, http.MethodPost, "/stock", `{"quantity":99}`, headers)
		assert.Equal(t, http.StatusUnprocessableEntity, second.Code)
		assert.Equal(t, "true", second.Header().Get(HeaderIdempotentReplay))
		assert.Equal(t, before, calls)
	})

	t.Run("键过长", func(t *testing.T) {
		w := do(r, http.MethodPost, "/stock", `{}`, map[string]string{HeaderIdempotencyKey: strings.Repeat("k", 65)})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("没有键直接执行", func(t *testing.T) {
		before := calls
		do(r, http.MethodPost, "/stock", `{}`, nil)
		do(r, http.MethodPost, "/stock", `{}`, nil)
		assert.Equal(t, before+2, calls)
	})
}

func TestIdempotency_InProgress(t *testing.T) {
	store := newMemStore()
	r := gin.New()
	r.Use(Idempotency(store, 0, zap.NewNop()))
	r.POST("/stock", func(c *gin.Context) { response.Success(c, nil) })

	fp := fingerprintOf(http.MethodPost, "/stock", []byte(`{}`))
	store.entries[":busy"] = redis.StoredResponse{Fingerprint: fp}

	w := do(r, http.MethodPost, "/stock", `{}`, map[string]string{HeaderIdempotencyKey: "busy"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "40011")
}
