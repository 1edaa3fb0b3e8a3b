package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/stockledger/internal/application/alerting"
	"github.com/xiebiao/stockledger/internal/application/sideeffect"
	"github.com/xiebiao/stockledger/internal/application/stock"
	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/stockledger/internal/interface/http/handler"
	"github.com/xiebiao/stockledger/internal/interface/http/middleware"
	"github.com/xiebiao/stockledger/internal/interface/http/router"
	apperrors "github.com/xiebiao/stockledger/pkg/errors"
	"github.com/xiebiao/stockledger/pkg/metrics"
)

type inlineEffects struct{}

func (inlineEffects) Submit(_ string, task sideeffect.Task) bool {
	_ = task(context.Background())
	return true
}

type memStore struct {
	mu      sync.Mutex
	entries map[string]redis.StoredResponse
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
	return nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type page struct {
	List  []map[string]interface{} `json:"list"`
	Total int64                    `json:"total"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, mysql.Migrate(db))
	require.NoError(t, db.Create(&mysql.ProductModel{
		ID:       1,
		SKU:      "SKU-001",
		Name:     "螺丝刀",
		Price:    decimal.RequireFromString("2.50"),
		IsActive: true,
	}).Error)
	return db
}

func newEngine(t *testing.T, store middleware.IdempotencyStore) *gin.Engine {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()
	metrics.InitMetrics()

	alertRepo := mysql.NewAlertRepository(db)
	auditLog := mysql.NewAuditLogger(db)
	stockService := stock.NewService(stock.Deps{
		Tx:        mysql.NewTxManager(db),
		Records:   mysql.NewInventoryRepository(db),
		Movements: mysql.NewMovementRepository(db),
		Alerts:    alertRepo,
		Catalog:   mysql.NewProductCatalog(db),
		Audit:     auditLog,
		Effects:   inlineEffects{},
	}, stock.Config{}, log)
	alertService := alerting.NewService(alertRepo, auditLog, inlineEffects{}, log)

	return router.New(router.Options{
		Mode:        gin.TestMode,
		MetricsPath: "/metrics",
		Idempotency: store,
		Logger:      log,
	}, router.Handlers{
		Inventory: handler.NewInventoryHandler(stockService, alertService, stock.DefaultRetryPolicy),
		Alert:     handler.NewAlertHandler(alertService),
	})
}

func call(t *testing.T, r http.Handler, method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type record struct {
	ID                uint  `json:"id"`
	QuantityAvailable int   `json:"quantity_available"`
	MinStockLevel     int   `json:"min_stock_level"`
	Version           int64 `json:"version"`
}

func TestPing(t *testing.T) {
	r := newEngine(t, nil)

	w, env := call(t, r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, env.Code)

	w, _ = call(t, r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInventoryLifecycle(t *testing.T) {
	r := newEngine(t, nil)

	t.Run("创建库存记录", func(t *testing.T) {
		w, env := call(t, r, http.MethodPost, "/api/v1/products/1/inventory", "", middleware.HeaderActorID, "admin")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		rec := decode[record](t, env.Data)
		assert.Zero(t, rec.QuantityAvailable)
		assert.Equal(t, 10, rec.MinStockLevel)

		w, env = call(t, r, http.MethodPost, "/api/v1/products/1/inventory", "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, 40004, env.Code)
	})

	t.Run("商品不存在", func(t *testing.T) {
		w, _ := call(t, r, http.MethodPost, "/api/v1/products/99/inventory", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("非法路径参数", func(t *testing.T) {
		w, env := call(t, r, http.MethodGet, "/api/v1/products/abc/inventory", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 40900, env.Code)
	})

	t.Run("入库后出库越过阈值", func(t *testing.T) {
		w, env := call(t, r, http.MethodPost, "/api/v1/products/1/inventory/add",
			`{"quantity":40,"reason":"PURCHASE","notes":"到货"}`, middleware.HeaderActorID, "alice")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 40, decode[record](t, env.Data).QuantityAvailable)

		w, env = call(t, r, http.MethodPost, "/api/v1/products/1/inventory/remove",
			`{"quantity":35,"reason":"SALES"}`, middleware.HeaderActorID, "bob")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		rec := decode[record](t, env.Data)
		assert.Equal(t, 5, rec.QuantityAvailable)
		assert.Equal(t, int64(2), rec.Version)

		_, env = call(t, r, http.MethodGet, "/api/v1/alerts/unresolved", "")
		p := decode[page](t, env.Data)
		require.Equal(t, int64(1), p.Total)
		assert.Equal(t, "LOW_STOCK", p.List[0]["type"])
	})

	t.Run("库存不足", func(t *testing.T) {
		w, env := call(t, r, http.MethodPost, "/api/v1/products/1/inventory/remove", `{"quantity":6,"reason":"SALES"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, 40001, env.Code)
	})

	t.Run("参数校验", func(t *testing.T) {
		w, _ := call(t, r, http.MethodPost, "/api/v1/products/1/inventory/add", `{"quantity":0,"reason":"PURCHASE"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, env := call(t, r, http.MethodPost, "/api/v1/products/1/inventory/add", `{"quantity":1,"reason":"GIFT"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 40900, env.Code)

		w, _ = call(t, r, http.MethodPost, "/api/v1/products/1/inventory/adjust", `{"notes":"缺少目标数量"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("盘点调整自动解除预警", func(t *testing.T) {
		w, env := call(t, r, http.MethodPost, "/api/v1/products/1/inventory/adjust", `{"new_quantity":80}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 80, decode[record](t, env.Data).QuantityAvailable)

		_, env = call(t, r, http.MethodGet, "/api/v1/alerts/unresolved", "")
		assert.Zero(t, decode[page](t, env.Data).Total)
	})

	t.Run("流水查询", func(t *testing.T) {
		_, env := call(t, r, http.MethodGet, "/api/v1/products/1/movements?page=1&page_size=10", "")
		p := decode[page](t, env.Data)
		assert.Equal(t, int64(3), p.Total)

		_, env = call(t, r, http.MethodGet, "/api/v1/movements?actor_id=alice", "")
		p = decode[page](t, env.Data)
		require.Equal(t, int64(1), p.Total)
		assert.Equal(t, "PURCHASE", p.List[0]["reason"])

		_, env = call(t, r, http.MethodGet, "/api/v1/movements?type=out&product_id=1", "")
		p = decode[page](t, env.Data)
		require.Equal(t, int64(1), p.Total)
		assert.Equal(t, "bob", p.List[0]["actor_id"])

		_, env = call(t, r, http.MethodGet, "/api/v1/movements", "")
		assert.Equal(t, int64(3), decode[page](t, env.Data).Total)

		_, env = call(t, r, http.MethodGet, "/api/v1/movements/by-actor", "")
		p = decode[page](t, env.Data)
		require.Equal(t, int64(1), p.Total)
		assert.Equal(t, "ADJUSTMENT", p.List[0]["type"])
	})

	t.Run("流水按时间区间和计数", func(t *testing.T) {
		from := url.QueryEscape(time.Now().Add(-time.Hour).Format(time.RFC3339))
		to := url.QueryEscape(time.Now().Add(time.Hour).Format(time.RFC3339))

		w, env := call(t, r, http.MethodGet, "/api/v1/movements/date-range?from="+from+"&to="+to, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, int64(3), decode[page](t, env.Data).Total)

		_, env = call(t, r, http.MethodGet, "/api/v1/movements?from="+to, "")
		assert.Zero(t, decode[page](t, env.Data).Total)

		w, env = call(t, r, http.MethodGet, "/api/v1/movements/date-range?from="+to+"&to="+from, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)

		w, _ = call(t, r, http.MethodGet, "/api/v1/movements/date-range?from=yesterday&to="+to, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = call(t, r, http.MethodGet, "/api/v1/movements/date-range", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = call(t, r, http.MethodGet, "/api/v1/movements?type=MOVE", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		_, env = call(t, r, http.MethodGet, "/api/v1/movements/count?actor_id=alice", "")
		count := decode[map[string]interface{}](t, env.Data)
		assert.Equal(t, "alice", count["actor_id"])
		assert.EqualValues(t, 1, count["count"])
	})

	t.Run("库存概览", func(t *testing.T) {
		_, env := call(t, r, http.MethodGet, "/api/v1/inventory/stats", "")
		stats := decode[map[string]interface{}](t, env.Data)
		assert.Equal(t, "200.00", stats["total_value"])
		assert.EqualValues(t, 0, stats["low_stock_count"])
	})

	t.Run("调高阈值产生预警并手动解除", func(t *testing.T) {
		w, _ := call(t, r, http.MethodPatch, "/api/v1/products/1/inventory/settings", `{"min_stock_level":100}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		_, env := call(t, r, http.MethodGet, "/api/v1/alerts?resolved=false&type=LOW_STOCK", "")
		p := decode[page](t, env.Data)
		require.Equal(t, int64(1), p.Total)
		id := uint(p.List[0]["id"].(float64))

		w, env = call(t, r, http.MethodPost, fmt.Sprintf("/api/v1/alerts/%d/resolve", id),
			`{"notes":"已安排补货"}`, middleware.HeaderActorID, "carol")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resolved := decode[map[string]interface{}](t, env.Data)
		assert.Equal(t, true, resolved["is_resolved"])
		assert.Equal(t, "carol", resolved["resolved_by"])
	})

	t.Run("列表与分类查询", func(t *testing.T) {
		_, env := call(t, r, http.MethodGet, "/api/v1/inventory?active_only=true", "")
		assert.Equal(t, int64(1), decode[page](t, env.Data).Total)

		_, env = call(t, r, http.MethodGet, "/api/v1/inventory/low-stock", "")
		assert.Len(t, decode[[]record](t, env.Data), 1)

		_, env = call(t, r, http.MethodGet, "/api/v1/inventory/out-of-stock", "")
		assert.Empty(t, decode[[]record](t, env.Data))
	})

	t.Run("变动原因", func(t *testing.T) {
		_, env := call(t, r, http.MethodGet, "/api/v1/movement-reasons", "")
		reasons := decode[[]map[string]string](t, env.Data)
		assert.Len(t, reasons, 10)
	})
}

func TestIdempotentAddStock(t *testing.T) {
	r := newEngine(t, &memStore{entries: make(map[string]redis.StoredResponse)})
	_, _ = call(t, r, http.MethodPost, "/api/v1/products/1/inventory", "")

	body := `{"quantity":5,"reason":"PURCHASE"}`
	w1, env1 := call(t, r, http.MethodPost, "/api/v1/products/1/inventory/add", body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusOK, w1.Code, w1.Body.String())

	w2, env2 := call(t, r, http.MethodPost, "/api/v1/products/1/inventory/add", body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "true", w2.Header().Get(middleware.HeaderIdempotentReplay))
	assert.JSONEq(t, string(env1.Data), string(env2.Data))

	_, env := call(t, r, http.MethodGet, "/api/v1/products/1/inventory", "")
	assert.Equal(t, 5, decode[record](t, env.Data).QuantityAvailable, "重放不应重复入库")
}
