package stock

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/application/sideeffect"
	"github.com/xiebiao/stockledger/internal/domain/alert"
	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/internal/domain/movement"
	"github.com/xiebiao/stockledger/internal/domain/product"
)

// fakeTx 直接执行fn，不模拟回滚(回滚由mysql包的TxManager测试覆盖)
type fakeTx struct{}

func (fakeTx) Transaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// fakeRecords 以互斥锁模拟条件UPDATE的原子性
type fakeRecords struct {
	mu        sync.Mutex
	byProduct map[uint]*inventory.Record
	nextID    uint
	// readBarrier 非nil时每次读取后等待，让并发读取拿到同一版本
	readBarrier *sync.WaitGroup
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{byProduct: make(map[uint]*inventory.Record)}
}

func (f *fakeRecords) put(r *inventory.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	f.byProduct[r.ProductID] = r.Clone()
}

func (f *fakeRecords) get(productID uint) *inventory.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byProduct[productID].Clone()
}

func (f *fakeRecords) Create(_ context.Context, r *inventory.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byProduct[r.ProductID]; ok {
		return inventory.ErrAlreadyProvisioned
	}
	f.nextID++
	r.ID = f.nextID
	f.byProduct[r.ProductID] = r.Clone()
	return nil
}

func (f *fakeRecords) FindByID(_ context.Context, id uint) (*inventory.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byProduct {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, inventory.ErrInventoryNotFound
}

func (f *fakeRecords) FindByProductID(_ context.Context, productID uint) (*inventory.Record, error) {
	f.mu.Lock()
	r, ok := f.byProduct[productID]
	var c *inventory.Record
	if ok {
		c = r.Clone()
	}
	barrier := f.readBarrier
	f.mu.Unlock()

	if !ok {
		return nil, inventory.ErrInventoryNotFound
	}
	if barrier != nil {
		barrier.Done()
		barrier.Wait()
	}
	return c, nil
}

func (f *fakeRecords) Update(_ context.Context, r *inventory.Record, expectedVersion int64, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.byProduct[r.ProductID]
	if !ok {
		return inventory.ErrInventoryNotFound
	}
	if cur.Version != expectedVersion {
		return inventory.ErrConcurrencyConflict
	}
	if cur.QuantityAvailable+delta < 0 {
		return inventory.NewInsufficientStockError(cur.ProductID, cur.QuantityAvailable, -delta)
	}

	next := r.Clone()
	next.QuantityAvailable = cur.QuantityAvailable + delta
	next.Version = expectedVersion + 1
	f.byProduct[r.ProductID] = next
	r.Version = next.Version
	return nil
}

func (f *fakeRecords) filter(keep func(r *inventory.Record) bool) []*inventory.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*inventory.Record
	for _, r := range f.byProduct {
		if r.IsActive && keep(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRecords) List(_ context.Context, p inventory.ListParams) ([]*inventory.Record, int64, error) {
	all := f.filter(func(r *inventory.Record) bool { return p.Location == "" || r.Location == p.Location })
	return all, int64(len(all)), nil
}

func (f *fakeRecords) ListLowStock(context.Context) ([]*inventory.Record, error) {
	return f.filter(func(r *inventory.Record) bool { return r.QuantityAvailable <= r.MinStockLevel }), nil
}

func (f *fakeRecords) ListOutOfStock(context.Context) ([]*inventory.Record, error) {
	return f.filter(func(r *inventory.Record) bool { return r.QuantityAvailable == 0 }), nil
}

func (f *fakeRecords) ListOverstocked(context.Context) ([]*inventory.Record, error) {
	return f.filter(func(r *inventory.Record) bool { return r.QuantityAvailable > r.MaxStockLevel }), nil
}

func (f *fakeRecords) CountLowStock(ctx context.Context) (int64, error) {
	l, _ := f.ListLowStock(ctx)
	return int64(len(l)), nil
}

func (f *fakeRecords) CountOutOfStock(ctx context.Context) (int64, error) {
	l, _ := f.ListOutOfStock(ctx)
	return int64(len(l)), nil
}

func (f *fakeRecords) ListActive(context.Context) ([]*inventory.Record, error) {
	return f.filter(func(*inventory.Record) bool { return true }), nil
}

type fakeMovements struct {
	mu    sync.Mutex
	items []*movement.Movement
}

func (f *fakeMovements) Append(_ context.Context, m *movement.Movement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = uint(len(f.items) + 1)
	c := *m
	f.items = append(f.items, &c)
	return nil
}

func (f *fakeMovements) byProduct(productID uint) []*movement.Movement {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*movement.Movement
	for _, m := range f.items {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeMovements) ListByProduct(_ context.Context, productID uint, _, _ int) ([]*movement.Movement, int64, error) {
	out := f.byProduct(productID)
	return out, int64(len(out)), nil
}

func (f *fakeMovements) ListByActor(_ context.Context, actorID string, _, _ int) ([]*movement.Movement, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*movement.Movement
	for _, m := range f.items {
		if m.ActorID == actorID {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeMovements) ListByDateRange(ctx context.Context, from, to time.Time, page, size int) ([]*movement.Movement, int64, error) {
	return f.Filter(ctx, movement.Filter{From: &from, To: &to, Page: page, PageSize: size})
}

func (f *fakeMovements) Filter(_ context.Context, q movement.Filter) ([]*movement.Movement, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*movement.Movement
	for _, m := range f.items {
		switch {
		case q.ProductID != 0 && m.ProductID != q.ProductID,
			q.ActorID != "" && m.ActorID != q.ActorID,
			q.Type != "" && m.Type != q.Type,
			q.From != nil && m.CreatedAt.Before(*q.From),
			q.To != nil && !m.CreatedAt.Before(*q.To):
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (f *fakeMovements) CountByActor(ctx context.Context, actorID string) (int64, error) {
	_, n, err := f.Filter(ctx, movement.Filter{ActorID: actorID})
	return n, err
}

func (f *fakeMovements) SumSignedByProduct(_ context.Context, productID uint) (int, error) {
	sum := 0
	for _, m := range f.byProduct(productID) {
		sum += m.SignedQuantity()
	}
	return sum, nil
}

type fakeAlerts struct {
	mu     sync.Mutex
	alerts []*alert.Alert
}

func (f *fakeAlerts) Create(_ context.Context, a *alert.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.alerts {
		if !x.IsResolved && x.ProductID == a.ProductID && x.Type == a.Type {
			return alert.ErrDuplicateOpenAlert
		}
	}
	a.ID = uint(len(f.alerts) + 1)
	c := *a
	f.alerts = append(f.alerts, &c)
	return nil
}

func (f *fakeAlerts) FindByID(_ context.Context, id uint) (*alert.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.alerts {
		if x.ID == id {
			c := *x
			return &c, nil
		}
	}
	return nil, alert.ErrAlertNotFound
}

func (f *fakeAlerts) FindUnresolvedByProduct(_ context.Context, productID uint) ([]*alert.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*alert.Alert
	for _, x := range f.alerts {
		if !x.IsResolved && x.ProductID == productID {
			c := *x
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeAlerts) ExistsUnresolved(ctx context.Context, productID uint, t alert.Type) (bool, error) {
	open, _ := f.FindUnresolvedByProduct(ctx, productID)
	for _, x := range open {
		if x.Type == t {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlerts) Resolve(_ context.Context, a *alert.Alert) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.alerts {
		if x.ID == a.ID && !x.IsResolved {
			*x = *a
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlerts) ListUnresolved(context.Context, int, int) ([]*alert.Alert, int64, error) {
	return nil, 0, nil
}

func (f *fakeAlerts) CountUnresolved(context.Context) (int64, error) { return 0, nil }

func (f *fakeAlerts) Filter(context.Context, alert.Filter) ([]*alert.Alert, int64, error) {
	return nil, 0, nil
}

func (f *fakeAlerts) all(productID uint) []*alert.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*alert.Alert
	for _, x := range f.alerts {
		if x.ProductID == productID {
			c := *x
			out = append(out, &c)
		}
	}
	return out
}

type fakeCatalog struct {
	products map[uint]*product.Product
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uint) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetPrices(_ context.Context, ids []uint) (map[uint]decimal.Decimal, error) {
	out := make(map[uint]decimal.Decimal)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p.Price
		}
	}
	return out, nil
}

// syncEffects 同步执行副作用，便于断言
type syncEffects struct {
	mu    sync.Mutex
	kinds []string
}

func (s *syncEffects) Submit(kind string, task sideeffect.Task) bool {
	s.mu.Lock()
	s.kinds = append(s.kinds, kind)
	s.mu.Unlock()
	_ = task(context.Background())
	return true
}

type captureAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (c *captureAudit) LogAction(_ context.Context, e audit.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return c.err
}

type captureNotifier struct {
	mu     sync.Mutex
	alerts []*alert.Alert
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, a *alert.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, a)
	return c.err
}

type fixture struct {
	svc       *Service
	records   *fakeRecords
	movements *fakeMovements
	alerts    *fakeAlerts
	catalog   *fakeCatalog
	audit     *captureAudit
	notifier  *captureNotifier
}

func newFixture() *fixture {
	f := &fixture{
		records:   newFakeRecords(),
		movements: &fakeMovements{},
		alerts:    &fakeAlerts{},
		catalog:   &fakeCatalog{products: make(map[uint]*product.Product)},
		audit:     &captureAudit{},
		notifier:  &captureNotifier{},
	}
	f.svc = NewService(Deps{
		Tx:        fakeTx{},
		Records:   f.records,
		Movements: f.movements,
		Alerts:    f.alerts,
		Catalog:   f.catalog,
		Audit:     f.audit,
		Notifier:  f.notifier,
		Effects:   &syncEffects{},
	}, Config{}, zap.NewNop())
	return f
}

// seed 准备商品和库存记录
func (f *fixture) seed(productID uint, qty, min, max int) {
	f.catalog.products[productID] = &product.Product{
		ID:       productID,
		SKU:      "SKU-" + strconv.Itoa(int(productID)),
		Name:     "测试商品",
		Price:    decimal.RequireFromString("2.50"),
		IsActive: true,
	}
	r := inventory.NewRecord(productID, inventory.DefaultThresholds)
	r.QuantityAvailable = qty
	r.MinStockLevel = min
	r.MaxStockLevel = max
	f.records.put(r)
}
