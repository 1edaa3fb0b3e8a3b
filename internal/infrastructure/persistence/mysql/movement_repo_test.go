package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/stockledger/internal/domain/alert"
	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/internal/domain/movement"
	"github.com/xiebiao/stockledger/internal/domain/product"
)

func TestMovementRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMovementRepository(newTestDB(t))
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	movements := []*movement.Movement{
		{ProductID: 1, ActorID: "alice", Type: movement.TypeIn, Reason: movement.ReasonPurchase, Quantity: 50, PreviousQuantity: 0, NewQuantity: 50, ReferenceNumber: "PO-1", CreatedAt: base},
		{ProductID: 1, ActorID: "bob", Type: movement.TypeOut, Reason: movement.ReasonSales, Quantity: 15, PreviousQuantity: 50, NewQuantity: 35, ReferenceNumber: "SO-1", CreatedAt: base.Add(time.Hour)},
		{ProductID: 1, ActorID: "alice", Type: movement.TypeAdjustment, Reason: movement.ReasonAdjustment, Quantity: 5, PreviousQuantity: 35, NewQuantity: 30, ReferenceNumber: "MV-1", CreatedAt: base.Add(2 * time.Hour)},
		{ProductID: 2, ActorID: "system", Type: movement.TypeIn, Reason: movement.ReasonReturned, Quantity: 3, PreviousQuantity: 0, NewQuantity: 3, ReferenceNumber: "MV-2", CreatedAt: base.Add(3 * time.Hour)},
	}
	for _, m := range movements {
		require.NoError(t, repo.Append(ctx, m))
		assert.NotZero(t, m.ID)
	}

	t.Run("带符号求和等于当前数量", func(t *testing.T) {
		sum, err := repo.SumSignedByProduct(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 30, sum)

		sum, err = repo.SumSignedByProduct(ctx, 404)
		require.NoError(t, err)
		assert.Zero(t, sum)
	})

	t.Run("按商品分页最新在前", func(t *testing.T) {
		list, total, err := repo.ListByProduct(ctx, 1, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, list, 2)
		assert.Equal(t, movement.TypeAdjustment, list[0].Type)
		assert.Equal(t, "SO-1", list[1].ReferenceNumber)
	})

	t.Run("按操作人", func(t *testing.T) {
		_, total, err := repo.ListByActor(ctx, "alice", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("按时间范围", func(t *testing.T) {
		list, total, err := repo.ListByDateRange(ctx, base.Add(30*time.Minute), base.Add(150*time.Minute), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, list, 2)
	})

	t.Run("组合条件", func(t *testing.T) {
		from, to := base, base.Add(3*time.Hour)
		list, total, err := repo.Filter(ctx, movement.Filter{ProductID: 1, ActorID: "alice", From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, list, 2)
		assert.Equal(t, "MV-1", list[0].ReferenceNumber)

		_, total, err = repo.Filter(ctx, movement.Filter{Type: movement.TypeIn})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		_, total, err = repo.Filter(ctx, movement.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
	})

	t.Run("按操作人计数", func(t *testing.T) {
		n, err := repo.CountByActor(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.CountByActor(ctx, "nobody")
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestProductCatalog(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProduct(t, db, 1, "12.50", true)
	seedProduct(t, db, 2, "3.00", false)
	catalog := NewProductCatalog(db)

	p, err := catalog.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.True(t, decimal.RequireFromString("12.5").Equal(p.Price))

	p, err = catalog.GetProduct(ctx, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, p.EnsureActive(), product.ErrProductInactive)

	_, err = catalog.GetProduct(ctx, 3)
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	prices, err := catalog.GetPrices(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, prices, 2)
	assert.True(t, decimal.NewFromInt(3).Equal(prices[2]))

	prices, err = catalog.GetPrices(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestAuditAndNotificationRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	entry := audit.NewEntry(audit.EntityInventory, 7, audit.ActionAddStock, "alice",
		map[string]int{"quantity_available": 1}, map[string]int{"quantity_available": 6})
	require.NoError(t, NewAuditLogger(db).LogAction(ctx, entry))

	var logged AuditLogModel
	require.NoError(t, db.First(&logged).Error)
	assert.Equal(t, "ADD_STOCK", logged.Action)
	assert.Equal(t, "alice", logged.ActorID)
	assert.JSONEq(t, `{"quantity_available":6}`, logged.NewValue)

	notifications := NewNotificationRepository(db)
	for i := uint(1); i <= 3; i++ {
		n := alert.NewNotification(&alert.Alert{ID: i, ProductID: 5, Type: alert.TypeLowStock, CurrentQuantity: 2, Threshold: 10}, alert.ChannelInApp)
		require.NoError(t, notifications.Save(ctx, n))
		assert.NotZero(t, n.ID)
	}

	recent, err := notifications.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, uint(3), recent[0].AlertID)
	assert.False(t, recent[0].IsRead)
}
