package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/stockledger/internal/domain/alert"
)

func newOpenAlert(productID uint, t alert.Type, qty, threshold int) *alert.Alert {
	return &alert.Alert{ProductID: productID, Type: t, CurrentQuantity: qty, Threshold: threshold}
}

func TestAlertRepository_OpenSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRepository(newTestDB(t))

	first := newOpenAlert(1, alert.TypeLowStock, 4, 10)
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	t.Run("同类型只能有一条未解除预警", func(t *testing.T) {
		err := repo.Create(ctx, newOpenAlert(1, alert.TypeLowStock, 3, 10))
		assert.ErrorIs(t, err, alert.ErrDuplicateOpenAlert)
	})

	t.Run("不同类型互不影响", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newOpenAlert(1, alert.TypeOutOfStock, 0, 0)))
		require.NoError(t, repo.Create(ctx, newOpenAlert(2, alert.TypeLowStock, 1, 10)))
	})

	t.Run("解除后可以重新创建", func(t *testing.T) {
		now := time.Now()
		require.True(t, first.Resolve("system", alert.AutoResolveNote, now))
		changed, err := repo.Resolve(ctx, first)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repo.Resolve(ctx, first)
		require.NoError(t, err)
		assert.False(t, changed, "已解除的预警不再写入")

		require.NoError(t, repo.Create(ctx, newOpenAlert(1, alert.TypeLowStock, 2, 10)))

		got, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, got.IsResolved)
		assert.Equal(t, "system", got.ResolvedBy)
		assert.Equal(t, alert.AutoResolveNote, got.Notes)
		require.NotNil(t, got.ResolvedAt)
	})

	t.Run("事务内冲突不影响外层事务", func(t *testing.T) {
		db := newTestDB(t)
		tx := NewTxManager(db)
		alerts := NewAlertRepository(db)
		require.NoError(t, alerts.Create(ctx, newOpenAlert(9, alert.TypeOverstocked, 120, 100)))

		err := tx.Transaction(ctx, func(txCtx context.Context) error {
			err := alerts.Create(txCtx, newOpenAlert(9, alert.TypeOverstocked, 130, 100))
			assert.ErrorIs(t, err, alert.ErrDuplicateOpenAlert)
			return alerts.Create(txCtx, newOpenAlert(9, alert.TypeExpiringSoon, 0, 0))
		})
		require.NoError(t, err)

		n, err := alerts.CountUnresolved(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestAlertRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, newOpenAlert(1, alert.TypeLowStock, 4, 10)))
	require.NoError(t, repo.Create(ctx, newOpenAlert(1, alert.TypeOutOfStock, 0, 0)))
	resolvedOne := newOpenAlert(2, alert.TypeOverstocked, 200, 100)
	require.NoError(t, repo.Create(ctx, resolvedOne))
	resolvedOne.Resolve("alice", "已调拨", time.Now())
	_, err := repo.Resolve(ctx, resolvedOne)
	require.NoError(t, err)

	open, err := repo.FindUnresolvedByProduct(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	exists, err := repo.ExistsUnresolved(ctx, 2, alert.TypeOverstocked)
	require.NoError(t, err)
	assert.False(t, exists)

	list, total, err := repo.ListUnresolved(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Greater(t, list[0].ID, list[1].ID, "最新在前")

	resolved := true
	filtered, total, err := repo.Filter(ctx, alert.Filter{Resolved: &resolved})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "alice", filtered[0].ResolvedBy)

	_, total, err = repo.Filter(ctx, alert.Filter{Type: alert.TypeLowStock, ProductID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, alert.ErrAlertNotFound)
}
