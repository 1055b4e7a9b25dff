package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/logger"
	clock "github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/time"
)

func newTestUnitOfWork(t *testing.T) (*UnitOfWork, *clock.FixedTimeProvider) {
	t.Helper()
	timeProvider := clock.NewFixedTimeProvider(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	store := NewStore(timeProvider)
	uow, ok := NewUnitOfWork(store, logger.NewNoopLogger()).(*UnitOfWork)
	require.True(t, ok)

	err := uow.GetProjectRepository(context.Background()).CreateProject(context.Background(),
		&entity.Project{ID: 1, UserID: 9, Title: "Solar Kiosk", Published: true},
		[]*entity.Reward{{ID: 2, Title: "T-shirt", Number: 10, Available: 10, Published: true}},
	)
	require.NoError(t, err)
	return uow, timeProvider
}

func TestUnitOfWorkCommit(t *testing.T) {
	uow, _ := newTestUnitOfWork(t)
	ctx := context.Background()

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)

	txn := &entity.Transaction{TxnID: "PP1", TxnStatus: entity.StatusPending, TxnAmount: decimal.RequireFromString("50")}
	require.NoError(t, uow.GetTransactionRepository(txCtx).Create(txCtx, txn))
	assert.Equal(t, uint64(1), txn.ID)

	// Not visible outside the unit of work before commit
	_, err = uow.GetTransactionRepository(ctx).GetByTxnID(ctx, "PP1")
	assert.ErrorIs(t, err, errs.ErrTransactionNotFound)

	require.NoError(t, uow.GetProjectRepository(txCtx).IncreaseFunds(txCtx, 1, decimal.RequireFromString("50")))
	require.NoError(t, uow.GetProjectRepository(txCtx).IncreaseRewardDistributed(txCtx, 2))

	staged, err := uow.GetProjectRepository(txCtx).GetProject(txCtx, 1)
	require.NoError(t, err)
	assert.Equal(t, "50.00", entity.FormatAmount(staged.Funded))

	require.NoError(t, uow.Commit(txCtx))

	stored, err := uow.GetTransactionRepository(ctx).GetByTxnID(ctx, "PP1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.TxnStatus)

	project, err := uow.GetProjectRepository(ctx).GetProject(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "50.00", entity.FormatAmount(project.Funded))

	reward, err := uow.GetProjectRepository(ctx).GetReward(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), reward.Distributed)
	assert.Equal(t, uint32(9), reward.Available)

	assert.Error(t, uow.Commit(txCtx))
	assert.NoError(t, uow.Rollback(txCtx))
}

func TestUnitOfWorkRollback(t *testing.T) {
	uow, _ := newTestUnitOfWork(t)
	ctx := context.Background()

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.GetTransactionRepository(txCtx).Create(txCtx, &entity.Transaction{TxnID: "PP1"}))
	require.NoError(t, uow.GetProjectRepository(txCtx).IncreaseFunds(txCtx, 1, decimal.RequireFromString("10")))
	require.NoError(t, uow.Rollback(txCtx))

	_, err = uow.GetTransactionRepository(ctx).GetByTxnID(ctx, "PP1")
	assert.ErrorIs(t, err, errs.ErrTransactionNotFound)

	project, err := uow.GetProjectRepository(ctx).GetProject(ctx, 1)
	require.NoError(t, err)
	assert.True(t, project.Funded.IsZero())
}

func TestTransactionRepository(t *testing.T) {
	uow, timeProvider := newTestUnitOfWork(t)
	ctx := context.Background()
	repo := uow.GetTransactionRepository(ctx)

	txn := &entity.Transaction{TxnID: "PP1", TxnStatus: entity.StatusPending, ExtraData: map[string]any{"a": 1}}
	require.NoError(t, repo.Create(ctx, txn))
	assert.ErrorIs(t, repo.Create(ctx, &entity.Transaction{TxnID: "PP1"}), errs.ErrDuplicateTransaction)

	loaded, err := repo.GetByTxnID(ctx, "PP1")
	require.NoError(t, err)
	loaded.ExtraData["a"] = 2
	loaded.TxnStatus = entity.StatusCompleted

	again, err := repo.GetByTxnID(ctx, "PP1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.ExtraData["a"], "returned records must be copies")
	assert.Equal(t, entity.StatusPending, again.TxnStatus)

	timeProvider.Advance(time.Minute)
	require.NoError(t, repo.Update(ctx, loaded))
	updated, err := repo.GetByTxnID(ctx, "PP1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, updated.TxnStatus)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	assert.ErrorIs(t, repo.Update(ctx, &entity.Transaction{ID: 99, TxnID: "PP404"}), errs.ErrTransactionNotFound)
}

func TestLockRepositorySerializes(t *testing.T) {
	uow, _ := newTestUnitOfWork(t)
	ctx := context.Background()

	first, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.GetLockRepository(first).LockTransaction(first, "PP1"))
	// Re-entrant within the same unit of work
	require.NoError(t, uow.GetLockRepository(first).LockTransaction(first, "PP1"))

	second, err := uow.Begin(ctx)
	require.NoError(t, err)

	timeoutCtx, cancel := context.WithTimeout(second, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, uow.GetLockRepository(second).LockTransaction(timeoutCtx, "PP1"), context.DeadlineExceeded)

	// A different txn ID is not blocked
	require.NoError(t, uow.GetLockRepository(second).LockTransaction(second, "PP2"))

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		assert.NoError(t, uow.GetLockRepository(second).LockTransaction(second, "PP1"))
	}()

	require.NoError(t, uow.Commit(first))
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was not released by commit")
	}
	require.NoError(t, uow.Rollback(second))

	assert.Error(t, uow.GetLockRepository(ctx).LockTransaction(ctx, "PP1"))
}

func TestConcurrentFundIncrements(t *testing.T) {
	uow, _ := newTestUnitOfWork(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txCtx, err := uow.Begin(ctx)
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, uow.GetProjectRepository(txCtx).IncreaseFunds(txCtx, 1, decimal.RequireFromString("1.50")))
			assert.NoError(t, uow.Commit(txCtx))
		}()
	}
	wg.Wait()

	project, err := uow.GetProjectRepository(ctx).GetProject(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "30.00", entity.FormatAmount(project.Funded))
}

func TestSessionRepository(t *testing.T) {
	timeProvider := clock.NewFixedTimeProvider(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	repo := NewSessionRepository(time.Hour, timeProvider)
	ctx := context.Background()

	session := &entity.PaymentSession{ProjectID: 1, OrderID: "PP1"}
	session.SetData(entity.ProviderDataAmount, "50.00")
	require.NoError(t, repo.Create(ctx, session))
	require.NotEmpty(t, session.ID)

	byOrder, err := repo.GetByOrderID(ctx, "PP1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, byOrder.ID)
	assert.Equal(t, "50.00", byOrder.GetData(entity.ProviderDataAmount))

	byOrder.OrderID = "PP2"
	byOrder.UniqueKey = "TRK1"
	require.NoError(t, repo.Update(ctx, byOrder))

	_, err = repo.GetByOrderID(ctx, "PP1")
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)
	moved, err := repo.GetByOrderID(ctx, "PP2")
	require.NoError(t, err)
	assert.Equal(t, "TRK1", moved.UniqueKey)

	timeProvider.Advance(2 * time.Hour)
	_, err = repo.GetByID(ctx, session.ID)
	assert.ErrorIs(t, err, errs.ErrSessionNotFound)

	require.NoError(t, repo.Delete(ctx, session.ID))
	require.NoError(t, repo.Delete(ctx, "missing"))
	assert.ErrorIs(t, repo.Update(ctx, moved), errs.ErrSessionNotFound)
}
