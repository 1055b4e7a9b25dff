package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/logger"
)

func newTestReconciler(f *fixture, handlers ...Handler) *Reconciler {
	log := logger.NewNoopLogger()
	return NewReconciler(f.uow, NewTransactionManager(f.uow, log, handlers...), log)
}

func TestTransition_EntersCompleted(t *testing.T) {
	testCases := []struct {
		name       string
		transition Transition
		expected   bool
	}{
		{"absent to completed", Transition{New: entity.StatusCompleted, Created: true}, true},
		{"pending to completed", Transition{Old: entity.StatusPending, New: entity.StatusCompleted}, true},
		{"failed to completed", Transition{Old: entity.StatusFailed, New: entity.StatusCompleted}, true},
		{"completed to completed", Transition{Old: entity.StatusCompleted, New: entity.StatusCompleted}, false},
		{"absent to pending", Transition{New: entity.StatusPending, Created: true}, false},
		{"pending to failed", Transition{Old: entity.StatusPending, New: entity.StatusFailed}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.transition.EntersCompleted())
		})
	}
}

func TestReconciler_StatusTransitions(t *testing.T) {
	testCases := []struct {
		name     string
		sequence []entity.TransactionStatus
		final    entity.TransactionStatus
	}{
		{"pending then failed", []entity.TransactionStatus{entity.StatusPending, entity.StatusFailed}, entity.StatusFailed},
		{"failed then pending", []entity.TransactionStatus{entity.StatusFailed, entity.StatusPending}, entity.StatusPending},
		{"pending then completed", []entity.TransactionStatus{entity.StatusPending, entity.StatusCompleted}, entity.StatusCompleted},
		{"failed then completed", []entity.TransactionStatus{entity.StatusFailed, entity.StatusCompleted}, entity.StatusCompleted},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			r := newTestReconciler(f)
			ctx := context.Background()

			var last *Reconciliation
			for i, status := range tc.sequence {
				result, err := r.Reconcile(ctx, newDraft(status))
				require.NoError(t, err)
				assert.Equal(t, i == 0, result.Transition.Created)
				last = result
			}

			assert.Equal(t, tc.final, last.Transaction.TxnStatus)
			assert.Equal(t, tc.sequence[len(tc.sequence)-2], last.Transition.Old)

			stored, err := f.uow.GetTransactionRepository(ctx).GetByTxnID(ctx, testOrderID)
			require.NoError(t, err)
			assert.Equal(t, tc.final, stored.TxnStatus)
			assert.Equal(t, last.Transaction.ID, stored.ID)
		})
	}
}

func TestReconciler_Idempotence(t *testing.T) {
	f := newFixture(t)
	counter := &countingHandler{}
	r := newTestReconciler(f, counter)
	ctx := context.Background()

	_, err := r.Reconcile(ctx, newDraft(entity.StatusCompleted))
	require.NoError(t, err)

	before, err := f.uow.GetTransactionRepository(ctx).GetByTxnID(ctx, testOrderID)
	require.NoError(t, err)

	for _, status := range []entity.TransactionStatus{entity.StatusCompleted, entity.StatusPending, entity.StatusFailed} {
		draft := newDraft(status)
		draft.TxnAmount = decimal.RequireFromString("999.00")
		draft.ExtraData = map[string]any{"replayed": true}

		result, err := r.Reconcile(ctx, draft)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrTransactionCompleted)
		assert.Equal(t, errs.KindTerminal, errs.KindOf(err))
	}

	after, err := f.uow.GetTransactionRepository(ctx).GetByTxnID(ctx, testOrderID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, counter.calls)
	assert.Equal(t, 1, counter.completions)
}

func TestReconciler_SideEffectOnce(t *testing.T) {
	testCases := []struct {
		name     string
		sequence []entity.TransactionStatus
	}{
		{"absent pending completed", []entity.TransactionStatus{entity.StatusPending, entity.StatusCompleted}},
		{"absent completed", []entity.TransactionStatus{entity.StatusCompleted}},
		{"absent pending failed pending completed", []entity.TransactionStatus{
			entity.StatusPending, entity.StatusFailed, entity.StatusPending, entity.StatusCompleted,
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			log := logger.NewNoopLogger()
			counter := &countingHandler{}
			r := newTestReconciler(f, NewFundingHandler(log), NewRewardHandler(log), counter)
			ctx := context.Background()

			for _, status := range tc.sequence {
				_, err := r.Reconcile(ctx, newDraft(status))
				require.NoError(t, err)
			}
			// Repeat delivery of the completed status
			_, err := r.Reconcile(ctx, newDraft(entity.StatusCompleted))
			require.ErrorIs(t, err, errs.ErrTransactionCompleted)

			assert.Equal(t, 1, counter.completions)
			assert.Equal(t, "50.00", entity.FormatAmount(f.project(t, 1).Funded))
			reward := f.reward(t, 2)
			assert.Equal(t, uint32(1), reward.Distributed)
			assert.Equal(t, uint32(9), reward.Available)
		})
	}
}

func TestReconciler_NoRewardSideEffectWithoutReward(t *testing.T) {
	f := newFixture(t)
	log := logger.NewNoopLogger()
	r := newTestReconciler(f, NewFundingHandler(log), NewRewardHandler(log))

	draft := newDraft(entity.StatusCompleted)
	draft.RewardID = 0
	_, err := r.Reconcile(context.Background(), draft)
	require.NoError(t, err)

	assert.Equal(t, "50.00", entity.FormatAmount(f.project(t, 1).Funded))
	assert.Equal(t, uint32(0), f.reward(t, 2).Distributed)
}

func TestReconciler_SingleCreationUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	log := logger.NewNoopLogger()
	counter := &countingHandler{}
	var mu sync.Mutex
	r := newTestReconciler(f, NewFundingHandler(log), lockedHandler{mu: &mu, inner: counter})
	ctx := context.Background()

	const deliveries = 10
	var wg sync.WaitGroup
	results := make(chan error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Reconcile(ctx, newDraft(entity.StatusCompleted))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, terminal := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errs.IsTerminal(err):
			terminal++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, deliveries-1, terminal)
	assert.Equal(t, 1, counter.completions)
	assert.Equal(t, "50.00", entity.FormatAmount(f.project(t, 1).Funded))
}

func TestReconciler_ConcurrentPendingDeliveries(t *testing.T) {
	f := newFixture(t)
	r := newTestReconciler(f)
	ctx := context.Background()

	const deliveries = 10
	var wg sync.WaitGroup
	var created sync.Map
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := r.Reconcile(ctx, newDraft(entity.StatusPending))
			if assert.NoError(t, err) && result.Transition.Created {
				created.Store(i, result.Transaction.ID)
			}
		}(i)
	}
	wg.Wait()

	count := 0
	created.Range(func(_, _ any) bool {
		count++
		return true
	})
	assert.Equal(t, 1, count, "exactly one delivery creates the record")
}

func TestReconciler_RollbackOnHandlerFailure(t *testing.T) {
	f := newFixture(t)
	log := logger.NewNoopLogger()
	r := newTestReconciler(f, NewFundingHandler(log), failingHandler{})
	ctx := context.Background()

	result, err := r.Reconcile(ctx, newDraft(entity.StatusCompleted))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, errs.ErrTransactionProcess)
	assert.Equal(t, errs.KindPersistence, errs.KindOf(err))

	_, err = f.uow.GetTransactionRepository(ctx).GetByTxnID(ctx, testOrderID)
	assert.ErrorIs(t, err, errs.ErrTransactionNotFound)
	assert.True(t, f.project(t, 1).Funded.IsZero())

	// Replaying after the failure yields the same outcome
	_, err = r.Reconcile(ctx, newDraft(entity.StatusCompleted))
	assert.ErrorIs(t, err, errs.ErrTransactionProcess)
	assert.True(t, f.project(t, 1).Funded.IsZero())
}

func TestReconciler_RollbackKeepsPreviousState(t *testing.T) {
	f := newFixture(t)
	log := logger.NewNoopLogger()
	ctx := context.Background()

	_, err := newTestReconciler(f).Reconcile(ctx, newDraft(entity.StatusPending))
	require.NoError(t, err)

	_, err = newTestReconciler(f, NewFundingHandler(log), failingHandler{}).Reconcile(ctx, newDraft(entity.StatusCompleted))
	require.ErrorIs(t, err, errs.ErrTransactionProcess)

	stored, err := f.uow.GetTransactionRepository(ctx).GetByTxnID(ctx, testOrderID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.TxnStatus)
	assert.True(t, f.project(t, 1).Funded.IsZero())
}

func TestReconciler_MergesExtraData(t *testing.T) {
	f := newFixture(t)
	r := newTestReconciler(f)
	ctx := context.Background()

	first := newDraft(entity.StatusPending)
	first.ExtraData = map[string]any{"tracking_id": "TRK1", "first_seen": "yes"}
	_, err := r.Reconcile(ctx, first)
	require.NoError(t, err)

	second := newDraft(entity.StatusCompleted)
	second.ExtraData = map[string]any{"tracking_id": "TRK1", "confirmed": "yes"}
	result, err := r.Reconcile(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"tracking_id": "TRK1", "first_seen": "yes", "confirmed": "yes"}, result.Transaction.ExtraData)
}

// lockedHandler guards a non thread safe handler used from concurrent reconciliations
type lockedHandler struct {
	mu    *sync.Mutex
	inner Handler
}

func (h lockedHandler) Name() string { return h.inner.Name() }

func (h lockedHandler) Handle(ctx context.Context, projects persistence.ProjectRepository, txn *entity.Transaction, transition Transition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inner.Handle(ctx, projects, txn, transition)
}
