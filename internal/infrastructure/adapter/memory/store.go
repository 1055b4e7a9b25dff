package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// Context keys
const txKey contextKey = "memory_tx"

// Store keeps transactions, projects and rewards in process memory
type Store struct {
	mu           sync.RWMutex
	transactions map[string]*entity.Transaction
	projects     map[uint64]*entity.Project
	rewards      map[uint64]*entity.Reward
	nextTxnID    uint64

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	timeProvider coreport.TimeProvider
}

// NewStore creates an empty Store
func NewStore(timeProvider coreport.TimeProvider) *Store {
	return &Store{
		transactions: make(map[string]*entity.Transaction),
		projects:     make(map[uint64]*entity.Project),
		rewards:      make(map[uint64]*entity.Reward),
		locks:        make(map[string]chan struct{}),
		timeProvider: timeProvider,
	}
}

// lockFor returns the semaphore guarding txnID
func (s *Store) lockFor(txnID string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[txnID]
	if !ok {
		lock = make(chan struct{}, 1)
		s.locks[txnID] = lock
	}
	return lock
}

// txState holds the writes of one unit of work until commit
type txState struct {
	mu           sync.Mutex
	transactions map[string]*entity.Transaction
	projects     map[uint64]*entity.Project
	rewards      map[uint64]*entity.Reward
	funds        map[uint64]decimal.Decimal // Pending increments of project funds
	distributed  map[uint64]uint32          // Pending increments of distributed rewards
	held         map[string]chan struct{}
	done         bool
}

func newTxState() *txState {
	return &txState{
		transactions: make(map[string]*entity.Transaction),
		projects:     make(map[uint64]*entity.Project),
		rewards:      make(map[uint64]*entity.Reward),
		funds:        make(map[uint64]decimal.Decimal),
		distributed:  make(map[uint64]uint32),
		held:         make(map[string]chan struct{}),
	}
}

// release frees every lock held by the unit of work
func (t *txState) release() {
	for key, lock := range t.held {
		<-lock
		delete(t.held, key)
	}
}

// UnitOfWork implements persistence.UnitOfWork on top of a Store
type UnitOfWork struct {
	store  *Store
	logger coreport.Logger
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(store *Store, logger coreport.Logger) persistence.UnitOfWork {
	return &UnitOfWork{
		store:  store,
		logger: logger,
	}
}

// Begin starts a new unit of work
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.logger.Debug("Beginning in-memory unit of work", nil)
	return context.WithValue(ctx, txKey, newTxState()), nil
}

// Commit applies the staged writes and releases held locks
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("no transaction found in context")
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return fmt.Errorf("transaction has already been committed or rolled back")
	}

	u.store.mu.Lock()
	for key, txn := range tx.transactions {
		u.store.transactions[key] = txn
	}
	for key, project := range tx.projects {
		u.store.projects[key] = project
	}
	for key, reward := range tx.rewards {
		u.store.rewards[key] = reward
	}
	// Increments apply to the latest committed values so concurrent units of work never lose an update
	for key, amount := range tx.funds {
		if project, ok := u.store.projects[key]; ok {
			updated := *project
			updated.Funded = updated.Funded.Add(amount)
			u.store.projects[key] = &updated
		}
	}
	for key, count := range tx.distributed {
		if reward, ok := u.store.rewards[key]; ok {
			u.store.rewards[key] = distribute(reward, count)
		}
	}
	u.store.mu.Unlock()

	tx.done = true
	tx.release()
	u.logger.Debug("Committed in-memory unit of work", nil)
	return nil
}

// Rollback discards the staged writes and releases held locks
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("no transaction found in context")
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return nil
	}

	tx.done = true
	tx.release()
	u.logger.Debug("Rolled back in-memory unit of work", nil)
	return nil
}

// GetTransactionRepository returns a transaction repository in the current unit of work
func (u *UnitOfWork) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	return &TransactionRepository{store: u.store, tx: txFromContext(ctx)}
}

// GetProjectRepository returns a project repository in the current unit of work
func (u *UnitOfWork) GetProjectRepository(ctx context.Context) persistence.ProjectRepository {
	return &ProjectRepository{store: u.store, tx: txFromContext(ctx)}
}

// GetLockRepository returns a lock repository in the current unit of work
func (u *UnitOfWork) GetLockRepository(ctx context.Context) persistence.LockRepository {
	return &LockRepository{store: u.store, tx: txFromContext(ctx)}
}

func txFromContext(ctx context.Context) *txState {
	tx, _ := ctx.Value(txKey).(*txState)
	return tx
}

// distribute returns a copy of reward with count more units handed out
func distribute(reward *entity.Reward, count uint32) *entity.Reward {
	updated := *reward
	updated.Distributed += count
	if updated.IsLimited() {
		if updated.Available > count {
			updated.Available -= count
		} else {
			updated.Available = 0
		}
	}
	return &updated
}
