package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/memory"
	clock "github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/time"
)

const (
	testOrderID    = "PP1234567890ABCD"
	testTrackingID = "TRK1"
	testCurrency   = "USD"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	uow      persistence.UnitOfWork
	sessions *memory.SessionRepository
	clock    *clock.FixedTimeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	timeProvider := clock.NewFixedTimeProvider(testNow)
	uow := memory.NewUnitOfWork(memory.NewStore(timeProvider), logger.NewNoopLogger())
	ctx := context.Background()
	projects := uow.GetProjectRepository(ctx)

	require.NoError(t, projects.CreateProject(ctx,
		&entity.Project{ID: 1, UserID: 9, Title: "Solar Kiosk", Slug: "solar-kiosk", CatSlug: "energy", Published: true},
		[]*entity.Reward{
			{ID: 2, Title: "Thank you card", Amount: decimal.RequireFromString("10"), Number: 10, Available: 10, Published: true},
			{ID: 4, Title: "Hidden perk", Published: false},
		},
	))
	require.NoError(t, projects.CreateProject(ctx,
		&entity.Project{ID: 3, UserID: 9, Title: "Draft project", Published: false},
		[]*entity.Reward{{ID: 5, Title: "Other perk", Published: true}},
	))

	return &fixture{
		uow:      uow,
		sessions: memory.NewSessionRepository(0, timeProvider),
		clock:    timeProvider,
	}
}

// newSession stores a payment session for the test order
func (f *fixture) newSession(t *testing.T, mutate func(*entity.PaymentSession)) *entity.PaymentSession {
	t.Helper()

	session := &entity.PaymentSession{
		OrderID:   testOrderID,
		UserID:    5,
		ProjectID: 1,
		RewardID:  2,
	}
	session.SetData(entity.ProviderDataAmount, "50.00")
	session.SetData(entity.ProviderDataCurrency, testCurrency)
	if mutate != nil {
		mutate(session)
	}
	require.NoError(t, f.sessions.Create(context.Background(), session))
	return session
}

func (f *fixture) project(t *testing.T, id uint64) *entity.Project {
	t.Helper()
	project, err := f.uow.GetProjectRepository(context.Background()).GetProject(context.Background(), id)
	require.NoError(t, err)
	return project
}

func (f *fixture) reward(t *testing.T, id uint64) *entity.Reward {
	t.Helper()
	reward, err := f.uow.GetProjectRepository(context.Background()).GetReward(context.Background(), id)
	require.NoError(t, err)
	return reward
}

func newDraft(status entity.TransactionStatus) *entity.TransactionDraft {
	return &entity.TransactionDraft{
		InvestorID:      5,
		ReceiverID:      9,
		ProjectID:       1,
		RewardID:        2,
		ServiceProvider: entity.ServiceProviderPesaPal,
		ServiceAlias:    entity.ServiceAliasPesaPal,
		TxnID:           testOrderID,
		TxnAmount:       decimal.RequireFromString("50.00"),
		TxnCurrency:     testCurrency,
		TxnStatus:       status,
		TxnDate:         testNow,
	}
}

// countingHandler records how often a transition into completed was seen
type countingHandler struct {
	completions int
	calls       int
}

func (h *countingHandler) Name() string { return "counting" }

func (h *countingHandler) Handle(_ context.Context, _ persistence.ProjectRepository, _ *entity.Transaction, transition Transition) error {
	h.calls++
	if transition.EntersCompleted() {
		h.completions++
	}
	return nil
}

// failingHandler fails every write
type failingHandler struct{}

func (failingHandler) Name() string { return "failing" }

func (failingHandler) Handle(context.Context, persistence.ProjectRepository, *entity.Transaction, Transition) error {
	return errors.New("side effect failed")
}
