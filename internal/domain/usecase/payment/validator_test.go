package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
)

func TestNotificationValidator_Validate(t *testing.T) {
	f := newFixture(t)
	v := NewNotificationValidator(f.clock)
	ctx := context.Background()
	projects := f.uow.GetProjectRepository(ctx)
	opts := ValidateOptions{Currency: testCurrency, Location: time.UTC}

	baseSession := func(mutate func(*entity.PaymentSession)) *entity.PaymentSession {
		session := &entity.PaymentSession{OrderID: testOrderID, UserID: 5, ProjectID: 1, RewardID: 2}
		session.SetData(entity.ProviderDataAmount, "50.00")
		session.SetData(entity.ProviderDataCurrency, testCurrency)
		if mutate != nil {
			mutate(session)
		}
		return session
	}

	t.Run("builds draft from session", func(t *testing.T) {
		validation, err := v.Validate(ctx, projects, "COMPLETED", baseSession(nil), opts)
		require.NoError(t, err)

		draft := validation.Draft
		assert.Equal(t, uint64(5), draft.InvestorID)
		assert.Equal(t, uint64(9), draft.ReceiverID)
		assert.Equal(t, uint64(1), draft.ProjectID)
		assert.Equal(t, uint64(2), draft.RewardID)
		assert.Equal(t, testOrderID, draft.TxnID)
		assert.Equal(t, "50.00", entity.FormatAmount(draft.TxnAmount))
		assert.Equal(t, testCurrency, draft.TxnCurrency)
		assert.Equal(t, entity.StatusCompleted, draft.TxnStatus)
		assert.Equal(t, entity.ServiceProviderPesaPal, draft.ServiceProvider)
		assert.Equal(t, entity.ServiceAliasPesaPal, draft.ServiceAlias)
		assert.True(t, testNow.Equal(draft.TxnDate))
		assert.Equal(t, "Solar Kiosk", validation.Project.Title)
		require.NotNil(t, validation.Reward)
		assert.Equal(t, uint64(2), validation.Reward.ID)
	})

	t.Run("applies timezone", func(t *testing.T) {
		nairobi := time.FixedZone("EAT", 3*60*60)
		validation, err := v.Validate(ctx, projects, "PENDING", baseSession(nil), ValidateOptions{Currency: testCurrency, Location: nairobi})
		require.NoError(t, err)
		assert.Equal(t, 13, validation.Draft.TxnDate.Hour())
	})

	t.Run("maps invalid to failed in any case", func(t *testing.T) {
		for _, raw := range []string{"INVALID", "invalid", "Invalid"} {
			validation, err := v.Validate(ctx, projects, raw, baseSession(nil), opts)
			require.NoError(t, err)
			assert.Equal(t, entity.StatusFailed, validation.Draft.TxnStatus, raw)
		}
	})

	t.Run("anonymous payer never claims a reward", func(t *testing.T) {
		validation, err := v.Validate(ctx, projects, "PENDING", baseSession(func(s *entity.PaymentSession) {
			s.Anonymous = true
			s.RewardID = 4
		}), opts)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), validation.Draft.RewardID)
		assert.Nil(t, validation.Reward)
	})

	rejections := []struct {
		name     string
		status   string
		mutate   func(*entity.PaymentSession)
		opts     ValidateOptions
		expected error
	}{
		{"empty status", "", nil, opts, errs.ErrInvalidStatus},
		{"missing project", "COMPLETED", func(s *entity.PaymentSession) { s.ProjectID = 0 }, opts, errs.ErrInvalidTransactionData},
		{"missing order id", "COMPLETED", func(s *entity.PaymentSession) { s.OrderID = "" }, opts, errs.ErrInvalidTransactionData},
		{"unknown project", "COMPLETED", func(s *entity.PaymentSession) { s.ProjectID = 404; s.RewardID = 0 }, opts, errs.ErrInvalidProject},
		{"unpublished project", "COMPLETED", func(s *entity.PaymentSession) { s.ProjectID = 3; s.RewardID = 0 }, opts, errs.ErrInvalidProject},
		{"unknown reward", "COMPLETED", func(s *entity.PaymentSession) { s.RewardID = 404 }, opts, errs.ErrInvalidReward},
		{"unpublished reward", "COMPLETED", func(s *entity.PaymentSession) { s.RewardID = 4 }, opts, errs.ErrInvalidReward},
		{"reward of another project", "COMPLETED", func(s *entity.PaymentSession) { s.RewardID = 5 }, opts, errs.ErrInvalidReward},
		{"invalid amount", "COMPLETED", func(s *entity.PaymentSession) { s.SetData(entity.ProviderDataAmount, "1,000.00") }, opts, errs.ErrInvalidAmount},
		{"currency mismatch", "COMPLETED", func(s *entity.PaymentSession) { s.SetData(entity.ProviderDataCurrency, "KES") }, opts, errs.ErrInvalidCurrency},
		{"currency mismatch on pending", "PENDING", func(s *entity.PaymentSession) { s.SetData(entity.ProviderDataCurrency, "KES") }, opts, errs.ErrInvalidCurrency},
		{"currency mismatch on failed", "INVALID", func(s *entity.PaymentSession) { s.SetData(entity.ProviderDataCurrency, "") }, opts, errs.ErrInvalidCurrency},
		{"configured currency differs", "COMPLETED", nil, ValidateOptions{Currency: "EUR"}, errs.ErrInvalidCurrency},
	}

	for _, tc := range rejections {
		t.Run(tc.name, func(t *testing.T) {
			validation, err := v.Validate(ctx, projects, tc.status, baseSession(tc.mutate), tc.opts)
			assert.Nil(t, validation)
			assert.ErrorIs(t, err, tc.expected)
			assert.True(t, errs.IsRejection(err))

			var rejection *errs.RejectionError
			assert.True(t, errors.As(err, &rejection))
		})
	}

	t.Run("nil session", func(t *testing.T) {
		_, err := v.Validate(ctx, projects, "COMPLETED", nil, opts)
		assert.ErrorIs(t, err, errs.ErrSessionNotFound)
	})

	t.Run("repository failure is not a rejection", func(t *testing.T) {
		_, err := v.Validate(ctx, brokenProjects{}, "COMPLETED", baseSession(nil), opts)
		assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
		assert.False(t, errs.IsRejection(err))
	})
}

// brokenProjects fails every lookup with a connection error
type brokenProjects struct {
	persistence.ProjectRepository
}

func (brokenProjects) GetProject(context.Context, uint64) (*entity.Project, error) {
	return nil, errs.ErrDatabaseConnection
}

func (brokenProjects) GetReward(context.Context, uint64) (*entity.Reward, error) {
	return nil, errs.ErrDatabaseConnection
}

func (brokenProjects) IncreaseFunds(context.Context, uint64, decimal.Decimal) error {
	return errs.ErrDatabaseConnection
}
