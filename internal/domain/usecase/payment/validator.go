package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
)

// ValidateOptions carries the platform settings a notification is checked against
type ValidateOptions struct {
	Currency string         // Currency every transaction must use
	Location *time.Location // Timezone of the recorded transaction date
}

// Validation is an accepted notification together with the records it references
type Validation struct {
	Draft   *entity.TransactionDraft
	Project *entity.Project
	Reward  *entity.Reward
}

// NotificationValidator turns a gateway status and a payment session into a transaction draft
type NotificationValidator struct {
	validate     *validator.Validate
	timeProvider coreport.TimeProvider
}

// NewNotificationValidator creates a new NotificationValidator
func NewNotificationValidator(timeProvider coreport.TimeProvider) *NotificationValidator {
	return &NotificationValidator{
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		timeProvider: timeProvider,
	}
}

// Validate builds the draft and rejects notifications that reference invalid records
// Rejections are returned as *errs.RejectionError; repository failures are returned unchanged.
func (v *NotificationValidator) Validate(
	ctx context.Context,
	projects persistence.ProjectRepository,
	rawStatus string,
	session *entity.PaymentSession,
	opts ValidateOptions,
) (*Validation, error) {
	if session == nil {
		return nil, errs.NewRejectionError("", 0, "missing payment session", errs.ErrSessionNotFound)
	}

	status := entity.NormalizeStatus(rawStatus)
	if status == "" {
		return nil, errs.NewRejectionError(session.OrderID, session.ProjectID, "empty gateway status", errs.ErrInvalidStatus)
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	draft := &entity.TransactionDraft{
		InvestorID:      session.UserID,
		ProjectID:       session.ProjectID,
		RewardID:        session.EffectiveRewardID(),
		ServiceProvider: entity.ServiceProviderPesaPal,
		ServiceAlias:    entity.ServiceAliasPesaPal,
		TxnID:           session.OrderID,
		TxnCurrency:     session.GetData(entity.ProviderDataCurrency),
		TxnStatus:       status,
		TxnDate:         v.timeProvider.Now().In(loc),
	}

	if draft.ProjectID == 0 || draft.TxnID == "" {
		return nil, errs.NewRejectionError(draft.TxnID, draft.ProjectID, "missing project or transaction id", errs.ErrInvalidTransactionData)
	}

	amount, err := entity.ParseAmount(session.GetData(entity.ProviderDataAmount))
	if err != nil {
		return nil, errs.NewRejectionError(draft.TxnID, draft.ProjectID, "stashed amount is invalid", err)
	}
	draft.TxnAmount = amount

	project, err := projects.GetProject(ctx, draft.ProjectID)
	if err != nil && !errors.Is(err, errs.ErrProjectNotFound) {
		return nil, err
	}
	if !project.IsValid() {
		return nil, errs.NewRejectionError(draft.TxnID, draft.ProjectID, "project does not exist or is not published", errs.ErrInvalidProject)
	}

	var reward *entity.Reward
	if draft.RewardID > 0 {
		reward, err = projects.GetReward(ctx, draft.RewardID)
		if err != nil && !errors.Is(err, errs.ErrRewardNotFound) {
			return nil, err
		}
		if !reward.BelongsTo(draft.ProjectID) {
			rejection := errs.NewRejectionError(draft.TxnID, draft.ProjectID, "reward does not exist or is not published", errs.ErrInvalidReward)
			rejection.RewardID = draft.RewardID
			return nil, rejection
		}
	}

	if draft.TxnCurrency != opts.Currency {
		rejection := errs.NewRejectionError(draft.TxnID, draft.ProjectID, "currency mismatch", errs.ErrInvalidCurrency)
		rejection.Currency = draft.TxnCurrency
		rejection.Expected = opts.Currency
		return nil, rejection
	}

	if err := v.validate.Struct(draft); err != nil {
		return nil, errs.NewRejectionError(draft.TxnID, draft.ProjectID, err.Error(),
			fmt.Errorf("%w: %s", errs.ErrInvalidTransactionData, err.Error()))
	}

	draft.ReceiverID = project.UserID

	return &Validation{
		Draft:   draft,
		Project: project,
		Reward:  reward,
	}, nil
}
