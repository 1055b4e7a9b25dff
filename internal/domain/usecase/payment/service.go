package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/usecase"
)

// NotificationTypeChange is the only notification type that announces a status change
const NotificationTypeChange = "CHANGE"

// Extra data keys recorded on every reconciled transaction
const (
	ExtraDataTrackingID       = "tracking_id"
	ExtraDataNotificationType = "notification_type"
)

// Config holds the platform settings used by the payment service
type Config struct {
	Currency                  string
	Location                  *time.Location
	ReturnRedirectPath        string // Supports {slug} and {catslug} placeholders
	RemoveSessionOnCompletion bool
}

// Service ties together checkout, correlation and reconciliation of PesaPal payments
type Service struct {
	uow          persistence.UnitOfWork
	sessions     persistence.PaymentSessionRepository
	statusClient gateway.StatusClient
	signer       gateway.CheckoutSigner
	validator    *NotificationValidator
	reconciler   *Reconciler
	correlator   *Correlator
	newOrderID   func() (string, error)
	logger       coreport.Logger
	config       Config
}

var _ usecase.PaymentUseCase = (*Service)(nil)

// NewPaymentService creates a new payment service with the funding and reward handlers installed
func NewPaymentService(
	uow persistence.UnitOfWork,
	sessions persistence.PaymentSessionRepository,
	statusClient gateway.StatusClient,
	signer gateway.CheckoutSigner,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	config Config,
) *Service {
	if config.Location == nil {
		config.Location = time.UTC
	}

	manager := NewTransactionManager(uow, logger,
		NewFundingHandler(logger),
		NewRewardHandler(logger),
	)

	logger.Info("Payment service initialized", map[string]any{
		"currency": config.Currency,
		"timezone": config.Location.String(),
	})

	return &Service{
		uow:          uow,
		sessions:     sessions,
		statusClient: statusClient,
		signer:       signer,
		validator:    NewNotificationValidator(timeProvider),
		reconciler:   NewReconciler(uow, manager, logger),
		correlator:   NewCorrelator(),
		newOrderID:   GenerateOrderID,
		logger:       logger,
		config:       config,
	}
}

// PreparePayment creates the order of a checkout attempt and returns the signed gateway page
func (s *Service) PreparePayment(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	if !s.signer.Configured() {
		s.logger.Warn("Checkout requested but the payment gateway is not configured", map[string]any{
			"project_id": req.ProjectID,
		})
		return nil, errs.ErrNotConfigured
	}

	if strings.TrimSpace(req.Email) == "" {
		return nil, errs.ErrEmailRequired
	}

	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", errs.ErrInvalidAmount)
	}

	projects := s.uow.GetProjectRepository(ctx)
	project, err := projects.GetProject(ctx, req.ProjectID)
	if err != nil && !errors.Is(err, errs.ErrProjectNotFound) {
		return nil, err
	}
	if !project.IsValid() {
		return nil, errs.ErrInvalidProject
	}

	rewardID := req.RewardID
	if req.Anonymous {
		rewardID = 0
	}
	if rewardID > 0 {
		reward, err := projects.GetReward(ctx, rewardID)
		if err != nil && !errors.Is(err, errs.ErrRewardNotFound) {
			return nil, err
		}
		if !reward.BelongsTo(project.ID) {
			return nil, errs.ErrInvalidReward
		}
	}

	orderID, err := s.newOrderID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order id: %w", err)
	}

	amount := entity.FormatAmount(req.Amount)

	session, err := s.loadOrNewSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	session.UserID = req.UserID
	session.ProjectID = project.ID
	session.RewardID = rewardID
	session.Anonymous = req.Anonymous
	session.OrderID = orderID
	session.UniqueKey = ""
	session.SetData(entity.ProviderDataAmount, amount)
	session.SetData(entity.ProviderDataCurrency, s.config.Currency)

	if session.ID == "" {
		err = s.sessions.Create(ctx, session)
	} else {
		err = s.sessions.Update(ctx, session)
	}
	if err != nil {
		s.logger.Error("Failed to store payment session", map[string]any{
			"order_id": orderID,
			"error":    err.Error(),
		})
		return nil, err
	}

	iframeURL, err := s.signer.CheckoutURL(gateway.Order{
		Amount:      amount,
		Currency:    s.config.Currency,
		Description: "Investing in " + project.Title,
		Reference:   orderID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
	}, req.CallbackURL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment prepared", map[string]any{
		"order_id":   orderID,
		"session_id": session.ID,
		"project_id": project.ID,
		"reward_id":  rewardID,
		"amount":     amount,
		"currency":   s.config.Currency,
	})

	return &usecase.CheckoutResult{
		SessionID: session.ID,
		OrderID:   orderID,
		Amount:    amount,
		Currency:  s.config.Currency,
		IframeURL: iframeURL,
	}, nil
}

// loadOrNewSession returns the existing session or an unsaved new one
func (s *Service) loadOrNewSession(ctx context.Context, sessionID string) (*entity.PaymentSession, error) {
	if sessionID == "" {
		return &entity.PaymentSession{}, nil
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, errs.ErrSessionNotFound) {
		return &entity.PaymentSession{}, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CompleteCheckout stores the gateway tracking id on the session and returns the post checkout page
// The redirect is returned even when correlation is refused.
func (s *Service) CompleteCheckout(ctx context.Context, req usecase.CallbackRequest) (*usecase.CallbackResult, error) {
	result := &usecase.CallbackResult{RedirectURL: "/"}

	project, err := s.uow.GetProjectRepository(ctx).GetProject(ctx, req.ProjectID)
	if err == nil {
		result.RedirectURL = s.redirectURL(project)
	} else {
		s.logger.Warn("Return callback for unknown project", map[string]any{
			"project_id": req.ProjectID,
			"error":      err.Error(),
		})
	}

	if req.SessionID == "" {
		s.logger.Warn("Return callback without payment session", map[string]any{
			"order_id": req.OrderID,
		})
		return result, nil
	}

	session, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		s.logger.Warn("Payment session not found on return callback", map[string]any{
			"session_id": req.SessionID,
			"order_id":   req.OrderID,
			"error":      err.Error(),
		})
		return result, nil
	}

	if session.ProjectID != req.ProjectID {
		s.logger.Warn("Return callback project does not match the payment session", map[string]any{
			"session_id":         session.ID,
			"project_id":         req.ProjectID,
			"session_project_id": session.ProjectID,
		})
		return result, nil
	}

	if err := s.correlator.Correlate(session, req.OrderID, req.TrackingID); err != nil {
		s.logger.Warn("Return callback rejected", errs.LogFields(err))
		return result, nil
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.Error("Failed to store tracking id on payment session", map[string]any{
			"session_id":  session.ID,
			"order_id":    session.OrderID,
			"tracking_id": req.TrackingID,
			"error":       err.Error(),
		})
		return result, nil
	}

	result.Correlated = true
	s.logger.Info("Tracking id stored on payment session", map[string]any{
		"session_id":  session.ID,
		"order_id":    session.OrderID,
		"tracking_id": req.TrackingID,
	})

	return result, nil
}

func (s *Service) redirectURL(project *entity.Project) string {
	path := s.config.ReturnRedirectPath
	if path == "" {
		return "/"
	}
	path = strings.ReplaceAll(path, "{slug}", project.Slug)
	return strings.ReplaceAll(path, "{catslug}", project.CatSlug)
}

// HandleNotification verifies a payment notification against the gateway and reconciles the transaction
//
// Every error is classified by errs.KindOf so transports can tell dropped notifications
// (rejection, terminal) from ones the gateway should deliver again (transport, persistence).
func (s *Service) HandleNotification(ctx context.Context, req usecase.NotificationRequest) (*entity.PaymentResult, error) {
	fields := map[string]any{
		"notification_type": req.Type,
		"tracking_id":       req.TrackingID,
		"order_id":          req.MerchantReference,
	}

	if req.Type != NotificationTypeChange || req.TrackingID == "" {
		s.logger.Debug("Notification ignored", fields)
		return nil, errs.ErrNotificationIgnored
	}

	status, err := s.statusClient.FetchStatus(ctx, req.MerchantReference, req.TrackingID)
	if err != nil {
		s.logFailure("Failed to fetch payment status", err)
		return nil, err
	}
	fields["gateway_status"] = status
	s.logger.Debug("Payment status fetched", fields)

	session, err := s.resolveSession(ctx, req)
	if err != nil {
		s.logFailure("Payment notification rejected", err)
		return nil, err
	}

	if err := s.correlator.Match(session, req.MerchantReference, req.TrackingID); err != nil {
		s.logFailure("Payment notification rejected", err)
		return nil, err
	}

	validation, err := s.validator.Validate(ctx, s.uow.GetProjectRepository(ctx), status, session, ValidateOptions{
		Currency: s.config.Currency,
		Location: s.config.Location,
	})
	if err != nil {
		s.logFailure("Payment notification rejected", err)
		return nil, err
	}

	validation.Draft.ExtraData = map[string]any{
		ExtraDataTrackingID:       req.TrackingID,
		ExtraDataNotificationType: req.Type,
	}

	reconciliation, err := s.reconciler.Reconcile(ctx, validation.Draft)
	if err != nil {
		s.logFailure("Payment notification not reconciled", err)
		return nil, err
	}

	txn := reconciliation.Transaction
	s.logger.Info("Payment notification reconciled", map[string]any{
		"txn_id":     txn.TxnID,
		"old_status": string(reconciliation.Transition.Old),
		"new_status": string(reconciliation.Transition.New),
		"created":    reconciliation.Transition.Created,
		"amount":     entity.FormatAmount(txn.TxnAmount),
		"currency":   txn.TxnCurrency,
	})

	if txn.IsCompleted() && session.ID != "" && s.config.RemoveSessionOnCompletion {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			s.logger.Warn("Failed to remove payment session", map[string]any{
				"session_id": session.ID,
				"error":      err.Error(),
			})
		}
	}

	return &entity.PaymentResult{
		Project:         validation.Project,
		Reward:          validation.Reward,
		Transaction:     txn,
		PaymentSession:  session,
		ServiceProvider: entity.ServiceProviderPesaPal,
		ServiceAlias:    entity.ServiceAliasPesaPal,
	}, nil
}

// resolveSession finds the session of the notified order
// When the session is gone, the stored transaction is used to rebuild the payer identity.
func (s *Service) resolveSession(ctx context.Context, req usecase.NotificationRequest) (*entity.PaymentSession, error) {
	session, err := s.sessions.GetByOrderID(ctx, req.MerchantReference)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, errs.ErrSessionNotFound) {
		return nil, err
	}

	txn, txnErr := s.uow.GetTransactionRepository(ctx).GetByTxnID(ctx, req.MerchantReference)
	if txnErr != nil {
		if errors.Is(txnErr, errs.ErrTransactionNotFound) {
			return nil, errs.NewRejectionError(req.MerchantReference, 0, "no payment session or transaction for order", errs.ErrSessionNotFound)
		}
		return nil, txnErr
	}

	s.logger.Info("Payment session missing, recovering identity from transaction", map[string]any{
		"txn_id": txn.TxnID,
	})

	recovered := &entity.PaymentSession{
		OrderID:   txn.TxnID,
		UserID:    txn.InvestorID,
		ProjectID: txn.ProjectID,
		RewardID:  txn.RewardID,
	}
	if trackingID, ok := txn.ExtraData[ExtraDataTrackingID].(string); ok {
		recovered.UniqueKey = trackingID
	}
	recovered.SetData(entity.ProviderDataAmount, entity.FormatAmount(txn.TxnAmount))
	recovered.SetData(entity.ProviderDataCurrency, txn.TxnCurrency)

	return recovered, nil
}

// GetTransaction returns a transaction by its merchant order id
func (s *Service) GetTransaction(ctx context.Context, txnID string) (*entity.Transaction, error) {
	if strings.TrimSpace(txnID) == "" {
		return nil, errs.ErrInvalidTransactionData
	}
	return s.uow.GetTransactionRepository(ctx).GetByTxnID(ctx, txnID)
}

// logFailure logs err at the level matching its kind
func (s *Service) logFailure(message string, err error) {
	fields := errs.LogFields(err)
	kind := errs.KindOf(err)
	fields["kind"] = kind.String()

	switch kind {
	case errs.KindTerminal:
		s.logger.Debug(message, fields)
	case errs.KindRejection, errs.KindConfiguration:
		s.logger.Warn(message, fields)
	default:
		s.logger.Error(message, fields)
	}
}
