package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	domainerr "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/api/middleware"
)

// SessionCookies remembers the payment session of each project in the browser
type SessionCookies interface {
	SessionID(r *http.Request, projectID uint64) string
	SetSessionID(w http.ResponseWriter, r *http.Request, projectID uint64, sessionID string) error
}

// PaymentHandler handles the PesaPal checkout, return and notification endpoints
type PaymentHandler struct {
	payments        usecase.PaymentUseCase
	cookies         SessionCookies
	callbackBaseURL string
	logger          coreport.Logger
}

// NewPaymentHandler creates a new payment handler instance
// An empty callbackBaseURL derives the return URL from the incoming request.
func NewPaymentHandler(
	payments usecase.PaymentUseCase,
	cookies SessionCookies,
	callbackBaseURL string,
	logger coreport.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		payments:        payments,
		cookies:         cookies,
		callbackBaseURL: strings.TrimRight(callbackBaseURL, "/"),
		logger:          logger,
	}
}

// PreparePayment handles POST /api/v1/projects/:projectId/payments/pesapal
func (h *PaymentHandler) PreparePayment(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid checkout request format", map[string]any{
			"project_id": projectID,
			"error":      err.Error(),
		})
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:      domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message:   "Invalid request format: " + err.Error(),
			RequestID: c.GetString(middleware.RequestIDKey),
		})
		return
	}

	amount, err := entity.ParseAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:      domainerr.ErrorCode(err),
			Message:   err.Error(),
			RequestID: c.GetString(middleware.RequestIDKey),
		})
		return
	}

	result, err := h.payments.PreparePayment(c.Request.Context(), usecase.CheckoutRequest{
		SessionID:   h.cookies.SessionID(c.Request, projectID),
		ProjectID:   projectID,
		RewardID:    req.RewardID,
		Amount:      amount,
		Anonymous:   req.Anonymous,
		UserID:      req.UserID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		CallbackURL: h.returnURL(c, projectID),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.cookies.SetSessionID(c.Writer, c.Request, projectID, result.SessionID); err != nil {
		h.logger.Error("Failed to store payment session cookie", map[string]any{
			"session_id": result.SessionID,
			"order_id":   result.OrderID,
			"error":      err.Error(),
		})
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{
		OrderID:   result.OrderID,
		Amount:    result.Amount,
		Currency:  result.Currency,
		IframeURL: result.IframeURL,
	})
}

// CompleteCheckout handles GET /api/v1/projects/:projectId/payments/pesapal/return
func (h *PaymentHandler) CompleteCheckout(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	var query dto.ReturnQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("Invalid return callback query", map[string]any{"error": err.Error()})
	}

	result, err := h.payments.CompleteCheckout(c.Request.Context(), usecase.CallbackRequest{
		SessionID:  h.cookies.SessionID(c.Request, projectID),
		ProjectID:  projectID,
		OrderID:    query.MerchantReference,
		TrackingID: query.TrackingID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, result.RedirectURL)
}

// Notify handles GET /api/v1/payments/pesapal/notify
// The acknowledgement body tells PesaPal to stop redelivering the notification.
func (h *PaymentHandler) Notify(c *gin.Context) {
	var query dto.NotificationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("Invalid notification query", map[string]any{"error": err.Error()})
		c.Status(http.StatusOK)
		return
	}

	_, err := h.payments.HandleNotification(c.Request.Context(), usecase.NotificationRequest{
		Type:              query.Type,
		TrackingID:        query.TrackingID,
		MerchantReference: query.MerchantReference,
	})

	switch {
	case err == nil:
		h.acknowledge(c, query)
	case errors.Is(err, domainerr.ErrNotificationIgnored):
		c.Status(http.StatusOK)
	default:
		switch domainerr.KindOf(err) {
		case domainerr.KindRejection, domainerr.KindTerminal:
			h.acknowledge(c, query)
		case domainerr.KindConfiguration:
			c.Status(http.StatusOK)
		default:
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Code:      domainerr.ErrorCode(err),
				Message:   "Notification could not be processed",
				RequestID: c.GetString(middleware.RequestIDKey),
			})
		}
	}
}

// GetTransaction handles GET /api/v1/payments/transactions/:txnId
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	txn, err := h.payments.GetTransaction(c.Request.Context(), c.Param("txnId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransactionResponse{
		TxnID:           txn.TxnID,
		InvestorID:      txn.InvestorID,
		ReceiverID:      txn.ReceiverID,
		ProjectID:       txn.ProjectID,
		RewardID:        txn.RewardID,
		ServiceProvider: txn.ServiceProvider,
		ServiceAlias:    txn.ServiceAlias,
		Amount:          entity.FormatAmount(txn.TxnAmount),
		Currency:        txn.TxnCurrency,
		Status:          string(txn.TxnStatus),
		TxnDate:         txn.TxnDate.Format(time.RFC3339),
		ExtraData:       txn.ExtraData,
	})
}

// acknowledge echoes the notification back in the form and key order PesaPal expects
func (h *PaymentHandler) acknowledge(c *gin.Context, query dto.NotificationQuery) {
	c.String(http.StatusOK, ackBody(query))
}

func ackBody(query dto.NotificationQuery) string {
	return "pesapal_notification_type=" + url.QueryEscape(query.Type) +
		"&pesapal_transaction_tracking_id=" + url.QueryEscape(query.TrackingID) +
		"&pesapal_merchant_reference=" + url.QueryEscape(query.MerchantReference)
}

func (h *PaymentHandler) projectID(c *gin.Context) (uint64, bool) {
	projectID, err := strconv.ParseUint(c.Param("projectId"), 10, 64)
	if err != nil || projectID == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:      domainerr.ErrorCode(domainerr.ErrInvalidProject),
			Message:   "Invalid project ID format",
			RequestID: c.GetString(middleware.RequestIDKey),
		})
		return 0, false
	}
	return projectID, true
}

// returnURL is where PesaPal sends the backer after checkout
func (h *PaymentHandler) returnURL(c *gin.Context, projectID uint64) string {
	base := h.callbackBaseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = (&url.URL{Scheme: scheme, Host: c.Request.Host}).String()
	}
	return fmt.Sprintf("%s/api/v1/projects/%d/payments/pesapal/return", base, projectID)
}

// writeError maps a use case error to its HTTP response
func (h *PaymentHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case domainerr.IsNotFoundError(err):
		status = http.StatusNotFound
		message = err.Error()
	case domainerr.KindOf(err) == domainerr.KindRejection:
		status = http.StatusBadRequest
		message = err.Error()
	case domainerr.KindOf(err) == domainerr.KindConfiguration:
		status = http.StatusServiceUnavailable
		message = "Payment gateway is not configured"
	case domainerr.KindOf(err) == domainerr.KindTransport:
		status = http.StatusBadGateway
		message = "Payment gateway is unavailable"
	case domainerr.KindOf(err) == domainerr.KindTerminal:
		status = http.StatusConflict
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Payment request failed", domainerr.LogFields(err))
	}

	c.JSON(status, dto.ErrorResponse{
		Code:      domainerr.ErrorCode(err),
		Message:   message,
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}
