package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInvalidRequest         = 4000
	CodeInvalidTransactionData = 4001
	CodeInvalidProject         = 4002
	CodeInvalidReward          = 4003
	CodeInvalidCurrency        = 4004
	CodeInvalidOrderID         = 4005
	CodeEmailRequired          = 4006
	CodeSessionNotFound        = 4040
	CodeTransactionNotFound    = 4041
	CodeTransactionCompleted   = 4090

	// 5xxx - Server errors
	CodeInternalServer     = 5000
	CodeNotConfigured      = 5001
	CodeGatewayUnavailable = 5030
)

// Kind classifies an error into the handling categories of the payment flow
type Kind int

const (
	// KindUnknown is any error that does not belong to a known category
	KindUnknown Kind = iota
	// KindConfiguration marks missing or invalid gateway credentials
	KindConfiguration
	// KindRejection marks malformed or inconsistent input that is dropped
	KindRejection
	// KindTerminal marks a notification for a transaction that is already completed
	KindTerminal
	// KindTransport marks a failed exchange with the gateway
	KindTransport
	// KindPersistence marks a failed or rolled back unit of work
	KindPersistence
)

// String returns the name of the kind for logs
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindRejection:
		return "rejection"
	case KindTerminal:
		return "terminal"
	case KindTransport:
		return "transport"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Base error types
var (
	// ErrNotConfigured is returned when the gateway consumer key or secret is missing
	ErrNotConfigured = errors.New("payment gateway is not configured")

	// ErrEmailRequired is returned when the payer has no email address
	ErrEmailRequired = errors.New("payer email is required")

	// ErrInvalidRequest is returned when the request format is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotificationIgnored is returned when a notification does not announce a status change
	ErrNotificationIgnored = errors.New("notification is not actionable")

	// ErrInvalidTransactionData is returned when the project or transaction ID is missing
	ErrInvalidTransactionData = errors.New("invalid transaction data")

	// ErrInvalidStatus is returned when the gateway status is empty
	ErrInvalidStatus = errors.New("invalid transaction status")

	// ErrInvalidAmount is returned when the stashed amount cannot be parsed
	ErrInvalidAmount = errors.New("invalid amount format")

	// ErrInvalidProject is returned when the referenced project does not exist or is not published
	ErrInvalidProject = errors.New("invalid project")

	// ErrInvalidReward is returned when the referenced reward does not exist or is not published
	ErrInvalidReward = errors.New("invalid reward")

	// ErrInvalidCurrency is returned when the transaction currency differs from the configured one
	ErrInvalidCurrency = errors.New("invalid transaction currency")

	// ErrInvalidOrderID is returned when the gateway order ID does not match the payment session
	ErrInvalidOrderID = errors.New("invalid order ID")

	// ErrSessionNotFound is returned when no payment session matches the request
	ErrSessionNotFound = errors.New("payment session not found")

	// ErrTransactionCompleted is returned when a notification targets a completed transaction
	ErrTransactionCompleted = errors.New("transaction is already completed")

	// ErrGatewayTransport is returned when the gateway status endpoint cannot be reached
	ErrGatewayTransport = errors.New("payment gateway request failed")

	// ErrGatewayResponse is returned when the gateway answers with an unusable body
	ErrGatewayResponse = errors.New("unexpected payment gateway response")

	// ErrTransactionProcess is returned when the unit of work was rolled back
	ErrTransactionProcess = errors.New("transaction processing failed")

	// ErrDuplicateTransaction is returned when a transaction with the same txn ID already exists
	ErrDuplicateTransaction = errors.New("transaction with this ID already exists")

	// ErrDatabaseConnection is returned when there's a problem connecting to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrTransactionNotFound is returned when the requested transaction doesn't exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrProjectNotFound is returned when the requested project doesn't exist
	ErrProjectNotFound = errors.New("project not found")

	// ErrRewardNotFound is returned when the requested reward doesn't exist
	ErrRewardNotFound = errors.New("reward not found")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")
)

// KindOf returns the handling category of err
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotConfigured):
		return KindConfiguration
	case errors.Is(err, ErrTransactionCompleted):
		return KindTerminal
	case errors.Is(err, ErrGatewayTransport),
		errors.Is(err, ErrGatewayResponse):
		return KindTransport
	case errors.Is(err, ErrTransactionProcess),
		errors.Is(err, ErrDuplicateTransaction),
		errors.Is(err, ErrDatabaseConnection),
		errors.Is(err, ErrConstraintViolation):
		return KindPersistence
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrNotificationIgnored),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrInvalidTransactionData),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidProject),
		errors.Is(err, ErrInvalidReward),
		errors.Is(err, ErrInvalidCurrency),
		errors.Is(err, ErrInvalidOrderID),
		errors.Is(err, ErrSessionNotFound):
		return KindRejection
	default:
		return KindUnknown
	}
}

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrInvalidTransactionData),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidAmount):
		return CodeInvalidTransactionData
	case errors.Is(err, ErrInvalidProject), errors.Is(err, ErrProjectNotFound):
		return CodeInvalidProject
	case errors.Is(err, ErrInvalidReward), errors.Is(err, ErrRewardNotFound):
		return CodeInvalidReward
	case errors.Is(err, ErrInvalidCurrency):
		return CodeInvalidCurrency
	case errors.Is(err, ErrInvalidOrderID):
		return CodeInvalidOrderID
	case errors.Is(err, ErrEmailRequired):
		return CodeEmailRequired
	case errors.Is(err, ErrSessionNotFound):
		return CodeSessionNotFound
	case errors.Is(err, ErrTransactionNotFound):
		return CodeTransactionNotFound
	case errors.Is(err, ErrTransactionCompleted):
		return CodeTransactionCompleted
	case errors.Is(err, ErrNotConfigured):
		return CodeNotConfigured
	case errors.Is(err, ErrGatewayTransport), errors.Is(err, ErrGatewayResponse):
		return CodeGatewayUnavailable
	default:
		return CodeInternalServer
	}
}

// RejectionError describes a notification that was dropped by validation or correlation
type RejectionError struct {
	TxnID     string
	ProjectID uint64
	RewardID  uint64
	Currency  string
	Expected  string
	Reason    string
	Err       error
}

// Error implements the error interface for RejectionError
func (e *RejectionError) Error() string {
	return fmt.Sprintf("notification rejected for txn %q (project: %d): %s - %v",
		e.TxnID, e.ProjectID, e.Reason, e.Err)
}

// Unwrap returns the underlying error
func (e *RejectionError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *RejectionError) LogFields() map[string]any {
	fields := map[string]any{
		"error_type": "rejection",
		"txn_id":     e.TxnID,
		"project_id": e.ProjectID,
		"reward_id":  e.RewardID,
		"reason":     e.Reason,
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e.Err),
	}
	if e.Currency != "" || e.Expected != "" {
		fields["currency"] = e.Currency
		fields["expected_currency"] = e.Expected
	}
	return fields
}

// NewRejectionError creates a rejection error for the given transaction
func NewRejectionError(txnID string, projectID uint64, reason string, err error) *RejectionError {
	return &RejectionError{
		TxnID:     txnID,
		ProjectID: projectID,
		Reason:    reason,
		Err:       err,
	}
}

// GatewayError represents a failed exchange with the payment gateway
type GatewayError struct {
	Operation  string
	OrderID    string
	TrackingID string
	StatusCode int
	Err        error
}

// Error implements the error interface for GatewayError
func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway %s failed for order %s (tracking: %s, status code: %d): %v",
			e.Operation, e.OrderID, e.TrackingID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s failed for order %s (tracking: %s): %v",
		e.Operation, e.OrderID, e.TrackingID, e.Err)
}

// Unwrap returns the underlying error
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *GatewayError) LogFields() map[string]any {
	return map[string]any{
		"error_type":  "gateway_error",
		"operation":   e.Operation,
		"order_id":    e.OrderID,
		"tracking_id": e.TrackingID,
		"status_code": e.StatusCode,
		"error":       e.Err.Error(),
		"error_code":  ErrorCode(e.Err),
	}
}

// TransactionError represents an error related to transaction reconciliation
type TransactionError struct {
	TxnID     string
	OldStatus string
	NewStatus string
	Amount    string
	Reason    string
	Err       error
}

// Error implements the error interface for TransactionError
func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction error for txn %s (%s -> %s, amount: %s): %s - %v",
		e.TxnID, e.OldStatus, e.NewStatus, e.Amount, e.Reason, e.Err)
}

// Unwrap returns the underlying error
func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Is reports every TransactionError as a rolled back unit of work
func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionProcess
}

// LogFields returns a map of fields for structured logging
func (e *TransactionError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "transaction_error",
		"txn_id":     e.TxnID,
		"old_status": e.OldStatus,
		"new_status": e.NewStatus,
		"amount":     e.Amount,
		"reason":     e.Reason,
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e.Err),
	}
}

// NewTransactionError creates a detailed transaction error
func NewTransactionError(txnID, oldStatus, newStatus, amount, reason string, err error) error {
	return &TransactionError{
		TxnID:     txnID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Amount:    amount,
		Reason:    reason,
		Err:       err,
	}
}

// LogFields extracts structured fields from err when it carries them
func LogFields(err error) map[string]any {
	var fielder interface{ LogFields() map[string]any }
	if errors.As(err, &fielder) {
		return fielder.LogFields()
	}
	return map[string]any{
		"error":      err.Error(),
		"error_code": ErrorCode(err),
	}
}

// IsRejection checks if the error drops the notification without side effects
func IsRejection(err error) bool {
	return KindOf(err) == KindRejection
}

// IsTerminal checks if the error is the completed transaction guard
func IsTerminal(err error) bool {
	return errors.Is(err, ErrTransactionCompleted)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrRewardNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}
