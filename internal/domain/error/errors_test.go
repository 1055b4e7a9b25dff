package error

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseErrorTypes(t *testing.T) {
	assert.Equal(t, "payment gateway is not configured", ErrNotConfigured.Error())
	assert.Equal(t, "transaction is already completed", ErrTransactionCompleted.Error())
	assert.Equal(t, "invalid transaction currency", ErrInvalidCurrency.Error())
}

func TestErrorCode(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"InvalidRequest", ErrInvalidRequest, 4000},
		{"InvalidTransactionData", ErrInvalidTransactionData, 4001},
		{"InvalidStatus", ErrInvalidStatus, 4001},
		{"InvalidProject", ErrInvalidProject, 4002},
		{"ProjectNotFound", ErrProjectNotFound, 4002},
		{"InvalidReward", ErrInvalidReward, 4003},
		{"InvalidCurrency", ErrInvalidCurrency, 4004},
		{"InvalidOrderID", ErrInvalidOrderID, 4005},
		{"EmailRequired", ErrEmailRequired, 4006},
		{"SessionNotFound", ErrSessionNotFound, 4040},
		{"TransactionNotFound", ErrTransactionNotFound, 4041},
		{"TransactionCompleted", ErrTransactionCompleted, 4090},
		{"NotConfigured", ErrNotConfigured, 5001},
		{"GatewayTransport", ErrGatewayTransport, 5030},
		{"UnknownError", errors.New("unknown error"), 5000},
		{"WrappedError", fmt.Errorf("wrapped: %w", ErrInvalidOrderID), 4005},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ErrorCode(tc.err))
		})
	}
}

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"Nil", nil, KindUnknown},
		{"NotConfigured", ErrNotConfigured, KindConfiguration},
		{"InvalidProject", ErrInvalidProject, KindRejection},
		{"InvalidReward", ErrInvalidReward, KindRejection},
		{"InvalidCurrency", ErrInvalidCurrency, KindRejection},
		{"SessionNotFound", ErrSessionNotFound, KindRejection},
		{"Ignored", ErrNotificationIgnored, KindRejection},
		{"Completed", ErrTransactionCompleted, KindTerminal},
		{"Transport", ErrGatewayTransport, KindTransport},
		{"Response", ErrGatewayResponse, KindTransport},
		{"Process", ErrTransactionProcess, KindPersistence},
		{"Duplicate", ErrDuplicateTransaction, KindPersistence},
		{"Unknown", errors.New("boom"), KindUnknown},
		{"WrappedRejection", NewRejectionError("PP1", 1, "currency mismatch", ErrInvalidCurrency), KindRejection},
		{"WrappedGateway", &GatewayError{Operation: "status", Err: ErrGatewayTransport}, KindTransport},
		{"TransactionError", NewTransactionError("PP1", "pending", "completed", "10.00", "handler failed", errors.New("db down")), KindPersistence},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, KindOf(tc.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "rejection", KindRejection.String())
	assert.Equal(t, "terminal", KindTerminal.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestRejectionError(t *testing.T) {
	rejErr := &RejectionError{
		TxnID:     "PP1234567890ABCD",
		ProjectID: 7,
		Currency:  "KES",
		Expected:  "USD",
		Reason:    "currency mismatch",
		Err:       ErrInvalidCurrency,
	}

	assert.Equal(t,
		`notification rejected for txn "PP1234567890ABCD" (project: 7): currency mismatch - invalid transaction currency`,
		rejErr.Error())
	assert.True(t, errors.Is(rejErr, ErrInvalidCurrency))

	fields := rejErr.LogFields()
	assert.Equal(t, "rejection", fields["error_type"])
	assert.Equal(t, "PP1234567890ABCD", fields["txn_id"])
	assert.Equal(t, uint64(7), fields["project_id"])
	assert.Equal(t, "KES", fields["currency"])
	assert.Equal(t, "USD", fields["expected_currency"])
	assert.Equal(t, CodeInvalidCurrency, fields["error_code"])
}

func TestGatewayError(t *testing.T) {
	gwErr := &GatewayError{
		Operation:  "query status",
		OrderID:    "PP1",
		TrackingID: "TRK1",
		StatusCode: 502,
		Err:        ErrGatewayResponse,
	}

	assert.Contains(t, gwErr.Error(), "status code: 502")
	assert.True(t, errors.Is(gwErr, ErrGatewayResponse))

	noCode := &GatewayError{Operation: "query status", OrderID: "PP1", TrackingID: "TRK1", Err: ErrGatewayTransport}
	assert.NotContains(t, noCode.Error(), "status code")
	assert.Equal(t, "TRK1", noCode.LogFields()["tracking_id"])
}

func TestTransactionError(t *testing.T) {
	baseErr := errors.New("funding update failed")
	txErr := NewTransactionError("PP1", "pending", "completed", "50.00", "handler failed", baseErr)

	assert.Equal(t,
		"transaction error for txn PP1 (pending -> completed, amount: 50.00): handler failed - funding update failed",
		txErr.Error())
	assert.True(t, errors.Is(txErr, baseErr))
	assert.True(t, errors.Is(txErr, ErrTransactionProcess))

	var typed *TransactionError
	assert.True(t, errors.As(txErr, &typed))
	assert.Equal(t, "completed", typed.LogFields()["new_status"])
}

func TestLogFields(t *testing.T) {
	plain := LogFields(ErrInvalidStatus)
	assert.Equal(t, "invalid transaction status", plain["error"])
	assert.Equal(t, CodeInvalidTransactionData, plain["error_code"])

	wrapped := LogFields(fmt.Errorf("validate: %w", NewRejectionError("PP1", 2, "project unpublished", ErrInvalidProject)))
	assert.Equal(t, "rejection", wrapped["error_type"])
	assert.Equal(t, "project unpublished", wrapped["reason"])
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsRejection(fmt.Errorf("x: %w", ErrInvalidOrderID)))
	assert.False(t, IsRejection(ErrTransactionCompleted))
	assert.True(t, IsTerminal(fmt.Errorf("x: %w", ErrTransactionCompleted)))
	assert.True(t, IsNotFoundError(ErrSessionNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("lookup: %w", ErrTransactionNotFound)))
	assert.False(t, IsNotFoundError(ErrInvalidReward))
}
