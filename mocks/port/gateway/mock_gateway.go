// Package gateway provides testify mocks of the payment gateway ports
package gateway

import (
	"context"

	"github.com/stretchr/testify/mock"

	port "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/gateway"
)

// MockStatusClient is a mock of gateway.StatusClient
type MockStatusClient struct {
	mock.Mock
}

// NewMockStatusClient creates a MockStatusClient that asserts its expectations on cleanup
func NewMockStatusClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStatusClient {
	m := &MockStatusClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// FetchStatus provides a mock function
func (m *MockStatusClient) FetchStatus(ctx context.Context, orderID, trackingID string) (string, error) {
	args := m.Called(ctx, orderID, trackingID)
	return args.String(0), args.Error(1)
}

// MockCheckoutSigner is a mock of gateway.CheckoutSigner
type MockCheckoutSigner struct {
	mock.Mock
}

// NewMockCheckoutSigner creates a MockCheckoutSigner that asserts its expectations on cleanup
func NewMockCheckoutSigner(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCheckoutSigner {
	m := &MockCheckoutSigner{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Configured provides a mock function
func (m *MockCheckoutSigner) Configured() bool {
	return m.Called().Bool(0)
}

// CheckoutURL provides a mock function
func (m *MockCheckoutSigner) CheckoutURL(order port.Order, callbackURL string) (string, error) {
	args := m.Called(order, callbackURL)
	return args.String(0), args.Error(1)
}

var (
	_ port.StatusClient   = (*MockStatusClient)(nil)
	_ port.CheckoutSigner = (*MockCheckoutSigner)(nil)
)
