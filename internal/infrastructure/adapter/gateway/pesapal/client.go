package pesapal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/gateway"
)

// maxResponseSize bounds the status response body read from the gateway
const maxResponseSize = 64 << 10

// Client talks to the PesaPal checkout page and status API
type Client struct {
	config     Config
	httpClient *http.Client
	signer     *requestSigner
	logger     core.Logger
}

var (
	_ gateway.StatusClient   = (*Client)(nil)
	_ gateway.CheckoutSigner = (*Client)(nil)
)

// NewClient creates a PesaPal client. Missing credentials are reported per call.
func NewClient(config Config, timeProvider core.TimeProvider, logger core.Logger) *Client {
	config = config.withDefaults()

	httpClient := &http.Client{
		Timeout: config.RequestTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		signer: newRequestSigner(config.ConsumerKey, config.ConsumerSecret, func() int64 {
			return timeProvider.Now().Unix()
		}),
		logger: logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// Configured reports whether consumer key and secret are set
func (c *Client) Configured() bool {
	return c.config.hasCredentials()
}

// CheckoutURL signs the checkout page URL carrying the order document
func (c *Client) CheckoutURL(order gateway.Order, callbackURL string) (string, error) {
	if !c.Configured() {
		return "", errs.ErrNotConfigured
	}

	data, err := requestData(order)
	if err != nil {
		return "", fmt.Errorf("encode order %s: %w", order.Reference, err)
	}

	signed, err := c.signer.signedURL(c.config.merchantURL(), map[string]string{
		"oauth_callback":       callbackURL,
		"pesapal_request_data": data,
	})
	if err != nil {
		return "", fmt.Errorf("sign checkout url for order %s: %w", order.Reference, err)
	}

	c.logger.Debug("Checkout URL signed", map[string]any{
		"order_id":     order.Reference,
		"test_enabled": c.config.TestEnabled,
	})
	return signed, nil
}

// FetchStatus queries the payment status of an order
func (c *Client) FetchStatus(ctx context.Context, orderID, trackingID string) (string, error) {
	if !c.Configured() {
		return "", errs.ErrNotConfigured
	}

	gatewayErr := func(statusCode int, err error) error {
		return &errs.GatewayError{
			Operation:  "query_payment_status",
			OrderID:    orderID,
			TrackingID: trackingID,
			StatusCode: statusCode,
			Err:        err,
		}
	}

	signed, err := c.signer.signedURL(c.config.statusURL(), map[string]string{
		"pesapal_merchant_reference":      orderID,
		"pesapal_transaction_tracking_id": trackingID,
	})
	if err != nil {
		return "", gatewayErr(0, fmt.Errorf("%w: %v", errs.ErrGatewayTransport, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signed, nil)
	if err != nil {
		return "", gatewayErr(0, fmt.Errorf("%w: %v", errs.ErrGatewayTransport, err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Payment status request failed", map[string]any{
			"order_id":    orderID,
			"tracking_id": trackingID,
			"error":       err.Error(),
		})
		return "", gatewayErr(0, fmt.Errorf("%w: %v", errs.ErrGatewayTransport, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", gatewayErr(resp.StatusCode, fmt.Errorf("%w: %v", errs.ErrGatewayTransport, err))
	}

	c.logger.Debug("Payment status response received", map[string]any{
		"order_id":    orderID,
		"tracking_id": trackingID,
		"status_code": resp.StatusCode,
		"body":        string(body),
	})

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", gatewayErr(resp.StatusCode, errs.ErrGatewayTransport)
	}
	if resp.StatusCode != http.StatusOK {
		return "", gatewayErr(resp.StatusCode, errs.ErrGatewayResponse)
	}

	status := parseStatus(string(body))
	if status == "" {
		return "", gatewayErr(resp.StatusCode, errs.ErrGatewayResponse)
	}
	return status, nil
}

// parseStatus extracts the last "="-delimited segment of a "pesapal_response_data=<STATUS>" body
func parseStatus(body string) string {
	parts := strings.Split(body, "=")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}
