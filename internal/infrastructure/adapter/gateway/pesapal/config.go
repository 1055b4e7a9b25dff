package pesapal

import (
	"strings"
	"time"
)

// Default gateway endpoints
const (
	DefaultMerchantURL     = "https://www.pesapal.com/API/PostPesapalDirectOrderV4"
	DefaultTestMerchantURL = "https://demo.pesapal.com/API/PostPesapalDirectOrderV4"
	DefaultAPIURL          = "https://www.pesapal.com/api"
	DefaultTestAPIURL      = "https://demo.pesapal.com/api"
	DefaultRequestTimeout  = 30 * time.Second
)

// Config holds the merchant credentials and endpoints of the PesaPal account
type Config struct {
	ConsumerKey     string
	ConsumerSecret  string
	TestEnabled     bool
	MerchantURL     string
	TestMerchantURL string
	APIURL          string
	TestAPIURL      string
	RequestTimeout  time.Duration
}

// withDefaults trims credentials and fills in missing endpoints
func (c Config) withDefaults() Config {
	c.ConsumerKey = strings.TrimSpace(c.ConsumerKey)
	c.ConsumerSecret = strings.TrimSpace(c.ConsumerSecret)

	if c.MerchantURL == "" {
		c.MerchantURL = DefaultMerchantURL
	}
	if c.TestMerchantURL == "" {
		c.TestMerchantURL = DefaultTestMerchantURL
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.TestAPIURL == "" {
		c.TestAPIURL = DefaultTestAPIURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}

// merchantURL returns the checkout endpoint of the active environment
func (c Config) merchantURL() string {
	if c.TestEnabled {
		return c.TestMerchantURL
	}
	return c.MerchantURL
}

// statusURL returns the payment status endpoint of the active environment
func (c Config) statusURL() string {
	base := c.APIURL
	if c.TestEnabled {
		base = c.TestAPIURL
	}
	return strings.TrimRight(base, "/") + "/QueryPaymentStatus"
}

// hasCredentials reports whether both consumer key and secret are set
func (c Config) hasCredentials() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != ""
}
