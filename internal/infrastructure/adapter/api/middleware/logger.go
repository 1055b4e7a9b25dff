package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

// RequestIDKey is the gin context key and response header of the request id
const RequestIDKey = "X-Request-ID"

// RequestID reuses the caller's request id or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDKey, id)
		c.Next()
	}
}

// Logger logs one line per request. Probes are logged at debug so load balancer traffic stays out of the logs.
func Logger(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		fields := map[string]any{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"request_id": c.GetString(RequestIDKey),
		}
		if reference := c.Query("pesapal_merchant_reference"); reference != "" {
			fields["order_id"] = reference
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.Errors()
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Warn("Request failed", fields)
		case route == healthRoute:
			logger.Debug("Health probe", fields)
		default:
			logger.Info("Request processed", fields)
		}
	}
}

const healthRoute = "/health"
