package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/api/dto"
)

// ErrorHandler middleware recovers from panics and returns appropriate error responses
func ErrorHandler(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered in API request", map[string]any{
					"error":      fmt.Sprint(err),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"client_ip":  c.ClientIP(),
					"request_id": c.GetString(RequestIDKey),
					"user_agent": c.Request.UserAgent(),
				})

				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
					Code:      domainerr.ErrorCode(domainerr.ErrInternalServer),
					Message:   "Internal server error",
					RequestID: c.GetString(RequestIDKey),
				})
			}
		}()

		c.Next()
	}
}

// MethodNotAllowed answers requests whose path exists under another method
func MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, dto.ErrorResponse{
			Code:      domainerr.ErrorCode(domainerr.ErrInvalidRequest),
			Message:   "Method not allowed",
			RequestID: c.GetString(RequestIDKey),
		})
	}
}
