package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/api/dto"
)

// healthCheckTimeout bounds every dependency probe
const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency, a nil error means healthy
type HealthCheck func(ctx context.Context) error

// HealthHandler answers load balancer probes
type HealthHandler struct {
	checks map[string]HealthCheck
	logger coreport.Logger
}

// NewHealthHandler creates a health handler over the named checks
func NewHealthHandler(checks map[string]HealthCheck, logger coreport.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logger,
	}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	response := dto.HealthResponse{
		Status: "ok",
		Checks: make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("Health check failed", map[string]any{
				"check": name,
				"error": err.Error(),
			})
			response.Checks[name] = err.Error()
			response.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "ok"
	}

	c.JSON(status, response)
}
