package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studioops/backend/internal/infrastructure/persistence"
	"github.com/studioops/backend/internal/interfaces/http/dto"
)

// HealthHandler reports service liveness and database reachability.
type HealthHandler struct {
	BaseHandler
	db *persistence.Database
}

func NewHealthHandler(db *persistence.Database) *HealthHandler {
	return &HealthHandler{db: db}
}

// RegisterRoutes registers the health route on the API group.
func (h *HealthHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/health", h.Check)
}

// Check returns 200 when the service and its database are reachable.
func (h *HealthHandler) Check(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(
				dto.ErrCodeInternalError, "database unreachable"))
			return
		}
		status["database"] = "ok"
	}
	h.Success(c, status)
}
