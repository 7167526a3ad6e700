package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/service"
	"github.com/schoolstack/sms-api/pkg/response"
)

// DashboardHandler serves the cached admin dashboard.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary Aggregate counters for the admin dashboard
// @Description Served from Redis when warm, rebuilt on miss
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Invalidate godoc
// @Summary Drop the cached dashboard summary
// @Tags Dashboard
// @Security BearerAuth
// @Success 204 {object} response.Envelope
// @Router /admin/dashboard/cache [delete]
func (h *DashboardHandler) Invalidate(c *gin.Context) {
	if err := h.dashboard.Invalidate(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
