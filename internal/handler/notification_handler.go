package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/service"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/response"
)

// NotificationHandler lets admins broadcast announcements and any
// authenticated user read their own feed.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new handler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Create godoc
// @Summary Create an announcement
// @Description Targets a whole role, a single user, or everyone
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Router /admin/notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var req service.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return
	}

	notification, err := h.notifications.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}

// Mine godoc
// @Summary List notifications addressed to the caller
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max rows" default(50)
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}

	notifications, listErr := h.notifications.ListForUser(c.Request.Context(), claims.UserID, claims.Role, limit)
	if listErr != nil {
		response.Error(c, listErr)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// Delete godoc
// @Summary Delete an announcement
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification id"
// @Success 204 {object} response.Envelope
// @Router /admin/notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.notifications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
