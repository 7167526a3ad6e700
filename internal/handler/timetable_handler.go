package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/internal/service"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/response"
)

// TimetableHandler exposes timetable administration and read endpoints.
type TimetableHandler struct {
	service *service.TimetableService
}

// NewTimetableHandler creates a new handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// CreateEntry godoc
// @Summary Add a timetable period
// @Description Rejects the period when the class slot or the teacher is already booked
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateTimetableEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/timetables [post]
func (h *TimetableHandler) CreateEntry(c *gin.Context) {
	var req service.CreateTimetableEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}

	entry, err := h.service.CreateEntry(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateEntry godoc
// @Summary Update a timetable period
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry id"
// @Param payload body models.TimetablePatch true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/timetables/{id} [patch]
func (h *TimetableHandler) UpdateEntry(c *gin.Context) {
	var patch models.TimetablePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid patch payload"))
		return
	}

	entry, err := h.service.UpdateEntry(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeleteEntry godoc
// @Summary Delete a timetable period
// @Tags Timetable
// @Security BearerAuth
// @Param id path string true "Entry id"
// @Success 204 {object} response.Envelope
// @Router /admin/timetables/{id} [delete]
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	if err := h.service.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteGroup godoc
// @Summary Clear a class timetable
// @Description Deletes every period of a (class, section-or-all) timetable
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param class_id query string true "Class id"
// @Param section_id query string false "Section id; omit for the class-wide timetable"
// @Success 200 {object} response.Envelope
// @Router /admin/timetables [delete]
func (h *TimetableHandler) DeleteGroup(c *gin.Context) {
	classID := c.Query("class_id")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id is required"))
		return
	}

	deleted, err := h.service.DeleteGroup(c.Request.Context(), classID, optionalQuery(c, "section_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

// ListGroups godoc
// @Summary List existing timetables
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/timetables/groups [get]
func (h *TimetableHandler) ListGroups(c *gin.Context) {
	groups, err := h.service.ListGroups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// ClassTimetable godoc
// @Summary View a class timetable grouped by day
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class id"
// @Param section_id query string false "Section id"
// @Success 200 {object} response.Envelope
// @Router /admin/classes/{id}/timetable [get]
func (h *TimetableHandler) ClassTimetable(c *gin.Context) {
	timetable, err := h.service.ClassTimetable(c.Request.Context(), c.Param("id"), optionalQuery(c, "section_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}
