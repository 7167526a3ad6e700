package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/service"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/response"
)

// AcademicHandler exposes class, section, subject and assignment endpoints.
type AcademicHandler struct {
	service *service.AcademicService
}

// NewAcademicHandler creates a new handler.
func NewAcademicHandler(svc *service.AcademicService) *AcademicHandler {
	return &AcademicHandler{service: svc}
}

// ListClasses godoc
// @Summary List classes
// @Tags Academics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/classes [get]
func (h *AcademicHandler) ListClasses(c *gin.Context) {
	classes, err := h.service.ListClasses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// CreateClass godoc
// @Summary Create a class
// @Tags Academics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /admin/classes [post]
func (h *AcademicHandler) CreateClass(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	class, err := h.service.CreateClass(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// DeleteClass godoc
// @Summary Delete a class
// @Tags Academics
// @Security BearerAuth
// @Param id path string true "Class id"
// @Success 204 {object} response.Envelope
// @Router /admin/classes/{id} [delete]
func (h *AcademicHandler) DeleteClass(c *gin.Context) {
	if err := h.service.DeleteClass(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSections godoc
// @Summary List the sections of a class
// @Tags Academics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class id"
// @Success 200 {object} response.Envelope
// @Router /admin/classes/{id}/sections [get]
func (h *AcademicHandler) ListSections(c *gin.Context) {
	sections, err := h.service.ListSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// CreateSection godoc
// @Summary Create a section
// @Tags Academics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /admin/sections [post]
func (h *AcademicHandler) CreateSection(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}

	section, err := h.service.CreateSection(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// DeleteSection godoc
// @Summary Delete a section
// @Tags Academics
// @Security BearerAuth
// @Param id path string true "Section id"
// @Success 204 {object} response.Envelope
// @Router /admin/sections/{id} [delete]
func (h *AcademicHandler) DeleteSection(c *gin.Context) {
	if err := h.service.DeleteSection(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Academics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/subjects [get]
func (h *AcademicHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// CreateSubject godoc
// @Summary Create a subject
// @Tags Academics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /admin/subjects [post]
func (h *AcademicHandler) CreateSubject(c *gin.Context) {
	var req service.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}

	subject, err := h.service.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// DeleteSubject godoc
// @Summary Delete a subject
// @Tags Academics
// @Security BearerAuth
// @Param id path string true "Subject id"
// @Success 204 {object} response.Envelope
// @Router /admin/subjects/{id} [delete]
func (h *AcademicHandler) DeleteSubject(c *gin.Context) {
	if err := h.service.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignTeacher godoc
// @Summary Assign a teacher to a class/section/subject
// @Tags Academics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AssignTeacherRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /admin/assignments [post]
func (h *AcademicHandler) AssignTeacher(c *gin.Context) {
	var req service.AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	assignment, err := h.service.AssignTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// RevokeAssignment godoc
// @Summary Revoke a teacher assignment
// @Tags Academics
// @Security BearerAuth
// @Param id path string true "Assignment id"
// @Success 204 {object} response.Envelope
// @Router /admin/assignments/{id} [delete]
func (h *AcademicHandler) RevokeAssignment(c *gin.Context) {
	if err := h.service.RevokeAssignment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TeacherAssignments godoc
// @Summary List a teacher's assignments
// @Tags Academics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher id"
// @Success 200 {object} response.Envelope
// @Router /admin/teachers/{id}/assignments [get]
func (h *AcademicHandler) TeacherAssignments(c *gin.Context) {
	assignments, err := h.service.TeacherAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}
