package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/service"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/response"
)

// ExamHandler exposes exam and exam-subject administration.
type ExamHandler struct {
	service *service.ExamService
}

// NewExamHandler creates a new handler.
func NewExamHandler(svc *service.ExamService) *ExamHandler {
	return &ExamHandler{service: svc}
}

// List godoc
// @Summary List exams
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	exams, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, nil)
}

// Create godoc
// @Summary Create an exam window
// @Tags Exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateExamRequest true "Exam payload"
// @Success 201 {object} response.Envelope
// @Router /admin/exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	var req service.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam payload"))
		return
	}

	exam, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// Delete godoc
// @Summary Delete an exam
// @Tags Exams
// @Security BearerAuth
// @Param id path string true "Exam id"
// @Success 204 {object} response.Envelope
// @Router /admin/exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateSubject godoc
// @Summary Schedule a subject inside an exam
// @Tags Exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateExamSubjectRequest true "Exam subject payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/exam-subjects [post]
func (h *ExamHandler) CreateSubject(c *gin.Context) {
	var req service.CreateExamSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam subject payload"))
		return
	}

	subject, err := h.service.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// ListSubjects godoc
// @Summary List the subjects scheduled in an exam
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exam id"
// @Success 200 {object} response.Envelope
// @Router /admin/exams/{id}/subjects [get]
func (h *ExamHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
