package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/internal/service"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/response"
)

// PeopleHandler exposes the admin endpoints for students, teachers and
// parents.
type PeopleHandler struct {
	service *service.PeopleService
}

// NewPeopleHandler creates a new handler.
func NewPeopleHandler(svc *service.PeopleService) *PeopleHandler {
	return &PeopleHandler{service: svc}
}

// CreateStudent godoc
// @Summary Enrol a student
// @Tags People
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /admin/students [post]
func (h *PeopleHandler) CreateStudent(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	student, err := h.service.CreateStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// ListStudents godoc
// @Summary List students
// @Tags People
// @Produce json
// @Security BearerAuth
// @Param class_id query string false "Filter by class"
// @Param section_id query string false "Filter by section"
// @Success 200 {object} response.Envelope
// @Router /admin/students [get]
func (h *PeopleHandler) ListStudents(c *gin.Context) {
	page, size := pageParams(c)
	students, pagination, err := h.service.ListStudents(c.Request.Context(), c.Query("class_id"), c.Query("section_id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// GetStudent godoc
// @Summary Get one student
// @Tags People
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student id"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id} [get]
func (h *PeopleHandler) GetStudent(c *gin.Context) {
	student, err := h.service.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// UpdateStudent godoc
// @Summary Update a student profile
// @Tags People
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student id"
// @Param payload body models.StudentPatch true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id} [patch]
func (h *PeopleHandler) UpdateStudent(c *gin.Context) {
	var patch models.StudentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid patch payload"))
		return
	}

	if err := h.service.UpdateStudent(c.Request.Context(), c.Param("id"), patch); err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.service.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// DeleteStudent godoc
// @Summary Delete a student and their account
// @Tags People
// @Security BearerAuth
// @Param id path string true "Student id"
// @Success 204 {object} response.Envelope
// @Router /admin/students/{id} [delete]
func (h *PeopleHandler) DeleteStudent(c *gin.Context) {
	if err := h.service.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateTeacher godoc
// @Summary Hire a teacher
// @Tags People
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /admin/teachers [post]
func (h *PeopleHandler) CreateTeacher(c *gin.Context) {
	var req service.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}

	teacher, err := h.service.CreateTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// ListTeachers godoc
// @Summary List teachers
// @Tags People
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/teachers [get]
func (h *PeopleHandler) ListTeachers(c *gin.Context) {
	page, size := pageParams(c)
	teachers, pagination, err := h.service.ListTeachers(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// GetTeacher godoc
// @Summary Get one teacher
// @Tags People
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher id"
// @Success 200 {object} response.Envelope
// @Router /admin/teachers/{id} [get]
func (h *PeopleHandler) GetTeacher(c *gin.Context) {
	teacher, err := h.service.GetTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// UpdateTeacher godoc
// @Summary Update a teacher profile
// @Tags People
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher id"
// @Param payload body models.TeacherPatch true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /admin/teachers/{id} [patch]
func (h *PeopleHandler) UpdateTeacher(c *gin.Context) {
	var patch models.TeacherPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid patch payload"))
		return
	}

	if err := h.service.UpdateTeacher(c.Request.Context(), c.Param("id"), patch); err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.service.GetTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// DeleteTeacher godoc
// @Summary Delete a teacher and their account
// @Tags People
// @Security BearerAuth
// @Param id path string true "Teacher id"
// @Success 204 {object} response.Envelope
// @Router /admin/teachers/{id} [delete]
func (h *PeopleHandler) DeleteTeacher(c *gin.Context) {
	if err := h.service.DeleteTeacher(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateParent godoc
// @Summary Register a parent
// @Tags People
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateParentRequest true "Parent payload"
// @Success 201 {object} response.Envelope
// @Router /admin/parents [post]
func (h *PeopleHandler) CreateParent(c *gin.Context) {
	var req service.CreateParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid parent payload"))
		return
	}

	parent, err := h.service.CreateParent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}

// ListParents godoc
// @Summary List parents
// @Tags People
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/parents [get]
func (h *PeopleHandler) ListParents(c *gin.Context) {
	page, size := pageParams(c)
	parents, pagination, err := h.service.ListParents(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parents, pagination)
}

// LinkChild godoc
// @Summary Link a parent to a student
// @Tags People
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent id"
// @Param payload body service.ChildLinkEntry true "Link payload"
// @Success 204 {object} response.Envelope
// @Router /admin/parents/{id}/children [post]
func (h *PeopleHandler) LinkChild(c *gin.Context) {
	var entry service.ChildLinkEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid link payload"))
		return
	}

	if err := h.service.LinkChild(c.Request.Context(), c.Param("id"), entry); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
