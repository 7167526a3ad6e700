package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/internal/service"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/response"
)

// TeacherPortalHandler exposes the endpoints teachers use day to day. Every
// operation resolves the caller's teacher profile from the JWT and runs
// through the assignment scope checks.
type TeacherPortalHandler struct {
	people        *service.PeopleService
	academics     *service.AcademicService
	timetables    *service.TimetableService
	marks         *service.MarkService
	attendance    *service.AttendanceService
	materials     *service.MaterialService
	notifications *service.NotificationService
	scope         *service.ScopeService
}

// NewTeacherPortalHandler creates a new handler.
func NewTeacherPortalHandler(people *service.PeopleService, academics *service.AcademicService, timetables *service.TimetableService, marks *service.MarkService, attendance *service.AttendanceService, materials *service.MaterialService, notifications *service.NotificationService, scope *service.ScopeService) *TeacherPortalHandler {
	return &TeacherPortalHandler{
		people:        people,
		academics:     academics,
		timetables:    timetables,
		marks:         marks,
		attendance:    attendance,
		materials:     materials,
		notifications: notifications,
		scope:         scope,
	}
}

// profile resolves the teacher row behind the authenticated user.
func (h *TeacherPortalHandler) profile(c *gin.Context) (*models.Teacher, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	teacher, err := h.people.TeacherByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return teacher, true
}

// MyAssignments godoc
// @Summary List own assignments
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teacher/assignments [get]
func (h *TeacherPortalHandler) MyAssignments(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}
	assignments, err := h.academics.TeacherAssignments(c.Request.Context(), teacher.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// MyTimetable godoc
// @Summary View own timetable grouped by day
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teacher/timetable [get]
func (h *TeacherPortalHandler) MyTimetable(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}
	timetable, err := h.timetables.TeacherTimetable(c.Request.Context(), teacher.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Roster godoc
// @Summary View a class roster
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Param class_id query string true "Class id"
// @Param section_id query string false "Section id"
// @Success 200 {object} response.Envelope
// @Router /teacher/roster [get]
func (h *TeacherPortalHandler) Roster(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}
	classID := c.Query("class_id")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id is required"))
		return
	}
	sectionID := optionalQuery(c, "section_id")
	if err := h.scope.HoldsClassAssignment(c.Request.Context(), teacher.ID, classID, models.ScopeFromNullable(sectionID)); err != nil {
		response.Error(c, err)
		return
	}

	roster, err := h.people.Roster(c.Request.Context(), classID, sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// SubmitMarks godoc
// @Summary Submit a marks sheet
// @Description Scope-checked, ceiling-checked and saved all-or-nothing
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SubmitMarksRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/marks [post]
func (h *TeacherPortalHandler) SubmitMarks(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}

	var req service.SubmitMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid marks payload"))
		return
	}

	result, err := h.marks.Submit(c.Request.Context(), teacher.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MarkSheet godoc
// @Summary View the marks sheet of an exam subject
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exam subject id"
// @Success 200 {object} response.Envelope
// @Router /teacher/marks/{id} [get]
func (h *TeacherPortalHandler) MarkSheet(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}
	rows, err := h.marks.Sheet(c.Request.Context(), teacher.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// MarkAttendance godoc
// @Summary Mark a day's attendance
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /teacher/attendance [post]
func (h *TeacherPortalHandler) MarkAttendance(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}

	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	count, err := h.attendance.Mark(c.Request.Context(), teacher.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved": count}, nil)
}

// ClassAttendance godoc
// @Summary View a class attendance sheet for one date
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Param class_id query string true "Class id"
// @Param section_id query string false "Section id"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teacher/attendance [get]
func (h *TeacherPortalHandler) ClassAttendance(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}
	classID := c.Query("class_id")
	date := c.Query("date")
	if classID == "" || date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id and date are required"))
		return
	}

	records, err := h.attendance.ClassSheet(c.Request.Context(), teacher.ID, classID, optionalQuery(c, "section_id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// PostMaterial godoc
// @Summary Post study material
// @Description Without class_id the post fans out to every class the teacher is assigned for the subject. Notifies every student in the target rosters.
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateMaterialRequest true "Material payload"
// @Success 201 {object} response.Envelope
// @Router /teacher/materials [post]
func (h *TeacherPortalHandler) PostMaterial(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}

	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid material payload"))
		return
	}

	materials, err := h.materials.Create(c.Request.Context(), teacher.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, materials)
}

// MyMaterials godoc
// @Summary List own posted materials
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teacher/materials [get]
func (h *TeacherPortalHandler) MyMaterials(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}
	materials, err := h.materials.TeacherMaterials(c.Request.Context(), teacher.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// DeleteMaterial godoc
// @Summary Delete an own material post
// @Tags Teacher
// @Security BearerAuth
// @Param id path string true "Material id"
// @Success 204 {object} response.Envelope
// @Router /teacher/materials/{id} [delete]
func (h *TeacherPortalHandler) DeleteMaterial(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}
	if err := h.materials.Delete(c.Request.Context(), teacher.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SendNotification godoc
// @Summary Send a notice to one class roster
// @Description One notification row per enrolled student's user id
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SendClassNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Router /teacher/notifications [post]
func (h *TeacherPortalHandler) SendNotification(c *gin.Context) {
	teacher, ok := h.profile(c)
	if !ok {
		return
	}

	var req service.SendClassNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return
	}

	sent, err := h.notifications.SendToClass(c.Request.Context(), teacher.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"recipients": sent})
}
