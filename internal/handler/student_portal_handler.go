package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/internal/service"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/response"
)

// StudentPortalHandler serves the read-only self-service endpoints for
// students. Everything is keyed off the student profile behind the JWT.
type StudentPortalHandler struct {
	people        *service.PeopleService
	timetables    *service.TimetableService
	marks         *service.MarkService
	attendance    *service.AttendanceService
	materials     *service.MaterialService
	fees          *service.FeeService
	notifications *service.NotificationService
}

// NewStudentPortalHandler creates a new handler.
func NewStudentPortalHandler(people *service.PeopleService, timetables *service.TimetableService, marks *service.MarkService, attendance *service.AttendanceService, materials *service.MaterialService, fees *service.FeeService, notifications *service.NotificationService) *StudentPortalHandler {
	return &StudentPortalHandler{
		people:        people,
		timetables:    timetables,
		marks:         marks,
		attendance:    attendance,
		materials:     materials,
		fees:          fees,
		notifications: notifications,
	}
}

func (h *StudentPortalHandler) profile(c *gin.Context) (*models.Student, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	student, err := h.people.StudentByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return student, true
}

// MyTimetable godoc
// @Summary View own class timetable grouped by day
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/timetable [get]
func (h *StudentPortalHandler) MyTimetable(c *gin.Context) {
	student, ok := h.profile(c)
	if !ok {
		return
	}
	timetable, err := h.timetables.ClassTimetable(c.Request.Context(), student.ClassID, student.SectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// MyMarks godoc
// @Summary View own marks across exams
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/marks [get]
func (h *StudentPortalHandler) MyMarks(c *gin.Context) {
	student, ok := h.profile(c)
	if !ok {
		return
	}
	marks, err := h.marks.StudentMarks(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// MyAttendance godoc
// @Summary View own attendance history
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /student/attendance [get]
func (h *StudentPortalHandler) MyAttendance(c *gin.Context) {
	student, ok := h.profile(c)
	if !ok {
		return
	}
	records, err := h.attendance.StudentAttendance(c.Request.Context(), student.ID, c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// MyMaterials godoc
// @Summary List study materials visible to own class and section
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/materials [get]
func (h *StudentPortalHandler) MyMaterials(c *gin.Context) {
	student, ok := h.profile(c)
	if !ok {
		return
	}
	materials, err := h.materials.StudentMaterials(c.Request.Context(), student.ClassID, student.SectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// MyFees godoc
// @Summary View own fee records
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/fees [get]
func (h *StudentPortalHandler) MyFees(c *gin.Context) {
	student, ok := h.profile(c)
	if !ok {
		return
	}
	fees, err := h.fees.StudentFees(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}

// MyNotifications godoc
// @Summary List notifications addressed to the student
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max rows" default(50)
// @Success 200 {object} response.Envelope
// @Router /student/notifications [get]
func (h *StudentPortalHandler) MyNotifications(c *gin.Context) {
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
