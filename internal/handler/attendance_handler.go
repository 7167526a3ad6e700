package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/service"
	"github.com/schoolstack/sms-api/pkg/response"
)

// AttendanceHandler exposes the admin attendance views. Teacher-facing
// marking lives on the teacher portal.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Overview godoc
// @Summary Attendance percentage per class and section
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance/overview [get]
func (h *AttendanceHandler) Overview(c *gin.Context) {
	rows, err := h.attendance.Overview(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// StudentAttendance godoc
// @Summary A student's attendance history
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student id"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id}/attendance [get]
func (h *AttendanceHandler) StudentAttendance(c *gin.Context) {
	records, err := h.attendance.StudentAttendance(c.Request.Context(), c.Param("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
