package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/internal/service"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/export"
	"github.com/schoolstack/sms-api/pkg/response"
)

// ReportHandler queues report exports and serves the rendered files through
// signed tokens. Downloads skip the JWT so the token alone grants access.
type ReportHandler struct {
	reports *service.ReportService
	people  *service.PeopleService
}

// NewReportHandler creates a new handler.
func NewReportHandler(reports *service.ReportService, people *service.PeopleService) *ReportHandler {
	return &ReportHandler{reports: reports, people: people}
}

type requestMarksSheetRequest struct {
	ExamSubjectID string `json:"exam_subject_id" binding:"required"`
	Format        string `json:"format" binding:"required"`
}

type requestAttendanceOverviewRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Format string `json:"format" binding:"required"`
}

// RequestMarksSheet godoc
// @Summary Queue a marks sheet export
// @Description Admins export any exam subject; teachers only those they are assigned to
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body requestMarksSheetRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /reports/marks-sheet [post]
func (h *ReportHandler) RequestMarksSheet(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req requestMarksSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report request"))
		return
	}

	teacherID := ""
	if claims.Role == models.RoleTeacher {
		teacher, err := h.people.TeacherByUser(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		teacherID = teacher.ID
	}

	job, err := h.reports.RequestMarksSheet(c.Request.Context(), claims.UserID, teacherID, req.ExamSubjectID, export.Format(req.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// RequestAttendanceOverview godoc
// @Summary Queue an attendance overview export
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body requestAttendanceOverviewRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /reports/attendance-overview [post]
func (h *ReportHandler) RequestAttendanceOverview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req requestAttendanceOverviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report request"))
		return
	}

	job, err := h.reports.RequestAttendanceOverview(c.Request.Context(), claims.UserID, req.From, req.To, export.Format(req.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Poll a report job
// @Description Includes a signed download token once the job completes
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job id"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status, err := h.reports.Status(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// List godoc
// @Summary List own report jobs
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	jobs, err := h.reports.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// Download godoc
// @Summary Download a rendered report
// @Description Authenticated by the signed token, not the JWT
// @Tags Reports
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, job, err := h.reports.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	contentType := "application/octet-stream"
	switch export.Format(job.Format) {
	case export.FormatCSV:
		contentType = "text/csv"
	case export.FormatPDF:
		contentType = "application/pdf"
	}

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat report file"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(file.Name())+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
