package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/internal/service"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/response"
)

// ParentPortalHandler serves parents a read-only view over their linked
// children. Every child-scoped route verifies the link before reading.
type ParentPortalHandler struct {
	people     *service.PeopleService
	marks      *service.MarkService
	attendance *service.AttendanceService
	fees       *service.FeeService
}

// NewParentPortalHandler creates a new handler.
func NewParentPortalHandler(people *service.PeopleService, marks *service.MarkService, attendance *service.AttendanceService, fees *service.FeeService) *ParentPortalHandler {
	return &ParentPortalHandler{
		people:     people,
		marks:      marks,
		attendance: attendance,
		fees:       fees,
	}
}

func (h *ParentPortalHandler) profile(c *gin.Context) (*models.Parent, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	parent, err := h.people.ParentByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return parent, true
}

// child resolves the :id path param and checks it is linked to the parent.
func (h *ParentPortalHandler) child(c *gin.Context) (*models.StudentDetail, bool) {
	parent, ok := h.profile(c)
	if !ok {
		return nil, false
	}
	children, err := h.people.Children(c.Request.Context(), parent.ID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	studentID := c.Param("id")
	for i := range children {
		if children[i].ID == studentID {
			return &children[i], true
		}
	}
	response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "student is not linked to this account"))
	return nil, false
}

// Children godoc
// @Summary List own linked children
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parent/children [get]
func (h *ParentPortalHandler) Children(c *gin.Context) {
	parent, ok := h.profile(c)
	if !ok {
		return
	}
	children, err := h.people.Children(c.Request.Context(), parent.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, children, nil)
}

// ChildMarks godoc
// @Summary View a linked child's marks
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /parent/children/{id}/marks [get]
func (h *ParentPortalHandler) ChildMarks(c *gin.Context) {
	child, ok := h.child(c)
	if !ok {
		return
	}
	marks, err := h.marks.StudentMarks(c.Request.Context(), child.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// ChildAttendance godoc
// @Summary View a linked child's attendance history
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student id"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /parent/children/{id}/attendance [get]
func (h *ParentPortalHandler) ChildAttendance(c *gin.Context) {
	child, ok := h.child(c)
	if !ok {
		return
	}
	records, err := h.attendance.StudentAttendance(c.Request.Context(), child.ID, c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ChildFees godoc
// @Summary View a linked child's fee records
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student id"
// @Success 200 {object} response.Envelope
// @Router /parent/children/{id}/fees [get]
func (h *ParentPortalHandler) ChildFees(c *gin.Context) {
	child, ok := h.child(c)
	if !ok {
		return
	}
	fees, err := h.fees.StudentFees(c.Request.Context(), child.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}
