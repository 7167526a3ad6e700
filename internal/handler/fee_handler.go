package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/internal/service"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/response"
)

// FeeHandler exposes the admin fee ledger.
type FeeHandler struct {
	fees *service.FeeService
}

// NewFeeHandler creates a new handler.
func NewFeeHandler(fees *service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// Create godoc
// @Summary Create a fee record
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateFeeRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /admin/fees [post]
func (h *FeeHandler) Create(c *gin.Context) {
	var req service.CreateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fee payload"))
		return
	}

	fee, err := h.fees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// List godoc
// @Summary List fee records
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Router /admin/fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	fees, pagination, err := h.fees.List(c.Request.Context(), models.FeeStatus(c.Query("status")), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, pagination)
}

// StudentFees godoc
// @Summary List a student's fee records
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student id"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id}/fees [get]
func (h *FeeHandler) StudentFees(c *gin.Context) {
	fees, err := h.fees.StudentFees(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}

// Update godoc
// @Summary Update a fee record
// @Description Marking a fee Paid without a paid_on date stamps today
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Fee id"
// @Param payload body models.FeePatch true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /admin/fees/{id} [patch]
func (h *FeeHandler) Update(c *gin.Context) {
	var patch models.FeePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fee payload"))
		return
	}

	fee, err := h.fees.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Delete godoc
// @Summary Delete a fee record
// @Tags Fees
// @Security BearerAuth
// @Param id path string true "Fee id"
// @Success 204 {object} response.Envelope
// @Router /admin/fees/{id} [delete]
func (h *FeeHandler) Delete(c *gin.Context) {
	if err := h.fees.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
