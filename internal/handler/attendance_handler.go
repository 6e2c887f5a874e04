package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smart-campus/campus-api/internal/dto"
	"github.com/smart-campus/campus-api/internal/models"
	appErrors "github.com/smart-campus/campus-api/pkg/errors"
	"github.com/smart-campus/campus-api/pkg/response"
)

type attendanceManager interface {
	CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*models.AttendanceSession, error)
	CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.CheckInResult, error)
	ListCheckIns(ctx context.Context, filter models.AttendanceCheckInFilter) ([]models.AttendanceCheckIn, *models.Pagination, error)
}

// AttendanceHandler manages geofenced attendance endpoints.
type AttendanceHandler struct {
	service attendanceManager
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(svc attendanceManager) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// CreateSession godoc
// @Summary Register an attendance session with its geofence
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /attendance/sessions [post]
func (h *AttendanceHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// CheckIn godoc
// @Summary Record a GPS attendance check-in
// @Description Stores the check-in and evaluates it against the session geofence and the student's previous check-in. Suspicious check-ins are flagged for review, never rejected.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.CheckInRequest true "Check-in payload"
// @Success 201 {object} response.Envelope
// @Router /attendance/check-in [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.CheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListCheckIns godoc
// @Summary List check-ins for a session
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Param flagged query bool false "Only flagged check-ins"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance/sessions/{id}/check-ins [get]
func (h *AttendanceHandler) ListCheckIns(c *gin.Context) {
	filter := models.AttendanceCheckInFilter{
		SessionID: c.Param("id"),
		StudentID: c.Query("studentId"),
	}
	filter.FlaggedOnly, _ = strconv.ParseBool(c.DefaultQuery("flagged", "false"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	checkIns, pagination, err := h.service.ListCheckIns(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checkIns, pagination)
}
