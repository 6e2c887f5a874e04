package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smart-campus/campus-api/internal/dto"
	"github.com/smart-campus/campus-api/internal/models"
	"github.com/smart-campus/campus-api/internal/service"
	appErrors "github.com/smart-campus/campus-api/pkg/errors"
	"github.com/smart-campus/campus-api/pkg/response"
)

type autoScheduler interface {
	Run(ctx context.Context, req dto.AutoScheduleRequest) (*dto.AutoScheduleResult, error)
	RunAsync(ctx context.Context, req dto.AutoScheduleRequest) (*dto.AsyncRunAccepted, error)
	GetRunStatus(ctx context.Context, runID string) (*dto.AsyncRunStatus, error)
	GetTimetable(ctx context.Context, semester string, year int) ([]models.Schedule, error)
}

type timetableExporter interface {
	GenerateTimetable(ctx context.Context, semester string, year int, format string) (*service.ExportResult, error)
	OpenExport(token string) (*os.File, error)
}

// ScheduleHandler manages timetable generation and retrieval endpoints.
type ScheduleHandler struct {
	service autoScheduler
	exports timetableExporter
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc autoScheduler, exports timetableExporter) *ScheduleHandler {
	return &ScheduleHandler{service: svc, exports: exports}
}

// AutoSchedule godoc
// @Summary Run the automatic timetable builder
// @Description Builds a conflict-free timetable for the semester. Sections that cannot be placed are reported with a reason; the rest are committed. Set async=true to queue the run and poll it by run id.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.AutoScheduleRequest true "Scheduling run parameters"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /schedule/auto [post]
func (h *ScheduleHandler) AutoSchedule(c *gin.Context) {
	var req dto.AutoScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if req.Async {
		accepted, err := h.service.RunAsync(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, accepted)
		return
	}

	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetRunStatus godoc
// @Summary Poll an async scheduling run
// @Tags Schedules
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/runs/{id} [get]
func (h *ScheduleHandler) GetRunStatus(c *gin.Context) {
	status, err := h.service.GetRunStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// GetTimetable godoc
// @Summary Get the committed semester timetable
// @Tags Schedules
// @Produce json
// @Param semester query string true "Semester"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) GetTimetable(c *gin.Context) {
	semester := c.Query("semester")
	year, err := strconv.Atoi(c.Query("year"))
	if semester == "" || err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester and year query parameters are required"))
		return
	}

	schedules, svcErr := h.service.GetTimetable(c.Request.Context(), semester, year)
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// ExportTimetable godoc
// @Summary Export the semester timetable as CSV or PDF
// @Tags Schedules
// @Produce json
// @Param semester query string true "Semester"
// @Param year query int true "Year"
// @Param format query string true "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /schedule/export [post]
func (h *ScheduleHandler) ExportTimetable(c *gin.Context) {
	semester := c.Query("semester")
	year, err := strconv.Atoi(c.Query("year"))
	if semester == "" || err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester and year query parameters are required"))
		return
	}

	result, svcErr := h.exports.GenerateTimetable(c.Request.Context(), semester, year, c.Query("format"))
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        result.URL,
		"format":     result.Format,
		"expires_at": result.ExpiresAt,
	}, nil)
}

// DownloadExport godoc
// @Summary Download a generated timetable export
// @Tags Schedules
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /schedule/export/{token} [get]
func (h *ScheduleHandler) DownloadExport(c *gin.Context) {
	file, err := h.exports.OpenExport(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}

	mimeType := "text/csv"
	if filepath.Ext(info.Name()) == ".pdf" {
		mimeType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name()))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeType, file, nil)
}
