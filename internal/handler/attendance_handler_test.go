package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-campus/campus-api/internal/dto"
	"github.com/smart-campus/campus-api/internal/models"
)

type attendanceMock struct {
	capturedCheckIn dto.CheckInRequest
	capturedFilter  models.AttendanceCheckInFilter
	checkInResult   *dto.CheckInResult
}

func (m *attendanceMock) CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*models.AttendanceSession, error) {
	return &models.AttendanceSession{ID: "sess-1", SectionID: req.SectionID, GeofenceRadiusM: 100}, nil
}

func (m *attendanceMock) CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.CheckInResult, error) {
	m.capturedCheckIn = req
	if m.checkInResult != nil {
		return m.checkInResult, nil
	}
	return &dto.CheckInResult{CheckInID: "chk-1", SessionID: req.SessionID, StudentID: req.StudentID}, nil
}

func (m *attendanceMock) ListCheckIns(ctx context.Context, filter models.AttendanceCheckInFilter) ([]models.AttendanceCheckIn, *models.Pagination, error) {
	m.capturedFilter = filter
	return []models.AttendanceCheckIn{{ID: "chk-1", SessionID: filter.SessionID}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func TestCheckInSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceMock{
		checkInResult: &dto.CheckInResult{CheckInID: "chk-9", IsFlagged: true, FlagReason: "implied travel velocity 300 km/h exceeds 120 km/h"},
	}
	h := NewAttendanceHandler(mockSvc)

	payload := []byte(`{"sessionId":"sess-1","studentId":"stu-1","latitude":-6.2001,"longitude":106.8166}`)
	req, _ := http.NewRequest(http.MethodPost, "/attendance/check-in", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.CheckIn(c)

	require.Equal(t, http.StatusCreated, w.Code, "flagged check-ins are still accepted")
	assert.Equal(t, "sess-1", mockSvc.capturedCheckIn.SessionID)

	var envelope struct {
		Data dto.CheckInResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.IsFlagged)
	assert.Contains(t, envelope.Data.FlagReason, "velocity")
}

func TestCheckInMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAttendanceHandler(&attendanceMock{})

	req, _ := http.NewRequest(http.MethodPost, "/attendance/check-in", bytes.NewReader([]byte(`{"sessionId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.CheckIn(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAttendanceHandler(&attendanceMock{})

	payload := []byte(`{"sectionId":"sec-1","sessionDate":"2026-08-28T08:00:00Z","centerLatitude":-6.2001,"centerLongitude":106.8166}`)
	req, _ := http.NewRequest(http.MethodPost, "/attendance/sessions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.CreateSession(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "sess-1")
}

func TestListCheckInsFlaggedFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceMock{}
	h := NewAttendanceHandler(mockSvc)

	req, _ := http.NewRequest(http.MethodGet, "/attendance/sessions/sess-1/check-ins?flagged=true&page=2&limit=10", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	h.ListCheckIns(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-1", mockSvc.capturedFilter.SessionID)
	assert.True(t, mockSvc.capturedFilter.FlaggedOnly)
	assert.Equal(t, 2, mockSvc.capturedFilter.Page)
	assert.Equal(t, 10, mockSvc.capturedFilter.PageSize)
}
