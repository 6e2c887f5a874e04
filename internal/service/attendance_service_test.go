package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-campus/campus-api/internal/dto"
	"github.com/smart-campus/campus-api/internal/geofence"
	"github.com/smart-campus/campus-api/internal/models"
	appErrors "github.com/smart-campus/campus-api/pkg/errors"
)

type stubAttendanceRepo struct {
	sessions map[string]models.AttendanceSession
	latest   *models.AttendanceCheckIn
	stored   []models.AttendanceCheckIn
}

func (s *stubAttendanceRepo) CreateSession(ctx context.Context, session *models.AttendanceSession) error {
	if s.sessions == nil {
		s.sessions = make(map[string]models.AttendanceSession)
	}
	if session.ID == "" {
		session.ID = "sess-new"
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *stubAttendanceRepo) FindSessionByID(ctx context.Context, id string) (*models.AttendanceSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &session, nil
}

func (s *stubAttendanceRepo) CreateCheckIn(ctx context.Context, checkIn *models.AttendanceCheckIn) error {
	if checkIn.ID == "" {
		checkIn.ID = "chk-new"
	}
	s.stored = append(s.stored, *checkIn)
	return nil
}

func (s *stubAttendanceRepo) FindLatestCheckIn(ctx context.Context, studentID string, before time.Time) (*models.AttendanceCheckIn, error) {
	return s.latest, nil
}

func (s *stubAttendanceRepo) ListCheckIns(ctx context.Context, filter models.AttendanceCheckInFilter) ([]models.AttendanceCheckIn, int, error) {
	var result []models.AttendanceCheckIn
	for _, checkIn := range s.stored {
		if filter.FlaggedOnly && !checkIn.IsFlagged {
			continue
		}
		result = append(result, checkIn)
	}
	return result, len(result), nil
}

func newTestAttendanceService(repo *stubAttendanceRepo) *AttendanceService {
	evaluator := geofence.NewEvaluator(geofence.Config{MaxRealisticVelocityKmh: 120, VelocityWindow: 5 * time.Minute})
	return NewAttendanceService(repo, evaluator, AttendanceConfig{DefaultGeofenceRadiusMeters: 100}, nil, nil)
}

func testSession() models.AttendanceSession {
	return models.AttendanceSession{
		ID:              "sess-1",
		SectionID:       "sec-1",
		SessionDate:     time.Now(),
		CenterLatitude:  -6.2001,
		CenterLongitude: 106.8166,
		GeofenceRadiusM: 100,
	}
}

func TestAttendanceServiceCheckInInsideGeofence(t *testing.T) {
	repo := &stubAttendanceRepo{sessions: map[string]models.AttendanceSession{"sess-1": testSession()}}
	svc := newTestAttendanceService(repo)

	result, err := svc.CheckIn(context.Background(), dto.CheckInRequest{
		SessionID: "sess-1",
		StudentID: "stu-1",
		Latitude:  -6.20005,
		Longitude: 106.8166,
	})
	require.NoError(t, err)

	assert.False(t, result.IsFlagged)
	assert.Empty(t, result.FlagReason)
	assert.Less(t, result.DistanceFromCenterM, 100.0)
	require.Len(t, repo.stored, 1)
	assert.False(t, repo.stored[0].IsFlagged)
}

func TestAttendanceServiceCheckInOutsideGeofenceIsAcceptedButFlagged(t *testing.T) {
	repo := &stubAttendanceRepo{sessions: map[string]models.AttendanceSession{"sess-1": testSession()}}
	svc := newTestAttendanceService(repo)

	// ~500m north of the session center.
	result, err := svc.CheckIn(context.Background(), dto.CheckInRequest{
		SessionID: "sess-1",
		StudentID: "stu-1",
		Latitude:  -6.1956,
		Longitude: 106.8166,
	})
	require.NoError(t, err, "flagged check-ins are accepted, not rejected")

	assert.True(t, result.IsFlagged)
	assert.Contains(t, result.FlagReason, "geofence radius")
	require.Len(t, repo.stored, 1)
	assert.True(t, repo.stored[0].IsFlagged)
	require.NotNil(t, repo.stored[0].FlagReason)
}

func TestAttendanceServiceCheckInImpossibleVelocity(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubAttendanceRepo{
		sessions: map[string]models.AttendanceSession{"sess-1": testSession()},
		latest: &models.AttendanceCheckIn{
			ID:          "chk-prev",
			SessionID:   "sess-0",
			StudentID:   "stu-1",
			CheckedInAt: now.Add(-time.Minute),
			// ~5km away one minute earlier.
			Latitude:  -6.1551,
			Longitude: 106.8166,
		},
	}
	svc := newTestAttendanceService(repo)
	svc.now = func() time.Time { return now }

	result, err := svc.CheckIn(context.Background(), dto.CheckInRequest{
		SessionID: "sess-1",
		StudentID: "stu-1",
		Latitude:  -6.2001,
		Longitude: 106.8166,
	})
	require.NoError(t, err)

	assert.True(t, result.IsFlagged)
	assert.Contains(t, result.FlagReason, "velocity")
}

func TestAttendanceServiceCheckInSessionNotFound(t *testing.T) {
	svc := newTestAttendanceService(&stubAttendanceRepo{})

	_, err := svc.CheckIn(context.Background(), dto.CheckInRequest{
		SessionID: "missing",
		StudentID: "stu-1",
		Latitude:  -6.2001,
		Longitude: 106.8166,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceCheckInValidation(t *testing.T) {
	svc := newTestAttendanceService(&stubAttendanceRepo{})

	_, err := svc.CheckIn(context.Background(), dto.CheckInRequest{
		SessionID: "sess-1",
		StudentID: "stu-1",
		Latitude:  123.0,
		Longitude: 106.8166,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceCreateSessionDefaultRadius(t *testing.T) {
	repo := &stubAttendanceRepo{}
	svc := newTestAttendanceService(repo)

	session, err := svc.CreateSession(context.Background(), dto.CreateSessionRequest{
		SectionID:       "sec-1",
		SessionDate:     time.Now(),
		CenterLatitude:  -6.2001,
		CenterLongitude: 106.8166,
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, session.GeofenceRadiusM)
}

func TestAttendanceServiceListFlaggedCheckIns(t *testing.T) {
	reason := "check-in is 500m from the session center (geofence radius 100m)"
	repo := &stubAttendanceRepo{
		stored: []models.AttendanceCheckIn{
			{ID: "chk-1", SessionID: "sess-1", StudentID: "stu-1", IsFlagged: false},
			{ID: "chk-2", SessionID: "sess-1", StudentID: "stu-2", IsFlagged: true, FlagReason: &reason},
		},
	}
	svc := newTestAttendanceService(repo)

	list, pagination, err := svc.ListCheckIns(context.Background(), models.AttendanceCheckInFilter{SessionID: "sess-1", FlaggedOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "chk-2", list[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)
}
