package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smart-campus/campus-api/internal/dto"
	"github.com/smart-campus/campus-api/internal/geofence"
	"github.com/smart-campus/campus-api/internal/models"
	appErrors "github.com/smart-campus/campus-api/pkg/errors"
)

type attendanceStore interface {
	CreateSession(ctx context.Context, session *models.AttendanceSession) error
	FindSessionByID(ctx context.Context, id string) (*models.AttendanceSession, error)
	CreateCheckIn(ctx context.Context, checkIn *models.AttendanceCheckIn) error
	FindLatestCheckIn(ctx context.Context, studentID string, before time.Time) (*models.AttendanceCheckIn, error)
	ListCheckIns(ctx context.Context, filter models.AttendanceCheckInFilter) ([]models.AttendanceCheckIn, int, error)
}

type checkInEvaluator interface {
	Evaluate(checkIn geofence.CheckIn, center geofence.Coordinate, radiusMeters float64, previous *geofence.CheckIn) geofence.Evaluation
}

// AttendanceConfig holds campus-wide attendance defaults.
type AttendanceConfig struct {
	DefaultGeofenceRadiusMeters float64
}

// AttendanceService records GPS check-ins and runs the geofence fraud
// evaluation over them. Flagged check-ins are stored and reported, never
// rejected.
type AttendanceService struct {
	repo      attendanceStore
	evaluator checkInEvaluator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AttendanceConfig
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceStore, evaluator checkInEvaluator, cfg AttendanceConfig, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if evaluator == nil {
		evaluator = geofence.NewEvaluator(geofence.Config{})
	}
	if cfg.DefaultGeofenceRadiusMeters <= 0 {
		cfg.DefaultGeofenceRadiusMeters = 100
	}
	return &AttendanceService{
		repo:      repo,
		evaluator: evaluator,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession registers a class meeting with its geofence center.
func (s *AttendanceService) CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*models.AttendanceSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session request")
	}

	radius := req.RadiusMeters
	if radius <= 0 {
		radius = s.cfg.DefaultGeofenceRadiusMeters
	}
	session := &models.AttendanceSession{
		SectionID:       req.SectionID,
		SessionDate:     req.SessionDate,
		CenterLatitude:  req.CenterLatitude,
		CenterLongitude: req.CenterLongitude,
		GeofenceRadiusM: radius,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance session")
	}
	return session, nil
}

// CheckIn stores a student's GPS check-in after evaluating it against the
// session geofence and the student's previous check-in.
func (s *AttendanceService) CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.CheckInResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in request")
	}

	session, err := s.repo.FindSessionByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance session")
	}

	at := s.now()
	previous, err := s.repo.FindLatestCheckIn(ctx, req.StudentID, at)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous check-in")
	}

	var prior *geofence.CheckIn
	if previous != nil {
		prior = &geofence.CheckIn{
			Point:       geofence.Coordinate{Latitude: previous.Latitude, Longitude: previous.Longitude},
			CheckedInAt: previous.CheckedInAt,
		}
	}

	eval := s.evaluator.Evaluate(
		geofence.CheckIn{Point: geofence.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}, CheckedInAt: at},
		geofence.Coordinate{Latitude: session.CenterLatitude, Longitude: session.CenterLongitude},
		session.GeofenceRadiusM,
		prior,
	)

	checkIn := &models.AttendanceCheckIn{
		SessionID:           req.SessionID,
		StudentID:           req.StudentID,
		CheckedInAt:         at,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		Accuracy:            req.Accuracy,
		DistanceFromCenterM: eval.DistanceFromCenterM,
		IsFlagged:           eval.IsFlagged,
	}
	if eval.FlagReason != "" {
		reason := eval.FlagReason
		checkIn.FlagReason = &reason
	}
	if err := s.repo.CreateCheckIn(ctx, checkIn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store check-in")
	}

	if eval.IsFlagged {
		s.logger.Info("check-in flagged for review",
			zap.String("session_id", req.SessionID),
			zap.String("student_id", req.StudentID),
			zap.Float64("distance_m", eval.DistanceFromCenterM),
			zap.String("reason", eval.FlagReason),
		)
	}

	return &dto.CheckInResult{
		CheckInID:           checkIn.ID,
		SessionID:           checkIn.SessionID,
		StudentID:           checkIn.StudentID,
		CheckedInAt:         checkIn.CheckedInAt,
		DistanceFromCenterM: checkIn.DistanceFromCenterM,
		IsFlagged:           checkIn.IsFlagged,
		FlagReason:          eval.FlagReason,
	}, nil
}

// ListCheckIns returns check-ins with pagination metadata.
func (s *AttendanceService) ListCheckIns(ctx context.Context, filter models.AttendanceCheckInFilter) ([]models.AttendanceCheckIn, *models.Pagination, error) {
	checkIns, total, err := s.repo.ListCheckIns(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list check-ins")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return checkIns, pagination, nil
}
