package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smart-campus/campus-api/internal/models"
)

const (
	sessionColumns = "id, section_id, session_date, center_latitude, center_longitude, geofence_radius_m, created_at"
	checkInColumns = "id, session_id, student_id, checked_in_at, latitude, longitude, accuracy, distance_from_center_m, is_flagged, flag_reason"
)

// AttendanceRepository provides persistence for attendance sessions and
// GPS check-ins.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// CreateSession stores a new attendance session.
func (r *AttendanceRepository) CreateSession(ctx context.Context, session *models.AttendanceSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO attendance_sessions (id, section_id, session_date, center_latitude, center_longitude, geofence_radius_m, created_at) VALUES (:id, :section_id, :session_date, :center_latitude, :center_longitude, :geofence_radius_m, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create attendance session: %w", err)
	}
	return nil
}

// FindSessionByID loads an attendance session by id.
func (r *AttendanceRepository) FindSessionByID(ctx context.Context, id string) (*models.AttendanceSession, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_sessions WHERE id = $1", sessionColumns)
	var session models.AttendanceSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateCheckIn stores an evaluated check-in.
func (r *AttendanceRepository) CreateCheckIn(ctx context.Context, checkIn *models.AttendanceCheckIn) error {
	if checkIn.ID == "" {
		checkIn.ID = uuid.NewString()
	}
	if checkIn.CheckedInAt.IsZero() {
		checkIn.CheckedInAt = time.Now().UTC()
	}

	const query = `INSERT INTO attendance_check_ins (id, session_id, student_id, checked_in_at, latitude, longitude, accuracy, distance_from_center_m, is_flagged, flag_reason) VALUES (:id, :session_id, :student_id, :checked_in_at, :latitude, :longitude, :accuracy, :distance_from_center_m, :is_flagged, :flag_reason)`
	if _, err := r.db.NamedExecContext(ctx, query, checkIn); err != nil {
		return fmt.Errorf("create attendance check-in: %w", err)
	}
	return nil
}

// FindLatestCheckIn returns a student's most recent check-in before the given
// instant, or nil when the student has none. The velocity check feeds on it.
func (r *AttendanceRepository) FindLatestCheckIn(ctx context.Context, studentID string, before time.Time) (*models.AttendanceCheckIn, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_check_ins WHERE student_id = $1 AND checked_in_at < $2 ORDER BY checked_in_at DESC LIMIT 1", checkInColumns)
	var checkIns []models.AttendanceCheckIn
	if err := r.db.SelectContext(ctx, &checkIns, query, studentID, before); err != nil {
		return nil, fmt.Errorf("find latest check-in: %w", err)
	}
	if len(checkIns) == 0 {
		return nil, nil
	}
	return &checkIns[0], nil
}

// ListCheckIns returns check-ins with optional filtering and pagination.
func (r *AttendanceRepository) ListCheckIns(ctx context.Context, filter models.AttendanceCheckInFilter) ([]models.AttendanceCheckIn, int, error) {
	base := "FROM attendance_check_ins WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.FlaggedOnly {
		conditions = append(conditions, "is_flagged = TRUE")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY checked_in_at DESC LIMIT %d OFFSET %d", checkInColumns, base, size, offset)
	var checkIns []models.AttendanceCheckIn
	if err := r.db.SelectContext(ctx, &checkIns, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list check-ins: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count check-ins: %w", err)
	}

	return checkIns, total, nil
}
