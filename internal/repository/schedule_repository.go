package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smart-campus/campus-api/internal/models"
)

const scheduleColumns = "id, semester, year, section_id, course_code, course_name, section_number, classroom_id, classroom_info, instructor_id, instructor_name, day_of_week, start_time, end_time, created_at, updated_at"

// ScheduleRepository provides persistence for generated timetables.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListBySemester returns the committed timetable for a semester ordered by
// section id.
func (r *ScheduleRepository) ListBySemester(ctx context.Context, semester string, year int) ([]models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE semester = $1 AND year = $2 ORDER BY section_id ASC", scheduleColumns)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, semester, year); err != nil {
		return nil, fmt.Errorf("list schedules by semester: %w", err)
	}
	return schedules, nil
}

// ListBySection returns the placements recorded for one section.
func (r *ScheduleRepository) ListBySection(ctx context.Context, sectionID string) ([]models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE section_id = $1 ORDER BY day_of_week ASC, start_time ASC", scheduleColumns)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, sectionID); err != nil {
		return nil, fmt.Errorf("list schedules by section: %w", err)
	}
	return schedules, nil
}

// ReplaceSemester swaps the semester's timetable for the provided schedules
// inside one transaction, so readers never observe a half-written run.
func (r *ScheduleRepository) ReplaceSemester(ctx context.Context, semester string, year int, schedules []models.Schedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace semester schedules: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM schedules WHERE semester = $1 AND year = $2", semester, year); err != nil {
		return fmt.Errorf("clear semester schedules: %w", err)
	}
	if err = r.bulkInsertSchedules(ctx, tx, schedules); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace semester schedules: %w", err)
	}
	return nil
}

// BulkCreate inserts many schedules within a transaction.
func (r *ScheduleRepository) BulkCreate(ctx context.Context, schedules []models.Schedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create schedules: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.bulkInsertSchedules(ctx, tx, schedules); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create schedules: %w", err)
	}
	return nil
}

// BulkCreateWithTx inserts schedules using an existing transaction.
func (r *ScheduleRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	return r.bulkInsertSchedules(ctx, tx, schedules)
}

func (r *ScheduleRepository) bulkInsertSchedules(ctx context.Context, exec sqlx.ExtContext, schedules []models.Schedule) error {
	now := time.Now().UTC()
	for i := range schedules {
		payload := schedules[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO schedules (id, semester, year, section_id, course_code, course_name, section_number, classroom_id, classroom_info, instructor_id, instructor_name, day_of_week, start_time, end_time, created_at, updated_at) VALUES (:id, :semester, :year, :section_id, :course_code, :course_name, :section_number, :classroom_id, :classroom_info, :instructor_id, :instructor_name, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert schedule: %w", err)
		}
		schedules[i] = payload
	}
	return nil
}

// DeleteBySemester removes the committed timetable of a semester.
func (r *ScheduleRepository) DeleteBySemester(ctx context.Context, semester string, year int) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE semester = $1 AND year = $2", semester, year); err != nil {
		return fmt.Errorf("delete semester schedules: %w", err)
	}
	return nil
}
