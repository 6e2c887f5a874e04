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

const sectionColumns = "id, course_code, course_name, section_number, instructor_id, instructor_name, semester, year, capacity, enrolled_count, required_capacity, required_features, created_at, updated_at"

// SectionRepository provides persistence for course sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository creates a new section repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// List returns the sections matching the filter, ordered by id so scheduling
// snapshots are deterministic.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE 1=1", sectionColumns)
	var conditions []string
	var args []interface{}

	if filter.Semester != "" {
		conditions = append(conditions, "semester = ?")
		args = append(args, filter.Semester)
	}
	if filter.Year != 0 {
		conditions = append(conditions, "year = ?")
		args = append(args, filter.Year)
	}
	if len(filter.SectionIDs) > 0 {
		conditions = append(conditions, "id IN (?)")
		args = append(args, filter.SectionIDs)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id ASC"

	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expand section filter: %w", err)
	}
	expanded = r.db.Rebind(expanded)

	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, expanded, expandedArgs...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindByID loads a section by id.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE id = $1", sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// Create stores a new section record.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now

	const query = `INSERT INTO sections (id, course_code, course_name, section_number, instructor_id, instructor_name, semester, year, capacity, enrolled_count, required_capacity, required_features, created_at, updated_at) VALUES (:id, :course_code, :course_name, :section_number, :instructor_id, :instructor_name, :semester, :year, :capacity, :enrolled_count, :required_capacity, :required_features, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update modifies a section record.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET course_code = :course_code, course_name = :course_name, section_number = :section_number, instructor_id = :instructor_id, instructor_name = :instructor_name, semester = :semester, year = :year, capacity = :capacity, enrolled_count = :enrolled_count, required_capacity = :required_capacity, required_features = :required_features, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section record.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sections WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}
