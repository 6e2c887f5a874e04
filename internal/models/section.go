package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Section is one offered instance of a course for a semester/year, taught by one instructor.
// Sections are read-only snapshots during a scheduling run.
type Section struct {
	ID               string         `db:"id" json:"id"`
	CourseCode       string         `db:"course_code" json:"course_code"`
	CourseName       string         `db:"course_name" json:"course_name"`
	SectionNumber    int            `db:"section_number" json:"section_number"`
	InstructorID     string         `db:"instructor_id" json:"instructor_id"`
	InstructorName   string         `db:"instructor_name" json:"instructor_name"`
	Semester         string         `db:"semester" json:"semester"`
	Year             int            `db:"year" json:"year"`
	Capacity         int            `db:"capacity" json:"capacity"`
	EnrolledCount    int            `db:"enrolled_count" json:"enrolled_count"`
	RequiredCapacity int            `db:"required_capacity" json:"required_capacity"`
	RequiredFeatures types.JSONText `db:"required_features" json:"required_features,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// SectionFilter narrows section snapshots loaded for a scheduling run.
type SectionFilter struct {
	Semester   string
	Year       int
	SectionIDs []string
}
