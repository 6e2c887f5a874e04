package models

import "time"

// Schedule is a placed section: one classroom and one weekly time range.
// Invariants: no classroom and no instructor holds two overlapping entries on
// the same day, and a section appears at most once per semester.
type Schedule struct {
	ID             string    `db:"id" json:"id"`
	Semester       string    `db:"semester" json:"semester"`
	Year           int       `db:"year" json:"year"`
	SectionID      string    `db:"section_id" json:"section_id"`
	CourseCode     string    `db:"course_code" json:"course_code"`
	CourseName     string    `db:"course_name" json:"course_name"`
	SectionNumber  int       `db:"section_number" json:"section_number"`
	ClassroomID    string    `db:"classroom_id" json:"classroom_id"`
	ClassroomInfo  string    `db:"classroom_info" json:"classroom_info"`
	InstructorID   string    `db:"instructor_id" json:"instructor_id"`
	InstructorName string    `db:"instructor_name" json:"instructor_name"`
	DayOfWeek      int       `db:"day_of_week" json:"day_of_week"`
	StartTime      string    `db:"start_time" json:"start_time"`
	EndTime        string    `db:"end_time" json:"end_time"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
