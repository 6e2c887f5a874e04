package models

import "time"

// AttendanceSession is a class meeting with a registered geofence center.
type AttendanceSession struct {
	ID              string    `db:"id" json:"id"`
	SectionID       string    `db:"section_id" json:"section_id"`
	SessionDate     time.Time `db:"session_date" json:"session_date"`
	CenterLatitude  float64   `db:"center_latitude" json:"center_latitude"`
	CenterLongitude float64   `db:"center_longitude" json:"center_longitude"`
	GeofenceRadiusM float64   `db:"geofence_radius_m" json:"geofence_radius_m"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// AttendanceCheckIn records a student's GPS check-in for a session.
// Distance and flag columns are computed by the geofence evaluator, never
// supplied by the caller.
type AttendanceCheckIn struct {
	ID                  string    `db:"id" json:"id"`
	SessionID           string    `db:"session_id" json:"session_id"`
	StudentID           string    `db:"student_id" json:"student_id"`
	CheckedInAt         time.Time `db:"checked_in_at" json:"checked_in_at"`
	Latitude            float64   `db:"latitude" json:"latitude"`
	Longitude           float64   `db:"longitude" json:"longitude"`
	Accuracy            *float64  `db:"accuracy" json:"accuracy,omitempty"`
	DistanceFromCenterM float64   `db:"distance_from_center_m" json:"distance_from_center_m"`
	IsFlagged           bool      `db:"is_flagged" json:"is_flagged"`
	FlagReason          *string   `db:"flag_reason" json:"flag_reason,omitempty"`
}

// AttendanceCheckInFilter narrows check-in listings.
type AttendanceCheckInFilter struct {
	SessionID   string
	StudentID   string
	FlaggedOnly bool
	Page        int
	PageSize    int
}
