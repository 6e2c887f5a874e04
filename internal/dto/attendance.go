package dto

import "time"

// CreateSessionRequest registers a class meeting with its geofence center.
// A zero radius falls back to the configured campus default.
type CreateSessionRequest struct {
	SectionID       string    `json:"sectionId" validate:"required"`
	SessionDate     time.Time `json:"sessionDate" validate:"required"`
	CenterLatitude  float64   `json:"centerLatitude" validate:"min=-90,max=90"`
	CenterLongitude float64   `json:"centerLongitude" validate:"min=-180,max=180"`
	RadiusMeters    float64   `json:"radiusMeters" validate:"omitempty,min=0"`
}

// CheckInRequest is a GPS attendance check-in for a session.
type CheckInRequest struct {
	SessionID string   `json:"sessionId" validate:"required"`
	StudentID string   `json:"studentId" validate:"required"`
	Latitude  float64  `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64  `json:"longitude" validate:"min=-180,max=180"`
	Accuracy  *float64 `json:"accuracy" validate:"omitempty,min=0"`
}

// CheckInResult annotates a stored check-in with the fraud evaluation.
// Flags are advisory; a flagged check-in is still accepted.
type CheckInResult struct {
	CheckInID           string    `json:"checkInId"`
	SessionID           string    `json:"sessionId"`
	StudentID           string    `json:"studentId"`
	CheckedInAt         time.Time `json:"checkedInAt"`
	DistanceFromCenterM float64   `json:"distanceFromCenterM"`
	IsFlagged           bool      `json:"isFlagged"`
	FlagReason          string    `json:"flagReason,omitempty"`
}
