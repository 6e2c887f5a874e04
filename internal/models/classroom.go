package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Classroom is a schedulable room. Features holds free-form key/value flags
// such as {"projector": true, "lab": true}.
type Classroom struct {
	ID         string         `db:"id" json:"id"`
	Building   string         `db:"building" json:"building"`
	RoomNumber string         `db:"room_number" json:"room_number"`
	Capacity   int            `db:"capacity" json:"capacity"`
	Features   types.JSONText `db:"features" json:"features,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Label returns the display name used in generated timetables.
func (c Classroom) Label() string {
	if c.Building == "" {
		return c.RoomNumber
	}
	return c.Building + " " + c.RoomNumber
}
