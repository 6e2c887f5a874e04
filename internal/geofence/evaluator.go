package geofence

import (
	"fmt"
	"math"
	"time"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// CheckIn is the evaluator's view of a GPS attendance check-in.
type CheckIn struct {
	Point       Coordinate
	CheckedInAt time.Time
}

// Evaluation annotates a check-in. Flags are advisory: GPS noise produces
// false positives, so flagged check-ins are accepted and left for human
// review, never rejected.
type Evaluation struct {
	DistanceFromCenterM float64
	IsFlagged           bool
	FlagReason          string
}

// Config holds the fraud-scoring thresholds. Thresholds are explicit
// parameters rather than ambient state so the evaluator stays pure.
type Config struct {
	// MaxRealisticVelocityKmh flags a student who would have had to travel
	// faster than this between two consecutive check-ins.
	MaxRealisticVelocityKmh float64
	// VelocityWindow bounds how far back the previous check-in may lie for
	// the velocity check to apply.
	VelocityWindow time.Duration
}

const (
	defaultMaxVelocityKmh = 120.0
	defaultWindow         = 5 * time.Minute

	earthRadiusM = 6371000.0
)

// Evaluator scores attendance check-ins against a session geofence. It is
// stateless and safe for concurrent use.
type Evaluator struct {
	cfg Config
}

// NewEvaluator builds an evaluator, applying documented defaults for unset
// thresholds.
func NewEvaluator(cfg Config) *Evaluator {
	if cfg.MaxRealisticVelocityKmh <= 0 {
		cfg.MaxRealisticVelocityKmh = defaultMaxVelocityKmh
	}
	if cfg.VelocityWindow <= 0 {
		cfg.VelocityWindow = defaultWindow
	}
	return &Evaluator{cfg: cfg}
}

// Evaluate scores one check-in against the session center and, when present,
// the student's previous check-in. The distance and velocity checks flag
// independently; both reasons are reported when both trip.
func (e *Evaluator) Evaluate(checkIn CheckIn, center Coordinate, radiusMeters float64, previous *CheckIn) Evaluation {
	distance := HaversineMeters(checkIn.Point, center)
	eval := Evaluation{DistanceFromCenterM: distance}

	if radiusMeters > 0 && distance > radiusMeters {
		eval.IsFlagged = true
		eval.FlagReason = fmt.Sprintf("check-in is %.0fm from the session center (geofence radius %.0fm)", distance, radiusMeters)
	}

	if previous != nil {
		elapsed := checkIn.CheckedInAt.Sub(previous.CheckedInAt)
		if elapsed > 0 && elapsed <= e.cfg.VelocityWindow {
			travelled := HaversineMeters(previous.Point, checkIn.Point)
			velocityKmh := travelled / elapsed.Seconds() * 3.6
			if velocityKmh > e.cfg.MaxRealisticVelocityKmh {
				reason := fmt.Sprintf("implied travel velocity %.0f km/h exceeds %.0f km/h", velocityKmh, e.cfg.MaxRealisticVelocityKmh)
				if eval.IsFlagged {
					eval.FlagReason = eval.FlagReason + "; " + reason
				} else {
					eval.FlagReason = reason
				}
				eval.IsFlagged = true
			}
		}
	}

	return eval
}

// HaversineMeters computes the great-circle distance between two points.
func HaversineMeters(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
