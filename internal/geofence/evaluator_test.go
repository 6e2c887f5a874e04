package geofence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Campus quad in central Jakarta; the offsets below are roughly 1.11m per
// 0.00001 degrees of latitude.
var campusCenter = Coordinate{Latitude: -6.2001, Longitude: 106.8166}

func TestHaversineMeters(t *testing.T) {
	assert.Zero(t, HaversineMeters(campusCenter, campusCenter))

	// ~0.0045 degrees of latitude is about 500m.
	far := Coordinate{Latitude: campusCenter.Latitude + 0.0045, Longitude: campusCenter.Longitude}
	d := HaversineMeters(campusCenter, far)
	assert.InDelta(t, 500, d, 5)

	// Distance is symmetric.
	assert.InDelta(t, d, HaversineMeters(far, campusCenter), 0.001)
}

func TestEvaluateInsideGeofence(t *testing.T) {
	e := NewEvaluator(Config{})

	near := Coordinate{Latitude: campusCenter.Latitude + 0.00009, Longitude: campusCenter.Longitude}
	eval := e.Evaluate(CheckIn{Point: near, CheckedInAt: time.Now()}, campusCenter, 100, nil)

	assert.False(t, eval.IsFlagged)
	assert.Empty(t, eval.FlagReason)
	assert.InDelta(t, 10, eval.DistanceFromCenterM, 1)
}

func TestEvaluateOutsideGeofence(t *testing.T) {
	e := NewEvaluator(Config{})

	far := Coordinate{Latitude: campusCenter.Latitude + 0.0045, Longitude: campusCenter.Longitude}
	eval := e.Evaluate(CheckIn{Point: far, CheckedInAt: time.Now()}, campusCenter, 15, nil)

	require.True(t, eval.IsFlagged)
	assert.Contains(t, eval.FlagReason, "geofence radius")
	assert.InDelta(t, 500, eval.DistanceFromCenterM, 5)
}

func TestEvaluateZeroRadiusDisablesDistanceCheck(t *testing.T) {
	e := NewEvaluator(Config{})

	far := Coordinate{Latitude: campusCenter.Latitude + 0.0045, Longitude: campusCenter.Longitude}
	eval := e.Evaluate(CheckIn{Point: far, CheckedInAt: time.Now()}, campusCenter, 0, nil)

	assert.False(t, eval.IsFlagged)
}

func TestEvaluateImpossibleVelocity(t *testing.T) {
	e := NewEvaluator(Config{MaxRealisticVelocityKmh: 120, VelocityWindow: 5 * time.Minute})

	now := time.Now()
	// ~5km away one minute ago: 300 km/h implied.
	previous := &CheckIn{
		Point:       Coordinate{Latitude: campusCenter.Latitude + 0.045, Longitude: campusCenter.Longitude},
		CheckedInAt: now.Add(-time.Minute),
	}
	eval := e.Evaluate(CheckIn{Point: campusCenter, CheckedInAt: now}, campusCenter, 100, previous)

	require.True(t, eval.IsFlagged)
	assert.Contains(t, eval.FlagReason, "velocity")
	// The check-in itself is at the center, so distance stays small.
	assert.InDelta(t, 0, eval.DistanceFromCenterM, 1)
}

func TestEvaluateVelocityOutsideWindowIgnored(t *testing.T) {
	e := NewEvaluator(Config{MaxRealisticVelocityKmh: 120, VelocityWindow: 5 * time.Minute})

	now := time.Now()
	previous := &CheckIn{
		Point:       Coordinate{Latitude: campusCenter.Latitude + 0.045, Longitude: campusCenter.Longitude},
		CheckedInAt: now.Add(-time.Hour),
	}
	eval := e.Evaluate(CheckIn{Point: campusCenter, CheckedInAt: now}, campusCenter, 100, previous)

	assert.False(t, eval.IsFlagged)
}

func TestEvaluateReasonableVelocityNotFlagged(t *testing.T) {
	e := NewEvaluator(Config{})

	now := time.Now()
	// ~500m in five minutes is a walk.
	previous := &CheckIn{
		Point:       Coordinate{Latitude: campusCenter.Latitude + 0.0045, Longitude: campusCenter.Longitude},
		CheckedInAt: now.Add(-5 * time.Minute),
	}
	eval := e.Evaluate(CheckIn{Point: campusCenter, CheckedInAt: now}, campusCenter, 100, previous)

	assert.False(t, eval.IsFlagged)
}

func TestEvaluateBothChecksReported(t *testing.T) {
	e := NewEvaluator(Config{MaxRealisticVelocityKmh: 120, VelocityWindow: 5 * time.Minute})

	now := time.Now()
	far := Coordinate{Latitude: campusCenter.Latitude + 0.0045, Longitude: campusCenter.Longitude}
	// Previous check-in ~50km away two minutes earlier.
	previous := &CheckIn{
		Point:       Coordinate{Latitude: campusCenter.Latitude + 0.45, Longitude: campusCenter.Longitude},
		CheckedInAt: now.Add(-2 * time.Minute),
	}
	eval := e.Evaluate(CheckIn{Point: far, CheckedInAt: now}, campusCenter, 15, previous)

	require.True(t, eval.IsFlagged)
	assert.Contains(t, eval.FlagReason, "geofence radius")
	assert.Contains(t, eval.FlagReason, "velocity")
}

func TestNewEvaluatorDefaults(t *testing.T) {
	e := NewEvaluator(Config{})
	assert.Equal(t, defaultMaxVelocityKmh, e.cfg.MaxRealisticVelocityKmh)
	assert.Equal(t, defaultWindow, e.cfg.VelocityWindow)
}
