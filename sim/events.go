package sim

import (
	"github.com/paulmach/orb"

	"roadsim/model"
)

// Event is a marker for all render updates emitted by the Runner.
type Event interface{ isEvent() }

// InitEvent signals the start of a simulation run.
type InitEvent struct {
	Vehicles int
	Lights   int
	Night    bool
}

func (InitEvent) isEvent() {}

// PositionEvent is one vehicle's reported position. Active false means
// the vehicle finished its path and its marker should be removed.
type PositionEvent struct {
	VehicleID int
	Pos       orb.Point
	Segment   int
	Progress  float64
	Active    bool
}

func (PositionEvent) isEvent() {}

// LightStateEvent carries one traffic light's attachment point and color.
type LightStateEvent struct {
	LightID int
	Node    orb.Point
	Color   model.LightColor
}

func (LightStateEvent) isEvent() {}

// PedestrianEvent carries one derived pedestrian crossing color.
type PedestrianEvent struct {
	CrossingID int
	Node       orb.Point
	Color      model.LightColor
}

func (PedestrianEvent) isEvent() {}

// SpawnEvent announces a newly created (possibly parked) vehicle.
type SpawnEvent struct {
	VehicleID int
	Color     string
	Pos       orb.Point
	PathLen   int
}

func (SpawnEvent) isEvent() {}

// ClearEvent announces that all vehicles were removed.
type ClearEvent struct {
	Removed int
}

func (ClearEvent) isEvent() {}

// DoneEvent signals that the run stopped; Completed counts vehicles that
// finished their paths during the run.
type DoneEvent struct {
	Completed int
}

func (DoneEvent) isEvent() {}
