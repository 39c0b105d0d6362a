package model

import (
	"github.com/paulmach/orb"
)

// Vehicle is the state of one simulated vehicle. While a simulation run
// is active the vehicle is owned exclusively by its worker goroutine; the
// coordinator only reads reported snapshots.
type Vehicle struct {
	ID       int            `json:"id"`
	Path     orb.LineString `json:"path"`  // immutable after spawn, >= 2 points
	Speed    float64        `json:"speed"` // world units per tick
	Color    string         `json:"color"`
	Segment  int            `json:"segment"`  // index into Path
	Progress float64        `json:"progress"` // 0..1 along current segment
	Alive    bool           `json:"alive"`
}

// Position interpolates the current world position between the current
// path point and the next.
func (v *Vehicle) Position() orb.Point {
	if v.Segment >= len(v.Path)-1 {
		return v.Path[len(v.Path)-1]
	}
	a := v.Path[v.Segment]
	b := v.Path[v.Segment+1]
	return orb.Point{
		a[0] + (b[0]-a[0])*v.Progress,
		a[1] + (b[1]-a[1])*v.Progress,
	}
}

// SegmentLength is the length of the vehicle's current path segment.
func (v *Vehicle) SegmentLength() float64 {
	if v.Segment >= len(v.Path)-1 {
		return 0
	}
	return Dist(v.Path[v.Segment], v.Path[v.Segment+1])
}

// Done reports whether the vehicle has consumed its whole path.
func (v *Vehicle) Done() bool { return v.Segment >= len(v.Path)-1 }
