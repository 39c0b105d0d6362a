package model

import (
	"github.com/paulmach/orb"
)

// SegmentKind discriminates how a road segment came to exist.
type SegmentKind int

const (
	KindLine SegmentKind = iota
	KindFreehand
	KindJunctionArm
)

func (k SegmentKind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindFreehand:
		return "freehand"
	case KindJunctionArm:
		return "junction-arm"
	}
	return "unknown"
}

// RoadType controls how many traffic lights a node on the segment may hold.
type RoadType int

const (
	TwoWay RoadType = iota
	OneWay
)

func (r RoadType) String() string {
	if r == OneWay {
		return "one_way"
	}
	return "two_way"
}

// RoadSegment is a drawn road: an ordered polyline in world coordinates.
// The ID is a synthetic stable identifier assigned at creation, independent
// of any rendering handle.
type RoadSegment struct {
	ID            int            `json:"id"`
	Kind          SegmentKind    `json:"kind"`
	Points        orb.LineString `json:"points"`
	OwnerJunction string         `json:"owner_junction,omitempty"`
	RoadType      RoadType       `json:"road_type"`
}

// Start returns the first point of the polyline.
func (s *RoadSegment) Start() orb.Point { return s.Points[0] }

// End returns the last point of the polyline.
func (s *RoadSegment) End() orb.Point { return s.Points[len(s.Points)-1] }

// Length sums the polyline's piecewise distances.
func (s *RoadSegment) Length() float64 {
	total := 0.0
	for i := 1; i < len(s.Points); i++ {
		total += Dist(s.Points[i-1], s.Points[i])
	}
	return total
}

// TouchesEndpoint reports whether either endpoint lies within tol of p.
func (s *RoadSegment) TouchesEndpoint(p orb.Point, tol float64) bool {
	if len(s.Points) == 0 {
		return false
	}
	return Dist(s.Start(), p) <= tol || Dist(s.End(), p) <= tol
}

// NearestPointIndex returns the index of the polyline point closest to p
// and its distance.
func (s *RoadSegment) NearestPointIndex(p orb.Point) (int, float64) {
	best := 0
	bestDist := Dist(s.Points[0], p)
	for i := 1; i < len(s.Points); i++ {
		if d := Dist(s.Points[i], p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
