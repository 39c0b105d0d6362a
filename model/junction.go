package model

import (
	"math"

	"github.com/paulmach/orb"
)

// JunctionType enumerates the placeable junction templates.
type JunctionType string

const (
	TSection      JunctionType = "t-section"
	Crossroads    JunctionType = "crossroads"
	YIntersection JunctionType = "y-intersection"
	Roundabout    JunctionType = "roundabout"
	RampMerge     JunctionType = "ramp-merge"
	Landmark      JunctionType = "landmark"
)

// RingDirection is the rotational direction traffic takes around a
// roundabout ring.
type RingDirection int

const (
	Clockwise RingDirection = iota
	CounterClockwise
)

func (d RingDirection) String() string {
	if d == CounterClockwise {
		return "counterclockwise"
	}
	return "clockwise"
}

// Junction is an installed junction record. Immutable after placement.
type Junction struct {
	Name      string        `json:"name"`
	Type      JunctionType  `json:"type"`
	Center    orb.Point     `json:"center"`
	Rotation  float64       `json:"rotation"` // degrees, multiple of 45
	Flipped   bool          `json:"flipped"`
	ExitCount int           `json:"exit_count,omitempty"` // roundabouts: 4 or 8
	RingDir   RingDirection `json:"ring_direction,omitempty"`
}

// JunctionName maps a creation index to its spreadsheet-column name:
// 0..25 -> A..Z, 26 -> AA, and so on.
func JunctionName(index int) string {
	name := ""
	n := index
	for {
		name = string(rune('A'+n%26)) + name
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return name
}

// ZoneRadius is the radius within which vehicles ignore traffic lights.
// Roundabout zones must cover the whole ring plus exit spurs, so they are
// much larger than ordinary junction zones.
func (j *Junction) ZoneRadius(grid float64) float64 {
	if j.Type == Roundabout {
		return 5 * grid
	}
	return 1.5 * grid
}

// RingVertices returns the 8 octagon ring vertices in clockwise screen
// order starting at North. Radius is twice the grid unit.
func (j *Junction) RingVertices(grid float64) []orb.Point {
	r := 2 * grid
	out := make([]orb.Point, 8)
	for i := 0; i < 8; i++ {
		a := float64(i) * 45 * math.Pi / 180
		out[i] = orb.Point{
			j.Center[0] + r*math.Sin(a),
			j.Center[1] - r*math.Cos(a),
		}
	}
	return out
}

// SpurEndpoints returns the 8 outward spur endpoints, one grid unit beyond
// each ring vertex, in the same clockwise order as RingVertices. For a
// 4-exit roundabout only the cardinal indices (0,2,4,6) carry actual spur
// geometry, but all 8 endpoints are returned for index arithmetic.
func (j *Junction) SpurEndpoints(grid float64) []orb.Point {
	r := 3 * grid
	out := make([]orb.Point, 8)
	for i := 0; i < 8; i++ {
		a := float64(i) * 45 * math.Pi / 180
		out[i] = orb.Point{
			j.Center[0] + r*math.Sin(a),
			j.Center[1] - r*math.Cos(a),
		}
	}
	return out
}

// HasExitAt reports whether ring index i carries a spur for this
// roundabout's exit count.
func (j *Junction) HasExitAt(i int) bool {
	if j.ExitCount >= 8 {
		return true
	}
	return i%2 == 0
}
