package model

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultGrid is the grid spacing in world units used when none is configured.
const DefaultGrid = 32.0

// Snap rounds a world point to the nearest grid intersection.
func Snap(p orb.Point, grid float64) orb.Point {
	if grid <= 0 {
		return p
	}
	return orb.Point{
		math.Round(p[0]/grid) * grid,
		math.Round(p[1]/grid) * grid,
	}
}

// Constrain45 projects p onto the nearest 45-degree ray from anchor,
// preserving the distance from anchor.
func Constrain45(anchor, p orb.Point) orb.Point {
	dx := p[0] - anchor[0]
	dy := p[1] - anchor[1]
	if dx == 0 && dy == 0 {
		return anchor
	}
	ang := math.Atan2(dy, dx)
	step := math.Pi / 4
	snapped := math.Round(ang/step) * step
	dist := math.Hypot(dx, dy)
	return orb.Point{
		anchor[0] + math.Cos(snapped)*dist,
		anchor[1] + math.Sin(snapped)*dist,
	}
}

// Dist is planar distance between two world points.
func Dist(a, b orb.Point) float64 { return planar.Distance(a, b) }

// Transform converts between world and screen coordinates for a given
// pan offset and zoom scale. The simulation operates purely in world
// coordinates; this is only consumed by code sizing on-screen markers.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Identity returns a transform with no pan and unit zoom.
func Identity() Transform { return Transform{Scale: 1} }

func (t Transform) ToScreen(w orb.Point) orb.Point {
	return orb.Point{w[0]*t.Scale + t.OffsetX, w[1]*t.Scale + t.OffsetY}
}

func (t Transform) ToWorld(s orb.Point) orb.Point {
	return orb.Point{(s[0] - t.OffsetX) / t.Scale, (s[1] - t.OffsetY) / t.Scale}
}

// Compass is one of the eight absolute direction codes. World Y grows
// downward (screen convention), so North points toward negative Y.
type Compass string

const (
	North     Compass = "N"
	NorthEast Compass = "NE"
	East      Compass = "E"
	SouthEast Compass = "SE"
	South     Compass = "S"
	SouthWest Compass = "SW"
	West      Compass = "W"
	NorthWest Compass = "NW"
)

// CompassRing lists the compass points in clockwise screen order
// starting at North. Index order matches roundabout ring vertices.
var CompassRing = [8]Compass{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// Vector returns the unit vector for the compass point in world
// coordinates (Y down).
func (c Compass) Vector() (float64, float64) {
	switch c {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	case NorthEast:
		return math.Sqrt2 / 2, -math.Sqrt2 / 2
	case NorthWest:
		return -math.Sqrt2 / 2, -math.Sqrt2 / 2
	case SouthEast:
		return math.Sqrt2 / 2, math.Sqrt2 / 2
	case SouthWest:
		return -math.Sqrt2 / 2, math.Sqrt2 / 2
	}
	return 0, 0
}

// RingIndex returns the compass point's position on the clockwise ring
// (North = 0), or -1 for an unknown code.
func (c Compass) RingIndex() int {
	for i, r := range CompassRing {
		if r == c {
			return i
		}
	}
	return -1
}

// CompassOf classifies the bearing from one point toward another into
// one of eight 45-degree sectors, each centered on its compass point.
func CompassOf(from, to orb.Point) Compass {
	dx := to[0] - from[0]
	dy := to[1] - from[1]
	// screen Y is inverted relative to math convention
	deg := math.Atan2(-dy, dx) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	// sector 0 centered on East at 0 degrees, counter-clockwise
	sector := int(math.Round(deg/45)) % 8
	ccw := [8]Compass{East, NorthEast, North, NorthWest, West, SouthWest, South, SouthEast}
	return ccw[sector]
}
