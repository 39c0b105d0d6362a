package model

import (
	"math"

	"github.com/paulmach/orb"
)

// Template generates the polylines for a junction type centered at the
// given point, before any rotation or flip is applied. It is a pure
// function of its inputs. Unknown types yield an empty template rather
// than an error. exitCount only matters for roundabouts (4 or 8).
func Template(t JunctionType, center orb.Point, grid float64, exitCount int) []orb.LineString {
	arm := func(c Compass, length float64) orb.LineString {
		dx, dy := c.Vector()
		return orb.LineString{center, {center[0] + dx*length, center[1] + dy*length}}
	}
	armLen := 2 * grid

	switch t {
	case TSection:
		return []orb.LineString{arm(West, armLen), arm(East, armLen), arm(South, armLen)}
	case Crossroads:
		return []orb.LineString{arm(North, armLen), arm(South, armLen), arm(East, armLen), arm(West, armLen)}
	case YIntersection:
		return []orb.LineString{arm(NorthWest, armLen), arm(NorthEast, armLen), arm(South, armLen)}
	case RampMerge:
		main := orb.LineString{{center[0] - armLen, center[1]}, center, {center[0] + armLen, center[1]}}
		dx, dy := SouthWest.Vector()
		ramp := orb.LineString{{center[0] + dx*armLen, center[1] + dy*armLen}, center}
		return []orb.LineString{main, ramp}
	case Roundabout:
		j := Junction{Type: Roundabout, Center: center, ExitCount: exitCount}
		ring := j.RingVertices(grid)
		spurs := j.SpurEndpoints(grid)
		out := make([]orb.LineString, 0, 16)
		for i := 0; i < 8; i++ {
			out = append(out, orb.LineString{ring[i], ring[(i+1)%8]})
		}
		step := 2
		if exitCount >= 8 {
			step = 1
		}
		for i := 0; i < 8; i += step {
			out = append(out, orb.LineString{ring[i], spurs[i]})
		}
		return out
	case Landmark:
		// label placement only
		return nil
	}
	return nil
}

// TransformPolylines rotates the polylines about center (degrees,
// positive counter-clockwise in math convention; screen Y is inverted, so
// callers must be consistent) and then, if flipped, mirrors horizontally
// across the center's x-coordinate.
func TransformPolylines(polys []orb.LineString, rotationDeg float64, flipped bool, center orb.Point) []orb.LineString {
	rad := rotationDeg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	out := make([]orb.LineString, len(polys))
	for i, poly := range polys {
		pts := make(orb.LineString, len(poly))
		for k, p := range poly {
			x := p[0] - center[0]
			y := p[1] - center[1]
			rx := x*cos - y*sin
			ry := x*sin + y*cos
			if flipped {
				rx = -rx
			}
			pts[k] = orb.Point{center[0] + rx, center[1] + ry}
		}
		out[i] = pts
	}
	return out
}
