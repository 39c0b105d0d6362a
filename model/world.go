package model

import (
	"github.com/paulmach/orb"
)

// World owns the drawn road segments and the junction registry. It is
// mutated only by the coordinating process; vehicle workers receive
// copies of whatever they need at spawn time and never touch it.
type World struct {
	GridSize float64

	segments      []*RoadSegment
	junctions     map[string]*Junction
	order         []string
	nextSegmentID int
	placedCount   int
}

// NewWorld returns an empty world with the given grid spacing.
func NewWorld(grid float64) *World {
	if grid <= 0 {
		grid = DefaultGrid
	}
	return &World{
		GridSize:  grid,
		junctions: make(map[string]*Junction),
	}
}

func (w *World) addSegment(kind SegmentKind, pts orb.LineString, owner string, rt RoadType) *RoadSegment {
	w.nextSegmentID++
	seg := &RoadSegment{
		ID:            w.nextSegmentID,
		Kind:          kind,
		Points:        pts,
		OwnerJunction: owner,
		RoadType:      rt,
	}
	w.segments = append(w.segments, seg)
	return seg
}

// AddLine installs a straight road between two points.
func (w *World) AddLine(a, b orb.Point, rt RoadType) *RoadSegment {
	return w.addSegment(KindLine, orb.LineString{a, b}, "", rt)
}

// AddFreehand installs a freehand polyline road.
func (w *World) AddFreehand(pts []orb.Point, rt RoadType) *RoadSegment {
	if len(pts) < 2 {
		return nil
	}
	return w.addSegment(KindFreehand, orb.LineString(pts), "", rt)
}

// Segments returns the live segment list in drawing order.
func (w *World) Segments() []*RoadSegment { return w.segments }

// Segment looks a segment up by its synthetic id.
func (w *World) Segment(id int) *RoadSegment {
	for _, s := range w.segments {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Junction returns the named junction or nil.
func (w *World) Junction(name string) *Junction { return w.junctions[name] }

// Junctions returns junctions in creation order.
func (w *World) Junctions() []*Junction {
	out := make([]*Junction, 0, len(w.order))
	for _, name := range w.order {
		out = append(out, w.junctions[name])
	}
	return out
}

// PlaceJunction installs a junction of the given type: it assigns the
// next spreadsheet-column name, generates and transforms the template,
// and records each polyline as a junction-arm road segment.
func (w *World) PlaceJunction(t JunctionType, center orb.Point, rotationDeg float64, flipped bool, exitCount int, ringDir RingDirection) *Junction {
	j := &Junction{
		Name:      JunctionName(w.placedCount),
		Type:      t,
		Center:    center,
		Rotation:  rotationDeg,
		Flipped:   flipped,
		ExitCount: exitCount,
		RingDir:   ringDir,
	}
	w.placedCount++
	w.junctions[j.Name] = j
	w.order = append(w.order, j.Name)

	polys := Template(t, center, w.GridSize, exitCount)
	polys = TransformPolylines(polys, rotationDeg, flipped, center)
	for _, poly := range polys {
		w.addSegment(KindJunctionArm, poly, j.Name, TwoWay)
	}
	return j
}

// EraseNear removes the topmost shape having a point within half a grid
// unit of p and returns it, or nil when nothing is close enough. Junction
// arms are erased like any other segment; the junction record itself
// stays (redraw is the only way to change it).
func (w *World) EraseNear(p orb.Point) *RoadSegment {
	thresh := w.GridSize * 0.5
	for i := len(w.segments) - 1; i >= 0; i-- {
		for _, pt := range w.segments[i].Points {
			if Dist(pt, p) < thresh {
				seg := w.segments[i]
				w.segments = append(w.segments[:i], w.segments[i+1:]...)
				return seg
			}
		}
	}
	return nil
}

// Clear removes every segment and junction.
func (w *World) Clear() {
	w.segments = nil
	w.junctions = make(map[string]*Junction)
	w.order = nil
	w.placedCount = 0
}

// SegmentsTouching returns all segments with an endpoint within tol of p.
func (w *World) SegmentsTouching(p orb.Point, tol float64) []*RoadSegment {
	var out []*RoadSegment
	for _, s := range w.segments {
		if s.TouchesEndpoint(p, tol) {
			out = append(out, s)
		}
	}
	return out
}

// NearestSegment finds the segment with the polyline point closest to p.
// It returns the segment, the point index, and the distance; the segment
// is nil when the world holds no roads.
func (w *World) NearestSegment(p orb.Point) (*RoadSegment, int, float64) {
	var best *RoadSegment
	bestIdx := 0
	bestDist := 0.0
	for _, s := range w.segments {
		idx, d := s.NearestPointIndex(p)
		if best == nil || d < bestDist {
			best, bestIdx, bestDist = s, idx, d
		}
	}
	return best, bestIdx, bestDist
}

// JunctionNear returns the junction whose center lies within tol of p.
func (w *World) JunctionNear(p orb.Point, tol float64) *Junction {
	for _, name := range w.order {
		j := w.junctions[name]
		if Dist(j.Center, p) <= tol {
			return j
		}
	}
	return nil
}
