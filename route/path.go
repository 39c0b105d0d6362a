package route

import (
	"math"
	"strings"

	"github.com/paulmach/orb"

	"roadsim/model"
)

// maxExtensions caps how many times a path may be extended, so building
// terminates even on malformed or fully cyclic graphs.
const maxExtensions = 30

// Builder walks the road graph to construct an ordered polyline path for
// a vehicle from a starting segment and a parsed command list.
type Builder struct {
	World *model.World

	// JunctionTol is how close the path endpoint must be to a junction
	// center (or roundabout spur endpoint) for a command to apply.
	JunctionTol float64
	// ConnectTol is how close two endpoints must be to count as joined.
	ConnectTol float64
}

// NewBuilder returns a Builder with tolerances derived from the world's
// grid spacing.
func NewBuilder(w *model.World) *Builder {
	return &Builder{
		World:       w,
		JunctionTol: w.GridSize * 1.5,
		ConnectTol:  w.GridSize * 0.5,
	}
}

// Build constructs the path. It starts from start.Points[startIndex:],
// consumes commands at matching junctions, and otherwise continues onto
// connected roads. The result may be shorter than 2 points on dead-end
// graphs; callers must validate length before spawning.
func (b *Builder) Build(start *model.RoadSegment, startIndex int, cmds []Command) orb.LineString {
	if start == nil || len(start.Points) == 0 {
		return nil
	}
	if startIndex < 0 {
		startIndex = 0
	}
	if startIndex > len(start.Points)-1 {
		startIndex = len(start.Points) - 1
	}
	path := append(orb.LineString(nil), start.Points[startIndex:]...)
	visited := map[int]bool{start.ID: true}
	consumed := map[string]bool{}

	for ext := 0; ext < maxExtensions; ext++ {
		end := path[len(path)-1]
		extended := false

		if len(cmds) > 0 {
			cmd := cmds[0]
			j := b.World.Junction(cmd.Junction)
			if j != nil && !consumed[j.Name] && b.atJunction(end, j) {
				consumed[j.Name] = true
				cmds = cmds[1:]
				if j.Type == model.Roundabout {
					path = b.traverseRoundabout(path, j, cmd, visited)
					extended = true
				} else if next := b.resolveExit(path, j, cmd, visited); next != nil {
					path = appendPoints(path, next, b.ConnectTol)
					extended = true
				}
			}
		}

		if !extended {
			grown, ok := b.continueOnConnectedRoad(path, visited)
			if !ok {
				break
			}
			path = grown
		}
	}
	return path
}

// atJunction reports whether p is near the junction: within tolerance of
// its center or, for roundabouts, of any of its 8 spur endpoints.
func (b *Builder) atJunction(p orb.Point, j *model.Junction) bool {
	if model.Dist(p, j.Center) <= b.JunctionTol {
		return true
	}
	if j.Type == model.Roundabout {
		for _, sp := range j.SpurEndpoints(b.World.GridSize) {
			if model.Dist(p, sp) <= b.JunctionTol {
				return true
			}
		}
	}
	return false
}

// resolveExit picks the exit segment at an ordinary junction and returns
// its points ordered from the junction center outward, or nil when the
// junction has no unvisited exits. The chosen segment is marked visited.
func (b *Builder) resolveExit(path orb.LineString, j *model.Junction, cmd Command, visited map[int]bool) orb.LineString {
	type candidate struct {
		seg     *model.RoadSegment
		points  orb.LineString
		bearing model.Compass
		outward orb.Point
	}
	var cands []candidate
	for _, s := range b.World.SegmentsTouching(j.Center, b.ConnectTol) {
		if visited[s.ID] {
			continue
		}
		pts := append(orb.LineString(nil), s.Points...)
		if model.Dist(s.End(), j.Center) < model.Dist(s.Start(), j.Center) {
			pts = reversed(pts)
		}
		out := pts[len(pts)-1]
		cands = append(cands, candidate{seg: s, points: pts, bearing: model.CompassOf(j.Center, out), outward: out})
	}
	if len(cands) == 0 {
		return nil
	}

	pick := -1
	if cmd.Direction.Relative() {
		hx, hy := incomingHeading(path)
		for i, c := range cands {
			ox := c.outward[0] - j.Center[0]
			oy := c.outward[1] - j.Center[1]
			n := math.Hypot(ox, oy)
			if n == 0 {
				continue
			}
			ox, oy = ox/n, oy/n
			dot := hx*ox + hy*oy
			// screen Y grows downward, so a negative cross product is a
			// visual left turn
			cross := hx*oy - hy*ox
			var turn Direction
			switch {
			case dot < -0.7:
				turn = Direction("BACK")
			case math.Abs(cross) < 0.3:
				turn = Straight
			case cross < 0:
				turn = Left
			default:
				turn = Right
			}
			if turn == cmd.Direction {
				pick = i
				break
			}
		}
	} else {
		desired := cmd.Direction.Compass()
		for i, c := range cands {
			if c.bearing == desired {
				pick = i
				break
			}
		}
		if pick < 0 {
			// partial match: desired "N" accepts a "NE" candidate
			for i, c := range cands {
				if strings.Contains(string(c.bearing), string(desired)) {
					pick = i
					break
				}
			}
		}
	}
	if pick < 0 {
		pick = 0
	}
	visited[cands[pick].seg.ID] = true
	return cands[pick].points
}

// traverseRoundabout appends the ring walk from the entry vertex to the
// desired exit vertex and then the exit's outward spur endpoint. The
// walk is synthesized from the ring geometry; the junction's drawn arm
// segments are marked visited so the connected-road walk cannot wander
// back onto the ring afterwards.
func (b *Builder) traverseRoundabout(path orb.LineString, j *model.Junction, cmd Command, visited map[int]bool) orb.LineString {
	for _, s := range b.World.Segments() {
		if s.OwnerJunction == j.Name {
			visited[s.ID] = true
		}
	}
	grid := b.World.GridSize
	ring := j.RingVertices(grid)
	spurs := j.SpurEndpoints(grid)
	end := path[len(path)-1]

	entry := 0
	best := model.Dist(end, spurs[0])
	for i := 1; i < 8; i++ {
		if d := model.Dist(end, spurs[i]); d < best {
			entry, best = i, d
		}
	}

	step := 2
	if j.ExitCount >= 8 {
		step = 1
	}
	sign := 1
	if j.RingDir == model.CounterClockwise {
		sign = -1
	}

	var desired int
	if cmd.Direction.Relative() {
		// right exits at the next reachable vertex, anything else one further
		off := 2
		if cmd.Direction == Right {
			off = 1
		}
		desired = mod8(entry + sign*off*step)
	} else {
		desired = cmd.Direction.Compass().RingIndex()
		if step == 2 && desired%2 != 0 {
			// snap diagonals to the nearest cardinal in travel direction
			desired = mod8(desired + sign)
		}
	}
	if step == 2 && mod8(desired-entry)%2 != 0 {
		desired = mod8(desired + sign)
	}
	if desired == entry {
		// a vehicle may not exit where it entered
		desired = mod8(entry + sign*step)
	}

	path = append(path, ring[entry])
	idx := entry
	for guard := 0; idx != desired && guard < 8; guard++ {
		idx = mod8(idx + sign*step)
		path = append(path, ring[idx])
	}
	return append(path, spurs[desired])
}

// continueOnConnectedRoad extends the path with the first unvisited
// segment whose start or end lies within tolerance of the current
// endpoint, reversing it when approached from its end.
func (b *Builder) continueOnConnectedRoad(path orb.LineString, visited map[int]bool) (orb.LineString, bool) {
	end := path[len(path)-1]
	for _, s := range b.World.Segments() {
		if visited[s.ID] || len(s.Points) < 2 {
			continue
		}
		if model.Dist(s.Start(), end) <= b.ConnectTol {
			visited[s.ID] = true
			return appendPoints(path, s.Points, b.ConnectTol), true
		}
		if model.Dist(s.End(), end) <= b.ConnectTol {
			visited[s.ID] = true
			return appendPoints(path, reversed(append(orb.LineString(nil), s.Points...)), b.ConnectTol), true
		}
	}
	return path, false
}

func incomingHeading(path orb.LineString) (float64, float64) {
	if len(path) < 2 {
		return 0, -1
	}
	a := path[len(path)-2]
	b := path[len(path)-1]
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	n := math.Hypot(dx, dy)
	if n == 0 {
		return 0, -1
	}
	return dx / n, dy / n
}

// appendPoints joins pts onto path, dropping the first point when it
// duplicates the current endpoint.
func appendPoints(path, pts orb.LineString, tol float64) orb.LineString {
	if len(pts) == 0 {
		return path
	}
	if model.Dist(path[len(path)-1], pts[0]) <= tol/4 {
		pts = pts[1:]
	}
	return append(path, pts...)
}

func reversed(pts orb.LineString) orb.LineString {
	for i, k := 0, len(pts)-1; i < k; i, k = i+1, k-1 {
		pts[i], pts[k] = pts[k], pts[i]
	}
	return pts
}

func mod8(i int) int {
	m := i % 8
	if m < 0 {
		m += 8
	}
	return m
}
