package route

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/samber/lo"

	"roadsim/model"
)

// ErrNoCandidates is returned when no enumerated route yields a usable path.
var ErrNoCandidates = errors.New("no usable route between junctions")

// LightIndex exposes the installed traffic-light attachment points, used
// for the per-light delay heuristic.
type LightIndex interface {
	AttachPoints() []orb.Point
}

// Candidate is one enumerated route with its built path and estimate.
type Candidate struct {
	Commands []Command
	Path     orb.LineString
	Seconds  float64
}

// Estimator enumerates candidate routes between two named junctions and
// estimates travel time per candidate. The estimate is distance over a
// speed constant plus a flat per-light-encounter penalty; it does not
// simulate actual light phases.
type Estimator struct {
	World   *model.World
	Builder *Builder
	Lights  LightIndex

	AvgSpeed         float64 // world units per tick
	TickSeconds      float64
	LightPenalty     float64 // seconds per encountered light
	MaxIntermediates int
}

// NewEstimator returns an Estimator with the stock heuristic constants.
func NewEstimator(w *model.World, b *Builder, lights LightIndex) *Estimator {
	return &Estimator{
		World:            w,
		Builder:          b,
		Lights:           lights,
		AvgSpeed:         2.0,
		TickSeconds:      0.02,
		LightPenalty:     5.0,
		MaxIntermediates: 5,
	}
}

var cardinals = []Direction{"N", "E", "S", "W"}

// Enumerate generates candidate routes from start to end: one direct
// auto-routed candidate, one per compass exit at the destination, and
// two-leg candidates through up to MaxIntermediates other junctions with
// every cardinal direction pair. Candidates whose built path has fewer
// than 2 points are discarded.
func (e *Estimator) Enumerate(start, end string) []Candidate {
	startJ := e.World.Junction(start)
	endJ := e.World.Junction(end)
	if startJ == nil || endJ == nil {
		return nil
	}
	seg, idx, _ := e.World.NearestSegment(startJ.Center)
	if seg == nil {
		return nil
	}

	var routes [][]Command
	routes = append(routes, nil) // direct / auto
	for _, d := range cardinals {
		routes = append(routes, []Command{{Junction: end, Direction: d}})
	}
	mids := 0
	for _, mid := range e.World.Junctions() {
		if mid.Name == start || mid.Name == end || mid.Type == model.Landmark {
			continue
		}
		if mids >= e.MaxIntermediates {
			break
		}
		mids++
		for _, d1 := range cardinals {
			for _, d2 := range cardinals {
				routes = append(routes, []Command{
					{Junction: mid.Name, Direction: d1},
					{Junction: end, Direction: d2},
				})
			}
		}
	}

	cands := make([]Candidate, 0, len(routes))
	for _, cmds := range routes {
		path := e.Builder.Build(seg, idx, cmds)
		cands = append(cands, Candidate{Commands: cmds, Path: path})
	}
	cands = lo.Filter(cands, func(c Candidate, _ int) bool { return len(c.Path) >= 2 })
	for i := range cands {
		cands[i].Seconds = e.Estimate(cands[i].Path)
	}
	return cands
}

// Estimate computes the heuristic travel time for a path in seconds.
func (e *Estimator) Estimate(path orb.LineString) float64 {
	length := 0.0
	for i := 1; i < len(path); i++ {
		length += model.Dist(path[i-1], path[i])
	}
	seconds := length / e.AvgSpeed * e.TickSeconds

	if e.Lights != nil {
		tol := e.World.GridSize * 0.5
		attach := e.Lights.AttachPoints()
		for _, p := range path {
			for _, a := range attach {
				if model.Dist(p, a) <= tol {
					seconds += e.LightPenalty
					break
				}
			}
		}
	}
	return seconds
}

// Select returns the cheapest candidate; ties break in enumeration order.
func (e *Estimator) Select(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Seconds < best.Seconds {
			best = c
		}
	}
	return best, true
}

// BestRoute enumerates and selects in one step.
func (e *Estimator) BestRoute(start, end string) (Candidate, error) {
	best, ok := e.Select(e.Enumerate(start, end))
	if !ok {
		return Candidate{}, ErrNoCandidates
	}
	return best, nil
}
