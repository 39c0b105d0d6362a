package sim

import (
	"time"

	"github.com/paulmach/orb"

	"roadsim/model"
)

// JunctionZone is a worker's immutable snapshot of one junction's
// light-immunity zone.
type JunctionZone struct {
	Name   string
	Center orb.Point
	Radius float64
}

// commitPoint is the progress fraction past which a vehicle is committed
// to entering the next node and no longer brakes for a light.
const commitPoint = 0.8

// Worker advances one vehicle along its path. It owns its vehicle copy
// exclusively; all communication with the coordinator is over channels
// plus the shared stop signal.
type Worker struct {
	Vehicle  model.Vehicle
	Zones    []JunctionZone
	MatchTol float64 // light node vs upcoming path point
	Tick     time.Duration

	Lights  <-chan LightStateEvent
	Reports chan<- PositionEvent
	Stop    <-chan struct{}

	stopped bool
}

// Run drives the vehicle until its path is exhausted or the shared stop
// signal fires. It emits a final inactive report on path exhaustion.
func (w *Worker) Run() {
	if w.Tick <= 0 {
		w.Tick = 20 * time.Millisecond
	}
	for {
		select {
		case <-w.Stop:
			return
		default:
		}

		v := &w.Vehicle
		if v.Done() {
			w.report(PositionEvent{VehicleID: v.ID, Pos: v.Position(), Segment: v.Segment, Progress: v.Progress, Active: false}, true)
			return
		}

		pos := v.Position()
		if w.insideZone(pos) {
			// never stop mid-junction, whatever the lights say
			w.stopped = false
			w.drainLights(nil)
		} else {
			next := v.Path[v.Segment+1]
			w.drainLights(&next)
		}

		if !w.stopped {
			segLen := v.SegmentLength()
			if segLen == 0 {
				v.Progress = 1.0
			} else {
				v.Progress += v.Speed / segLen
			}
			if v.Progress >= 1.0 {
				v.Progress = 0
				v.Segment++
				w.stopped = false // fresh segment, fresh light check
			}
		}

		w.report(PositionEvent{VehicleID: v.ID, Pos: v.Position(), Segment: v.Segment, Progress: v.Progress, Active: true}, false)

		select {
		case <-w.Stop:
			return
		case <-time.After(w.Tick):
		}
	}
}

func (w *Worker) insideZone(pos orb.Point) bool {
	for _, z := range w.Zones {
		if model.Dist(pos, z.Center) <= z.Radius {
			return true
		}
	}
	return false
}

// drainLights consumes all pending light broadcasts. When upcoming is
// non-nil, a broadcast matching the upcoming path point adopts stop or go
// unless the vehicle is already past the commit point.
func (w *Worker) drainLights(upcoming *orb.Point) {
	for {
		select {
		case ev := <-w.Lights:
			if upcoming == nil {
				continue
			}
			if model.Dist(ev.Node, *upcoming) <= w.MatchTol && w.Vehicle.Progress < commitPoint {
				w.stopped = ev.Color != model.Green
			}
		default:
			return
		}
	}
}

// report sends a position report. Per-tick reports are best-effort and
// dropped when the coordinator is not ready; the final report blocks
// (bounded by the stop signal) so teardown always observes it.
func (w *Worker) report(ev PositionEvent, final bool) {
	if final {
		select {
		case w.Reports <- ev:
		case <-w.Stop:
		}
		return
	}
	select {
	case w.Reports <- ev:
	default:
	}
}
