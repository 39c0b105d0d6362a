package sim

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"roadsim/data"
	"roadsim/model"
)

// nodeTol groups lights sharing an attachment node. Attach points are
// computed from the same geometry so they match near-exactly.
const nodeTol = 1.0

// PedestrianCrossing is a derived light: its color is never timed on its
// own, only inverted from the traffic lights sharing its node.
type PedestrianCrossing struct {
	ID    int              `json:"id"`
	Node  orb.Point        `json:"node"`
	Color model.LightColor `json:"color"`
}

// LightController owns every installed traffic light and pedestrian
// crossing. Independent lights cycle by elapsed time, coordinated lights
// are a stateless function of the cycle position, and night mode forces
// everything to constant yellow ahead of all other logic.
type LightController struct {
	world *model.World
	epoch time.Time
	night bool

	nextLightID    int
	nextCrossingID int
	lights         []*model.TrafficLight
	crossings      []*PedestrianCrossing
}

// NewLightController creates a controller; epoch anchors coordinated
// light cycles.
func NewLightController(world *model.World, epoch time.Time) *LightController {
	return &LightController{world: world, epoch: epoch}
}

func (c *LightController) lightsAtNode(node orb.Point) []*model.TrafficLight {
	return lo.Filter(c.lights, func(l *model.TrafficLight, _ int) bool {
		return model.Dist(l.Node, node) <= nodeTol
	})
}

func (c *LightController) capFor(seg *model.RoadSegment) int {
	if seg != nil && seg.RoadType == model.OneWay {
		return 1
	}
	return 2
}

// Install adds an independently-cycling light at the node. It enforces
// the per-node cap: a two-way road node holds at most 2 lights, a one-way
// node at most 1. No partial state is created on rejection.
func (c *LightController) Install(seg *model.RoadSegment, node orb.Point, timing model.Timing) (int, error) {
	if len(c.lightsAtNode(node)) >= c.capFor(seg) {
		return 0, ErrLightCapExceeded
	}
	c.nextLightID++
	l := &model.TrafficLight{
		ID:         c.nextLightID,
		Node:       node,
		Color:      model.Green,
		Timing:     timing,
		Mode:       model.ModeIndependent,
		LastChange: c.epoch,
	}
	if seg != nil {
		l.SegmentID = seg.ID
	}
	c.lights = append(c.lights, l)
	return l.ID, nil
}

// InstallCoordinated adds a phase-coordinated light whose color is
// computed directly from (now mod cycle - offset). Same cap rules.
func (c *LightController) InstallCoordinated(seg *model.RoadSegment, node orb.Point, timing model.Timing, phase model.Phase, offset float64) (int, error) {
	if len(c.lightsAtNode(node)) >= c.capFor(seg) {
		return 0, ErrLightCapExceeded
	}
	c.nextLightID++
	l := &model.TrafficLight{
		ID:          c.nextLightID,
		Node:        node,
		Timing:      timing,
		Mode:        model.ModeCoordinated,
		Phase:       phase,
		PhaseOffset: offset,
		CycleTime:   timing.Cycle(),
		LastChange:  c.epoch,
	}
	l.Color = l.PhaseColor(c.epoch, c.epoch)
	if seg != nil {
		l.SegmentID = seg.ID
	}
	c.lights = append(c.lights, l)
	return l.ID, nil
}

// AddCrossing registers a pedestrian crossing at the node.
func (c *LightController) AddCrossing(node orb.Point) int {
	c.nextCrossingID++
	c.crossings = append(c.crossings, &PedestrianCrossing{ID: c.nextCrossingID, Node: node, Color: model.Green})
	return c.nextCrossingID
}

// Clear removes every light and crossing. ID counters restart so a
// reloaded network numbers its lights from 1 again.
func (c *LightController) Clear() {
	c.lights = nil
	c.crossings = nil
	c.nextLightID = 0
	c.nextCrossingID = 0
}

// DetachSegment removes the lights attached to the erased segment, plus
// any crossing stranded at their nodes once no light remains there.
// Lights installed without a segment (roundabout spur presets) are kept.
func (c *LightController) DetachSegment(segID int) int {
	if segID == 0 {
		return 0
	}
	removed := lo.Filter(c.lights, func(l *model.TrafficLight, _ int) bool {
		return l.SegmentID == segID
	})
	if len(removed) == 0 {
		return 0
	}
	c.lights = lo.Filter(c.lights, func(l *model.TrafficLight, _ int) bool {
		return l.SegmentID != segID
	})
	c.crossings = lo.Filter(c.crossings, func(p *PedestrianCrossing, _ int) bool {
		atRemovedNode := lo.SomeBy(removed, func(l *model.TrafficLight) bool {
			return model.Dist(l.Node, p.Node) <= nodeTol
		})
		return !atRemovedNode || len(c.lightsAtNode(p.Node)) > 0
	})
	return len(removed)
}

// SetNight toggles the night-mode override.
func (c *LightController) SetNight(on bool) { c.night = on }

// Night reports whether the override is active.
func (c *LightController) Night() bool { return c.night }

// Tick advances every light to its color at now. Night mode wins over
// everything and is checked first. Pedestrian colors are derived fresh
// after traffic-light advancement, never cached across ticks.
func (c *LightController) Tick(now time.Time) {
	if c.night {
		for _, l := range c.lights {
			l.Color = model.Yellow
		}
		for _, p := range c.crossings {
			p.Color = model.Yellow
		}
		return
	}
	for _, l := range c.lights {
		switch l.Mode {
		case model.ModeCoordinated:
			if next := l.PhaseColor(now, c.epoch); next != l.Color {
				l.Color = next
			}
		default:
			if now.Sub(l.LastChange).Seconds() >= l.Timing.Duration(l.Color) {
				l.Color = l.Color.Next()
				l.LastChange = now
			}
		}
	}
	for _, p := range c.crossings {
		p.Color = model.Green
		for _, l := range c.lightsAtNode(p.Node) {
			if l.Color == model.Green || l.Color == model.Yellow {
				p.Color = model.Red
				break
			}
		}
	}
}

// ColorOf returns the stored color of a light.
func (c *LightController) ColorOf(id int) (model.LightColor, bool) {
	for _, l := range c.lights {
		if l.ID == id {
			return l.Color, true
		}
	}
	return model.Red, false
}

// Lights returns the installed lights in install order.
func (c *LightController) Lights() []*model.TrafficLight { return c.lights }

// Crossings returns the registered pedestrian crossings.
func (c *LightController) Crossings() []*PedestrianCrossing { return c.crossings }

// AttachPoints exposes light attachment points for route estimation.
func (c *LightController) AttachPoints() []orb.Point {
	return lo.Map(c.lights, func(l *model.TrafficLight, _ int) orb.Point { return l.Node })
}

// CrossroadsTiming is the auto-phased preset installed at crossroads.
var CrossroadsTiming = data.LightTimings["crossroads"]

// Roundabout8Timing is the 24s preset for 8-exit roundabouts; the longer
// red carries a 1s all-red buffer between the phase pairs.
var Roundabout8Timing = data.LightTimings["roundabout8"]

// PreinstallCrossroads installs the auto-phased light set a Crossroads
// junction receives at placement: two lights per arm, arms opposite each
// other sharing a phase (N/S phase A offset 0, E/W phase B offset 10).
func (c *LightController) PreinstallCrossroads(j *model.Junction) {
	for _, seg := range c.armSegments(j) {
		node, bearing := c.armOutward(j, seg)
		phase, offset := phaseForBearing(bearing, CrossroadsTiming.Cycle()/2)
		for i := 0; i < 2; i++ {
			if _, err := c.InstallCoordinated(seg, node, CrossroadsTiming, phase, offset); err != nil {
				log.WithFields(log.Fields{"junction": j.Name, "node": node}).Warn("crossroads light skipped: node full")
			}
		}
		c.AddCrossing(node)
	}
}

// PreinstallRoundabout installs the auto-phased entry lights a
// Roundabout receives at placement: one light per exit spur. A 4-exit
// roundabout runs a 20s cycle (N+S against E+W); an 8-exit roundabout
// runs a 24s cycle, cardinals against diagonals, offsets 0 and 12.
func (c *LightController) PreinstallRoundabout(j *model.Junction) {
	timing := CrossroadsTiming
	halfCycle := timing.Cycle() / 2
	if j.ExitCount >= 8 {
		timing = Roundabout8Timing
		halfCycle = timing.Cycle() / 2
	}
	spurs := j.SpurEndpoints(c.world.GridSize)
	for i := 0; i < 8; i++ {
		if !j.HasExitAt(i) {
			continue
		}
		var phase model.Phase
		var offset float64
		if j.ExitCount >= 8 {
			// cardinals vs diagonals
			phase, offset = model.PhaseA, 0
			if i%2 == 1 {
				phase, offset = model.PhaseB, halfCycle
			}
		} else {
			phase, offset = phaseForBearing(model.CompassRing[i], halfCycle)
		}
		if _, err := c.InstallCoordinated(nil, spurs[i], timing, phase, offset); err != nil {
			log.WithFields(log.Fields{"junction": j.Name, "spur": i}).Warn("roundabout light skipped: node full")
		}
	}
}

// phaseForBearing groups opposite arms into the same phase: N/S-leaning
// arms are phase A at zero offset, E/W-leaning arms phase B at half a
// cycle.
func phaseForBearing(bearing model.Compass, halfCycle float64) (model.Phase, float64) {
	if bearing.RingIndex()%4 < 2 {
		return model.PhaseA, 0
	}
	return model.PhaseB, halfCycle
}

func (c *LightController) armSegments(j *model.Junction) []*model.RoadSegment {
	return lo.Filter(c.world.Segments(), func(s *model.RoadSegment, _ int) bool {
		return s.OwnerJunction == j.Name
	})
}

// armOutward returns the arm endpoint away from the junction center and
// its compass bearing from the center.
func (c *LightController) armOutward(j *model.Junction, seg *model.RoadSegment) (orb.Point, model.Compass) {
	out := seg.End()
	if model.Dist(seg.Start(), j.Center) > model.Dist(out, j.Center) {
		out = seg.Start()
	}
	return out, model.CompassOf(j.Center, out)
}
