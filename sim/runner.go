package sim

import (
	"sync"
	"time"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"roadsim/data"
	"roadsim/model"
	"roadsim/route"
)

// Options tunes the runner's timing and capacities.
type Options struct {
	VehicleSpeed float64       // world units per vehicle tick
	VehicleTick  time.Duration // worker pacing
	LightTick    time.Duration // light broadcast cadence
	ReportTick   time.Duration // position report poll cadence
	ReportBatch  int           // max reports applied per poll
	JoinTimeout  time.Duration // graceful worker join before forcing
	SpawnRadius  float64       // max distance from spawn point to a road
}

func (o *Options) fill(grid float64) {
	if o.VehicleSpeed <= 0 {
		o.VehicleSpeed = data.VehicleSpeeds["car"]
	}
	if o.VehicleTick <= 0 {
		o.VehicleTick = 20 * time.Millisecond
	}
	if o.LightTick <= 0 {
		o.LightTick = 100 * time.Millisecond
	}
	if o.ReportTick <= 0 {
		o.ReportTick = 50 * time.Millisecond
	}
	if o.ReportBatch <= 0 {
		o.ReportBatch = 32
	}
	if o.JoinTimeout <= 0 {
		o.JoinTimeout = 500 * time.Millisecond
	}
	if o.SpawnRadius <= 0 {
		o.SpawnRadius = grid * 2
	}
}

// vehicleColors cycles through marker colors for spawned vehicles.
var vehicleColors = data.VehicleColors

type vehicleHandle struct {
	vehicle model.Vehicle // latest reported snapshot
	lightCh chan LightStateEvent
	done    chan struct{}
	running bool
}

// Runner coordinates vehicle workers and the light controller. The
// registries stay owned by the coordinating side; workers only ever see
// immutable copies and channels.
type Runner struct {
	World   *model.World
	Lights  *LightController
	Builder *route.Builder

	opts Options

	mu        sync.Mutex
	vehicles  map[int]*vehicleHandle
	order     []int
	nextID    int
	running   bool
	completed int

	events   chan Event
	runStop  chan struct{}
	stopOnce *sync.Once
	reports  chan PositionEvent
	runWG    *sync.WaitGroup
}

// NewRunner wires a runner over the given world and light controller.
func NewRunner(world *model.World, lights *LightController, opts Options) *Runner {
	opts.fill(world.GridSize)
	return &Runner{
		World:    world,
		Lights:   lights,
		Builder:  route.NewBuilder(world),
		opts:     opts,
		vehicles: make(map[int]*vehicleHandle),
		events:   make(chan Event, 256),
	}
}

// Events exposes the render update stream consumed by the GUI bridge.
func (r *Runner) Events() <-chan Event { return r.events }

// emit is best-effort: a full events channel drops the update, the next
// tick supersedes it.
func (r *Runner) emit(ev Event) {
	select {
	case r.events <- ev:
	default:
	}
}

// Spawn creates a vehicle at the road nearest to start, with its path
// built from the parsed route text. The vehicle stays parked until the
// simulation runs. Failures are typed: ErrNoRoadNearby, ErrPathTooShort.
func (r *Runner) Spawn(start orb.Point, routeText string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seg, idx, dist := r.World.NearestSegment(start)
	if seg == nil || dist > r.opts.SpawnRadius {
		return 0, ErrNoRoadNearby
	}
	cmds := route.Parse(routeText, r.World)
	path := r.Builder.Build(seg, idx, cmds)
	if len(path) < 2 {
		return 0, ErrPathTooShort
	}

	r.nextID++
	v := model.Vehicle{
		ID:    r.nextID,
		Path:  path,
		Speed: r.opts.VehicleSpeed,
		Color: vehicleColors[(r.nextID-1)%len(vehicleColors)],
		Alive: true,
	}
	h := &vehicleHandle{vehicle: v}
	r.vehicles[v.ID] = h
	r.order = append(r.order, v.ID)
	r.emit(SpawnEvent{VehicleID: v.ID, Color: v.Color, Pos: path[0], PathLen: len(path)})
	log.WithFields(log.Fields{"vehicle": v.ID, "points": len(path)}).Info("vehicle spawned")

	if r.running {
		r.launch(h)
	}
	return v.ID, nil
}

// zoneSnapshot copies junction positions, types, and radii for workers.
func (r *Runner) zoneSnapshot() []JunctionZone {
	var zones []JunctionZone
	for _, j := range r.World.Junctions() {
		if j.Type == model.Landmark {
			continue
		}
		zones = append(zones, JunctionZone{Name: j.Name, Center: j.Center, Radius: j.ZoneRadius(r.World.GridSize)})
	}
	return zones
}

// launch starts a worker for the handle. Caller holds r.mu.
func (r *Runner) launch(h *vehicleHandle) {
	h.lightCh = make(chan LightStateEvent, 64)
	h.done = make(chan struct{})
	h.running = true
	w := &Worker{
		Vehicle:  h.vehicle,
		Zones:    r.zoneSnapshot(),
		MatchTol: r.World.GridSize * 0.75,
		Tick:     r.opts.VehicleTick,
		Lights:   h.lightCh,
		Reports:  r.reports,
		Stop:     r.runStop,
	}
	r.runWG.Add(1)
	done := h.done
	go func() {
		defer r.runWG.Done()
		defer close(done)
		w.Run()
	}()
}

// Start launches workers for all parked vehicles and begins the
// coordinator loops. Restarting resumes each vehicle from its last
// reported position.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.runStop = make(chan struct{})
	r.stopOnce = &sync.Once{}
	r.reports = make(chan PositionEvent, 256)
	r.runWG = &sync.WaitGroup{}

	for _, id := range r.order {
		if h, ok := r.vehicles[id]; ok && h.vehicle.Alive {
			r.launch(h)
		}
	}
	r.emit(InitEvent{Vehicles: len(r.vehicles), Lights: len(r.Lights.Lights()), Night: r.Lights.Night()})

	stop := r.runStop
	reports := r.reports
	r.runWG.Add(1)
	go func() {
		defer r.runWG.Done()
		r.coordinate(stop, reports)
	}()
}

// coordinate runs the two scheduled callbacks: light ticking plus
// broadcast every LightTick, and a bounded position-report drain every
// ReportTick. Neither ever blocks on a slow consumer.
func (r *Runner) coordinate(stop <-chan struct{}, reports <-chan PositionEvent) {
	lightTicker := time.NewTicker(r.opts.LightTick)
	reportTicker := time.NewTicker(r.opts.ReportTick)
	defer lightTicker.Stop()
	defer reportTicker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-lightTicker.C:
			r.broadcastLights(time.Now())
		case <-reportTicker.C:
			r.drainReports(reports)
		}
	}
}

func (r *Runner) broadcastLights(now time.Time) {
	r.mu.Lock()
	r.Lights.Tick(now)
	states := make([]LightStateEvent, 0, len(r.Lights.Lights()))
	for _, l := range r.Lights.Lights() {
		states = append(states, LightStateEvent{LightID: l.ID, Node: l.Node, Color: l.Color})
	}
	peds := make([]PedestrianEvent, 0, len(r.Lights.Crossings()))
	for _, p := range r.Lights.Crossings() {
		peds = append(peds, PedestrianEvent{CrossingID: p.ID, Node: p.Node, Color: p.Color})
	}
	handles := make([]*vehicleHandle, 0, len(r.vehicles))
	for _, h := range r.vehicles {
		if h.running {
			handles = append(handles, h)
		}
	}
	r.mu.Unlock()

	for _, s := range states {
		r.emit(s)
		for _, h := range handles {
			// best-effort: a missed update is superseded next tick
			select {
			case h.lightCh <- s:
			default:
			}
		}
	}
	for _, p := range peds {
		r.emit(p)
	}
}

// drainReports applies at most ReportBatch reports per poll so per-poll
// coordinator work stays bounded; excess stays queued for the next poll.
func (r *Runner) drainReports(reports <-chan PositionEvent) {
	for i := 0; i < r.opts.ReportBatch; i++ {
		select {
		case ev := <-reports:
			r.applyReport(ev)
		default:
			return
		}
	}
}

func (r *Runner) applyReport(ev PositionEvent) {
	r.mu.Lock()
	h, ok := r.vehicles[ev.VehicleID]
	if ok {
		h.vehicle.Segment = ev.Segment
		h.vehicle.Progress = ev.Progress
		if !ev.Active {
			h.vehicle.Alive = false
			h.running = false
			r.completed++
			delete(r.vehicles, ev.VehicleID)
		}
	}
	var done chan struct{}
	if ok && !ev.Active {
		done = h.done
	}
	r.mu.Unlock()

	r.emit(ev)
	if done != nil {
		select {
		case <-done:
		case <-time.After(r.opts.JoinTimeout):
			log.WithField("vehicle", ev.VehicleID).Warn("worker join timed out, abandoning")
		}
	}
}

// Stop halts the run. Workers exit cooperatively; vehicles keep their
// last reported positions and can be resumed with Start.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.stopOnce.Do(func() { close(r.runStop) })
	wg := r.runWG
	completed := r.completed
	r.mu.Unlock()

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(r.opts.JoinTimeout):
		log.Warn("simulation stop timed out waiting for workers, forcing")
	}
	r.emit(DoneEvent{Completed: completed})
}

// Clear stops the run and removes every vehicle. Guaranteed to return
// even if a worker is unresponsive.
func (r *Runner) Clear() {
	r.Stop()
	r.mu.Lock()
	removed := len(r.vehicles)
	r.vehicles = make(map[int]*vehicleHandle)
	r.order = nil
	r.mu.Unlock()
	r.emit(ClearEvent{Removed: removed})
}

// Running reports whether a simulation run is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Vehicles returns snapshots of the current vehicles in spawn order.
func (r *Runner) Vehicles() []model.Vehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Vehicle, 0, len(r.vehicles))
	for _, id := range r.order {
		if h, ok := r.vehicles[id]; ok {
			out = append(out, h.vehicle)
		}
	}
	return out
}

// SetNight toggles the night-mode light override for the whole run.
func (r *Runner) SetNight(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lights.SetNight(on)
}

// Edit runs fn with exclusive access to the world registries. All editor
// mutations go through here so they never race the coordinator.
func (r *Runner) Edit(fn func(*model.World)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.World)
}

// PlaceJunction installs a junction and, for Crossroads and Roundabout
// types, its pre-installed auto-phased light set.
func (r *Runner) PlaceJunction(t model.JunctionType, center orb.Point, rotationDeg float64, flipped bool, exitCount int, ringDir model.RingDirection) *model.Junction {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.World.PlaceJunction(t, center, rotationDeg, flipped, exitCount, ringDir)
	switch t {
	case model.Crossroads:
		r.Lights.PreinstallCrossroads(j)
	case model.Roundabout:
		r.Lights.PreinstallRoundabout(j)
	}
	return j
}
