package driver

import (
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	log "github.com/sirupsen/logrus"

	"roadsim/model"
	"roadsim/route"
	"roadsim/sim"
)

// Options configures a headless batch run.
type Options struct {
	NetworkPath string        // network JSON; empty builds the demo network
	Vehicles    int           // how many vehicles to spawn
	Duration    time.Duration // wall-clock cap for the run
	ReportPath  string        // CSV output path or directory, empty skips
	Night       bool
	Grid        float64
}

func (o *Options) fill() {
	if o.Vehicles <= 0 {
		o.Vehicles = 4
	}
	if o.Duration <= 0 {
		o.Duration = 30 * time.Second
	}
	if o.Grid <= 0 {
		o.Grid = model.DefaultGrid
	}
}

// Summary is the batch run outcome.
type Summary struct {
	Spawned   int
	Completed int
	TotalDist float64
	Stats     []sim.VehicleStats
}

// Run executes a headless simulation: it builds or loads a network,
// spawns vehicles on estimator-selected routes, runs the workers at a
// fast tick, and collects per-vehicle stats. No server, no websocket.
func Run(opt Options) (Summary, error) {
	opt.fill()

	world := model.NewWorld(opt.Grid)
	lights := sim.NewLightController(world, time.Now())
	runner := sim.NewRunner(world, lights, sim.Options{
		VehicleTick: 2 * time.Millisecond,
		LightTick:   10 * time.Millisecond,
		ReportTick:  5 * time.Millisecond,
	})

	if opt.NetworkPath != "" {
		f, err := os.Open(opt.NetworkPath)
		if err != nil {
			return Summary{}, fmt.Errorf("open network: %w", err)
		}
		src, err := model.LoadNetworkFromReader(f)
		f.Close()
		if err != nil {
			return Summary{}, err
		}
		replayNetwork(runner, src)
	} else {
		buildDemoNetwork(runner, opt.Grid)
	}
	runner.SetNight(opt.Night)

	est := route.NewEstimator(world, runner.Builder, lights)

	// Candidate endpoints are the named junctions, landmarks excluded.
	var names []string
	for _, j := range world.Junctions() {
		if j.Type != model.Landmark {
			names = append(names, j.Name)
		}
	}
	if len(names) < 2 {
		return Summary{}, fmt.Errorf("network needs at least 2 junctions, have %d", len(names))
	}

	type planned struct {
		id    int
		stats sim.VehicleStats
	}
	var plans []planned
	for i := 0; i < opt.Vehicles; i++ {
		from, to := routePair(names, i)
		cand, err := est.BestRoute(from, to)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"from": from, "to": to}).Warn("no route, skipping vehicle")
			continue
		}
		routeText := route.FormatCommands(cand.Commands)
		id, err := runner.Spawn(world.Junction(from).Center, routeText)
		if err != nil {
			log.WithError(err).WithField("from", from).Warn("spawn failed")
			continue
		}
		plans = append(plans, planned{id: id, stats: sim.VehicleStats{
			VehicleID: id,
			Route:     routeText,
			Points:    len(cand.Path),
			Distance:  planar.Length(cand.Path),
			Estimated: cand.Seconds,
		}})
	}
	if len(plans) == 0 {
		return Summary{}, fmt.Errorf("no vehicles could be spawned")
	}

	runner.Start()
	log.WithFields(log.Fields{"vehicles": len(plans), "cap": opt.Duration}).Info("batch run started")

	finished := make(map[int]bool)
	deadline := time.After(opt.Duration)
loop:
	for {
		select {
		case ev, ok := <-runner.Events():
			if !ok {
				break loop
			}
			if pe, isPos := ev.(sim.PositionEvent); isPos && !pe.Active {
				finished[pe.VehicleID] = true
				if len(finished) == len(plans) {
					break loop
				}
			}
		case <-deadline:
			log.Warn("batch run hit duration cap")
			break loop
		}
	}
	runner.Stop()

	sum := Summary{Spawned: len(plans)}
	for _, p := range plans {
		p.stats.Completed = finished[p.id]
		if p.stats.Completed {
			sum.Completed++
		}
		sum.TotalDist += p.stats.Distance
		sum.Stats = append(sum.Stats, p.stats)
	}

	if opt.ReportPath != "" {
		rs := sim.ReportSummary{Spawned: sum.Spawned, Completed: sum.Completed, TotalDist: sum.TotalDist}
		if _, err := sim.WriteCSVReport(opt.ReportPath, sum.Stats, rs); err != nil {
			log.WithError(err).Warn("report: create failed")
		}
	}
	printConsoleReport(sum)
	return sum, nil
}

func printConsoleReport(sum Summary) {
	fmt.Println("=== Simulation Report (batch) ===")
	fmt.Printf("Vehicles spawned: %d\n", sum.Spawned)
	fmt.Printf("Vehicles completed: %d\n", sum.Completed)
	for _, s := range sum.Stats {
		fmt.Printf("Vehicle %d route=%q distance=%.1f estimated=%.1fs completed=%v\n",
			s.VehicleID, s.Route, s.Distance, s.Estimated, s.Completed)
	}
	fmt.Printf("Total path distance: %.1f\n", sum.TotalDist)
}

// routePair picks the i-th origin and destination, cycling through the
// junction list with a shifting stride. The destination always differs
// from the origin; names holds at least 2 distinct entries.
func routePair(names []string, i int) (from, to string) {
	from = names[i%len(names)]
	to = names[(i+1+i/len(names))%len(names)]
	for step := 1; to == from; step++ {
		to = names[(i+1+i/len(names)+step)%len(names)]
	}
	return from, to
}

// replayNetwork installs a parsed network through the runner so junction
// light preinstalls fire.
func replayNetwork(r *sim.Runner, src *model.World) {
	for _, j := range src.Junctions() {
		r.PlaceJunction(j.Type, j.Center, j.Rotation, j.Flipped, j.ExitCount, j.RingDir)
	}
	r.Edit(func(w *model.World) {
		for _, seg := range src.Segments() {
			if seg.Kind == model.KindJunctionArm {
				continue
			}
			if seg.Kind == model.KindLine && len(seg.Points) == 2 {
				w.AddLine(seg.Points[0], seg.Points[1], seg.RoadType)
			} else {
				w.AddFreehand(seg.Points, seg.RoadType)
			}
		}
	})
}

// buildDemoNetwork lays out two crossroads, a t-section and a roundabout
// joined by straight two-way roads. Spacing keeps junction zones from
// overlapping.
func buildDemoNetwork(r *sim.Runner, grid float64) {
	a := orb.Point{grid * 8, grid * 8}
	b := orb.Point{grid * 24, grid * 8}
	c := orb.Point{grid * 8, grid * 24}
	d := orb.Point{grid * 24, grid * 24}

	r.PlaceJunction(model.Crossroads, a, 0, false, 0, model.Clockwise)
	r.PlaceJunction(model.Crossroads, b, 0, false, 0, model.Clockwise)
	// rotated so the stem arm points north, toward the crossroads above
	r.PlaceJunction(model.TSection, c, 180, false, 0, model.Clockwise)
	r.PlaceJunction(model.Roundabout, d, 0, false, 4, model.Clockwise)

	arm := grid * 2
	r.Edit(func(w *model.World) {
		// horizontal links
		w.AddLine(orb.Point{a[0] + arm, a[1]}, orb.Point{b[0] - arm, b[1]}, model.TwoWay)
		w.AddLine(orb.Point{c[0] + arm, c[1]}, orb.Point{d[0] - grid*3, d[1]}, model.TwoWay)
		// vertical links
		w.AddLine(orb.Point{a[0], a[1] + arm}, orb.Point{c[0], c[1] - arm}, model.TwoWay)
		w.AddLine(orb.Point{b[0], b[1] + arm}, orb.Point{d[0], d[1] - grid*3}, model.TwoWay)
	})
}
