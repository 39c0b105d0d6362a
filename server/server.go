package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"roadsim/data"
	"roadsim/model"
	"roadsim/route"
	"roadsim/sim"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Options configures the server instance.
type Options struct {
	Addr        string
	LightGreen  float64
	LightYellow float64
	LightRed    float64
}

func (o *Options) fill() {
	if o.Addr == "" {
		o.Addr = ":8080"
	}
	def := data.LightTimings["crossroads"]
	if o.LightGreen <= 0 {
		o.LightGreen = def.Green
	}
	if o.LightYellow <= 0 {
		o.LightYellow = def.Yellow
	}
	if o.LightRed <= 0 {
		o.LightRed = def.Red
	}
}

// Server bridges websocket clients to the runner: editor commands come
// in, render updates fan out.
type Server struct {
	Runner *sim.Runner
	Opt    Options

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]string // conn -> stream id
}

func New(runner *sim.Runner, opt Options) *Server {
	opt.fill()
	return &Server{
		Runner:  runner,
		Opt:     opt,
		clients: make(map[*websocket.Conn]string),
	}
}

// Serve registers handlers on the default mux and starts the event
// fan-out loop. It does not block.
func (s *Server) Serve() {
	http.HandleFunc("/ws", s.handleWS)
	http.HandleFunc("/api/network", s.handleNetwork)
	go s.fanOutEvents()
}

// command is the envelope for every editor message a client sends.
// Unused fields stay zero for commands that do not need them.
type command struct {
	Cmd       string          `json:"cmd"`
	Points    [][2]float64    `json:"points,omitempty"`
	RoadType  string          `json:"road_type,omitempty"`
	Junction  string          `json:"junction,omitempty"`
	Center    [2]float64      `json:"center,omitempty"`
	Rotation  float64         `json:"rotation,omitempty"`
	Flipped   bool            `json:"flipped,omitempty"`
	Exits     int             `json:"exits,omitempty"`
	Direction string          `json:"direction,omitempty"`
	At        [2]float64      `json:"at,omitempty"`
	Route     string          `json:"route,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	On        bool            `json:"on,omitempty"`
	Network   json.RawMessage `json:"network,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	connID := uuid.NewString()

	s.clientsMu.Lock()
	s.clients[conn] = connID
	total := len(s.clients)
	s.clientsMu.Unlock()
	log.WithFields(log.Fields{"conn": connID, "clients": total}).Info("client connected")

	s.sendTo(conn, s.snapshot(connID))

	go s.readLoop(conn, connID)
}

func (s *Server) readLoop(conn *websocket.Conn, connID string) {
	defer func() {
		conn.Close()
		s.clientsMu.Lock()
		delete(s.clients, conn)
		remaining := len(s.clients)
		s.clientsMu.Unlock()
		log.WithFields(log.Fields{"conn": connID, "clients": remaining}).Info("client disconnected")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithField("conn", connID).Warn("websocket read error")
			}
			return
		}
		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.sendTo(conn, errorMsg("", "bad json"))
			continue
		}
		s.dispatch(conn, connID, cmd)
	}
}

func (s *Server) dispatch(conn *websocket.Conn, connID string, cmd command) {
	switch cmd.Cmd {
	case "add_line":
		if len(cmd.Points) != 2 {
			s.sendTo(conn, errorMsg(cmd.Cmd, "add_line needs exactly 2 points"))
			return
		}
		s.Runner.Edit(func(w *model.World) {
			a := model.Snap(pt(cmd.Points[0]), w.GridSize)
			w.AddLine(a, model.Constrain45(a, pt(cmd.Points[1])), roadType(cmd.RoadType))
		})
		s.broadcastSnapshot()
	case "add_freehand":
		if len(cmd.Points) < 2 {
			s.sendTo(conn, errorMsg(cmd.Cmd, "add_freehand needs at least 2 points"))
			return
		}
		pts := make([]orb.Point, len(cmd.Points))
		for i, p := range cmd.Points {
			pts[i] = pt(p)
		}
		s.Runner.Edit(func(w *model.World) { w.AddFreehand(pts, roadType(cmd.RoadType)) })
		s.broadcastSnapshot()
	case "place_junction":
		t := junctionType(cmd.Junction)
		if t == "" {
			s.sendTo(conn, errorMsg(cmd.Cmd, "unknown junction type: "+cmd.Junction))
			return
		}
		dir := model.Clockwise
		if cmd.Direction == "counterclockwise" {
			dir = model.CounterClockwise
		}
		var center orb.Point
		s.Runner.Edit(func(w *model.World) { center = model.Snap(pt(cmd.Center), w.GridSize) })
		j := s.Runner.PlaceJunction(t, center, cmd.Rotation, cmd.Flipped, cmd.Exits, dir)
		log.WithFields(log.Fields{"name": j.Name, "type": j.Type}).Info("junction placed")
		s.broadcastSnapshot()
	case "erase":
		var erased *model.RoadSegment
		s.Runner.Edit(func(w *model.World) {
			if erased = w.EraseNear(pt(cmd.At)); erased != nil {
				s.Runner.Lights.DetachSegment(erased.ID)
			}
		})
		if erased != nil {
			s.broadcastSnapshot()
		}
	case "clear_world":
		s.Runner.Clear()
		s.Runner.Edit(func(w *model.World) {
			w.Clear()
			s.Runner.Lights.Clear()
		})
		s.broadcastSnapshot()
	case "add_light":
		timing := model.Timing{Green: s.Opt.LightGreen, Yellow: s.Opt.LightYellow, Red: s.Opt.LightRed}
		var err error
		s.Runner.Edit(func(w *model.World) {
			seg, _, dist := w.NearestSegment(pt(cmd.At))
			if seg == nil || dist > w.GridSize {
				err = sim.ErrNoRoadNearby
				return
			}
			_, err = s.Runner.Lights.Install(seg, model.Snap(pt(cmd.At), w.GridSize), timing)
		})
		if err != nil {
			s.sendTo(conn, errorMsg(cmd.Cmd, err.Error()))
			return
		}
		s.broadcastSnapshot()
	case "add_crossing":
		s.Runner.Edit(func(w *model.World) {
			s.Runner.Lights.AddCrossing(model.Snap(pt(cmd.At), w.GridSize))
		})
		s.broadcastSnapshot()
	case "spawn":
		id, err := s.Runner.Spawn(pt(cmd.At), cmd.Route)
		if err != nil {
			s.sendTo(conn, errorMsg(cmd.Cmd, err.Error()))
			return
		}
		s.sendTo(conn, map[string]any{"type": "ack", "cmd": cmd.Cmd, "vehicle_id": id})
	case "start":
		s.Runner.Start()
	case "stop":
		s.Runner.Stop()
	case "clear":
		s.Runner.Clear()
	case "night":
		s.Runner.SetNight(cmd.On)
		s.sendTo(conn, map[string]any{"type": "ack", "cmd": cmd.Cmd, "night": cmd.On})
	case "load_network":
		world, err := model.LoadNetworkFromReader(bytes.NewReader(cmd.Network))
		if err != nil {
			s.sendTo(conn, errorMsg(cmd.Cmd, err.Error()))
			return
		}
		s.installNetwork(world)
		s.broadcastSnapshot()
	case "best_route":
		est := route.NewEstimator(s.Runner.World, s.Runner.Builder, s.Runner.Lights)
		var cand route.Candidate
		var err error
		s.Runner.Edit(func(w *model.World) { cand, err = est.BestRoute(cmd.From, cmd.To) })
		if err != nil {
			s.sendTo(conn, errorMsg(cmd.Cmd, err.Error()))
			return
		}
		s.sendTo(conn, map[string]any{
			"type":    "best_route",
			"from":    cmd.From,
			"to":      cmd.To,
			"route":   route.FormatCommands(cand.Commands),
			"seconds": cand.Seconds,
			"path":    linePoints(cand.Path),
		})
	default:
		s.sendTo(conn, errorMsg(cmd.Cmd, "unknown command"))
	}
}

// installNetwork replays a freshly parsed network into the live world so
// junction light preinstalls fire and every client sees the same state.
func (s *Server) installNetwork(src *model.World) {
	s.Runner.Clear()
	s.Runner.Edit(func(w *model.World) {
		w.Clear()
		s.Runner.Lights.Clear()
	})
	for _, j := range src.Junctions() {
		s.Runner.PlaceJunction(j.Type, j.Center, j.Rotation, j.Flipped, j.ExitCount, j.RingDir)
	}
	s.Runner.Edit(func(w *model.World) {
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
	log.WithFields(log.Fields{
		"segments":  len(src.Segments()),
		"junctions": len(src.Junctions()),
	}).Info("network loaded")
}

// LoadNetworkFile loads a network JSON file into the live world, used at
// startup before any client connects.
func (s *Server) LoadNetworkFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	world, err := model.LoadNetworkFromReader(f)
	if err != nil {
		return err
	}
	s.installNetwork(world)
	return nil
}

// fanOutEvents forwards runner events to every connected client.
func (s *Server) fanOutEvents() {
	for e := range s.Runner.Events() {
		msg := eventMessage(e)
		if msg == nil {
			continue
		}
		s.broadcast(msg)
	}
}

func eventMessage(e sim.Event) map[string]any {
	switch ev := e.(type) {
	case sim.InitEvent:
		return map[string]any{"type": "init", "vehicles": ev.Vehicles, "lights": ev.Lights, "night": ev.Night}
	case sim.PositionEvent:
		return map[string]any{"type": "position", "vehicle_id": ev.VehicleID, "x": ev.Pos[0], "y": ev.Pos[1], "segment": ev.Segment, "progress": ev.Progress, "active": ev.Active}
	case sim.LightStateEvent:
		return map[string]any{"type": "light", "light_id": ev.LightID, "x": ev.Node[0], "y": ev.Node[1], "color": ev.Color.String()}
	case sim.PedestrianEvent:
		return map[string]any{"type": "pedestrian", "crossing_id": ev.CrossingID, "x": ev.Node[0], "y": ev.Node[1], "color": ev.Color.String()}
	case sim.SpawnEvent:
		return map[string]any{"type": "spawn", "vehicle_id": ev.VehicleID, "color": ev.Color, "x": ev.Pos[0], "y": ev.Pos[1], "path_len": ev.PathLen}
	case sim.ClearEvent:
		return map[string]any{"type": "clear", "removed": ev.Removed}
	case sim.DoneEvent:
		return map[string]any{"type": "done", "completed": ev.Completed}
	}
	return nil
}

// snapshot builds the full render state a client needs on connect or
// after an edit.
func (s *Server) snapshot(connID string) map[string]any {
	var segments, junctions []map[string]any
	var lights, crossings []map[string]any
	var grid float64
	s.Runner.Edit(func(w *model.World) {
		grid = w.GridSize
		for _, seg := range w.Segments() {
			segments = append(segments, map[string]any{
				"id":        seg.ID,
				"kind":      seg.Kind.String(),
				"points":    linePoints(seg.Points),
				"road_type": seg.RoadType.String(),
				"owner":     seg.OwnerJunction,
			})
		}
		for _, j := range w.Junctions() {
			junctions = append(junctions, map[string]any{
				"name":     j.Name,
				"type":     string(j.Type),
				"center":   [2]float64{j.Center[0], j.Center[1]},
				"rotation": j.Rotation,
				"flipped":  j.Flipped,
				"exits":    j.ExitCount,
			})
		}
		for _, l := range s.Runner.Lights.Lights() {
			lights = append(lights, map[string]any{
				"id": l.ID, "x": l.Node[0], "y": l.Node[1], "color": l.Color.String(),
			})
		}
		for _, c := range s.Runner.Lights.Crossings() {
			crossings = append(crossings, map[string]any{
				"id": c.ID, "x": c.Node[0], "y": c.Node[1], "color": c.Color.String(),
			})
		}
	})
	vehicles := make([]map[string]any, 0)
	for _, v := range s.Runner.Vehicles() {
		pos := v.Position()
		vehicles = append(vehicles, map[string]any{
			"id": v.ID, "color": v.Color, "x": pos[0], "y": pos[1], "active": v.Alive,
		})
	}
	return map[string]any{
		"type":      "snapshot",
		"conn_id":   connID,
		"grid":      grid,
		"segments":  segments,
		"junctions": junctions,
		"lights":    lights,
		"crossings": crossings,
		"vehicles":  vehicles,
		"running":   s.Runner.Running(),
		"night":     s.Runner.Lights.Night(),
	}
}

func (s *Server) broadcastSnapshot() {
	s.broadcast(s.snapshot(""))
}

func (s *Server) broadcast(msg map[string]any) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Warn("marshal broadcast failed")
		return
	}
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn, id := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.WithError(err).WithField("conn", id).Warn("websocket write failed, dropping client")
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) sendTo(conn *websocket.Conn, msg map[string]any) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		conn.Close()
		delete(s.clients, conn)
	}
}

// handleNetwork serves the current network as JSON (GET) or replaces it
// (POST), mirroring the load_network websocket command for curl use.
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	switch r.Method {
	case http.MethodGet:
		snap := s.snapshot("")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	case http.MethodPost:
		world, err := model.LoadNetworkFromReader(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.installNetwork(world)
		s.broadcastSnapshot()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func errorMsg(cmd, detail string) map[string]any {
	return map[string]any{"type": "error", "cmd": cmd, "detail": detail}
}

func pt(p [2]float64) orb.Point { return orb.Point{p[0], p[1]} }

func roadType(s string) model.RoadType {
	if s == "one_way" {
		return model.OneWay
	}
	return model.TwoWay
}

func junctionType(s string) model.JunctionType {
	switch model.JunctionType(s) {
	case model.TSection, model.Crossroads, model.YIntersection,
		model.Roundabout, model.RampMerge, model.Landmark:
		return model.JunctionType(s)
	}
	return ""
}

func linePoints(ls orb.LineString) [][2]float64 {
	out := make([][2]float64, len(ls))
	for i, p := range ls {
		out[i] = [2]float64{p[0], p[1]}
	}
	return out
}
