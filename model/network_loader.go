package model

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paulmach/orb"
)

// raw structures matching the network JSON a GUI client submits over the
// bridge (this is wire transport, not drawing persistence).
type rawNetwork struct {
	Grid      float64       `json:"grid"`
	Segments  []rawSegment  `json:"segments"`
	Junctions []rawJunction `json:"junctions"`
}

type rawSegment struct {
	Kind     string       `json:"kind"`
	Points   [][2]float64 `json:"points"`
	RoadType string       `json:"road_type"`
}

type rawJunction struct {
	Type      string     `json:"type"`
	Center    [2]float64 `json:"center"`
	Rotation  float64    `json:"rotation"`
	Flipped   bool       `json:"flipped"`
	Exits     int        `json:"exits"`
	Direction string     `json:"direction"`
}

// LoadNetworkFromReader parses a network description and builds a World.
// Junctions are placed first in file order so names follow creation
// order; hand-drawn segments are appended after.
func LoadNetworkFromReader(r io.Reader) (*World, error) {
	dec := json.NewDecoder(r)
	var raw rawNetwork
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode network: %w", err)
	}
	w := NewWorld(raw.Grid)

	for i, rj := range raw.Junctions {
		t := parseJunctionType(rj.Type)
		if t == "" {
			return nil, fmt.Errorf("junction %d: unknown type %q", i, rj.Type)
		}
		exits := rj.Exits
		if t == Roundabout && exits != 8 {
			exits = 4
		}
		dir := Clockwise
		if rj.Direction == "counterclockwise" {
			dir = CounterClockwise
		}
		w.PlaceJunction(t, orb.Point{rj.Center[0], rj.Center[1]}, rj.Rotation, rj.Flipped, exits, dir)
	}

	for i, rs := range raw.Segments {
		if len(rs.Points) < 2 {
			return nil, fmt.Errorf("segment %d: needs at least 2 points", i)
		}
		pts := make([]orb.Point, len(rs.Points))
		for k, p := range rs.Points {
			pts[k] = orb.Point{p[0], p[1]}
		}
		rt := TwoWay
		if rs.RoadType == "one_way" {
			rt = OneWay
		}
		if rs.Kind == "line" && len(pts) == 2 {
			w.AddLine(pts[0], pts[1], rt)
		} else {
			w.AddFreehand(pts, rt)
		}
	}
	return w, nil
}

func parseJunctionType(s string) JunctionType {
	switch JunctionType(s) {
	case TSection, Crossroads, YIntersection, Roundabout, RampMerge, Landmark:
		return JunctionType(s)
	}
	return ""
}
