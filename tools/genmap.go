package main

import (
	"encoding/json"
	"fmt"
	"os"
)

type segment struct {
	Kind     string       `json:"kind"`
	Points   [][2]float64 `json:"points"`
	RoadType string       `json:"road_type"`
}

type junction struct {
	Type      string     `json:"type"`
	Center    [2]float64 `json:"center"`
	Rotation  float64    `json:"rotation,omitempty"`
	Flipped   bool       `json:"flipped,omitempty"`
	Exits     int        `json:"exits,omitempty"`
	Direction string     `json:"direction,omitempty"`
}

type network struct {
	Grid      float64    `json:"grid"`
	Segments  []segment  `json:"segments"`
	Junctions []junction `json:"junctions"`
}

// Emits a sample network file for the simulator: a square of two
// crossroads, a t-section and a roundabout joined by straight roads.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: genmap <output-json>")
		os.Exit(1)
	}
	const grid = 32.0
	ax, ay := grid*8, grid*8
	bx, by := grid*24, grid*8
	cx, cy := grid*8, grid*24
	dx, dy := grid*24, grid*24
	arm := grid * 2

	net := network{
		Grid: grid,
		Junctions: []junction{
			{Type: "crossroads", Center: [2]float64{ax, ay}},
			{Type: "crossroads", Center: [2]float64{bx, by}},
			{Type: "t-section", Center: [2]float64{cx, cy}, Rotation: 180},
			{Type: "roundabout", Center: [2]float64{dx, dy}, Exits: 4, Direction: "clockwise"},
		},
		Segments: []segment{
			{Kind: "line", Points: [][2]float64{{ax + arm, ay}, {bx - arm, by}}, RoadType: "two_way"},
			{Kind: "line", Points: [][2]float64{{cx + arm, cy}, {dx - grid*3, dy}}, RoadType: "two_way"},
			{Kind: "line", Points: [][2]float64{{ax, ay + arm}, {cx, cy - arm}}, RoadType: "two_way"},
			{Kind: "line", Points: [][2]float64{{bx, by + arm}, {dx, dy - grid*3}}, RoadType: "two_way"},
		},
	}

	out, err := json.MarshalIndent(net, "", "  ")
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(os.Args[1], out, 0644); err != nil {
		panic(err)
	}
	fmt.Printf("wrote %s (%d junctions, %d segments)\n", os.Args[1], len(net.Junctions), len(net.Segments))
}
